package vitals

import (
	"math/rand"
	"time"

	"github.com/vladimiradmaev/mediplus/internal/domain"
)

const (
	// HistoryDays is how far back the synthetic history reaches.
	HistoryDays = 730
	// EpisodeProbability is the per-day chance of an elevated BP/glucose episode.
	EpisodeProbability = 0.07

	millisPerDay = 86_400_000.0
)

// Generator produces synthetic vitals history.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator drawing from rng.
func NewGenerator(rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{rng: rng}
}

// Generate returns one sample per registered kind for every day in
// [now-730d, now], all sharing the day's timestamp.
func (g *Generator) Generate(now time.Time) []domain.Sample {
	kinds := len(registry)
	out := make([]domain.Sample, 0, (HistoryDays+1)*kinds)

	start := now.AddDate(0, 0, -HistoryDays)
	for i := 0; i <= HistoryDays; i++ {
		day := start.AddDate(0, 0, i)
		t := float64(day.UnixMilli()) / millisPerDay
		episode := g.rng.Float64() < EpisodeProbability

		for _, spec := range registry {
			r := spec.generate(spec, t, g.rng, episode)
			if spec.Paired() {
				out = append(out, domain.NewPressureSample(day, r.systolic, r.dia))
				continue
			}
			out = append(out, domain.Sample{Timestamp: day, Kind: spec.Kind, Value: r.value})
		}
	}
	return out
}

package vitals

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/vladimiradmaev/mediplus/internal/domain"
)

// Level classifies a reading against the kind's thresholds.
type Level int

const (
	LevelNormal Level = iota
	LevelLow
	LevelHigh
	LevelVeryHigh
)

func (l Level) String() string {
	switch l {
	case LevelLow:
		return "low"
	case LevelHigh:
		return "high"
	case LevelVeryHigh:
		return "very_high"
	default:
		return "normal"
	}
}

// Range is an inclusive clamp interval.
type Range struct {
	Min float64
	Max float64
}

// Clamp limits v to the range.
func (r Range) Clamp(v float64) float64 {
	return math.Max(r.Min, math.Min(r.Max, v))
}

// Contains reports whether v lies in the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Thresholds holds the alert limits of a kind. Zero fields are unused.
type Thresholds struct {
	High        float64
	VeryHigh    float64
	Low         float64
	DiaHigh     float64
	DiaVeryHigh float64
}

// Spec describes everything the rest of the system needs to know about a kind.
type Spec struct {
	Kind       domain.VitalKind
	Slug       string
	Unit       string
	Decimals   int
	Range      Range // scalar value, or systolic for blood pressure
	DiaRange   Range // blood pressure only
	Thresholds Thresholds

	classify func(Spec, domain.Sample) Level
	generate func(Spec, float64, *rand.Rand, bool) reading
}

// Paired reports whether the kind carries a systolic/diastolic pair.
func (s Spec) Paired() bool {
	return s.Kind == domain.KindBloodPressure
}

// Round rounds v to the kind's display precision.
func (s Spec) Round(v float64) float64 {
	return roundTo(v, s.Decimals)
}

// Classify returns the threshold level of a sample of this kind.
func (s Spec) Classify(sample domain.Sample) Level {
	if s.classify == nil {
		return LevelNormal
	}
	return s.classify(s, sample)
}

type reading struct {
	value    float64
	systolic float64
	dia      float64
}

var registry = []Spec{
	{
		Kind:     domain.KindBloodPressure,
		Slug:     "blood-pressure",
		Unit:     "mmHg",
		Decimals: 0,
		Range:    Range{Min: 110, Max: 175},
		DiaRange: Range{Min: 70, Max: 110},
		Thresholds: Thresholds{
			High: 140, VeryHigh: 160,
			DiaHigh: 90, DiaVeryHigh: 100,
		},
		classify: func(s Spec, x domain.Sample) Level {
			if x.Pressure == nil {
				return LevelNormal
			}
			sys, dia := x.Pressure.Systolic, x.Pressure.Diastolic
			switch {
			case sys >= s.Thresholds.VeryHigh || dia >= s.Thresholds.DiaVeryHigh:
				return LevelVeryHigh
			case sys >= s.Thresholds.High || dia >= s.Thresholds.DiaHigh:
				return LevelHigh
			}
			return LevelNormal
		},
		generate: func(s Spec, t float64, rng *rand.Rand, episode bool) reading {
			sys := 128 + 6*math.Sin(t/40) + noise(rng, 6)
			dia := 84 + 4*math.Cos(t/37) + noise(rng, 4)
			if episode {
				sys += uniform(rng, 20, 35)
				dia += uniform(rng, 10, 18)
			}
			return reading{
				systolic: s.Range.Clamp(s.Round(sys)),
				dia:      s.DiaRange.Clamp(s.Round(dia)),
			}
		},
	},
	{
		Kind:       domain.KindHeartRate,
		Slug:       "heart-rate",
		Unit:       "BPM",
		Decimals:   0,
		Range:      Range{Min: 62, Max: 110},
		Thresholds: Thresholds{High: 100, Low: 60},
		classify: func(s Spec, x domain.Sample) Level {
			switch {
			case x.Value > s.Thresholds.High:
				return LevelHigh
			case x.Value < s.Thresholds.Low:
				return LevelLow
			}
			return LevelNormal
		},
		generate: func(s Spec, t float64, rng *rand.Rand, _ bool) reading {
			return reading{value: s.Range.Clamp(s.Round(84 + 5*math.Sin(t/55) + noise(rng, 4)))}
		},
	},
	{
		Kind:       domain.KindBloodSugar,
		Slug:       "blood-sugar",
		Unit:       "mg/dL",
		Decimals:   0,
		Range:      Range{Min: 100, Max: 260},
		Thresholds: Thresholds{High: 180, VeryHigh: 200},
		classify: func(s Spec, x domain.Sample) Level {
			switch {
			case x.Value >= s.Thresholds.VeryHigh:
				return LevelVeryHigh
			case x.Value >= s.Thresholds.High:
				return LevelHigh
			}
			return LevelNormal
		},
		generate: func(s Spec, t float64, rng *rand.Rand, episode bool) reading {
			v := 145 + 18*math.Sin(t/23) + noise(rng, 11)
			if episode {
				v += uniform(rng, 40, 80)
			}
			return reading{value: s.Range.Clamp(s.Round(v))}
		},
	},
	{
		Kind:       domain.KindSpO2,
		Slug:       "spo2",
		Unit:       "%",
		Decimals:   0,
		Range:      Range{Min: 90, Max: 99},
		Thresholds: Thresholds{Low: 92},
		classify: func(s Spec, x domain.Sample) Level {
			if x.Value < s.Thresholds.Low {
				return LevelLow
			}
			return LevelNormal
		},
		generate: func(s Spec, t float64, rng *rand.Rand, _ bool) reading {
			return reading{value: s.Range.Clamp(s.Round(95 + 1.5*math.Cos(t/50) + noise(rng, 1)))}
		},
	},
	{
		Kind:       domain.KindTemperature,
		Slug:       "temperature",
		Unit:       "°C",
		Decimals:   1,
		Range:      Range{Min: 36.0, Max: 37.8},
		Thresholds: Thresholds{High: 38.0},
		classify: func(s Spec, x domain.Sample) Level {
			if x.Value >= s.Thresholds.High {
				return LevelHigh
			}
			return LevelNormal
		},
		generate: func(s Spec, t float64, rng *rand.Rand, _ bool) reading {
			return reading{value: s.Range.Clamp(s.Round(36.6 + 0.2*math.Sin(t/60) + noise(rng, 0.2)))}
		},
	},
}

var aliases = map[string]domain.VitalKind{
	"bp":      domain.KindBloodPressure,
	"hr":      domain.KindHeartRate,
	"pulse":   domain.KindHeartRate,
	"sugar":   domain.KindBloodSugar,
	"glucose": domain.KindBloodSugar,
	"oxygen":  domain.KindSpO2,
	"temp":    domain.KindTemperature,
}

// AllKinds returns every registered kind in display order.
func AllKinds() []domain.VitalKind {
	out := make([]domain.VitalKind, len(registry))
	for i, s := range registry {
		out[i] = s.Kind
	}
	return out
}

// Lookup returns the spec of a kind.
func Lookup(kind domain.VitalKind) (Spec, bool) {
	for _, s := range registry {
		if s.Kind == kind {
			return s, true
		}
	}
	return Spec{}, false
}

// MustLookup is Lookup for kinds known to be registered.
func MustLookup(kind domain.VitalKind) Spec {
	s, ok := Lookup(kind)
	if !ok {
		panic(fmt.Sprintf("vitals: unregistered kind %q", kind))
	}
	return s
}

// ParseKind resolves a display name, slug or short alias to a kind.
// Matching ignores case and treats spaces, dashes and underscores alike.
func ParseKind(s string) (domain.VitalKind, error) {
	key := normalizeKey(s)
	if key == "" {
		return "", fmt.Errorf("empty vital kind")
	}
	for _, spec := range registry {
		if key == normalizeKey(string(spec.Kind)) || key == normalizeKey(spec.Slug) {
			return spec.Kind, nil
		}
	}
	if k, ok := aliases[key]; ok {
		return k, nil
	}
	return "", fmt.Errorf("unknown vital kind %q", s)
}

// Round rounds v to the display precision of kind.
func Round(kind domain.VitalKind, v float64) float64 {
	if s, ok := Lookup(kind); ok {
		return s.Round(v)
	}
	return v
}

// Classify returns the threshold level of a sample.
func Classify(sample domain.Sample) Level {
	if s, ok := Lookup(sample.Kind); ok {
		return s.Classify(sample)
	}
	return LevelNormal
}

func normalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s)
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

func noise(rng *rand.Rand, amp float64) float64 {
	return rng.Float64()*2*amp - amp
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

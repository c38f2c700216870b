package services

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/vladimiradmaev/mediplus/internal/domain"
	apperrors "github.com/vladimiradmaev/mediplus/internal/errors"
	"github.com/vladimiradmaev/mediplus/internal/logger"
	"github.com/vladimiradmaev/mediplus/internal/utils"
	"github.com/vladimiradmaev/mediplus/internal/vitals"
)

// VitalsService owns the sample history. Samples are loaded once and kept in
// memory; every write goes to the repository first.
type VitalsService struct {
	repo domain.SampleRepository
	gen  *vitals.Generator
	now  func() time.Time

	mu      sync.RWMutex
	loaded  bool
	samples []domain.Sample
}

func NewVitalsService(repo domain.SampleRepository, rng *rand.Rand) *VitalsService {
	return &VitalsService{
		repo: repo,
		gen:  vitals.NewGenerator(rng),
		now:  time.Now,
	}
}

// WithClock replaces the time source. Intended for tests.
func (s *VitalsService) WithClock(now func() time.Time) *VitalsService {
	s.now = now
	return s
}

func (s *VitalsService) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	samples, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}
	s.samples = samples
	s.loaded = true
	return nil
}

// SeedIfEmpty writes two years of synthetic history when storage holds no
// samples. It reports whether seeding happened.
func (s *VitalsService) SeedIfEmpty(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return false, err
	}
	if len(s.samples) > 0 {
		return false, nil
	}

	seeded := s.gen.Generate(s.now())
	if err := s.repo.Save(ctx, seeded); err != nil {
		return false, err
	}
	s.samples = seeded
	logger.Info("Seeded vitals history", "samples", len(seeded))
	return true, nil
}

// CheckIn appends one validated sample.
func (s *VitalsService) CheckIn(ctx context.Context, sample domain.Sample) error {
	if sample.Timestamp.IsZero() {
		sample.Timestamp = s.now()
	}
	if err := sample.Validate(); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	if _, ok := vitals.Lookup(sample.Kind); !ok {
		return apperrors.NewValidationError("unknown vital kind: " + string(sample.Kind))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}
	next := make([]domain.Sample, len(s.samples), len(s.samples)+1)
	copy(next, s.samples)
	next = append(next, sample)
	if err := s.repo.Save(ctx, next); err != nil {
		return err
	}
	s.samples = next
	logger.Info("Check-in recorded", "kind", sample.Kind)
	return nil
}

// Samples returns a snapshot of all samples.
func (s *VitalsService) Samples(ctx context.Context) ([]domain.Sample, error) {
	s.mu.RLock()
	if s.loaded {
		out := append([]domain.Sample(nil), s.samples...)
		s.mu.RUnlock()
		return out, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return append([]domain.Sample(nil), s.samples...), nil
}

// Recent returns the newest samples of kind, newest first, up to limit.
func (s *VitalsService) Recent(ctx context.Context, kind domain.VitalKind, limit int) ([]domain.Sample, error) {
	all, err := s.Samples(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.Sample
	for _, smp := range all {
		if kind == "" || smp.Kind == kind {
			out = append(out, smp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Months lists month keys with data, newest first.
func (s *VitalsService) Months(ctx context.Context) ([]string, error) {
	all, err := s.Samples(ctx)
	if err != nil {
		return nil, err
	}
	return vitals.Months(all, s.now()), nil
}

// Series aggregates kind for view. An empty month selects the newest month.
func (s *VitalsService) Series(ctx context.Context, kind domain.VitalKind, view domain.View, month string, day int) ([]domain.Point, error) {
	all, err := s.Samples(ctx)
	if err != nil {
		return nil, err
	}
	if month == "" {
		month = vitals.Months(all, s.now())[0]
	}
	if _, _, err := utils.ParseMonth(month); err != nil {
		return nil, apperrors.NewValidationError("month must look like YYYY-MM")
	}
	return vitals.Series(all, kind, view, month, day)
}

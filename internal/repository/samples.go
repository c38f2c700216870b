package repository

import (
	"context"

	"github.com/vladimiradmaev/mediplus/internal/domain"
	"github.com/vladimiradmaev/mediplus/internal/storage"
)

// SamplesKey is the blob key of the vitals sample list.
const SamplesKey = "mediplus.samples"

// SampleRepository stores all samples as one JSON array.
type SampleRepository struct {
	store storage.BlobStore
}

// NewSampleRepository creates a new sample repository
func NewSampleRepository(store storage.BlobStore) *SampleRepository {
	return &SampleRepository{store: store}
}

// Load returns the stored samples. Missing or corrupt content is an empty list.
func (r *SampleRepository) Load(ctx context.Context) ([]domain.Sample, error) {
	var samples []domain.Sample
	ok, err := loadJSON(ctx, r.store, SamplesKey, &samples)
	if err != nil || !ok {
		return nil, err
	}
	return samples, nil
}

// Save replaces the stored list.
func (r *SampleRepository) Save(ctx context.Context, samples []domain.Sample) error {
	if samples == nil {
		samples = []domain.Sample{}
	}
	return saveJSON(ctx, r.store, SamplesKey, samples)
}

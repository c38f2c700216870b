package app

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladimiradmaev/mediplus/internal/config"
	"github.com/vladimiradmaev/mediplus/internal/repository"
	"github.com/vladimiradmaev/mediplus/internal/storage"
)

func testConfig(store string) *config.Config {
	return &config.Config{
		StoreBackend: store,
		AI: config.AIConfig{
			Provider: config.ProviderOpenAI,
			BaseURL:  "http://127.0.0.1:1",
			APIKey:   "test-key",
			Model:    "test-model",
			Timeout:  time.Second,
		},
	}
}

func TestNewMemory(t *testing.T) {
	a, err := New(context.Background(), testConfig(config.StoreMemory), prometheus.NewRegistry())
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &storage.MemoryStore{}, a.Store)
	assert.Nil(t, a.Redis)
	assert.NotNil(t, a.Vitals)
	assert.NotNil(t, a.Translation)
}

func TestNewRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(config.StoreRedis)
	cfg.Redis = config.RedisConfig{Host: mr.Host(), Port: mr.Port()}

	a, err := New(context.Background(), cfg, prometheus.NewRegistry())
	require.NoError(t, err)
	defer a.Close()

	seeded, err := a.Vitals.SeedIfEmpty(context.Background())
	require.NoError(t, err)
	assert.True(t, seeded)
	assert.True(t, mr.Exists(RedisPrefix+repository.SamplesKey))
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	cfg := testConfig(config.StoreMemory)
	cfg.AI.Provider = "mystery"
	_, err := New(context.Background(), cfg, prometheus.NewRegistry())
	assert.Error(t, err)
}

// Package app assembles the services shared by the server and the CLI.
package app

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/vladimiradmaev/mediplus/internal/config"
	"github.com/vladimiradmaev/mediplus/internal/database"
	"github.com/vladimiradmaev/mediplus/internal/logger"
	"github.com/vladimiradmaev/mediplus/internal/metrics"
	"github.com/vladimiradmaev/mediplus/internal/repository"
	"github.com/vladimiradmaev/mediplus/internal/services"
	"github.com/vladimiradmaev/mediplus/internal/storage"
)

// RedisPrefix namespaces every key MediPlus writes to Redis.
const RedisPrefix = "mediplus:"

// App holds the wired services.
type App struct {
	Config      *config.Config
	Store       storage.BlobStore
	Redis       *redis.Client
	Completer   services.Completer
	Vitals      *services.VitalsService
	Insights    *services.InsightService
	Checklist   *services.ChecklistService
	Chat        *services.ChatService
	Translation *services.TranslationService

	closers []func() error
}

// New opens the configured store and builds the services on top of it.
// AI metrics are registered on reg.
func New(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) (*App, error) {
	a := &App{Config: cfg}

	store, err := a.openStore(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Store = store

	aiMetrics := metrics.NewAIMetrics(reg)
	completer, err := services.NewAIService(ctx, cfg.AI, aiMetrics)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Completer = completer

	dispatcher := services.NewDispatcher(aiMetrics)
	a.Vitals = services.NewVitalsService(repository.NewSampleRepository(store), rand.New(rand.NewSource(time.Now().UnixNano())))
	a.Chat = services.NewChatService(repository.NewChatSessionRepository(store), completer, dispatcher)
	a.Insights = services.NewInsightService(a.Vitals, completer, dispatcher)
	a.Checklist = services.NewChecklistService(repository.NewQuestionStateRepository(store), a.Vitals, a.Chat, completer, dispatcher)
	a.Translation = services.NewTranslationService(completer, dispatcher)

	logger.Info("Services initialized", "store", cfg.StoreBackend, "ai_provider", cfg.AI.Provider)
	return a, nil
}

func (a *App) openStore(cfg *config.Config) (storage.BlobStore, error) {
	switch cfg.StoreBackend {
	case config.StoreRedis:
		client, err := storage.NewRedisClient(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		a.Redis = client
		a.closers = append(a.closers, client.Close)
		return storage.NewRedisStore(client, RedisPrefix), nil
	case config.StorePostgres:
		db, err := database.NewPostgresDB(cfg.DB)
		if err != nil {
			return nil, err
		}
		if sqlDB, err := db.DB(); err == nil {
			a.closers = append(a.closers, sqlDB.Close)
		}
		return storage.NewPostgresStore(db), nil
	default:
		return storage.NewMemoryStore(), nil
	}
}

// Seed fills an empty history with generated samples and tops up empty
// question lists.
func (a *App) Seed(ctx context.Context) error {
	seeded, err := a.Vitals.SeedIfEmpty(ctx)
	if err != nil {
		return err
	}
	if seeded {
		logger.Info("Seeded sample history")
	}
	if _, err := a.Checklist.AutoGenerateIfEmpty(ctx); err != nil {
		logger.Warn("Initial question generation failed", "error", err)
	}
	return nil
}

// Close releases store connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

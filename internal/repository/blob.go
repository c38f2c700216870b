package repository

import (
	"context"
	"encoding/json"
	"errors"

	apperrors "github.com/vladimiradmaev/mediplus/internal/errors"
	"github.com/vladimiradmaev/mediplus/internal/logger"
	"github.com/vladimiradmaev/mediplus/internal/storage"
)

// loadJSON decodes the blob at key into out. It returns false when the key is
// absent or its content cannot be decoded; only store failures are errors.
func loadJSON(ctx context.Context, store storage.BlobStore, key string, out any) (bool, error) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.NewDatabaseError(err).WithContext("key", key)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		logger.Warn("Discarding unreadable blob", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

func saveJSON(ctx context.Context, store storage.BlobStore, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := store.Set(ctx, key, raw); err != nil {
		return apperrors.NewDatabaseError(err).WithContext("key", key)
	}
	return nil
}

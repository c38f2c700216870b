package repository

import (
	"context"

	"github.com/vladimiradmaev/mediplus/internal/domain"
	"github.com/vladimiradmaev/mediplus/internal/storage"
)

// ChatKey returns the blob key of a companion feature's sessions.
func ChatKey(feature string) string {
	return "mediplus.chat." + feature
}

// ChatSessionRepository stores each feature's sessions as one JSON array.
type ChatSessionRepository struct {
	store storage.BlobStore
}

// NewChatSessionRepository creates a new chat session repository
func NewChatSessionRepository(store storage.BlobStore) *ChatSessionRepository {
	return &ChatSessionRepository{store: store}
}

// Load returns the feature's sessions. Missing or corrupt content is empty.
func (r *ChatSessionRepository) Load(ctx context.Context, feature string) ([]domain.ChatSession, error) {
	var sessions []domain.ChatSession
	ok, err := loadJSON(ctx, r.store, ChatKey(feature), &sessions)
	if err != nil || !ok {
		return nil, err
	}
	return sessions, nil
}

// Save replaces the feature's sessions.
func (r *ChatSessionRepository) Save(ctx context.Context, feature string, sessions []domain.ChatSession) error {
	if sessions == nil {
		sessions = []domain.ChatSession{}
	}
	return saveJSON(ctx, r.store, ChatKey(feature), sessions)
}

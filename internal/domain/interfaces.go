package domain

import "context"

// SampleRepository persists the vitals sample list.
type SampleRepository interface {
	Load(ctx context.Context) ([]Sample, error)
	Save(ctx context.Context, samples []Sample) error
}

// QuestionStateRepository persists the appointment checklist.
type QuestionStateRepository interface {
	Load(ctx context.Context) (QuestionState, error)
	Save(ctx context.Context, state QuestionState) error
}

// ChatSessionRepository persists chat sessions per companion feature.
type ChatSessionRepository interface {
	Load(ctx context.Context, feature string) ([]ChatSession, error)
	Save(ctx context.Context, feature string, sessions []ChatSession) error
}

// BotService handles telegram bot operations
type BotService interface {
	Start(ctx context.Context) error
	Stop()
}

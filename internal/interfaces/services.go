package interfaces

import (
	"context"

	"github.com/vladimiradmaev/mediplus/internal/domain"
	"github.com/vladimiradmaev/mediplus/internal/services"
)

// VitalsServiceInterface defines the contract for sample history operations
type VitalsServiceInterface interface {
	SeedIfEmpty(ctx context.Context) (bool, error)
	CheckIn(ctx context.Context, sample domain.Sample) error
	Samples(ctx context.Context) ([]domain.Sample, error)
	Recent(ctx context.Context, kind domain.VitalKind, limit int) ([]domain.Sample, error)
	Months(ctx context.Context) ([]string, error)
	Series(ctx context.Context, kind domain.VitalKind, view domain.View, month string, day int) ([]domain.Point, error)
}

// InsightServiceInterface defines the contract for month and per-vital insights
type InsightServiceInterface interface {
	MonthInsights(ctx context.Context, month string) (services.InsightResult, error)
	LocalMonthInsights(ctx context.Context, month string) (services.InsightResult, error)
	VitalInsights(ctx context.Context, kind domain.VitalKind, month string, view domain.View, day int) (services.InsightResult, error)
	Latest(slot string) (services.InsightResult, bool)
}

// ChecklistServiceInterface defines the contract for appointment question lists
type ChecklistServiceInterface interface {
	State(ctx context.Context) (domain.QuestionState, error)
	SelectSpecialty(ctx context.Context, name string) (domain.QuestionState, error)
	AddSpecialty(ctx context.Context, name string) (domain.QuestionState, error)
	RenameSpecialty(ctx context.Context, oldName, newName string) (domain.QuestionState, error)
	DeleteSpecialty(ctx context.Context, name string) (domain.QuestionState, error)
	AddQuestion(ctx context.Context, specialty, text string, source domain.QuestionSource) (domain.Question, error)
	EditQuestion(ctx context.Context, specialty, id, text string) (domain.Question, error)
	ToggleQuestion(ctx context.Context, specialty, id string) (domain.Question, error)
	DeleteQuestion(ctx context.Context, specialty, id string) error
	ReorderQuestion(ctx context.Context, specialty string, from, to int) ([]domain.Question, error)
	InsertMany(ctx context.Context, specialty string, texts []string, source domain.QuestionSource) (int, error)
	GenerateForSpecialty(ctx context.Context, name string) (int, error)
	GenerateAll(ctx context.Context) (int, error)
	AutoGenerateIfEmpty(ctx context.Context) (bool, error)
}

// ChatServiceInterface defines the contract for companion chat sessions
type ChatServiceInterface interface {
	ListSessions(ctx context.Context, feature string) ([]domain.ChatSession, error)
	CreateSession(ctx context.Context, feature string) (domain.ChatSession, error)
	GetSession(ctx context.Context, feature, id string) (domain.ChatSession, error)
	DeleteSession(ctx context.Context, feature, id string) error
	Send(ctx context.Context, feature, id, text string) (domain.ChatMessage, error)
	SendContext(ctx context.Context, feature, id, text, hint string) (domain.ChatMessage, error)
}

// TranslationServiceInterface defines the contract for UI string translation
type TranslationServiceInterface interface {
	Translate(ctx context.Context, target string, items []string) ([]string, error)
}

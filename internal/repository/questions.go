package repository

import (
	"context"

	"github.com/vladimiradmaev/mediplus/internal/domain"
	"github.com/vladimiradmaev/mediplus/internal/storage"
)

// QuestionsKey is the blob key of the checklist state. The suffix tracks
// domain.QuestionStateVersion.
const QuestionsKey = "mediplus.questions.v2"

// DefaultSpecialties seed a fresh checklist; the first one starts active.
var DefaultSpecialties = []string{
	"General Doctor",
	"Cardiologist",
	"Endocrinologist",
	"Psychiatrist",
	"Pulmonologist",
	"Dietitian",
}

// DefaultQuestionState returns the blank checklist.
func DefaultQuestionState() domain.QuestionState {
	st := domain.QuestionState{
		Version:     domain.QuestionStateVersion,
		Specialties: append([]string(nil), DefaultSpecialties...),
		Active:      DefaultSpecialties[0],
		Questions:   make(map[string][]domain.Question, len(DefaultSpecialties)),
	}
	for _, s := range DefaultSpecialties {
		st.Questions[s] = []domain.Question{}
	}
	return st
}

// QuestionStateRepository stores the checklist behind a version gate.
type QuestionStateRepository struct {
	store storage.BlobStore
}

// NewQuestionStateRepository creates a new checklist repository
func NewQuestionStateRepository(store storage.BlobStore) *QuestionStateRepository {
	return &QuestionStateRepository{store: store}
}

// Load returns the stored checklist. Missing, corrupt or other-version
// content is replaced by the default state, which is written back.
func (r *QuestionStateRepository) Load(ctx context.Context) (domain.QuestionState, error) {
	var st domain.QuestionState
	ok, err := loadJSON(ctx, r.store, QuestionsKey, &st)
	if err != nil {
		return domain.QuestionState{}, err
	}
	if ok && st.Version == domain.QuestionStateVersion && st.Specialties != nil && st.Questions != nil {
		return normalize(st), nil
	}

	blank := DefaultQuestionState()
	if err := r.Save(ctx, blank); err != nil {
		return domain.QuestionState{}, err
	}
	return blank, nil
}

// Save writes the whole checklist.
func (r *QuestionStateRepository) Save(ctx context.Context, st domain.QuestionState) error {
	return saveJSON(ctx, r.store, QuestionsKey, st)
}

// normalize restores the invariants of a decoded state: every specialty has a
// list and active names an existing specialty.
func normalize(st domain.QuestionState) domain.QuestionState {
	for _, s := range st.Specialties {
		if st.Questions[s] == nil {
			st.Questions[s] = []domain.Question{}
		}
	}
	if !st.HasSpecialty(st.Active) {
		st.Active = ""
		if len(st.Specialties) > 0 {
			st.Active = st.Specialties[0]
		}
	}
	return st
}

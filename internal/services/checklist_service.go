package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vladimiradmaev/mediplus/internal/domain"
	apperrors "github.com/vladimiradmaev/mediplus/internal/errors"
	"github.com/vladimiradmaev/mediplus/internal/insights"
	"github.com/vladimiradmaev/mediplus/internal/logger"
)

// SlotQuestions is shared by single-specialty and all-specialty generation,
// so either one supersedes the other.
const SlotQuestions = "questions:generate"

const (
	questionsSystemPrompt = "You are a careful health coach. Output MUST be valid, minified JSON with no commentary. " +
		"No diagnosis. Keep questions concise and patient-friendly."
	questionsMaxTokens   = 700
	questionsTemperature = 0.25
	recentChatMessages   = 12
)

// ChatHistory exposes recent companion conversation text.
type ChatHistory interface {
	RecentMessages(ctx context.Context, feature string, n int) ([]string, error)
}

// ChecklistService owns the per-specialty appointment question lists.
// Every mutation is persisted before it becomes visible.
type ChecklistService struct {
	repo       domain.QuestionStateRepository
	samples    SampleSource
	chats      ChatHistory
	completer  Completer
	dispatcher *Dispatcher
	now        func() time.Time
	newID      func() string

	mu    sync.Mutex
	state *domain.QuestionState
}

func NewChecklistService(repo domain.QuestionStateRepository, samples SampleSource, chats ChatHistory, completer Completer, dispatcher *Dispatcher) *ChecklistService {
	return &ChecklistService{
		repo:       repo,
		samples:    samples,
		chats:      chats,
		completer:  completer,
		dispatcher: dispatcher,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

func (s *ChecklistService) ensureLoaded(ctx context.Context) error {
	if s.state != nil {
		return nil
	}
	st, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}
	s.state = &st
	return nil
}

// mutate applies fn to a copy of the state and persists it when fn reports
// a change. It returns the resulting state.
func (s *ChecklistService) mutate(ctx context.Context, fn func(st *domain.QuestionState) (bool, error)) (domain.QuestionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return domain.QuestionState{}, err
	}
	next := s.state.Clone()
	changed, err := fn(&next)
	if err != nil {
		return domain.QuestionState{}, err
	}
	if changed {
		if err := s.repo.Save(ctx, next); err != nil {
			return domain.QuestionState{}, err
		}
		s.state = &next
	}
	return s.state.Clone(), nil
}

// State returns the current checklist.
func (s *ChecklistService) State(ctx context.Context) (domain.QuestionState, error) {
	return s.mutate(ctx, func(*domain.QuestionState) (bool, error) { return false, nil })
}

func (s *ChecklistService) SelectSpecialty(ctx context.Context, name string) (domain.QuestionState, error) {
	return s.mutate(ctx, func(st *domain.QuestionState) (bool, error) {
		if !st.HasSpecialty(name) {
			return false, apperrors.NewNotFoundError("specialty", name)
		}
		if st.Active == name {
			return false, nil
		}
		st.Active = name
		return true, nil
	})
}

// AddSpecialty appends name and makes it active. Blank or existing names
// leave the state unchanged.
func (s *ChecklistService) AddSpecialty(ctx context.Context, name string) (domain.QuestionState, error) {
	name = strings.TrimSpace(name)
	return s.mutate(ctx, func(st *domain.QuestionState) (bool, error) {
		if name == "" || st.HasSpecialty(name) {
			return false, nil
		}
		st.Specialties = append(st.Specialties, name)
		st.Questions[name] = []domain.Question{}
		st.Active = name
		return true, nil
	})
}

// RenameSpecialty moves the list of oldName to newName. Renaming to the
// same or an existing name is a no-op.
func (s *ChecklistService) RenameSpecialty(ctx context.Context, oldName, newName string) (domain.QuestionState, error) {
	newName = strings.TrimSpace(newName)
	return s.mutate(ctx, func(st *domain.QuestionState) (bool, error) {
		if !st.HasSpecialty(oldName) {
			return false, apperrors.NewNotFoundError("specialty", oldName)
		}
		if newName == "" || newName == oldName || st.HasSpecialty(newName) {
			return false, nil
		}
		for i, sp := range st.Specialties {
			if sp == oldName {
				st.Specialties[i] = newName
			}
		}
		st.Questions[newName] = st.Questions[oldName]
		delete(st.Questions, oldName)
		if st.Active == oldName {
			st.Active = newName
		}
		return true, nil
	})
}

// DeleteSpecialty removes name and its questions. When it was active the
// first remaining specialty becomes active.
func (s *ChecklistService) DeleteSpecialty(ctx context.Context, name string) (domain.QuestionState, error) {
	return s.mutate(ctx, func(st *domain.QuestionState) (bool, error) {
		if !st.HasSpecialty(name) {
			return false, nil
		}
		kept := st.Specialties[:0]
		for _, sp := range st.Specialties {
			if sp != name {
				kept = append(kept, sp)
			}
		}
		st.Specialties = kept
		delete(st.Questions, name)
		if st.Active == name {
			st.Active = ""
			if len(kept) > 0 {
				st.Active = kept[0]
			}
		}
		return true, nil
	})
}

// resolve returns the specialty to act on: name, or the active one.
func resolve(st *domain.QuestionState, name string) (string, error) {
	if name == "" {
		name = st.Active
	}
	if !st.HasSpecialty(name) {
		return "", apperrors.NewNotFoundError("specialty", name)
	}
	return name, nil
}

func indexOf(list []domain.Question, id string) int {
	for i, q := range list {
		if q.ID == id {
			return i
		}
	}
	return -1
}

// AddQuestion appends one question to specialty (the active one if empty).
func (s *ChecklistService) AddQuestion(ctx context.Context, specialty, text string, source domain.QuestionSource) (domain.Question, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Question{}, apperrors.NewValidationError("question text is empty")
	}
	if source == "" {
		source = domain.SourceUser
	}
	var added domain.Question
	_, err := s.mutate(ctx, func(st *domain.QuestionState) (bool, error) {
		name, err := resolve(st, specialty)
		if err != nil {
			return false, err
		}
		now := s.now()
		added = domain.Question{ID: s.newID(), Text: text, CreatedAt: now, UpdatedAt: now, Source: source}
		st.Questions[name] = append(st.Questions[name], added)
		return true, nil
	})
	return added, err
}

func (s *ChecklistService) updateQuestion(ctx context.Context, specialty, id string, fn func(q *domain.Question)) (domain.Question, error) {
	var updated domain.Question
	_, err := s.mutate(ctx, func(st *domain.QuestionState) (bool, error) {
		name, err := resolve(st, specialty)
		if err != nil {
			return false, err
		}
		list := st.Questions[name]
		i := indexOf(list, id)
		if i < 0 {
			return false, apperrors.NewNotFoundError("question", id)
		}
		fn(&list[i])
		updated = list[i]
		return true, nil
	})
	return updated, err
}

// EditQuestion replaces the text and refreshes UpdatedAt.
func (s *ChecklistService) EditQuestion(ctx context.Context, specialty, id, text string) (domain.Question, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Question{}, apperrors.NewValidationError("question text is empty")
	}
	return s.updateQuestion(ctx, specialty, id, func(q *domain.Question) {
		q.Text = text
		q.UpdatedAt = s.now()
	})
}

func (s *ChecklistService) ToggleQuestion(ctx context.Context, specialty, id string) (domain.Question, error) {
	return s.updateQuestion(ctx, specialty, id, func(q *domain.Question) {
		q.Checked = !q.Checked
	})
}

func (s *ChecklistService) DeleteQuestion(ctx context.Context, specialty, id string) error {
	_, err := s.mutate(ctx, func(st *domain.QuestionState) (bool, error) {
		name, err := resolve(st, specialty)
		if err != nil {
			return false, err
		}
		list := st.Questions[name]
		i := indexOf(list, id)
		if i < 0 {
			return false, apperrors.NewNotFoundError("question", id)
		}
		st.Questions[name] = append(list[:i], list[i+1:]...)
		return true, nil
	})
	return err
}

// ReorderQuestion moves the question at index from to index to.
func (s *ChecklistService) ReorderQuestion(ctx context.Context, specialty string, from, to int) ([]domain.Question, error) {
	st, err := s.mutate(ctx, func(st *domain.QuestionState) (bool, error) {
		name, err := resolve(st, specialty)
		if err != nil {
			return false, err
		}
		list := st.Questions[name]
		if from < 0 || from >= len(list) || to < 0 || to >= len(list) {
			return false, apperrors.NewValidationError(fmt.Sprintf("reorder indexes out of range [0,%d)", len(list)))
		}
		if from == to {
			return false, nil
		}
		q := list[from]
		list = append(list[:from], list[from+1:]...)
		list = append(list[:to], append([]domain.Question{q}, list[to:]...)...)
		st.Questions[name] = list
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	name := specialty
	if name == "" {
		name = st.Active
	}
	return st.Questions[name], nil
}

// InsertMany appends texts to specialty as new questions. Texts are trimmed,
// given a trailing "?" and skipped when they duplicate an existing question
// or an earlier text of the batch, ignoring case and spacing.
func (s *ChecklistService) InsertMany(ctx context.Context, specialty string, texts []string, source domain.QuestionSource) (int, error) {
	if source == "" {
		source = domain.SourceAI
	}
	var added int
	_, err := s.mutate(ctx, func(st *domain.QuestionState) (bool, error) {
		name, err := resolve(st, specialty)
		if err != nil {
			return false, err
		}
		added = s.appendUnique(st, name, texts, source)
		return added > 0, nil
	})
	return added, err
}

// appendUnique adds texts to specialty name as questions ending in "?",
// skipping blanks and near-duplicates.
func (s *ChecklistService) appendUnique(st *domain.QuestionState, name string, texts []string, source domain.QuestionSource) int {
	list := st.Questions[name]
	have := make(map[string]struct{}, len(list)+len(texts))
	for _, q := range list {
		have[dedupeKey(q.Text)] = struct{}{}
	}
	now := s.now()
	added := 0
	for _, t := range texts {
		t = strings.Join(strings.Fields(t), " ")
		if t == "" {
			continue
		}
		if !strings.HasSuffix(t, "?") {
			t += "?"
		}
		key := dedupeKey(t)
		if _, dup := have[key]; dup {
			continue
		}
		have[key] = struct{}{}
		list = append(list, domain.Question{ID: s.newID(), Text: t, CreatedAt: now, UpdatedAt: now, Source: source})
		added++
	}
	st.Questions[name] = list
	return added
}

func dedupeKey(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

// promptContext gathers the vitals and chat context handed to the generator.
func (s *ChecklistService) promptContext(ctx context.Context) (string, error) {
	all, err := s.samples.Samples(ctx)
	if err != nil {
		return "", err
	}
	qc := insights.BuildQuestionContext(all, s.now())
	if s.chats != nil {
		if qc.MedBotRecent, err = s.chats.RecentMessages(ctx, FeatureMedBot, recentChatMessages); err != nil {
			return "", err
		}
		if qc.MindfulRecent, err = s.chats.RecentMessages(ctx, FeatureMindful, recentChatMessages); err != nil {
			return "", err
		}
	}
	raw, err := json.Marshal(qc)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	return string(raw), nil
}

const questionRules = "Write **questions only** in first-person ('I', 'my'), each ending with a **question mark**.\n" +
	"Keep each ≤ 18 words, practical, and neutral. No advice, no diagnosis. Avoid medical jargon.\n" +
	"Use the summary and stats below to tailor what the patient might ask.\n" +
	"If specific dates exist, reference them.\n" +
	"If medication hints exist, include adherence/side-effect/adjustment questions.\n\n"

func (s *ChecklistService) questionRequest(prompt string) Request {
	return Request{
		Feature:     FeatureQuestions,
		System:      questionsSystemPrompt,
		Messages:    []Message{{Role: RoleUser, Content: prompt}},
		MaxTokens:   questionsMaxTokens,
		Temperature: questionsTemperature,
	}
}

// GenerateForSpecialty asks for 5-8 questions for name (the active
// specialty if empty) and inserts the new ones.
func (s *ChecklistService) GenerateForSpecialty(ctx context.Context, name string) (int, error) {
	st, err := s.State(ctx)
	if err != nil {
		return 0, err
	}
	if name, err = resolve(&st, name); err != nil {
		return 0, err
	}
	payload, err := s.promptContext(ctx)
	if err != nil {
		return 0, err
	}
	prompt := fmt.Sprintf("Generate 5-8 **patient-to-doctor** questions for the %s.\n", name) +
		questionRules + "CONTEXT:\n" + payload +
		"\n\nRespond ONLY with a minified JSON array of strings (questions ending with '?')."

	call := func(ctx context.Context) ([]string, error) {
		var texts []string
		err := CompleteJSON(ctx, s.completer, s.questionRequest(prompt), &texts)
		return texts, err
	}

	var (
		added    int
		applyErr error
	)
	err = Run(ctx, s.dispatcher, SlotQuestions, call, func(texts []string, err error) {
		if err != nil {
			return
		}
		added, applyErr = s.InsertMany(ctx, name, texts, domain.SourceAI)
	})
	if err != nil {
		return 0, err
	}
	if applyErr != nil {
		return 0, applyErr
	}
	logger.Info("Generated questions", "specialty", name, "added", added)
	return added, nil
}

// GenerateAll asks for questions across every specialty. Specialties named
// in the answer that do not exist yet are added in name order.
func (s *ChecklistService) GenerateAll(ctx context.Context) (int, error) {
	st, err := s.State(ctx)
	if err != nil {
		return 0, err
	}
	payload, err := s.promptContext(ctx)
	if err != nil {
		return 0, err
	}
	prompt := "You are generating a **patient-to-doctor** question bank for the user's next appointments.\n" +
		questionRules +
		"Specialties: " + strings.Join(st.Specialties, ", ") + ".\n\n" +
		"CONTEXT:\n" + payload +
		"\n\nRespond ONLY with minified JSON mapping specialties to arrays of strings."

	call := func(ctx context.Context) (map[string][]any, error) {
		var byName map[string][]any
		err := CompleteJSON(ctx, s.completer, s.questionRequest(prompt), &byName)
		return byName, err
	}

	var (
		added    int
		applyErr error
	)
	err = Run(ctx, s.dispatcher, SlotQuestions, call, func(byName map[string][]any, err error) {
		if err != nil {
			return
		}
		_, applyErr = s.mutate(ctx, func(st *domain.QuestionState) (bool, error) {
			names := make([]string, 0, len(byName))
			for name := range byName {
				if strings.TrimSpace(name) != "" {
					names = append(names, name)
				}
			}
			sort.Strings(names)
			changed := false
			for _, name := range names {
				if !st.HasSpecialty(name) {
					st.Specialties = append(st.Specialties, name)
					st.Questions[name] = []domain.Question{}
					changed = true
				}
				n := s.appendUnique(st, name, stringsOf(byName[name]), domain.SourceAI)
				added += n
				changed = changed || n > 0
			}
			if st.Active == "" && len(st.Specialties) > 0 {
				st.Active = st.Specialties[0]
			}
			return changed, nil
		})
	})
	if err != nil {
		return 0, err
	}
	if applyErr != nil {
		return 0, applyErr
	}
	logger.Info("Generated questions for all specialties", "added", added)
	return added, nil
}

// AutoGenerateIfEmpty runs GenerateAll when every list is empty.
func (s *ChecklistService) AutoGenerateIfEmpty(ctx context.Context) (bool, error) {
	st, err := s.State(ctx)
	if err != nil {
		return false, err
	}
	for _, sp := range st.Specialties {
		if len(st.Questions[sp]) > 0 {
			return false, nil
		}
	}
	if _, err := s.GenerateAll(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func stringsOf(items []any) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		out = append(out, fmt.Sprint(it))
	}
	return out
}

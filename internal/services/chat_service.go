package services

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/vladimiradmaev/mediplus/internal/domain"
	apperrors "github.com/vladimiradmaev/mediplus/internal/errors"
	"github.com/vladimiradmaev/mediplus/internal/logger"
)

const (
	DefaultChatTitle = "New Chat"
	chatContextSize  = 10
	titleRunes       = 30
	maxBulletRunes   = 140
	emptyReply       = "Sorry, I could not respond."
	apologyPrefix    = "Sorry—AI error: "
)

// Feature configures one companion chat.
type Feature struct {
	Name         string
	SystemPrompt string
	Greeting     string
	MaxTokens    int
	Temperature  float32
	// Frame rewrites the user text sent to the model. hint carries caller
	// context such as the active specialty.
	Frame func(text, hint string) string
}

const medBotPrompt = "You are MedBot, a careful medical assistant. No diagnosis. " +
	"When the user asks for questions to ask a specialist, reply with short bullet points. " +
	"When they share symptoms or concerns, respond concisely and practically. " +
	"Format the responses in a neat and readable way."

// DefaultFeatures returns the MedBot, Mindful and questions-page MedBot chats.
func DefaultFeatures() []Feature {
	return []Feature{
		{
			Name:         FeatureMedBot,
			SystemPrompt: medBotPrompt,
			Greeting:     "Hi! I can suggest questions for your next appointment or help refine them.",
			MaxTokens:    400,
			Temperature:  0.4,
		},
		{
			Name: FeatureMindful,
			SystemPrompt: "You are a compassionate mindful wellness assistant. Provide empathetic, supportive responses. " +
				"Suggest mindfulness practices like breathing exercises, meditation, or calming music. " +
				"Keep responses concise but caring (2-3 sentences max). Suggest professional help if needed. " +
				"Ask follow-up questions to understand how to best help.",
			Greeting: "Hi, how are you feeling today? I'm here to help you with mindfulness, breathing exercises, " +
				"or just to listen. What would you like to talk about?",
			MaxTokens:   150,
			Temperature: 0.7,
		},
		{
			Name:         FeatureQuestionsMedBot,
			SystemPrompt: medBotPrompt,
			Greeting:     "Hi! I can suggest questions for your next appointment or help refine them.",
			MaxTokens:    400,
			Temperature:  0.4,
			Frame: func(text, hint string) string {
				if hint == "" {
					hint = "General Doctor"
				}
				return fmt.Sprintf("Active specialty: %s.\n", hint) +
					"If user requests new questions, provide 6-10 concise bullets in a neat and readable format (<= 18 words). " +
					"Otherwise, respond briefly.\n\n" + text
			},
		},
	}
}

// ChatService keeps linear chat sessions per feature.
type ChatService struct {
	repo       domain.ChatSessionRepository
	completer  Completer
	dispatcher *Dispatcher
	features   map[string]Feature
	now        func() time.Time
	newID      func() string

	mu       sync.Mutex
	sessions map[string][]domain.ChatSession
}

func NewChatService(repo domain.ChatSessionRepository, completer Completer, dispatcher *Dispatcher, features ...Feature) *ChatService {
	if len(features) == 0 {
		features = DefaultFeatures()
	}
	byName := make(map[string]Feature, len(features))
	for _, f := range features {
		byName[f.Name] = f
	}
	return &ChatService{
		repo:       repo,
		completer:  completer,
		dispatcher: dispatcher,
		features:   byName,
		now:        time.Now,
		newID:      uuid.NewString,
		sessions:   make(map[string][]domain.ChatSession),
	}
}

func (s *ChatService) feature(name string) (Feature, error) {
	f, ok := s.features[name]
	if !ok {
		return Feature{}, apperrors.NewNotFoundError("chat feature", name)
	}
	return f, nil
}

func (s *ChatService) newSession(f Feature) domain.ChatSession {
	now := s.now()
	return domain.ChatSession{
		ID:           s.newID(),
		Title:        DefaultChatTitle,
		LastActivity: now,
		Messages: []domain.ChatMessage{{
			ID:        s.newID(),
			Content:   f.Greeting,
			Sender:    domain.SenderBot,
			Timestamp: now,
		}},
	}
}

// load returns the feature's sessions, creating the first one on demand.
// Callers hold s.mu.
func (s *ChatService) load(ctx context.Context, f Feature) ([]domain.ChatSession, error) {
	if list, ok := s.sessions[f.Name]; ok {
		return list, nil
	}
	list, err := s.repo.Load(ctx, f.Name)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		list = []domain.ChatSession{s.newSession(f)}
		if err := s.repo.Save(ctx, f.Name, list); err != nil {
			return nil, err
		}
	}
	s.sessions[f.Name] = list
	return list, nil
}

// commit persists list and makes it current. Callers hold s.mu.
func (s *ChatService) commit(ctx context.Context, feature string, list []domain.ChatSession) error {
	if err := s.repo.Save(ctx, feature, list); err != nil {
		return err
	}
	s.sessions[feature] = list
	return nil
}

func findSession(list []domain.ChatSession, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneSessions(list []domain.ChatSession) []domain.ChatSession {
	out := make([]domain.ChatSession, len(list))
	for i := range list {
		out[i] = list[i].Clone()
	}
	return out
}

// ListSessions returns the feature's sessions, newest first.
func (s *ChatService) ListSessions(ctx context.Context, feature string) ([]domain.ChatSession, error) {
	f, err := s.feature(feature)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.load(ctx, f)
	if err != nil {
		return nil, err
	}
	return cloneSessions(list), nil
}

// CreateSession starts a session seeded with the feature greeting.
func (s *ChatService) CreateSession(ctx context.Context, feature string) (domain.ChatSession, error) {
	f, err := s.feature(feature)
	if err != nil {
		return domain.ChatSession{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.load(ctx, f)
	if err != nil {
		return domain.ChatSession{}, err
	}
	sess := s.newSession(f)
	next := append([]domain.ChatSession{sess}, cloneSessions(list)...)
	if err := s.commit(ctx, f.Name, next); err != nil {
		return domain.ChatSession{}, err
	}
	return sess.Clone(), nil
}

func (s *ChatService) GetSession(ctx context.Context, feature, id string) (domain.ChatSession, error) {
	f, err := s.feature(feature)
	if err != nil {
		return domain.ChatSession{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.load(ctx, f)
	if err != nil {
		return domain.ChatSession{}, err
	}
	i := findSession(list, id)
	if i < 0 {
		return domain.ChatSession{}, apperrors.NewNotFoundError("chat session", id)
	}
	return list[i].Clone(), nil
}

// DeleteSession removes a session. The last remaining session is kept.
func (s *ChatService) DeleteSession(ctx context.Context, feature, id string) error {
	f, err := s.feature(feature)
	if err != nil {
		return err
	}
	deleted, err := s.removeSession(ctx, f, id)
	if err != nil || !deleted {
		return err
	}
	s.dispatcher.Cancel(chatSlot(f.Name, id))
	return nil
}

func (s *ChatService) removeSession(ctx context.Context, f Feature, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.load(ctx, f)
	if err != nil {
		return false, err
	}
	i := findSession(list, id)
	if i < 0 {
		return false, apperrors.NewNotFoundError("chat session", id)
	}
	if len(list) == 1 {
		return false, nil
	}
	next := cloneSessions(list)
	next = append(next[:i], next[i+1:]...)
	if err := s.commit(ctx, f.Name, next); err != nil {
		return false, err
	}
	return true, nil
}

func chatSlot(feature, id string) string {
	return "chat:" + feature + ":" + id
}

// Send posts text to session id and returns the bot reply.
func (s *ChatService) Send(ctx context.Context, feature, id, text string) (domain.ChatMessage, error) {
	return s.SendContext(ctx, feature, id, text, "")
}

// SendContext is Send with a feature-specific hint for framing the prompt.
//
// The user message is stored before the model is called. A failed call
// stores an apology carrying the error text instead of a reply. A call
// overtaken by a newer send to the same session stores nothing and
// returns ErrSuperseded.
func (s *ChatService) SendContext(ctx context.Context, feature, id, text, hint string) (domain.ChatMessage, error) {
	f, err := s.feature(feature)
	if err != nil {
		return domain.ChatMessage{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ChatMessage{}, apperrors.NewValidationError("message is empty")
	}

	prior, err := s.appendMessage(ctx, f, id, domain.SenderUser, text)
	if err != nil {
		return domain.ChatMessage{}, err
	}

	if len(prior) > chatContextSize {
		prior = prior[len(prior)-chatContextSize:]
	}
	msgs := make([]Message, 0, len(prior)+1)
	for _, m := range prior {
		role := RoleUser
		if m.Sender == domain.SenderBot {
			role = RoleAssistant
		}
		msgs = append(msgs, Message{Role: role, Content: m.Content})
	}
	content := text
	if f.Frame != nil {
		content = f.Frame(text, hint)
	}
	msgs = append(msgs, Message{Role: RoleUser, Content: content})

	call := func(ctx context.Context) (string, error) {
		return s.completer.Complete(ctx, Request{
			Feature:     f.Name,
			System:      f.SystemPrompt,
			Messages:    msgs,
			MaxTokens:   f.MaxTokens,
			Temperature: f.Temperature,
		})
	}

	var (
		reply    domain.ChatMessage
		applyErr error
	)
	err = Run(ctx, s.dispatcher, chatSlot(f.Name, id), call, func(answer string, err error) {
		switch {
		case err != nil:
			answer = apologyPrefix + apperrors.MessageOf(err)
		case answer == "":
			answer = emptyReply
		}
		var stored []domain.ChatMessage
		stored, applyErr = s.appendMessage(ctx, f, id, domain.SenderBot, answer)
		if applyErr == nil {
			reply = stored[len(stored)-1]
		}
	})
	if apperrors.IsCancelled(err) {
		logger.WithContext(ctx).Debug("Chat reply discarded", "feature", f.Name, "session", id)
		return domain.ChatMessage{}, err
	}
	if applyErr != nil {
		return domain.ChatMessage{}, applyErr
	}
	return reply, nil
}

// appendMessage stores one message. For user messages it returns the
// messages that preceded it; for bot messages the list including it.
func (s *ChatService) appendMessage(ctx context.Context, f Feature, id string, sender domain.Sender, content string) ([]domain.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx, f)
	if err != nil {
		return nil, err
	}
	i := findSession(list, id)
	if i < 0 {
		return nil, apperrors.NewNotFoundError("chat session", id)
	}
	next := cloneSessions(list)
	sess := &next[i]
	prior := append([]domain.ChatMessage(nil), sess.Messages...)

	now := s.now()
	sess.Messages = append(sess.Messages, domain.ChatMessage{ID: s.newID(), Content: content, Sender: sender, Timestamp: now})
	sess.LastActivity = now
	if sender == domain.SenderUser && len(prior) == 1 {
		sess.Title = SessionTitle(content)
	}
	if err := s.commit(ctx, f.Name, next); err != nil {
		return nil, err
	}
	if sender == domain.SenderUser {
		return prior, nil
	}
	return append([]domain.ChatMessage(nil), sess.Messages...), nil
}

// SessionTitle derives a session title from its first user message.
func SessionTitle(text string) string {
	if utf8.RuneCountInString(text) <= titleRunes {
		return text
	}
	return string([]rune(text)[:titleRunes]) + "..."
}

// RecentMessages returns up to n of the newest messages of a feature across
// its sessions, oldest first, as "sender: content" lines.
func (s *ChatService) RecentMessages(ctx context.Context, feature string, n int) ([]string, error) {
	list, err := s.ListSessions(ctx, feature)
	if err != nil {
		return nil, err
	}
	var all []domain.ChatMessage
	for _, sess := range list {
		all = append(all, sess.Messages...)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Timestamp.Before(all[j].Timestamp) })
	if n > 0 && len(all) > n {
		all = all[len(all)-n:]
	}
	out := make([]string, 0, len(all))
	for _, m := range all {
		out = append(out, string(m.Sender)+": "+m.Content)
	}
	return out, nil
}

var bulletPrefix = regexp.MustCompile(`^\s*(?:[-*•]|\d+\.)\s*`)

// ExtractBullets turns a reply into insertable lines: list markers are
// stripped and blank or overlong lines dropped.
func ExtractBullets(text string) []string {
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(bulletPrefix.ReplaceAllString(line, ""))
		if line == "" || utf8.RuneCountInString(line) > maxBulletRunes {
			continue
		}
		out = append(out, line)
	}
	return out
}

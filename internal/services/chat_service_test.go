package services

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladimiradmaev/mediplus/internal/domain"
	apperrors "github.com/vladimiradmaev/mediplus/internal/errors"
	"github.com/vladimiradmaev/mediplus/internal/repository"
	"github.com/vladimiradmaev/mediplus/internal/storage"
)

func newChat(store storage.BlobStore, c Completer) *ChatService {
	s := NewChatService(repository.NewChatSessionRepository(store), c, NewDispatcher(nil))
	s.now = fixedClock(testNow)
	s.newID = sequentialIDs()
	return s
}

func TestFirstSessionHasGreeting(t *testing.T) {
	list, err := newChat(storage.NewMemoryStore(), nil).ListSessions(context.Background(), FeatureMindful)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, DefaultChatTitle, list[0].Title)
	require.Len(t, list[0].Messages, 1)
	assert.Equal(t, domain.SenderBot, list[0].Messages[0].Sender)
	assert.True(t, strings.HasPrefix(list[0].Messages[0].Content, "Hi, how are you feeling today?"))
}

func TestUnknownFeature(t *testing.T) {
	_, err := newChat(storage.NewMemoryStore(), nil).ListSessions(context.Background(), "astrology")
	assert.Equal(t, apperrors.ErrorTypeNotFound, apperrors.TypeOf(err))
}

func TestSendStoresReplyAndTitle(t *testing.T) {
	ctx := context.Background()
	c := replyWith("Try box breathing.")
	svc := newChat(storage.NewMemoryStore(), c)

	sess, err := svc.CreateSession(ctx, FeatureMindful)
	require.NoError(t, err)

	long := "I have been feeling anxious before every appointment lately"
	reply, err := svc.Send(ctx, FeatureMindful, sess.ID, long)
	require.NoError(t, err)
	assert.Equal(t, "Try box breathing.", reply.Content)
	assert.Equal(t, domain.SenderBot, reply.Sender)

	got, err := svc.GetSession(ctx, FeatureMindful, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "I have been feeling anxious be...", got.Title)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, domain.SenderUser, got.Messages[1].Sender)

	calls := c.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, 150, calls[0].MaxTokens)
	assert.InDelta(t, 0.7, calls[0].Temperature, 1e-6)
	require.Len(t, calls[0].Messages, 2)
	assert.Equal(t, RoleAssistant, calls[0].Messages[0].Role)
	assert.Equal(t, long, calls[0].Messages[1].Content)

	_, err = svc.Send(ctx, FeatureMindful, sess.ID, "thanks")
	require.NoError(t, err)
	got, err = svc.GetSession(ctx, FeatureMindful, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "I have been feeling anxious be...", got.Title, "title is set only by the first message")
}

func TestSessionTitle(t *testing.T) {
	assert.Equal(t, "short", SessionTitle("short"))
	assert.Equal(t, strings.Repeat("a", 30), SessionTitle(strings.Repeat("a", 30)))
	assert.Equal(t, strings.Repeat("é", 30)+"...", SessionTitle(strings.Repeat("é", 31)))
}

func TestSendUsesLastTenPriorMessages(t *testing.T) {
	ctx := context.Background()
	c := &stubCompleter{fn: func(_ context.Context, req Request, n int) (string, error) {
		return "ok", nil
	}}
	svc := newChat(storage.NewMemoryStore(), c)
	list, err := svc.ListSessions(ctx, FeatureMedBot)
	require.NoError(t, err)
	id := list[0].ID

	for i := 0; i < 7; i++ {
		_, err := svc.Send(ctx, FeatureMedBot, id, "question")
		require.NoError(t, err)
	}
	calls := c.Calls()
	last := calls[len(calls)-1]
	assert.Len(t, last.Messages, chatContextSize+1)
	assert.Equal(t, medBotPrompt, last.System)
}

func TestSendApologisesOnFailure(t *testing.T) {
	ctx := context.Background()
	svc := newChat(storage.NewMemoryStore(), failWith(apperrors.NewExternalAPIError(errors.New("quota exceeded"), "openai")))
	list, err := svc.ListSessions(ctx, FeatureMedBot)
	require.NoError(t, err)

	reply, err := svc.Send(ctx, FeatureMedBot, list[0].ID, "hello")
	require.NoError(t, err)
	assert.Equal(t, "Sorry—AI error: quota exceeded", reply.Content)

	got, err := svc.GetSession(ctx, FeatureMedBot, list[0].ID)
	require.NoError(t, err)
	assert.Len(t, got.Messages, 3)
}

func TestSupersededSendStoresSingleReply(t *testing.T) {
	ctx := context.Background()
	started := make(chan struct{})
	c := &stubCompleter{fn: func(ctx context.Context, _ Request, n int) (string, error) {
		if n == 0 {
			close(started)
			return waitCancelled(ctx)
		}
		return "second answer", nil
	}}
	svc := newChat(storage.NewMemoryStore(), c)
	list, err := svc.ListSessions(ctx, FeatureMindful)
	require.NoError(t, err)
	id := list[0].ID

	first := make(chan error, 1)
	go func() {
		_, err := svc.Send(ctx, FeatureMindful, id, "first")
		first <- err
	}()
	<-started

	reply, err := svc.Send(ctx, FeatureMindful, id, "second")
	require.NoError(t, err)
	assert.Equal(t, "second answer", reply.Content)
	assert.ErrorIs(t, <-first, apperrors.ErrSuperseded)

	got, err := svc.GetSession(ctx, FeatureMindful, id)
	require.NoError(t, err)
	var bots, users int
	for _, m := range got.Messages {
		if m.Sender == domain.SenderBot {
			bots++
		} else {
			users++
		}
	}
	assert.Equal(t, 2, users)
	assert.Equal(t, 2, bots, "greeting plus one reply")
}

func TestQuestionsMedBotFramesActiveSpecialty(t *testing.T) {
	ctx := context.Background()
	c := replyWith("- Ask about statins\n- Ask about salt")
	svc := newChat(storage.NewMemoryStore(), c)
	list, err := svc.ListSessions(ctx, FeatureQuestionsMedBot)
	require.NoError(t, err)

	_, err = svc.SendContext(ctx, FeatureQuestionsMedBot, list[0].ID, "more questions", "Cardiologist")
	require.NoError(t, err)
	msgs := c.Calls()[0].Messages
	assert.True(t, strings.HasPrefix(msgs[len(msgs)-1].Content, "Active specialty: Cardiologist."))
	assert.True(t, strings.HasSuffix(msgs[len(msgs)-1].Content, "more questions"))
}

func TestDeleteSessionKeepsLast(t *testing.T) {
	ctx := context.Background()
	svc := newChat(storage.NewMemoryStore(), nil)
	list, err := svc.ListSessions(ctx, FeatureMindful)
	require.NoError(t, err)
	first := list[0].ID

	require.NoError(t, svc.DeleteSession(ctx, FeatureMindful, first))
	list, err = svc.ListSessions(ctx, FeatureMindful)
	require.NoError(t, err)
	assert.Len(t, list, 1, "last session is never deleted")

	second, err := svc.CreateSession(ctx, FeatureMindful)
	require.NoError(t, err)
	list, err = svc.ListSessions(ctx, FeatureMindful)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "new sessions come first")

	require.NoError(t, svc.DeleteSession(ctx, FeatureMindful, first))
	list, err = svc.ListSessions(ctx, FeatureMindful)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, second.ID, list[0].ID)

	err = svc.DeleteSession(ctx, FeatureMindful, "missing")
	assert.Equal(t, apperrors.ErrorTypeNotFound, apperrors.TypeOf(err))
}

func TestSessionsPersistInRedis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	store := storage.NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test")

	svc := newChat(store, replyWith("hello back"))
	list, err := svc.ListSessions(ctx, FeatureMedBot)
	require.NoError(t, err)
	_, err = svc.Send(ctx, FeatureMedBot, list[0].ID, "hello")
	require.NoError(t, err)

	reloaded, err := newChat(store, nil).ListSessions(ctx, FeatureMedBot)
	require.NoError(t, err)
	require.Len(t, reloaded, 1)
	assert.Len(t, reloaded[0].Messages, 3)
	assert.Equal(t, "hello", reloaded[0].Title)
}

func TestRecentMessages(t *testing.T) {
	ctx := context.Background()
	svc := newChat(storage.NewMemoryStore(), replyWith("sure"))
	list, err := svc.ListSessions(ctx, FeatureMedBot)
	require.NoError(t, err)
	_, err = svc.Send(ctx, FeatureMedBot, list[0].ID, "hi")
	require.NoError(t, err)

	recent, err := svc.RecentMessages(ctx, FeatureMedBot, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"user: hi", "bot: sure"}, recent)
}

func TestExtractBullets(t *testing.T) {
	text := "Here are some ideas:\r\n- Is my BP ok?\n* Should I walk more?\n• Any diet tips?\n2. What about sleep?\n\n   \n" +
		strings.Repeat("x", 141)
	assert.Equal(t, []string{
		"Here are some ideas:",
		"Is my BP ok?",
		"Should I walk more?",
		"Any diet tips?",
		"What about sleep?",
	}, ExtractBullets(text))
}

// gatedSaves blocks the first Save after arm until release is closed.
type gatedSaves struct {
	domain.ChatSessionRepository
	armed   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func (g *gatedSaves) Save(ctx context.Context, feature string, list []domain.ChatSession) error {
	if g.armed.CompareAndSwap(true, false) {
		close(g.entered)
		<-g.release
	}
	return g.ChatSessionRepository.Save(ctx, feature, list)
}

func TestDeleteSessionWhileReplyLands(t *testing.T) {
	ctx := context.Background()
	repo := &gatedSaves{
		ChatSessionRepository: repository.NewChatSessionRepository(storage.NewMemoryStore()),
		entered:               make(chan struct{}),
		release:               make(chan struct{}),
	}
	started := make(chan struct{})
	answer := make(chan struct{})
	c := &stubCompleter{fn: func(_ context.Context, _ Request, n int) (string, error) {
		if n == 0 {
			close(started)
			<-answer
		}
		return "ok", nil
	}}
	d := NewDispatcher(nil)
	svc := NewChatService(repo, c, d)
	svc.now = fixedClock(testNow)
	svc.newID = sequentialIDs()

	kept, err := svc.CreateSession(ctx, FeatureMindful)
	require.NoError(t, err)
	doomed, err := svc.CreateSession(ctx, FeatureMindful)
	require.NoError(t, err)

	sent := make(chan error, 1)
	go func() {
		_, err := svc.Send(ctx, FeatureMindful, kept.ID, "hello")
		sent <- err
	}()
	<-started

	repo.armed.Store(true)
	deleted := make(chan error, 1)
	go func() { deleted <- svc.DeleteSession(ctx, FeatureMindful, doomed.ID) }()
	<-repo.entered

	// The reply now waits for the session lock held by the delete.
	close(answer)
	time.Sleep(50 * time.Millisecond)
	close(repo.release)

	for _, ch := range []chan error{sent, deleted} {
		select {
		case err := <-ch:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("send and delete did not both return")
		}
	}

	got, err := svc.GetSession(ctx, FeatureMindful, kept.ID)
	require.NoError(t, err)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, "ok", got.Messages[2].Content)

	_, err = svc.GetSession(ctx, FeatureMindful, doomed.ID)
	assert.Equal(t, apperrors.ErrorTypeNotFound, apperrors.TypeOf(err))
	assert.Empty(t, d.slots)
}

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladimiradmaev/mediplus/internal/domain"
	apperrors "github.com/vladimiradmaev/mediplus/internal/errors"
	"github.com/vladimiradmaev/mediplus/internal/storage"
)

type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, error) { return nil, errors.New("down") }
func (failingStore) Set(context.Context, string, []byte) error { return errors.New("down") }
func (failingStore) Delete(context.Context, string) error { return errors.New("down") }

func TestSampleRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewSampleRepository(storage.NewMemoryStore())

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	ts := time.UnixMilli(1710000000000)
	hr, err := domain.NewScalarSample(ts, domain.KindHeartRate, 72)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, []domain.Sample{hr, domain.NewPressureSample(ts, 120, 80)}))

	got, err = repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 72.0, got[0].Value)
	assert.Equal(t, 120.0, got[1].Pressure.Systolic)
}

func TestSampleRepositoryCorruptIsEmpty(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, SamplesKey, []byte("{not json")))

	got, err := NewSampleRepository(store).Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSampleRepositoryStoreFailureIsDatabaseError(t *testing.T) {
	_, err := NewSampleRepository(failingStore{}).Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeDatabase, apperrors.TypeOf(err))
}

func TestQuestionStateDefaultsAndPersists(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	repo := NewQuestionStateRepository(store)

	st, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.QuestionStateVersion, st.Version)
	assert.Equal(t, DefaultSpecialties, st.Specialties)
	assert.Equal(t, "General Doctor", st.Active)
	for _, s := range DefaultSpecialties {
		assert.NotNil(t, st.Questions[s], s)
	}

	_, err = store.Get(ctx, QuestionsKey)
	assert.NoError(t, err, "default state should be written back")
}

func TestQuestionStateVersionGate(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, QuestionsKey, []byte(`{"version":1,"specialties":["Old"],"active":"Old","questions":{"Old":[]}}`)))

	st, err := NewQuestionStateRepository(store).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultSpecialties, st.Specialties)
	assert.False(t, st.HasSpecialty("Old"))
}

func TestQuestionStateKeepsCurrentVersionAndNormalizes(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, QuestionsKey, []byte(`{"version":2,"specialties":["A","B"],"active":"Z","questions":{"A":[{"id":"1","text":"Why?","checked":true,"source":"user"}]}}`)))

	st, err := NewQuestionStateRepository(store).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, st.Specialties)
	assert.Equal(t, "A", st.Active)
	require.Len(t, st.Questions["A"], 1)
	assert.True(t, st.Questions["A"][0].Checked)
	assert.NotNil(t, st.Questions["B"])
}

func TestChatSessionRepository(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	repo := NewChatSessionRepository(store)

	got, err := repo.Load(ctx, "mindful")
	require.NoError(t, err)
	assert.Empty(t, got)

	sessions := []domain.ChatSession{{ID: "s1", Title: "New Chat", Messages: []domain.ChatMessage{{ID: "m1", Content: "hi", Sender: domain.SenderBot}}}}
	require.NoError(t, repo.Save(ctx, "mindful", sessions))

	got, err = repo.Load(ctx, "mindful")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "hi", got[0].Messages[0].Content)

	other, err := repo.Load(ctx, "medbot")
	require.NoError(t, err)
	assert.Empty(t, other)

	raw, err := store.Get(ctx, "mediplus.chat.mindful")
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"s1"`)
}

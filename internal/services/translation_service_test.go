package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/vladimiradmaev/mediplus/internal/errors"
)

// upperCompleter "translates" by upper-casing every item.
func upperCompleter() *stubCompleter {
	return &stubCompleter{fn: func(_ context.Context, req Request, _ int) (string, error) {
		var in struct {
			Target string   `json:"target"`
			Items  []string `json:"items"`
		}
		if err := json.Unmarshal([]byte(req.Messages[0].Content), &in); err != nil {
			return "", err
		}
		out := make([]string, len(in.Items))
		for i, s := range in.Items {
			out[i] = strings.ToUpper(s)
		}
		raw, _ := json.Marshal(out)
		return string(raw), nil
	}}
}

func TestTranslateDedupesAndKeepsOrder(t *testing.T) {
	c := upperCompleter()
	svc := NewTranslationService(c, NewDispatcher(nil))

	out, err := svc.Translate(context.Background(), "Malay", []string{"home", "vitals", "home"})
	require.NoError(t, err)
	assert.Equal(t, []string{"HOME", "VITALS", "HOME"}, out)

	calls := c.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Messages[0].Content, `"items":["home","vitals"]`)
	assert.Equal(t, translateMaxTokens, calls[0].MaxTokens)
}

func TestTranslateBatches(t *testing.T) {
	c := upperCompleter()
	svc := NewTranslationService(c, NewDispatcher(nil))
	svc.batchSize = 2

	out, err := svc.Translate(context.Background(), "th", []string{"a", "b", "c", "d", "e"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, out)
	assert.Len(t, c.Calls(), 3)
}

func TestTranslateFallsBackPerBatch(t *testing.T) {
	c := &stubCompleter{fn: func(_ context.Context, req Request, _ int) (string, error) {
		switch {
		case strings.Contains(req.Messages[0].Content, `"a"`):
			return `["only one"]`, nil
		case strings.Contains(req.Messages[0].Content, `"c"`):
			return "", apperrors.NewExternalAPIError(errors.New("down"), "openai")
		default:
			return "not json", nil
		}
	}}
	svc := NewTranslationService(c, NewDispatcher(nil))
	svc.batchSize = 2

	out, err := svc.Translate(context.Background(), "vi", []string{"a", "b", "c", "d", "e"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, out)
}

func TestTranslateEnglishAndUnknown(t *testing.T) {
	c := upperCompleter()
	svc := NewTranslationService(c, NewDispatcher(nil))

	out, err := svc.Translate(context.Background(), "English", []string{"home"})
	require.NoError(t, err)
	assert.Equal(t, []string{"home"}, out)
	assert.Empty(t, c.Calls())

	_, err = svc.Translate(context.Background(), "Klingon", []string{"home"})
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))
}

func TestTranslateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := NewTranslationService(&stubCompleter{fn: func(ctx context.Context, _ Request, _ int) (string, error) {
		return waitCancelled(ctx)
	}}, NewDispatcher(nil))

	_, err := svc.Translate(ctx, "ms", []string{"home"})
	assert.True(t, apperrors.IsCancelled(err))
}

func TestResolveLanguage(t *testing.T) {
	l, ok := ResolveLanguage(" FILIPINO ")
	require.True(t, ok)
	assert.Equal(t, "tl", l.Code)
	l, ok = ResolveLanguage("zh")
	require.True(t, ok)
	assert.Equal(t, "Chinese", l.Label)
}

package services

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/vladimiradmaev/mediplus/internal/domain"
	apperrors "github.com/vladimiradmaev/mediplus/internal/errors"
)

// stubCompleter answers with fn; n is the zero-based call number.
type stubCompleter struct {
	mu    sync.Mutex
	calls []Request
	fn    func(ctx context.Context, req Request, n int) (string, error)
}

func (s *stubCompleter) Complete(ctx context.Context, req Request) (string, error) {
	s.mu.Lock()
	n := len(s.calls)
	s.calls = append(s.calls, req)
	s.mu.Unlock()
	return s.fn(ctx, req, n)
}

func (s *stubCompleter) Calls() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.calls...)
}

func replyWith(text string) *stubCompleter {
	return &stubCompleter{fn: func(context.Context, Request, int) (string, error) { return text, nil }}
}

func failWith(err error) *stubCompleter {
	return &stubCompleter{fn: func(context.Context, Request, int) (string, error) { return "", err }}
}

// waitCancelled blocks until ctx ends and reports it the way providers do.
func waitCancelled(ctx context.Context) (string, error) {
	<-ctx.Done()
	return "", apperrors.NewCancelledError(ctx.Err())
}

type staticSamples []domain.Sample

func (s staticSamples) Samples(context.Context) ([]domain.Sample, error) {
	return append([]domain.Sample(nil), s...), nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return "id-" + strconv.Itoa(n)
	}
}

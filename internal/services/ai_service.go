package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/googleapi"

	"github.com/vladimiradmaev/mediplus/internal/config"
	apperrors "github.com/vladimiradmaev/mediplus/internal/errors"
	"github.com/vladimiradmaev/mediplus/internal/logger"
	"github.com/vladimiradmaev/mediplus/internal/metrics"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Feature names, used as metric labels and chat store keys.
const (
	FeatureInsights        = "insights"
	FeatureQuestions       = "questions"
	FeatureMedBot          = "medbot"
	FeatureMindful         = "mindful"
	FeatureQuestionsMedBot = "questions-medbot"
	FeatureTranslate       = "translate"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one chat-completion call. Zero MaxTokens or Temperature leave
// the provider default in place.
type Request struct {
	Feature     string
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature float32
}

// Completer returns the trimmed text of the first completion choice.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// NewAIService builds the completer selected by cfg.Provider, instrumented
// with m.
func NewAIService(ctx context.Context, cfg config.AIConfig, m *metrics.AIMetrics) (Completer, error) {
	var (
		c   Completer
		err error
	)
	switch cfg.Provider {
	case config.ProviderOpenAI:
		c = NewOpenAIProvider(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Timeout)
	case config.ProviderGemini:
		c, err = NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.Timeout)
		if err != nil {
			return nil, apperrors.NewExternalAPIError(err, "gemini")
		}
	default:
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown AI provider %q", cfg.Provider))
	}
	logger.Info("AI provider configured", "provider", cfg.Provider)
	return NewInstrumentedCompleter(c, m), nil
}

// InstrumentedCompleter records latency and outcome of every call.
type InstrumentedCompleter struct {
	next    Completer
	metrics *metrics.AIMetrics
}

func NewInstrumentedCompleter(next Completer, m *metrics.AIMetrics) *InstrumentedCompleter {
	return &InstrumentedCompleter{next: next, metrics: m}
}

func (c *InstrumentedCompleter) Complete(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	out, err := c.next.Complete(ctx, req)

	outcome := "ok"
	switch {
	case apperrors.IsCancelled(err):
		outcome = "cancelled"
		logger.WithContext(ctx).Debug("Completion cancelled", "feature", req.Feature)
	case err != nil:
		outcome = "error"
		logger.WithContext(ctx).Warn("Completion failed", "feature", req.Feature, "error", err)
	}
	c.metrics.ObserveRequest(req.Feature, outcome, time.Since(start))
	return out, err
}

var jsonFragment = regexp.MustCompile(`\{[\s\S]*\}|\[[\s\S]*\]`)

// ExtractJSON returns the first {...} or [...] span of s, or "".
func ExtractJSON(s string) string {
	return jsonFragment.FindString(s)
}

// CompleteJSON runs req and decodes the answer into out. Text around the
// JSON payload (code fences, preambles) is tolerated.
func CompleteJSON(ctx context.Context, c Completer, req Request, out any) error {
	text, err := c.Complete(ctx, req)
	if err != nil {
		return err
	}
	return decodeJSONAnswer(text, out)
}

func decodeJSONAnswer(text string, out any) error {
	if err := json.Unmarshal([]byte(text), out); err == nil {
		return nil
	}
	frag := ExtractJSON(text)
	if frag == "" {
		return apperrors.NewExternalAPIError(errors.New("AI did not return JSON"), "completion")
	}
	if err := json.Unmarshal([]byte(frag), out); err != nil {
		return apperrors.NewExternalAPIError(fmt.Errorf("AI did not return JSON: %w", err), "completion")
	}
	return nil
}

// classifyError maps a provider error to an AppError. ctx is the caller's
// context, so a cancellation there wins over whatever the transport said.
func classifyError(ctx context.Context, err error, api string) error {
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.Canceled) || errors.Is(err, context.Canceled) {
		return apperrors.NewCancelledError(err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(err, apperrors.ErrorTypeTimeout, "TIMEOUT", api+" request timed out")
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(apiErr.HTTPStatusCode)
		}
		return apperrors.NewExternalAPIError(errors.New(msg), api).
			WithContext("status", apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return apperrors.NewExternalAPIError(errors.New(statusMessage(reqErr.HTTPStatusCode, reqErr.HTTPStatus)), api).
			WithContext("status", reqErr.HTTPStatusCode)
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return apperrors.NewExternalAPIError(errors.New(statusMessage(gErr.Code, gErr.Message)), api).
			WithContext("status", gErr.Code)
	}
	return apperrors.NewExternalAPIError(err, api)
}

func statusMessage(code int, msg string) string {
	if msg = strings.TrimSpace(msg); msg != "" {
		return msg
	}
	if text := http.StatusText(code); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d", code)
}

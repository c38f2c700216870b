package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vladimiradmaev/mediplus/internal/domain"
	apperrors "github.com/vladimiradmaev/mediplus/internal/errors"
	"github.com/vladimiradmaev/mediplus/internal/insights"
	"github.com/vladimiradmaev/mediplus/internal/utils"
	"github.com/vladimiradmaev/mediplus/internal/vitals"
)

// Insight slots.
const (
	SlotMonthInsight = "insight:month"
	SlotVitalInsight = "insight:vital"
)

const (
	insightsSystemPrompt = "You are a careful health coach. The user has diabetes and treated hypertension. " +
		"Write concise, safe, practical bullets. No medical diagnosis."
	insightsMaxTokens = 320
	compactPoints     = 31
)

// SampleSource provides the sample history to readers.
type SampleSource interface {
	Samples(ctx context.Context) ([]domain.Sample, error)
}

// InsightResult is the text shown for a month or a selected vital. Fallback
// is set when the text was computed locally because the remote call failed.
// Provisional marks the local headline shown while the remote call runs.
type InsightResult struct {
	Month       string           `json:"month"`
	Kind        domain.VitalKind `json:"kind,omitempty"`
	View        domain.View      `json:"view,omitempty"`
	Text        string           `json:"text"`
	Suggestions string           `json:"suggestions,omitempty"`
	Fallback    bool             `json:"fallback"`
	Provisional bool             `json:"provisional,omitempty"`
	Error       string           `json:"error,omitempty"`
}

type InsightService struct {
	samples    SampleSource
	completer  Completer
	dispatcher *Dispatcher
	now        func() time.Time

	mu     sync.RWMutex
	latest map[string]InsightResult
}

func NewInsightService(samples SampleSource, completer Completer, dispatcher *Dispatcher) *InsightService {
	return &InsightService{
		samples:    samples,
		completer:  completer,
		dispatcher: dispatcher,
		now:        time.Now,
		latest:     make(map[string]InsightResult),
	}
}

// Latest returns the last result applied to slot.
func (s *InsightService) Latest(slot string) (InsightResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.latest[slot]
	return r, ok
}

func (s *InsightService) store(slot string, r InsightResult) {
	s.mu.Lock()
	s.latest[slot] = r
	s.mu.Unlock()
}

// LocalMonthInsights returns the headline summary of month computed from
// the samples alone. An empty month selects the newest one.
func (s *InsightService) LocalMonthInsights(ctx context.Context, month string) (InsightResult, error) {
	all, month, _, _, err := s.resolveMonth(ctx, month)
	if err != nil {
		return InsightResult{}, err
	}
	return localMonth(all, month), nil
}

func localMonth(all []domain.Sample, month string) InsightResult {
	return InsightResult{Month: month, Text: insights.Bullets(insights.MonthInsights(all, month)), Provisional: true}
}

func (s *InsightService) resolveMonth(ctx context.Context, month string) ([]domain.Sample, string, int, time.Month, error) {
	all, err := s.samples.Samples(ctx)
	if err != nil {
		return nil, "", 0, 0, err
	}
	if month == "" {
		month = vitals.Months(all, s.now())[0]
	}
	year, mon, err := utils.ParseMonth(month)
	if err != nil {
		return nil, "", 0, 0, apperrors.NewValidationError("month must look like YYYY-MM")
	}
	return all, month, year, mon, nil
}

// MonthInsights asks for an overview of month across all vitals. Until the
// remote call resolves Latest reports the local headline. A failed remote
// call yields the local summary with Error set. A call overtaken by a newer
// one returns ErrSuperseded and does not publish its result.
func (s *InsightService) MonthInsights(ctx context.Context, month string) (InsightResult, error) {
	all, month, year, mon, err := s.resolveMonth(ctx, month)
	if err != nil {
		return InsightResult{}, err
	}
	stats := insights.MonthStats(all, month)
	s.store(SlotMonthInsight, localMonth(all, month))

	call := func(ctx context.Context) (string, error) {
		if stats.Empty() {
			return insights.MonthFallback(stats), nil
		}
		payload, err := json.Marshal(stats)
		if err != nil {
			return "", apperrors.NewInternalError(err)
		}
		prompt := "Given the month-wide stats (JSON below), produce concise insights covering ALL vitals. " +
			"Output exactly two sections with bullets:\n" +
			"Focus: Diabetes & Blood Pressure\n- 3-5 short bullets about blood sugar and blood pressure\n" +
			"Other vitals\n- 3-5 short bullets about heart rate, SpO2, and temperature\n" +
			fmt.Sprintf("Avoid diagnosis; be practical and neutral. Month: %s.\n\nSTATS:\n%s", prettyMonth(year, mon), payload)
		return s.completer.Complete(ctx, Request{
			Feature:   FeatureInsights,
			System:    insightsSystemPrompt,
			Messages:  []Message{{Role: RoleUser, Content: prompt}},
			MaxTokens: insightsMaxTokens,
		})
	}

	var out InsightResult
	err = Run(ctx, s.dispatcher, SlotMonthInsight, call, func(text string, err error) {
		out = InsightResult{Month: month, Text: text}
		if err != nil {
			out.Text = insights.MonthFallback(stats)
			out.Fallback = true
			out.Error = apperrors.MessageOf(err)
		}
		s.store(SlotMonthInsight, out)
	})
	if apperrors.IsCancelled(err) {
		return InsightResult{}, err
	}
	return out, nil
}

type vitalAnswer struct {
	insights    string
	suggestions string
}

// VitalInsights asks for insights and suggestions about one vital in the
// given view. Both calls run concurrently; if either fails both texts fall
// back to the local rules.
func (s *InsightService) VitalInsights(ctx context.Context, kind domain.VitalKind, month string, view domain.View, day int) (InsightResult, error) {
	if _, ok := vitals.Lookup(kind); !ok {
		return InsightResult{}, apperrors.NewValidationError("unknown vital kind: " + string(kind))
	}
	all, err := s.samples.Samples(ctx)
	if err != nil {
		return InsightResult{}, err
	}
	now := s.now()
	if month == "" {
		month = vitals.Months(all, now)[0]
	}
	year, mon, err := utils.ParseMonth(month)
	if err != nil {
		return InsightResult{}, apperrors.NewValidationError("month must look like YYYY-MM")
	}
	series, err := vitals.Series(all, kind, view, month, day)
	if err != nil {
		return InsightResult{}, apperrors.NewValidationError(err.Error())
	}
	if len(series) > compactPoints {
		series = series[len(series)-compactPoints:]
	}
	compact, err := json.Marshal(series)
	if err != nil {
		return InsightResult{}, apperrors.NewInternalError(err)
	}

	pretty := prettyMonth(year, mon)
	insightsPrompt := fmt.Sprintf("Summarize key insights for %s in %s. Give 4-6 concise bullets. Daily values: %s.",
		kind, pretty, compact)
	suggestionsPrompt := fmt.Sprintf("Based on %s for %s and the user's diabetes & treated hypertension, "+
		"give 5 actionable suggestions (diet, activity, sleep, hydration, adherence). "+
		"Each bullet under 18 words. No diagnosis.", kind, pretty)

	call := func(ctx context.Context) (vitalAnswer, error) {
		var ans vitalAnswer
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			text, err := s.completer.Complete(gctx, s.insightRequest(insightsPrompt))
			ans.insights = text
			return err
		})
		g.Go(func() error {
			text, err := s.completer.Complete(gctx, s.insightRequest(suggestionsPrompt))
			ans.suggestions = text
			return err
		})
		return ans, g.Wait()
	}

	var out InsightResult
	err = Run(ctx, s.dispatcher, SlotVitalInsight, call, func(ans vitalAnswer, err error) {
		out = InsightResult{Month: month, Kind: kind, View: view, Text: ans.insights, Suggestions: ans.suggestions}
		if err != nil {
			out.Text = insights.Bullets(insights.SelectedInsights(all, kind, now))
			out.Suggestions = insights.Bullets(insights.Suggestions(kind))
			out.Fallback = true
			out.Error = apperrors.MessageOf(err)
		}
		s.store(SlotVitalInsight, out)
	})
	if apperrors.IsCancelled(err) {
		return InsightResult{}, err
	}
	return out, nil
}

func (s *InsightService) insightRequest(prompt string) Request {
	return Request{
		Feature:   FeatureInsights,
		System:    insightsSystemPrompt,
		Messages:  []Message{{Role: RoleUser, Content: prompt}},
		MaxTokens: insightsMaxTokens,
	}
}

func prettyMonth(year int, month time.Month) string {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
}

package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/vladimiradmaev/mediplus/internal/errors"
	"github.com/vladimiradmaev/mediplus/internal/logger"
)

const (
	SlotTranslate = "translate"

	translateBatchSize   = 150
	translateConcurrency = 4
	translateTimeout     = 25 * time.Second
	translateMaxTokens   = 400
	translateTemperature = 0.1

	translateSystemPrompt = "You translate short UI strings precisely.\n" +
		"- Translate to the target language.\n" +
		"- Keep numbers, punctuation, emojis, and brand names.\n" +
		"- Return ONLY a JSON array of strings, same order/length as input."
)

// Language is a translation target offered to users.
type Language struct {
	Label string `json:"label"`
	Code  string `json:"code"`
}

// Languages lists the supported targets. English is the source language.
var Languages = []Language{
	{"Indonesian", "id"},
	{"Malay", "ms"},
	{"Filipino", "tl"},
	{"Thai", "th"},
	{"Vietnamese", "vi"},
	{"Burmese", "my"},
	{"Khmer", "km"},
	{"Lao", "lo"},
	{"Tetum", "tet"},
	{"Chinese", "zh"},
	{"Tamil", "ta"},
	{"English", "en"},
}

// ResolveLanguage accepts a label or a code, case-insensitively.
func ResolveLanguage(target string) (Language, bool) {
	target = strings.TrimSpace(target)
	for _, l := range Languages {
		if strings.EqualFold(l.Code, target) || strings.EqualFold(l.Label, target) {
			return l, true
		}
	}
	return Language{}, false
}

type TranslationService struct {
	completer  Completer
	dispatcher *Dispatcher
	batchSize  int
	timeout    time.Duration
}

func NewTranslationService(completer Completer, dispatcher *Dispatcher) *TranslationService {
	return &TranslationService{
		completer:  completer,
		dispatcher: dispatcher,
		batchSize:  translateBatchSize,
		timeout:    translateTimeout,
	}
}

// Translate returns items translated to target, position for position.
// Duplicates are translated once. A batch that fails, times out or comes
// back malformed keeps its original strings. A newer Translate call
// supersedes this one.
func (s *TranslationService) Translate(ctx context.Context, target string, items []string) ([]string, error) {
	lang, ok := ResolveLanguage(target)
	if !ok {
		return nil, apperrors.NewValidationError("unsupported language: " + target)
	}
	if lang.Code == "en" || len(items) == 0 {
		return append([]string(nil), items...), nil
	}

	index := make(map[string]int, len(items))
	var unique []string
	for _, it := range items {
		if _, seen := index[it]; !seen {
			index[it] = len(unique)
			unique = append(unique, it)
		}
	}

	call := func(ctx context.Context) ([]string, error) {
		return s.translateUniques(ctx, lang.Label, unique)
	}

	var out []string
	err := Run(ctx, s.dispatcher, SlotTranslate, call, func(translated []string, err error) {
		if err != nil {
			return
		}
		out = make([]string, len(items))
		for i, it := range items {
			out[i] = translated[index[it]]
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *TranslationService) translateUniques(ctx context.Context, target string, unique []string) ([]string, error) {
	var batches [][]string
	for i := 0; i < len(unique); i += s.batchSize {
		end := min(i+s.batchSize, len(unique))
		batches = append(batches, unique[i:end])
	}

	results := make([][]string, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(translateConcurrency)
	for i, batch := range batches {
		g.Go(func() error {
			res, err := s.translateBatch(gctx, target, batch)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(unique))
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

// translateBatch only fails on cancellation; every other problem yields
// the batch unchanged.
func (s *TranslationService) translateBatch(ctx context.Context, target string, batch []string) ([]string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	payload, err := json.Marshal(map[string]any{"target": target, "items": batch})
	if err != nil {
		return batch, nil
	}
	text, err := s.completer.Complete(callCtx, Request{
		Feature:     FeatureTranslate,
		System:      translateSystemPrompt,
		Messages:    []Message{{Role: RoleUser, Content: string(payload)}},
		MaxTokens:   translateMaxTokens,
		Temperature: translateTemperature,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.NewCancelledError(ctx.Err())
		}
		logger.Warn("Translation batch failed, keeping originals", "size", len(batch), "error", err)
		return batch, nil
	}

	var translated []string
	if err := json.Unmarshal([]byte(text), &translated); err != nil || len(translated) != len(batch) {
		logger.Warn("Translation batch malformed, keeping originals", "size", len(batch))
		return batch, nil
	}
	return translated, nil
}

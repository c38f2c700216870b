package handlers

import (
	"context"

	"github.com/vladimiradmaev/mediplus/internal/bot/keyboards"
	"github.com/vladimiradmaev/mediplus/internal/bot/menus"
)

// views renders read-only screens shared by commands and callbacks.
type views struct {
	api  menus.Sender
	deps Dependencies
}

// insights sends the local headline of the newest month right away and
// follows up with the assistant's overview.
func (v *views) insights(ctx context.Context, chatID int64) error {
	headline, err := v.deps.Insights.LocalMonthInsights(ctx, "")
	if err != nil {
		return err
	}
	if err := menus.SendText(v.api, chatID, menus.FormatInsight(headline), nil); err != nil {
		return err
	}
	res, err := v.deps.Insights.MonthInsights(ctx, headline.Month)
	if err != nil {
		return err
	}
	return menus.SendText(v.api, chatID, menus.FormatInsight(res), keyboards.BackMenu())
}

func (v *views) questions(ctx context.Context, chatID int64) error {
	st, err := v.deps.Checklist.State(ctx)
	if err != nil {
		return err
	}
	return menus.SendText(v.api, chatID, menus.FormatQuestions(st), keyboards.BackMenu())
}

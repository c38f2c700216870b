package handlers

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/mediplus/internal/bot/keyboards"
	"github.com/vladimiradmaev/mediplus/internal/bot/menus"
	"github.com/vladimiradmaev/mediplus/internal/bot/state"
	"github.com/vladimiradmaev/mediplus/internal/logger"
	"github.com/vladimiradmaev/mediplus/internal/vitals"
)

// CallbackHandler handles callback query messages
type CallbackHandler struct {
	api          menus.Sender
	deps         Dependencies
	stateManager state.StateManager
	mindful      *mindful
	views        *views
}

// NewCallbackHandler creates a new callback handler
func NewCallbackHandler(api menus.Sender, deps Dependencies, stateManager state.StateManager) *CallbackHandler {
	return &CallbackHandler{
		api:          api,
		deps:         deps,
		stateManager: stateManager,
		mindful:      &mindful{api: api, deps: deps, stateManager: stateManager},
		views:        &views{api: api, deps: deps},
	}
}

// Handle processes a callback query
func (h *CallbackHandler) Handle(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	// Answer the callback query first
	if _, err := h.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		logger.WithContext(ctx).Warn("Failed to answer callback query", "error", err)
	}
	if query.Message == nil || query.Message.Chat == nil {
		return nil
	}
	userID, chatID := query.From.ID, query.Message.Chat.ID

	switch {
	case query.Data == keyboards.MainMenuData, query.Data == keyboards.ExitMindfulData:
		return h.mindful.leave(userID, chatID)
	case query.Data == keyboards.CheckInData:
		return startCheckIn(h.api, h.stateManager, userID, chatID)
	case strings.HasPrefix(query.Data, keyboards.CheckInPrefix):
		return h.handleCheckInKind(userID, chatID, strings.TrimPrefix(query.Data, keyboards.CheckInPrefix))
	case query.Data == keyboards.InsightsData:
		return h.views.insights(ctx, chatID)
	case query.Data == keyboards.QuestionsData:
		return h.views.questions(ctx, chatID)
	case query.Data == keyboards.MindfulData:
		return h.mindful.enter(ctx, userID, chatID)
	case query.Data == keyboards.HelpData:
		return menus.SendText(h.api, chatID, menus.HelpText, keyboards.BackMenu())
	default:
		return menus.SendText(h.api, chatID, "Unknown action. Use /start to open the menu.", nil)
	}
}

// handleCheckInKind waits for a number of the chosen kind
func (h *CallbackHandler) handleCheckInKind(userID, chatID int64, slug string) error {
	kind, err := vitals.ParseKind(slug)
	if err != nil {
		return menus.SendText(h.api, chatID, "Unknown vital.", keyboards.CheckInMenu())
	}
	spec := vitals.MustLookup(kind)
	h.stateManager.SetUserState(userID, state.WaitingForCheckIn)
	h.stateManager.SetTempData(userID, state.KeyCheckInKind, string(kind))

	prompt := "Enter your " + string(kind) + " in " + spec.Unit
	if spec.Paired() {
		prompt += " as systolic/diastolic, for example 120/80"
	}
	return menus.SendText(h.api, chatID, prompt+":", keyboards.BackMenu())
}

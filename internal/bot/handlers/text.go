package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/mediplus/internal/bot/keyboards"
	"github.com/vladimiradmaev/mediplus/internal/bot/menus"
	"github.com/vladimiradmaev/mediplus/internal/bot/state"
	"github.com/vladimiradmaev/mediplus/internal/domain"
	"github.com/vladimiradmaev/mediplus/internal/services"
)

// TextHandler handles text messages
type TextHandler struct {
	api          menus.Sender
	deps         Dependencies
	stateManager state.StateManager
	mindful      *mindful
}

// NewTextHandler creates a new text handler
func NewTextHandler(api menus.Sender, deps Dependencies, stateManager state.StateManager) *TextHandler {
	return &TextHandler{
		api:          api,
		deps:         deps,
		stateManager: stateManager,
		mindful:      &mindful{api: api, deps: deps, stateManager: stateManager},
	}
}

// Handle processes a text message
func (h *TextHandler) Handle(ctx context.Context, userID, chatID int64, text string) error {
	switch h.stateManager.GetUserState(userID) {
	case state.WaitingForCheckIn:
		return h.handleCheckIn(ctx, userID, chatID, text)
	case state.Mindful:
		return h.handleMindful(ctx, userID, chatID, text)
	default:
		return menus.SendText(h.api, chatID, "Please use the menu to choose an action.", keyboards.MainMenu())
	}
}

// handleCheckIn parses and records a reading
func (h *TextHandler) handleCheckIn(ctx context.Context, userID, chatID int64, text string) error {
	kind, _ := h.stateManager.GetTempData(userID, state.KeyCheckInKind)
	sample, err := ParseCheckIn(text, domain.VitalKind(kind))
	if err != nil {
		return menus.SendText(h.api, chatID, "⚠️ "+err.Error(), keyboards.BackMenu())
	}
	if err := h.deps.Vitals.CheckIn(ctx, sample); err != nil {
		return err
	}
	h.stateManager.SetUserState(userID, state.None)
	h.stateManager.ClearTempData(userID, state.KeyCheckInKind)
	return menus.SendText(h.api, chatID, menus.FormatReading(sample), keyboards.MainMenu())
}

// handleMindful forwards text to the user's Mindful session
func (h *TextHandler) handleMindful(ctx context.Context, userID, chatID int64, text string) error {
	id, _, _, err := h.mindful.session(ctx, userID)
	if err != nil {
		return err
	}
	_, _ = h.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))
	reply, err := h.deps.Chat.Send(ctx, services.FeatureMindful, id, text)
	if err != nil {
		return err
	}
	return menus.SendText(h.api, chatID, reply.Content, keyboards.MindfulMenu())
}

package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	apperrors "github.com/vladimiradmaev/mediplus/internal/errors"
	"github.com/vladimiradmaev/mediplus/internal/bot/menus"
	"github.com/vladimiradmaev/mediplus/internal/bot/state"
	"github.com/vladimiradmaev/mediplus/internal/logger"
)

const failureText = "Sorry, something went wrong. Please try again."

// UpdateHandler handles telegram updates and coordinates other handlers
type UpdateHandler struct {
	api             menus.Sender
	callbackHandler *CallbackHandler
	commandHandler  *CommandHandler
	textHandler     *TextHandler
}

// NewUpdateHandler creates a new update handler
func NewUpdateHandler(api menus.Sender, deps Dependencies, stateManager state.StateManager) *UpdateHandler {
	return &UpdateHandler{
		api:             api,
		callbackHandler: NewCallbackHandler(api, deps, stateManager),
		commandHandler:  NewCommandHandler(api, deps, stateManager),
		textHandler:     NewTextHandler(api, deps, stateManager),
	}
}

// Handle processes a telegram update. Service failures are reported to the
// user and returned; superseded requests are dropped silently.
func (h *UpdateHandler) Handle(ctx context.Context, update tgbotapi.Update) error {
	var (
		userID, chatID int64
		err            error
	)
	switch {
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		userID = update.CallbackQuery.From.ID
		ctx = logger.IntoContext(ctx, "telegram_user", userID)
		err = h.callbackHandler.Handle(ctx, update.CallbackQuery)
		if update.CallbackQuery.Message != nil && update.CallbackQuery.Message.Chat != nil {
			chatID = update.CallbackQuery.Message.Chat.ID
		}
	case update.Message != nil && update.Message.From != nil:
		userID, chatID = update.Message.From.ID, update.Message.Chat.ID
		ctx = logger.IntoContext(ctx, "telegram_user", userID)
		switch {
		case update.Message.IsCommand():
			err = h.commandHandler.Handle(ctx, userID, chatID, update.Message.Command())
		case update.Message.Text != "":
			err = h.textHandler.Handle(ctx, userID, chatID, update.Message.Text)
		default:
			err = menus.SendText(h.api, chatID, "I can only read text. Use /help to see what I understand.", nil)
		}
	default:
		return nil
	}

	if err == nil || apperrors.IsCancelled(err) {
		return nil
	}
	if chatID != 0 {
		text := failureText
		if t := apperrors.TypeOf(err); t == apperrors.ErrorTypeValidation || t == apperrors.ErrorTypeNotFound {
			text = "⚠️ " + apperrors.MessageOf(err)
		}
		if sendErr := menus.SendText(h.api, chatID, text, nil); sendErr != nil {
			logger.WithContext(ctx).Warn("Failed to report error to user", "error", sendErr)
		}
	}
	return err
}

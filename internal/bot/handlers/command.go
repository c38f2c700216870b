package handlers

import (
	"context"

	"github.com/vladimiradmaev/mediplus/internal/bot/keyboards"
	"github.com/vladimiradmaev/mediplus/internal/bot/menus"
	"github.com/vladimiradmaev/mediplus/internal/bot/state"
	"github.com/vladimiradmaev/mediplus/internal/logger"
)

// CommandHandler handles bot commands
type CommandHandler struct {
	api          menus.Sender
	deps         Dependencies
	stateManager state.StateManager
	mindful      *mindful
	views        *views
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(api menus.Sender, deps Dependencies, stateManager state.StateManager) *CommandHandler {
	return &CommandHandler{
		api:          api,
		deps:         deps,
		stateManager: stateManager,
		mindful:      &mindful{api: api, deps: deps, stateManager: stateManager},
		views:        &views{api: api, deps: deps},
	}
}

// Handle processes a command message
func (h *CommandHandler) Handle(ctx context.Context, userID, chatID int64, command string) error {
	logger.WithContext(ctx).Info("Handling command", "command", command)

	switch command {
	case "start", "menu":
		h.stateManager.SetUserState(userID, state.None)
		h.stateManager.ClearTempData(userID, state.KeyCheckInKind)
		return menus.SendMainMenu(h.api, chatID)
	case "help":
		return menus.SendText(h.api, chatID, menus.HelpText, keyboards.BackMenu())
	case "checkin":
		return startCheckIn(h.api, h.stateManager, userID, chatID)
	case "insights":
		return h.views.insights(ctx, chatID)
	case "questions":
		return h.views.questions(ctx, chatID)
	case "mindful":
		return h.mindful.enter(ctx, userID, chatID)
	default:
		return menus.SendText(h.api, chatID, "Unknown command. Use /help to see the available commands.", nil)
	}
}

// startCheckIn waits for a typed reading of any kind.
func startCheckIn(api menus.Sender, sm state.StateManager, userID, chatID int64) error {
	sm.SetUserState(userID, state.WaitingForCheckIn)
	sm.ClearTempData(userID, state.KeyCheckInKind)
	return menus.SendCheckInMenu(api, chatID)
}

package handlers

import (
	"context"

	"github.com/vladimiradmaev/mediplus/internal/bot/keyboards"
	"github.com/vladimiradmaev/mediplus/internal/bot/menus"
	"github.com/vladimiradmaev/mediplus/internal/bot/state"
	"github.com/vladimiradmaev/mediplus/internal/services"
)

// mindful runs the Mindful chat of each Telegram user in its own session.
type mindful struct {
	api          menus.Sender
	deps         Dependencies
	stateManager state.StateManager
}

// session returns the user's Mindful session, creating one when the stored
// id is missing or no longer exists. created reports a new session.
func (m *mindful) session(ctx context.Context, userID int64) (id, greeting string, created bool, err error) {
	if id, ok := m.stateManager.GetTempData(userID, state.KeyMindfulSession); ok {
		if _, err := m.deps.Chat.GetSession(ctx, services.FeatureMindful, id); err == nil {
			return id, "", false, nil
		}
	}
	sess, err := m.deps.Chat.CreateSession(ctx, services.FeatureMindful)
	if err != nil {
		return "", "", false, err
	}
	m.stateManager.SetTempData(userID, state.KeyMindfulSession, sess.ID)
	if len(sess.Messages) > 0 {
		greeting = sess.Messages[0].Content
	}
	return sess.ID, greeting, true, nil
}

// enter switches the user into Mindful mode and greets them.
func (m *mindful) enter(ctx context.Context, userID, chatID int64) error {
	m.stateManager.SetUserState(userID, state.Mindful)
	_, greeting, created, err := m.session(ctx, userID)
	if err != nil {
		return err
	}
	if !created || greeting == "" {
		greeting = "Welcome back. What is on your mind?"
	}
	return menus.SendText(m.api, chatID, "🧘 "+greeting, keyboards.MindfulMenu())
}

// leave returns the user to the main menu.
func (m *mindful) leave(userID, chatID int64) error {
	m.stateManager.SetUserState(userID, state.None)
	return menus.SendMainMenu(m.api, chatID)
}

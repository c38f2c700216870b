package keyboards

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/mediplus/internal/vitals"
)

// Callback data
const (
	MainMenuData    = "main_menu"
	CheckInData     = "checkin"
	CheckInPrefix   = "checkin:"
	InsightsData    = "insights"
	QuestionsData   = "questions"
	MindfulData     = "mindful"
	ExitMindfulData = "exit_mindful"
	HelpData        = "help"
)

// MainMenu creates the main menu keyboard
func MainMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🩺 Check-in", CheckInData),
			tgbotapi.NewInlineKeyboardButtonData("📊 Insights", InsightsData),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📝 Questions", QuestionsData),
			tgbotapi.NewInlineKeyboardButtonData("🧘 Mindful", MindfulData),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❓ Help", HelpData),
		),
	)
}

// CheckInMenu offers one button per vital, two per row
func CheckInMenu() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, k := range vitals.AllKinds() {
		spec := vitals.MustLookup(k)
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(string(k), CheckInPrefix+spec.Slug))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, BackRow())
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// MindfulMenu is shown under Mindful replies
func MindfulMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🚪 Leave Mindful", ExitMindfulData),
		),
	)
}

// BackRow returns to the main menu
func BackRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("◀️ Main menu", MainMenuData),
	)
}

// BackMenu is a keyboard with only the main menu button
func BackMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(BackRow())
}

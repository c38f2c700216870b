package menus

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/mediplus/internal/bot/keyboards"
	"github.com/vladimiradmaev/mediplus/internal/domain"
	"github.com/vladimiradmaev/mediplus/internal/services"
	"github.com/vladimiradmaev/mediplus/internal/vitals"
)

// Sender is the part of the Telegram API the bot uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

const mainMenuText = `🩺 *MediPlus* — your health companion

• Log a check-in of blood pressure, heart rate, blood sugar, SpO2 or temperature
• Get a monthly summary of your readings
• Review the questions for your next appointment
• Talk things through in Mindful mode

⚠️ *Important:* this is general information, always consult your doctor!

Choose an action:`

const HelpText = `Available commands:
/start - Show the main menu
/checkin - Log a reading
/insights - Summary of the latest month
/questions - Questions for the active specialty
/mindful - Start a Mindful conversation
/help - Show this message

Check-in examples:
bp 120/80
sugar 140
hr 72
spo2 97
temp 36.8`

// SendMainMenu sends the main menu to a chat
func SendMainMenu(api Sender, chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, mainMenuText)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = keyboards.MainMenu()
	_, err := api.Send(msg)
	return err
}

// SendCheckInMenu asks which vital to log
func SendCheckInMenu(api Sender, chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, "Pick a vital, or just type a reading like \"bp 120/80\" or \"sugar 140\".")
	msg.ReplyMarkup = keyboards.CheckInMenu()
	_, err := api.Send(msg)
	return err
}

// SendText sends plain text with an optional keyboard
func SendText(api Sender, chatID int64, text string, markup any) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	_, err := api.Send(msg)
	return err
}

// FormatReading renders a recorded sample with its unit and level
func FormatReading(s domain.Sample) string {
	spec, ok := vitals.Lookup(s.Kind)
	if !ok {
		return string(s.Kind)
	}
	var value string
	if s.Pressure != nil {
		value = num(s.Pressure.Systolic) + "/" + num(s.Pressure.Diastolic)
	} else {
		value = num(spec.Round(s.Value))
	}
	text := fmt.Sprintf("✅ %s %s %s recorded", s.Kind, value, spec.Unit)
	if level := spec.Classify(s); level != vitals.LevelNormal {
		text += " (" + strings.ReplaceAll(level.String(), "_", " ") + ")"
	}
	return text
}

// FormatInsight renders a month or vital insight
func FormatInsight(res services.InsightResult) string {
	var b strings.Builder
	b.WriteString("📊 Insights")
	if res.Month != "" {
		b.WriteString(" for " + res.Month)
	}
	b.WriteString("\n\n")
	b.WriteString(res.Text)
	if res.Suggestions != "" {
		b.WriteString("\n\n💡 Suggestions\n")
		b.WriteString(res.Suggestions)
	}
	if res.Fallback {
		b.WriteString("\n\n(offline summary, the assistant was unavailable)")
	}
	if res.Provisional {
		b.WriteString("\n\n⏳ Asking the assistant for details...")
	}
	return b.String()
}

// FormatQuestions lists the questions of the active specialty
func FormatQuestions(st domain.QuestionState) string {
	list := st.Questions[st.Active]
	if len(list) == 0 {
		return fmt.Sprintf("📝 %s\n\nNo questions yet.", st.Active)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📝 %s\n", st.Active)
	for _, q := range list {
		mark := "☐"
		if q.Checked {
			mark = "☑"
		}
		fmt.Fprintf(&b, "\n%s %s", mark, q.Text)
	}
	return b.String()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

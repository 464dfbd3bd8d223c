package telegram

import (
	"fmt"
	"strings"

	"dexscreener-alert-bot/internal/types"
	"dexscreener-alert-bot/lib/helpers"
	"dexscreener-alert-bot/lib/translation"
)

// Notifier delivers fired alerts to their owners' chats. Errors bubble up to
// the monitor, which leaves the alert active and retries next cycle.
type Notifier struct {
	bot *Bot
}

func NewNotifier(bot *Bot) *Notifier {
	return &Notifier{bot: bot}
}

func (n *Notifier) Deliver(ownerID int64, fired types.FiredAlert) error {
	return n.bot.SendMessage(Message{
		ChatID: ownerID,
		Text:   renderFiredAlert(fired),
	})
}

// renderFiredAlert builds the trigger notification from values frozen at
// evaluation time.
func renderFiredAlert(fired types.FiredAlert) string {
	alert := fired.Alert

	changeEmoji := "📈"
	if fired.ActualChangePct < 0 {
		changeEmoji = "📉"
	}

	var target string
	switch alert.Direction {
	case types.DirectionAny:
		target = fmt.Sprintf("±%.1f%%", alert.Percent)
	default:
		target = fmt.Sprintf("%s %.1f%%", strings.ToUpper(string(alert.Direction)), alert.Percent)
	}

	var b strings.Builder
	b.WriteString("🚨 *" + helpers.EscapeMarkdownV2(translation.Translate("PRICE ALERT TRIGGERED!")) + "* 🚨\n\n")
	b.WriteString(fmt.Sprintf("🪙 *%s* \\($%s\\)\n\n",
		helpers.EscapeMarkdownV2(alert.TokenName), helpers.EscapeMarkdownV2(alert.TokenSymbol)))
	b.WriteString(fmt.Sprintf("💰 *%s* $%s\n",
		translation.Translate("Current Price:"), helpers.FormatPriceUS(fired.CurrentPrice, true)))
	b.WriteString(fmt.Sprintf("📍 *%s* $%s\n",
		translation.Translate("Entry Price:"), helpers.FormatPriceUS(alert.InitialPrice, true)))
	b.WriteString(fmt.Sprintf("%s *%s* %s\n",
		changeEmoji, translation.Translate("Change:"), helpers.FormatPercentage(fired.ActualChangePct)))
	b.WriteString(fmt.Sprintf("🎯 *%s* %s\n\n",
		translation.Translate("Target:"), helpers.EscapeMarkdownV2(target)))
	b.WriteString("_" + helpers.EscapeMarkdownV2(translation.Translate("Alert has been removed. Set a new one if needed!")) + "_")
	return b.String()
}

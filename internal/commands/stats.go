package commands

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"dexscreener-alert-bot/lib/helpers"
	"dexscreener-alert-bot/lib/translation"
)

// Stats renders the /stats summary.
func (h *Handler) Stats(ownerID int64) string {
	stats, err := h.Store.GetUserStats(ownerID)
	if err != nil {
		log.Errorf("Failed to fetch stats for user %d: %v", ownerID, err)
		return helpers.EscapeMarkdownV2(translation.Translate("Could not fetch your statistics. Please try again later."))
	}

	var b strings.Builder
	b.WriteString("📊 *" + helpers.EscapeMarkdownV2(translation.Translate("Your Statistics:")) + "*\n\n")
	b.WriteString(fmt.Sprintf("🔔 %s %d\n", helpers.EscapeMarkdownV2(translation.Translate("Active Alerts:")), stats.ActiveAlerts))
	b.WriteString(fmt.Sprintf("✅ %s %d\n", helpers.EscapeMarkdownV2(translation.Translate("Triggered Alerts:")), stats.TriggeredAlerts))
	b.WriteString(fmt.Sprintf("👀 %s %d\n", helpers.EscapeMarkdownV2(translation.Translate("Tokens Watching:")), stats.WatchlistCount))
	b.WriteString(fmt.Sprintf("📅 %s %s\n\n", helpers.EscapeMarkdownV2(translation.Translate("Member Since:")),
		helpers.EscapeMarkdownV2(helpers.FormatDate(stats.MemberSince))))
	b.WriteString(helpers.EscapeMarkdownV2(translation.Translate("Keep tracking! 🚀")))
	return b.String()
}

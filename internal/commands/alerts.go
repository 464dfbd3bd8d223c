package commands

import (
	"fmt"
	"math"
	"strings"

	humanize "github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"dexscreener-alert-bot/internal/types"
	"dexscreener-alert-bot/lib/helpers"
	"dexscreener-alert-bot/lib/translation"
)

// CreatePercentAlert registers a one-shot alert for a percentage move from
// the current price. Direction "any" keeps the threshold as a magnitude and
// no absolute target; up/down derive the absolute target price here, at
// creation time.
func (h *Handler) CreatePercentAlert(ownerID int64, quote *types.TokenQuote, direction types.Direction, percent float64) (string, error) {
	if quote.PriceUSD <= 0 {
		return "", errors.New("cannot create an alert without a current price")
	}
	if percent <= 0 {
		return "", errors.New("percentage must be positive")
	}

	draft := types.AlertDraft{
		OwnerID:      ownerID,
		TokenAddress: quote.TokenAddress,
		TokenName:    quote.Name,
		TokenSymbol:  quote.Symbol,
		Chain:        quote.Chain,
		InitialPrice: quote.PriceUSD,
		Direction:    direction,
		Percent:      percent,
	}

	var directionText string
	switch direction {
	case types.DirectionUp:
		draft.TargetPrice = quote.PriceUSD * (1 + percent/100)
		directionText = fmt.Sprintf("📈 UP %.1f%%", percent)
	case types.DirectionDown:
		draft.TargetPrice = quote.PriceUSD * (1 - percent/100)
		directionText = fmt.Sprintf("📉 DOWN %.1f%%", percent)
	case types.DirectionAny:
		directionText = fmt.Sprintf("🔔 ±%.1f%%", percent)
	default:
		return "", errors.Errorf("unknown alert direction %q", direction)
	}

	id, err := h.Store.CreateAlert(draft)
	if err != nil {
		return "", errors.Wrap(err, "could not save alert")
	}

	return h.renderAlertCreated(id, draft, directionText), nil
}

// CreateTargetAlert registers an alert for an absolute USD price. The
// direction and implied percentage follow from which side of the current
// price the target sits on.
func (h *Handler) CreateTargetAlert(ownerID int64, quote *types.TokenQuote, targetPrice float64) (string, error) {
	if quote.PriceUSD <= 0 {
		return "", errors.New("cannot create an alert without a current price")
	}
	if targetPrice <= 0 {
		return "", errors.New("target price must be positive")
	}

	direction := types.DirectionUp
	if targetPrice <= quote.PriceUSD {
		direction = types.DirectionDown
	}
	percent := math.Abs(targetPrice-quote.PriceUSD) / quote.PriceUSD * 100

	draft := types.AlertDraft{
		OwnerID:      ownerID,
		TokenAddress: quote.TokenAddress,
		TokenName:    quote.Name,
		TokenSymbol:  quote.Symbol,
		Chain:        quote.Chain,
		InitialPrice: quote.PriceUSD,
		TargetPrice:  targetPrice,
		Direction:    direction,
		Percent:      percent,
	}

	id, err := h.Store.CreateAlert(draft)
	if err != nil {
		return "", errors.Wrap(err, "could not save alert")
	}

	directionText := fmt.Sprintf("📈 UP %.1f%%", percent)
	if direction == types.DirectionDown {
		directionText = fmt.Sprintf("📉 DOWN %.1f%%", percent)
	}
	return h.renderAlertCreated(id, draft, directionText), nil
}

func (h *Handler) renderAlertCreated(id int64, draft types.AlertDraft, directionText string) string {
	var b strings.Builder
	b.WriteString("✅ *" + helpers.EscapeMarkdownV2(translation.Translate("Alert Created Successfully!")) + "*\n\n")
	b.WriteString(fmt.Sprintf("🪙 *%s* \\($%s\\)\n",
		helpers.EscapeMarkdownV2(draft.TokenName), helpers.EscapeMarkdownV2(draft.TokenSymbol)))
	b.WriteString(fmt.Sprintf("💰 *%s* $%s\n",
		translation.Translate("Current Price:"), helpers.EscapeMarkdownV2(helpers.FormatNumber(draft.InitialPrice))))
	b.WriteString(fmt.Sprintf("*%s* %s\n", translation.Translate("Alert:"), helpers.EscapeMarkdownV2(directionText)))
	if draft.Direction != types.DirectionAny {
		b.WriteString(fmt.Sprintf("🎯 *%s* $%s\n",
			translation.Translate("Target Price:"), helpers.EscapeMarkdownV2(helpers.FormatNumber(draft.TargetPrice))))
	}
	b.WriteString(fmt.Sprintf("🆔 *%s* `%d`\n\n", translation.Translate("Alert ID:"), id))
	b.WriteString(helpers.EscapeMarkdownV2(translation.Translate("I'll notify you when the target is reached! 🔔")))
	return b.String()
}

// AlertList renders a user's active alerts for /alerts.
func (h *Handler) AlertList(ownerID int64) string {
	alerts, err := h.Store.ListAlertsByOwner(ownerID, true)
	if err != nil {
		log.Errorf("Failed to fetch alerts for user %d: %v", ownerID, err)
		return helpers.EscapeMarkdownV2(translation.Translate("Could not fetch your alerts. Please try again later."))
	}

	if len(alerts) == 0 {
		return helpers.EscapeMarkdownV2(translation.Translate("📭 You don't have any active alerts. Send me a contract address to create one!"))
	}

	var b strings.Builder
	b.WriteString("🔔 *" + helpers.EscapeMarkdownV2(translation.Translate("Your Active Alerts:")) + "*\n\n")

	for i, alert := range alerts {
		b.WriteString(fmt.Sprintf("*%d\\. %s* \\($%s\\)\n",
			i+1, helpers.EscapeMarkdownV2(alert.TokenName), helpers.EscapeMarkdownV2(alert.TokenSymbol)))
		b.WriteString("   " + helpers.EscapeMarkdownV2(describeCondition(alert)) + "\n")
		b.WriteString(fmt.Sprintf("   💰 %s $%s\n",
			translation.Translate("Entry:"), helpers.EscapeMarkdownV2(helpers.FormatNumber(alert.InitialPrice))))
		if alert.Direction != types.DirectionAny {
			b.WriteString(fmt.Sprintf("   🎯 %s $%s\n",
				translation.Translate("Target:"), helpers.EscapeMarkdownV2(helpers.FormatNumber(alert.TargetPrice))))
		}
		b.WriteString(fmt.Sprintf("   🆔 ID: `%d` \\(%s\\)\n\n",
			alert.ID, helpers.EscapeMarkdownV2(humanize.Time(alert.CreatedAt))))
	}

	b.WriteString("_" + helpers.EscapeMarkdownV2(translation.Translate("Use /delete <alert_id> to remove an alert")) + "_")
	return b.String()
}

// DeleteAlert deactivates one of the caller's alerts by id.
func (h *Handler) DeleteAlert(ownerID, alertID int64) string {
	deleted, err := h.Store.DeleteAlert(ownerID, alertID)
	if err != nil {
		log.Errorf("Failed to delete alert %d: %v", alertID, err)
		return helpers.EscapeMarkdownV2(translation.Translate("Could not delete the alert. Please try again later."))
	}
	if !deleted {
		return helpers.EscapeMarkdownV2(translation.Translate("❌ Alert %d not found or already deleted.", alertID))
	}
	return helpers.EscapeMarkdownV2(translation.Translate("✅ Alert %d deleted successfully!", alertID))
}

func describeCondition(alert types.Alert) string {
	switch alert.Direction {
	case types.DirectionUp:
		return fmt.Sprintf("📈 UP %.1f%%", alert.Percent)
	case types.DirectionDown:
		return fmt.Sprintf("📉 DOWN %.1f%%", alert.Percent)
	default:
		return fmt.Sprintf("🔔 ±%.1f%%", alert.Percent)
	}
}

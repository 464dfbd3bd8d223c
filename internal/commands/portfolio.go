package commands

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"dexscreener-alert-bot/lib/helpers"
	"dexscreener-alert-bot/lib/translation"
)

// Portfolio renders the user's watchlist with live prices. Tokens whose
// quote cannot be fetched right now are listed without one; the command
// never fails as a whole because one token is unreachable.
func (h *Handler) Portfolio(ctx context.Context, ownerID int64) string {
	watchlist, err := h.Store.GetWatchlist(ownerID)
	if err != nil {
		log.Errorf("Failed to fetch watchlist for user %d: %v", ownerID, err)
		return helpers.EscapeMarkdownV2(translation.Translate("Could not fetch your watchlist. Please try again later."))
	}

	if len(watchlist) == 0 {
		return helpers.EscapeMarkdownV2(translation.Translate("📭 Your watchlist is empty. Track a token and add it to your watchlist!"))
	}

	var b strings.Builder
	b.WriteString("📊 *" + helpers.EscapeMarkdownV2(translation.Translate("Your Watchlist:")) + "*\n\n")

	for i, token := range watchlist {
		b.WriteString(fmt.Sprintf("*%d\\. %s* \\($%s\\)\n",
			i+1, helpers.EscapeMarkdownV2(token.Name), helpers.EscapeMarkdownV2(token.Symbol)))

		quote, err := h.Prices.Quote(ctx, token.TokenAddress)
		if err != nil {
			log.Debugf("No quote for watchlist token %s: %v", token.TokenAddress, err)
			b.WriteString("   ⚠️ " + helpers.EscapeMarkdownV2(translation.Translate("Unable to fetch current price")) + "\n\n")
			continue
		}

		change := 0.0
		changeEmoji := "➖"
		if token.InitialPrice > 0 {
			change = (quote.PriceUSD - token.InitialPrice) / token.InitialPrice * 100
			changeEmoji = "📈"
			if change < 0 {
				changeEmoji = "📉"
			}
		}

		b.WriteString(fmt.Sprintf("   💰 %s $%s\n",
			translation.Translate("Price:"), helpers.EscapeMarkdownV2(helpers.FormatNumber(quote.PriceUSD))))
		b.WriteString(fmt.Sprintf("   %s %s %s\n",
			changeEmoji, translation.Translate("Change:"), helpers.FormatPercentage(change)))
		b.WriteString(fmt.Sprintf("   🔗 %s %s\n\n",
			translation.Translate("Chain:"), helpers.EscapeMarkdownV2(strings.ToUpper(token.Chain))))
	}

	return b.String()
}

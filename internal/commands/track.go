package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"dexscreener-alert-bot/internal/types"
	"dexscreener-alert-bot/lib/helpers"
	"dexscreener-alert-bot/lib/translation"
)

// Shown search hits are capped well below the client's own limit; a chat
// message with dozens of result buttons is unusable.
const maxSearchResults = 5

// TokenSearch looks tokens up by name or symbol and renders the result list.
// The quotes come back alongside the text so the caller can attach a
// track button per result.
func (h *Handler) TokenSearch(ctx context.Context, query string) (string, []types.TokenQuote, error) {
	log.Debugf("searching tokens for %q", query)

	results, err := h.Prices.Search(ctx, query)
	if err != nil {
		return "", nil, errors.Wrap(err, "token search")
	}
	if len(results) > maxSearchResults {
		results = results[:maxSearchResults]
	}
	if len(results) == 0 {
		return helpers.EscapeMarkdownV2(translation.Translate("🔍 No tokens found. Try the contract address instead.")), nil, nil
	}

	var b strings.Builder
	b.WriteString("🔍 *" + helpers.EscapeMarkdownV2(translation.Translate("Search Results:")) + "*\n\n")
	for i, quote := range results {
		b.WriteString(fmt.Sprintf("*%d\\. %s* \\($%s\\)\n",
			i+1, helpers.EscapeMarkdownV2(quote.Name), helpers.EscapeMarkdownV2(quote.Symbol)))
		b.WriteString(fmt.Sprintf("   💰 $%s \\| 🔗 %s\n\n",
			helpers.EscapeMarkdownV2(helpers.FormatNumber(quote.PriceUSD)),
			helpers.EscapeMarkdownV2(strings.ToUpper(quote.Chain))))
	}
	b.WriteString("_" + helpers.EscapeMarkdownV2(translation.Translate("Pick a token below to set an alert.")) + "_")

	return b.String(), results, nil
}

// TokenOverview fetches a token by contract address and renders the card
// shown before the alert preset keyboard.
func (h *Handler) TokenOverview(ctx context.Context, address string) (string, *types.TokenQuote, error) {
	log.Debugf("processing /track with address %s", address)

	quote, err := h.Prices.Quote(ctx, address)
	if err != nil {
		return "", nil, errors.Wrap(err, "command /track")
	}

	changeEmoji := "📈"
	if quote.PriceChange24h < 0 {
		changeEmoji = "📉"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("🪙 *%s* \\($%s\\)\n\n",
		helpers.EscapeMarkdownV2(quote.Name), helpers.EscapeMarkdownV2(quote.Symbol)))
	b.WriteString(fmt.Sprintf("💰 *%s* $%s\n",
		translation.Translate("Price:"), helpers.EscapeMarkdownV2(helpers.FormatNumber(quote.PriceUSD))))
	b.WriteString(fmt.Sprintf("%s *%s* %s\n",
		changeEmoji, translation.Translate("24h Change:"), helpers.FormatPercentage(quote.PriceChange24h)))
	b.WriteString(fmt.Sprintf("💧 *%s* $%s\n",
		translation.Translate("Liquidity:"), helpers.EscapeMarkdownV2(helpers.FormatNumber(quote.LiquidityUSD))))
	b.WriteString(fmt.Sprintf("📊 *%s* $%s\n",
		translation.Translate("24h Volume:"), helpers.EscapeMarkdownV2(helpers.FormatNumber(quote.Volume24hUSD))))
	b.WriteString(fmt.Sprintf("🔗 *%s* %s\n",
		translation.Translate("Chain:"), helpers.EscapeMarkdownV2(strings.ToUpper(quote.Chain))))
	b.WriteString(fmt.Sprintf("📍 *%s* %s\n\n",
		translation.Translate("DEX:"), helpers.EscapeMarkdownV2(quote.Dex)))
	b.WriteString("*" + helpers.EscapeMarkdownV2(translation.Translate("Select an alert option below:")) + "*")

	return b.String(), quote, nil
}

// AddToWatchlist stores the token for later /portfolio lookups.
func (h *Handler) AddToWatchlist(ownerID int64, quote *types.TokenQuote) string {
	added, err := h.Store.AddToWatchlist(types.WatchlistEntry{
		OwnerID:      ownerID,
		TokenAddress: quote.TokenAddress,
		Name:         quote.Name,
		Symbol:       quote.Symbol,
		Chain:        quote.Chain,
		InitialPrice: quote.PriceUSD,
	})
	if err != nil {
		log.Errorf("Failed to add watchlist entry: %v", err)
		return helpers.EscapeMarkdownV2(translation.Translate("Could not update your watchlist. Please try again later."))
	}
	if !added {
		return helpers.EscapeMarkdownV2(translation.Translate("%s is already on your watchlist.", quote.Name))
	}

	return fmt.Sprintf("✅ *%s* %s",
		helpers.EscapeMarkdownV2(quote.Name),
		helpers.EscapeMarkdownV2(translation.Translate("added to your watchlist! Use /portfolio to view your tracked tokens.")))
}

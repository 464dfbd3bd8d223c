package commands

import (
	"context"

	"dexscreener-alert-bot/internal/database"
	"dexscreener-alert-bot/internal/types"
)

// PriceSource is the slice of the DexScreener client the command layer uses.
type PriceSource interface {
	Quote(ctx context.Context, address string) (*types.TokenQuote, error)
	Search(ctx context.Context, query string) ([]types.TokenQuote, error)
}

// Handler renders command replies. All output is MarkdownV2-escaped text
// ready to hand to the bot.
type Handler struct {
	Store  *database.Store
	Prices PriceSource
}

func NewHandler(store *database.Store, prices PriceSource) *Handler {
	return &Handler{Store: store, Prices: prices}
}

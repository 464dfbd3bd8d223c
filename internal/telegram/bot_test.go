package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dexscreener-alert-bot/internal/types"
)

func TestWelcomeMessageEmbedsFirstName(t *testing.T) {
	bot := &Bot{}

	text := bot.welcomeMessage("Ada")
	assert.Contains(t, text, "Ada")
	assert.NotContains(t, text, "%s")
}

func TestHelpMessageCarriesNoFormatVerbs(t *testing.T) {
	assert.NotContains(t, helpMessage(), "%")
	assert.Contains(t, helpMessage(), "custom percent")
}

func TestSearchKeyboardLinksResultsToTrackFlow(t *testing.T) {
	results := []types.TokenQuote{
		{TokenAddress: "0xaa", Name: "Pepe", Symbol: "PEPE", Chain: "ethereum"},
		{TokenAddress: "0xbb", Name: "Wif", Symbol: "WIF", Chain: "solana"},
	}

	keyboard := searchKeyboard(results)
	require.Len(t, keyboard.InlineKeyboard, 3, "one row per result plus cancel")

	assert.Equal(t, "track|0xaa", *keyboard.InlineKeyboard[0][0].CallbackData)
	assert.Contains(t, keyboard.InlineKeyboard[0][0].Text, "PEPE")
	assert.Equal(t, "track|0xbb", *keyboard.InlineKeyboard[1][0].CallbackData)
	assert.Equal(t, "track_cancel", *keyboard.InlineKeyboard[2][0].CallbackData)
}

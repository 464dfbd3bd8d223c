package telegram

import (
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"dexscreener-alert-bot/internal/commands"
	"dexscreener-alert-bot/internal/types"
)

// BotConfig configuration of the bot
type BotConfig struct {
	Token          string
	Debug          bool
	UpdatesTimeout int
}

// Bot telegram interaction client
type Bot struct {
	Bot      *tgbotapi.BotAPI
	Config   BotConfig
	commands *commands.Handler

	mu      sync.Mutex
	pending map[int64]*pendingTrack // per-user conversation state
}

// pendingTrack is the token a user is currently setting an alert on, plus
// whatever free-form input the bot is waiting for.
type pendingTrack struct {
	quote    *types.TokenQuote
	awaiting string // "", awaitPercent or awaitPrice
}

const (
	awaitPercent = "percent"
	awaitPrice   = "price"
)

// Message a telegram message struct
type Message struct {
	ChatID    int64
	MessageID int
	Text      string
}

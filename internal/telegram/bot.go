package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"dexscreener-alert-bot/internal/commands"
	"dexscreener-alert-bot/internal/dexscreener"
	"dexscreener-alert-bot/internal/types"
	"dexscreener-alert-bot/lib/helpers"
	"dexscreener-alert-bot/lib/translation"
)

// NewBot creates new telegram bot
func NewBot(c BotConfig, handler *commands.Handler) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(c.Token)
	if err != nil {
		return nil, errors.Wrap(err, "could not create telegram bot")
	}

	bot.Debug = c.Debug

	return &Bot{
		Bot:      bot,
		Config:   c,
		commands: handler,
		pending:  make(map[int64]*pendingTrack),
	}, nil
}

// GetUpdatesChannel gets new updates
func (b *Bot) GetUpdatesChannel() (tgbotapi.UpdatesChannel, error) {
	updatesConfig := tgbotapi.NewUpdate(0)
	if b.Config.UpdatesTimeout > 0 {
		updatesConfig.Timeout = b.Config.UpdatesTimeout
	}
	return b.Bot.GetUpdatesChan(updatesConfig), nil
}

// SendMessage sends a telegram message
func (b *Bot) SendMessage(m Message) error {
	msg := tgbotapi.NewMessage(m.ChatID, m.Text)
	msg.ReplyToMessageID = m.MessageID
	msg.DisableWebPagePreview = true
	msg.ParseMode = "MarkdownV2"
	_, err := b.Bot.Send(msg)
	return errors.Wrapf(err, "could not send message to chat %d", m.ChatID)
}

// HandleUpdate processes a Telegram update and returns the reply text, or ""
// when the handler already sent its own messages.
func (b *Bot) HandleUpdate(u tgbotapi.Update) string {
	if u.Message == nil {
		return ""
	}

	chatID := u.Message.Chat.ID
	userID := u.Message.From.ID
	log.Debugf("received command %q from user %d", u.Message.Command(), userID)

	switch u.Message.Command() {
	case "start":
		return b.welcomeMessage(u.Message.From.FirstName)
	case "help":
		return helpMessage()
	case "track":
		address := strings.TrimSpace(u.Message.CommandArguments())
		if address == "" {
			return helpers.EscapeMarkdownV2(translation.Translate("📝 Please send me the contract address (CA) you want to track:"))
		}
		return b.handleTrack(chatID, userID, address)
	case "alerts":
		return b.commands.AlertList(userID)
	case "delete":
		return b.handleDeleteCommand(chatID, userID, strings.TrimSpace(u.Message.CommandArguments()))
	case "portfolio":
		return b.commands.Portfolio(context.Background(), userID)
	case "stats":
		return b.commands.Stats(userID)
	case "":
		return b.handleText(chatID, userID, strings.TrimSpace(u.Message.Text))
	}

	return helpMessage()
}

// handleText deals with non-command input: the custom value a previous
// keyboard asked for, or a bare contract address starting a track flow.
func (b *Bot) handleText(chatID, userID int64, text string) string {
	if text == "" {
		return ""
	}

	b.mu.Lock()
	state, ok := b.pending[userID]
	awaiting := ""
	if ok {
		awaiting = state.awaiting
	}
	b.mu.Unlock()

	switch awaiting {
	case awaitPercent:
		return b.handleCustomPercent(userID, state, text)
	case awaitPrice:
		return b.handleTargetPrice(userID, state, text)
	}

	if helpers.IsContractAddress(text) {
		return b.handleTrack(chatID, userID, text)
	}

	return b.handleSearch(chatID, text)
}

// handleSearch treats non-address text as a name or symbol search and offers
// a track button per match.
func (b *Bot) handleSearch(chatID int64, query string) string {
	text, results, err := b.commands.TokenSearch(context.Background(), query)
	if err != nil {
		log.Errorf("Token search %q failed: %v", query, err)
		return helpers.EscapeMarkdownV2(translation.Translate("⚠️ DexScreener is unreachable right now. Please try again in a moment."))
	}
	if len(results) == 0 {
		return text
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "MarkdownV2"
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = searchKeyboard(results)

	if _, err := b.Bot.Send(msg); err != nil {
		log.Errorf("Failed to send search results: %v", err)
	}
	return ""
}

func searchKeyboard(results []types.TokenQuote) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, quote := range results {
		label := fmt.Sprintf("%s (%s) - %s", quote.Name, quote.Symbol, strings.ToUpper(quote.Chain))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, "track|"+quote.TokenAddress),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", "track_cancel"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// handleTrack fetches the token and offers the alert preset keyboard.
func (b *Bot) handleTrack(chatID, userID int64, address string) string {
	if !helpers.IsContractAddress(address) {
		return helpers.EscapeMarkdownV2(translation.Translate("❌ That doesn't look like a valid contract address. Please send a valid CA (e.g., 0x... for EVM or a Solana address)"))
	}

	text, quote, err := b.commands.TokenOverview(context.Background(), address)
	if err != nil {
		if errors.Is(err, dexscreener.ErrNotFound) {
			return helpers.EscapeMarkdownV2(translation.Translate("❌ Token not found on DexScreener. Make sure the contract address is correct and the token has liquidity."))
		}
		log.Errorf("Failed to fetch token %s: %v", address, err)
		return helpers.EscapeMarkdownV2(translation.Translate("⚠️ DexScreener is unreachable right now. Please try again in a moment."))
	}

	b.mu.Lock()
	b.pending[userID] = &pendingTrack{quote: quote}
	b.mu.Unlock()

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "MarkdownV2"
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = trackKeyboard()

	if _, err := b.Bot.Send(msg); err != nil {
		log.Errorf("Failed to send track keyboard: %v", err)
	}
	return ""
}

func trackKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📈 Up 10%", "alert|up|10"),
			tgbotapi.NewInlineKeyboardButtonData("📈 Up 20%", "alert|up|20"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📈 Up 50%", "alert|up|50"),
			tgbotapi.NewInlineKeyboardButtonData("📈 Up 100%", "alert|up|100"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📉 Down 10%", "alert|down|10"),
			tgbotapi.NewInlineKeyboardButtonData("📉 Down 20%", "alert|down|20"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📉 Down 50%", "alert|down|50"),
			tgbotapi.NewInlineKeyboardButtonData("🎯 Custom %", "alert|custom"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏰ Price Target", "alert|target"),
			tgbotapi.NewInlineKeyboardButtonData("🔔 Any Change 5%", "alert|any|5"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Add to Watchlist", "watchlist|add"),
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", "track_cancel"),
		),
	)
}

// HandleCallbackQuery reacts to the inline keyboards.
func (b *Bot) HandleCallbackQuery(callbackQuery *tgbotapi.CallbackQuery) {
	if callbackQuery.Message == nil {
		return
	}

	data := callbackQuery.Data
	chatID := callbackQuery.Message.Chat.ID
	messageID := callbackQuery.Message.MessageID
	userID := callbackQuery.From.ID

	ack := func(text string) {
		b.Bot.Send(tgbotapi.NewCallback(callbackQuery.ID, text))
	}

	switch {
	case data == "track_cancel":
		b.clearPending(userID)
		b.editMessage(chatID, messageID, helpers.EscapeMarkdownV2(translation.Translate("❌ Operation cancelled.")))
		ack("")

	case strings.HasPrefix(data, "track|"):
		address := strings.TrimPrefix(data, "track|")
		if reply := b.handleTrack(chatID, userID, address); reply != "" {
			b.editMessage(chatID, messageID, reply)
		}
		ack("")

	case data == "watchlist|add":
		state := b.pendingFor(userID)
		if state == nil {
			ack(translation.Translate("Token info expired. Please send the contract address again."))
			return
		}
		b.clearPending(userID)
		b.editMessage(chatID, messageID, b.commands.AddToWatchlist(userID, state.quote))
		ack("")

	case data == "alert|custom":
		if b.pendingFor(userID) == nil {
			ack(translation.Translate("Token info expired. Please send the contract address again."))
			return
		}
		b.setAwaiting(userID, awaitPercent)
		b.editMessage(chatID, messageID, helpers.EscapeMarkdownV2(translation.Translate(
			"🎯 Custom Alert: enter your percentage. Positive for UP (e.g., 25), negative for DOWN (e.g., -15).")))
		ack("")

	case data == "alert|target":
		if b.pendingFor(userID) == nil {
			ack(translation.Translate("Token info expired. Please send the contract address again."))
			return
		}
		b.setAwaiting(userID, awaitPrice)
		b.editMessage(chatID, messageID, helpers.EscapeMarkdownV2(translation.Translate(
			"💰 Price Target Alert: enter your target price in USD (e.g., 0.00001234 or 1.50).")))
		ack("")

	case strings.HasPrefix(data, "alert|"):
		parts := strings.Split(data, "|")
		if len(parts) != 3 {
			ack(translation.Translate("Invalid alert data."))
			return
		}
		state := b.pendingFor(userID)
		if state == nil {
			ack(translation.Translate("Token info expired. Please send the contract address again."))
			return
		}
		percent, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			ack(translation.Translate("Invalid alert data."))
			return
		}

		reply, err := b.commands.CreatePercentAlert(userID, state.quote, types.Direction(parts[1]), percent)
		if err != nil {
			log.Errorf("Failed to create alert: %v", err)
			ack(translation.Translate("Failed to save alert. Please try again later."))
			return
		}
		b.clearPending(userID)
		b.editMessage(chatID, messageID, reply)
		ack(translation.Translate("Alert saved successfully."))

	case data == "delete_cancel":
		b.editMessage(chatID, messageID, helpers.EscapeMarkdownV2(translation.Translate("❌ Delete operation cancelled.")))
		ack("")

	case strings.HasPrefix(data, "delete|"):
		alertID, err := strconv.ParseInt(strings.TrimPrefix(data, "delete|"), 10, 64)
		if err != nil {
			ack(translation.Translate("Invalid alert data."))
			return
		}
		b.editMessage(chatID, messageID, b.commands.DeleteAlert(userID, alertID))
		ack("")

	default:
		ack(translation.Translate("Unknown action. Please try again."))
	}
}

func (b *Bot) handleCustomPercent(userID int64, state *pendingTrack, text string) string {
	percent, err := strconv.ParseFloat(strings.TrimSuffix(text, "%"), 64)
	if err != nil || percent == 0 {
		return helpers.EscapeMarkdownV2(translation.Translate("❌ Invalid percentage. Please enter a non-zero number (e.g., 25 or -15)"))
	}

	direction := types.DirectionUp
	if percent < 0 {
		direction = types.DirectionDown
		percent = -percent
	}

	reply, err := b.commands.CreatePercentAlert(userID, state.quote, direction, percent)
	if err != nil {
		log.Errorf("Failed to create custom alert: %v", err)
		return helpers.EscapeMarkdownV2(translation.Translate("Failed to save alert. Please try again later."))
	}

	b.clearPending(userID)
	return reply
}

func (b *Bot) handleTargetPrice(userID int64, state *pendingTrack, text string) string {
	target, err := strconv.ParseFloat(strings.TrimPrefix(text, "$"), 64)
	if err != nil || target <= 0 {
		return helpers.EscapeMarkdownV2(translation.Translate("❌ Invalid price. Please enter a valid number (e.g., 0.00001234)"))
	}

	reply, err := b.commands.CreateTargetAlert(userID, state.quote, target)
	if err != nil {
		log.Errorf("Failed to create target alert: %v", err)
		return helpers.EscapeMarkdownV2(translation.Translate("Failed to save alert. Please try again later."))
	}

	b.clearPending(userID)
	return reply
}

// handleDeleteCommand deletes by id when one is given, otherwise offers a
// button per active alert.
func (b *Bot) handleDeleteCommand(chatID, userID int64, args string) string {
	if args != "" {
		alertID, err := strconv.ParseInt(args, 10, 64)
		if err != nil {
			return helpers.EscapeMarkdownV2(translation.Translate("❌ Invalid alert id."))
		}
		return b.commands.DeleteAlert(userID, alertID)
	}

	alerts, err := b.commands.Store.ListAlertsByOwner(userID, true)
	if err != nil {
		log.Errorf("Failed to list alerts for user %d: %v", userID, err)
		return helpers.EscapeMarkdownV2(translation.Translate("Could not fetch your alerts. Please try again later."))
	}
	if len(alerts) == 0 {
		return helpers.EscapeMarkdownV2(translation.Translate("📭 You don't have any alerts to delete."))
	}

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, alert := range alerts {
		label := fmt.Sprintf("🗑️ %s - %s %.0f%%", alert.TokenSymbol, strings.ToUpper(string(alert.Direction)), alert.Percent)
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("delete|%d", alert.ID)),
		))
	}
	buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", "delete_cancel"),
	))

	msg := tgbotapi.NewMessage(chatID, "🗑️ *"+helpers.EscapeMarkdownV2(translation.Translate("Select an alert to delete:"))+"*")
	msg.ParseMode = "MarkdownV2"
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)

	if _, err := b.Bot.Send(msg); err != nil {
		log.Errorf("Failed to send delete keyboard: %v", err)
	}
	return ""
}

func (b *Bot) welcomeMessage(firstName string) string {
	return fmt.Sprintf(
		"🚀 *%s*\n\n%s",
		helpers.EscapeMarkdownV2(translation.Translate("Welcome to Crypto Price Alert Bot, %s!", firstName)),
		helpers.EscapeMarkdownV2(translation.Translate(
			"I help you track token prices and alert you when they hit your targets.\n\n"+
				"Commands:\n"+
				"/track <contract_address> - Track a token by contract address\n"+
				"/alerts - View your active alerts\n"+
				"/delete - Delete an alert\n"+
				"/portfolio - View your watchlist\n"+
				"/stats - View your statistics\n"+
				"/help - Show help message\n\n"+
				"Send me a contract address to get started! 🎯")),
	)
}

func helpMessage() string {
	return "📖 *" + helpers.EscapeMarkdownV2(translation.Translate("Help Guide")) + "*\n\n" +
		helpers.EscapeMarkdownV2(translation.Translate(
			"1. Send a contract address or use /track <CA>\n"+
				"2. Select an alert type (Up/Down percentage, custom percent, or a price target)\n"+
				"3. Get notified once when the price hits your target - alerts trigger once and are removed.\n\n"+
				"Supported chains: Ethereum, BSC, Polygon, Solana, Arbitrum, Base and many more.\n\n"+
				"Commands: /track, /alerts, /delete, /portfolio, /stats"))
}

func (b *Bot) editMessage(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = "MarkdownV2"
	if _, err := b.Bot.Send(edit); err != nil {
		log.Errorf("Failed to edit message %d: %v", messageID, err)
	}
}

func (b *Bot) pendingFor(userID int64) *pendingTrack {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending[userID]
}

func (b *Bot) setAwaiting(userID int64, awaiting string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if state, ok := b.pending[userID]; ok {
		state.awaiting = awaiting
	}
}

func (b *Bot) clearPending(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.pending, userID)
}

// Package telegram hosts the bot's command surface and outbound delivery via
// the Telegram Bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/polydictions/bot/internal/format"
	"github.com/polydictions/bot/internal/logger"
	"github.com/polydictions/bot/internal/matcher"
	"github.com/polydictions/bot/internal/polymarket"
	"github.com/polydictions/bot/internal/registry"
)

// Telegram rejects messages above 4096 characters; anything longer than
// maxMessageLen is split into chunkSize pieces.
const (
	maxMessageLen = 4000
	chunkSize     = 3900
)

// Bot handles incoming commands and sends notifications.
type Bot struct {
	api      *tgbotapi.BotAPI
	registry *registry.Registry
	market   *polymarket.Client
	siteURL  string
}

// NewBot creates a bot from a token and its collaborators.
func NewBot(botToken string, reg *registry.Registry, market *polymarket.Client, siteURL string) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	logger.Info("Authorized as @%s", api.Self.UserName)
	return &Bot{
		api:      api,
		registry: reg,
		market:   market,
		siteURL:  siteURL,
	}, nil
}

// SendNotification delivers one rendered HTML message to a user.
func (b *Bot) SendNotification(userID int64, text string) error {
	return b.send(userID, text)
}

// ListenForCommands starts a goroutine that polls for Telegram updates and
// dispatches bot commands. It returns immediately; the goroutine stops when
// ctx is cancelled.
func (b *Bot) ListenForCommands(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				b.api.StopReceivingUpdates()
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message != nil && update.Message.IsCommand() {
					// Handlers run detached so a slow /deal enrichment
					// cannot stall the update loop.
					go b.handleCommand(ctx, update.Message)
				}
			}
		}
	}()
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.handleStart(msg)
	case "deal":
		b.handleDeal(ctx, msg)
	case "help":
		b.handleHelp(msg)
	case "keywords":
		b.handleKeywords(msg)
	case "pause":
		b.handlePause(msg)
	case "resume":
		b.handleResume(msg)
	}
}

func (b *Bot) handleStart(msg *tgbotapi.Message) {
	userID := msg.From.ID
	if err := b.registry.Subscribe(userID); err != nil {
		logger.Error("Failed to persist subscription for user %d: %v", userID, err)
	}

	text := "🎯 <b>Welcome to Polydictions Bot</b>\n\n" +
		"Track and analyze Polymarket events.\n\n" +
		"<b>Commands:</b>\n" +
		"📊 /deal &lt;link&gt; - Analyze event\n" +
		"🔔 /start - Subscribe to notifications\n" +
		"🔍 /keywords - Set keyword filters\n" +
		"⏸️ /pause - Pause notifications\n" +
		"▶️ /resume - Resume notifications\n" +
		"❓ /help - Help\n\n" +
		"You're now subscribed to new events! 🔔\n\n" +
		"💡 <b>Pro tip:</b> Use /keywords to filter events (btc, eth, election, sports, etc.)"

	b.reply(msg, text)
	logger.Info("User %d subscribed", userID)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) {
	text := "<b>Polydictions Bot</b>\n\n" +
		"<b>Commands:</b>\n" +
		"/deal &lt;link&gt; - Analyze event with Market Context\n" +
		"  Example: /deal https://polymarket.com/event/event-slug\n\n" +
		"/start - Subscribe to notifications\n" +
		"/pause - Pause notifications\n" +
		"/resume - Resume notifications\n" +
		"/keywords - Manage keyword filters\n" +
		"/help - Show help\n\n" +
		"<b>Features:</b>\n" +
		"• Event statistics &amp; current odds\n" +
		"• Total liquidity &amp; volume\n" +
		"• 🧠 AI-powered Market Context analysis\n" +
		"• Auto notifications for new events\n" +
		"• 🔍 Keyword filtering (btc, eth, election, sports, etc.)\n" +
		"• ⏸️ Pause/resume notifications anytime"

	b.reply(msg, text)
}

func (b *Bot) handleDeal(ctx context.Context, msg *tgbotapi.Message) {
	arg := strings.TrimSpace(msg.CommandArguments())
	if arg == "" {
		b.reply(msg, "❌ Please provide a Polymarket link.\n\n"+
			"Example:\n/deal https://polymarket.com/event/your-event-slug")
		return
	}

	slug, ok := polymarket.ParseEventURL(arg)
	if !ok {
		b.reply(msg, "❌ Invalid Polymarket URL")
		return
	}

	processingID := b.reply(msg, "⏳ Fetching event data...")

	event, err := b.market.FetchEventBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, polymarket.ErrEventNotFound) {
			b.edit(msg.Chat.ID, processingID, "❌ Event not found")
		} else {
			logger.Error("Failed to fetch event %s: %v", slug, err)
			b.edit(msg.Chat.ID, processingID, fmt.Sprintf("❌ Error: %v", err))
		}
		return
	}

	b.edit(msg.Chat.ID, processingID, format.Event(event, b.siteURL))

	contextID := b.reply(msg, "🧠 Generating Market Context... (this may take 10-30 seconds)")

	narrative, err := b.market.FetchMarketContext(ctx, event.Slug)
	if err != nil {
		logger.Error("Market context failed for slug %s: %v", event.Slug, err)
		b.edit(msg.Chat.ID, contextID, "⚠️ Market Context generation failed.\n\n"+
			"This can happen if:\n"+
			"• The event is too new\n"+
			"• The API is temporarily unavailable\n"+
			"• The event doesn't have enough data\n\n"+
			"Check bot logs for details.")
		return
	}
	logger.Info("Fetched market context for %s: %d chars", event.Slug, len(narrative))

	text := "🧠 <b>Market Context:</b>\n\n" + narrative
	if len(text) <= maxMessageLen {
		b.edit(msg.Chat.ID, contextID, text)
		return
	}

	b.edit(msg.Chat.ID, contextID, "🧠 <b>Market Context:</b>\n\n(Message too long, sending in parts...)")
	for i, chunk := range splitChunks(narrative, chunkSize) {
		part := fmt.Sprintf("🧠 <b>Market Context (Part %d):</b>\n\n%s", i+1, chunk)
		if i == 0 {
			b.edit(msg.Chat.ID, contextID, part)
		} else {
			b.reply(msg, part)
		}
	}
	logger.Info("User %d checked event: %s", msg.From.ID, slug)
}

func (b *Bot) handleKeywords(msg *tgbotapi.Message) {
	userID := msg.From.ID
	arg := strings.TrimSpace(msg.CommandArguments())

	if arg == "" {
		b.reply(msg, keywordsHelp(b.registry.Keywords(userID)))
		return
	}

	if strings.EqualFold(arg, "clear") {
		changed, err := b.registry.ClearKeywords(userID)
		if err != nil {
			logger.Error("Failed to clear keywords for user %d: %v", userID, err)
		}
		if changed {
			b.reply(msg, "✅ All keyword filters removed. You'll receive all events.")
		} else {
			b.reply(msg, "You don't have any keyword filters set.")
		}
		return
	}

	filters := matcher.ParseFilters(arg)
	if len(filters) == 0 {
		b.reply(msg, "❌ Please provide at least one keyword.")
		return
	}

	if err := b.registry.SetKeywords(userID, filters); err != nil {
		logger.Error("Failed to persist keywords for user %d: %v", userID, err)
	}

	var lines []string
	for _, f := range filters {
		lines = append(lines, "  • "+f)
	}
	b.reply(msg, "✅ <b>Keywords saved!</b>\n\n"+
		"You will only receive events matching:\n"+strings.Join(lines, "\n")+"\n\n"+
		"Use /keywords clear to remove filters.")
	logger.Info("User %d set keywords: %v", userID, filters)
}

func (b *Bot) handlePause(msg *tgbotapi.Message) {
	userID := msg.From.ID
	changed, err := b.registry.Pause(userID)
	if err != nil {
		logger.Error("Failed to persist pause for user %d: %v", userID, err)
	}
	if !changed {
		b.reply(msg, "You're already paused. Use /resume to resume notifications.")
		return
	}
	b.reply(msg, "⏸️ <b>Notifications paused</b>\n\n"+
		"You won't receive any new event notifications.\n\n"+
		"Use /resume when you want to resume notifications.")
	logger.Info("User %d paused notifications", userID)
}

func (b *Bot) handleResume(msg *tgbotapi.Message) {
	userID := msg.From.ID
	changed, err := b.registry.Resume(userID)
	if err != nil {
		logger.Error("Failed to persist resume for user %d: %v", userID, err)
	}
	if !changed {
		b.reply(msg, "You're not paused. Notifications are already active!")
		return
	}

	keywordsInfo := ""
	if filters := b.registry.Keywords(userID); len(filters) > 0 {
		keywordsInfo = "\n\n🔍 Active filters: " + strings.Join(filters, ", ")
	}
	b.reply(msg, "▶️ <b>Notifications resumed</b>\n\n"+
		"You'll receive new event notifications again!"+keywordsInfo)
	logger.Info("User %d resumed notifications", userID)
}

// keywordsHelp renders the /keywords usage text, prefixed with the user's
// current filters when any are set.
func keywordsHelp(current []string) string {
	usage := "<b>How to use:</b>\n" +
		"/keywords btc, eth, election - Set keywords\n" +
		"/keywords clear - Remove all filters\n\n" +
		"<b>Filter options:</b>\n" +
		"• Simple words: btc, eth, sports\n" +
		"• Phrases: \"united states\", \"world cup\"\n" +
		"• OR logic: keywords separated by commas\n\n" +
		"<b>Examples:</b>\n" +
		"• <code>btc, eth</code> → any event with btc OR eth\n" +
		"• <code>\"united states\", election</code> → phrase + word\n" +
		"• <code>sports, football, basketball</code> → any sports event\n\n"

	if len(current) > 0 {
		return "<b>Your current keywords:</b>\n" + strings.Join(current, ", ") + "\n\n" +
			usage +
			"Only events matching your keywords will be sent!"
	}
	return "<b>Keyword Filters</b>\n\n" +
		"Filter events by keywords to see only what matters!\n\n" +
		usage +
		"Currently no filters set - you'll receive all events."
}

// reply sends an HTML message to the chat the command came from and returns
// the sent message id, or 0 when the send failed.
func (b *Bot) reply(msg *tgbotapi.Message, text string) int {
	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	out.ParseMode = tgbotapi.ModeHTML
	sent, err := b.api.Send(out)
	if err != nil {
		logger.Error("Failed to reply in chat %d: %v", msg.Chat.ID, err)
		return 0
	}
	return sent.MessageID
}

func (b *Bot) edit(chatID int64, messageID int, text string) {
	if messageID == 0 {
		return
	}
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(edit); err != nil {
		logger.Error("Failed to edit message %d in chat %d: %v", messageID, chatID, err)
	}
}

func (b *Bot) send(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// splitChunks slices text into pieces of at most size bytes, cutting only on
// rune boundaries so a multi-byte character is never torn across chunks.
func splitChunks(text string, size int) []string {
	if size <= 0 || text == "" {
		return nil
	}
	var chunks []string
	for len(text) > size {
		cut := size
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if cut == 0 {
			// Invalid UTF-8 at the front; cut at the byte limit.
			cut = size
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	return append(chunks, text)
}

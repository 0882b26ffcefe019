package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"rent_bot/internal/config"
	"rent_bot/internal/storage"
	"rent_bot/internal/wizard"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Checker runs the listing pipeline for one chat on demand.
type Checker interface {
	CheckNow(ctx context.Context, chatID int64) (int, error)
}

// filterSession is an open /filter wizard of one chat.
type filterSession struct {
	w *wizard.Session
	// petsMsgID is the pets menu message redraws go to, 0 until one is sent.
	petsMsgID int
}

// Bot is the Telegram bot that handles user commands and sends listings.
type Bot struct {
	api     telegramAPI
	store   storage.Storage
	cfg     *config.Config
	checker Checker
	log     *slog.Logger

	mu       sync.Mutex
	sessions map[int64]*filterSession

	// checks tracks /check runs that outlive the update that started them.
	checks sync.WaitGroup
}

// New creates a Bot with the given Telegram token, storage, and config.
func New(token string, store storage.Storage, cfg *config.Config, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return newBot(api, store, cfg, log), nil
}

func newBot(api telegramAPI, store storage.Storage, cfg *config.Config, log *slog.Logger) *Bot {
	return &Bot{
		api:      api,
		store:    store,
		cfg:      cfg,
		log:      log,
		sessions: make(map[int64]*filterSession),
	}
}

// SetChecker attaches the on-demand checker used by /check.
func (b *Bot) SetChecker(c Checker) {
	b.checker = c
}

// RegisterCommands publishes the command menu to Telegram.
func (b *Bot) RegisterCommands() error {
	cmds := make([]tgbotapi.BotCommand, 0, len(commandMenu))
	for _, c := range commandMenu {
		cmds = append(cmds, tgbotapi.BotCommand{Command: c.name, Description: c.description})
	}
	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(cmds...)); err != nil {
		return fmt.Errorf("set my commands: %w", err)
	}
	return nil
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled
// and every running /check has finished.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.checks.Wait()
			return
		case update := <-updates:
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		if cb.Message == nil {
			return
		}
		if !b.cfg.IsUserAllowed(cb.From.ID) {
			b.ack(cb.ID)
			return
		}
		b.handleCallback(ctx, cb)
	case update.Message != nil:
		msg := update.Message
		if msg.From == nil {
			return
		}
		if !b.cfg.IsUserAllowed(msg.From.ID) {
			b.reply(msg.Chat.ID, "Доступ заборонено.")
			return
		}
		if msg.IsCommand() {
			b.handleCommand(ctx, msg)
			return
		}
		b.handleText(msg)
	}
}

// SendMessage sends a text message to the given chat.
func (b *Bot) SendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.SendMessage(chatID, text)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	chatID := msg.Chat.ID

	b.log.Debug("command", "cmd", cmd, "chat_id", chatID, "username", msg.From.UserName)

	switch cmd {
	case cmdStart:
		b.handleStart(ctx, chatID)
	case cmdStop:
		b.handleStop(ctx, chatID)
	case cmdSettings:
		b.handleSettings(ctx, chatID)
	case cmdFilter:
		b.handleFilter(ctx, chatID)
	case cmdReset:
		b.handleReset(ctx, chatID)
	case cmdCheck:
		b.handleCheck(ctx, chatID)
	case cmdHelp:
		b.handleHelp(chatID)
	default:
		b.reply(chatID, "Невідома команда. Список команд: /help")
	}
}

func (b *Bot) handleText(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if b.session(chatID) == nil {
		b.log.Debug("text outside wizard", "chat_id", chatID, "text", truncate(msg.Text, 50))
		b.reply(chatID, "Щоб змінити фільтри, надішліть /filter. Усі команди: /help")
		return
	}
	b.wizardEvent(chatID, wizard.TextEvent(msg.Text))
}

func (b *Bot) session(chatID int64) *filterSession {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessions[chatID]
}

func (b *Bot) setSession(chatID int64, s *filterSession) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s == nil {
		delete(b.sessions, chatID)
		return
	}
	b.sessions[chatID] = s
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "…"
}

package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/xilef-bot/evalbot/internal/dispatch"
	"github.com/xilef-bot/evalbot/internal/infrastructure/logging"
	"github.com/xilef-bot/evalbot/internal/infrastructure/resilience"
)

// Chat message directions and the rate limit surface label.
const (
	DirectionIn  = "in"
	DirectionOut = "out"
	Surface      = "telegram"
)

// Dispatcher runs the code block of a chat message.
type Dispatcher interface {
	DispatchMessage(ctx context.Context, msg dispatch.Message) *dispatch.Report
}

// Recorder counts chat traffic. *monitoring.Metrics satisfies it.
type Recorder interface {
	RecordChatMessage(direction string)
	RecordRateLimited(surface string)
}

// Options configures a Bot. Zero fields fall back to defaults.
type Options struct {
	// Operators are the user ids allowed to run scripts. Nobody else is
	// answered.
	Operators   []int64
	PollTimeout int
	Limiter     *resilience.KeyedLimiter
	Breaker     *resilience.Breaker
	Logger      *logging.Logger
	Recorder    Recorder
}

// Bot is the Telegram transport.
type Bot struct {
	api        API
	dispatcher Dispatcher
	operators  map[int64]struct{}
	opts       Options
	log        *logging.Logger
	wg         sync.WaitGroup
}

// NewBot creates a bot on top of api.
func NewBot(api API, dispatcher Dispatcher, opts Options) *Bot {
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 30
	}
	if opts.Limiter == nil {
		opts.Limiter = resilience.NewKeyedLimiter(1, 3, 0)
	}
	if opts.Breaker == nil {
		opts.Breaker = resilience.New(Surface, resilience.Settings{Ignore: IsRejected})
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}

	operators := make(map[int64]struct{}, len(opts.Operators))
	for _, id := range opts.Operators {
		operators[id] = struct{}{}
	}
	return &Bot{
		api:        api,
		dispatcher: dispatcher,
		operators:  operators,
		opts:       opts,
		log:        opts.Logger.Named(Surface),
	}
}

// Name returns the channel name.
func (b *Bot) Name() string { return Surface }

// Run starts the long-polling loop. Blocks until ctx is canceled, then waits
// for in-flight invocations to be delivered.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.opts.PollTimeout

	updates := b.api.GetUpdatesChan(u)
	b.log.Info("listening for messages", zap.Int("operators", len(b.operators)))

	defer b.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			msg := update.Message
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.handleMessage(ctx, msg)
			}()
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil || !msg.IsCommand() {
		return
	}
	if _, ok := b.operators[msg.From.ID]; !ok {
		b.log.Debug("ignoring message from non-operator", zap.Int64("user_id", msg.From.ID))
		return
	}
	b.opts.Recorder.RecordChatMessage(DirectionIn)

	chatID := msg.Chat.ID
	switch strings.ToLower(msg.Command()) {
	case "start", "help":
		_ = b.send(chatID, msg.MessageID, helpHTML(), tgbotapi.ModeHTML)
	case "debug":
		key := strconv.FormatInt(msg.From.ID, 10)
		if !b.opts.Limiter.Allow(key) {
			b.opts.Recorder.RecordRateLimited(Surface)
			_ = b.send(chatID, msg.MessageID, "Slow down, too many invocations.", "")
			return
		}
		b.debug(ctx, msg)
	}
}

func (b *Bot) debug(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if _, err := b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		b.log.Debug("chat action failed", zap.Error(err))
	}

	report := b.dispatcher.DispatchMessage(ctx, dispatch.Message{
		ID:        strconv.Itoa(msg.MessageID),
		Author:    author(msg.From),
		ChannelID: strconv.FormatInt(chatID, 10),
		Content:   restoreFences(msg.Text, msg.Entities),
	})

	if err := b.deliver(chatID, msg.MessageID, report); err != nil {
		b.log.Warn("report delivery failed",
			zap.String("invocation_id", report.ID),
			zap.Error(err),
		)
	}
}

// deliver sends the report: every page, or the single failure message,
// followed by relayed text. Delivery stops at the first failed send.
func (b *Bot) deliver(chatID int64, replyTo int, report *dispatch.Report) error {
	if report.Failure != nil {
		if err := b.send(chatID, replyTo, failureHTML(report.Failure), tgbotapi.ModeHTML); err != nil {
			return err
		}
	}
	for _, page := range report.Pages {
		if err := b.send(chatID, replyTo, pageHTML(page), tgbotapi.ModeHTML); err != nil {
			return err
		}
	}
	for _, text := range report.Sent {
		if strings.TrimSpace(text) == "" {
			continue
		}
		if err := b.send(chatID, 0, truncate(text, messageLimit-1), ""); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) send(chatID int64, replyTo int, text, mode string) error {
	cfg := tgbotapi.NewMessage(chatID, text)
	cfg.ReplyToMessageID = replyTo
	cfg.ParseMode = mode

	err := b.opts.Breaker.Do(func() error {
		_, err := b.api.Send(cfg)
		return err
	})
	if err != nil {
		if errors.Is(err, resilience.ErrCircuitOpen) {
			b.log.Warn("telegram circuit open, dropping message", zap.Int64("chat_id", chatID))
		}
		return err
	}
	b.opts.Recorder.RecordChatMessage(DirectionOut)
	return nil
}

func author(u *tgbotapi.User) string {
	if u.UserName != "" {
		return u.UserName
	}
	return strconv.FormatInt(u.ID, 10)
}

type nopRecorder struct{}

func (nopRecorder) RecordChatMessage(string) {}
func (nopRecorder) RecordRateLimited(string) {}

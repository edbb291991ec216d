package telegram

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"grouptasks/config"
	"grouptasks/pkg/logger"
	"grouptasks/pkg/utils"

	"golang.org/x/time/rate"
	"gopkg.in/telebot.v3"
)

// Notifier sends operational notices (task created, previous instance removed)
// to a configured chat, rate limited against the Bot API global budget.
type Notifier struct {
	cfg           *config.TelegramConfig
	log           *logger.Logger
	bot           *telebot.Bot
	chatID        int64
	globalLimiter *rate.Limiter
}

func NewNotifier(cfg *config.TelegramConfig, log *logger.Logger) (*Notifier, error) {
	if !cfg.Enabled {
		return &Notifier{cfg: cfg, log: log}, nil
	}

	pref := telebot.Settings{
		Token:  cfg.BotToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			log.Error("Telegram bot error", logger.ErrorField(err))
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	chatID, err := strconv.ParseInt(cfg.ChatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid telegram chat id %q: %w", cfg.ChatID, err)
	}

	return &Notifier{
		cfg:           cfg,
		log:           log,
		bot:           bot,
		chatID:        chatID,
		globalLimiter: rate.NewLimiter(rate.Limit(cfg.MaxGlobalRequestPerSecond), cfg.MaxGlobalRequestPerSecond),
	}, nil
}

// Enabled reports whether notifications are configured.
func (n *Notifier) Enabled() bool {
	return n.bot != nil
}

// Send delivers a message to the configured chat.
func (n *Notifier) Send(ctx context.Context, message string, opts ...interface{}) error {
	if !n.Enabled() {
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, n.cfg.TimeoutDuration)
	defer cancel()
	if err := n.globalLimiter.Wait(waitCtx); err != nil {
		return fmt.Errorf("telegram rate limit wait: %w", err)
	}

	// Bot API rejects messages over 4096 characters.
	_, err := n.bot.Send(&telebot.Chat{ID: n.chatID}, utils.Truncate(message, 4096), opts...)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

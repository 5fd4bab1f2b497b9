// Package telegram delivers messages to the public channel and the
// operator, and serves the operator command interface.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Min interval between any two sends to stay under the Telegram
// rate limit (~30/min per chat).
const sendInterval = 2 * time.Second

// Sink sends HTML messages through one bot to the public channel and
// the operator's private chat. Sends are serialized and paced.
type Sink struct {
	bot       *tgbotapi.BotAPI
	channelID int64
	adminID   int64
	log       *slog.Logger

	mu       sync.Mutex
	lastSend time.Time
}

func NewSink(token string, channelID, adminID int64, log *slog.Logger) (*Sink, error) {
	if log == nil {
		log = slog.Default()
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	bot.Debug = false

	me, err := bot.GetMe()
	if err != nil {
		return nil, fmt.Errorf("failed to get bot info: %w", err)
	}
	log.Info("telegram sink initialized", "bot", me.UserName, "channel_id", channelID)

	return &Sink{
		bot:       bot,
		channelID: channelID,
		adminID:   adminID,
		log:       log,
	}, nil
}

// Publish sends to the public channel.
func (s *Sink) Publish(ctx context.Context, text string) error {
	return s.send(ctx, s.channelID, text)
}

// NotifyOperator sends to the operator's private chat.
func (s *Sink) NotifyOperator(ctx context.Context, text string) error {
	return s.send(ctx, s.adminID, text)
}

func (s *Sink) send(ctx context.Context, chatID int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if wait := sendInterval - time.Since(s.lastSend); wait > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	s.lastSend = time.Now()
	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send to %d: %w", chatID, err)
	}
	return nil
}

// Bot exposes the underlying API for the command loop.
func (s *Sink) Bot() *tgbotapi.BotAPI {
	return s.bot
}

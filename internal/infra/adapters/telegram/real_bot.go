package telegram

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"tweet-telegram-relay/internal/config"
	"tweet-telegram-relay/internal/domain/ports/adapter"
)

var _ adapter.TelegramBotAdapter = (*RealTelegramBotAdapter)(nil)

// RealTelegramBotAdapter sends relay notifications through tgbotapi.
type RealTelegramBotAdapter struct {
	bot *tgbotapi.BotAPI
	log *zerolog.Logger
}

func NewRealTelegramBotAdapter(cfg *config.BotConfig, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	return newAdapter(bot, logger), nil
}

// NewRealTelegramBotAdapterWithEndpoint targets a custom Bot API server, such as
// a self-hosted telegram-bot-api instance. endpoint uses tgbotapi's
// "https://host/bot%s/%s" format.
func NewRealTelegramBotAdapterWithEndpoint(cfg *config.BotConfig, endpoint string, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(cfg.Token, endpoint)
	if err != nil {
		return nil, err
	}
	return newAdapter(bot, logger), nil
}

func newAdapter(bot *tgbotapi.BotAPI, logger *zerolog.Logger) *RealTelegramBotAdapter {
	compLog := logger.With().Str("component", "TelegramBot").Logger()
	compLog.Info().Str("bot", bot.Self.UserName).Msg("telegram bot authorized")
	return &RealTelegramBotAdapter{bot: bot, log: &compLog}
}

// SendMessage posts plain text to chatID.
func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, chatID int64, text string) error {
	// Support early cancellation
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := r.bot.Send(msg); err != nil {
		var tgErr *tgbotapi.Error
		if errors.As(err, &tgErr) && tgErr.RetryAfter > 0 {
			return fmt.Errorf("telegram send to %d (retry after %ds): %w", chatID, tgErr.RetryAfter, err)
		}
		return fmt.Errorf("telegram send to %d: %w", chatID, err)
	}
	r.log.Debug().Int64("chat_id", chatID).Msg("message sent")
	return nil
}

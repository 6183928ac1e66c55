package telegram

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"tweet-telegram-relay/internal/domain/ports/adapter"
)

var _ adapter.TelegramBotAdapter = (*NoopBotAdapter)(nil)

// NoopBotAdapter implements adapter.TelegramBotAdapter for dry runs.
// It logs messages instead of sending real Telegram messages.
type NoopBotAdapter struct {
	log *zerolog.Logger

	mu   sync.Mutex
	sent int
}

// NewNoopBotAdapter constructs the noop adapter.
func NewNoopBotAdapter(logger *zerolog.Logger) *NoopBotAdapter {
	compLog := logger.With().Str("component", "NoopTelegramBot").Logger()
	return &NoopBotAdapter{log: &compLog}
}

// SendMessage logs the message.
func (b *NoopBotAdapter) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	b.sent++
	b.mu.Unlock()
	b.log.Info().Int64("chat_id", chatID).Str("text", text).Msg("[dry-run] message not sent")
	return nil
}

// Sent reports how many messages were swallowed.
func (b *NoopBotAdapter) Sent() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sent
}

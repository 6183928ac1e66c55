// File: internal/domain/ports/adapter/telegram.go
package adapter

import "context"

// TelegramBotAdapter delivers plain text to a single chat. Implementations do
// no retrying; callers treat any error as terminal for that chat.
type TelegramBotAdapter interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

package usecase

import (
	"context"
	"fmt"

	"tweet-telegram-relay/internal/domain/model"
	"tweet-telegram-relay/internal/domain/ports/adapter"
	"tweet-telegram-relay/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ NotifierUseCase = (*notifierUC)(nil)

type NotifierUseCase interface {
	// Notify formats post and sends it to every destination.
	Notify(ctx context.Context, post model.Post) Delivery
	// Broadcast sends text as-is to every destination.
	Broadcast(ctx context.Context, text string) Delivery
}

// Delivery reports the per-destination outcome of one message.
type Delivery struct {
	Delivered []int64
	Failed    map[int64]error
}

// AllFailed is true when there was at least one destination and none succeeded.
func (d Delivery) AllFailed() bool {
	return len(d.Delivered) == 0 && len(d.Failed) > 0
}

// FormatPost renders the fixed notification template.
func FormatPost(post model.Post) string {
	return fmt.Sprintf("New tweet from @%s:\n\n%s\n\n%s", post.AuthorUsername, post.Text, post.URL())
}

type notifierUC struct {
	bot          adapter.TelegramBotAdapter
	throttle     adapter.SendThrottle
	destinations []int64
	log          *zerolog.Logger
}

func NewNotifierUseCase(bot adapter.TelegramBotAdapter, throttle adapter.SendThrottle, destinations []int64, logger *zerolog.Logger) *notifierUC {
	if throttle == nil {
		throttle = adapter.NoopThrottle{}
	}
	compLog := logger.With().Str("component", "Notifier").Logger()
	return &notifierUC{
		bot:          bot,
		throttle:     throttle,
		destinations: append([]int64(nil), destinations...),
		log:          &compLog,
	}
}

func (n *notifierUC) Notify(ctx context.Context, post model.Post) Delivery {
	d := n.Broadcast(ctx, FormatPost(post))
	if len(d.Delivered) > 0 {
		n.log.Info().
			Str("post_id", post.ID).
			Str("author", post.AuthorUsername).
			Int("delivered", len(d.Delivered)).
			Int("failed", len(d.Failed)).
			Msg("post forwarded")
	}
	return d
}

// Broadcast attempts every destination in order; one failing chat never
// stops the others.
func (n *notifierUC) Broadcast(ctx context.Context, text string) Delivery {
	d := Delivery{Failed: map[int64]error{}}
	for _, chatID := range n.destinations {
		if err := n.sendOne(ctx, chatID, text); err != nil {
			d.Failed[chatID] = err
			metrics.IncDelivery("failed")
			n.log.Error().Err(err).Int64("chat_id", chatID).Msg("delivery failed")
			continue
		}
		d.Delivered = append(d.Delivered, chatID)
		metrics.IncDelivery("ok")
	}
	return d
}

func (n *notifierUC) sendOne(ctx context.Context, chatID int64, text string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("send to %d panicked: %v", chatID, r)
		}
	}()
	if err := n.throttle.Wait(ctx, chatID); err != nil {
		return err
	}
	return n.bot.SendMessage(ctx, chatID, text)
}

package redis

import (
	"context"
	"fmt"
	"time"

	"tweet-telegram-relay/internal/domain/ports/adapter"
	"tweet-telegram-relay/internal/infra/clock"
	"tweet-telegram-relay/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// RateLimiter is a fixed-window counter keyed by an arbitrary string.
type RateLimiter struct {
	client RedisClient
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client}
}

// Allow counts one hit against key and reports whether it is within limit
// for the current window.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := r.client.IncrWindow(ctx, key, window)
	if err != nil {
		return false, err
	}
	return count <= int64(limit), nil
}

func ChatSendKey(chatID int64) string {
	return fmt.Sprintf("relay:rate_limit:send:%d", chatID)
}

var _ adapter.SendThrottle = (*ChatThrottle)(nil)

// ChatThrottle caps outbound Telegram messages per chat and window. Redis
// errors fail open so a flaky cache never stops delivery.
type ChatThrottle struct {
	limiter *RateLimiter
	limit   int
	window  time.Duration
	clock   clock.Clock
	log     *zerolog.Logger
}

func NewChatThrottle(limiter *RateLimiter, limit int, window time.Duration, clk clock.Clock, logger *zerolog.Logger) *ChatThrottle {
	if limit <= 0 {
		limit = 20
	}
	if window <= 0 {
		window = time.Minute
	}
	compLog := logger.With().Str("component", "ChatThrottle").Logger()
	return &ChatThrottle{limiter: limiter, limit: limit, window: window, clock: clk, log: &compLog}
}

func (t *ChatThrottle) Wait(ctx context.Context, chatID int64) error {
	step := t.window / time.Duration(t.limit)
	for {
		ok, err := t.limiter.Allow(ctx, ChatSendKey(chatID), t.limit, t.window)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			t.log.Warn().Err(err).Int64("chat_id", chatID).Msg("send throttle unavailable; sending anyway")
			return nil
		}
		if ok {
			return nil
		}
		metrics.IncSendThrottled()
		if err := t.clock.Sleep(ctx, step); err != nil {
			return err
		}
	}
}

package usecase

import (
	"context"
	"time"

	"tweet-telegram-relay/internal/infra/clock"
	"tweet-telegram-relay/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// RateLimitGuard is a global back-off: Hold blocks the caller, and with it the
// whole sequential cycle, for a fixed cool-down.
type RateLimitGuard struct {
	cooldown time.Duration
	clock    clock.Clock
	log      *zerolog.Logger
}

func NewRateLimitGuard(cooldown time.Duration, clk clock.Clock, logger *zerolog.Logger) *RateLimitGuard {
	compLog := logger.With().Str("component", "RateLimitGuard").Logger()
	return &RateLimitGuard{cooldown: cooldown, clock: clk, log: &compLog}
}

func (g *RateLimitGuard) Cooldown() time.Duration { return g.cooldown }

// Hold returns after the cool-down, or early with ctx.Err() on cancellation.
func (g *RateLimitGuard) Hold(ctx context.Context, trigger string) error {
	metrics.IncRateLimitCooldown()
	resumeAt := g.clock.Now().Add(g.cooldown)
	g.log.Warn().
		Str("trigger", trigger).
		Dur("cooldown", g.cooldown).
		Time("resume_at", resumeAt).
		Msg("rate limited; pausing all polling")
	if err := g.clock.Sleep(ctx, g.cooldown); err != nil {
		return err
	}
	g.log.Info().Msg("rate-limit cool-down finished")
	return nil
}

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tweet-telegram-relay/internal/config"
	"tweet-telegram-relay/internal/domain/ports/adapter"
	"tweet-telegram-relay/internal/infra/adapters/telegram"
	"tweet-telegram-relay/internal/infra/adapters/twitter"
	"tweet-telegram-relay/internal/infra/clock"
	"tweet-telegram-relay/internal/infra/logging"
	"tweet-telegram-relay/internal/infra/metrics"
	red "tweet-telegram-relay/internal/infra/redis"
	"tweet-telegram-relay/internal/usecase"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// app holds the dependencies shared by every subcommand.
type app struct {
	cfg    *config.Config
	log    *zerolog.Logger
	clock  clock.Clock
	source adapter.PostSource

	closers []func() error
}

func wireApp(flags *rootFlags) (*app, error) {
	cfg, err := config.LoadConfig(flags.configPath, flags.envFile, flags.dev)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.Runtime.DryRun = flags.dryRun

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	logger.Info().
		Str("twitter_token", logging.Redact(cfg.Twitter.BearerToken, cfg.Runtime.Dev)).
		Str("bot_token", logging.Redact(cfg.Bot.Token, cfg.Runtime.Dev)).
		Strs("users", cfg.Relay.Users).
		Int("destinations", len(cfg.Destinations())).
		Bool("dry_run", cfg.Runtime.DryRun).
		Msg("configuration loaded")

	return &app{
		cfg:    cfg,
		log:    logger,
		clock:  clock.NewReal(),
		source: twitter.NewClient(cfg.Twitter.BaseURL, cfg.Twitter.BearerToken, cfg.Twitter.Timeout),
	}, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn().Err(err).Msg("close")
		}
	}
}

func (a *app) newResolver() usecase.ResolverUseCase {
	return usecase.NewResolverUseCase(a.source, a.cfg.Relay.BatchSize, a.log)
}

func (a *app) newBot() (adapter.TelegramBotAdapter, error) {
	if a.cfg.Runtime.DryRun {
		return telegram.NewNoopBotAdapter(a.log), nil
	}
	bot, err := telegram.NewRealTelegramBotAdapter(&a.cfg.Bot, a.log)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return bot, nil
}

// newCoordination returns the Redis-backed send throttle and instance lock,
// or no-ops when redis.url is unset.
func (a *app) newCoordination(ctx context.Context) (adapter.SendThrottle, adapter.InstanceLock, error) {
	if a.cfg.Redis.URL == "" {
		return adapter.NoopThrottle{}, adapter.NoopLock{}, nil
	}
	client, err := red.NewClient(ctx, &a.cfg.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	a.closers = append(a.closers, client.Close)

	throttle := red.NewChatThrottle(red.NewRateLimiter(client), a.cfg.Bot.SendsPerMinute, time.Minute, a.clock, a.log)

	// renewed before every account and after every cycle, so one cool-down
	// plus one wait is the longest gap between renewals
	ttl := 2 * (a.cfg.Relay.PollInterval + a.cfg.Relay.RateLimitCooldown)
	fingerprint := uuid.NewSHA1(uuid.NameSpaceOID, []byte(strings.Join(a.cfg.Relay.Users, ","))).String()
	lock := red.NewInstanceLock(client, red.LockKey(fingerprint), ttl)

	a.log.Info().Int("sends_per_minute", a.cfg.Bot.SendsPerMinute).Dur("lock_ttl", ttl).Msg("redis coordination enabled")
	return throttle, lock, nil
}

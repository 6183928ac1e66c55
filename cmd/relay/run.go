package main

import (
	"context"
	"time"

	adminhttp "tweet-telegram-relay/internal/infra/http"
	"tweet-telegram-relay/internal/infra/sched"
	"tweet-telegram-relay/internal/usecase"

	"github.com/spf13/cobra"
)

func newRunCmd(flags *rootFlags) *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Resolve the accounts and relay new posts until interrupted (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := wireApp(flags)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.run(cmd.Context(), once)
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "run a single poll cycle and exit")
	return cmd
}

func (a *app) run(ctx context.Context, once bool) error {
	// posts older than this are never forwarded
	windowStart := a.clock.Now()

	bot, err := a.newBot()
	if err != nil {
		return err
	}
	throttle, lock, err := a.newCoordination(ctx)
	if err != nil {
		return err
	}

	notifier := usecase.NewNotifierUseCase(bot, throttle, a.cfg.Destinations(), a.log)
	guard := usecase.NewRateLimitGuard(a.cfg.Relay.RateLimitCooldown, a.clock, a.log)
	relay := usecase.NewRelayUseCase(a.source, a.newResolver(), notifier, guard, a.clock, windowStart, a.cfg.Relay.BatchSize, a.log,
		usecase.WithLease(lock))

	opts := []sched.PollWorkerOption{
		sched.WithInstanceLock(lock),
		sched.WithStartupMessage(a.cfg.StartupMessageEnabled()),
	}
	if once {
		opts = append(opts, sched.WithMaxCycles(1))
	}
	worker := sched.NewPollWorker(a.cfg.Relay.PollInterval, a.cfg.Relay.Users, relay, notifier, a.clock, a.log, opts...)

	// ---- Admin server ----
	if a.cfg.Admin.Port > 0 {
		srv := adminhttp.NewServer(a.cfg.Admin.Port, relay, a.log)
		go func() {
			if err := srv.Start(); err != nil {
				a.log.Error().Err(err).Msg("admin server error")
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	err = worker.Run(ctx)
	if sched.IsShutdown(err) {
		a.log.Info().Msg("shutdown complete")
		return nil
	}
	a.log.Error().Err(err).Msg("relay stopped")
	return err
}

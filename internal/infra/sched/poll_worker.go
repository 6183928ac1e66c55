package sched

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tweet-telegram-relay/internal/domain/ports/adapter"
	"tweet-telegram-relay/internal/infra/clock"
	"tweet-telegram-relay/internal/usecase"

	"github.com/rs/zerolog"
)

// progressSteps is how many slices the inter-cycle wait is split into for
// progress logging.
const progressSteps = 4

// PollWorker drives the relay: one cycle, then a fixed wait, forever.
type PollWorker struct {
	interval  time.Duration
	usernames []string
	announce  bool

	relay    usecase.RelayUseCase
	notifier usecase.NotifierUseCase
	lock     adapter.InstanceLock
	clock    clock.Clock
	log      *zerolog.Logger

	// cycles, when > 0, stops Run after that many cycles.
	cycles int
}

type PollWorkerOption func(*PollWorker)

// WithStartupMessage broadcasts a one-line notice before the first cycle.
func WithStartupMessage(enabled bool) PollWorkerOption {
	return func(w *PollWorker) { w.announce = enabled }
}

func WithInstanceLock(l adapter.InstanceLock) PollWorkerOption {
	return func(w *PollWorker) {
		if l != nil {
			w.lock = l
		}
	}
}

// WithMaxCycles bounds Run; used by the one-shot CLI mode.
func WithMaxCycles(n int) PollWorkerOption {
	return func(w *PollWorker) { w.cycles = n }
}

func NewPollWorker(
	interval time.Duration,
	usernames []string,
	relay usecase.RelayUseCase,
	notifier usecase.NotifierUseCase,
	clk clock.Clock,
	logger *zerolog.Logger,
	opts ...PollWorkerOption,
) *PollWorker {
	compLog := logger.With().Str("component", "PollWorker").Logger()
	w := &PollWorker{
		interval:  interval,
		usernames: usernames,
		relay:     relay,
		notifier:  notifier,
		lock:      adapter.NoopLock{},
		clock:     clk,
		log:       &compLog,
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Run blocks until ctx is cancelled (or the cycle bound is reached) and
// returns ctx.Err() on shutdown.
func (w *PollWorker) Run(ctx context.Context) error {
	if err := w.lock.Acquire(ctx); err != nil {
		return fmt.Errorf("acquire instance lock: %w", err)
	}
	defer func() {
		// ctx is likely cancelled here
		rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := w.lock.Release(rctx); err != nil {
			w.log.Warn().Err(err).Msg("release instance lock")
		}
	}()

	w.log.Info().
		Strs("accounts", w.usernames).
		Dur("interval", w.interval).
		Msg("Starting poll worker")

	if err := w.relay.Init(ctx, w.usernames); err != nil {
		return err
	}
	if w.announce {
		w.sendStartup(ctx)
	}

	for n := 1; ; n++ {
		if _, err := w.relay.RunCycle(ctx); err != nil {
			if ctx.Err() == nil {
				w.log.Error().Err(err).Msg("poll cycle aborted")
			}
			w.log.Info().Msg("Stopping poll worker")
			return err
		}
		if err := w.lock.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				w.log.Info().Msg("Stopping poll worker")
				return ctx.Err()
			}
			// another instance may own the accounts now
			w.log.Error().Err(err).Msg("instance lock lost")
			return fmt.Errorf("refresh instance lock: %w", err)
		}
		if w.cycles > 0 && n >= w.cycles {
			return nil
		}
		if err := w.wait(ctx); err != nil {
			w.log.Info().Msg("Stopping poll worker")
			return err
		}
	}
}

// wait sleeps for the interval in equal slices, logging progress after each.
func (w *PollWorker) wait(ctx context.Context) error {
	step := w.interval / progressSteps
	remaining := w.interval
	w.log.Debug().Dur("wait", w.interval).Msg("waiting for next cycle")
	for i := 1; i <= progressSteps && remaining > 0; i++ {
		d := step
		if i == progressSteps || d <= 0 {
			d = remaining
		}
		if err := w.clock.Sleep(ctx, d); err != nil {
			return err
		}
		remaining -= d
		w.log.Debug().
			Int("percent", i*100/progressSteps).
			Dur("remaining", remaining).
			Msg("next cycle countdown")
	}
	return nil
}

func (w *PollWorker) sendStartup(ctx context.Context) {
	handles := make([]string, 0, len(w.usernames))
	for _, acc := range w.relay.Accounts() {
		handles = append(handles, "@"+acc.Account.Username)
	}
	text := "Tweet relay started; monitoring " + strings.Join(handles, ", ")

	d := w.notifier.Broadcast(ctx, text)
	if d.AllFailed() {
		w.log.Warn().Int("destinations", len(d.Failed)).Msg("startup message not delivered")
		return
	}
	w.log.Info().Int("delivered", len(d.Delivered)).Msg("startup message sent")
}

// IsShutdown reports whether err is the normal result of cancelling Run.
func IsShutdown(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}

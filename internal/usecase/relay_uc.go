package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"tweet-telegram-relay/internal/domain"
	"tweet-telegram-relay/internal/domain/model"
	"tweet-telegram-relay/internal/domain/ports/adapter"
	"tweet-telegram-relay/internal/infra/clock"
	"tweet-telegram-relay/internal/infra/logging"
	"tweet-telegram-relay/internal/infra/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ RelayUseCase = (*relayUC)(nil)

type RelayUseCase interface {
	// Init resolves the configured usernames once and seeds their cursors.
	Init(ctx context.Context, usernames []string) error
	// RunCycle makes one sequential pass over every monitored account. It
	// returns early only when ctx is done or the instance lease is lost.
	RunCycle(ctx context.Context) (CycleReport, error)
	// FetchAndForward delivers posts newer than cursor, oldest first, and
	// returns the cursor of the last delivered post.
	FetchAndForward(ctx context.Context, acc model.MonitoredAccount, cursor model.Cursor) (model.Cursor, int, error)
	// Accounts is a snapshot of the account table in configured order.
	Accounts() []model.TrackedAccount
	WindowStart() time.Time
}

// CycleReport summarises one pass.
type CycleReport struct {
	CycleID     string
	Polled      int
	Skipped     int
	Forwarded   int
	RateLimited bool
	Failures    map[string]error
	Duration    time.Duration
}

type relayUC struct {
	source      adapter.PostSource
	resolver    ResolverUseCase
	notifier    NotifierUseCase
	guard       *RateLimitGuard
	clock       clock.Clock
	windowStart time.Time
	batchSize   int
	lease       adapter.InstanceLock
	log         *zerolog.Logger

	mu          sync.RWMutex
	accounts    []model.TrackedAccount
	initialized bool
}

type RelayOption func(*relayUC)

// WithLease renews l before every account so that a cycle stretched by
// several rate-limit cool-downs never outlives the lease.
func WithLease(l adapter.InstanceLock) RelayOption {
	return func(r *relayUC) {
		if l != nil {
			r.lease = l
		}
	}
}

func NewRelayUseCase(
	source adapter.PostSource,
	resolver ResolverUseCase,
	notifier NotifierUseCase,
	guard *RateLimitGuard,
	clk clock.Clock,
	windowStart time.Time,
	batchSize int,
	logger *zerolog.Logger,
	opts ...RelayOption,
) *relayUC {
	compLog := logger.With().Str("component", "PollCycle").Logger()
	r := &relayUC{
		source:      source,
		resolver:    resolver,
		notifier:    notifier,
		guard:       guard,
		clock:       clk,
		windowStart: windowStart.UTC(),
		batchSize:   batchSize,
		lease:       adapter.NoopLock{},
		log:         &compLog,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *relayUC) Init(ctx context.Context, usernames []string) error {
	r.mu.RLock()
	done := r.initialized
	r.mu.RUnlock()
	if done {
		return errors.New("relay already initialized")
	}

	tracked, err := r.resolver.Resolve(ctx, usernames)
	if err != nil {
		return fmt.Errorf("resolve accounts: %w", err)
	}

	r.mu.Lock()
	r.accounts = tracked
	r.initialized = true
	r.mu.Unlock()

	metrics.SetWindowStart(r.windowStart.Unix())
	r.log.Info().
		Int("accounts", len(tracked)).
		Time("window_start", r.windowStart).
		Msg("account table initialized")
	return nil
}

func (r *relayUC) WindowStart() time.Time { return r.windowStart }

func (r *relayUC) Accounts() []model.TrackedAccount {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.TrackedAccount(nil), r.accounts...)
}

func (r *relayUC) RunCycle(ctx context.Context) (CycleReport, error) {
	report := CycleReport{CycleID: uuid.NewString(), Failures: map[string]error{}}
	ctx = logging.WithCycleID(ctx, report.CycleID)
	log := logging.With(ctx, r.log)
	defer logging.TraceDuration(log, "RelayUC.RunCycle")()

	start := r.clock.Now()
	for i, tracked := range r.Accounts() {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if !tracked.Account.Resolved() {
			report.Skipped++
			continue
		}
		if err := r.lease.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			log.Error().Err(err).Str("next_account", tracked.Account.Username).Msg("instance lease lost; abandoning cycle")
			return report, fmt.Errorf("renew instance lease: %w", err)
		}

		actx := logging.WithAccount(ctx, tracked.Account.Username)
		next, n, err := r.FetchAndForward(actx, tracked.Account, tracked.Cursor)
		r.advance(i, next)
		report.Polled++
		report.Forwarded += n

		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			if errors.Is(err, domain.ErrRateLimited) {
				report.RateLimited = true
			}
			report.Failures[tracked.Account.Username] = err
		}
	}

	report.Duration = r.clock.Now().Sub(start)
	metrics.ObserveCycle(report.Duration)
	log.Info().
		Int("polled", report.Polled).
		Int("skipped", report.Skipped).
		Int("forwarded", report.Forwarded).
		Int("failures", len(report.Failures)).
		Bool("rate_limited", report.RateLimited).
		Msg("cycle finished")
	return report, nil
}

// advance stores cursor for the account at position i, never moving it back.
func (r *relayUC) advance(i int, cursor model.Cursor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i < 0 || i >= len(r.accounts) {
		return
	}
	r.accounts[i].Cursor = r.accounts[i].Cursor.Advance(cursor.LastSeenPostID)
}

func (r *relayUC) FetchAndForward(ctx context.Context, acc model.MonitoredAccount, cursor model.Cursor) (model.Cursor, int, error) {
	log := logging.With(ctx, r.log)

	posts, err := r.source.ListPosts(ctx, acc.AccountID, adapter.ListPostsParams{
		SinceID:    cursor.LastSeenPostID,
		StartTime:  r.windowStart,
		MaxResults: r.batchSize,
	})
	if err != nil {
		if errors.Is(err, domain.ErrRateLimited) {
			metrics.IncFetchError("rate_limited")
			if herr := r.guard.Hold(ctx, acc.Username); herr != nil {
				return cursor, 0, herr
			}
			return cursor, 0, err
		}
		metrics.IncFetchError("other")
		log.Error().Err(err).Msg("fetch failed; retrying next cycle")
		return cursor, 0, err
	}

	model.SortOldestFirst(posts)
	forwarded := 0
	for _, p := range posts {
		if !cursor.IsZero() && model.ComparePostIDs(p.ID, cursor.LastSeenPostID) <= 0 {
			continue
		}
		if !p.CreatedAt.IsZero() && p.CreatedAt.Before(r.windowStart) {
			continue
		}
		if p.AuthorUsername == "" {
			p.AuthorUsername = acc.Username
		}

		d := r.notifier.Notify(ctx, p)
		if err := ctx.Err(); err != nil {
			return cursor, forwarded, err
		}
		if d.AllFailed() {
			log.Error().Str("post_id", p.ID).Msg("no destination accepted the post; holding cursor")
			return cursor, forwarded, fmt.Errorf("post %s: %w", p.ID, domain.ErrDeliveryFailed)
		}
		cursor = cursor.Advance(p.ID)
		forwarded++
		metrics.IncPostForwarded(acc.Username)
	}
	if forwarded > 0 {
		log.Debug().Int("forwarded", forwarded).Str("cursor", cursor.String()).Msg("cursor advanced")
	}
	return cursor, forwarded, nil
}

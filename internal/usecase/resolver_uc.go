package usecase

import (
	"context"
	"errors"

	"tweet-telegram-relay/internal/domain"
	"tweet-telegram-relay/internal/domain/model"
	"tweet-telegram-relay/internal/domain/ports/adapter"
	"tweet-telegram-relay/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ ResolverUseCase = (*resolverUC)(nil)

type ResolverUseCase interface {
	// Resolve returns one entry per username, in input order. Entries whose
	// lookup failed carry an unresolved account and are never polled.
	Resolve(ctx context.Context, usernames []string) ([]model.TrackedAccount, error)
}

type resolverUC struct {
	source    adapter.PostSource
	batchSize int
	log       *zerolog.Logger
}

func NewResolverUseCase(source adapter.PostSource, batchSize int, logger *zerolog.Logger) *resolverUC {
	compLog := logger.With().Str("component", "AccountResolver").Logger()
	return &resolverUC{source: source, batchSize: batchSize, log: &compLog}
}

func (r *resolverUC) Resolve(ctx context.Context, usernames []string) ([]model.TrackedAccount, error) {
	out := make([]model.TrackedAccount, 0, len(usernames))
	resolved := 0
	for _, name := range usernames {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		tracked, err := r.resolveOne(ctx, name)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			r.log.Warn().Err(err).Str("username", name).Msg("account skipped; it will not be polled")
			acc, _ := model.NewMonitoredAccount(name)
			if acc.Username == "" {
				acc.Username = name
			}
			out = append(out, model.TrackedAccount{Account: acc})
			continue
		}
		resolved++
		r.log.Info().
			Str("username", tracked.Account.Username).
			Str("account_id", tracked.Account.AccountID).
			Str("cursor", tracked.Cursor.String()).
			Msg("account resolved")
		out = append(out, tracked)
	}
	metrics.SetMonitoredAccounts(resolved, len(out)-resolved)
	return out, nil
}

func (r *resolverUC) resolveOne(ctx context.Context, username string) (model.TrackedAccount, error) {
	if _, err := model.NewMonitoredAccount(username); err != nil {
		return model.TrackedAccount{}, err
	}
	acc, err := r.source.LookupUser(ctx, username)
	if err != nil {
		return model.TrackedAccount{}, err
	}
	if !acc.Resolved() {
		return model.TrackedAccount{}, domain.ErrUserNotFound
	}

	tracked := model.TrackedAccount{Account: acc}
	posts, err := r.source.ListPosts(ctx, acc.AccountID, adapter.ListPostsParams{MaxResults: r.batchSize})
	if err != nil {
		// The id is known, so keep polling; the window start still bounds
		// the first fetch.
		if errors.Is(err, domain.ErrRateLimited) {
			metrics.IncFetchError("rate_limited")
		}
		r.log.Warn().Err(err).Str("username", acc.Username).Msg("could not seed cursor; starting from none")
		return tracked, nil
	}
	if newest, ok := model.Newest(posts); ok {
		tracked.Cursor = model.NewCursor(newest.ID)
	} else {
		r.log.Info().Str("username", acc.Username).Msg("no existing posts; cursor starts at none")
	}
	return tracked, nil
}

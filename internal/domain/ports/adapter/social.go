package adapter

import (
	"context"
	"time"

	"tweet-telegram-relay/internal/domain/model"
)

// ListPostsParams narrows a timeline request. Zero values mean "no bound".
type ListPostsParams struct {
	SinceID    string
	StartTime  time.Time
	MaxResults int
}

// PostSource is the social media API as seen by the relay.
// Rate limiting must surface as domain.ErrRateLimited and unknown usernames
// as domain.ErrUserNotFound (both matchable with errors.Is).
type PostSource interface {
	LookupUser(ctx context.Context, username string) (model.MonitoredAccount, error)
	// ListPosts returns posts newest first, as the API does.
	ListPosts(ctx context.Context, accountID string, params ListPostsParams) ([]model.Post, error)
}

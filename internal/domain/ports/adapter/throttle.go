package adapter

import "context"

// SendThrottle blocks until another message may be sent to chatID.
type SendThrottle interface {
	Wait(ctx context.Context, chatID int64) error
}

// InstanceLock keeps two relays from polling the same accounts at once.
type InstanceLock interface {
	Acquire(ctx context.Context) error
	Refresh(ctx context.Context) error
	Release(ctx context.Context) error
}

var (
	_ SendThrottle = NoopThrottle{}
	_ InstanceLock = NoopLock{}
)

type NoopThrottle struct{}

func (NoopThrottle) Wait(ctx context.Context, _ int64) error { return ctx.Err() }

type NoopLock struct{}

func (NoopLock) Acquire(context.Context) error { return nil }
func (NoopLock) Refresh(context.Context) error { return nil }
func (NoopLock) Release(context.Context) error { return nil }

package usecase_test

import (
	"context"
	"sync"

	"tweet-telegram-relay/internal/domain/model"
	"tweet-telegram-relay/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// --- PostSource mock ---

type listCall struct {
	AccountID string
	Params    adapter.ListPostsParams
}

type MockPostSource struct {
	mu sync.Mutex

	LookupUserFunc func(ctx context.Context, username string) (model.MonitoredAccount, error)
	ListPostsFunc  func(ctx context.Context, accountID string, params adapter.ListPostsParams) ([]model.Post, error)

	Lookups   []string
	ListCalls []listCall
}

func NewMockPostSource() *MockPostSource {
	return &MockPostSource{}
}

func (m *MockPostSource) LookupUser(ctx context.Context, username string) (model.MonitoredAccount, error) {
	m.mu.Lock()
	m.Lookups = append(m.Lookups, username)
	m.mu.Unlock()
	if m.LookupUserFunc != nil {
		return m.LookupUserFunc(ctx, username)
	}
	return model.MonitoredAccount{Username: username, AccountID: "id-" + username}, nil
}

func (m *MockPostSource) ListPosts(ctx context.Context, accountID string, params adapter.ListPostsParams) ([]model.Post, error) {
	m.mu.Lock()
	m.ListCalls = append(m.ListCalls, listCall{AccountID: accountID, Params: params})
	m.mu.Unlock()
	if m.ListPostsFunc != nil {
		return m.ListPostsFunc(ctx, accountID, params)
	}
	return nil, nil
}

// --- Telegram mock ---

type SentMessage struct {
	ChatID int64
	Text   string
}

type MockTelegramBot struct {
	mu   sync.Mutex
	Sent []SentMessage

	SendMessageFunc func(ctx context.Context, chatID int64, text string) error
}

func (m *MockTelegramBot) SendMessage(ctx context.Context, chatID int64, text string) error {
	if m.SendMessageFunc != nil {
		if err := m.SendMessageFunc(ctx, chatID, text); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SentMessage{ChatID: chatID, Text: text})
	return nil
}

func (m *MockTelegramBot) Messages() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMessage(nil), m.Sent...)
}

// --- Throttle mock ---

type MockThrottle struct {
	Waited []int64
	Err    error
}

func (m *MockThrottle) Wait(ctx context.Context, chatID int64) error {
	m.Waited = append(m.Waited, chatID)
	return m.Err
}

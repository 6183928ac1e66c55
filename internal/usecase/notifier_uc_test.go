//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"tweet-telegram-relay/internal/domain/model"
	"tweet-telegram-relay/internal/usecase"
)

func TestFormatPost(t *testing.T) {
	got := usecase.FormatPost(model.Post{ID: "101", Text: "hello world", AuthorUsername: "alice"})
	want := "New tweet from @alice:\n\nhello world\n\nhttps://twitter.com/alice/status/101"
	if got != want {
		t.Fatalf("unexpected template:\n%q\nwant\n%q", got, want)
	}
}

func TestNotifierUseCase(t *testing.T) {
	ctx := context.Background()
	testLogger := newTestLogger()
	post := model.Post{ID: "101", Text: "hi", AuthorUsername: "alice"}

	t.Run("should deliver to every destination in order", func(t *testing.T) {
		// --- Arrange ---
		mockBot := &MockTelegramBot{}
		throttle := &MockThrottle{}
		uc := usecase.NewNotifierUseCase(mockBot, throttle, []int64{10, 20}, testLogger)

		// --- Act ---
		d := uc.Notify(ctx, post)

		// --- Assert ---
		if len(d.Delivered) != 2 || len(d.Failed) != 0 {
			t.Fatalf("expected 2 delivered / 0 failed, got %+v", d)
		}
		sent := mockBot.Messages()
		if sent[0].ChatID != 10 || sent[1].ChatID != 20 {
			t.Errorf("destinations out of order: %+v", sent)
		}
		if len(throttle.Waited) != 2 {
			t.Errorf("expected throttle to be consulted per destination, got %v", throttle.Waited)
		}
	})

	t.Run("should keep going when one destination fails", func(t *testing.T) {
		// --- Arrange ---
		mockBot := &MockTelegramBot{
			SendMessageFunc: func(ctx context.Context, chatID int64, text string) error {
				if chatID == 10 {
					return errors.New("chat not found")
				}
				return nil
			},
		}
		uc := usecase.NewNotifierUseCase(mockBot, nil, []int64{10, 20}, testLogger)

		// --- Act ---
		d := uc.Notify(ctx, post)

		// --- Assert ---
		if len(d.Delivered) != 1 || d.Delivered[0] != 20 {
			t.Fatalf("expected delivery to chat 20, got %+v", d.Delivered)
		}
		if _, ok := d.Failed[10]; !ok {
			t.Fatal("expected failure recorded for chat 10")
		}
		if d.AllFailed() {
			t.Error("AllFailed must be false when one destination succeeded")
		}
	})

	t.Run("should contain a panicking sender", func(t *testing.T) {
		mockBot := &MockTelegramBot{
			SendMessageFunc: func(ctx context.Context, chatID int64, text string) error {
				if chatID == 10 {
					panic("boom")
				}
				return nil
			},
		}
		uc := usecase.NewNotifierUseCase(mockBot, nil, []int64{10, 20}, testLogger)

		d := uc.Notify(ctx, post)
		if len(d.Delivered) != 1 || len(d.Failed) != 1 {
			t.Fatalf("expected one success and one failure, got %+v", d)
		}
	})

	t.Run("should report all failed when every destination errors", func(t *testing.T) {
		mockBot := &MockTelegramBot{
			SendMessageFunc: func(ctx context.Context, chatID int64, text string) error {
				return errors.New("forbidden")
			},
		}
		uc := usecase.NewNotifierUseCase(mockBot, nil, []int64{10, 20}, testLogger)

		if d := uc.Notify(ctx, post); !d.AllFailed() {
			t.Fatalf("expected AllFailed, got %+v", d)
		}
	})

	t.Run("throttle error counts as a failed destination", func(t *testing.T) {
		mockBot := &MockTelegramBot{}
		uc := usecase.NewNotifierUseCase(mockBot, &MockThrottle{Err: context.Canceled}, []int64{10}, testLogger)

		d := uc.Broadcast(ctx, "text")
		if !d.AllFailed() || len(mockBot.Messages()) != 0 {
			t.Fatalf("expected nothing sent, got %+v", d)
		}
	})
}

package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"tweet-telegram-relay/internal/config"
	"tweet-telegram-relay/internal/infra/logging"
)

// fakeBotAPI mimics the two Bot API methods the adapter touches.
type fakeBotAPI struct {
	mu       sync.Mutex
	sent     []string
	failWith string
}

func (f *fakeBotAPI) handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"relay","username":"relay_bot"}}`))
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		_ = r.ParseForm()
		if f.failWith != "" {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(f.failWith))
			return
		}
		f.mu.Lock()
		f.sent = append(f.sent, r.FormValue("chat_id")+":"+r.FormValue("text"))
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":1700000000,"chat":{"id":-100,"type":"group"},"text":"ok"}}`))
	default:
		http.NotFound(w, r)
	}
}

func newTestAdapter(t *testing.T, api *fakeBotAPI) *RealTelegramBotAdapter {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(api.handler))
	t.Cleanup(srv.Close)

	cfg := &config.BotConfig{Token: "dummy", ChatID: -100}
	a, err := NewRealTelegramBotAdapterWithEndpoint(cfg, srv.URL+"/bot%s/%s", logging.Nop())
	if err != nil {
		t.Fatalf("constructor failed: %v", err)
	}
	return a
}

func TestSendMessage(t *testing.T) {
	api := &fakeBotAPI{}
	a := newTestAdapter(t, api)

	if err := a.SendMessage(context.Background(), -100, "hello"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if len(api.sent) != 1 || api.sent[0] != "-100:hello" {
		t.Fatalf("unexpected sent messages: %v", api.sent)
	}
}

func TestSendMessage_RetryAfter(t *testing.T) {
	api := &fakeBotAPI{failWith: `{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 5","parameters":{"retry_after":5}}`}
	a := newTestAdapter(t, api)

	err := a.SendMessage(context.Background(), -100, "hello")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "retry after 5s") {
		t.Errorf("expected retry hint in error, got %v", err)
	}
}

func TestSendMessage_CancelledContext(t *testing.T) {
	api := &fakeBotAPI{}
	a := newTestAdapter(t, api)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := a.SendMessage(ctx, -100, "hello"); err == nil {
		t.Fatal("expected context error")
	}
	if len(api.sent) != 0 {
		t.Fatal("nothing should be sent after cancellation")
	}
}

func TestNoopBotAdapter(t *testing.T) {
	b := NewNoopBotAdapter(logging.Nop())
	if err := b.SendMessage(context.Background(), 1, "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Sent() != 1 {
		t.Errorf("expected 1 swallowed message, got %d", b.Sent())
	}
}

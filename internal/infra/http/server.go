package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"tweet-telegram-relay/internal/domain/model"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// AccountLister is the read side of the relay the admin API exposes.
type AccountLister interface {
	Accounts() []model.TrackedAccount
	WindowStart() time.Time
}

// Server is the admin listener: liveness, Prometheus scrape and a read-only
// view of the account table.
type Server struct {
	port     int
	accounts AccountLister
	log      *zerolog.Logger
	server   *http.Server
}

func NewServer(port int, accounts AccountLister, logger *zerolog.Logger) *Server {
	compLog := logger.With().Str("component", "AdminServer").Logger()
	s := &Server{port: port, accounts: accounts, log: &compLog}
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", s.handleHealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/accounts", s.handleAccounts)
	})
	return r
}

// Start blocks until the server stops; a clean Shutdown returns nil.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("admin server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type accountView struct {
	Username   string `json:"username"`
	AccountID  string `json:"account_id,omitempty"`
	Resolved   bool   `json:"resolved"`
	LastSeenID string `json:"last_seen_post_id,omitempty"`
}

type accountsResponse struct {
	WindowStart time.Time     `json:"window_start"`
	Accounts    []accountView `json:"accounts"`
}

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	tracked := s.accounts.Accounts()
	resp := accountsResponse{
		WindowStart: s.accounts.WindowStart(),
		Accounts:    make([]accountView, 0, len(tracked)),
	}
	for _, t := range tracked {
		resp.Accounts = append(resp.Accounts, accountView{
			Username:   t.Account.Username,
			AccountID:  t.Account.AccountID,
			Resolved:   t.Account.Resolved(),
			LastSeenID: t.Cursor.LastSeenPostID,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Error().Err(err).Msg("encode accounts")
	}
}

package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spacesedan/sentinel-review/internal/review"
)

// Server exposes the dashboard-facing HTTP surface over one shared review
// session.
type Server struct {
	orchestrator *review.Orchestrator
	session      *review.Session
	log          *review.OutcomeLog
}

func NewServer(orchestrator *review.Orchestrator, session *review.Session, log *review.OutcomeLog) *Server {
	return &Server{
		orchestrator: orchestrator,
		session:      session,
		log:          log,
	}
}

func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/review/single", s.handleSingleReview)
	mux.HandleFunc("POST /api/review/batch", s.handleBatchReview)
	mux.HandleFunc("POST /api/template/parse", s.handleTemplateParse)
	mux.HandleFunc("GET /api/template", s.handleTemplateDownload)
	mux.HandleFunc("POST /api/decisions", s.handleDecision)
	mux.HandleFunc("GET /api/items", s.handleItems)
	mux.HandleFunc("GET /api/review/log/export", s.handleLogExport)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Run starts the server and shuts it down gracefully when ctx is
// cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("[Server] Listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		slog.Info("[Server] Shutting down")
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

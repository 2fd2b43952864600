package dashboard

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/reqwatch/reqwatch/internal/audit"
)

// Server is the audit dashboard HTTP server.
type Server struct {
	mux         *http.ServeMux
	logger      *slog.Logger
	store       audit.Store
	pageSize    int
	recentLimit int
	addr        string
}

// NewServer creates a new dashboard server.
func NewServer(addr string, store audit.Store, pageSize, recentLimit int, logger *slog.Logger) *Server {
	s := &Server{
		mux:         http.NewServeMux(),
		logger:      logger,
		store:       store,
		pageSize:    pageSize,
		recentLimit: recentLimit,
		addr:        addr,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /{$}", s.handleRoot)
	s.mux.HandleFunc("GET /logs/{$}", s.handleLogs)
	s.mux.HandleFunc("GET /logs/recent/{$}", s.handleRecent)
	s.mux.HandleFunc("GET /logs/stats/{$}", s.handleStats)
	s.mux.HandleFunc("GET /logs/stream/{$}", s.handleStream)
}

// ListenAndServe starts the dashboard HTTP server.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.mux,
	}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	s.logger.Info("starting dashboard", "addr", s.addr)
	return srv.ListenAndServe()
}

// Handler returns the HTTP handler for embedding in other servers.
func (s *Server) Handler() http.Handler {
	return s.mux
}

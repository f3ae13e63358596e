package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"messenger-backend/internal/identity"
	"messenger-backend/internal/storage"

	"go.uber.org/zap"
)

// Server defines fields used in HTTP processing
type Server struct {
	logger        *zap.SugaredLogger
	httpServer    *http.Server
	afterShutdown []func()
}

// NewServer wires endpoint handlers to an http.Server configured by the
// provided options. verifier may be nil when identity-token login is not
// configured; the auth endpoint then rejects token logins.
func NewServer(logger *zap.SugaredLogger, store *storage.Store, verifier identity.Verifier, opts ...Option) (*Server, error) {
	h := &handler{
		logger:   logger,
		store:    store,
		verifier: verifier,
	}

	cfg := &config{
		httpServer: &http.Server{Addr: "0.0.0.0:9000"},
		handlers:   h.routes(),
	}

	// user options may wrap handlers, so logging and mux registration run last
	for _, opt := range append(opts, applyLog(logger.Desugar()), registerHandlers()) {
		opt.apply(cfg)
	}

	return &Server{
		logger:        logger,
		httpServer:    cfg.httpServer,
		afterShutdown: cfg.afterShutdown,
	}, nil
}

// Start calls ListenAndServe on http.Server instance inside Server struct
// and implements graceful shutdown via goroutine waiting for signals;
// registered after-shutdown functions run once the server is stopped
func (s *Server) Start() error {
	idleConnsClosed := make(chan struct{})

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt)
		<-sigint

		s.logger.Info("Shutting down HTTP server")

		if err := s.httpServer.Shutdown(context.Background()); err != nil {
			s.logger.Errorf("srv.Shutdown: %v", err)
		}
		s.logger.Info("HTTP server is stopped")

		close(idleConnsClosed)
	}()

	s.logger.Infof("Starting HTTP server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("s.httpServer.ListenAndServe: %v", err)
	}

	<-idleConnsClosed

	for _, f := range s.afterShutdown {
		f()
	}

	return nil
}

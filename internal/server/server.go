package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/stockwise/stockwise/internal/config"
	"github.com/stockwise/stockwise/internal/llm"
	"github.com/stockwise/stockwise/internal/store"
)

type Server struct {
	cfg   *config.Config
	http  *http.Server
	store store.Store // closed on shutdown
}

func New(cfg *config.Config, st store.Store, client llm.Client) (*Server, error) {
	router, err := NewRouter(cfg, st, client)
	if err != nil {
		return nil, fmt.Errorf("setup routes: %w", err)
	}

	s := &Server{cfg: cfg, store: st}
	s.http = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AgentTimeoutDuration() + 15*time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s, nil
}

func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.http.Addr).Msg("listening")
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("graceful shutdown initiated")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()

		err := s.http.Shutdown(shutdownCtx)
		s.store.Close()
		log.Info().Msg("store closed")
		return err
	case err := <-errCh:
		s.store.Close()
		return err
	}
}

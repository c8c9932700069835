package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

type Server struct {
	srv *http.Server
}

func NewServer(addr string, handler http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Run блокируется до остановки сервера, после Stop возвращает nil
func (s *Server) Run() error {
	slog.Info("server started",
		slog.String("addr", s.srv.Addr),
	)

	err := s.srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) Stop() error {
	timeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.srv.Shutdown(timeout); err != nil {
		return err
	}

	slog.Info("server stopped",
		slog.String("addr", s.srv.Addr),
	)

	return nil
}

package handler

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Server owns the listener and the process wide HTTP server lifecycle.
type Server struct {
	server          *http.Server
	listener        net.Listener
	shutdownTimeout time.Duration
}

func NewServer(addr string, handler http.Handler, shutdownTimeout time.Duration) *Server {
	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			IdleTimeout:       60 * time.Second,
			// no WriteTimeout: a request may wait on the provider for as long as fal.timeout allows
		},
		shutdownTimeout: shutdownTimeout,
	}
}

// Listen binds the listen address. Start calls it when it has not been called yet.
func (s *Server) Listen() error {
	if s.listener != nil {
		return nil
	}

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}

	s.listener = ln
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}

	return s.listener.Addr()
}

// Start serves until Stop is called. A clean stop returns nil.
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}

	log.Info().Str("addr", s.listener.Addr().String()).Msg("server listening")

	err := s.server.Serve(s.listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

// Stop stops accepting connections and waits for in-flight requests until ctx is done.
func (s *Server) Stop(ctx context.Context) error {
	log.Info().Msg("server shutting down")
	return s.server.Shutdown(ctx)
}

// Run starts the server and stops it gracefully once ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(s.Start)

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
		defer cancel()

		err := s.Stop(shutdownCtx)
		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn().Dur("shutdownTimeout", s.shutdownTimeout).Msg("in-flight requests outlived the shutdown timeout")
			return nil
		}

		return err
	})

	return g.Wait()
}

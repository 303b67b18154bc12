package observer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Server exposes the feed over HTTP:
//
//	GET /snapshot  latest snapshot as JSON
//	GET /ws        websocket stream (see Hub)
//	GET /metrics   optional metrics handler
//	GET /healthz
type Server struct {
	port    uint16
	feed    *Feed
	hub     *Hub
	metrics http.Handler
}

type ServerOpt func(*Server)

func WithMetricsHandler(h http.Handler) ServerOpt {
	return func(s *Server) {
		s.metrics = h
	}
}

func NewServer(port uint16, feed *Feed, hub *Hub, opts ...ServerOpt) *Server {
	s := &Server{port: port, feed: feed, hub: hub}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /snapshot", s.serveSnapshot)
	mux.Handle("GET /ws", s.hub)
	mux.HandleFunc("GET /healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusNoContent)
	})
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	return mux
}

func (s *Server) serveSnapshot(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(rw).Encode(s.feed.GetUpdate()); err != nil {
		slog.WarnContext(r.Context(), "writing snapshot", "error", err)
	}
}

func (s *Server) Start(ctx context.Context) error {
	l, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("listening on port %d: %w", s.port, err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	slog.InfoContext(ctx, "observer listening", "addr", l.Addr().String())

	go func() {
		<-ctx.Done()
		s.hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.WarnContext(ctx, "shutting down observer", "error", err)
		}
	}()

	err = srv.Serve(l)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving observer: %w", err)
	}
	return nil
}

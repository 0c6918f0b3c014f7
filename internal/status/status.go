// Package status serves the HTTP side channel: shard status, the welcome
// message, and process metrics.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

// Counters exported for the services to bump.
var (
	ConnectionsAuth = metrics.NewCounter(`moulgo_connections_total{service="auth"}`)
	ConnectionsGame = metrics.NewCounter(`moulgo_connections_total{service="game"}`)
	ConnectionsFile = metrics.NewCounter(`moulgo_connections_total{service="file"}`)
	ConnectionsGate = metrics.NewCounter(`moulgo_connections_total{service="gate"}`)
	Logins          = metrics.NewCounter(`moulgo_logins_total`)
	Propagated      = metrics.NewCounter(`moulgo_messages_propagated_total`)
)

// Server is the status endpoint.
type Server struct {
	addr    string
	welcome string
	log     *slog.Logger
}

// New returns a status server for the configured address.
func New(addr, welcome string) *Server {
	return &Server{
		addr:    addr,
		welcome: welcome,
		log:     slog.With("service", "status"),
	}
}

// Run serves until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"online":  true,
			"welcome": s.welcome,
		})
	})
	mux.HandleFunc("/welcome", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, s.welcome)
	})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w, true)
	})

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("status endpoint running", "address", ln.Addr())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving status endpoint: %w", err)
	}
	return nil
}

package observability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Pinger reports backing-store readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RunStatus is the outcome of one discovery run as served on /status.
type RunStatus struct {
	RunID      string    `json:"run_id,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Scored     int       `json:"scored"`
	Created    int       `json:"created"`
	Archived   int       `json:"archived"`
	Rejected   int       `json:"rejected"`
	Failed     int       `json:"failed"`
	Error      string    `json:"error,omitempty"`
}

// RunTracker remembers the last finished run. The zero value is ready to use.
type RunTracker struct {
	mu   sync.RWMutex
	last RunStatus
	seen bool
}

// Record replaces the last run with st.
func (t *RunTracker) Record(st RunStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = st
	t.seen = true
}

// Last returns the most recent run, or false before the first one finishes.
func (t *RunTracker) Last() (RunStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.last, t.seen
}

// Server exposes liveness, readiness, the last run and Prometheus metrics.
type Server struct {
	store  Pinger
	runs   *RunTracker
	port   int
	logger *zerolog.Logger
}

// NewServer builds the server. runs may be nil, in which case /status
// always answers 404.
func NewServer(store Pinger, runs *RunTracker, port int, logger *zerolog.Logger) *Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	if runs == nil {
		runs = &RunTracker{}
	}

	return &Server{store: store, runs: runs, port: port, logger: logger}
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeText(w, http.StatusOK, "OK")
	})
	mux.HandleFunc("/readyz", s.ready)
	mux.HandleFunc("/status", s.status)
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

// ready fails while the store is unreachable or the last run aborted.
func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeText(w, http.StatusServiceUnavailable, "store: "+err.Error())
		return
	}

	if last, ok := s.runs.Last(); ok && last.Error != "" {
		writeText(w, http.StatusServiceUnavailable, "last run failed: "+last.Error)
		return
	}

	writeText(w, http.StatusOK, "OK")
}

func (s *Server) status(w http.ResponseWriter, _ *http.Request) {
	last, ok := s.runs.Last()
	if !ok {
		writeText(w, http.StatusNotFound, "no run finished yet")
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(last); err != nil {
		s.logger.Debug().Err(err).Msg("write status response")
	}
}

func writeText(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = fmt.Fprint(w, body)
}

// Start serves until ctx ends, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		//nolint:contextcheck // parent ctx is already done
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info().Int("port", s.port).Msg("Health server listening")

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("health server: %w", err)
	}

	return nil
}

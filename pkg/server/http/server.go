package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/cors"

	"github.com/racekit/race-telemetry-go/log"
	"github.com/racekit/race-telemetry-go/pkg/coach"
	"github.com/racekit/race-telemetry-go/pkg/telemetry"
)

const (
	DefaultStreamInterval  = time.Second
	defaultShutdownTimeout = 5 * time.Second
	readHeaderTimeout      = 5 * time.Second
)

// Server exposes the query facade over HTTP as JSON plus a server-sent
// events stream of live snapshots.
type Server struct {
	addr           string
	facade         *telemetry.Facade
	advisor        coach.Advisor
	streamInterval time.Duration
	srv            *http.Server
}

type Option func(s *Server)

func WithStreamInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.streamInterval = d
		}
	}
}

func WithAdvisor(advisor coach.Advisor) Option {
	return func(s *Server) { s.advisor = advisor }
}

func NewServer(addr string, facade *telemetry.Facade, opts ...Option) *Server {
	s := &Server{
		addr:           addr,
		facade:         facade,
		advisor:        coach.NewRuleAdvisor(),
		streamInterval: DefaultStreamInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler including the CORS wrapper.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/telemetry", s.handleTelemetry)
	mux.HandleFunc("GET /api/spots", s.handleSpots)
	mux.HandleFunc("GET /api/lap/{n}", s.handleLap)
	mux.HandleFunc("GET /api/session", s.handleSession)
	mux.HandleFunc("GET /api/advice", s.handleAdvice)
	mux.HandleFunc("GET /api/track", s.handleTrack)
	mux.HandleFunc("GET /api/stream", s.handleStream)
	return cors.AllowAll().Handler(mux)
}

// ListenAndServe blocks until the context is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http api listening", log.String("addr", s.addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleTelemetry(w http.ResponseWriter, _ *http.Request) {
	snap, err := s.facade.CurrentTelemetry()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"frame":      snap.Frame,
		"analytics":  snap.Analytics,
		"currentLap": snap.CurrentLap,
		"stale":      snap.Stale,
		"receivedAt": snap.ReceivedAt,
	})
}

func (s *Server) handleSpots(w http.ResponseWriter, r *http.Request) {
	radius, err := queryFloat(r, "radius")
	if err != nil {
		writeError(w, err)
		return
	}
	horizon, err := queryFloat(r, "horizon")
	if err != nil {
		writeError(w, err)
		return
	}
	spots, stale, err := s.facade.SpotNearby(radius, horizon)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"spots": spots, "stale": stale})
}

func (s *Server) handleLap(w http.ResponseWriter, r *http.Request) {
	lapNo := 0
	if raw := r.PathValue("n"); raw != "" && raw != "latest" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, fmt.Errorf("%w: lap %q", telemetry.ErrInvalidArgument, raw))
			return
		}
		lapNo = n
	}
	analysis, err := s.facade.AnalyzeLap(lapNo)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) handleSession(w http.ResponseWriter, _ *http.Request) {
	summary, stale, err := s.facade.SessionSummary()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": summary, "stale": stale})
}

func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	snap, err := s.facade.CurrentTelemetry()
	if err != nil {
		writeError(w, err)
		return
	}
	advice, err := s.advisor.Advise(r.Context(), coach.Situation{
		Frame:     snap.Frame,
		Spots:     snap.Spots,
		Context:   r.URL.Query().Get("context"),
		FocusArea: r.URL.Query().Get("focus"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		coach.Advice
		Style coach.StyleProfile `json:"style"`
	}{
		Advice: advice,
		Style:  coach.AnalyzeStyle(s.facade.RecentFrames()),
	})
}

func (s *Server) handleTrack(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.facade.TrackProfile())
}

// handleStream sends the current snapshot as one SSE event per interval.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(s.streamInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			snap, err := s.facade.CurrentTelemetry()
			if err != nil {
				continue
			}
			payload, err := json.Marshal(snap)
			if err != nil {
				log.Warn("marshaling stream snapshot", log.ErrorField(err))
				continue
			}
			fmt.Fprintf(w, "event: telemetry\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

func queryFloat(r *http.Request, key string) (float64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", telemetry.ErrInvalidArgument, key, raw)
	}
	return v, nil
}

// writeError maps domain errors to HTTP semantics. A feed that has not
// produced data yet is not a client or server fault, so it answers 200 with
// a waiting status the way a dashboard client expects.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, telemetry.ErrInsufficientData):
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "waiting",
			"message": err.Error(),
		})
	case errors.Is(err, telemetry.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warn("writing response", log.ErrorField(err))
	}
}

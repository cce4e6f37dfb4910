package web

// handlers_stream.go exposes the query streams as Server-Sent Events.
//
// Each connection subscribes to one stream and writes every value it receives
// as an "update" event. Delivery is latest-wins, so a slow client skips
// intermediate values but always ends on the current one.

import (
	"context"
	"fmt"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/JonMunkholm/olympics/internal/logging"
	"github.com/JonMunkholm/olympics/internal/stream"
)

// sseKeepAlive is how often an idle stream sends a comment line.
const sseKeepAlive = 25 * time.Second

// sseWriter writes events to a streaming response.
type sseWriter struct {
	w  http.ResponseWriter
	rc *http.ResponseController
	id uint64
}

// startSSE sets the event-stream headers and flushes them.
func startSSE(w http.ResponseWriter) (*sseWriter, error) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		return nil, fmt.Errorf("streaming not supported: %w", err)
	}
	return &sseWriter{w: w, rc: rc}, nil
}

// event writes one JSON-encoded event.
func (s *sseWriter) event(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", name, err)
	}
	s.id++
	if _, err := fmt.Fprintf(s.w, "id: %d\nevent: %s\ndata: %s\n\n", s.id, name, data); err != nil {
		return err
	}
	return s.rc.Flush()
}

// comment writes a keep-alive comment line.
func (s *sseWriter) comment() error {
	if _, err := fmt.Fprint(s.w, ": keep-alive\n\n"); err != nil {
		return err
	}
	return s.rc.Flush()
}

// serveSSE streams every value of src as an "update" event until the client
// goes away.
func serveSSE[T any](s *Server, w http.ResponseWriter, r *http.Request, name string, src stream.Stream[T]) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	logger := logging.WithFields(ctx, "stream", name)

	sse, err := startSSE(w)
	if err != nil {
		logger.Error("sse unavailable", "error", err)
		return
	}

	s.metrics.StreamOpened("sse")
	defer s.metrics.StreamClosed("sse")
	logger.Debug("stream subscriber connected")

	values := src.Subscribe(ctx)
	ticker := time.NewTicker(sseKeepAlive)
	defer ticker.Stop()

	for {
		select {
		case v, ok := <-values:
			if !ok {
				return
			}
			if err := sse.event("update", v); err != nil {
				logger.Debug("stream subscriber gone", "error", err, "events", sse.id)
				return
			}
		case <-ticker.C:
			if err := sse.comment(); err != nil {
				return
			}
		case <-ctx.Done():
			logger.Debug("stream subscriber disconnected", "events", sse.id)
			return
		}
	}
}

func (s *Server) handleStreamState(w http.ResponseWriter, r *http.Request) {
	serveSSE(s, w, r, "state", stream.Map(s.store.State(), newStateResponse))
}

func (s *Server) handleStreamGames(w http.ResponseWriter, r *http.Request) {
	serveSSE(s, w, r, "games", stream.Map(s.queries.UniqueGamesCount(), func(n *int) CountResponse {
		return CountResponse{Count: n}
	}))
}

func (s *Server) handleStreamMedals(w http.ResponseWriter, r *http.Request) {
	serveSSE(s, w, r, "medals", s.queries.MedalShareByCountry())
}

// handleStreamCountry streams the country's detail bundle together with the
// store's loading and error flags.
func (s *Server) handleStreamCountry(w http.ResponseWriter, r *http.Request) {
	name, ok := countryParam(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "BAD_COUNTRY", "invalid country name")
		return
	}
	serveSSE(s, w, r, "country", s.queries.CountryStatus(name))
}

// handleNotifications streams failure notifications as they are sent.
// Unlike the query streams it replays nothing on connect.
func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	logger := logging.WithFields(ctx, "stream", "notifications")

	// Subscribe before the headers go out so a client that has seen the
	// response cannot miss a notification sent right after.
	notifications := s.hub.Subscribe(ctx)

	sse, err := startSSE(w)
	if err != nil {
		logger.Error("sse unavailable", "error", err)
		return
	}

	s.metrics.StreamOpened("sse")
	defer s.metrics.StreamClosed("sse")
	ticker := time.NewTicker(sseKeepAlive)
	defer ticker.Stop()

	for {
		select {
		case n, ok := <-notifications:
			if !ok {
				return
			}
			if err := sse.event("notification", n); err != nil {
				return
			}
		case <-ticker.C:
			if err := sse.comment(); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

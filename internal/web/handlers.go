package web

// handlers.go serves the JSON API. Every read handler takes the current value
// of one query stream, so a response always reflects exactly one published
// snapshot.

import (
	"context"
	"net/http"
	"net/url"
	"unicode/utf8"

	"github.com/JonMunkholm/olympics/internal/core"
	"github.com/JonMunkholm/olympics/internal/logging"
	"github.com/JonMunkholm/olympics/internal/stream"
	"github.com/go-chi/chi/v5"
)

// maxCountryNameLength bounds the {name} path parameter.
const maxCountryNameLength = 128

// StateResponse summarises the store without the full dataset.
type StateResponse struct {
	Loading   bool   `json:"loading"`
	LastError string `json:"lastError,omitempty"`
	Loaded    bool   `json:"loaded"`
	Countries int    `json:"countries"`
	Version   uint64 `json:"version"`
}

func newStateResponse(st core.State) StateResponse {
	return StateResponse{
		Loading:   st.Loading,
		LastError: st.LastError,
		Loaded:    st.Snapshot != nil,
		Countries: len(st.Snapshot),
		Version:   st.Version,
	}
}

// CountResponse carries an optional count. Count is null when unknown.
type CountResponse struct {
	Country string `json:"country,omitempty"`
	Count   *int   `json:"count"`
}

// countryParam returns the {name} parameter exactly as the client sent it.
// chi matches on the escaped path only when the request has a RawPath, so the
// parameter is unescaped in that case alone. Names are never trimmed: lookups
// are exact.
func countryParam(r *http.Request) (string, bool) {
	name := chi.URLParam(r, "name")
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(name)
		if err != nil {
			return "", false
		}
		name = unescaped
	}
	if name == "" || len(name) > maxCountryNameLength || !utf8.ValidString(name) {
		return "", false
	}
	return name, true
}

// current returns the current value of s for the request.
func current[T any](w http.ResponseWriter, r *http.Request, s stream.Stream[T]) (T, bool) {
	v, err := stream.First(r.Context(), s)
	if err != nil {
		respondError(w, r, err, http.StatusServiceUnavailable)
		return v, false
	}
	return v, true
}

// handleLoad starts a dataset load and returns immediately.
// The outcome is observable through /api/state and the notification stream.
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())
	logger := logging.FromContext(ctx)

	s.loads.Add(1)
	go func() {
		defer s.loads.Done()
		if err := s.store.Load(ctx); err != nil {
			logger.Warn("requested reload failed", "error", err)
		}
	}()

	writeJSON(w, r, http.StatusAccepted, map[string]string{"status": "loading"})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	st, ok := current(w, r, s.store.State())
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, newStateResponse(st))
}

// handleOlympics returns the raw dataset, or null when none is loaded.
func (s *Server) handleOlympics(w http.ResponseWriter, r *http.Request) {
	snap, ok := current(w, r, s.queries.Countries())
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, snap)
}

func (s *Server) handleGamesCount(w http.ResponseWriter, r *http.Request) {
	n, ok := current(w, r, s.queries.UniqueGamesCount())
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, CountResponse{Count: n})
}

func (s *Server) handleMedalShare(w http.ResponseWriter, r *http.Request) {
	share, ok := current(w, r, s.queries.MedalShareByCountry())
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, share)
}

func (s *Server) handleCountryEntries(w http.ResponseWriter, r *http.Request) {
	name, ok := countryParam(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "BAD_COUNTRY", "invalid country name")
		return
	}
	n, ok := current(w, r, s.queries.EntriesCount(name))
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, CountResponse{Country: name, Count: n})
}

func (s *Server) handleCountryMedals(w http.ResponseWriter, r *http.Request) {
	name, ok := countryParam(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "BAD_COUNTRY", "invalid country name")
		return
	}
	n, ok := current(w, r, s.queries.MedalsCount(name))
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, CountResponse{Country: name, Count: &n})
}

func (s *Server) handleCountryAthletes(w http.ResponseWriter, r *http.Request) {
	name, ok := countryParam(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "BAD_COUNTRY", "invalid country name")
		return
	}
	n, ok := current(w, r, s.queries.AthletesCount(name))
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, CountResponse{Country: name, Count: n})
}

func (s *Server) handleCountrySeries(w http.ResponseWriter, r *http.Request) {
	name, ok := countryParam(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "BAD_COUNTRY", "invalid country name")
		return
	}
	series, ok := current(w, r, s.queries.TimeSeries(name))
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, series)
}

func (s *Server) handleCountryDetail(w http.ResponseWriter, r *http.Request) {
	name, ok := countryParam(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "BAD_COUNTRY", "invalid country name")
		return
	}
	detail, ok := current(w, r, s.queries.CountryDetail(name))
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, detail)
}

package core

// store.go owns the single authoritative dataset.
//
// All state lives in one stream.Value[State]. Load is the only writer; every
// reader subscribes to a stream derived from that value. Because snapshot,
// loading flag and last error are published together, no subscriber can see
// a new snapshot while the load that produced it still reports loading.
//
// Concurrent Load calls are not de-duplicated: each issues its own fetch and
// whichever settles last wins.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/olympics/internal/stream"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// LoadFailedMessage is the default message used when classifying load failures.
const LoadFailedMessage = "Failed to load Olympic data"

// Default notification settings, matching the dashboard's snackbar.
const (
	DefaultAutoDismiss = 5 * time.Second
	DefaultPlacement   = PlacementTopRight
)

// Recorder receives load and query telemetry. The metrics package provides
// the Prometheus implementation.
type Recorder interface {
	LoadStarted(source string)
	LoadCompleted(source string, d time.Duration, countries int)
	LoadFailed(source, kind string, d time.Duration)
	QueryFallback(query string)
}

type nopRecorder struct{}

func (nopRecorder) LoadStarted(string)                       {}
func (nopRecorder) LoadCompleted(string, time.Duration, int) {}
func (nopRecorder) LoadFailed(string, string, time.Duration) {}
func (nopRecorder) QueryFallback(string)                     {}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithRecorder sets the telemetry recorder.
func WithRecorder(r Recorder) StoreOption {
	return func(s *Store) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithNotificationStyle sets how failure notifications are displayed.
func WithNotificationStyle(autoDismiss time.Duration, placement Placement) StoreOption {
	return func(s *Store) {
		s.autoDismiss = autoDismiss
		s.placement = placement
	}
}

// Store holds the dataset snapshot together with its loading and error flags.
type Store struct {
	source   Source
	notifier Notifier
	recorder Recorder
	tracer   trace.Tracer

	autoDismiss time.Duration
	placement   Placement

	state     *stream.Value[State]
	snapshot  stream.Stream[Snapshot]
	loading   stream.Stream[bool]
	lastError stream.Stream[string]
}

// NewStore creates a store with no data, not loading and no error.
// notifier may be nil, in which case failures are only logged.
func NewStore(source Source, notifier Notifier, opts ...StoreOption) *Store {
	if source == nil {
		panic("core.NewStore requires a non-nil Source")
	}
	if notifier == nil {
		notifier = LogNotifier{}
	}

	s := &Store{
		source:      source,
		notifier:    notifier,
		recorder:    nopRecorder{},
		tracer:      otel.Tracer("github.com/JonMunkholm/olympics/internal/core"),
		autoDismiss: DefaultAutoDismiss,
		placement:   DefaultPlacement,
		state:       stream.NewValue(State{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	published := stream.Distinct[State](s.state, func(a, b State) bool { return a.Version == b.Version })
	s.snapshot = stream.Map(published, func(st State) Snapshot { return st.Snapshot })
	s.loading = stream.Distinct(
		stream.Map[State, bool](s.state, func(st State) bool { return st.Loading }),
		func(a, b bool) bool { return a == b },
	)
	s.lastError = stream.Distinct(
		stream.Map[State, string](s.state, func(st State) string { return st.LastError }),
		func(a, b string) bool { return a == b },
	)
	return s
}

// State returns the whole store state as a current-value stream.
func (s *Store) State() stream.Stream[State] { return s.state }

// Snapshot returns the dataset as a current-value stream. It emits once per
// publication, including publications of an absent (nil) snapshot.
func (s *Store) Snapshot() stream.Stream[Snapshot] { return s.snapshot }

// Loading returns the loading flag as a current-value stream.
func (s *Store) Loading() stream.Stream[bool] { return s.loading }

// LastError returns the last load error message ("" when none) as a
// current-value stream.
func (s *Store) LastError() stream.Stream[string] { return s.lastError }

// Load fetches the dataset once and publishes the outcome.
//
// The fetch is detached from ctx cancellation: once issued it runs to
// completion or failure. On failure the snapshot becomes absent, the
// classified message is published as the last error and one notification is
// sent. The returned error is the *Classification, for logging only.
func (s *Store) Load(ctx context.Context) error {
	loadID := uuid.NewString()
	ctx = ContextWithLoadID(context.WithoutCancel(ctx), loadID)

	ctx, span := s.tracer.Start(ctx, "dataset.load", trace.WithAttributes(
		attribute.String("dataset.source", s.source.Name()),
		attribute.String("dataset.load_id", loadID),
	))
	defer span.End()

	logger := slog.Default().With("load_id", loadID, "source", s.source.Name())
	logger.InfoContext(ctx, "dataset load started")

	s.state.Update(func(st State) State {
		st.Loading = true
		st.LastError = ""
		return st
	})
	s.recorder.LoadStarted(s.source.Name())
	start := time.Now()

	snap, failure := s.fetch(ctx)
	elapsed := time.Since(start)

	if failure != nil {
		c := Classify(failure, LoadFailedMessage)

		s.state.Update(func(st State) State {
			return State{
				Snapshot:  nil,
				Loading:   false,
				LastError: c.Message,
				Version:   st.Version + 1,
			}
		})
		s.notifier.Notify(ctx, NewNotification(c.Message, c.Code, s.autoDismiss, s.placement))
		s.recorder.LoadFailed(s.source.Name(), string(c.Kind), elapsed)

		span.SetStatus(codes.Error, c.Message)
		if c.Cause != nil {
			span.RecordError(c.Cause)
		}
		logger.ErrorContext(ctx, "dataset load failed",
			"error", fmt.Sprint(failure),
			"kind", c.Kind,
			"code", c.Code,
			"user_error", FormatUserError(c),
			"duration_ms", elapsed.Milliseconds(),
		)
		return c
	}

	s.state.Update(func(st State) State {
		return State{
			Snapshot: snap,
			Loading:  false,
			Version:  st.Version + 1,
		}
	})
	s.recorder.LoadCompleted(s.source.Name(), elapsed, len(snap))

	span.SetAttributes(attribute.Int("dataset.countries", len(snap)))
	logger.InfoContext(ctx, "dataset load completed",
		"countries", len(snap),
		"duration_ms", elapsed.Milliseconds(),
	)
	return nil
}

// fetch retrieves and decodes the payload. A panic inside the source is
// returned as the failure so that it is classified like any other.
func (s *Store) fetch(ctx context.Context) (snap Snapshot, failure any) {
	defer func() {
		if r := recover(); r != nil {
			snap, failure = nil, r
		}
	}()

	payload, err := s.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	snap, err = DecodeDataset(payload)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

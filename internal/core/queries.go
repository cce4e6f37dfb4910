package core

// queries.go exposes the aggregations as live streams over the store.
//
// Every query is built the same way: the store's snapshot stream mapped
// through guard, which runs the aggregation and turns any error or panic
// into that query's fallback value. A failing query therefore never affects
// another query or the raw snapshot stream.

import (
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/olympics/internal/stream"
)

// Queries is the read-side façade over a Store.
type Queries struct {
	store    *Store
	recorder Recorder
}

// NewQueries creates the query façade for store.
func NewQueries(store *Store) *Queries {
	return &Queries{store: store, recorder: store.recorder}
}

// guard derives a stream from the snapshot through fn, degrading to fallback
// whenever fn fails.
func guard[T any](q *Queries, name string, fallback T, fn func(Snapshot) (T, error)) stream.Stream[T] {
	return guardStream(q, name, q.store.Snapshot(), func(Snapshot) T { return fallback }, fn)
}

// guardStream maps src through fn. When fn returns an error or panics, the
// value is replaced by fallback computed from the same input.
func guardStream[S, T any](q *Queries, name string, src stream.Stream[S], fallback func(S) T, fn func(S) (T, error)) stream.Stream[T] {
	return stream.Map(src, func(in S) (out T) {
		defer func() {
			if r := recover(); r != nil {
				q.fallback(name, r)
				out = fallback(in)
			}
		}()

		v, err := fn(in)
		if err != nil {
			q.fallback(name, err)
			return fallback(in)
		}
		return v
	})
}

func (q *Queries) fallback(name string, failure any) {
	c := Classify(failure, fmt.Sprintf("Failed to compute %s", name))
	q.recorder.QueryFallback(name)
	slog.Warn("query degraded to fallback",
		"query", name,
		"kind", c.Kind,
		"code", c.Code,
		"message", c.Message,
	)
}

// Countries streams the raw snapshot (nil when absent).
func (q *Queries) Countries() stream.Stream[Snapshot] {
	return guard(q, "countries", Snapshot(nil), func(s Snapshot) (Snapshot, error) {
		return s, nil
	})
}

// UniqueGamesCount streams the number of distinct Games years.
// Emits nil while no snapshot is loaded.
func (q *Queries) UniqueGamesCount() stream.Stream[*int] {
	return guard(q, "uniqueGamesCount", (*int)(nil), func(s Snapshot) (*int, error) {
		return UniqueGamesCount(s), nil
	})
}

// MedalShareByCountry streams each country's medal total.
func (q *Queries) MedalShareByCountry() stream.Stream[[]CountryMedals] {
	return guard(q, "medalShareByCountry", []CountryMedals{}, func(s Snapshot) ([]CountryMedals, error) {
		return MedalShareByCountry(s), nil
	})
}

// EntriesCount streams the named country's participation count.
// Emits nil when the country is unknown.
func (q *Queries) EntriesCount(country string) stream.Stream[*int] {
	return guard(q, "entriesCount", (*int)(nil), func(s Snapshot) (*int, error) {
		return EntriesCount(s, country), nil
	})
}

// MedalsCount streams the named country's medal total.
// Emits 0 when the country is unknown.
func (q *Queries) MedalsCount(country string) stream.Stream[int] {
	return guard(q, "medalsCount", 0, func(s Snapshot) (int, error) {
		return MedalsCount(s, country), nil
	})
}

// AthletesCount streams the named country's athlete total.
// Emits nil when the country is unknown or the total is invalid.
func (q *Queries) AthletesCount(country string) stream.Stream[*int] {
	return guard(q, "athletesCount", (*int)(nil), func(s Snapshot) (*int, error) {
		return AthletesCount(s, country)
	})
}

// TimeSeries streams the named country's medals per Games.
func (q *Queries) TimeSeries(country string) stream.Stream[[]Series] {
	return guard(q, "timeSeries", []Series{}, func(s Snapshot) ([]Series, error) {
		return TimeSeries(s, country), nil
	})
}

// CountryDetail streams the detail-view bundle for the named country.
func (q *Queries) CountryDetail(country string) stream.Stream[CountryDetail] {
	fallback := CountryDetail{Name: country, TimeSeries: []Series{}}
	return guard(q, "countryDetail", fallback, func(s Snapshot) (CountryDetail, error) {
		return Detail(s, country), nil
	})
}

// CountryStatus streams the detail-view bundle together with the store's
// loading and error flags. It follows every state change, loads included.
func (q *Queries) CountryStatus(country string) stream.Stream[CountryStatus] {
	return guardStream(q, "countryStatus", q.store.State(),
		func(st State) CountryStatus {
			return CountryStatus{
				CountryDetail: CountryDetail{Name: country, TimeSeries: []Series{}},
				Loading:       st.Loading,
				LastError:     st.LastError,
			}
		},
		func(st State) (CountryStatus, error) {
			return CountryStatus{
				CountryDetail: Detail(st.Snapshot, country),
				Loading:       st.Loading,
				LastError:     st.LastError,
			}, nil
		})
}

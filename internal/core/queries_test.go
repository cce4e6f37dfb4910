package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadedQueries(t *testing.T, payload string) (*Queries, *fakeRecorder) {
	t.Helper()
	rec := &fakeRecorder{}
	s := NewStore(payloadSource(payload), &countingNotifier{}, WithRecorder(rec))
	require.NoError(t, s.Load(context.Background()))
	return NewQueries(s), rec
}

func TestQueries_France(t *testing.T) {
	q, rec := loadedQueries(t, franceJSON)

	games := current(t, q.UniqueGamesCount())
	require.NotNil(t, games)
	assert.Equal(t, 2, *games)

	assert.Equal(t, []CountryMedals{{Name: "France", Value: 24}}, current(t, q.MedalShareByCountry()))

	entries := current(t, q.EntriesCount("France"))
	require.NotNil(t, entries)
	assert.Equal(t, 2, *entries)

	assert.Equal(t, 24, current(t, q.MedalsCount("France")))

	athletes := current(t, q.AthletesCount("France"))
	require.NotNil(t, athletes)
	assert.Equal(t, 220, *athletes)

	series := current(t, q.TimeSeries("France"))
	require.Len(t, series, 1)
	assert.Equal(t, []Point{{Year: ValidYear(1992), Value: 10}, {Year: ValidYear(1996), Value: 14}}, series[0].Series)

	detail := current(t, q.CountryDetail("France"))
	assert.Equal(t, 24, detail.Medals)

	assert.Len(t, current(t, q.Countries()), 1)
	assert.Zero(t, rec.fallbackCount())
}

func TestQueries_UnknownCountry(t *testing.T) {
	q, _ := loadedQueries(t, franceJSON)

	assert.Nil(t, current(t, q.EntriesCount("Atlantis")))
	assert.Equal(t, 0, current(t, q.MedalsCount("Atlantis")))
	assert.Nil(t, current(t, q.AthletesCount("Atlantis")))
	assert.Equal(t, []Series{}, current(t, q.TimeSeries("Atlantis")))
}

func TestQueries_BeforeLoad(t *testing.T) {
	q := NewQueries(NewStore(payloadSource(franceJSON), nil))

	assert.Nil(t, current(t, q.UniqueGamesCount()))
	assert.Equal(t, []CountryMedals{}, current(t, q.MedalShareByCountry()))
	assert.Nil(t, current(t, q.Countries()))
}

func TestQueries_FallbackIsolated(t *testing.T) {
	q, rec := loadedQueries(t, `[{"country":"Broken","participations":[
		{"year":2000,"medalsCount":3,"athleteCount":5},
		{"year":2004,"medalsCount":4,"athleteCount":-10}]}]`)

	assert.Nil(t, current(t, q.AthletesCount("Broken")))
	assert.Equal(t, 1, rec.fallbackCount())

	assert.Equal(t, 7, current(t, q.MedalsCount("Broken")))
	entries := current(t, q.EntriesCount("Broken"))
	require.NotNil(t, entries)
	assert.Equal(t, 2, *entries)
	assert.Len(t, current(t, q.Countries()), 1)
}

func TestQueries_GuardRecoversPanics(t *testing.T) {
	q, rec := loadedQueries(t, franceJSON)

	broken := guard(q, "broken", -1, func(Snapshot) (int, error) { panic("index out of range") })
	assert.Equal(t, -1, current(t, broken))

	failing := guard(q, "failing", "fallback", func(Snapshot) (string, error) { return "", errors.New("nope") })
	assert.Equal(t, "fallback", current(t, failing))

	assert.Equal(t, 2, rec.fallbackCount())
	assert.Equal(t, 24, current(t, q.MedalsCount("France")))
}

func TestQueries_FollowReloads(t *testing.T) {
	var payload = franceJSON
	s := NewStore(stubSource{fetch: func(context.Context) ([]byte, error) { return []byte(payload), nil }}, nil)
	q := NewQueries(s)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	medals := q.MedalsCount("France").Subscribe(ctx)
	assert.Equal(t, 0, next(t, medals))

	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, 24, next(t, medals))

	payload = `[{"country":"France","participations":[{"year":2000,"medalsCount":38,"athleteCount":1}]}]`
	require.NoError(t, s.Load(context.Background()))

	select {
	case v := <-medals:
		assert.Equal(t, 38, v)
	case <-time.After(time.Second):
		t.Fatal("query did not follow reload")
	}
}

func TestQueries_CountryStatus(t *testing.T) {
	q, _ := loadedQueries(t, franceJSON)

	got := current(t, q.CountryStatus("France"))
	assert.Equal(t, Detail(mustDecode(t, franceJSON), "France"), got.CountryDetail)
	assert.False(t, got.Loading)
	assert.Empty(t, got.LastError)

	unknown := current(t, q.CountryStatus("Atlantis"))
	assert.Nil(t, unknown.Entries)
	assert.Equal(t, "Atlantis", unknown.Name)
}

func TestQueries_GuardStreamKeepsStateFlags(t *testing.T) {
	s := NewStore(failingSource(&HTTPError{StatusCode: 404}), &countingNotifier{})
	require.Error(t, s.Load(context.Background()))
	q := NewQueries(s)

	fallback := func(st State) CountryStatus {
		return CountryStatus{CountryDetail: CountryDetail{Name: "x"}, LastError: st.LastError}
	}
	broken := guardStream(q, "broken", s.State(), fallback, func(State) (CountryStatus, error) {
		panic("nil map")
	})

	got := current(t, broken)
	assert.Equal(t, "x", got.Name)
	assert.Equal(t, "The requested data could not be found", got.LastError)
}

func mustDecode(t *testing.T, payload string) Snapshot {
	t.Helper()
	snap, err := DecodeDataset([]byte(payload))
	require.NoError(t, err)
	return snap
}

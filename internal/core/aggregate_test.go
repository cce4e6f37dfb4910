package core

import (
	"reflect"
	"testing"
)

// franceSnapshot is the single-country dataset used across the query tests.
func franceSnapshot() Snapshot {
	return Snapshot{
		{
			ID:   1,
			Name: "France",
			Participations: []Participation{
				{ID: 1, Year: ValidYear(1992), City: "Barcelona", MedalsCount: 10, AthleteCount: 100},
				{ID: 2, Year: ValidYear(1996), City: "Atlanta", MedalsCount: 14, AthleteCount: 120},
			},
		},
	}
}

func intPtr(n int) *int { return &n }

func TestAggregations_France(t *testing.T) {
	snap := franceSnapshot()

	share := MedalShareByCountry(snap)
	wantShare := []CountryMedals{{Name: "France", Value: 24}}
	if !reflect.DeepEqual(share, wantShare) {
		t.Errorf("MedalShareByCountry() = %+v, want %+v", share, wantShare)
	}

	if got := EntriesCount(snap, "France"); got == nil || *got != 2 {
		t.Errorf("EntriesCount(France) = %v, want 2", got)
	}

	athletes, err := AthletesCount(snap, "France")
	if err != nil {
		t.Fatalf("AthletesCount(France) error = %v", err)
	}
	if athletes == nil || *athletes != 220 {
		t.Errorf("AthletesCount(France) = %v, want 220", athletes)
	}

	if got := MedalsCount(snap, "France"); got != 24 {
		t.Errorf("MedalsCount(France) = %d, want 24", got)
	}

	series := TimeSeries(snap, "France")
	wantSeries := []Series{{
		Name: "France",
		Series: []Point{
			{Year: ValidYear(1992), Value: 10},
			{Year: ValidYear(1996), Value: 14},
		},
	}}
	if !reflect.DeepEqual(series, wantSeries) {
		t.Errorf("TimeSeries(France) = %+v, want %+v", series, wantSeries)
	}

	if got := UniqueGamesCount(snap); got == nil || *got != 2 {
		t.Errorf("UniqueGamesCount() = %v, want 2", got)
	}
}

func TestAggregations_UnknownCountry(t *testing.T) {
	snap := franceSnapshot()

	if got := EntriesCount(snap, "Atlantis"); got != nil {
		t.Errorf("EntriesCount(Atlantis) = %d, want absent", *got)
	}
	if got := MedalsCount(snap, "Atlantis"); got != 0 {
		t.Errorf("MedalsCount(Atlantis) = %d, want 0", got)
	}
	athletes, err := AthletesCount(snap, "Atlantis")
	if err != nil || athletes != nil {
		t.Errorf("AthletesCount(Atlantis) = %v, %v, want absent, nil", athletes, err)
	}
	if got := TimeSeries(snap, "Atlantis"); got == nil || len(got) != 0 {
		t.Errorf("TimeSeries(Atlantis) = %v, want empty", got)
	}
}

func TestAggregations_AbsentSnapshot(t *testing.T) {
	if got := UniqueGamesCount(nil); got != nil {
		t.Errorf("UniqueGamesCount(nil) = %d, want absent", *got)
	}
	if got := MedalShareByCountry(nil); got == nil || len(got) != 0 {
		t.Errorf("MedalShareByCountry(nil) = %v, want empty", got)
	}
	if got := EntriesCount(nil, "France"); got != nil {
		t.Errorf("EntriesCount(nil) = %d, want absent", *got)
	}
	if got := MedalsCount(nil, "France"); got != 0 {
		t.Errorf("MedalsCount(nil) = %d, want 0", got)
	}
	if got := TimeSeries(nil, "France"); got == nil || len(got) != 0 {
		t.Errorf("TimeSeries(nil) = %v, want empty", got)
	}
}

func TestUniqueGamesCount_EmptySnapshotIsKnownZero(t *testing.T) {
	got := UniqueGamesCount(Snapshot{})
	if got == nil || *got != 0 {
		t.Errorf("UniqueGamesCount(empty) = %v, want 0", got)
	}
}

func TestUniqueGamesCount_FiltersInvalidYears(t *testing.T) {
	snap := Snapshot{
		{Name: "A", Participations: []Participation{
			{Year: ValidYear(1992)},
			{Year: Year{}},
			{Year: ValidYear(1992)},
		}},
		{Name: "B", Participations: []Participation{
			{Year: Year{}},
			{Year: ValidYear(1996)},
		}},
	}

	got := UniqueGamesCount(snap)
	if got == nil || *got != 2 {
		t.Errorf("UniqueGamesCount() = %v, want 2", got)
	}
}

func TestAthletesCount_NegativeTotal(t *testing.T) {
	snap := Snapshot{{Name: "Broken", Participations: []Participation{
		{AthleteCount: 5},
		{AthleteCount: -10},
	}}}

	got, err := AthletesCount(snap, "Broken")
	if err != ErrNegativeAthleteCount {
		t.Errorf("error = %v, want ErrNegativeAthleteCount", err)
	}
	if got != nil {
		t.Errorf("AthletesCount = %d, want absent", *got)
	}

	detail := Detail(snap, "Broken")
	if detail.Athletes != nil {
		t.Errorf("Detail.Athletes = %d, want absent", *detail.Athletes)
	}
	if detail.Entries == nil || *detail.Entries != 2 {
		t.Errorf("Detail.Entries = %v, want 2", detail.Entries)
	}
}

func TestFindCountry_FirstMatchWins(t *testing.T) {
	snap := Snapshot{
		{ID: 1, Name: "Italy"},
		{ID: 2, Name: "Italy"},
	}

	c, ok := FindCountry(snap, "Italy")
	if !ok || c.ID != 1 {
		t.Errorf("FindCountry(Italy) = %+v, %v, want id 1", c, ok)
	}

	if _, ok := FindCountry(snap, "italy"); ok {
		t.Error("lookups should be case-sensitive")
	}
}

func TestAggregations_ArePure(t *testing.T) {
	snap := franceSnapshot()
	before := franceSnapshot()

	for i := 0; i < 2; i++ {
		if !reflect.DeepEqual(MedalShareByCountry(snap), MedalShareByCountry(snap)) {
			t.Error("MedalShareByCountry not idempotent")
		}
		if !reflect.DeepEqual(TimeSeries(snap, "France"), TimeSeries(snap, "France")) {
			t.Error("TimeSeries not idempotent")
		}
		if *UniqueGamesCount(snap) != *UniqueGamesCount(snap) {
			t.Error("UniqueGamesCount not idempotent")
		}
		if !reflect.DeepEqual(Detail(snap, "France"), Detail(snap, "France")) {
			t.Error("Detail not idempotent")
		}
	}

	if !reflect.DeepEqual(snap, before) {
		t.Error("aggregations must not mutate the snapshot")
	}
}

func TestDetail(t *testing.T) {
	got := Detail(franceSnapshot(), "France")
	want := CountryDetail{
		Name:       "France",
		Entries:    intPtr(2),
		Medals:     24,
		Athletes:   intPtr(220),
		TimeSeries: TimeSeries(franceSnapshot(), "France"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Detail() = %+v, want %+v", got, want)
	}
}

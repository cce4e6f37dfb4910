package core

// aggregate.go holds the pure aggregation functions behind every query.
//
// None of these functions mutate the snapshot or keep state between calls, so
// calling one twice on the same snapshot always yields the same result. Absent
// results are nil pointers; "known zero" is a non-nil pointer to 0.

import "errors"

// ErrNegativeAthleteCount is returned when a country's athlete total is negative.
var ErrNegativeAthleteCount = errors.New("athlete count is negative")

// FindCountry returns the first country whose name equals name exactly.
func FindCountry(snap Snapshot, name string) (*Country, bool) {
	for i := range snap {
		if snap[i].Name == name {
			return &snap[i], true
		}
	}
	return nil, false
}

// UniqueGamesCount counts the distinct valid years across all participations.
// Returns nil when the snapshot is absent.
func UniqueGamesCount(snap Snapshot) *int {
	if snap == nil {
		return nil
	}

	years := make(map[int]struct{})
	for _, c := range snap {
		for _, p := range c.Participations {
			if p.Year.Valid {
				years[p.Year.Value] = struct{}{}
			}
		}
	}

	n := len(years)
	return &n
}

// MedalShareByCountry returns each country's total medals in dataset order.
// Returns an empty slice when the snapshot is absent.
func MedalShareByCountry(snap Snapshot) []CountryMedals {
	out := make([]CountryMedals, 0, len(snap))
	for _, c := range snap {
		out = append(out, CountryMedals{
			Name:  c.Name,
			Value: totalMedals(c.Participations),
		})
	}
	return out
}

// EntriesCount returns how many Games the named country took part in.
// Returns nil when the country is unknown or the snapshot is absent.
func EntriesCount(snap Snapshot, name string) *int {
	c, ok := FindCountry(snap, name)
	if !ok {
		return nil
	}
	n := len(c.Participations)
	return &n
}

// MedalsCount returns the named country's total medals.
// Unknown countries and absent snapshots count as 0.
func MedalsCount(snap Snapshot, name string) int {
	c, ok := FindCountry(snap, name)
	if !ok {
		return 0
	}
	return totalMedals(c.Participations)
}

// AthletesCount returns the named country's total athletes.
// Returns nil when the country is unknown, and ErrNegativeAthleteCount when
// the total is not a valid count.
func AthletesCount(snap Snapshot, name string) (*int, error) {
	c, ok := FindCountry(snap, name)
	if !ok {
		return nil, nil
	}

	total := 0
	for _, p := range c.Participations {
		total += p.AthleteCount
	}
	if total < 0 {
		return nil, ErrNegativeAthleteCount
	}
	return &total, nil
}

// TimeSeries returns the named country's medals per Games, in participation
// order. Returns an empty slice when the country is unknown.
func TimeSeries(snap Snapshot, name string) []Series {
	c, ok := FindCountry(snap, name)
	if !ok {
		return []Series{}
	}

	points := make([]Point, 0, len(c.Participations))
	for _, p := range c.Participations {
		points = append(points, Point{Year: p.Year, Value: p.MedalsCount})
	}
	return []Series{{Name: c.Name, Series: points}}
}

// Detail bundles the per-country aggregations for a detail view. An invalid
// athlete total leaves Athletes nil without affecting the other figures.
func Detail(snap Snapshot, name string) CountryDetail {
	athletes, _ := AthletesCount(snap, name)
	return CountryDetail{
		Name:       name,
		Entries:    EntriesCount(snap, name),
		Medals:     MedalsCount(snap, name),
		Athletes:   athletes,
		TimeSeries: TimeSeries(snap, name),
	}
}

func totalMedals(ps []Participation) int {
	total := 0
	for _, p := range ps {
		total += p.MedalsCount
	}
	return total
}

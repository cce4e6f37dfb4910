package core

import (
	"bytes"
	"math"
	"strconv"
)

// Country is one participating nation.
type Country struct {
	ID             int             `json:"id"`
	Name           string          `json:"country"`
	Participations []Participation `json:"participations"`
}

// Participation is one country's presence at one Games.
type Participation struct {
	ID           int    `json:"id"`
	Year         Year   `json:"year"`
	City         string `json:"city"`
	MedalsCount  int    `json:"medalsCount"`
	AthleteCount int    `json:"athleteCount"`
}

// Snapshot is the complete published dataset. A nil Snapshot means no data is
// loaded (or the last load failed); an empty non-nil Snapshot is a loaded,
// empty dataset.
type Snapshot []Country

// Year is a Games year as delivered by the source. Malformed input (null,
// strings, fractions) decodes to an invalid Year instead of failing the load.
type Year struct {
	Value int
	Valid bool
}

// ValidYear returns a valid Year.
func ValidYear(y int) Year {
	return Year{Value: y, Valid: true}
}

// maxYearMagnitude bounds years to values a float64 represents exactly.
const maxYearMagnitude = 1 << 53

// UnmarshalJSON accepts any JSON value. Integral numbers, including forms
// such as 1996.0 or 1.996e3, are valid years.
func (y *Year) UnmarshalJSON(data []byte) error {
	*y = Year{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] == 'n' || data[0] == '"' || data[0] == '{' || data[0] == '[' {
		return nil
	}

	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > maxYearMagnitude {
		// true/false and fractional numbers are tolerated as invalid years.
		return nil
	}
	*y = ValidYear(int(f))
	return nil
}

// MarshalJSON writes invalid years as null.
func (y Year) MarshalJSON() ([]byte, error) {
	if !y.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(y.Value)), nil
}

// CountryMedals is one slice of the medal-share chart.
type CountryMedals struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Point is one (year, medals) pair of a country's time series.
type Point struct {
	Year  Year `json:"name"`
	Value int  `json:"value"`
}

// Series is a named time series, shaped for line-chart consumers.
type Series struct {
	Name   string  `json:"name"`
	Series []Point `json:"series"`
}

// CountryDetail bundles the per-country figures shown on the detail view.
type CountryDetail struct {
	Name       string   `json:"name"`
	Entries    *int     `json:"entries"`
	Medals     int      `json:"medals"`
	Athletes   *int     `json:"athletes"`
	TimeSeries []Series `json:"timeSeries"`
}

// CountryStatus is a CountryDetail with the store flags a live view needs.
type CountryStatus struct {
	CountryDetail
	Loading   bool   `json:"loading"`
	LastError string `json:"lastError,omitempty"`
}

// State is the store's published state. The three fields always change
// together in one publication.
type State struct {
	Snapshot  Snapshot `json:"snapshot"`
	Loading   bool     `json:"loading"`
	LastError string   `json:"lastError,omitempty"`

	// Version increases on every snapshot publication, including publications
	// of an absent snapshot.
	Version uint64 `json:"version"`
}

package core

import "context"

// Source fetches the raw dataset payload (a JSON array of countries).
type Source interface {
	// Name identifies the source kind in logs and metrics.
	Name() string

	// Fetch returns the full payload. Implementations report a missing
	// dataset by wrapping ErrDatasetNotFound or returning an *HTTPError.
	Fetch(ctx context.Context) ([]byte, error)
}

// maxDatasetSize bounds how much of a payload is read (32MB).
const maxDatasetSize = 32 << 20

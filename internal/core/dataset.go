package core

// dataset.go decodes the dataset wire contract.
//
// The payload is validated against datasetSchema before decoding so structural
// problems (an object instead of an array, a country without a name) surface as
// one readable error. The schema deliberately leaves "year" untyped: malformed
// years are tolerated and filtered later by the aggregations.

import (
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidDataset wraps every decoding or schema failure.
var ErrInvalidDataset = errors.New("invalid dataset")

const datasetSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": ["array", "null"],
  "items": {
    "type": "object",
    "required": ["country", "participations"],
    "properties": {
      "id": {"type": "integer"},
      "country": {"type": "string"},
      "participations": {
        "type": "array",
        "items": {
          "type": "object",
          "properties": {
            "id": {"type": "integer"},
            "city": {"type": "string"},
            "medalsCount": {"type": "integer"},
            "athleteCount": {"type": "integer"}
          }
        }
      }
    }
  }
}`

var datasetSchemaLoader = gojsonschema.NewStringLoader(datasetSchema)

// DecodeDataset validates and decodes a dataset payload.
// A JSON null payload decodes to an absent (nil) snapshot.
func DecodeDataset(payload []byte) (Snapshot, error) {
	result, err := gojsonschema.Validate(datasetSchemaLoader, gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidDataset, strings.Join(msgs, "; "))
	}

	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}
	return snap, nil
}

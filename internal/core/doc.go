// Package core provides the domain logic of the Olympic participation
// dashboard, independent of any UI or transport layer.
//
// # Architecture
//
// The package is organized around a few concepts:
//
//   - Sources: where the dataset payload comes from ([HTTPSource],
//     [FileSource], [PostgresSource]).
//   - Store: the single authoritative copy of the dataset, published as
//     current-value streams of snapshot, loading flag and last error.
//   - Aggregations: pure functions over a [Snapshot] ([UniqueGamesCount],
//     [MedalShareByCountry], [EntriesCount], [MedalsCount], [AthletesCount],
//     [TimeSeries]).
//   - Queries: the aggregations as live streams, each with its own fallback.
//   - Classification: turning raw failures into user-facing messages
//     ([Classify]).
//
// # Loading
//
// A load proceeds as follows:
//
//  1. [Store.Load] publishes loading=true and clears the last error
//  2. The source fetches the payload; [DecodeDataset] validates and decodes it
//  3. On success the snapshot is published together with loading=false
//  4. On failure the snapshot becomes absent, the classified message is
//     published as the last error and one [Notification] is sent
//
// Snapshot, loading and last error live in one [State] value and change in a
// single publication, so a subscriber never sees fresh data while the load
// that produced it still reports loading.
//
// # Queries
//
// Every [Queries] method derives from the snapshot stream. A failing
// aggregation degrades only its own stream to a fallback value (absent, zero
// or empty) and never affects other queries:
//
//	q := core.NewQueries(store)
//	medals := q.MedalsCount("France").Subscribe(ctx)
//	for n := range medals {
//	    fmt.Println("France medals:", n)
//	}
//
// # Error Handling
//
// Load failures are returned as *[Classification], which carries a Kind, a
// user-facing message, an action and a support code. See error_messages.go
// for the code reference.
package core

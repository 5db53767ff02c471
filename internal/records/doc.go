// Package records decodes song-metadata and activity-log files into typed
// records.
//
// Both formats are newline-delimited JSON. Decoding is strict about structure
// (a line that is not a JSON object makes the whole file a ParseError) and
// lenient about representation: ids may arrive as strings or numbers, and
// JSON null leaves a field at its zero value. Field-level validation of play
// events happens in ValidatePlay so that non-play events, which are dropped
// anyway, never fail a file.
package records

// Package result defines the search hit value type.
package result

import "github.com/corpusgate/corpusgate/internal/domain/record"

// Result is a single search hit with its matched field/value pair resolved
// for display. MatchedField is empty when the hit came from a full-text match
// on a field outside the type's field list.
type Result struct {
	collection   string
	matchedField string
	matchedValue string
	rec          record.Record
}

// New creates a search result.
func New(collection, matchedField, matchedValue string, rec record.Record) Result {
	return Result{
		collection:   collection,
		matchedField: matchedField,
		matchedValue: matchedValue,
		rec:          rec,
	}
}

// Collection returns the source collection name.
func (r *Result) Collection() string { return r.collection }

// MatchedField returns the first field whose value equals the query.
func (r *Result) MatchedField() string { return r.matchedField }

// MatchedValue returns the matched field's value.
func (r *Result) MatchedValue() string { return r.matchedValue }

// Record returns the record payload with store-internal keys stripped.
func (r *Result) Record() record.Record { return r.rec }

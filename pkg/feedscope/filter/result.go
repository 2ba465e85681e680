package filter

import (
	"encoding/json"

	"github.com/cognicore/feedscope/pkg/feedscope/catalog"
)

// Record is a feed in a result, optionally carrying its quality score.
type Record struct {
	catalog.Feed
	QualityScore *int
}

// MarshalJSON emits the feed's flat column form, plus quality_score when set.
func (r Record) MarshalJSON() ([]byte, error) {
	fields := r.Feed.Fields()
	if r.QualityScore != nil {
		fields["quality_score"] = *r.QualityScore
	}
	return json.Marshal(fields)
}

// Result is the uniform envelope every filter operation returns.
type Result struct {
	Records        []Record       `json:"records"`
	AppliedFilters map[string]any `json:"applied_filters"`
	Count          int            `json:"count"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	Warnings       []string       `json:"warnings,omitempty"`
}

// IDs returns the feed ids of the result in order.
func (r Result) IDs() []string {
	ids := make([]string, len(r.Records))
	for i, rec := range r.Records {
		ids[i] = rec.ID
	}
	return ids
}

func newResult(feeds []catalog.Feed, applied map[string]any) Result {
	if applied == nil {
		applied = map[string]any{}
	}
	recs := make([]Record, len(feeds))
	for i, f := range feeds {
		recs[i] = Record{Feed: f}
	}
	return Result{
		Records:        recs,
		AppliedFilters: applied,
		Count:          len(recs),
	}
}

// Lookup is the outcome of a single-feed lookup. A miss is not an error:
// Found is false and Hints lists some ids that do exist.
type Lookup struct {
	Feed  *Record  `json:"feed,omitempty"`
	Found bool     `json:"found"`
	Error string   `json:"error,omitempty"`
	Hints []string `json:"available_feeds,omitempty"`
}

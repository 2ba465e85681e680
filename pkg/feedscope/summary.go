package feedscope

import (
	"fmt"
	"strings"

	"github.com/cognicore/feedscope/pkg/feedscope/intent"
	"github.com/cognicore/feedscope/pkg/feedscope/rank"
)

// SummaryLimit caps the feed ids listed by Summarize.
const SummaryLimit = 10

// Summarize phrases an outcome without a model.
func Summarize(out intent.Outcome) string {
	if out.Error != "" {
		return "I encountered an error: " + out.Error
	}
	res := out.Result
	if res == nil {
		return "No results."
	}

	var b strings.Builder
	switch out.Call.Kind {
	case intent.CallByTheater:
		fmt.Fprintf(&b, "Found %d camera feed%s in theater %s.", res.Count, plural(res.Count), out.Call.Args["theater"])
	case intent.CallByCodec:
		fmt.Fprintf(&b, "Found %d camera feed%s using codec %s.", res.Count, plural(res.Count), out.Call.Args["codec"])
	case intent.CallQualityRanking:
		fmt.Fprintf(&b, "Ranked %d camera feed%s by quality score (out of %d).", res.Count, plural(res.Count), rank.MaxScore)
	default:
		fmt.Fprintf(&b, "The catalog holds %d camera feed%s.", res.Count, plural(res.Count))
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(&b, " %s.", strings.TrimSuffix(w, "."))
	}
	if res.Count == 0 {
		return b.String()
	}

	n := len(res.Records)
	if n > SummaryLimit {
		n = SummaryLimit
	}
	items := make([]string, n)
	for i, r := range res.Records[:n] {
		if r.QualityScore != nil {
			items[i] = fmt.Sprintf("%s (%d)", r.ID, *r.QualityScore)
		} else {
			items[i] = r.ID
		}
	}
	b.WriteString(" ")
	b.WriteString(strings.Join(items, ", "))
	if more := len(res.Records) - n; more > 0 {
		fmt.Fprintf(&b, " and %d more", more)
	}
	b.WriteString(".")
	return b.String()
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

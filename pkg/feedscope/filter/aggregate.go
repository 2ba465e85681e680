package filter

import (
	"fmt"
	"sort"

	"github.com/cognicore/feedscope/pkg/feedscope/catalog"
	"github.com/cognicore/feedscope/pkg/feedscope/rank"
)

// QualityRanking scores every feed and sorts best first.
// Feeds with equal scores keep catalog order.
func (e *Engine) QualityRanking() Result {
	ranked := e.scorer.Rank(e.cat.Records())
	recs := make([]Record, len(ranked))
	for i, s := range ranked {
		score := s.Breakdown.Total
		recs[i] = Record{Feed: s.Feed, QualityScore: &score}
	}
	return Result{
		Records:        recs,
		AppliedFilters: map[string]any{},
		Count:          len(recs),
		Metadata: map[string]any{
			"resolution_weight": rank.QualityWeights.Resolution,
			"codec_weight":      rank.QualityWeights.Codec,
			"latency_weight":    rank.QualityWeights.Latency,
		},
	}
}

// Distribution counts feeds per category of one column.
type Distribution struct {
	Column     string         `json:"column"`
	Counts     map[string]int `json:"distribution"`
	Categories []string       `json:"categories"`
	Total      int            `json:"total_feeds"`
}

// TheaterDistribution counts feeds per theater.
func (e *Engine) TheaterDistribution() Distribution {
	return e.distribution(catalog.ColTheater, func(f catalog.Feed) string { return string(f.Theater) })
}

// CodecDistribution counts feeds per codec.
func (e *Engine) CodecDistribution() Distribution {
	return e.distribution(catalog.ColCodec, func(f catalog.Feed) string { return string(f.Codec) })
}

// distribution groups by key. Categories are ordered by count descending,
// then by first appearance. Only observed categories are reported.
func (e *Engine) distribution(column string, key func(catalog.Feed) string) Distribution {
	d := Distribution{Column: column, Counts: map[string]int{}}
	e.cat.Each(func(_ int, f catalog.Feed) bool {
		k := key(f)
		if _, seen := d.Counts[k]; !seen {
			d.Categories = append(d.Categories, k)
		}
		d.Counts[k]++
		d.Total++
		return true
	})
	sort.SliceStable(d.Categories, func(i, j int) bool {
		return d.Counts[d.Categories[i]] > d.Counts[d.Categories[j]]
	})
	if d.Categories == nil {
		d.Categories = []string{}
	}
	return d
}

// Bucket is a named standard resolution.
type Bucket struct {
	Label  string
	Width  int
	Height int
}

// Name is the display form, e.g. "4K (3840x2160)".
func (b Bucket) Name() string {
	return fmt.Sprintf("%s (%dx%d)", b.Label, b.Width, b.Height)
}

// StandardBuckets are the resolutions the bucket analysis reports.
var StandardBuckets = []Bucket{
	{Label: "4K", Width: 3840, Height: 2160},
	{Label: "1440p", Width: 2560, Height: 1440},
	{Label: "1080p", Width: 1920, Height: 1080},
	{Label: "720p", Width: 1280, Height: 720},
	{Label: "480p", Width: 640, Height: 480},
}

// BucketCount is the number of feeds exactly matching a bucket.
type BucketCount struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Count  int    `json:"count"`
}

// ResolutionBuckets is the resolution bucket analysis.
type ResolutionBuckets struct {
	Buckets           []BucketCount `json:"resolution_distribution"`
	Total             int           `json:"total_feeds"`
	UniqueResolutions int           `json:"unique_resolutions"`
}

// ResolutionDistribution classifies feeds into StandardBuckets by exact
// width and height. Feeds matching no bucket are left out of the counts.
// Every bucket is listed, including empty ones.
func (e *Engine) ResolutionDistribution() ResolutionBuckets {
	type dims struct{ w, h int }
	index := make(map[dims]int, len(StandardBuckets))
	out := ResolutionBuckets{Buckets: make([]BucketCount, len(StandardBuckets))}
	for i, b := range StandardBuckets {
		index[dims{b.Width, b.Height}] = i
		out.Buckets[i] = BucketCount{Name: b.Name(), Width: b.Width, Height: b.Height}
	}

	unique := make(map[dims]struct{})
	e.cat.Each(func(_ int, f catalog.Feed) bool {
		d := dims{f.Width, f.Height}
		unique[d] = struct{}{}
		if i, ok := index[d]; ok {
			out.Buckets[i].Count++
		}
		out.Total++
		return true
	})
	out.UniqueResolutions = len(unique)
	return out
}

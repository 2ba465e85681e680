package rank

import (
	"sort"

	"github.com/cognicore/feedscope/pkg/feedscope/catalog"
)

// Weights are the points each quality criterion contributes.
type Weights struct {
	Resolution int // high resolution (>= 1920x1080)
	Codec      int // modern codec
	Latency    int // latency at or under LowLatencyMS
}

// QualityWeights is the fixed quality policy. It is not configurable.
var QualityWeights = Weights{Resolution: 3, Codec: 2, Latency: 1}

// LowLatencyMS is the inclusive latency ceiling for the latency point.
const LowLatencyMS = 500

// MaxScore is the best achievable quality score.
const MaxScore = 6

// ModernCodecs earn the codec point.
var ModernCodecs = map[catalog.Codec]bool{
	catalog.CodecH265: true,
	catalog.CodecAV1:  true,
	catalog.CodecVP9:  true,
}

// Scorer computes quality scores for feeds
type Scorer struct {
	weights Weights
}

// NewScorer returns a scorer using QualityWeights.
func NewScorer() *Scorer {
	return &Scorer{weights: QualityWeights}
}

// ScoreBreakdown provides detailed scoring information
type ScoreBreakdown struct {
	Resolution int
	Codec      int
	Latency    int
	Total      int
}

// Score calculates a feed's quality score
//
// score = 3·high_res + 2·modern_codec + 1·low_latency
func (s *Scorer) Score(f catalog.Feed) int {
	return s.ScoreWithBreakdown(f).Total
}

// ScoreWithBreakdown calculates score with detailed breakdown.
// Every criterion contributes all of its weight or nothing.
func (s *Scorer) ScoreWithBreakdown(f catalog.Feed) ScoreBreakdown {
	var b ScoreBreakdown
	if f.HighResolution() {
		b.Resolution = s.weights.Resolution
	}
	if ModernCodecs[f.Codec] {
		b.Codec = s.weights.Codec
	}
	if f.LatencyMS <= LowLatencyMS {
		b.Latency = s.weights.Latency
	}
	b.Total = b.Resolution + b.Codec + b.Latency
	return b
}

// Scored pairs a feed with its breakdown.
type Scored struct {
	Feed      catalog.Feed
	Breakdown ScoreBreakdown
}

// Rank scores every feed and sorts descending by total.
// Equal scores keep their input order.
func (s *Scorer) Rank(feeds []catalog.Feed) []Scored {
	out := make([]Scored, len(feeds))
	for i, f := range feeds {
		out[i] = Scored{Feed: f, Breakdown: s.ScoreWithBreakdown(f)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Breakdown.Total > out[j].Breakdown.Total
	})
	return out
}

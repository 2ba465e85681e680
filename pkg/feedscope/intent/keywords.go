package intent

import (
	"strings"
)

// Vocabulary maps keywords found in free text to hint values.
// Entries are checked in order; the first matching entry of each kind wins.
type Vocabulary struct {
	Theaters     []Term
	Codecs       []Term
	Resolutions  []Term
	Quality      []Term
	Latency      []Term
	OtherFilters []FlagTerm
}

// Term maps any of Keywords to Value.
type Term struct {
	Value    string
	Keywords []string
}

// FlagTerm sets OtherFilters[Filter] = Value when a keyword appears.
type FlagTerm struct {
	Filter   string
	Value    any
	Keywords []string
}

// DefaultVocabulary is used when no vocabulary file is configured.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Theaters: []Term{
			{Value: "PAC", Keywords: []string{"pacific", "pac"}},
			{Value: "EUR", Keywords: []string{"europe", "eur"}},
			{Value: "ME", Keywords: []string{"middle east"}},
			{Value: "AFR", Keywords: []string{"africa"}},
			{Value: "ARC", Keywords: []string{"arctic"}},
			{Value: "CONUS", Keywords: []string{"conus", "continental us", "mainland"}},
		},
		Codecs: []Term{
			{Value: "H265", Keywords: []string{"h265", "h.265", "hevc"}},
			{Value: "H264", Keywords: []string{"h264", "h.264", "avc"}},
			{Value: "AV1", Keywords: []string{"av1"}},
			{Value: "VP9", Keywords: []string{"vp9"}},
			{Value: "MPEG2", Keywords: []string{"mpeg2", "mpeg-2"}},
		},
		Resolutions: []Term{
			{Value: "4K", Keywords: []string{"4k", "2160p", "uhd"}},
			{Value: "1440p", Keywords: []string{"1440p"}},
			{Value: "1080p", Keywords: []string{"1080p", "full hd"}},
			{Value: "720p", Keywords: []string{"720p"}},
		},
		Quality: []Term{
			{Value: "high", Keywords: []string{"best", "quality", "clarity"}},
		},
		Latency: []Term{
			{Value: "low", Keywords: []string{"low latency", "lowest latency", "real-time", "realtime"}},
		},
		OtherFilters: []FlagTerm{
			{Filter: "encrypted", Value: true, Keywords: []string{"encrypted"}},
			{Filter: "civilian_safe", Value: true, Keywords: []string{"civilian-safe", "civilian safe"}},
		},
	}
}

// KeywordParser builds intents by substring matching. It is the fallback
// when no language model is available or the model call fails.
type KeywordParser struct {
	vocab Vocabulary
}

// NewKeywordParser creates a parser. Keywords are matched lowercase.
func NewKeywordParser(vocab Vocabulary) *KeywordParser {
	return &KeywordParser{vocab: normalizeVocabulary(vocab)}
}

// Parse converts a question into a search intent.
func (p *KeywordParser) Parse(question string) Intent {
	text := strings.ToLower(question)

	in := Intent{
		Operation:  OpSearch,
		Theater:    firstMatch(text, p.vocab.Theaters),
		Codec:      firstMatch(text, p.vocab.Codecs),
		Resolution: firstMatch(text, p.vocab.Resolutions),
		Quality:    firstMatch(text, p.vocab.Quality),
		Latency:    firstMatch(text, p.vocab.Latency),
	}
	for _, ft := range p.vocab.OtherFilters {
		if containsAny(text, ft.Keywords) {
			if in.OtherFilters == nil {
				in.OtherFilters = make(map[string]any)
			}
			in.OtherFilters[ft.Filter] = ft.Value
		}
	}
	return in
}

func firstMatch(text string, terms []Term) string {
	for _, t := range terms {
		if containsAny(text, t.Keywords) {
			return t.Value
		}
	}
	return ""
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func normalizeVocabulary(v Vocabulary) Vocabulary {
	lower := func(terms []Term) []Term {
		out := make([]Term, len(terms))
		for i, t := range terms {
			out[i] = Term{Value: t.Value, Keywords: lowerAll(t.Keywords)}
		}
		return out
	}
	flags := make([]FlagTerm, len(v.OtherFilters))
	for i, ft := range v.OtherFilters {
		flags[i] = FlagTerm{Filter: ft.Filter, Value: ft.Value, Keywords: lowerAll(ft.Keywords)}
	}
	return Vocabulary{
		Theaters:     lower(v.Theaters),
		Codecs:       lower(v.Codecs),
		Resolutions:  lower(v.Resolutions),
		Quality:      lower(v.Quality),
		Latency:      lower(v.Latency),
		OtherFilters: flags,
	}
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(strings.TrimSpace(s))
	}
	return out
}

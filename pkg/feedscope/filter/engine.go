package filter

import (
	"fmt"

	"github.com/cognicore/feedscope/pkg/feedscope/catalog"
	"github.com/cognicore/feedscope/pkg/feedscope/internalerr"
	"github.com/cognicore/feedscope/pkg/feedscope/rank"
)

// MaxLookupHints caps the ids returned when a lookup misses.
const MaxLookupHints = 10

// Engine runs read-only filter operations over a catalog.
type Engine struct {
	cat    *catalog.Catalog
	scorer *rank.Scorer
}

// New creates an engine over cat.
func New(cat *catalog.Catalog) *Engine {
	return &Engine{cat: cat, scorer: rank.NewScorer()}
}

// Catalog returns the underlying catalog.
func (e *Engine) Catalog() *catalog.Catalog { return e.cat }

// where collects feeds matching pred in catalog order.
func (e *Engine) where(pred func(catalog.Feed) bool) []catalog.Feed {
	var out []catalog.Feed
	e.cat.Each(func(_ int, f catalog.Feed) bool {
		if pred(f) {
			out = append(out, f)
		}
		return true
	})
	return out
}

// All lists the whole catalog.
func (e *Engine) All() Result {
	return newResult(e.cat.Records(), nil)
}

// ByTheater returns feeds in the given theater. Input is case-insensitive.
// An unknown code yields an empty result with a warning.
func (e *Engine) ByTheater(theater string) Result {
	t, ok := catalog.ParseTheater(theater)
	applied := map[string]any{"theater": string(t)}
	if !ok {
		res := newResult(nil, applied)
		res.Warnings = []string{invalidValue("theater", theater)}
		return res
	}
	return newResult(e.where(func(f catalog.Feed) bool { return f.Theater == t }), applied)
}

// ByCodec returns feeds using the given codec. Input is case-insensitive.
func (e *Engine) ByCodec(codec string) Result {
	c, ok := catalog.ParseCodec(codec)
	applied := map[string]any{"codec": string(c)}
	if !ok {
		res := newResult(nil, applied)
		res.Warnings = []string{invalidValue("codec", codec)}
		return res
	}
	return newResult(e.where(func(f catalog.Feed) bool { return f.Codec == c }), applied)
}

// ResolutionBounds are inclusive pixel bounds. Nil bounds are unconstrained.
type ResolutionBounds struct {
	MinWidth  *int
	MinHeight *int
	MaxWidth  *int
	MaxHeight *int
}

func (b ResolutionBounds) match(f catalog.Feed) bool {
	return atLeast(f.Width, b.MinWidth) && atLeast(f.Height, b.MinHeight) &&
		atMost(f.Width, b.MaxWidth) && atMost(f.Height, b.MaxHeight)
}

func (b ResolutionBounds) applied() map[string]any {
	m := map[string]any{}
	putInt(m, "min_width", b.MinWidth)
	putInt(m, "min_height", b.MinHeight)
	putInt(m, "max_width", b.MaxWidth)
	putInt(m, "max_height", b.MaxHeight)
	return m
}

// ByResolution returns feeds within all supplied bounds.
func (e *Engine) ByResolution(b ResolutionBounds) Result {
	return newResult(e.where(b.match), b.applied())
}

// LatencyBounds are inclusive millisecond bounds.
type LatencyBounds struct {
	Min *int
	Max *int
}

// ByLatency returns feeds whose latency falls within the supplied bounds.
func (e *Engine) ByLatency(b LatencyBounds) Result {
	applied := map[string]any{}
	putInt(applied, "min_latency", b.Min)
	putInt(applied, "max_latency", b.Max)
	return newResult(e.where(func(f catalog.Feed) bool {
		return atLeast(f.LatencyMS, b.Min) && atMost(f.LatencyMS, b.Max)
	}), applied)
}

// ByModel returns feeds tagged with the analytics model. Case-sensitive.
func (e *Engine) ByModel(tag string) Result {
	return newResult(e.where(func(f catalog.Feed) bool {
		return f.ModelTag != "" && f.ModelTag == tag
	}), map[string]any{"model_tag": tag})
}

// ByEncryption returns feeds whose encryption flag equals encrypted.
func (e *Engine) ByEncryption(encrypted bool) Result {
	return newResult(e.where(func(f catalog.Feed) bool { return f.Encrypted == encrypted }),
		map[string]any{"encrypted": encrypted})
}

// ByCivilianSafety returns feeds whose civilian-safe flag equals safe.
func (e *Engine) ByCivilianSafety(safe bool) Result {
	return newResult(e.where(func(f catalog.Feed) bool { return f.CivilianSafe == safe }),
		map[string]any{"civilian_safe": safe})
}

// ByID looks up a single feed.
func (e *Engine) ByID(id string) Lookup {
	f, ok := e.cat.Feed(id)
	if !ok {
		return Lookup{
			Found: false,
			Error: fmt.Sprintf("Feed ID '%s' %v", id, internalerr.ErrNotFound),
			Hints: e.cat.IDs(MaxLookupHints),
		}
	}
	return Lookup{Feed: &Record{Feed: f}, Found: true}
}

func invalidValue(name, value string) string {
	return fmt.Sprintf("%v: %s %q", internalerr.ErrInvalidFilterValue, name, value)
}

func atLeast(v int, min *int) bool { return min == nil || v >= *min }

func atMost(v int, max *int) bool { return max == nil || v <= *max }

func putInt(m map[string]any, key string, v *int) {
	if v != nil {
		m[key] = *v
	}
}

// Int returns a pointer to v, for building bounds and criteria.
func Int(v int) *int { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }

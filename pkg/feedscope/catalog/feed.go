package catalog

import (
	"encoding/json"
	"sort"
	"strings"
)

// Column names of the feed table. Matching is case-sensitive.
const (
	ColFeedID       = "FEED_ID"
	ColTheater      = "THEATER"
	ColCodec        = "CODEC"
	ColWidth        = "RES_W"
	ColHeight       = "RES_H"
	ColLatency      = "LAT_MS"
	ColModelTag     = "MODL_TAG"
	ColEncrypted    = "ENCR"
	ColCivilianSafe = "CIV_OK"
)

// RequiredColumns must all be present in the feed table header.
var RequiredColumns = []string{
	ColFeedID, ColTheater, ColCodec, ColWidth, ColHeight,
	ColLatency, ColModelTag, ColEncrypted, ColCivilianSafe,
}

// Theater is a geographic region code.
type Theater string

const (
	TheaterCONUS Theater = "CONUS"
	TheaterPAC   Theater = "PAC"
	TheaterEUR   Theater = "EUR"
	TheaterME    Theater = "ME"
	TheaterAFR   Theater = "AFR"
	TheaterARC   Theater = "ARC"
)

// Theaters lists every known theater in canonical order.
var Theaters = []Theater{TheaterCONUS, TheaterPAC, TheaterEUR, TheaterME, TheaterAFR, TheaterARC}

// ParseTheater normalizes s to its canonical form.
// ok is false when s names no known theater.
func ParseTheater(s string) (Theater, bool) {
	t := Theater(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Theaters {
		if t == known {
			return t, true
		}
	}
	return t, false
}

// Codec is a video codec name.
type Codec string

const (
	CodecH264  Codec = "H264"
	CodecH265  Codec = "H265"
	CodecAV1   Codec = "AV1"
	CodecVP9   Codec = "VP9"
	CodecMPEG2 Codec = "MPEG2"
)

// Codecs lists every known codec in canonical order.
var Codecs = []Codec{CodecH264, CodecH265, CodecAV1, CodecVP9, CodecMPEG2}

// ParseCodec normalizes s to its canonical form.
func ParseCodec(s string) (Codec, bool) {
	c := Codec(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Codecs {
		if c == known {
			return c, true
		}
	}
	return c, false
}

// Feed is one row of the catalog.
type Feed struct {
	ID           string
	Theater      Theater
	Codec        Codec
	Width        int
	Height       int
	LatencyMS    int
	ModelTag     string
	Encrypted    bool
	CivilianSafe bool

	extra map[string]string // pass-through columns
}

// WithExtra returns a copy of f carrying the given pass-through columns.
func (f Feed) WithExtra(extra map[string]string) Feed {
	f.extra = copyStrings(extra)
	return f
}

// Extra returns a pass-through column value.
func (f Feed) Extra(column string) (string, bool) {
	v, ok := f.extra[column]
	return v, ok
}

// ExtraColumns returns the pass-through column names, sorted.
func (f Feed) ExtraColumns() []string {
	cols := make([]string, 0, len(f.extra))
	for k := range f.extra {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// Fields returns the feed as a flat column -> value map.
// Typed columns keep their Go types; enums are canonical strings.
func (f Feed) Fields() map[string]any {
	out := make(map[string]any, len(RequiredColumns)+len(f.extra))
	for k, v := range f.extra {
		out[k] = v
	}
	out[ColFeedID] = f.ID
	out[ColTheater] = string(f.Theater)
	out[ColCodec] = string(f.Codec)
	out[ColWidth] = f.Width
	out[ColHeight] = f.Height
	out[ColLatency] = f.LatencyMS
	if f.ModelTag == "" {
		out[ColModelTag] = nil
	} else {
		out[ColModelTag] = f.ModelTag
	}
	out[ColEncrypted] = f.Encrypted
	out[ColCivilianSafe] = f.CivilianSafe
	return out
}

// MarshalJSON emits the flat column form.
func (f Feed) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Fields())
}

// HighResolution reports width >= 1920 and height >= 1080.
func (f Feed) HighResolution() bool {
	return f.Width >= 1920 && f.Height >= 1080
}

func copyStrings(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

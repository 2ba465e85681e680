package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cognicore/feedscope/pkg/feedscope/internalerr"
)

// LoadError describes why the dataset could not be loaded.
// It always wraps internalerr.ErrLoad.
type LoadError struct {
	Path   string
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	b.WriteString("load catalog")
	if e.Path != "" {
		fmt.Fprintf(&b, " %s", e.Path)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " line %d", e.Line)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " column %s", e.Column)
	}
	if e.Value != "" {
		fmt.Fprintf(&b, " value %q", e.Value)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *LoadError) Unwrap() error { return e.Err }

// LoadFile reads the feed table from a CSV file.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("%w: %v", internalerr.ErrLoad, err)}
	}
	defer f.Close()

	cat, err := Load(f)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = path
		}
		return nil, err
	}
	return cat, nil
}

// Load reads the feed table from CSV. The first row is the header.
func Load(r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, &LoadError{Line: 1, Err: fmt.Errorf("%w: read header: %v", internalerr.ErrLoad, err)}
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[h] = i
	}
	for _, col := range RequiredColumns {
		if _, ok := pos[col]; !ok {
			return nil, &LoadError{Line: 1, Column: col, Err: fmt.Errorf("%w: missing required column", internalerr.ErrLoad)}
		}
	}

	required := make(map[string]bool, len(RequiredColumns))
	for _, col := range RequiredColumns {
		required[col] = true
	}

	var feeds []Feed
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, &LoadError{Line: line, Err: fmt.Errorf("%w: %v", internalerr.ErrLoad, err)}
		}

		p := rowParser{row: row, pos: pos, line: line}
		f := Feed{
			ID:           strings.TrimSpace(p.str(ColFeedID)),
			Theater:      p.theater(),
			Codec:        p.codec(),
			Width:        p.positive(ColWidth),
			Height:       p.positive(ColHeight),
			LatencyMS:    p.nonNegative(ColLatency),
			ModelTag:     strings.TrimSpace(p.str(ColModelTag)),
			Encrypted:    p.boolean(ColEncrypted),
			CivilianSafe: p.boolean(ColCivilianSafe),
		}
		if p.err != nil {
			return nil, p.err
		}

		extra := make(map[string]string)
		for i, h := range header {
			if required[h] || i >= len(row) {
				continue
			}
			extra[h] = row[i]
		}
		feeds = append(feeds, f.WithExtra(extra))
	}

	return build(feeds, header)
}

// rowParser coerces one CSV row, keeping the first failure.
type rowParser struct {
	row  []string
	pos  map[string]int
	line int
	err  error
}

func (p *rowParser) str(col string) string {
	i := p.pos[col]
	if i >= len(p.row) {
		return ""
	}
	return p.row[i]
}

func (p *rowParser) fail(col, val, msg string) {
	if p.err != nil {
		return
	}
	p.err = &LoadError{Line: p.line, Column: col, Value: val, Err: fmt.Errorf("%w: %s", internalerr.ErrLoad, msg)}
}

func (p *rowParser) theater() Theater {
	raw := p.str(ColTheater)
	t, ok := ParseTheater(raw)
	if !ok {
		p.fail(ColTheater, raw, "unknown theater")
	}
	return t
}

func (p *rowParser) codec() Codec {
	raw := p.str(ColCodec)
	c, ok := ParseCodec(raw)
	if !ok {
		p.fail(ColCodec, raw, "unknown codec")
	}
	return c
}

func (p *rowParser) integer(col string) (int, bool) {
	raw := strings.TrimSpace(p.str(col))
	n, err := strconv.Atoi(raw)
	if err != nil {
		// pandas writes integer columns with NaN as floats ("1920.0")
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || f != float64(int(f)) {
			p.fail(col, raw, "not an integer")
			return 0, false
		}
		n = int(f)
	}
	return n, true
}

func (p *rowParser) positive(col string) int {
	n, ok := p.integer(col)
	if ok && n <= 0 {
		p.fail(col, p.str(col), "must be positive")
	}
	return n
}

func (p *rowParser) nonNegative(col string) int {
	n, ok := p.integer(col)
	if ok && n < 0 {
		p.fail(col, p.str(col), "must not be negative")
	}
	return n
}

func (p *rowParser) boolean(col string) bool {
	raw := p.str(col)
	b, ok := ParseBool(raw)
	if !ok {
		p.fail(col, raw, "unrecognized boolean")
	}
	return b
}

// ParseBool accepts true/false, t/f, yes/no, y/n and 1/0, case-insensitively.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y", "1":
		return true, true
	case "false", "f", "no", "n", "0":
		return false, true
	}
	return false, false
}

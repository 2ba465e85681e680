package filter

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/cognicore/feedscope/pkg/feedscope/catalog"
	"github.com/cognicore/feedscope/pkg/feedscope/internalerr"
)

// Criteria is a conjunction of optional filters. Nil fields are not applied.
type Criteria struct {
	Theater      *string `json:"theater,omitempty"`
	Codec        *string `json:"codec,omitempty"`
	MinWidth     *int    `json:"min_width,omitempty" validate:"omitempty,min=0"`
	MinHeight    *int    `json:"min_height,omitempty" validate:"omitempty,min=0"`
	MaxLatency   *int    `json:"max_latency,omitempty" validate:"omitempty,min=0"`
	Encrypted    *bool   `json:"encrypted,omitempty"`
	CivilianSafe *bool   `json:"civilian_safe,omitempty"`
}

// CriteriaNames are the filter names ParseCriteria accepts.
var CriteriaNames = []string{"theater", "codec", "min_width", "min_height", "max_latency", "encrypted", "civilian_safe"}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks numeric bounds.
func (c Criteria) Validate() error {
	if err := getValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s must be %s %s", internalerr.ErrInvalidInput, jsonName(fe.StructField()), fe.Tag(), fe.Param())
		}
		return fmt.Errorf("%w: %v", internalerr.ErrInvalidInput, err)
	}
	return nil
}

// IsEmpty reports whether no filter is set.
func (c Criteria) IsEmpty() bool {
	return c.Theater == nil && c.Codec == nil && c.MinWidth == nil && c.MinHeight == nil &&
		c.MaxLatency == nil && c.Encrypted == nil && c.CivilianSafe == nil
}

// Applied returns exactly the supplied filters, keyed by name.
func (c Criteria) Applied() map[string]any {
	m := map[string]any{}
	if c.Theater != nil {
		m["theater"] = *c.Theater
	}
	if c.Codec != nil {
		m["codec"] = *c.Codec
	}
	putInt(m, "min_width", c.MinWidth)
	putInt(m, "min_height", c.MinHeight)
	putInt(m, "max_latency", c.MaxLatency)
	if c.Encrypted != nil {
		m["encrypted"] = *c.Encrypted
	}
	if c.CivilianSafe != nil {
		m["civilian_safe"] = *c.CivilianSafe
	}
	return m
}

// Search applies every supplied criterion as one AND pass over the catalog.
// Unknown theater or codec values match nothing and add a warning.
func (e *Engine) Search(c Criteria) Result {
	var (
		theater  catalog.Theater
		codec    catalog.Codec
		warnings []string
		none     bool
	)
	if c.Theater != nil {
		var ok bool
		if theater, ok = catalog.ParseTheater(*c.Theater); !ok {
			warnings = append(warnings, invalidValue("theater", *c.Theater))
			none = true
		}
	}
	if c.Codec != nil {
		var ok bool
		if codec, ok = catalog.ParseCodec(*c.Codec); !ok {
			warnings = append(warnings, invalidValue("codec", *c.Codec))
			none = true
		}
	}

	var feeds []catalog.Feed
	if !none {
		feeds = e.where(func(f catalog.Feed) bool {
			switch {
			case c.Theater != nil && f.Theater != theater:
				return false
			case c.Codec != nil && f.Codec != codec:
				return false
			case !atLeast(f.Width, c.MinWidth):
				return false
			case !atLeast(f.Height, c.MinHeight):
				return false
			case !atMost(f.LatencyMS, c.MaxLatency):
				return false
			case c.Encrypted != nil && f.Encrypted != *c.Encrypted:
				return false
			case c.CivilianSafe != nil && f.CivilianSafe != *c.CivilianSafe:
				return false
			}
			return true
		})
	}

	res := newResult(feeds, c.Applied())
	res.Warnings = warnings
	return res
}

// ParseCriteria converts a loosely typed filter map (decoded JSON, query
// parameters) into Criteria. Unknown names are rejected.
func ParseCriteria(filters map[string]any) (Criteria, error) {
	var c Criteria
	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		raw := filters[name]
		var err error
		switch name {
		case "theater":
			c.Theater, err = asString(name, raw)
		case "codec":
			c.Codec, err = asString(name, raw)
		case "min_width":
			c.MinWidth, err = asInt(name, raw)
		case "min_height":
			c.MinHeight, err = asInt(name, raw)
		case "max_latency":
			c.MaxLatency, err = asInt(name, raw)
		case "encrypted":
			c.Encrypted, err = asBool(name, raw)
		case "civilian_safe":
			c.CivilianSafe, err = asBool(name, raw)
		default:
			return Criteria{}, fmt.Errorf("%w: %q (known: %s)", internalerr.ErrUnknownFilter, name, strings.Join(CriteriaNames, ", "))
		}
		if err != nil {
			return Criteria{}, err
		}
	}
	if err := c.Validate(); err != nil {
		return Criteria{}, err
	}
	return c, nil
}

func asString(name string, v any) (*string, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a string", internalerr.ErrInvalidInput, name)
	}
	return &s, nil
}

func asInt(name string, v any) (*int, error) {
	switch n := v.(type) {
	case int:
		return &n, nil
	case int64:
		i := int(n)
		return &i, nil
	case float64:
		if n != math.Trunc(n) {
			return nil, fmt.Errorf("%w: %s must be an integer", internalerr.ErrInvalidInput, name)
		}
		i := int(n)
		return &i, nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be an integer", internalerr.ErrInvalidInput, name)
		}
		return &i, nil
	}
	return nil, fmt.Errorf("%w: %s must be an integer", internalerr.ErrInvalidInput, name)
}

func asBool(name string, v any) (*bool, error) {
	switch b := v.(type) {
	case bool:
		return &b, nil
	case string:
		if parsed, ok := catalog.ParseBool(b); ok {
			return &parsed, nil
		}
	}
	return nil, fmt.Errorf("%w: %s must be a boolean", internalerr.ErrInvalidInput, name)
}

func jsonName(field string) string {
	switch field {
	case "MinWidth":
		return "min_width"
	case "MinHeight":
		return "min_height"
	case "MaxLatency":
		return "max_latency"
	}
	return strings.ToLower(field)
}

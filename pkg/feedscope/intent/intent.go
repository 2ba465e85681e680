package intent

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/cognicore/feedscope/pkg/feedscope/internalerr"
)

// Operation kinds an interpreter may report.
const (
	OpFilter  = "filter"
	OpSearch  = "search"
	OpAnalyze = "analyze"
	OpGetInfo = "get_info"
	OpError   = "error"
)

// Intent is the structured, best-effort reading of one question.
// Any hint may be empty; nothing guarantees the hints agree.
type Intent struct {
	Operation    string         `json:"intent"`
	Theater      string         `json:"theater,omitempty"`
	Codec        string         `json:"codec,omitempty"`
	Resolution   string         `json:"resolution,omitempty"`
	Quality      string         `json:"quality,omitempty"`
	Latency      string         `json:"latency,omitempty"`
	OtherFilters map[string]any `json:"other_filters,omitempty"`
	Error        string         `json:"error,omitempty"`
}

// Failed builds the intent an interpreter reports when it could not run.
func Failed(err error) Intent {
	return Intent{Operation: OpError, Error: err.Error()}
}

// Present reports whether a hint carries a usable value. Models often
// spell a missing value as a literal.
func Present(hint string) bool {
	switch strings.ToLower(strings.TrimSpace(hint)) {
	case "", "null", "none", "nil", "n/a", "unknown":
		return false
	}
	return true
}

// Parse decodes an interpreter reply. Markdown code fences are stripped,
// null hints become empty and scalar hints of other types are stringified.
func Parse(raw string) (Intent, error) {
	body := extractJSON(raw)

	var fields map[string]any
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return Intent{}, fmt.Errorf("%w: decode intent: %v (response: %.200s)", internalerr.ErrInvalidInput, err, body)
	}

	in := Intent{
		Operation:  strings.ToLower(hintString(fields["intent"])),
		Theater:    hintString(fields["theater"]),
		Codec:      hintString(fields["codec"]),
		Resolution: hintString(fields["resolution"]),
		Quality:    hintString(fields["quality"]),
		Latency:    hintString(fields["latency"]),
		Error:      hintString(fields["error"]),
	}
	if other, ok := fields["other_filters"].(map[string]any); ok && len(other) > 0 {
		in.OtherFilters = other
	}
	if in.Operation == "" {
		in.Operation = OpSearch
	}
	return in, nil
}

// extractJSON returns the JSON object inside a fenced or chatty reply.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if start := strings.Index(s, "```json"); start >= 0 {
		s = s[start+len("```json"):]
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
	} else if start := strings.Index(s, "```"); start >= 0 {
		s = s[start+3:]
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
	}
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") {
		if open, close := strings.Index(s, "{"), strings.LastIndex(s, "}"); open >= 0 && close > open {
			s = s[open : close+1]
		}
	}
	return s
}

func hintString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		if !Present(t) {
			return ""
		}
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

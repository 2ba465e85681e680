// Package replay runs recorded intents through the resolver without a
// language model.
package replay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cognicore/feedscope/internal/logging"
	"github.com/cognicore/feedscope/pkg/feedscope/intent"
)

// Entry is one recorded intent.
type Entry struct {
	Line     int           `json:"line"`
	Question string        `json:"question,omitempty"`
	Intent   intent.Intent `json:"intent"`
}

// LoadFromJSONL loads entries from a JSONL file. Each line is either a
// bare intent object or {"question": ..., "intent": {...}}. Malformed
// lines are skipped with a warning.
func LoadFromJSONL(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}
	defer f.Close()

	entries, err := Read(f, path)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no valid intents found in %s", path)
	}
	return entries, nil
}

// Read parses JSONL from r. name is used in warnings.
func Read(r io.Reader, name string) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		e, err := parseLine(text)
		if err != nil {
			logging.Warn().Err(err).Str("file", name).Int("line", line).Msg("skipping malformed intent")
			continue
		}
		e.Line = line
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return entries, nil
}

func parseLine(text string) (Entry, error) {
	var wrapped struct {
		Question string          `json:"question"`
		Intent   json.RawMessage `json:"intent"`
	}
	if err := json.Unmarshal([]byte(text), &wrapped); err != nil {
		return Entry{}, err
	}
	if len(wrapped.Intent) > 0 && wrapped.Intent[0] == '{' {
		in, err := intent.Parse(string(wrapped.Intent))
		if err != nil {
			return Entry{}, err
		}
		return Entry{Question: wrapped.Question, Intent: in}, nil
	}
	in, err := intent.Parse(text)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Question: wrapped.Question, Intent: in}, nil
}

// Result is one replayed entry.
type Result struct {
	Entry
	Outcome intent.Outcome `json:"outcome"`
}

// Run resolves and executes every entry, writing one JSON line per entry to w.
func Run(r *intent.Resolver, entries []Entry, w io.Writer) ([]Result, error) {
	enc := json.NewEncoder(w)
	results := make([]Result, 0, len(entries))
	for _, e := range entries {
		res := Result{Entry: e, Outcome: r.Answer(e.Intent)}
		if err := enc.Encode(res); err != nil {
			return results, fmt.Errorf("write line %d: %w", e.Line, err)
		}
		results = append(results, res)
	}
	return results, nil
}

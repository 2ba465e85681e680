package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/feedscope/pkg/feedscope/intent"
	"github.com/cognicore/feedscope/pkg/feedscope/internalerr"
)

// Vocabulary is the YAML form of the keyword fallback vocabulary.
type Vocabulary struct {
	Theaters     []VocabularyTerm `yaml:"theaters"`
	Codecs       []VocabularyTerm `yaml:"codecs"`
	Resolutions  []VocabularyTerm `yaml:"resolutions"`
	Quality      []VocabularyTerm `yaml:"quality"`
	Latency      []VocabularyTerm `yaml:"latency"`
	OtherFilters []VocabularyFlag `yaml:"other_filters"`
}

// VocabularyTerm maps keywords to a hint value
type VocabularyTerm struct {
	Value    string   `yaml:"value"`
	Keywords []string `yaml:"keywords"`
}

// VocabularyFlag maps keywords to an other_filters entry
type VocabularyFlag struct {
	Filter   string   `yaml:"filter"`
	Value    any      `yaml:"value"`
	Keywords []string `yaml:"keywords"`
}

// LoadVocabulary loads a vocabulary from a YAML file
func LoadVocabulary(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: vocabulary %s: %v", internalerr.ErrInvalidConfig, path, err)
	}
	for _, t := range v.allTerms() {
		if t.Value == "" || len(t.Keywords) == 0 {
			return nil, fmt.Errorf("%w: vocabulary %s: term needs a value and keywords", internalerr.ErrInvalidConfig, path)
		}
	}
	for _, f := range v.OtherFilters {
		if f.Filter == "" || len(f.Keywords) == 0 {
			return nil, fmt.Errorf("%w: vocabulary %s: flag needs a filter and keywords", internalerr.ErrInvalidConfig, path)
		}
	}
	return &v, nil
}

func (v *Vocabulary) allTerms() []VocabularyTerm {
	var all []VocabularyTerm
	for _, ts := range [][]VocabularyTerm{v.Theaters, v.Codecs, v.Resolutions, v.Quality, v.Latency} {
		all = append(all, ts...)
	}
	return all
}

// Build converts to an intent vocabulary. Sections missing from the file
// keep their defaults.
func (v *Vocabulary) Build() intent.Vocabulary {
	out := intent.DefaultVocabulary()
	if v == nil {
		return out
	}
	terms := func(in []VocabularyTerm, def []intent.Term) []intent.Term {
		if len(in) == 0 {
			return def
		}
		ts := make([]intent.Term, len(in))
		for i, t := range in {
			ts[i] = intent.Term{Value: t.Value, Keywords: t.Keywords}
		}
		return ts
	}
	out.Theaters = terms(v.Theaters, out.Theaters)
	out.Codecs = terms(v.Codecs, out.Codecs)
	out.Resolutions = terms(v.Resolutions, out.Resolutions)
	out.Quality = terms(v.Quality, out.Quality)
	out.Latency = terms(v.Latency, out.Latency)
	if len(v.OtherFilters) > 0 {
		out.OtherFilters = make([]intent.FlagTerm, len(v.OtherFilters))
		for i, f := range v.OtherFilters {
			out.OtherFilters[i] = intent.FlagTerm{Filter: f.Filter, Value: f.Value, Keywords: f.Keywords}
		}
	}
	return out
}

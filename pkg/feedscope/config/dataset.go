package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cognicore/feedscope/pkg/feedscope/catalog"
	"github.com/cognicore/feedscope/pkg/feedscope/internalerr"
)

// Standard dataset file names inside a data directory.
const (
	FeedsFile         = "Table_feeds_v2.csv"
	TableDefsFile     = "Table_defs_v2.csv"
	EncoderParamsFile = "encoder_params.json"
	DecoderParamsFile = "decoder_params.json"
	EncoderSchemaFile = "encoder_schema.json"
	DecoderSchemaFile = "decoder_schema.json"
)

// DatasetLoader loads the feed table and its companion files.
// Only FeedsPath is required; empty paths are skipped.
type DatasetLoader struct {
	FeedsPath         string
	TableDefsPath     string
	EncoderParamsPath string
	DecoderParamsPath string
	EncoderSchemaPath string
	DecoderSchemaPath string
}

// DatasetFromDir returns a loader for the standard file names under dir.
// Companion files that do not exist are left out.
func DatasetFromDir(dir string) DatasetLoader {
	optional := func(name string) string {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err != nil {
			return ""
		}
		return p
	}
	return DatasetLoader{
		FeedsPath:         filepath.Join(dir, FeedsFile),
		TableDefsPath:     optional(TableDefsFile),
		EncoderParamsPath: optional(EncoderParamsFile),
		DecoderParamsPath: optional(DecoderParamsFile),
		EncoderSchemaPath: optional(EncoderSchemaFile),
		DecoderSchemaPath: optional(DecoderSchemaFile),
	}
}

// Dataset holds everything loaded from a data directory.
// The JSON documents are kept verbatim; nothing interprets them.
type Dataset struct {
	Catalog       *catalog.Catalog
	TableDefs     *catalog.TableDefs
	EncoderParams json.RawMessage
	DecoderParams json.RawMessage
	EncoderSchema json.RawMessage
	DecoderSchema json.RawMessage
}

// Load reads all configured files and returns the dataset
func (l *DatasetLoader) Load() (*Dataset, error) {
	if l.FeedsPath == "" {
		return nil, fmt.Errorf("%w: feeds path required", internalerr.ErrInvalidConfig)
	}

	ds := &Dataset{}
	cat, err := catalog.LoadFile(l.FeedsPath)
	if err != nil {
		return nil, err
	}
	ds.Catalog = cat

	if l.TableDefsPath != "" {
		defs, err := catalog.LoadTableDefs(l.TableDefsPath)
		if err != nil {
			return nil, fmt.Errorf("load table definitions: %w", err)
		}
		ds.TableDefs = defs
	}

	docs := []struct {
		path string
		dst  *json.RawMessage
	}{
		{l.EncoderParamsPath, &ds.EncoderParams},
		{l.DecoderParamsPath, &ds.DecoderParams},
		{l.EncoderSchemaPath, &ds.EncoderSchema},
		{l.DecoderSchemaPath, &ds.DecoderSchema},
	}
	for _, d := range docs {
		if d.path == "" {
			continue
		}
		raw, err := loadJSON(d.path)
		if err != nil {
			return nil, err
		}
		*d.dst = raw
	}
	return ds, nil
}

func loadJSON(path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", internalerr.ErrLoad, path, err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: %s: invalid JSON", internalerr.ErrLoad, path)
	}
	return json.RawMessage(data), nil
}

// Parameter document kinds.
const (
	ParamsEncoder = "encoder"
	ParamsDecoder = "decoder"
)

// ErrNoParams is returned when a parameter document was not loaded.
var ErrNoParams = errors.New("parameters not loaded")

// Params is a parameter document with its description.
type Params struct {
	Kind        string
	Body        json.RawMessage
	Description string
}

// MarshalJSON emits {"<kind>_params": ..., "description": ...}.
func (p Params) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		p.Kind + "_params": p.Body,
		"description":      p.Description,
	})
}

// Params returns the encoder or decoder parameter document.
func (d *Dataset) Params(kind string) (Params, error) {
	var body json.RawMessage
	var desc string
	switch kind {
	case ParamsEncoder:
		body, desc = d.EncoderParams, "Video encoding configuration for all camera feeds"
	case ParamsDecoder:
		body, desc = d.DecoderParams, "Video decoding configuration for all camera feeds"
	default:
		return Params{}, fmt.Errorf("%w: unknown parameter kind %q", internalerr.ErrNotFound, kind)
	}
	if body == nil {
		return Params{}, fmt.Errorf("%w: %w: %s", internalerr.ErrNotFound, ErrNoParams, kind)
	}
	return Params{
		Kind:        kind,
		Body:        body,
		Description: desc,
	}, nil
}

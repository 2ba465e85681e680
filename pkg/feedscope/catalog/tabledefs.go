package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cognicore/feedscope/pkg/feedscope/internalerr"
)

// TableDefs holds the table/column definition sheet shipped with the
// dataset. It documents the feed columns and is never used for filtering.
type TableDefs struct {
	Columns []string
	Rows    []map[string]string
}

// Lookup returns the first row whose value in column equals value.
func (t *TableDefs) Lookup(column, value string) (map[string]string, bool) {
	if t == nil {
		return nil, false
	}
	for _, row := range t.Rows {
		if row[column] == value {
			return row, true
		}
	}
	return nil, false
}

// LoadTableDefs reads the definition sheet from a CSV file.
func LoadTableDefs(path string) (*TableDefs, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("%w: %v", internalerr.ErrLoad, err)}
	}
	defer f.Close()

	defs, err := ReadTableDefs(f)
	if err != nil {
		if le, ok := err.(*LoadError); ok {
			le.Path = path
		}
		return nil, err
	}
	return defs, nil
}

// ReadTableDefs parses a definition sheet. Ragged rows are allowed.
func ReadTableDefs(r io.Reader) (*TableDefs, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, &LoadError{Line: 1, Err: fmt.Errorf("%w: read header: %v", internalerr.ErrLoad, err)}
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	defs := &TableDefs{Columns: header}
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
		entry := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(row) {
				entry[h] = strings.TrimSpace(row[i])
			}
		}
		defs.Rows = append(defs.Rows, entry)
	}
	return defs, nil
}

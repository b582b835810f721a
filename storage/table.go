package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"immoweb-scraper/models"
)

// DefaultNullMarkers are the cell texts read as "no value".
var DefaultNullMarkers = []string{"", "NA", "N/A", "n/a", "#N/A", "NaN", "nan", "null", "NULL", "None", "none", "-"}

// DefaultIndexColumn names the row index written in front of a cleaned table.
const DefaultIndexColumn = "house_index"

// LoadOptions controls how LoadTable interprets a CSV file.
type LoadOptions struct {
	NullMarkers []string
	// IndexColumn is dropped when it is the first column. An unnamed first
	// column is treated the same way.
	IndexColumn string
}

// DefaultLoadOptions returns the options used for the property files.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{NullMarkers: DefaultNullMarkers, IndexColumn: DefaultIndexColumn}
}

// LoadTable reads a headed CSV file into memory. A missing file, a missing
// header, duplicate column names or ragged rows give a *LoadError.
func LoadTable(path string, opts LoadOptions) (*models.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, &LoadError{Path: path, Err: errors.New("missing header row")}
	}
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	skip := 0
	if len(header) > 1 && (header[0] == "" || (opts.IndexColumn != "" && header[0] == opts.IndexColumn)) {
		skip = 1
	}

	seen := make(map[string]bool, len(header))
	for _, name := range header[skip:] {
		if name == "" {
			return nil, &LoadError{Path: path, Err: errors.New("empty column name")}
		}
		if seen[name] {
			return nil, &LoadError{Path: path, Err: fmt.Errorf("duplicate column %q", name)}
		}
		seen[name] = true
	}

	nulls := make(map[string]bool, len(opts.NullMarkers))
	for _, m := range opts.NullMarkers {
		nulls[m] = true
	}

	t := models.NewTable(header[skip:])
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &LoadError{Path: path, Err: err}
		}

		row := make([]models.Value, 0, len(rec)-skip)
		for _, cell := range rec[skip:] {
			cell = strings.TrimSpace(cell)
			if nulls[cell] {
				row = append(row, models.Null())
				continue
			}
			row = append(row, models.Text(cell))
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// WriteTable replaces path with t, prefixed by a zero-based indexColumn.
// The file is written next to path and renamed into place, so a failed
// write leaves any previous file untouched.
func WriteTable(path string, t *models.Table, indexColumn string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &WriteError{Path: path, Err: fmt.Errorf("create output dir: %w", err)}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	header := append([]string{indexColumn}, t.Columns...)
	if err := w.Write(header); err != nil {
		_ = tmp.Close()
		return &WriteError{Path: path, Err: err}
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			_ = tmp.Close()
			return &WriteError{Path: path, Err: fmt.Errorf("row %d has %d cells, header has %d", i, len(row), len(t.Columns))}
		}
		if err := w.Write(append([]string{strconv.Itoa(i)}, cells(row)...)); err != nil {
			_ = tmp.Close()
			return &WriteError{Path: path, Err: err}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = tmp.Close()
		return &WriteError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

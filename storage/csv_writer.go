package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"immoweb-scraper/models"
)

// CSVWriter writes property records to a CSV file with a fixed header.
// It is safe for concurrent use.
type CSVWriter struct {
	mu      sync.Mutex
	path    string
	columns []string
	file    *os.File
	writer  *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string, columns []string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, &WriteError{Path: path, Err: fmt.Errorf("create output dir: %w", err)}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, &WriteError{Path: path, Err: err}
	}

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		_ = f.Close()
		return nil, &WriteError{Path: path, Err: fmt.Errorf("write header: %w", err)}
	}
	w.Flush()

	return &CSVWriter{path: path, columns: columns, file: f, writer: w}, nil
}

// WriteRecords appends records in the given order. Null fields are written
// as empty cells.
func (c *CSVWriter) WriteRecords(records []models.PropertyRecord) error {
	rows := make([][]models.Value, 0, len(records))
	for _, r := range records {
		rows = append(rows, r.Row())
	}
	return c.WriteRows(rows)
}

// WriteRows appends rows that must be as wide as the header.
func (c *CSVWriter) WriteRows(rows [][]models.Value) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, row := range rows {
		if len(row) != len(c.columns) {
			return &WriteError{Path: c.path, Err: fmt.Errorf("row %d has %d cells, header has %d", i, len(row), len(c.columns))}
		}
		if err := c.writer.Write(cells(row)); err != nil {
			return &WriteError{Path: c.path, Err: fmt.Errorf("write row: %w", err)}
		}
	}

	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		return &WriteError{Path: c.path, Err: err}
	}
	return nil
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		_ = c.file.Close()
		return &WriteError{Path: c.path, Err: err}
	}
	if err := c.file.Close(); err != nil {
		return &WriteError{Path: c.path, Err: err}
	}
	return nil
}

func cells(row []models.Value) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = v.String()
	}
	return out
}

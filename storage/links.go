package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// WriteLinks overwrites path with one URL per row and no header.
func WriteLinks(path string, links []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &WriteError{Path: path, Err: fmt.Errorf("create output dir: %w", err)}
	}
	f, err := os.Create(path)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}

	w := csv.NewWriter(f)
	for _, link := range links {
		if err := w.Write([]string{link}); err != nil {
			_ = f.Close()
			return &WriteError{Path: path, Err: err}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return &WriteError{Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

// ReadLinks reads a links file written by WriteLinks. Blank rows are skipped.
func ReadLinks(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	links := make([]string, 0)
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &LoadError{Path: path, Err: err}
		}
		if len(rec) == 0 {
			continue
		}
		if link := strings.TrimSpace(rec[0]); link != "" {
			links = append(links, link)
		}
	}
	return links, nil
}

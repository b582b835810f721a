package services

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"immoweb-scraper/models"
	"immoweb-scraper/storage"
)

const rawCSV = `id,postal_code,street,number,box,bedrooms,price,sale_category
1,1000,Main,1,,3,250000,StandardSale
2,1000,Main,1,,4,260000,PublicSale
3,2000,Other,5,,250,100000,StandardSale
,,,,,,,
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestPipelineRun(t *testing.T) {
	in := writeFile(t, "all_properties_output.csv", rawCSV)
	out := filepath.Join(filepath.Dir(in), "cleaned_dataset.csv")

	stats, err := NewPipeline(newTestCleaner(), newTestLogger()).Run(in, out)
	require.NoError(t, err)

	assert.Equal(t, CleanStats{Loaded: 4, EmptyDropped: 1, DuplicatesDropped: 1, OutliersDropped: 1, Written: 1}, stats)

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t,
		"house_index,id,postal_code,street,number,box,bedrooms,price,sale_category\n"+
			"0,1,1000,Main,1,,3,250000,StandardSale\n",
		string(raw))
}

func TestPipelineIdempotentOnOwnOutput(t *testing.T) {
	in := writeFile(t, "raw.csv", rawCSV)
	dir := filepath.Dir(in)
	first := filepath.Join(dir, "first.csv")
	second := filepath.Join(dir, "second.csv")

	p := NewPipeline(newTestCleaner(), newTestLogger())
	_, err := p.Run(in, first)
	require.NoError(t, err)
	stats, err := p.Run(first, second)
	require.NoError(t, err)

	a, _ := os.ReadFile(first)
	b, _ := os.ReadFile(second)
	assert.Equal(t, string(a), string(b))
	assert.Equal(t, stats.Loaded, stats.Written)
}

func TestPipelineLoadError(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "cleaned.csv")

	_, err := NewPipeline(newTestCleaner(), newTestLogger()).Run(filepath.Join(dir, "missing.csv"), out)

	var loadErr *storage.LoadError
	require.True(t, errors.As(err, &loadErr), "expected *storage.LoadError, got %v", err)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no output should be written")
}

func TestPipelineWriteError(t *testing.T) {
	in := writeFile(t, "raw.csv", rawCSV)
	blocker := filepath.Join(filepath.Dir(in), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	_, err := NewPipeline(newTestCleaner(), newTestLogger()).Run(in, filepath.Join(blocker, "cleaned.csv"))

	var writeErr *storage.WriteError
	assert.True(t, errors.As(err, &writeErr), "expected *storage.WriteError, got %v", err)
}

type memorySink struct {
	runID string
	rows  int
	err   error
}

func (m *memorySink) Write(runID string, t *models.Table) error {
	m.runID, m.rows = runID, t.Len()
	return m.err
}

func (m *memorySink) Close() error { return nil }

func TestPipelineSinks(t *testing.T) {
	in := writeFile(t, "raw.csv", rawCSV)
	out := filepath.Join(filepath.Dir(in), "cleaned.csv")

	sink := &memorySink{}
	p := NewPipeline(newTestCleaner(), newTestLogger())
	p.AddSink("run-1", sink)

	_, err := p.Run(in, out)
	require.NoError(t, err)
	assert.Equal(t, "run-1", sink.runID)
	assert.Equal(t, 1, sink.rows)

	sink.err = errors.New("db down")
	_, err = p.Run(in, out)
	assert.ErrorIs(t, err, sink.err)
}

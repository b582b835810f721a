package services

import (
	"fmt"
	"time"

	"immoweb-scraper/models"
	"immoweb-scraper/storage"
	"immoweb-scraper/utils"
)

// Pipeline loads a raw property file, cleans it and writes the result.
type Pipeline struct {
	cleaner     *Cleaner
	load        storage.LoadOptions
	indexColumn string
	runID       string
	sinks       []storage.TableWriter
	logger      *utils.Logger
}

// NewPipeline creates a Pipeline reading files with the default null
// markers and index column.
func NewPipeline(cleaner *Cleaner, logger *utils.Logger) *Pipeline {
	return &Pipeline{
		cleaner:     cleaner,
		load:        storage.DefaultLoadOptions(),
		indexColumn: storage.DefaultIndexColumn,
		logger:      logger,
	}
}

// AddSink registers an extra destination for the cleaned table, written
// after the output file under runID.
func (p *Pipeline) AddSink(runID string, sink storage.TableWriter) {
	p.runID = runID
	p.sinks = append(p.sinks, sink)
}

// Run cleans the table at in and writes it to out. Load and write failures
// are returned as *storage.LoadError and *storage.WriteError; nothing is
// written when loading fails.
func (p *Pipeline) Run(in, out string) (CleanStats, error) {
	t, stats, err := p.CleanFile(in)
	if err != nil {
		return stats, err
	}

	if err := storage.WriteTable(out, t, p.indexColumn); err != nil {
		return stats, err
	}
	p.logger.Info("[pipeline] Wrote %d rows to %s", t.Len(), out)

	for _, sink := range p.sinks {
		if err := sink.Write(p.runID, t); err != nil {
			return stats, fmt.Errorf("pipeline: sink: %w", err)
		}
	}
	return stats, nil
}

// CleanFile loads and cleans the table at in without writing it.
func (p *Pipeline) CleanFile(in string) (*models.Table, CleanStats, error) {
	start := time.Now()
	t, err := storage.LoadTable(in, p.load)
	if err != nil {
		return nil, CleanStats{}, fmt.Errorf("pipeline: %w", err)
	}
	p.logger.Info("[pipeline] Loaded %d rows with %d columns from %s", t.Len(), len(t.Columns), in)

	t, stats := p.cleaner.Clean(t)
	p.logger.Debug("[pipeline] Cleaning took %.4f seconds", time.Since(start).Seconds())
	return t, stats, nil
}

package storage

import "immoweb-scraper/models"

// RecordWriter persists extracted, uncleaned property records.
type RecordWriter interface {
	WriteRecords(records []models.PropertyRecord) error
	Close() error
}

// TableWriter persists a cleaned table produced by one run.
type TableWriter interface {
	Write(runID string, table *models.Table) error
	Close() error
}

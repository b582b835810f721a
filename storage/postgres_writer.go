package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"immoweb-scraper/models"
	"immoweb-scraper/utils"
)

// numericColumns are stored as NUMERIC; every other column is TEXT.
var numericColumns = map[string]bool{
	"price":             true,
	"construction_year": true,
	"bedrooms":          true,
	"bathrooms":         true,
	"living_area":       true,
	"land_surface":      true,
	"facades":           true,
}

var booleanColumns = map[string]bool{
	"has_garden":        true,
	"has_terrace":       true,
	"has_swimming_pool": true,
}

// PostgresWriter persists cleaned property tables to PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, waiting for it through
// retry, runs schema migrations, and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(ctx context.Context, dsn string, retry *utils.RetryConfig) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := retry.Do(ctx, "postgres-ping", func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate(ctx context.Context) error {
	_, err := pw.db.ExecContext(ctx, createPropertiesSQL())
	return err
}

func createPropertiesSQL() string {
	defs := make([]string, 0, len(models.RecordColumns)+3)
	defs = append(defs,
		"row_id      SERIAL PRIMARY KEY",
		"run_id      UUID         NOT NULL",
		"house_index INTEGER      NOT NULL",
	)
	for _, col := range models.RecordColumns {
		defs = append(defs, fmt.Sprintf("%s %s", col, columnType(col)))
	}
	defs = append(defs, "created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()")

	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS properties (
			%s
		);

		CREATE INDEX IF NOT EXISTS idx_properties_postal_code   ON properties(postal_code);
		CREATE INDEX IF NOT EXISTS idx_properties_price         ON properties(price);
		CREATE INDEX IF NOT EXISTS idx_properties_property_type ON properties(property_type);
		CREATE INDEX IF NOT EXISTS idx_properties_run_id        ON properties(run_id);
	`, strings.Join(defs, ",\n\t\t\t"))
}

func columnType(col string) string {
	switch {
	case numericColumns[col]:
		return "NUMERIC"
	case booleanColumns[col]:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

// Clear deletes all existing properties from the table.
func (pw *PostgresWriter) Clear() error {
	_, err := pw.db.Exec("DELETE FROM properties")
	if err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}
	return nil
}

// Write replaces the stored properties with the rows of table, tagged with
// runID. Columns of table that the schema does not know are ignored; schema
// columns missing from table are stored as NULL.
func (pw *PostgresWriter) Write(runID string, table *models.Table) error {
	if err := pw.Clear(); err != nil {
		return err
	}
	if table.Len() == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < table.Len(); i += batchSize {
		end := i + batchSize
		if end > table.Len() {
			end = table.Len()
		}
		if err := pw.insertBatch(runID, table, i, end); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) insertBatch(runID string, table *models.Table, from, to int) error {
	width := len(models.RecordColumns) + 2
	valueStrings := make([]string, 0, to-from)
	valueArgs := make([]interface{}, 0, (to-from)*width)

	for i := from; i < to; i++ {
		base := (i - from) * width
		placeholders := make([]string, width)
		for p := range placeholders {
			placeholders[p] = fmt.Sprintf("$%d", base+p+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")

		valueArgs = append(valueArgs, runID, i)
		for _, col := range models.RecordColumns {
			v := table.Get(i, col)
			if v.IsNull() {
				valueArgs = append(valueArgs, nil)
				continue
			}
			valueArgs = append(valueArgs, v.String())
		}
	}

	query := fmt.Sprintf(`
		INSERT INTO properties (run_id, house_index, %s)
		VALUES %s
	`, strings.Join(models.RecordColumns, ", "), strings.Join(valueStrings, ","))

	if _, err := pw.db.Exec(query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: insert batch: %w", err)
	}
	return nil
}

// Count returns the number of stored properties for runID.
func (pw *PostgresWriter) Count(runID string) (int, error) {
	var n int
	if err := pw.db.QueryRow("SELECT COUNT(*) FROM properties WHERE run_id = $1", runID).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count: %w", err)
	}
	return n, nil
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

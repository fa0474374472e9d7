package export

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is stored in export_meta.
const SchemaVersion = 1

// CreateSchema creates all tables and indexes in the database.
func CreateSchema(db *sql.DB) error {
	if err := createCoreTables(db); err != nil {
		return fmt.Errorf("create core tables: %w", err)
	}
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	if err := createMetaTable(db); err != nil {
		return fmt.Errorf("create meta table: %w", err)
	}
	return nil
}

// createCoreTables creates the records, observations and join_report tables.
func createCoreTables(db *sql.DB) error {
	tables := []struct {
		name string
		sql  string
	}{
		{"records", `
		CREATE TABLE IF NOT EXISTS records (
			position INTEGER PRIMARY KEY,
			key TEXT NOT NULL UNIQUE,
			geo TEXT NOT NULL,
			country TEXT NOT NULL,
			region TEXT NOT NULL
		)`},
		// value is NULL for blank or non-numeric cells
		{"observations", `
		CREATE TABLE IF NOT EXISTS observations (
			key TEXT NOT NULL,
			metric TEXT NOT NULL,
			year TEXT NOT NULL,
			value REAL,
			PRIMARY KEY (key, metric, year)
		)`},
		{"join_report", `
		CREATE TABLE IF NOT EXISTS join_report (
			metric TEXT NOT NULL,
			geo TEXT NOT NULL
		)`},
	}
	for _, t := range tables {
		if _, err := db.Exec(t.sql); err != nil {
			return fmt.Errorf("create %s table: %w", t.name, err)
		}
	}
	return nil
}

func createIndexes(db *sql.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_records_region ON records(region)`,
		`CREATE INDEX IF NOT EXISTS idx_records_country ON records(country)`,
		`CREATE INDEX IF NOT EXISTS idx_obs_metric_year ON observations(metric, year)`,
	}
	for _, q := range indexes {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

func createMetaTable(db *sql.DB) error {
	metaSQL := `
		CREATE TABLE IF NOT EXISTS export_meta (
			key TEXT PRIMARY KEY,
			value TEXT
		)
	`
	if _, err := db.Exec(metaSQL); err != nil {
		return fmt.Errorf("create export_meta table: %w", err)
	}
	return nil
}

// OptimizeDatabase compacts the file. Call it as the final step before
// closing the database.
func OptimizeDatabase(db *sql.DB) error {
	for _, q := range []string{`PRAGMA journal_mode=DELETE`, `ANALYZE`, `PRAGMA optimize`} {
		// Some pragmas may fail depending on state; they are best effort.
		_, _ = db.Exec(q)
	}
	if _, err := db.Exec(`VACUUM`); err != nil {
		return fmt.Errorf("vacuum: %w", err)
	}
	return nil
}

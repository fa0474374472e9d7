package export

import (
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vanderheijden86/gapview/pkg/debug"
	"github.com/vanderheijden86/gapview/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLiteExporter writes a joined dataset to a SQLite database: one row per
// record, one observation per (record, metric, year) cell, and the join
// report.
type SQLiteExporter struct {
	Dataset *model.Dataset
	version string
	now     func() time.Time
}

// NewSQLiteExporter creates an exporter for ds.
func NewSQLiteExporter(ds *model.Dataset) *SQLiteExporter {
	return &SQLiteExporter{Dataset: ds, now: time.Now}
}

// SetVersion records the gv version in export_meta.
func (e *SQLiteExporter) SetVersion(v string) {
	e.version = v
}

// Export replaces the database at dbPath.
func (e *SQLiteExporter) Export(dbPath string) error {
	if e.Dataset == nil {
		return fmt.Errorf("no dataset to export")
	}
	defer debug.LogEnterExit("export.SQLite")()

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing database: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	dbClosed := false
	defer func() {
		if !dbClosed {
			db.Close()
		}
	}()

	if err := CreateSchema(db); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if err := e.insertRecords(db); err != nil {
		return fmt.Errorf("insert records: %w", err)
	}
	if err := e.insertObservations(db); err != nil {
		return fmt.Errorf("insert observations: %w", err)
	}
	if err := e.insertJoinReport(db); err != nil {
		return fmt.Errorf("insert join report: %w", err)
	}
	if err := e.insertMeta(db); err != nil {
		return fmt.Errorf("insert meta: %w", err)
	}
	if err := OptimizeDatabase(db); err != nil {
		return fmt.Errorf("optimize database: %w", err)
	}

	if err := db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	dbClosed = true
	return nil
}

func (e *SQLiteExporter) insertRecords(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO records (position, key, geo, country, region) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range e.Dataset.Records {
		if _, err := stmt.Exec(rec.Position, rec.Key(), rec.Geo, rec.Country, rec.Region); err != nil {
			return fmt.Errorf("record %s: %w", rec.Key(), err)
		}
	}
	return tx.Commit()
}

func (e *SQLiteExporter) insertObservations(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Duplicate year columns keep the first cell.
	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO observations (key, metric, year, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range e.Dataset.Records {
		for _, m := range model.AllMetrics {
			row := rec.Row(m)
			if row == nil {
				continue
			}
			for _, c := range row.Columns {
				if !model.IsYearLabel(c.Label) {
					continue
				}
				if _, err := stmt.Exec(rec.Key(), string(m), c.Label, nullable(model.ParseNumber(c.Value))); err != nil {
					return fmt.Errorf("observation %s/%s/%s: %w", rec.Key(), m, c.Label, err)
				}
			}
		}
	}
	return tx.Commit()
}

func (e *SQLiteExporter) insertJoinReport(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO join_report (metric, geo) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range model.AllMetrics {
		for _, geo := range e.Dataset.Unmatched[m] {
			if _, err := stmt.Exec(string(m), geo); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

func (e *SQLiteExporter) insertMeta(db *sql.DB) error {
	ds := e.Dataset
	meta := map[string]string{
		"schema_version": strconv.Itoa(SchemaVersion),
		"exported_at":    e.now().UTC().Format(time.RFC3339),
		"record_count":   strconv.Itoa(ds.Len()),
		"regions":        strings.Join(ds.Regions, ","),
		"version":        e.version,
	}
	if n := len(ds.Years); n > 0 {
		meta["year_min"] = ds.Years[0]
		meta["year_max"] = ds.Years[n-1]
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO export_meta (key, value) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for k, v := range meta {
		if _, err := stmt.Exec(k, v); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// nullable maps NaN to SQL NULL.
func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

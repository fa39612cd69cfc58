package export

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// WriteSQLite builds a throwaway SQLite database holding the snapshot and
// copies the file to w. The database has two tables: analysis_meta (one row)
// and analysis_rows.
func WriteSQLite(w io.Writer, snap *Snapshot) error {
	dir, err := os.MkdirTemp("", "tickerlens-export-*")
	if err != nil {
		return fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "analysis.db")
	if err := buildSQLite(path, snap); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("copy snapshot: %w", err)
	}
	return nil
}

func buildSQLite(path string, snap *Snapshot) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()

	if err := migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	generated := snap.GeneratedAt
	if generated.IsZero() {
		generated = time.Now().UTC()
	}
	res := snap.Result
	if _, err := tx.Exec(
		`INSERT INTO analysis_meta (symbol, company_name, days, sma_window, rsi_window, row_count, generated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snap.Symbol, snap.CompanyName, snap.Config.DaysToAnalyze,
		res.SMAWindow, res.RSIWindow, len(res.Rows), generated.Unix(),
	); err != nil {
		return fmt.Errorf("insert meta: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO analysis_rows (date, open, high, low, close, volume, sma, rsi)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare rows: %w", err)
	}
	defer stmt.Close()

	for _, r := range res.Rows {
		if _, err := stmt.Exec(
			r.Time.Format(dateLayout), r.Open, r.High, r.Low, r.Close, r.Volume, r.SMA, r.RSI,
		); err != nil {
			return fmt.Errorf("insert row %s: %w", r.Time.Format(dateLayout), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return db.Close()
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE analysis_meta (
			symbol       TEXT NOT NULL,
			company_name TEXT,
			days         INTEGER NOT NULL,
			sma_window   INTEGER NOT NULL,
			rsi_window   INTEGER NOT NULL,
			row_count    INTEGER NOT NULL,
			generated_at INTEGER NOT NULL
		)`,
		`CREATE TABLE analysis_rows (
			date   TEXT PRIMARY KEY,
			open   REAL,
			high   REAL,
			low    REAL,
			close  REAL NOT NULL,
			volume REAL,
			sma    REAL NOT NULL,
			rsi    REAL NOT NULL
		)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

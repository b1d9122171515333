package storage

import (
	"database/sql"
	"fmt"

	"github.com/matsen/bix/internal/publication"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// YearSummary aggregates the publications of one year.
type YearSummary struct {
	Year      int `json:"year"`
	Papers    int `json:"papers"`
	Citations int `json:"citations"`
	Funded    int `json:"funded"`
}

const selectPubFields = `id, year, citation_count, document_type, has_funding`

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS publications (
			seq INTEGER PRIMARY KEY,
			id TEXT NOT NULL UNIQUE,
			year INTEGER NOT NULL,
			citation_count INTEGER NOT NULL CHECK (citation_count >= 0),
			document_type TEXT NOT NULL DEFAULT '',
			has_funding INTEGER NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_publications_year ON publications(year);
	`

	_, err := db.Exec(schema)
	return err
}

// RebuildFromJSONL clears the database and rebuilds it from a JSONL file.
func (d *DB) RebuildFromJSONL(jsonlPath string) (int, error) {
	recs, err := ReadAll(jsonlPath)
	if err != nil {
		return 0, fmt.Errorf("reading JSONL: %w", err)
	}
	if err := d.Replace(recs); err != nil {
		return 0, err
	}
	return len(recs), nil
}

// Replace swaps the stored publications for recs in a single transaction.
func (d *DB) Replace(recs []publication.Record) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM publications"); err != nil {
		return fmt.Errorf("clearing publications table: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO publications (seq, id, year, citation_count, document_type, has_funding)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing publications insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range recs {
		if _, err := stmt.Exec(i+1, rec.ID, rec.Year, rec.CitationCount, rec.DocumentType, rec.HasFunding); err != nil {
			return fmt.Errorf("inserting publication %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing publications: %w", err)
	}
	return nil
}

// ListAll returns all publications in import order.
func (d *DB) ListAll() ([]publication.Record, error) {
	rows, err := d.db.Query(`SELECT ` + selectPubFields + ` FROM publications ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("listing publications: %w", err)
	}
	defer rows.Close()

	var recs []publication.Record
	for rows.Next() {
		var rec publication.Record
		if err := rows.Scan(&rec.ID, &rec.Year, &rec.CitationCount, &rec.DocumentType, &rec.HasFunding); err != nil {
			return nil, fmt.Errorf("scanning publication: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// LoadDataset returns the stored publications as a dataset, optionally
// restricted to the inclusive year range [from, to]. A zero bound is open.
func (d *DB) LoadDataset(from, to int) (*publication.Dataset, error) {
	recs, err := d.ListAll()
	if err != nil {
		return nil, err
	}

	kept := recs[:0]
	for _, rec := range recs {
		if from != 0 && rec.Year < from {
			continue
		}
		if to != 0 && rec.Year > to {
			continue
		}
		kept = append(kept, rec)
	}
	return publication.NewDataset(kept)
}

// YearSummaries aggregates publications per year, ascending.
func (d *DB) YearSummaries() ([]YearSummary, error) {
	rows, err := d.db.Query(`
		SELECT year, COUNT(*), SUM(citation_count), SUM(has_funding)
		FROM publications
		GROUP BY year
		ORDER BY year
	`)
	if err != nil {
		return nil, fmt.Errorf("summarizing years: %w", err)
	}
	defer rows.Close()

	var out []YearSummary
	for rows.Next() {
		var s YearSummary
		if err := rows.Scan(&s.Year, &s.Papers, &s.Citations, &s.Funded); err != nil {
			return nil, fmt.Errorf("scanning year summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Count returns the total number of publications.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM publications").Scan(&count)
	return count, err
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/lineupscout/festival-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS festivals (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	url        TEXT NOT NULL DEFAULT '',
	favorite   INTEGER NOT NULL DEFAULT 0,
	archived   INTEGER NOT NULL DEFAULT 0,
	notes      TEXT NOT NULL DEFAULT '',
	stage      TEXT NOT NULL DEFAULT '',
	report     TEXT,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_festivals_favorite ON festivals(favorite);
CREATE INDEX IF NOT EXISTS idx_festivals_archived ON festivals(archived);
CREATE INDEX IF NOT EXISTS idx_festivals_stage ON festivals(stage);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertFestival(ctx context.Context, f model.Festival) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO festivals (id, name, url, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, url = excluded.url, updated_at = excluded.updated_at`,
		f.ID, f.Name, f.URL, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: upsert festival %s", f.ID)
}

func (s *SQLiteStore) GetListing(ctx context.Context, festivalID string) (*model.Listing, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, url, favorite, archived, notes, stage, updated_at
		FROM festivals WHERE id = ?`, festivalID)

	var l model.Listing
	err := row.Scan(
		&l.Festival.ID, &l.Festival.Name, &l.Festival.URL,
		&l.Annotation.Favorite, &l.Annotation.Archived,
		&l.Annotation.Notes, &l.Annotation.Stage,
		&l.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get listing %s", festivalID)
	}
	return &l, nil
}

func (s *SQLiteStore) ListListings(ctx context.Context, filter ListFilter) ([]model.Listing, error) {
	query := `SELECT id, name, url, favorite, archived, notes, stage, updated_at FROM festivals WHERE 1=1`
	var args []any
	if filter.Favorite != nil {
		query += ` AND favorite = ?`
		args = append(args, *filter.Favorite)
	}
	if filter.Archived != nil {
		query += ` AND archived = ?`
		args = append(args, *filter.Archived)
	}
	if filter.Stage != "" {
		query += ` AND stage = ?`
		args = append(args, filter.Stage)
	}
	query += ` ORDER BY name`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list festivals")
	}
	defer rows.Close()

	var out []model.Listing
	for rows.Next() {
		var l model.Listing
		if err := rows.Scan(
			&l.Festival.ID, &l.Festival.Name, &l.Festival.URL,
			&l.Annotation.Favorite, &l.Annotation.Archived,
			&l.Annotation.Notes, &l.Annotation.Stage,
			&l.UpdatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan listing")
		}
		out = append(out, l)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate listings")
}

func (s *SQLiteStore) SetAnnotation(ctx context.Context, festivalID string, a model.Annotation) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE festivals SET favorite = ?, archived = ?, notes = ?, stage = ?, updated_at = ?
		WHERE id = ?`,
		a.Favorite, a.Archived, a.Notes, a.Stage, time.Now().UTC(), festivalID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set annotation %s", festivalID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: festival %s not found", festivalID)
	}
	return nil
}

func (s *SQLiteStore) GetReport(ctx context.Context, festivalID string) (model.ResearchReport, error) {
	var report model.ResearchReport
	var raw sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT report FROM festivals WHERE id = ?`, festivalID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return report, nil
	}
	if err != nil {
		return report, eris.Wrapf(err, "sqlite: get report %s", festivalID)
	}
	if !raw.Valid || raw.String == "" {
		return report, nil
	}
	if err := json.Unmarshal([]byte(raw.String), &report); err != nil {
		return report, eris.Wrapf(err, "sqlite: decode report %s", festivalID)
	}
	return report, nil
}

// MergeReport runs a read-modify-write merge inside a transaction so
// concurrent runs for the same festival interleave per field, not per byte.
func (s *SQLiteStore) MergeReport(ctx context.Context, festivalID string, partial model.ResearchReport) (model.ResearchReport, error) {
	var merged model.ResearchReport

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return merged, eris.Wrap(err, "sqlite: begin merge")
	}
	defer tx.Rollback()

	// The festival row may not exist yet when research runs ahead of the
	// scraper; create a bare one so the report has a home.
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO festivals (id, updated_at) VALUES (?, ?) ON CONFLICT(id) DO NOTHING`,
		festivalID, time.Now().UTC(),
	); err != nil {
		return merged, eris.Wrapf(err, "sqlite: ensure festival %s", festivalID)
	}

	var raw sql.NullString
	if err := tx.QueryRowContext(ctx, `SELECT report FROM festivals WHERE id = ?`, festivalID).Scan(&raw); err != nil {
		return merged, eris.Wrapf(err, "sqlite: read report %s", festivalID)
	}

	var stored model.ResearchReport
	if raw.Valid && raw.String != "" {
		if err := json.Unmarshal([]byte(raw.String), &stored); err != nil {
			return merged, eris.Wrapf(err, "sqlite: decode stored report %s", festivalID)
		}
	}

	merged = model.MergeReports(stored, partial)
	encoded, err := json.Marshal(merged)
	if err != nil {
		return merged, eris.Wrap(err, "sqlite: encode merged report")
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE festivals SET report = ?, updated_at = ? WHERE id = ?`,
		string(encoded), time.Now().UTC(), festivalID,
	); err != nil {
		return merged, eris.Wrapf(err, "sqlite: write report %s", festivalID)
	}

	return merged, eris.Wrap(tx.Commit(), "sqlite: commit merge")
}

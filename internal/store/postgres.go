package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/lineupscout/festival-cli/internal/db"
	"github.com/lineupscout/festival-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"upsert_festival": `INSERT INTO festivals (id, name, url, updated_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, url = excluded.url, updated_at = excluded.updated_at`,
	"get_listing": `SELECT id, name, url, favorite, archived, notes, stage, updated_at FROM festivals WHERE id = $1`,
	"get_report":  `SELECT report FROM festivals WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS festivals (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	url        TEXT NOT NULL DEFAULT '',
	favorite   BOOLEAN NOT NULL DEFAULT false,
	archived   BOOLEAN NOT NULL DEFAULT false,
	notes      TEXT NOT NULL DEFAULT '',
	stage      TEXT NOT NULL DEFAULT '',
	report     JSONB,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_festivals_favorite ON festivals(favorite);
CREATE INDEX IF NOT EXISTS idx_festivals_archived ON festivals(archived);
CREATE INDEX IF NOT EXISTS idx_festivals_stage ON festivals(stage);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) UpsertFestival(ctx context.Context, f model.Festival) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO festivals (id, name, url, updated_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET name = excluded.name, url = excluded.url, updated_at = excluded.updated_at`,
		f.ID, f.Name, f.URL, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: upsert festival %s", f.ID)
}

func (s *PostgresStore) GetListing(ctx context.Context, festivalID string) (*model.Listing, error) {
	var l model.Listing
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, url, favorite, archived, notes, stage, updated_at FROM festivals WHERE id = $1`,
		festivalID,
	).Scan(
		&l.Festival.ID, &l.Festival.Name, &l.Festival.URL,
		&l.Annotation.Favorite, &l.Annotation.Archived,
		&l.Annotation.Notes, &l.Annotation.Stage,
		&l.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get listing %s", festivalID)
	}
	return &l, nil
}

func (s *PostgresStore) ListListings(ctx context.Context, filter ListFilter) ([]model.Listing, error) {
	query := `SELECT id, name, url, favorite, archived, notes, stage, updated_at FROM festivals WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Favorite != nil {
		query += fmt.Sprintf(` AND favorite = $%d`, argIdx)
		args = append(args, *filter.Favorite)
		argIdx++
	}
	if filter.Archived != nil {
		query += fmt.Sprintf(` AND archived = $%d`, argIdx)
		args = append(args, *filter.Archived)
		argIdx++
	}
	if filter.Stage != "" {
		query += fmt.Sprintf(` AND stage = $%d`, argIdx)
		args = append(args, filter.Stage)
		argIdx++
	}
	query += ` ORDER BY name`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, argIdx)
		args = append(args, filter.Limit)
		argIdx++
		if filter.Offset > 0 {
			query += fmt.Sprintf(` OFFSET $%d`, argIdx)
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list festivals")
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
			return nil, eris.Wrap(err, "postgres: scan listing")
		}
		out = append(out, l)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list festivals iterate")
}

func (s *PostgresStore) SetAnnotation(ctx context.Context, festivalID string, a model.Annotation) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE festivals SET favorite = $1, archived = $2, notes = $3, stage = $4, updated_at = $5 WHERE id = $6`,
		a.Favorite, a.Archived, a.Notes, a.Stage, time.Now().UTC(), festivalID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set annotation %s", festivalID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: festival %s not found", festivalID)
	}
	return nil
}

func (s *PostgresStore) GetReport(ctx context.Context, festivalID string) (model.ResearchReport, error) {
	var report model.ResearchReport
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT report FROM festivals WHERE id = $1`, festivalID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return report, nil
	}
	if err != nil {
		return report, eris.Wrapf(err, "postgres: get report %s", festivalID)
	}
	if len(raw) == 0 {
		return report, nil
	}
	if err := json.Unmarshal(raw, &report); err != nil {
		return report, eris.Wrapf(err, "postgres: decode report %s", festivalID)
	}
	return report, nil
}

// MergeReport runs a read-modify-write merge inside a transaction.
func (s *PostgresStore) MergeReport(ctx context.Context, festivalID string, partial model.ResearchReport) (model.ResearchReport, error) {
	var merged model.ResearchReport

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return merged, eris.Wrap(err, "postgres: begin merge")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO festivals (id, updated_at) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
		festivalID, time.Now().UTC(),
	); err != nil {
		return merged, eris.Wrapf(err, "postgres: ensure festival %s", festivalID)
	}

	// Row lock serializes concurrent merges for the same festival.
	var raw []byte
	if err := tx.QueryRow(ctx,
		`SELECT report FROM festivals WHERE id = $1 FOR UPDATE`, festivalID,
	).Scan(&raw); err != nil {
		return merged, eris.Wrapf(err, "postgres: read report %s", festivalID)
	}

	var stored model.ResearchReport
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &stored); err != nil {
			return merged, eris.Wrapf(err, "postgres: decode stored report %s", festivalID)
		}
	}

	merged = model.MergeReports(stored, partial)
	encoded, err := json.Marshal(merged)
	if err != nil {
		return merged, eris.Wrap(err, "postgres: encode merged report")
	}

	if _, err := tx.Exec(ctx,
		`UPDATE festivals SET report = $1, updated_at = $2 WHERE id = $3`,
		encoded, time.Now().UTC(), festivalID,
	); err != nil {
		return merged, eris.Wrapf(err, "postgres: write report %s", festivalID)
	}

	return merged, eris.Wrap(tx.Commit(ctx), "postgres: commit merge")
}

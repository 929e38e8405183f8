package snapshot

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/learning-platform/internal/progress"
)

type postgresSlot struct {
	dsn   string
	owner string
	// pool is lazily initialised on first use.
	pool *pgxpool.Pool
}

func newPostgresSlot(dsn, owner string) *postgresSlot {
	return &postgresSlot{dsn: dsn, owner: owner}
}

func (s *postgresSlot) ensurePool(ctx context.Context) error {
	if s.pool != nil {
		return nil
	}
	pool, err := pgxpool.New(ctx, s.dsn)
	if err != nil {
		return err
	}
	s.pool = pool
	return nil
}

// Save upserts the snapshot into a single row per owner.
// Table `progress_snapshots` (owner_id text primary key, payload jsonb,
// updated_at timestamptz) must exist.
func (s *postgresSlot) Save(ctx context.Context, records []progress.Record) error {
	if len(records) == 0 {
		return s.Clear(ctx)
	}
	if err := s.ensurePool(ctx); err != nil {
		return err
	}
	b, err := encode(records)
	if err != nil {
		return err
	}

	const q = `INSERT INTO progress_snapshots (owner_id, payload, updated_at)
	           VALUES ($1, $2, now())
	           ON CONFLICT (owner_id)
	           DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`

	_, err = s.pool.Exec(ctx, q, s.owner, b)
	return err
}

func (s *postgresSlot) Load(ctx context.Context) ([]progress.Record, error) {
	if err := s.ensurePool(ctx); err != nil {
		return nil, err
	}

	var b []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM progress_snapshots WHERE owner_id = $1`, s.owner).Scan(&b)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return decode(b), nil
}

func (s *postgresSlot) Clear(ctx context.Context) error {
	if err := s.ensurePool(ctx); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx,
		`DELETE FROM progress_snapshots WHERE owner_id = $1`, s.owner)
	return err
}

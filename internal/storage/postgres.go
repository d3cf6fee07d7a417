package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	infraconfig "github.com/jameskolean/blog-thumbs/infrastructure/config"
	"github.com/jameskolean/blog-thumbs/internal/domain"
)

const pingTimeout = 5 * time.Second

// NewPostgresConnection opens a pooled connection and verifies it with a ping.
func NewPostgresConnection(ctx context.Context, cfg infraconfig.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if pingErr := db.PingContext(pingCtx); pingErr != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", pingErr)
	}

	return db, nil
}

// PostgresRepository stores counters in the thumbs table.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a repository backed by db.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// All returns every row of the thumbs table.
func (r *PostgresRepository) All(ctx context.Context) ([]domain.Thumb, error) {
	thumbs := []domain.Thumb{}
	query := `SELECT slug, up_count, down_count FROM thumbs ORDER BY slug`

	if err := r.db.SelectContext(ctx, &thumbs, query); err != nil {
		return nil, fmt.Errorf("failed to list thumbs: %w", err)
	}

	return thumbs, nil
}

// BySlug returns the row for slug, or nil when there is none.
func (r *PostgresRepository) BySlug(ctx context.Context, slug string) (*domain.Thumb, error) {
	var thumb domain.Thumb
	query := `SELECT slug, up_count, down_count FROM thumbs WHERE slug = $1`

	err := r.db.GetContext(ctx, &thumb, query, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil //nolint:nilnil // absent rating is not an error
		}
		return nil, fmt.Errorf("failed to get thumb %s: %w", slug, err)
	}

	return &thumb, nil
}

const upsertQuery = `
	INSERT INTO thumbs (slug, up_count, down_count)
	VALUES ($1, $2, $3)
	ON CONFLICT (slug) DO UPDATE SET
		up_count = thumbs.up_count + EXCLUDED.up_count,
		down_count = thumbs.down_count + EXCLUDED.down_count,
		updated_at = NOW()
	RETURNING slug, up_count, down_count
`

// ApplyDeltas upserts every delta in a single transaction. Deltas are
// expected in slug order so concurrent flushes lock rows consistently.
func (r *PostgresRepository) ApplyDeltas(ctx context.Context, deltas []domain.Delta) ([]domain.Thumb, error) {
	if len(deltas) == 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin flush transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	thumbs := make([]domain.Thumb, 0, len(deltas))
	for _, d := range deltas {
		var thumb domain.Thumb
		scanErr := tx.QueryRowxContext(ctx, upsertQuery, d.Slug, d.Up, d.Down).StructScan(&thumb)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to upsert thumb %s: %w", d.Slug, scanErr)
		}
		thumbs = append(thumbs, thumb)
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return nil, fmt.Errorf("failed to commit flush transaction: %w", commitErr)
	}

	return thumbs, nil
}

// Ping checks the database connection.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"

	// Postgres driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/edustack/mentora/internal/profile"
	"github.com/edustack/mentora/store"
)

// DB is a Postgres + pgvector implementation of store.Driver.
type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a Postgres connection for the given profile.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	db, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database: %s", profile.DSN)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	return &DB{db: db, profile: profile}, nil
}

// Migrate creates the pgvector extension and the point schema.
func (d *DB) Migrate(ctx context.Context) error {
	dimensions := d.profile.EmbeddingDimensions

	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS collection (
			name TEXT PRIMARY KEY,
			dimensions INT NOT NULL,
			created_ts BIGINT NOT NULL DEFAULT extract(epoch from now())
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS point (
			collection TEXT NOT NULL REFERENCES collection(name) ON DELETE CASCADE,
			id TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			kind TEXT NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			page INT NOT NULL DEFAULT 0,
			source TEXT NOT NULL DEFAULT '',
			image_path TEXT NOT NULL DEFAULT '',
			topic TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			full_answer TEXT NOT NULL DEFAULT '',
			ts TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (collection, id)
		)`, dimensions),
		`CREATE INDEX IF NOT EXISTS idx_point_collection_kind ON point (collection, kind)`,
	}

	for _, stmt := range stmts {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to migrate schema")
		}
	}
	return nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// placeholder returns the positional parameter for index n (1-based).
func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

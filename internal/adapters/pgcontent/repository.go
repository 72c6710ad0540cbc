// Package pgcontent implements the content repository and its change feed on Postgres.
package pgcontent

import (
	"context"
	"embed"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.trai.ch/stencil/internal/adapters/content"
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports"
	"go.trai.ch/zerr"
)

//go:embed migrations/*.sql
var migrations embed.FS

// NotifyChannel is the channel content changes are announced on.
const NotifyChannel = "stencil_content"

var _ ports.ContentRepository = (*Repository)(nil)

// Repository serves content nodes stored in the content_nodes table.
type Repository struct {
	pool        *pgxpool.Pool
	searchPaths []string
}

// Open connects to the database at dsn and applies pending migrations.
func Open(ctx context.Context, dsn string, searchPaths []string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrDatabaseConnectFailed.Error())
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, zerr.Wrap(err, domain.ErrDatabaseConnectFailed.Error())
	}
	if err := migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Repository{pool: pool, searchPaths: searchPaths}, nil
}

func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer func() { _ = db.Close() }()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return zerr.Wrap(err, domain.ErrMigrationFailed.Error())
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return zerr.Wrap(err, domain.ErrMigrationFailed.Error())
	}
	return nil
}

// Close releases the connection pool.
func (r *Repository) Close() {
	r.pool.Close()
}

// Stat returns the node at p.
func (r *Repository) Stat(ctx context.Context, p string) (domain.Location, bool, error) {
	var modified time.Time
	err := r.pool.QueryRow(ctx, `SELECT modified_at FROM content_nodes WHERE path = $1`, p).Scan(&modified)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Location{}, false, nil
	}
	if err != nil {
		return domain.Location{}, false, zerr.With(zerr.Wrap(err, domain.ErrContentLookupFailed.Error()), "path", p)
	}
	return domain.Location{Path: p, Modified: modified}, true, nil
}

// Read returns the body of the node at p.
func (r *Repository) Read(ctx context.Context, p string) ([]byte, error) {
	var body []byte
	err := r.pool.QueryRow(ctx, `SELECT body FROM content_nodes WHERE path = $1`, p).Scan(&body)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrContentReadFailed.Error()), "path", p)
	}
	return body, nil
}

// Resolve looks name up next to base and then under every search path.
func (r *Repository) Resolve(ctx context.Context, base, name string) (domain.Location, bool, error) {
	for _, candidate := range content.Candidates(base, name, r.searchPaths) {
		loc, ok, err := r.Stat(ctx, candidate)
		if err != nil || ok {
			return loc, ok, err
		}
	}
	return domain.Location{}, false, nil
}

// Put creates or replaces the node at p.
func (r *Repository) Put(ctx context.Context, p string, body []byte) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO content_nodes (path, body, modified_at) VALUES ($1, $2, now())
		ON CONFLICT (path) DO UPDATE SET body = EXCLUDED.body, modified_at = now()`, p, body)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrContentLookupFailed.Error()), "path", p)
	}
	return nil
}

// Delete removes the node at p.
func (r *Repository) Delete(ctx context.Context, p string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM content_nodes WHERE path = $1`, p); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrContentLookupFailed.Error()), "path", p)
	}
	return nil
}

// Feed returns a change feed listening on the repository's database.
func (r *Repository) Feed(logger ports.Logger) *Feed {
	return NewFeed(r.pool, logger)
}

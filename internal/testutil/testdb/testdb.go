//go:build integration

// Package testdb starts a throwaway PostgreSQL container with every migration applied.
package testdb

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/noah-isme/sma-adp-web/pkg/database"
)

// Handle owns the container and the connection pool.
type Handle struct {
	DB   *sqlx.DB
	stop func(context.Context) error
}

// Close releases the pool and terminates the container.
func (h *Handle) Close() {
	if h.DB != nil {
		_ = h.DB.Close()
	}
	if h.stop != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = h.stop(ctx)
	}
}

// Start runs postgres:16-alpine and applies the embedded goose migrations.
func Start(ctx context.Context) (*Handle, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	pg, err := postgres.RunContainer(ctx,
		tc.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("sma_adp"),
		postgres.WithUsername("sma"),
		postgres.WithPassword("sma"),
		tc.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(time.Minute)),
	)
	if err != nil {
		return nil, err
	}

	uri, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pg.Terminate(context.Background())
		return nil, err
	}
	db, err := sqlx.Open("postgres", uri)
	if err != nil {
		_ = pg.Terminate(context.Background())
		return nil, err
	}
	if err := waitReady(ctx, db); err != nil {
		_ = db.Close()
		_ = pg.Terminate(context.Background())
		return nil, err
	}
	if err := database.Migrate(ctx, db.DB); err != nil {
		_ = db.Close()
		_ = pg.Terminate(context.Background())
		return nil, err
	}
	return &Handle{DB: db, stop: pg.Terminate}, nil
}

func waitReady(ctx context.Context, db *sqlx.DB) error {
	deadline := time.Now().Add(20 * time.Second)
	for time.Now().Before(deadline) {
		if err := db.PingContext(ctx); err == nil {
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return errors.New("database not ready")
}

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// TxQuerier is implemented by both pgxpool.Pool and pgx.Tx.
// Repository methods that need transaction support should accept TxQuerier.
type TxQuerier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// NewPool creates a PostgreSQL connection pool with retry logic.
// Retries with exponential backoff: 1s, 2s, 4s, 8s, 16s (total ~31s before failure).
func NewPool(ctx context.Context, dsn string, maxRetries int) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	var err error

	// Ensure at least one attempt even if maxRetries is 0
	attempts := maxRetries
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		pool, err = pgxpool.New(ctx, dsn)
		if err == nil {
			// Verify connection actually works
			if pingErr := pool.Ping(ctx); pingErr == nil {
				log.Info().Msg("database connection established")
				return pool, nil
			} else {
				pool.Close()
				err = fmt.Errorf("ping failed: %w", pingErr)
			}
		}

		backoff := time.Duration(1<<attempt) * time.Second
		log.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Int("max_retries", maxRetries).
			Dur("next_retry_in", backoff).
			Msg("database connection failed, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, fmt.Errorf("failed to connect after %d attempts: %w", attempts, err)
}

// schema is applied at startup. Statements are idempotent so repeated boots
// against the same database are safe.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS coupons (
		id          BIGSERIAL PRIMARY KEY,
		code        TEXT NOT NULL UNIQUE,
		active      BOOLEAN NOT NULL DEFAULT TRUE,
		claimed_by  TEXT,
		claimed_at  TIMESTAMPTZ,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		CHECK ((claimed_by IS NULL) = (claimed_at IS NULL))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_coupons_available
		ON coupons (id) WHERE active AND claimed_by IS NULL`,
	`CREATE TABLE IF NOT EXISTS claims (
		id           BIGSERIAL PRIMARY KEY,
		claimant_id  TEXT NOT NULL,
		coupon_code  TEXT NOT NULL,
		status       TEXT NOT NULL DEFAULT 'approved'
			CHECK (status IN ('pending', 'approved', 'rejected')),
		ts           TIMESTAMPTZ NOT NULL DEFAULT now(),
		device_info  TEXT NOT NULL DEFAULT '',
		email        TEXT NOT NULL DEFAULT '',
		notes        TEXT NOT NULL DEFAULT '',
		UNIQUE (claimant_id, coupon_code)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_claims_ts ON claims (ts DESC, id DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_claims_claimant ON claims (claimant_id, ts DESC)`,
	`CREATE TABLE IF NOT EXISTS settings (
		id              SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
		cooldown_hours  INT NOT NULL,
		tracking_method TEXT NOT NULL CHECK (tracking_method IN ('ip', 'cookie')),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// EnsureSchema creates the tables and indexes the service needs.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropkit/coupondrop/internal/model"
	"github.com/dropkit/coupondrop/internal/service"
)

// SettingsRepository persists the single-row claim settings.
type SettingsRepository struct {
	pool PoolInterface
}

// NewSettingsRepository creates a new SettingsRepository with the given pool.
func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// NewSettingsRepositoryWithPool creates a new SettingsRepository with a custom pool interface.
// This is primarily used for testing.
func NewSettingsRepositoryWithPool(pool PoolInterface) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// Get returns the current settings, or nil, nil when the row has not been
// seeded yet.
func (r *SettingsRepository) Get(ctx context.Context) (*model.Settings, error) {
	query := `SELECT cooldown_hours, tracking_method, updated_at FROM settings WHERE id = 1`

	var s model.Settings
	err := r.pool.QueryRow(ctx, query).Scan(&s.CooldownHours, &s.TrackingMethod, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, &service.StorageError{Op: "select settings", Err: err}
	}
	return &s, nil
}

// Upsert writes the settings row, creating it on first use.
func (r *SettingsRepository) Upsert(ctx context.Context, s *model.Settings) error {
	query := `INSERT INTO settings (id, cooldown_hours, tracking_method, updated_at)
		VALUES (1, $1, $2, now())
		ON CONFLICT (id) DO UPDATE
		SET cooldown_hours = EXCLUDED.cooldown_hours,
		    tracking_method = EXCLUDED.tracking_method,
		    updated_at = now()`

	if _, err := r.pool.Exec(ctx, query, s.CooldownHours, s.TrackingMethod); err != nil {
		return &service.StorageError{Op: "upsert settings", Err: err}
	}
	return nil
}

// SeedDefault inserts the settings row only when none exists, so a restart
// never clobbers admin changes.
func (r *SettingsRepository) SeedDefault(ctx context.Context, s *model.Settings) error {
	query := `INSERT INTO settings (id, cooldown_hours, tracking_method)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO NOTHING`

	if _, err := r.pool.Exec(ctx, query, s.CooldownHours, s.TrackingMethod); err != nil {
		return &service.StorageError{Op: "seed settings", Err: err}
	}
	return nil
}

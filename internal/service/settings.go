package service

import (
	"context"
	"fmt"

	"github.com/dropkit/coupondrop/internal/model"
)

// SettingsStore defines the persistence operations for claim settings.
type SettingsStore interface {
	Get(ctx context.Context) (*model.Settings, error)
	Upsert(ctx context.Context, s *model.Settings) error
	SeedDefault(ctx context.Context, s *model.Settings) error
}

// SettingsService exposes the admin-tunable claim settings. Reads always hit
// the store so a cooldown change applies to the very next eligibility check;
// there is no in-process cache to go stale.
type SettingsService struct {
	store    SettingsStore
	fallback model.Settings
}

// NewSettingsService creates a SettingsService. The fallback values are used
// when the settings row is missing (fresh database) and to seed it at startup.
func NewSettingsService(store SettingsStore, fallback model.Settings) *SettingsService {
	return &SettingsService{store: store, fallback: fallback}
}

// Seed writes the fallback settings if no row exists yet. Called once at
// startup; admin changes are never overwritten.
func (s *SettingsService) Seed(ctx context.Context) error {
	seed := s.fallback
	if err := s.store.SeedDefault(ctx, &seed); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	return nil
}

// Current returns the effective settings.
func (s *SettingsService) Current(ctx context.Context) (*model.Settings, error) {
	stored, err := s.store.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if stored == nil {
		fallback := s.fallback
		return &fallback, nil
	}
	return stored, nil
}

// Update validates and persists new settings.
func (s *SettingsService) Update(ctx context.Context, req *model.UpdateSettingsRequest) (*model.Settings, error) {
	if req == nil || req.CooldownHours == nil {
		return nil, ErrInvalidRequest
	}
	if *req.CooldownHours < 1 {
		return nil, ErrInvalidRequest
	}
	if req.TrackingMethod != "ip" && req.TrackingMethod != "cookie" {
		return nil, ErrInvalidRequest
	}

	next := &model.Settings{
		CooldownHours:  *req.CooldownHours,
		TrackingMethod: req.TrackingMethod,
	}
	if err := s.store.Upsert(ctx, next); err != nil {
		return nil, fmt.Errorf("update settings: %w", err)
	}
	return s.Current(ctx)
}

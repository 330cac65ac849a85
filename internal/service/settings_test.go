package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropkit/coupondrop/internal/model"
)

// mockSettingsStore is a mock implementation of SettingsStore.
type mockSettingsStore struct {
	getFn         func(ctx context.Context) (*model.Settings, error)
	upsertFn      func(ctx context.Context, s *model.Settings) error
	seedDefaultFn func(ctx context.Context, s *model.Settings) error
}

func (m *mockSettingsStore) Get(ctx context.Context) (*model.Settings, error) {
	if m.getFn != nil {
		return m.getFn(ctx)
	}
	return nil, nil
}

func (m *mockSettingsStore) Upsert(ctx context.Context, s *model.Settings) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, s)
	}
	return nil
}

func (m *mockSettingsStore) SeedDefault(ctx context.Context, s *model.Settings) error {
	if m.seedDefaultFn != nil {
		return m.seedDefaultFn(ctx, s)
	}
	return nil
}

func intPtr(i int) *int { return &i }

func TestSettingsService_Current_FallsBackWhenUnseeded(t *testing.T) {
	svc := NewSettingsService(&mockSettingsStore{}, model.Settings{CooldownHours: 24, TrackingMethod: "ip"})

	settings, err := svc.Current(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 24, settings.CooldownHours)
	assert.Equal(t, "ip", settings.TrackingMethod)
}

func TestSettingsService_Current_PrefersStoredValue(t *testing.T) {
	store := &mockSettingsStore{
		getFn: func(ctx context.Context) (*model.Settings, error) {
			return &model.Settings{CooldownHours: 6, TrackingMethod: "cookie"}, nil
		},
	}
	svc := NewSettingsService(store, model.Settings{CooldownHours: 24, TrackingMethod: "ip"})

	settings, err := svc.Current(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 6, settings.CooldownHours)
	assert.Equal(t, "cookie", settings.TrackingMethod)
}

func TestSettingsService_Update_Persists(t *testing.T) {
	var stored *model.Settings
	store := &mockSettingsStore{
		upsertFn: func(ctx context.Context, s *model.Settings) error {
			stored = s
			return nil
		},
		getFn: func(ctx context.Context) (*model.Settings, error) {
			return stored, nil
		},
	}
	svc := NewSettingsService(store, model.Settings{CooldownHours: 24, TrackingMethod: "ip"})

	settings, err := svc.Update(context.Background(), &model.UpdateSettingsRequest{
		CooldownHours:  intPtr(12),
		TrackingMethod: "cookie",
	})

	require.NoError(t, err)
	assert.Equal(t, 12, settings.CooldownHours)
	assert.Equal(t, "cookie", settings.TrackingMethod)
}

func TestSettingsService_Update_Invalid(t *testing.T) {
	svc := NewSettingsService(&mockSettingsStore{}, model.Settings{CooldownHours: 24, TrackingMethod: "ip"})

	testCases := []struct {
		name string
		req  *model.UpdateSettingsRequest
	}{
		{name: "nil_request", req: nil},
		{name: "missing_cooldown", req: &model.UpdateSettingsRequest{TrackingMethod: "ip"}},
		{name: "zero_cooldown", req: &model.UpdateSettingsRequest{CooldownHours: intPtr(0), TrackingMethod: "ip"}},
		{name: "unknown_tracking", req: &model.UpdateSettingsRequest{CooldownHours: intPtr(1), TrackingMethod: "dna"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Update(context.Background(), tc.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRequest))
		})
	}
}

func TestSettingsService_Seed_UsesFallback(t *testing.T) {
	var seeded *model.Settings
	store := &mockSettingsStore{
		seedDefaultFn: func(ctx context.Context, s *model.Settings) error {
			seeded = s
			return nil
		},
	}
	svc := NewSettingsService(store, model.Settings{CooldownHours: 24, TrackingMethod: "ip"})

	require.NoError(t, svc.Seed(context.Background()))
	require.NotNil(t, seeded)
	assert.Equal(t, 24, seeded.CooldownHours)
	assert.Equal(t, "ip", seeded.TrackingMethod)
}

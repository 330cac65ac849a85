//go:build integration

package integration

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminRoutes_RequireToken(t *testing.T) {
	paths := []string{
		"/api/admin/coupons",
		"/api/admin/claims",
		"/api/admin/claims/stats",
		"/api/admin/settings",
	}

	for _, path := range paths {
		resp, err := getJSON(formatURL(path), nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "path %s", path)
		resp.Body.Close()
	}
}

func TestAdminLogin_WrongPassword(t *testing.T) {
	resp, err := postJSON(formatURL("/api/admin/login"), map[string]string{
		"email":    adminEmail,
		"password": "definitely-wrong",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestCouponCRUD(t *testing.T) {
	cleanupTables(t)
	token := loginAdmin(t)

	// Create.
	resp, err := postJSON(formatURL("/api/admin/coupons"), map[string]string{"code": "crud10"}, authHeader(token))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		Coupon struct {
			ID     int64  `json:"id"`
			Code   string `json:"code"`
			Active bool   `json:"active"`
		} `json:"coupon"`
	}
	require.NoError(t, readJSONResponse(resp, &created))
	assert.Equal(t, "CRUD10", created.Coupon.Code)
	assert.True(t, created.Coupon.Active)

	// Duplicate create conflicts, even with different casing.
	resp, err = postJSON(formatURL("/api/admin/coupons"), map[string]string{"code": "CRUD10"}, authHeader(token))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Deactivate.
	resp, err = patchJSON(formatURL(fmt.Sprintf("/api/admin/coupons/%d", created.Coupon.ID)),
		map[string]bool{"isActive": false}, authHeader(token))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// List reflects the toggle.
	resp, err = getJSON(formatURL("/api/admin/coupons"), authHeader(token))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var coupons []struct {
		ID     int64  `json:"id"`
		Active bool   `json:"active"`
		Code   string `json:"code"`
	}
	require.NoError(t, readJSONResponse(resp, &coupons))
	require.Len(t, coupons, 1)
	assert.False(t, coupons[0].Active)

	// Delete.
	resp, err = deleteRequest(formatURL(fmt.Sprintf("/api/admin/coupons/%d", created.Coupon.ID)), authHeader(token))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = getJSON(formatURL("/api/admin/coupons"), authHeader(token))
	require.NoError(t, err)
	var remaining []any
	require.NoError(t, readJSONResponse(resp, &remaining))
	assert.Empty(t, remaining)
}

func TestBulkCreate_AllOrNothing(t *testing.T) {
	cleanupTables(t)
	token := loginAdmin(t)

	seedCoupon(t, "BULK_2", true)

	// One code already exists, so the whole batch must roll back.
	resp, err := postJSON(formatURL("/api/admin/coupons/bulk"),
		map[string][]string{"codes": {"BULK_1", "BULK_2", "BULK_3"}}, authHeader(token))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp, err = getJSON(formatURL("/api/admin/coupons"), authHeader(token))
	require.NoError(t, err)
	var coupons []any
	require.NoError(t, readJSONResponse(resp, &coupons))
	assert.Len(t, coupons, 1, "a failed batch leaves only the pre-existing coupon")

	// A clean batch lands in full.
	resp, err = postJSON(formatURL("/api/admin/coupons/bulk"),
		map[string][]string{"codes": {"BULK_1", "BULK_3"}}, authHeader(token))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp, err = getJSON(formatURL("/api/admin/coupons"), authHeader(token))
	require.NoError(t, err)
	coupons = nil
	require.NoError(t, readJSONResponse(resp, &coupons))
	assert.Len(t, coupons, 3)
}

// Claim history is independent of the inventory lifecycle: deactivating and
// then deleting a coupon that was already claimed leaves its ledger row — and
// the cooldown it drives — untouched.
func TestLedgerSurvivesInventoryLifecycle(t *testing.T) {
	cleanupTables(t)
	token := loginAdmin(t)
	clientIP := "198.51.100.40"

	resp, err := postJSON(formatURL("/api/admin/coupons"), map[string]string{"code": "KEEP10"}, authHeader(token))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		Coupon struct {
			ID int64 `json:"id"`
		} `json:"coupon"`
	}
	require.NoError(t, readJSONResponse(resp, &created))

	// A visitor claims the coupon.
	resp, err = postJSON(formatURL("/api/claim"), nil, map[string]string{"X-Client-IP": clientIP})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Admin deactivates, then deletes, the claimed coupon.
	resp, err = patchJSON(formatURL(fmt.Sprintf("/api/admin/coupons/%d", created.Coupon.ID)),
		map[string]bool{"isActive": false}, authHeader(token))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = deleteRequest(formatURL(fmt.Sprintf("/api/admin/coupons/%d", created.Coupon.ID)), authHeader(token))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// The ledger row is still there.
	resp, err = getJSON(formatURL("/api/admin/claims"), authHeader(token))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var history []struct {
		ClaimantID string `json:"claimant_id"`
		CouponCode string `json:"coupon_code"`
	}
	require.NoError(t, readJSONResponse(resp, &history))
	require.Len(t, history, 1, "deleting the coupon must not touch the ledger")
	assert.Equal(t, clientIP, history[0].ClaimantID)
	assert.Equal(t, "KEEP10", history[0].CouponCode)

	// And it still drives the claimant's cooldown.
	resp, err = getJSON(formatURL("/api/claim/eligibility"), map[string]string{"X-Client-IP": clientIP})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var elig struct {
		CanClaim  bool   `json:"can_claim"`
		PriorCode string `json:"prior_code"`
	}
	require.NoError(t, readJSONResponse(resp, &elig))
	assert.False(t, elig.CanClaim)
	assert.Equal(t, "KEEP10", elig.PriorCode)

	var ledgerRows int
	require.NoError(t, testPool.QueryRow(context.Background(),
		"SELECT COUNT(*) FROM claims WHERE coupon_code = $1", "KEEP10").Scan(&ledgerRows))
	assert.Equal(t, 1, ledgerRows)
}

func TestSettings_RoundTrip(t *testing.T) {
	token := loginAdmin(t)

	resp, err := putJSON(formatURL("/api/admin/settings"),
		map[string]any{"cooldown_hours": 48, "tracking_method": "ip"}, authHeader(token))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = getJSON(formatURL("/api/admin/settings"), authHeader(token))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var settings struct {
		CooldownHours  int    `json:"cooldown_hours"`
		TrackingMethod string `json:"tracking_method"`
	}
	require.NoError(t, readJSONResponse(resp, &settings))
	assert.Equal(t, 48, settings.CooldownHours)
	assert.Equal(t, "ip", settings.TrackingMethod)

	// Restore the default so other tests see the expected window.
	resp, err = putJSON(formatURL("/api/admin/settings"),
		map[string]any{"cooldown_hours": 24, "tracking_method": "ip"}, authHeader(token))
	require.NoError(t, err)
	resp.Body.Close()
}

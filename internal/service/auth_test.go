package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/student-ai-platform/internal/models"
)

func TestAuthLogin(t *testing.T) {
	f := newFixture(t)
	f.srv.Envelope(http.MethodPost, "/api/auth/login", map[string]interface{}{
		"token": "jwt-token",
		"user":  map[string]interface{}{"id": "u1", "walletAddress": "0xabc", "name": "Lan"},
	})

	svc := NewAuthService(f.backend)
	result, err := svc.Login(context.Background(), "0xabc", "0xsig")
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", result.Token)
	assert.Equal(t, "u1", result.User.ID)

	var body map[string]string
	f.srv.LastBody(http.MethodPost, "/api/auth/login", &body)
	assert.Equal(t, map[string]string{"walletAddress": "0xabc", "signature": "0xsig"}, body)
}

func TestAuthLogoutIsSilent(t *testing.T) {
	f := newFixture(t)
	f.srv.JSON(http.MethodPost, "/api/auth/logout", http.StatusUnauthorized, map[string]string{"message": "expired"})

	err := NewAuthService(f.backend).Logout(context.Background())
	require.Error(t, err)
	assert.Empty(t, f.rec.All())
}

func TestAuthProfileVerifyStats(t *testing.T) {
	f := newFixture(t)
	f.srv.Envelope(http.MethodGet, "/api/auth/profile", map[string]interface{}{
		"user": map[string]interface{}{"walletAddress": "0xabc", "email": "a@b.c"},
	})
	f.srv.Envelope(http.MethodPut, "/api/auth/profile", map[string]interface{}{
		"user": map[string]interface{}{"walletAddress": "0xabc", "name": "New"},
	})
	f.srv.Envelope(http.MethodGet, "/api/auth/verify", map[string]string{"userId": "u1", "walletAddress": "0xabc"})
	f.srv.Envelope(http.MethodGet, "/api/auth/stats", map[string]interface{}{
		"stats": map[string]interface{}{"totalTransactions": 4, "accountAge": 12},
	})

	svc := NewAuthService(f.backend)
	ctx := context.Background()

	user, err := svc.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", user.Email)

	updated, err := svc.UpdateProfile(ctx, models.ProfileUpdate{Name: "New"})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Name)

	info, err := svc.Verify(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", info.UserID)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalTransactions)
	assert.Equal(t, 12, stats.AccountAge)
}

func TestAuthUnsuccessfulEnvelope(t *testing.T) {
	f := newFixture(t)
	f.srv.JSON(http.MethodGet, "/api/auth/verify", http.StatusOK, map[string]interface{}{"success": false, "message": "nope"})

	_, err := NewAuthService(f.backend).Verify(context.Background())
	require.Error(t, err)
	assert.Equal(t, "nope", Message(err))
}

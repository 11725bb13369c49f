package service

import (
	"context"
	"net/http"

	"github.com/student-ai-platform/internal/apiclient"
	"github.com/student-ai-platform/internal/models"
)

// AuthService talks to the wallet login endpoints
type AuthService struct {
	backend *apiclient.Client
}

// NewAuthService creates a new auth service
func NewAuthService(backend *apiclient.Client) *AuthService {
	return &AuthService{backend: backend}
}

type loginRequest struct {
	WalletAddress string `json:"walletAddress"`
	Signature     string `json:"signature"`
}

// Login exchanges a wallet signature for a bearer token
func (s *AuthService) Login(ctx context.Context, walletAddress, signature string) (*models.LoginResult, error) {
	var result models.LoginResult
	err := callData(ctx, s.backend, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Body:   loginRequest{WalletAddress: walletAddress, Signature: signature},
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Logout ends the server session. It never notifies: a stale token is expected here.
func (s *AuthService) Logout(ctx context.Context) error {
	return s.backend.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/auth/logout",
		Silent: true,
	}, nil)
}

// Profile returns the authenticated user
func (s *AuthService) Profile(ctx context.Context) (*models.User, error) {
	var result models.ProfileResult
	if err := getData(ctx, s.backend, "/auth/profile", nil, &result); err != nil {
		return nil, err
	}
	return result.User, nil
}

// UpdateProfile saves the editable profile fields
func (s *AuthService) UpdateProfile(ctx context.Context, update models.ProfileUpdate) (*models.User, error) {
	var result models.ProfileResult
	err := callData(ctx, s.backend, apiclient.Request{
		Method: http.MethodPut,
		Path:   "/auth/profile",
		Body:   update,
	}, &result)
	if err != nil {
		return nil, err
	}
	return result.User, nil
}

// Verify checks the stored token against the backend
func (s *AuthService) Verify(ctx context.Context) (*models.TokenInfo, error) {
	var info models.TokenInfo
	if err := getData(ctx, s.backend, "/auth/verify", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Stats returns the account activity counters
func (s *AuthService) Stats(ctx context.Context) (*models.AccountStats, error) {
	var result struct {
		Stats models.AccountStats `json:"stats"`
	}
	if err := getData(ctx, s.backend, "/auth/stats", nil, &result); err != nil {
		return nil, err
	}
	return &result.Stats, nil
}

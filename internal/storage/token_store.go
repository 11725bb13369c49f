package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Persistent keys
const (
	KeyAuthToken     = "auth_token"
	KeyRedirectAfter = "redirect_after_login"
)

// TokenStore is the durable key/value store that survives restarts,
// holding the bearer token and the post-login redirect.
type TokenStore struct {
	db *sql.DB
}

// OpenTokenStore migrates and opens the SQLite store at path
func OpenTokenStore(path string) (*TokenStore, error) {
	if err := RunMigrations(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open token store: %w", err)
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open token store: %w", err)
	}
	return &TokenStore{db: db}, nil
}

// Close closes the database
func (s *TokenStore) Close() error {
	return s.db.Close()
}

// Get returns the value stored under key
func (s *TokenStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key
func (s *TokenStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}

// Delete removes key
func (s *TokenStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

// Token returns the bearer token, or "" when none is stored
func (s *TokenStore) Token(ctx context.Context) (string, error) {
	token, _, err := s.Get(ctx, KeyAuthToken)
	return token, err
}

func (s *TokenStore) SetToken(ctx context.Context, token string) error {
	return s.Set(ctx, KeyAuthToken, token)
}

func (s *TokenStore) ClearToken(ctx context.Context) error {
	return s.Delete(ctx, KeyAuthToken)
}

// Redirect returns the location to resume after the next login
func (s *TokenStore) Redirect(ctx context.Context) (string, error) {
	location, _, err := s.Get(ctx, KeyRedirectAfter)
	return location, err
}

func (s *TokenStore) SetRedirect(ctx context.Context, location string) error {
	return s.Set(ctx, KeyRedirectAfter, location)
}

func (s *TokenStore) ClearRedirect(ctx context.Context) error {
	return s.Delete(ctx, KeyRedirectAfter)
}

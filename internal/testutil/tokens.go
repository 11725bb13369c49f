package testutil

import (
	"context"
	"sync"
)

// MemoryTokens is an in-memory token and redirect store
type MemoryTokens struct {
	mu       sync.Mutex
	token    string
	redirect string
}

func (m *MemoryTokens) Token(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryTokens) SetToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryTokens) ClearToken(context.Context) error {
	return m.SetToken(context.Background(), "")
}

func (m *MemoryTokens) Redirect(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.redirect, nil
}

func (m *MemoryTokens) SetRedirect(_ context.Context, location string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.redirect = location
	return nil
}

func (m *MemoryTokens) ClearRedirect(context.Context) error {
	return m.SetRedirect(context.Background(), "")
}

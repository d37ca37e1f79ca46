package mocks

import (
	"context"
	"sync"
)

// MockStore is a mock implementation of kvstore.Store for testing
type MockStore struct {
	mu     sync.RWMutex
	values map[string]string

	// For tracking calls in tests
	GetCalls    []string
	SetCalls    []SetCall
	RemoveCalls []string
	GetErr      error
	SetErr      error
	RemoveErr   error
}

// SetCall records parameters passed to Set
type SetCall struct {
	Key   string
	Value string
}

// NewMockStore creates a new MockStore
func NewMockStore() *MockStore {
	return &MockStore{
		values: make(map[string]string),
	}
}

// Get returns a stored value
func (m *MockStore) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetCalls = append(m.GetCalls, key)
	if m.GetErr != nil {
		return "", false, m.GetErr
	}
	value, ok := m.values[key]
	return value, ok, nil
}

// Set stores a value
func (m *MockStore) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SetCalls = append(m.SetCalls, SetCall{Key: key, Value: value})
	if m.SetErr != nil {
		return m.SetErr
	}
	m.values[key] = value
	return nil
}

// Remove deletes a value
func (m *MockStore) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RemoveCalls = append(m.RemoveCalls, key)
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	delete(m.values, key)
	return nil
}

// Seed sets a value directly for testing
func (m *MockStore) Seed(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

// Value reads a value directly for testing
func (m *MockStore) Value(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[key]
	return value, ok
}

// Reset clears all values and recorded calls
func (m *MockStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = make(map[string]string)
	m.GetCalls = nil
	m.SetCalls = nil
	m.RemoveCalls = nil
	m.GetErr = nil
	m.SetErr = nil
	m.RemoveErr = nil
}

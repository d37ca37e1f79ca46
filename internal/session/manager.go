// Package session owns the current authenticated identity. Repositories
// register as observers and are told explicitly whenever the identity
// changes, instead of watching shared state.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/example/storefront/internal/infrastructure/kvstore"
)

const storageKey = "last_logged_in_user"

var (
	ErrEmptyUsername = errors.New("username is required")
	ErrEmptyPassword = errors.New("password is required")
)

// State is the lifecycle state of the session.
type State int

const (
	// StateUnknown holds until Restore has checked the persisted marker.
	StateUnknown State = iota
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "Anonymous"
	case StateAuthenticated:
		return "Authenticated"
	}
	return "Unknown"
}

// Observer is notified after every identity change. An empty userID
// means the user signed out and scoped views must be cleared.
type Observer interface {
	OnSessionChange(ctx context.Context, userID string)
}

// Manager holds the session state and the last-logged-in marker.
type Manager struct {
	store kvstore.Store

	mu        sync.RWMutex
	state     State
	username  string
	observers []Observer
}

func NewManager(store kvstore.Store) *Manager {
	return &Manager{store: store, state: StateUnknown}
}

// Register subscribes an observer to identity changes. Call before
// Restore so startup restoration reaches every repository.
func (m *Manager) Register(obs Observer) {
	m.mu.Lock()
	m.observers = append(m.observers, obs)
	m.mu.Unlock()
}

// Restore reads the persisted marker and settles the Unknown state into
// Authenticated or Anonymous. Runs once at startup; later calls are
// no-ops. Marker read failures fall back to Anonymous.
func (m *Manager) Restore(ctx context.Context) {
	m.mu.Lock()
	if m.state != StateUnknown {
		m.mu.Unlock()
		return
	}

	username, ok, err := m.store.Get(ctx, storageKey)
	if err != nil {
		log.Printf("[Session] Failed to restore user: %v", err)
	}
	if ok && username != "" {
		m.state = StateAuthenticated
		m.username = username
	} else {
		m.state = StateAnonymous
	}
	state, user := m.state, m.username
	m.mu.Unlock()

	if state == StateAuthenticated {
		m.notify(ctx, user)
	}
}

// Login validates the mock credentials, persists the marker and
// notifies observers. Any non-empty username/password pair is accepted;
// there is no real credential check.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	if strings.TrimSpace(username) == "" {
		return ErrEmptyUsername
	}
	if password == "" {
		return ErrEmptyPassword
	}

	if err := m.store.Set(ctx, storageKey, username); err != nil {
		return fmt.Errorf("persist login: %w", err)
	}

	m.mu.Lock()
	m.state = StateAuthenticated
	m.username = username
	m.mu.Unlock()

	m.notify(ctx, username)
	return nil
}

// Logout removes the marker and notifies observers so every repository
// clears its scoped view. The session stays authenticated if the marker
// cannot be removed.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.store.Remove(ctx, storageKey); err != nil {
		return fmt.Errorf("clear login marker: %w", err)
	}

	m.mu.Lock()
	m.state = StateAnonymous
	m.username = ""
	m.mu.Unlock()

	m.notify(ctx, "")
	return nil
}

// Username returns the authenticated username, empty when signed out.
func (m *Manager) Username() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.username
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsLoggedIn reports whether a user is authenticated.
func (m *Manager) IsLoggedIn() bool {
	return m.State() == StateAuthenticated
}

func (m *Manager) notify(ctx context.Context, userID string) {
	m.mu.RLock()
	observers := make([]Observer, len(m.observers))
	copy(observers, m.observers)
	m.mu.RUnlock()

	for _, obs := range observers {
		obs.OnSessionChange(ctx, userID)
	}
}

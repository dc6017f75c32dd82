package auth

import (
	"errors"
	"fmt"
	"sync"

	"github.com/zalando/go-keyring"

	"github.com/inkdesk-dev/inkdesk/internal/cli/config"
)

const (
	service = "inkdesk-cli"

	// TokenKey is the fixed name the access token is stored under
	TokenKey = "access_token"
)

// TokenStore holds the bearer token for one backend.
// Get returns an empty string when no token is stored.
type TokenStore interface {
	Get() (string, error)
	Set(token string) error
	Clear() error
}

// KeyringStore persists the token in the OS keychain/credential manager
type KeyringStore struct {
	service string
}

// NewKeyringStore returns a keychain-backed store namespaced by the server URL
func NewKeyringStore(serverURL string) *KeyringStore {
	return &KeyringStore{service: serviceName(serverURL)}
}

// serviceName scopes the keychain entry per server (scheme, host and path) so
// several backends can be logged in at once
func serviceName(serverURL string) string {
	return fmt.Sprintf("%s:%s", service, config.ServerKey(serverURL))
}

// Get retrieves the token from the OS keychain
func (k *KeyringStore) Get() (string, error) {
	token, err := keyring.Get(k.service, TokenKey)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}

// Set saves the token in the OS keychain
func (k *KeyringStore) Set(token string) error {
	if err := keyring.Set(k.service, TokenKey, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// Clear removes the token from the OS keychain
func (k *KeyringStore) Clear() error {
	if err := keyring.Delete(k.service, TokenKey); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// MemoryStore keeps the token for the lifetime of the process only
type MemoryStore struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryStore returns an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Get() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}

func (m *MemoryStore) Set(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

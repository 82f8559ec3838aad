package credentials

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/zalando/go-keyring"
)

// ErrKeyringNotAvailable is returned when no OS keyring backend can be
// reached, for example on headless servers without a Secret Service.
var ErrKeyringNotAvailable = errors.New("system keyring not available")

// systemKeyring is the real keyring implementation using the OS keyring
type systemKeyring struct{}

// Set stores a password in the system keyring
func (s *systemKeyring) Set(service, account, password string) error {
	if err := keyring.Set(service, account, password); err != nil {
		if isKeyringUnavailable(err) {
			return ErrKeyringNotAvailable
		}
		return err
	}
	return nil
}

// Get retrieves a password from the system keyring
func (s *systemKeyring) Get(service, account string) (string, error) {
	password, err := keyring.Get(service, account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("password not found for %s/%s", service, account)
		}
		if isKeyringUnavailable(err) {
			return "", ErrKeyringNotAvailable
		}
		return "", err
	}
	return password, nil
}

// Delete removes a password from the system keyring
func (s *systemKeyring) Delete(service, account string) error {
	if err := keyring.Delete(service, account); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("password not found for %s/%s", service, account)
		}
		if isKeyringUnavailable(err) {
			return ErrKeyringNotAvailable
		}
		return err
	}
	return nil
}

// isKeyringUnavailable reports whether the error means the environment has no
// usable keyring backend rather than a bad entry. go-keyring surfaces these as
// platform or D-Bus errors.
func isKeyringUnavailable(err error) bool {
	if errors.Is(err, keyring.ErrUnsupportedPlatform) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "org.freedesktop.secrets") ||
		strings.Contains(msg, "dbus") ||
		strings.Contains(msg, "secret service")
}

// disabledKeyring is used when the config turns the keyring off. Every
// operation reports the keyring as unavailable so lookups fall through to
// environment variables.
type disabledKeyring struct{}

func (disabledKeyring) Set(service, account, password string) error {
	return ErrKeyringNotAvailable
}

func (disabledKeyring) Get(service, account string) (string, error) {
	return "", ErrKeyringNotAvailable
}

func (disabledKeyring) Delete(service, account string) error {
	return ErrKeyringNotAvailable
}

// MockKeyring is a test implementation of the Keyring interface
type MockKeyring struct {
	mu    sync.RWMutex
	store map[string]map[string]string // service -> account -> password
}

// NewMockKeyring creates a new mock keyring for testing
func NewMockKeyring() *MockKeyring {
	return &MockKeyring{
		store: make(map[string]map[string]string),
	}
}

// Set stores a password in the mock keyring
func (m *MockKeyring) Set(service, account, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store[service] == nil {
		m.store[service] = make(map[string]string)
	}
	m.store[service][account] = password
	return nil
}

// Get retrieves a password from the mock keyring
func (m *MockKeyring) Get(service, account string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if accounts, ok := m.store[service]; ok {
		if password, ok := accounts[account]; ok {
			return password, nil
		}
	}
	return "", fmt.Errorf("password not found for %s/%s", service, account)
}

// Delete removes a password from the mock keyring
func (m *MockKeyring) Delete(service, account string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if accounts, ok := m.store[service]; ok {
		if _, ok := accounts[account]; ok {
			delete(accounts, account)
			return nil
		}
	}
	return fmt.Errorf("password not found for %s/%s", service, account)
}

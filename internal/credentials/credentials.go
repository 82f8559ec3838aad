// Package credentials provides secure storage and retrieval of the Bring
// account password using the OS-native keyring with fallback to environment
// variables.
package credentials

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Environment variables consulted when the keyring has no entry.
const (
	EnvEmail    = "BRING_EMAIL"
	EnvPassword = "BRING_PASSWORD"
)

// keyringService is the service name entries are stored under.
const keyringService = "openclaw-bring"

// Source indicates where credentials were retrieved from
type Source string

const (
	SourceKeyring     Source = "keyring"
	SourceEnvironment Source = "environment"
	SourceNone        Source = "none"
)

// CredentialInfo contains credential information returned by Get()
type CredentialInfo struct {
	Source   Source // Where credentials came from
	Email    string // Account email
	Password string // Password (masked in display)
	Found    bool   // Whether credentials were found
}

// JSON serializes the credential info. The password is never included.
func (c *CredentialInfo) JSON() ([]byte, error) {
	output := struct {
		Email  string `json:"email"`
		Source string `json:"source"`
		Found  bool   `json:"found"`
	}{
		Email:  c.Email,
		Source: string(c.Source),
		Found:  c.Found,
	}
	return json.Marshal(output)
}

// Keyring is the interface for keyring operations
type Keyring interface {
	Set(service, account, password string) error
	Get(service, account string) (string, error)
	Delete(service, account string) error
}

// Manager handles credential operations
type Manager struct {
	keyring Keyring
}

// ManagerOption is a functional option for Manager
type ManagerOption func(*Manager)

// WithKeyring sets a custom keyring implementation
func WithKeyring(k Keyring) ManagerOption {
	return func(m *Manager) {
		m.keyring = k
	}
}

// WithoutKeyring disables keyring lookups, leaving only environment variables
func WithoutKeyring() ManagerOption {
	return func(m *Manager) {
		m.keyring = disabledKeyring{}
	}
}

// NewManager creates a new credential manager
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		keyring: &systemKeyring{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ResolveEmail returns the account email, preferring BRING_EMAIL over the
// configured value
func ResolveEmail(configEmail string) string {
	if email := os.Getenv(EnvEmail); email != "" {
		return email
	}
	return configEmail
}

// Set stores the password for an account in the keyring
func (m *Manager) Set(ctx context.Context, email, password string) error {
	return m.keyring.Set(keyringService, email, password)
}

// Get retrieves credentials from available sources (keyring first, then
// environment variables)
func (m *Manager) Get(ctx context.Context, email string) (*CredentialInfo, error) {
	// Priority 1: Try keyring
	if email != "" {
		password, err := m.keyring.Get(keyringService, email)
		if err == nil && password != "" {
			return &CredentialInfo{
				Source:   SourceKeyring,
				Email:    email,
				Password: password,
				Found:    true,
			}, nil
		}
	}

	// Priority 2: Try environment variables
	if password := os.Getenv(EnvPassword); password != "" {
		return &CredentialInfo{
			Source:   SourceEnvironment,
			Email:    email,
			Password: password,
			Found:    true,
		}, nil
	}

	// Not found
	return &CredentialInfo{
		Source: SourceNone,
		Email:  email,
		Found:  false,
	}, nil
}

// Delete removes credentials from the keyring
func (m *Manager) Delete(ctx context.Context, email string) error {
	err := m.keyring.Delete(keyringService, email)
	// Idempotent: return nil if not found
	if err != nil && strings.Contains(err.Error(), "not found") {
		return nil
	}
	return err
}

// TerminalReader reads a password from the terminal without echoing it
type TerminalReader interface {
	ReadPassword() (string, error)
}

// PromptPassword prompts for a password and reads it line-wise from reader.
// Used for piped input and testing; interactive callers should prefer
// PromptPasswordWithTTY.
func PromptPassword(reader io.Reader, writer io.Writer, email string) (string, error) {
	_, _ = fmt.Fprintf(writer, "Enter password for %s: ", email)

	scanner := bufio.NewScanner(reader)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("no input received")
}

// PromptPasswordWithTTY prompts for a password using the terminal reader when
// one is available, so the input stays hidden. Without a TTY it falls back to
// reading a line from reader.
func PromptPasswordWithTTY(reader io.Reader, writer io.Writer, email string, tty TerminalReader) (string, error) {
	if tty == nil {
		return PromptPassword(reader, writer, email)
	}

	_, _ = fmt.Fprintf(writer, "Enter password for %s: ", email)
	password, err := tty.ReadPassword()
	// The echo is off while typing, so the newline needs to be printed here
	_, _ = fmt.Fprintln(writer)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(password), nil
}

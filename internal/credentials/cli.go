package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// stdinReader reads a password from the controlling terminal with the echo
// turned off
type stdinReader struct{}

func (stdinReader) ReadPassword() (string, error) {
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", err
	}
	return string(password), nil
}

// NewTerminalReader returns a TerminalReader for stdin when it is a terminal,
// nil otherwise. A nil reader makes the prompt fall back to line input.
func NewTerminalReader() TerminalReader {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return stdinReader{}
	}
	return nil
}

// CLIHandler handles CLI commands for credential management
type CLIHandler struct {
	manager *Manager
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	tty     TerminalReader
}

// NewCLIHandler creates a new CLI handler for credential commands
func NewCLIHandler(manager *Manager, stdin io.Reader, stdout, stderr io.Writer) *CLIHandler {
	return &CLIHandler{
		manager: manager,
		stdin:   stdin,
		stdout:  stdout,
		stderr:  stderr,
	}
}

// WithTerminal sets the terminal reader used for hidden password input
func (h *CLIHandler) WithTerminal(tty TerminalReader) *CLIHandler {
	h.tty = tty
	return h
}

// Set stores the account password in the keyring.
// When prompt is true, it prompts for password input.
func (h *CLIHandler) Set(email string, prompt bool) error {
	var password string
	var err error

	if prompt {
		password, err = PromptPasswordWithTTY(h.stdin, h.stdout, email, h.tty)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	} else {
		return fmt.Errorf("--prompt flag is required for secure password input")
	}

	ctx := context.Background()
	err = h.manager.Set(ctx, email, password)
	if err != nil {
		// Check if keyring is not available and provide helpful guidance
		if errors.Is(err, ErrKeyringNotAvailable) {
			return h.keyringNotAvailableError()
		}
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	_, _ = fmt.Fprintf(h.stdout, "Credentials stored in system keyring\n")
	return nil
}

// keyringNotAvailableError returns a helpful error message when keyring is not available
func (h *CLIHandler) keyringNotAvailableError() error {
	msg := `System keyring not available in this environment.

Alternative: Use environment variables instead:

  export BRING_EMAIL="you@example.com"
  export BRING_PASSWORD="your-password"

Environment variables are automatically detected.
Run 'bring credentials list' to verify credentials are detected.
`
	return errors.New(msg)
}

// Get retrieves and displays credential information
func (h *CLIHandler) Get(email string, jsonOutput bool) error {
	ctx := context.Background()
	info, err := h.manager.Get(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to get credentials: %w", err)
	}

	if jsonOutput {
		return h.outputGetJSON(info)
	}

	return h.outputGetText(info)
}

// outputGetJSON outputs credential info as JSON
func (h *CLIHandler) outputGetJSON(info *CredentialInfo) error {
	jsonBytes, err := info.JSON()
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(h.stdout, string(jsonBytes))
	return nil
}

// outputGetText outputs credential info as text
func (h *CLIHandler) outputGetText(info *CredentialInfo) error {
	if !info.Found {
		_, _ = fmt.Fprintf(h.stdout, "No credentials found for %s\n", info.Email)
		_, _ = fmt.Fprintf(h.stdout, "Searched:\n")
		_, _ = fmt.Fprintf(h.stdout, "  - System keyring: Not found\n")
		_, _ = fmt.Fprintf(h.stdout, "  - Environment variables: Not found\n")
		_, _ = fmt.Fprintf(h.stdout, "\nSuggestion: Run 'bring credentials set %s --prompt'\n", info.Email)
		return nil
	}

	_, _ = fmt.Fprintf(h.stdout, "Source: %s\n", info.Source)
	_, _ = fmt.Fprintf(h.stdout, "Email: %s\n", info.Email)
	_, _ = fmt.Fprintf(h.stdout, "Password: ******** (hidden)\n")
	_, _ = fmt.Fprintf(h.stdout, "Status: Available\n")
	return nil
}

// Delete removes the account password from the keyring
func (h *CLIHandler) Delete(email string) error {
	ctx := context.Background()
	err := h.manager.Delete(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to delete credentials: %w", err)
	}

	_, _ = fmt.Fprintf(h.stdout, "Credentials removed from system keyring\n")
	return nil
}

// List displays the credential status for the configured account
func (h *CLIHandler) List(email string, jsonOutput bool) error {
	ctx := context.Background()
	info, err := h.manager.Get(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to list credentials: %w", err)
	}

	if jsonOutput {
		return h.outputListJSON(info)
	}

	return h.outputListText(info)
}

// outputListJSON outputs the account status as JSON
func (h *CLIHandler) outputListJSON(info *CredentialInfo) error {
	type statusJSON struct {
		Email          string `json:"email"`
		HasCredentials bool   `json:"has_credentials"`
		Source         string `json:"source,omitempty"`
	}

	entry := statusJSON{
		Email:          info.Email,
		HasCredentials: info.Found,
	}
	if info.Found {
		entry.Source = string(info.Source)
	}

	jsonBytes, err := json.Marshal([]statusJSON{entry})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(h.stdout, string(jsonBytes))
	return nil
}

// outputListText outputs the account status as text
func (h *CLIHandler) outputListText(info *CredentialInfo) error {
	_, _ = fmt.Fprintf(h.stdout, "Account Credentials:\n\n")
	_, _ = fmt.Fprintf(h.stdout, "%-30s %-15s %s\n", "EMAIL", "STATUS", "SOURCE")

	email := info.Email
	if email == "" {
		email = "(not configured)"
	}
	status := "Not configured"
	source := "-"
	if info.Found {
		status = "Available"
		source = string(info.Source)
	}
	_, _ = fmt.Fprintf(h.stdout, "%-30s %-15s %s\n", email, status, source)

	return nil
}

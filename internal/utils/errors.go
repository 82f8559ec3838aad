package utils

import (
	"fmt"
	"strings"
)

// ErrorWithSuggestion wraps an error with a user-friendly suggestion.
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface.
func (e *ErrorWithSuggestion) Error() string {
	return fmt.Sprintf("%s\n\nSuggestion: %s", e.Err.Error(), e.Suggestion)
}

// GetSuggestion returns the suggestion text.
func (e *ErrorWithSuggestion) GetSuggestion() string {
	return e.Suggestion
}

// Unwrap returns the underlying error for error chain support.
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// WrapWithSuggestion wraps an existing error with a suggestion.
func WrapWithSuggestion(err error, suggestion string) error {
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// ErrCredentialsNotFound returns an error when no Bring! credentials could
// be resolved from the keyring or the environment.
func ErrCredentialsNotFound() error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("bring credentials not found"),
		Suggestion: "Set BRING_EMAIL and BRING_PASSWORD environment variables or run 'bring credentials set <email> --prompt'",
	}
}

// ErrServiceOffline returns an error when the Bring! API is unreachable with smart suggestions.
func ErrServiceOffline(reason string) error {
	suggestion := getSmartSuggestion(reason)
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("bring service is unreachable: %s", reason),
		Suggestion: suggestion,
	}
}

// getSmartSuggestion returns a context-aware suggestion based on the error reason.
func getSmartSuggestion(reason string) string {
	lowerReason := strings.ToLower(reason)

	if strings.Contains(lowerReason, "no such host") || strings.Contains(lowerReason, "dns") {
		return "Check your DNS settings and internet connection"
	}

	if strings.Contains(lowerReason, "connection refused") {
		return "Check if the server is running and accessible"
	}

	if strings.Contains(lowerReason, "timeout") || strings.Contains(lowerReason, "i/o timeout") {
		return "The server may be slow or unreachable. Try again later"
	}

	return "Check your internet connection and try again"
}

// ErrInvalidItemName returns an error for an unusable item name.
func ErrInvalidItemName() error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("item name cannot be empty"),
		Suggestion: "Provide the item name, e.g. 'bring add Milk'",
	}
}

// ErrInvalidListName returns an error for an unusable list name.
func ErrInvalidListName() error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("list name cannot be empty"),
		Suggestion: "Provide the list name or set default_list in your config file",
	}
}

package utils

import (
	"fmt"
	"strings"
)

// ValidateItemName checks that an item name is usable as an identity key.
// The vendor keys items by name, so an empty or multi-line name would
// create an entry that can never be addressed again.
func ValidateItemName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ErrInvalidItemName()
	}
	if strings.ContainsAny(trimmed, "\n\r") {
		return WrapWithSuggestion(
			fmt.Errorf("item name cannot span multiple lines"),
			"Item names must be a single line",
		)
	}
	return nil
}

// ValidateListName checks that a list name is non-empty after trimming.
func ValidateListName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidListName()
	}
	return nil
}

// Package prompt handles interactive prompts with no-prompt mode support.
// It provides filtered item selection and an interactive add mode with
// field validation.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Superguppi/openclaw-bring-integration/internal/utils"
	"github.com/Superguppi/openclaw-bring-integration/service"
)

// Sentinel errors for prompt operations.
var (
	ErrSelectionCancelled = errors.New("selection cancelled")
	ErrNoPromptMode       = errors.New("interactive prompts disabled (--no-prompt / -y)")
	ErrNoItems            = errors.New("no items available")
	ErrNoMatches          = errors.New("no items match the filter")
)

// ItemSelector provides filtered item selection from a shopping list.
type ItemSelector struct {
	Items    []service.Item
	Prompt   string
	Reader   io.Reader
	Writer   io.Writer
	NoPrompt bool
}

// Run executes the item selection prompt.
// If NoPrompt is true, returns ErrNoPromptMode.
// If there is exactly one item, auto-selects it.
// Otherwise, prompts the user to filter and select an item.
func (s *ItemSelector) Run() (*service.Item, error) {
	if s.NoPrompt {
		return nil, ErrNoPromptMode
	}

	if len(s.Items) == 0 {
		return nil, ErrNoItems
	}

	// Auto-select if only one item
	if len(s.Items) == 1 {
		return &s.Items[0], nil
	}

	writer := s.Writer
	if writer == nil {
		writer = io.Discard
	}

	scanner := bufio.NewScanner(s.Reader)

	// Step 1: Prompt for filter text
	_, _ = fmt.Fprintf(writer, "%s\nFilter (or press Enter to show all): ", s.Prompt)
	if !scanner.Scan() {
		return nil, ErrSelectionCancelled
	}
	filter := strings.TrimSpace(scanner.Text())

	// Step 2: Apply filter
	var filtered []service.Item
	if filter == "" {
		filtered = s.Items
	} else {
		filterLower := strings.ToLower(filter)
		for _, it := range s.Items {
			if strings.Contains(strings.ToLower(it.Name), filterLower) {
				filtered = append(filtered, it)
			}
		}
	}

	if len(filtered) == 0 {
		return nil, ErrNoMatches
	}

	// Auto-select if filter narrows to one
	if len(filtered) == 1 {
		_, _ = fmt.Fprintf(writer, "Auto-selected: %s\n", filtered[0].Name)
		return &filtered[0], nil
	}

	// Step 3: Display filtered items
	for i, it := range filtered {
		_, _ = fmt.Fprintf(writer, "  %d) %s\n", i+1, formatItemLine(it))
	}

	// Step 4: Prompt for selection number
	_, _ = fmt.Fprintf(writer, "Select (0 to cancel): ")
	if !scanner.Scan() {
		return nil, ErrSelectionCancelled
	}

	input := strings.TrimSpace(scanner.Text())
	num, err := strconv.Atoi(input)
	if err != nil {
		return nil, fmt.Errorf("invalid selection: %s", input)
	}

	if num == 0 {
		return nil, ErrSelectionCancelled
	}

	if num < 1 || num > len(filtered) {
		return nil, fmt.Errorf("selection out of range: %d", num)
	}

	return &filtered[num-1], nil
}

// formatItemLine formats an item for display, appending the specification
// when one is set.
func formatItemLine(it service.Item) string {
	if it.Specification == "" {
		return it.Name
	}
	return fmt.Sprintf("%s [%s]", it.Name, it.Specification)
}

// ItemFields holds the field values collected during interactive add mode.
type ItemFields struct {
	Name          string
	Specification string
}

// ItemPrompt provides sequential field prompts with validation for adding
// an item when no name is provided on the command line.
type ItemPrompt struct {
	Reader   io.Reader
	Writer   io.Writer
	NoPrompt bool
}

// Run executes the interactive add mode, prompting for each field sequentially.
// Fields: name (required), specification (amount or brand, optional).
func (p *ItemPrompt) Run() (*ItemFields, error) {
	if p.NoPrompt {
		return nil, ErrNoPromptMode
	}

	writer := p.Writer
	if writer == nil {
		writer = io.Discard
	}

	scanner := bufio.NewScanner(p.Reader)
	fields := &ItemFields{}

	// Name (required, non-empty)
	for {
		_, _ = fmt.Fprint(writer, "Item name (required): ")
		if !scanner.Scan() {
			return nil, errors.New("no input for item name")
		}
		name := strings.TrimSpace(scanner.Text())
		if err := utils.ValidateItemName(name); err != nil {
			_, _ = fmt.Fprintln(writer, "Item name cannot be empty.")
			continue
		}
		fields.Name = name
		break
	}

	// Specification (optional)
	_, _ = fmt.Fprint(writer, "Specification (amount or brand, optional): ")
	if scanner.Scan() {
		fields.Specification = strings.TrimSpace(scanner.Text())
	}

	return fields, nil
}

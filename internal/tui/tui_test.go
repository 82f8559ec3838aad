package tui_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"

	"github.com/Superguppi/openclaw-bring-integration/internal/tui"
	"github.com/Superguppi/openclaw-bring-integration/service"
)

// sendKeyAndWait sends a key message and waits briefly for processing.
// Uses a minimal sleep since teatest messages are processed asynchronously.
func sendKeyAndWait(tm *teatest.TestModel, key tea.KeyMsg) {
	tm.Send(key)
	// Minimal wait for message processing - using small value since this is just
	// for message queue processing, not for visual changes
	time.Sleep(20 * time.Millisecond)
}

// sendRunesAndWait sends a rune key message and waits briefly for processing.
func sendRunesAndWait(tm *teatest.TestModel, runes []rune) {
	sendKeyAndWait(tm, tea.KeyMsg{Type: tea.KeyRunes, Runes: runes})
}

// =============================================================================
// Interactive Shopping Browser Tests
// =============================================================================

// mockService implements tui.Service for testing
type mockService struct {
	mu           sync.Mutex
	lists        []service.ListSummary
	contents     map[string]*service.ListContents
	itemsErr     error
	fetches      int
	forceFetches int
}

func newMockService() *mockService {
	return &mockService{
		lists: []service.ListSummary{
			{ID: "a7f3", Name: "Home", Theme: "ch.publisheria.bring.theme.home"},
			{ID: "b2c9", Name: "Office", Theme: "ch.publisheria.bring.theme.office"},
		},
		contents: map[string]*service.ListContents{
			"Home": {
				ToBuy: []service.Item{
					{Name: "Milk", Specification: "1 liter"},
					{Name: "Bread"},
					{Name: "Eggs", Specification: "10 pack"},
				},
				RecentlyCompleted: []service.Item{
					{Name: "Coffee", Specification: "500g"},
				},
			},
			"Office": {
				ToBuy: []service.Item{
					{Name: "Stapler"},
					{Name: "Printer paper", Specification: "A4"},
				},
			},
		},
	}
}

func (m *mockService) FetchCatalog(_ context.Context, force bool) ([]service.ListSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches++
	if force {
		m.forceFetches++
	}
	// Return a copy to avoid race conditions
	lists := make([]service.ListSummary, len(m.lists))
	copy(lists, m.lists)
	return lists, nil
}

func (m *mockService) Items(_ context.Context, listName string) (*service.ListContents, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.itemsErr != nil {
		return nil, m.itemsErr
	}
	c, ok := m.contents[listName]
	if !ok {
		return &service.ListContents{}, nil
	}
	return &service.ListContents{
		ToBuy:             append([]service.Item(nil), c.ToBuy...),
		RecentlyCompleted: append([]service.Item(nil), c.RecentlyCompleted...),
	}, nil
}

func (m *mockService) AddItem(_ context.Context, listName, itemName, specification string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.contents[listName]
	c.ToBuy = append(c.ToBuy, service.Item{Name: itemName, Specification: specification})
	return nil
}

func (m *mockService) CompleteItem(_ context.Context, listName, itemName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.contents[listName]
	for i, it := range c.ToBuy {
		if it.Name == itemName {
			c.ToBuy = append(c.ToBuy[:i], c.ToBuy[i+1:]...)
			c.RecentlyCompleted = append(c.RecentlyCompleted, it)
			break
		}
	}
	return nil
}

func (m *mockService) RemoveItem(_ context.Context, listName, itemName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.contents[listName]
	for i, it := range c.ToBuy {
		if it.Name == itemName {
			c.ToBuy = append(c.ToBuy[:i], c.ToBuy[i+1:]...)
			break
		}
	}
	return nil
}

// toBuy returns a copy of the current purchase list for assertions.
func (m *mockService) toBuy(listName string) []service.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]service.Item(nil), m.contents[listName].ToBuy...)
}

// recentlyCompleted returns a copy of the purchased section for assertions.
func (m *mockService) recentlyCompleted(listName string) []service.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]service.Item(nil), m.contents[listName].RecentlyCompleted...)
}

func (m *mockService) forcedFetches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.forceFetches
}

func hasItem(items []service.Item, name string) bool {
	for _, it := range items {
		if it.Name == name {
			return true
		}
	}
	return false
}

// readAll reads all output from a reader and returns as bytes
func readAll(t *testing.T, r io.Reader) []byte {
	t.Helper()
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	return out
}

// --- TUI Launch Tests ---

// TestTUILaunch - `bring tui` launches the terminal interface
func TestTUILaunch(t *testing.T) {
	ms := newMockService()
	model := tui.New(ms)

	tm := teatest.NewTestModel(t, model, teatest.WithInitialTermSize(80, 24))

	// Wait for initial render
	time.Sleep(100 * time.Millisecond)

	// Quit the TUI
	sendRunesAndWait(tm, []rune{'q'})

	// The TUI should render without errors
	out := readAll(t, tm.FinalOutput(t, teatest.WithFinalTimeout(time.Second)))
	if len(out) == 0 {
		t.Error("expected TUI to render some output")
	}
}

// --- Section Tests ---

// TestTUISections - To-buy and recently-purchased sections are both rendered
func TestTUISections(t *testing.T) {
	ms := newMockService()
	model := tui.New(ms)

	tm := teatest.NewTestModel(t, model, teatest.WithInitialTermSize(80, 24))

	// Wait for initial render
	time.Sleep(100 * time.Millisecond)

	// Quit
	sendRunesAndWait(tm, []rune{'q'})

	out := readAll(t, tm.FinalOutput(t, teatest.WithFinalTimeout(time.Second)))
	if !bytes.Contains(out, []byte("To buy (3)")) {
		t.Error("expected to-buy section header with item count")
	}
	if !bytes.Contains(out, []byte("Recently purchased (1)")) {
		t.Error("expected recently-purchased section header with item count")
	}
	// Purchased items carry a checked box
	if !bytes.Contains(out, []byte("[x]")) {
		t.Error("expected purchased item marker")
	}
}

// --- List Navigation Tests ---

// TestTUIListNavigation - Arrow keys navigate between shopping lists
func TestTUIListNavigation(t *testing.T) {
	ms := newMockService()
	model := tui.New(ms)

	tm := teatest.NewTestModel(t, model, teatest.WithInitialTermSize(80, 24))

	// Wait for initial render
	time.Sleep(100 * time.Millisecond)

	// Initially should be on first list (Home)
	// Press down to navigate to next list
	sendKeyAndWait(tm, tea.KeyMsg{Type: tea.KeyDown})

	// Wait for the item reload triggered by the list change
	time.Sleep(100 * time.Millisecond)

	// Quit
	sendRunesAndWait(tm, []rune{'q'})

	out := readAll(t, tm.FinalOutput(t, teatest.WithFinalTimeout(time.Second)))
	if !bytes.Contains(out, []byte("Home")) {
		t.Error("expected 'Home' list to be visible")
	}
	if !bytes.Contains(out, []byte("Office")) {
		t.Error("expected 'Office' list to be visible")
	}
	// The item pane should now show the Office list contents
	if !bytes.Contains(out, []byte("Stapler")) {
		t.Error("expected 'Stapler' to be visible after navigation")
	}
}

// --- Item Navigation Tests ---

// TestTUIItemNavigation - Arrow keys navigate between items in the list
func TestTUIItemNavigation(t *testing.T) {
	ms := newMockService()
	model := tui.New(ms)

	tm := teatest.NewTestModel(t, model, teatest.WithInitialTermSize(80, 24))

	// Wait for initial render
	time.Sleep(100 * time.Millisecond)

	// Press Tab to switch focus to the item pane
	sendKeyAndWait(tm, tea.KeyMsg{Type: tea.KeyTab})

	// Use j/k for item navigation (vim-like)
	sendRunesAndWait(tm, []rune{'j'})

	// Quit
	sendRunesAndWait(tm, []rune{'q'})

	out := readAll(t, tm.FinalOutput(t, teatest.WithFinalTimeout(time.Second)))
	if !bytes.Contains(out, []byte("Milk")) {
		t.Error("expected 'Milk' to be visible")
	}
	if !bytes.Contains(out, []byte("Bread")) {
		t.Error("expected 'Bread' to be visible after navigation")
	}
	// Specifications render next to the item name
	if !bytes.Contains(out, []byte("(1 liter)")) {
		t.Error("expected item specification to be visible")
	}
}

// --- Add Item Tests ---

// TestTUIAddItem - Press 'a' to add a new item via input dialog
func TestTUIAddItem(t *testing.T) {
	ms := newMockService()
	model := tui.New(ms)

	tm := teatest.NewTestModel(t, model, teatest.WithInitialTermSize(80, 24))

	// Wait for initial render
	time.Sleep(100 * time.Millisecond)

	// Press 'a' to add a new item
	sendRunesAndWait(tm, []rune{'a'})

	// Type item name and confirm
	for _, r := range "Apples" {
		tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	sendKeyAndWait(tm, tea.KeyMsg{Type: tea.KeyEnter})

	// Wait for the add round trip and the item reload
	time.Sleep(100 * time.Millisecond)

	// Quit
	sendRunesAndWait(tm, []rune{'q'})

	out := readAll(t, tm.FinalOutput(t, teatest.WithFinalTimeout(time.Second)))
	if !bytes.Contains(out, []byte("Apples")) {
		t.Error("expected new item to appear in list")
	}
	if !hasItem(ms.toBuy("Home"), "Apples") {
		t.Error("expected item to be added to the remote list")
	}
}

// TestTUIAddItemWithSpecification - "name: amount" input splits into item and specification
func TestTUIAddItemWithSpecification(t *testing.T) {
	ms := newMockService()
	model := tui.New(ms)

	tm := teatest.NewTestModel(t, model, teatest.WithInitialTermSize(80, 24))

	// Wait for initial render
	time.Sleep(100 * time.Millisecond)

	sendRunesAndWait(tm, []rune{'a'})

	for _, r := range "Oat milk: barista edition" {
		tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	sendKeyAndWait(tm, tea.KeyMsg{Type: tea.KeyEnter})

	// Wait for the add round trip and the item reload
	time.Sleep(100 * time.Millisecond)

	sendRunesAndWait(tm, []rune{'q'})

	out := readAll(t, tm.FinalOutput(t, teatest.WithFinalTimeout(time.Second)))
	if !bytes.Contains(out, []byte("(barista edition)")) {
		t.Error("expected specification to render next to the new item")
	}

	var added *service.Item
	for _, it := range ms.toBuy("Home") {
		if it.Name == "Oat milk" {
			item := it // Create a copy
			added = &item
			break
		}
	}
	if added == nil {
		t.Fatal("expected 'Oat milk' to be added without the specification in its name")
	}
	if added.Specification != "barista edition" {
		t.Errorf("expected specification 'barista edition', got %q", added.Specification)
	}
}

// --- Complete Item Tests ---

// TestTUICompleteItem - Press 'c' to mark the selected item as purchased
func TestTUICompleteItem(t *testing.T) {
	ms := newMockService()
	model := tui.New(ms)

	tm := teatest.NewTestModel(t, model, teatest.WithInitialTermSize(80, 24))

	// Wait for initial render
	time.Sleep(100 * time.Millisecond)

	// Switch to the item pane
	sendKeyAndWait(tm, tea.KeyMsg{Type: tea.KeyTab})

	// Press 'c' to complete the selected item (Milk)
	sendRunesAndWait(tm, []rune{'c'})

	// Wait for the complete round trip and the item reload
	time.Sleep(100 * time.Millisecond)

	// Quit
	sendRunesAndWait(tm, []rune{'q'})

	out := readAll(t, tm.FinalOutput(t, teatest.WithFinalTimeout(time.Second)))
	// The purchased section grows from 1 to 2 after the reload
	if !bytes.Contains(out, []byte("Recently purchased (2)")) {
		t.Error("expected purchased section to include the completed item")
	}
	if hasItem(ms.toBuy("Home"), "Milk") {
		t.Error("expected 'Milk' to leave the purchase list")
	}
	if !hasItem(ms.recentlyCompleted("Home"), "Milk") {
		t.Error("expected 'Milk' to move to the purchased section")
	}
}

// --- Remove Item Tests ---

// TestTUIRemoveItem - Press 'd' with confirmation to remove an item
func TestTUIRemoveItem(t *testing.T) {
	ms := newMockService()
	model := tui.New(ms)

	tm := teatest.NewTestModel(t, model, teatest.WithInitialTermSize(80, 24))

	// Wait for initial render
	time.Sleep(100 * time.Millisecond)

	// Switch to the item pane
	sendKeyAndWait(tm, tea.KeyMsg{Type: tea.KeyTab})

	// Press 'd' to remove the selected item (Milk)
	sendRunesAndWait(tm, []rune{'d'})

	// Confirm removal
	sendRunesAndWait(tm, []rune{'y'})

	// Wait for the remove round trip and the item reload
	time.Sleep(100 * time.Millisecond)

	// Quit
	sendRunesAndWait(tm, []rune{'q'})

	out := readAll(t, tm.FinalOutput(t, teatest.WithFinalTimeout(time.Second)))
	// The confirm dialog names the item before anything is sent
	if !bytes.Contains(out, []byte(`Remove "Milk" from the list?`)) {
		t.Error("expected removal confirmation dialog")
	}
	// The status bar count drops from 3 to 2 after the reload
	if !bytes.Contains(out, []byte("(2 to buy)")) {
		t.Error("expected item count to drop after removal")
	}
	if hasItem(ms.toBuy("Home"), "Milk") {
		t.Error("expected 'Milk' to be removed from the remote list")
	}
}

// TestTUIRemoveCancel - Answering 'n' keeps the item on the list
func TestTUIRemoveCancel(t *testing.T) {
	ms := newMockService()
	model := tui.New(ms)

	tm := teatest.NewTestModel(t, model, teatest.WithInitialTermSize(80, 24))

	// Wait for initial render
	time.Sleep(100 * time.Millisecond)

	sendKeyAndWait(tm, tea.KeyMsg{Type: tea.KeyTab})
	sendRunesAndWait(tm, []rune{'d'})

	// Decline
	sendRunesAndWait(tm, []rune{'n'})

	sendRunesAndWait(tm, []rune{'q'})

	tm.WaitFinished(t, teatest.WithFinalTimeout(time.Second))
	if !hasItem(ms.toBuy("Home"), "Milk") {
		t.Error("expected 'Milk' to stay on the list after cancelling")
	}
}

// --- Filter Tests ---

// TestTUIFilterItems - '/' opens the filter dialog
func TestTUIFilterItems(t *testing.T) {
	ms := newMockService()
	model := tui.New(ms)

	tm := teatest.NewTestModel(t, model, teatest.WithInitialTermSize(80, 24))

	// Wait for initial render
	time.Sleep(100 * time.Millisecond)

	// Press '/' to open the filter dialog
	sendRunesAndWait(tm, []rune{'/'})

	// Type search query
	for _, r := range "bread" {
		tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	sendKeyAndWait(tm, tea.KeyMsg{Type: tea.KeyEnter})

	// Wait for the filtered re-render
	time.Sleep(100 * time.Millisecond)

	// Quit
	sendRunesAndWait(tm, []rune{'q'})

	out := readAll(t, tm.FinalOutput(t, teatest.WithFinalTimeout(time.Second)))
	// The active filter shows in the status bar
	if !bytes.Contains(out, []byte("Filter: bread")) {
		t.Error("expected active filter in the status bar")
	}
	// The filtered section counts only matching items
	if !bytes.Contains(out, []byte("To buy (1)")) {
		t.Error("expected filtered to-buy count")
	}
}

// --- Refresh Tests ---

// TestTUIRefresh - 'r' re-fetches the lists from the server
func TestTUIRefresh(t *testing.T) {
	ms := newMockService()
	model := tui.New(ms)

	tm := teatest.NewTestModel(t, model, teatest.WithInitialTermSize(80, 24))

	// Wait for initial render
	time.Sleep(100 * time.Millisecond)

	// Press 'r' to refresh
	sendRunesAndWait(tm, []rune{'r'})

	// Wait for the refresh round trip
	time.Sleep(100 * time.Millisecond)

	// Quit
	sendRunesAndWait(tm, []rune{'q'})

	tm.WaitFinished(t, teatest.WithFinalTimeout(time.Second))
	if ms.forcedFetches() == 0 {
		t.Error("expected refresh to bypass the cached list catalog")
	}
}

// --- Error Tests ---

// TestTUIErrorInStatusBar - Failed operations surface in the status bar
func TestTUIErrorInStatusBar(t *testing.T) {
	ms := newMockService()
	ms.itemsErr = errors.New("network unreachable: api.getbring.com")
	model := tui.New(ms)

	tm := teatest.NewTestModel(t, model, teatest.WithInitialTermSize(80, 24))

	// Wait for the failed item load
	time.Sleep(100 * time.Millisecond)

	// Quit
	sendRunesAndWait(tm, []rune{'q'})

	out := readAll(t, tm.FinalOutput(t, teatest.WithFinalTimeout(time.Second)))
	if !bytes.Contains(out, []byte("network unreachable")) {
		t.Error("expected error message in the status bar")
	}
}

// --- Help Tests ---

// TestTUIKeyBindings - Help panel shows all available key bindings ('?')
func TestTUIKeyBindings(t *testing.T) {
	ms := newMockService()
	model := tui.New(ms)

	tm := teatest.NewTestModel(t, model, teatest.WithInitialTermSize(80, 24))

	// Wait for initial render
	time.Sleep(100 * time.Millisecond)

	// Press '?' to show help
	sendRunesAndWait(tm, []rune{'?'})

	// Quit (escape from help then quit)
	sendKeyAndWait(tm, tea.KeyMsg{Type: tea.KeyEsc})
	sendRunesAndWait(tm, []rune{'q'})

	out := readAll(t, tm.FinalOutput(t, teatest.WithFinalTimeout(time.Second)))
	// Should show key bindings help
	if !bytes.Contains(out, []byte("Key Bindings")) {
		t.Error("expected help panel to show key bindings")
	}
	if !bytes.Contains(out, []byte("Mark item as purchased")) {
		t.Error("expected help panel to describe the complete key")
	}
}

// --- Quit Tests ---

// TestTUIQuit - 'q' exits the TUI gracefully
func TestTUIQuit(t *testing.T) {
	ms := newMockService()
	model := tui.New(ms)

	tm := teatest.NewTestModel(t, model, teatest.WithInitialTermSize(80, 24))

	// Wait for initial render
	time.Sleep(100 * time.Millisecond)

	// Press 'q' to quit
	sendRunesAndWait(tm, []rune{'q'})

	// Should exit without error
	tm.WaitFinished(t, teatest.WithFinalTimeout(time.Second))
}

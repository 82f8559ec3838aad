// Package tui provides a terminal user interface for browsing shopping lists.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Superguppi/openclaw-bring-integration/service"
)

// Service is the subset of session operations the TUI needs.
type Service interface {
	FetchCatalog(ctx context.Context, force bool) ([]service.ListSummary, error)
	Items(ctx context.Context, listName string) (*service.ListContents, error)
	AddItem(ctx context.Context, listName, itemName, specification string) error
	CompleteItem(ctx context.Context, listName, itemName string) error
	RemoveItem(ctx context.Context, listName, itemName string) error
}

// Focus indicates which pane has focus
type Focus int

const (
	FocusLists Focus = iota
	FocusItems
)

// Mode indicates the current input mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeAdd
	ModeFilter
	ModeHelp
	ModeConfirmRemove
)

// Model represents the TUI state
type Model struct {
	svc Service
	ctx context.Context

	// Data
	lists       []service.ListSummary
	contents    *service.ListContents
	filteredIdx []int // indices into contents.ToBuy for filtered view

	// Selection
	listCursor int
	itemCursor int
	focus      Focus

	// Mode and input
	mode      Mode
	textInput textinput.Model
	filter    string

	// Last error or notice, shown in the status bar
	status string

	// UI dimensions
	width  int
	height int

	// Styles
	listPaneStyle  lipgloss.Style
	itemPaneStyle  lipgloss.Style
	selectedStyle  lipgloss.Style
	purchasedStyle lipgloss.Style
	sectionStyle   lipgloss.Style
	helpStyle      lipgloss.Style
	dialogStyle    lipgloss.Style
	statusBarStyle lipgloss.Style
	errorStyle     lipgloss.Style
}

// Message types
type catalogLoadedMsg struct {
	lists []service.ListSummary
}

type itemsLoadedMsg struct {
	contents *service.ListContents
}

// opDoneMsg signals that a mutation succeeded and the list must be reloaded
type opDoneMsg struct{}

type errMsg struct {
	err error
}

// New creates a new TUI model
func New(svc Service) *Model {
	ti := textinput.New()
	ti.Placeholder = "Enter text..."
	ti.CharLimit = 256

	return &Model{
		svc:       svc,
		ctx:       context.Background(),
		textInput: ti,
		focus:     FocusLists,
		mode:      ModeNormal,
		listPaneStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),
		itemPaneStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),
		selectedStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")),
		purchasedStyle: lipgloss.NewStyle().
			Strikethrough(true).
			Foreground(lipgloss.Color("240")),
		sectionStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("110")),
		helpStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		dialogStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2),
		statusBarStyle: lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1),
		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")),
	}
}

// Init initializes the TUI
func (m *Model) Init() tea.Cmd {
	return m.loadCatalog(false)
}

func (m *Model) loadCatalog(force bool) tea.Cmd {
	return func() tea.Msg {
		lists, err := m.svc.FetchCatalog(m.ctx, force)
		if err != nil {
			return errMsg{err}
		}
		return catalogLoadedMsg{lists}
	}
}

func (m *Model) currentListName() string {
	if len(m.lists) == 0 || m.listCursor >= len(m.lists) {
		return ""
	}
	return m.lists[m.listCursor].Name
}

func (m *Model) loadItems() tea.Cmd {
	listName := m.currentListName()
	if listName == "" {
		return nil
	}
	return func() tea.Msg {
		contents, err := m.svc.Items(m.ctx, listName)
		if err != nil {
			return errMsg{err}
		}
		return itemsLoadedMsg{contents}
	}
}

func (m *Model) addItem(name, specification string) tea.Cmd {
	listName := m.currentListName()
	if listName == "" {
		return nil
	}
	return func() tea.Msg {
		if err := m.svc.AddItem(m.ctx, listName, name, specification); err != nil {
			return errMsg{err}
		}
		return opDoneMsg{}
	}
}

func (m *Model) completeItem(name string) tea.Cmd {
	listName := m.currentListName()
	if listName == "" {
		return nil
	}
	return func() tea.Msg {
		if err := m.svc.CompleteItem(m.ctx, listName, name); err != nil {
			return errMsg{err}
		}
		return opDoneMsg{}
	}
}

func (m *Model) removeItem(name string) tea.Cmd {
	listName := m.currentListName()
	if listName == "" {
		return nil
	}
	return func() tea.Msg {
		if err := m.svc.RemoveItem(m.ctx, listName, name); err != nil {
			return errMsg{err}
		}
		return opDoneMsg{}
	}
}

// selectedItem returns the to-buy item under the cursor, or nil.
func (m *Model) selectedItem() *service.Item {
	if m.contents == nil {
		return nil
	}
	if len(m.filteredIdx) == 0 || m.itemCursor >= len(m.filteredIdx) {
		return nil
	}
	return &m.contents.ToBuy[m.filteredIdx[m.itemCursor]]
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case catalogLoadedMsg:
		m.lists = msg.lists
		if m.listCursor >= len(m.lists) {
			m.listCursor = 0
		}
		if len(m.lists) > 0 {
			return m, m.loadItems()
		}
		return m, nil

	case itemsLoadedMsg:
		m.contents = msg.contents
		m.applyFilter()
		return m, nil

	case opDoneMsg:
		m.status = ""
		return m, m.loadItems()

	case errMsg:
		m.status = msg.err.Error()
		return m, nil

	case tea.KeyMsg:
		// Handle mode-specific input
		switch m.mode {
		case ModeAdd:
			return m.handleAddMode(msg)
		case ModeFilter:
			return m.handleFilterMode(msg)
		case ModeHelp:
			return m.handleHelpMode(msg)
		case ModeConfirmRemove:
			return m.handleConfirmRemoveMode(msg)
		}

		// Normal mode key handling
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "tab":
			if m.focus == FocusLists {
				m.focus = FocusItems
			} else {
				m.focus = FocusLists
			}
			return m, nil

		case "up", "k":
			if m.focus == FocusLists {
				if m.listCursor > 0 {
					m.listCursor--
					return m, m.loadItems()
				}
			} else {
				if m.itemCursor > 0 {
					m.itemCursor--
				}
			}
			return m, nil

		case "down", "j":
			if m.focus == FocusLists {
				if m.listCursor < len(m.lists)-1 {
					m.listCursor++
					return m, m.loadItems()
				}
			} else {
				if m.itemCursor < len(m.filteredIdx)-1 {
					m.itemCursor++
				}
			}
			return m, nil

		case "a":
			m.mode = ModeAdd
			m.textInput.Reset()
			m.textInput.Placeholder = "New item (or \"name: amount\")..."
			m.textInput.Focus()
			return m, textinput.Blink

		case "c":
			if it := m.selectedItem(); it != nil {
				return m, m.completeItem(it.Name)
			}
			return m, nil

		case "d":
			if m.selectedItem() != nil {
				m.mode = ModeConfirmRemove
				return m, nil
			}
			return m, nil

		case "r":
			m.status = ""
			return m, m.loadCatalog(true)

		case "/":
			m.mode = ModeFilter
			m.textInput.Reset()
			m.textInput.Placeholder = "Search..."
			m.textInput.Focus()
			return m, textinput.Blink

		case "?":
			m.mode = ModeHelp
			return m, nil
		}
	}

	// Update text input for modes that use it
	if m.mode == ModeAdd || m.mode == ModeFilter {
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleAddMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.Type {
	case tea.KeyEnter:
		value := strings.TrimSpace(m.textInput.Value())
		m.mode = ModeNormal
		if value != "" {
			name, spec := splitItemInput(value)
			return m, m.addItem(name, spec)
		}
		return m, nil

	case tea.KeyEsc:
		m.mode = ModeNormal
		return m, nil
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// splitItemInput splits "Milk: 1 liter" into name and specification.
// Input without a colon is just the name.
func splitItemInput(value string) (string, string) {
	name, spec, found := strings.Cut(value, ":")
	if !found {
		return value, ""
	}
	return strings.TrimSpace(name), strings.TrimSpace(spec)
}

func (m *Model) handleFilterMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.Type {
	case tea.KeyEnter:
		m.filter = m.textInput.Value()
		m.applyFilter()
		m.mode = ModeNormal
		return m, nil

	case tea.KeyEsc:
		m.filter = ""
		m.applyFilter()
		m.mode = ModeNormal
		return m, nil
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m *Model) handleHelpMode(tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = ModeNormal
	return m, nil
}

func (m *Model) handleConfirmRemoveMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.mode = ModeNormal
		if it := m.selectedItem(); it != nil {
			if m.itemCursor >= len(m.filteredIdx)-1 && m.itemCursor > 0 {
				m.itemCursor--
			}
			return m, m.removeItem(it.Name)
		}
		return m, nil

	case "n", "N":
		m.mode = ModeNormal
		return m, nil
	}

	if msg.Type == tea.KeyEsc {
		m.mode = ModeNormal
		return m, nil
	}

	return m, nil
}

func (m *Model) applyFilter() {
	m.filteredIdx = nil
	if m.contents != nil {
		for i, it := range m.contents.ToBuy {
			if m.filter == "" || strings.Contains(strings.ToLower(it.Name), strings.ToLower(m.filter)) {
				m.filteredIdx = append(m.filteredIdx, i)
			}
		}
	}
	if m.itemCursor >= len(m.filteredIdx) {
		m.itemCursor = 0
	}
}

// View renders the TUI
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		m.width = 80
		m.height = 24
	}

	var b strings.Builder

	// Calculate pane widths
	listWidth := m.width / 4
	itemWidth := m.width - listWidth - 4

	// Render list pane
	listContent := m.renderListPane(listWidth - 4)
	listPane := m.listPaneStyle.Width(listWidth).Height(m.height - 4).Render(listContent)

	// Render item pane
	itemContent := m.renderItemPane(itemWidth - 4)
	itemPane := m.itemPaneStyle.Width(itemWidth).Height(m.height - 4).Render(itemContent)

	// Join panes horizontally
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, listPane, itemPane)

	// Status bar
	statusBar := m.renderStatusBar()

	b.WriteString(mainView)
	b.WriteString("\n")
	b.WriteString(statusBar)

	// Overlay dialogs
	switch m.mode {
	case ModeAdd:
		return m.renderAddDialog()
	case ModeFilter:
		return m.renderFilterDialog()
	case ModeHelp:
		return m.renderHelpDialog()
	case ModeConfirmRemove:
		return m.renderConfirmRemoveDialog()
	}

	return b.String()
}

func (m *Model) renderListPane(width int) string {
	var b strings.Builder
	b.WriteString("Lists\n")
	b.WriteString(strings.Repeat("─", width))
	b.WriteString("\n")

	for i, list := range m.lists {
		cursor := " "
		name := list.Name
		if i == m.listCursor && m.focus == FocusLists {
			cursor = ">"
			name = m.selectedStyle.Render(name)
		}
		b.WriteString(cursor + " " + name + "\n")
	}

	return b.String()
}

func (m *Model) renderItemPane(width int) string {
	var b strings.Builder
	b.WriteString("Items\n")
	b.WriteString(strings.Repeat("─", width))
	b.WriteString("\n")

	if m.contents == nil {
		b.WriteString("Loading...\n")
		return b.String()
	}

	b.WriteString(m.sectionStyle.Render(fmt.Sprintf("To buy (%d)", len(m.filteredIdx))))
	b.WriteString("\n")

	if len(m.filteredIdx) == 0 {
		b.WriteString("  (empty)\n")
	}

	for fi, idx := range m.filteredIdx {
		it := m.contents.ToBuy[idx]

		cursor := " "
		line := formatItem(it)
		if fi == m.itemCursor && m.focus == FocusItems {
			cursor = ">"
			line = m.selectedStyle.Render(line)
		}
		b.WriteString(cursor + " [ ] " + line + "\n")
	}

	if len(m.contents.RecentlyCompleted) > 0 {
		b.WriteString("\n")
		b.WriteString(m.sectionStyle.Render(fmt.Sprintf("Recently purchased (%d)", len(m.contents.RecentlyCompleted))))
		b.WriteString("\n")
		for _, it := range m.contents.RecentlyCompleted {
			b.WriteString("  [x] " + m.purchasedStyle.Render(formatItem(it)) + "\n")
		}
	}

	return b.String()
}

// formatItem renders an item with its specification when one is set.
func formatItem(it service.Item) string {
	if it.Specification == "" {
		return it.Name
	}
	return fmt.Sprintf("%s (%s)", it.Name, it.Specification)
}

func (m *Model) renderStatusBar() string {
	left := ""
	if m.status != "" {
		left = m.errorStyle.Render(m.status)
	} else if name := m.currentListName(); name != "" {
		left = name
		if m.contents != nil {
			left = fmt.Sprintf("%s (%d to buy)", name, len(m.contents.ToBuy))
		}
	}

	right := "q:quit  ?:help"
	if m.filter != "" {
		right = "Filter: " + m.filter + "  " + right
	}

	padding := m.width - lipgloss.Width(left) - len(right) - 2
	if padding < 1 {
		padding = 1
	}

	return m.statusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", padding) + right)
}

func (m *Model) renderAddDialog() string {
	title := "Add Item"
	if name := m.currentListName(); name != "" {
		title = "Add Item to " + name
	}

	dialog := m.dialogStyle.Render(
		title + "\n\n" +
			m.textInput.View() + "\n\n" +
			m.helpStyle.Render("Enter: confirm  Esc: cancel"),
	)
	return m.centerDialog(dialog)
}

func (m *Model) renderFilterDialog() string {
	dialog := m.dialogStyle.Render(
		"Search/Filter Items\n\n" +
			m.textInput.View() + "\n\n" +
			m.helpStyle.Render("Enter: filter  Esc: clear"),
	)
	return m.centerDialog(dialog)
}

func (m *Model) renderHelpDialog() string {
	help := `Help - Key Bindings

Navigation:
  j/↓    Move down
  k/↑    Move up
  Tab    Switch focus between lists/items

Actions:
  a      Add item (use "name: amount" for a specification)
  c      Mark item as purchased
  d      Remove item (with confirm)
  r      Refresh lists from the server
  /      Search/filter items

General:
  ?      Show this help
  q      Quit

Press any key to close`

	dialog := m.dialogStyle.Render(help)
	return m.centerDialog(dialog)
}

func (m *Model) renderConfirmRemoveDialog() string {
	prompt := "Remove selected item?"
	if it := m.selectedItem(); it != nil {
		prompt = fmt.Sprintf("Remove %q from the list?", it.Name)
	}

	dialog := m.dialogStyle.Render(
		prompt + "\n\n" +
			m.helpStyle.Render("y: yes  n: no"),
	)
	return m.centerDialog(dialog)
}

func (m *Model) centerDialog(dialog string) string {
	// Get dialog dimensions
	lines := strings.Split(dialog, "\n")
	dialogHeight := len(lines)
	dialogWidth := 0
	for _, line := range lines {
		if len(line) > dialogWidth {
			dialogWidth = len(line)
		}
	}

	// Calculate position
	topPad := (m.height - dialogHeight) / 2
	leftPad := (m.width - dialogWidth) / 2

	if topPad < 0 {
		topPad = 0
	}
	if leftPad < 0 {
		leftPad = 0
	}

	// Build centered output
	var b strings.Builder
	for i := 0; i < topPad; i++ {
		b.WriteString("\n")
	}
	for _, line := range lines {
		b.WriteString(strings.Repeat(" ", leftPad))
		b.WriteString(line)
		b.WriteString("\n")
	}

	return b.String()
}

package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/Superguppi/openclaw-bring-integration/service"
)

// FakeService is an in-memory ListService for exercising the CLI without the
// HTTP client. Mutations follow the vendor semantics: completing moves an
// item to the recently purchased section, adding an existing name updates its
// specification.
//
// The error fields inject failures; set them before running a command.
type FakeService struct {
	mu       sync.Mutex
	lists    []service.ListSummary
	contents map[string]*service.ListContents

	LoginErr   error
	CatalogErr error
	ItemsErr   error

	loginCalls   int
	catalogCalls int
	batchCalls   int
	closeCalls   int
}

// NewFakeService returns a fake seeded with two lists
func NewFakeService() *FakeService {
	f := &FakeService{contents: make(map[string]*service.ListContents)}
	f.AddList(service.ListSummary{ID: "11f3", Name: "Home", Theme: "ch.publisheria.bring.theme.home"})
	f.AddList(service.ListSummary{ID: "9bd0", Name: "Work"})
	f.SetItems("11f3",
		[]service.Item{
			{Name: "Milk", Specification: "1 liter"},
			{Name: "Bread"},
			{Name: "Eggs", Specification: "10 pack"},
		},
		[]service.Item{
			{Name: "Coffee", Specification: "500g"},
		})
	f.SetItems("9bd0",
		[]service.Item{
			{Name: "Stapler"},
		},
		nil)
	return f
}

// NewEmptyFakeService returns a fake with no lists
func NewEmptyFakeService() *FakeService {
	return &FakeService{contents: make(map[string]*service.ListContents)}
}

// AddList registers a list in the account catalog.
func (f *FakeService) AddList(summary service.ListSummary) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists = append(f.lists, summary)
	if _, ok := f.contents[summary.ID]; !ok {
		f.contents[summary.ID] = &service.ListContents{}
	}
}

// SetItems replaces the contents of a list.
func (f *FakeService) SetItems(listID string, toBuy, recentlyCompleted []service.Item) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contents[listID] = &service.ListContents{
		ToBuy:             append([]service.Item(nil), toBuy...),
		RecentlyCompleted: append([]service.Item(nil), recentlyCompleted...),
	}
}

func (f *FakeService) Login(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginCalls++
	return f.LoginErr
}

func (f *FakeService) FetchCatalog(ctx context.Context) ([]service.ListSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.catalogCalls++
	if f.CatalogErr != nil {
		return nil, f.CatalogErr
	}
	out := make([]service.ListSummary, len(f.lists))
	copy(out, f.lists)
	return out, nil
}

func (f *FakeService) FetchItems(ctx context.Context, listID string) (*service.ListContents, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ItemsErr != nil {
		return nil, f.ItemsErr
	}
	contents, err := f.contentsLocked(listID)
	if err != nil {
		return nil, err
	}
	// Return copies so callers cannot mutate fake state
	return &service.ListContents{
		ToBuy:             append([]service.Item(nil), contents.ToBuy...),
		RecentlyCompleted: append([]service.Item(nil), contents.RecentlyCompleted...),
	}, nil
}

func (f *FakeService) AddItem(ctx context.Context, listID, name, specification string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addLocked(listID, name, specification)
}

func (f *FakeService) CompleteItem(ctx context.Context, listID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	contents, err := f.contentsLocked(listID)
	if err != nil {
		return err
	}
	for i, it := range contents.ToBuy {
		if it.Name == name {
			contents.ToBuy = append(contents.ToBuy[:i], contents.ToBuy[i+1:]...)
			contents.RecentlyCompleted = append([]service.Item{it}, contents.RecentlyCompleted...)
			return nil
		}
	}
	return fmt.Errorf("item %s not on list", name)
}

func (f *FakeService) RemoveItem(ctx context.Context, listID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	contents, err := f.contentsLocked(listID)
	if err != nil {
		return err
	}
	contents.ToBuy = dropFakeItem(contents.ToBuy, name)
	contents.RecentlyCompleted = dropFakeItem(contents.RecentlyCompleted, name)
	return nil
}

func (f *FakeService) BatchAddItems(ctx context.Context, listID string, items []service.ItemInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls++
	for _, it := range items {
		if err := f.addLocked(listID, it.Name, it.Specification); err != nil {
			return err
		}
	}
	return nil
}

func (f *FakeService) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeCalls++
	return nil
}

func (f *FakeService) contentsLocked(listID string) (*service.ListContents, error) {
	contents, ok := f.contents[listID]
	if !ok {
		return nil, fmt.Errorf("unknown list %s", listID)
	}
	return contents, nil
}

func (f *FakeService) addLocked(listID, name, specification string) error {
	contents, err := f.contentsLocked(listID)
	if err != nil {
		return err
	}
	for i, it := range contents.ToBuy {
		if it.Name == name {
			contents.ToBuy[i].Specification = specification
			return nil
		}
	}
	contents.ToBuy = append(contents.ToBuy, service.Item{Name: name, Specification: specification})
	return nil
}

func dropFakeItem(items []service.Item, name string) []service.Item {
	out := items[:0]
	for _, it := range items {
		if it.Name != name {
			out = append(out, it)
		}
	}
	return out
}

// ToBuy returns a copy of the open items of a list.
func (f *FakeService) ToBuy(listID string) []service.Item {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]service.Item(nil), f.contents[listID].ToBuy...)
}

// RecentlyCompleted returns a copy of the purchased items of a list.
func (f *FakeService) RecentlyCompleted(listID string) []service.Item {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]service.Item(nil), f.contents[listID].RecentlyCompleted...)
}

// Logins returns how often Login was called.
func (f *FakeService) Logins() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loginCalls
}

// CatalogFetches returns how often the catalog was fetched.
func (f *FakeService) CatalogFetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.catalogCalls
}

// Batches returns how many batch requests were sent.
func (f *FakeService) Batches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.batchCalls
}

// Closes returns how often the connection was closed.
func (f *FakeService) Closes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closeCalls
}

var _ service.ListService = (*FakeService)(nil)

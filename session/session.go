// Package session implements the list resolver between the CLI surface and
// the shopping-list service: a cached catalog, case-insensitive name
// resolution, and an optional default list for operations that omit the
// list name.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/Superguppi/openclaw-bring-integration/internal/utils"
	"github.com/Superguppi/openclaw-bring-integration/service"
)

// Session carries the state of one connected run: the catalog cache and the
// default list identifier. Both live exactly as long as the session; nothing
// is persisted. A Session is safe for concurrent use by multiple goroutines.
type Session struct {
	svc service.ListService

	mu        sync.Mutex
	catalog   []service.ListSummary // nil until the first fetch
	defaultID string
	closed    bool
}

// New creates a session over svc. The service connection is established by
// Login, not here.
func New(svc service.ListService) *Session {
	return &Session{svc: svc}
}

// Login authenticates the underlying service
func (s *Session) Login(ctx context.Context) error {
	return s.svc.Login(ctx)
}

// FetchCatalog returns the account's lists. The cached catalog is reused
// unless it is empty or force is true; then the service is queried and the
// cache replaced. An empty catalog is not an error.
func (s *Session) FetchCatalog(ctx context.Context, force bool) ([]service.ListSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	catalog, err := s.fetchCatalogLocked(ctx, force)
	if err != nil {
		return nil, err
	}

	// Callers get their own copy; the cache must survive whatever they do
	// with the returned slice
	out := make([]service.ListSummary, len(catalog))
	copy(out, catalog)
	return out, nil
}

func (s *Session) fetchCatalogLocked(ctx context.Context, force bool) ([]service.ListSummary, error) {
	if !force && len(s.catalog) > 0 {
		return s.catalog, nil
	}

	utils.Debugf("session: fetching catalog (force=%v)", force)
	lists, err := s.svc.FetchCatalog(ctx)
	if err != nil {
		// Keep whatever was cached; a failed refresh must not wipe state
		return nil, err
	}
	s.catalog = lists

	return s.catalog, nil
}

// FindByName returns the first catalog entry whose name matches
// case-insensitively, or nil when nothing matches
func (s *Session) FindByName(ctx context.Context, name string) (*service.ListSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lst, err := s.findByNameLocked(ctx, name)
	if err != nil || lst == nil {
		return nil, err
	}

	entry := *lst
	return &entry, nil
}

func (s *Session) findByNameLocked(ctx context.Context, name string) (*service.ListSummary, error) {
	lists, err := s.fetchCatalogLocked(ctx, false)
	if err != nil {
		return nil, err
	}
	return service.FindListByName(lists, name), nil
}

// SetDefault resolves name and stores its identifier as the session default.
// Returns whether the list was found; a miss leaves any prior default
// untouched.
func (s *Session) SetDefault(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lst, err := s.findByNameLocked(ctx, name)
	if err != nil {
		return false, err
	}
	if lst == nil {
		return false, nil
	}

	s.defaultID = lst.ID
	utils.Debugf("session: default list set to %s (%s)", lst.Name, lst.ID)

	return true, nil
}

// Resolve turns an optional list name into a list identifier. An empty name
// selects the session default. Misses are service.ErrListNotFound wrapped
// with the name; a missing default is service.ErrNoDefaultList.
func (s *Session) Resolve(ctx context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolveLocked(ctx, name)
}

func (s *Session) resolveLocked(ctx context.Context, name string) (string, error) {
	if name == "" {
		if s.defaultID == "" {
			return "", service.ErrNoDefaultList
		}
		return s.defaultID, nil
	}

	lst, err := s.findByNameLocked(ctx, name)
	if err != nil {
		return "", err
	}
	if lst == nil {
		return "", fmt.Errorf("%w: %q", service.ErrListNotFound, name)
	}

	return lst.ID, nil
}

// Items returns the current contents of a list, always fetched fresh.
// listName may be empty to use the session default. The lock is held only
// while resolving, never across the service call.
func (s *Session) Items(ctx context.Context, listName string) (*service.ListContents, error) {
	id, err := s.Resolve(ctx, listName)
	if err != nil {
		return nil, err
	}
	return s.svc.FetchItems(ctx, id)
}

// AddItem puts one item on a list
func (s *Session) AddItem(ctx context.Context, listName, itemName, specification string) error {
	id, err := s.Resolve(ctx, listName)
	if err != nil {
		return err
	}
	return s.svc.AddItem(ctx, id, itemName, specification)
}

// AddItems adds several normalized items to a list in one batch
func (s *Session) AddItems(ctx context.Context, listName string, items []service.ItemInput) error {
	id, err := s.Resolve(ctx, listName)
	if err != nil {
		return err
	}
	return s.svc.BatchAddItems(ctx, id, items)
}

// CompleteItem moves an item to the recently-completed section of a list
func (s *Session) CompleteItem(ctx context.Context, listName, itemName string) error {
	id, err := s.Resolve(ctx, listName)
	if err != nil {
		return err
	}
	return s.svc.CompleteItem(ctx, id, itemName)
}

// RemoveItem removes an item from a list entirely
func (s *Session) RemoveItem(ctx context.Context, listName, itemName string) error {
	id, err := s.Resolve(ctx, listName)
	if err != nil {
		return err
	}
	return s.svc.RemoveItem(ctx, id, itemName)
}

// NameOf returns the cached display name for a list identifier. Unknown
// identifiers fall back to a generic name, matching how summaries are shown
// for lists that vanished between calls.
func (s *Session) NameOf(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range s.catalog {
		if l.ID == id {
			return l.Name
		}
	}
	return "Shopping List"
}

// Close releases the underlying service connection. Safe to call more than
// once; only the first call reaches the service.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	utils.Debugf("session: closed")
	return s.svc.Close()
}

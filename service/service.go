package service

import (
	"context"
	"strings"
)

// ListSummary describes one shopping list from the account catalog
type ListSummary struct {
	ID    string // vendor-assigned list UUID, stable and opaque
	Name  string // user-facing display name, not guaranteed unique
	Theme string // display hint, may be empty
}

// Item is a single entry on a shopping list. The vendor keys items by name
// within a list; there is no separate item identifier.
type Item struct {
	Name          string
	Specification string // free-form detail such as quantity or brand
}

// ListContents holds the current entries of one list. Contents are fetched
// fresh on every call and never cached.
type ListContents struct {
	ToBuy             []Item
	RecentlyCompleted []Item
}

// ItemInput is the normalized form for items entering the service layer.
// Loose caller input (CLI arguments, batch lines) is converted to this shape
// at the boundary so the transport layer only ever sees one variant.
type ItemInput struct {
	Name          string
	Specification string
}

// ListService defines the interface to the remote shopping-list vendor
type ListService interface {
	// Login authenticates with the vendor and establishes the session
	// used by all subsequent calls. Implementations fail fast on bad
	// credentials and never retry.
	Login(ctx context.Context) error

	// Catalog operations
	FetchCatalog(ctx context.Context) ([]ListSummary, error)

	// Item operations, all addressed by list identifier
	FetchItems(ctx context.Context, listID string) (*ListContents, error)
	AddItem(ctx context.Context, listID, name, specification string) error
	CompleteItem(ctx context.Context, listID, name string) error
	RemoveItem(ctx context.Context, listID, name string) error
	BatchAddItems(ctx context.Context, listID string, items []ItemInput) error

	// Connection management
	Close() error
}

// FindListByName searches for a list by name (case-insensitive) in a catalog
// slice. Returns the first match, or nil if no name matches. Duplicate names
// resolve to the first entry in catalog order.
func FindListByName(lists []ListSummary, name string) *ListSummary {
	for _, l := range lists {
		if strings.EqualFold(l.Name, name) {
			return &l
		}
	}
	return nil
}


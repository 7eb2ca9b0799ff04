package gallery

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ListingStore is the session-scoped, append-only listing collection.
// Implementations must assign ids atomically: no two listings may receive
// the same id even when appends overlap.
type ListingStore interface {
	Append(ctx context.Context, title, contentID, url, price string) (Listing, error)
	Get(ctx context.Context, id int64) (Listing, error)
	List(ctx context.Context) ([]Listing, error)
	Count(ctx context.Context) (int, error)
}

// MemoryStore is an in-memory ListingStore. It is safe for concurrent use;
// listings live for the duration of the session and are never persisted.
type MemoryStore struct {
	mu       sync.RWMutex
	listings []Listing
}

var _ ListingStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append creates a listing with the next monotonic id (previous count + 1)
// and returns it. Id assignment and insertion happen under one lock.
func (s *MemoryStore) Append(_ context.Context, title, contentID, url, price string) (Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	listing := Listing{
		ID:           int64(len(s.listings)) + 1,
		Title:        title,
		ContentID:    contentID,
		RetrievalURL: url,
		AskingPrice:  price,
		CreatedAt:    time.Now().UTC(),
	}
	s.listings = append(s.listings, listing)
	return listing, nil
}

// Get returns a listing by id.
func (s *MemoryStore) Get(_ context.Context, id int64) (Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id < 1 || id > int64(len(s.listings)) {
		return Listing{}, fmt.Errorf("%w: listing %d not found", ErrValidation, id)
	}
	return s.listings[id-1], nil
}

// List returns a snapshot of all listings in insertion order.
func (s *MemoryStore) List(_ context.Context) ([]Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Listing, len(s.listings))
	copy(out, s.listings)
	return out, nil
}

// Count returns the number of listings.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.listings), nil
}

package gallery

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestMemoryStore_AppendAssignsSequentialIDs(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for i := 1; i <= 5; i++ {
		listing, err := store.Append(ctx, "title", "cid", "url", "0.01")
		if err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		if listing.ID != int64(i) {
			t.Errorf("Expected id %d, got %d", i, listing.ID)
		}
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 5 {
		t.Errorf("Expected 5 listings, got %d", count)
	}
}

func TestMemoryStore_Get(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	created, err := store.Append(ctx, "sunset", "QmX", "http://127.0.0.1:8080/ipfs/QmX", "0.05")
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	got, err := store.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Title != "sunset" || got.ContentID != "QmX" {
		t.Errorf("Get returned wrong listing: %+v", got)
	}

	_, err = store.Get(ctx, 99)
	if !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for missing listing, got %v", err)
	}
	_, err = store.Get(ctx, 0)
	if !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for id 0, got %v", err)
	}
}

func TestMemoryStore_ListReturnsSnapshot(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.Append(ctx, "a", "cid-a", "url-a", "0.01"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	listings, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	listings[0].Title = "mutated"

	again, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if again[0].Title != "a" {
		t.Error("List should return a copy, not the backing slice")
	}
}

func TestMemoryStore_ConcurrentAppendsUniqueIDs(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	const n = 100
	var wg sync.WaitGroup
	ids := make(chan int64, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			listing, err := store.Append(ctx, "t", "c", "u", "0.01")
			if err != nil {
				t.Errorf("Append failed: %v", err)
				return
			}
			ids <- listing.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool)
	for id := range ids {
		if seen[id] {
			t.Errorf("Duplicate id assigned: %d", id)
		}
		seen[id] = true
	}
	if len(seen) != n {
		t.Errorf("Expected %d distinct ids, got %d", n, len(seen))
	}
}

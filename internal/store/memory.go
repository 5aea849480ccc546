package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/vyrodovalexey/inventory-catalog/internal/model"
)

// MemoryStore implements Store interface with in-memory storage.
// Items keep their insertion order; Replace keeps the position of the entry.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[int]model.Item
	order []int
}

// NewMemoryStore creates a new MemoryStore holding the given seed items.
// Later seed items with a duplicate ID overwrite earlier ones.
func NewMemoryStore(seed ...model.Item) *MemoryStore {
	s := &MemoryStore{
		items: make(map[int]model.Item, len(seed)),
		order: make([]int, 0, len(seed)),
	}

	for _, item := range seed {
		if _, exists := s.items[item.ID]; !exists {
			s.order = append(s.order, item.ID)
		}
		s.items[item.ID] = item
	}

	return s
}

// List returns all items from the store.
func (s *MemoryStore) List(ctx context.Context) ([]model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("list items: %w", ctx.Err())
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]model.Item, 0, len(s.order))
	for _, id := range s.order {
		items = append(items, s.items[id])
	}

	return items, nil
}

// Get retrieves an item by its ID.
func (s *MemoryStore) Get(ctx context.Context, id int) (*model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("get item: %w", ctx.Err())
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.items[id]
	if !exists {
		return nil, ErrNotFound
	}

	return &item, nil
}

// Insert adds a new item to the store.
func (s *MemoryStore) Insert(ctx context.Context, item model.Item) (*model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("insert item: %w", ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[item.ID]; exists {
		return nil, ErrAlreadyExists
	}

	s.items[item.ID] = item
	s.order = append(s.order, item.ID)

	return &item, nil
}

// Replace overwrites an existing item in the store.
func (s *MemoryStore) Replace(ctx context.Context, item model.Item) (*model.Item, *model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, nil, fmt.Errorf("replace item: %w", ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.items[item.ID]
	if !exists {
		return nil, nil, ErrNotFound
	}

	s.items[item.ID] = item

	return &existing, &item, nil
}

// Remove deletes an item from the store by its ID.
func (s *MemoryStore) Remove(ctx context.Context, id int) (*model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("remove item: %w", ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.items[id]
	if !exists {
		return nil, ErrNotFound
	}

	delete(s.items, id)
	if idx := slices.Index(s.order, id); idx >= 0 {
		s.order = slices.Delete(s.order, idx, idx+1)
	}

	return &item, nil
}

// Len returns the number of items currently held.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.items)
}

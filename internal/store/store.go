// Package store provides data storage interfaces and implementations.
package store

import (
	"context"
	"errors"

	"github.com/vyrodovalexey/inventory-catalog/internal/model"
)

// Store errors.
var (
	ErrNotFound      = errors.New("item not found")
	ErrAlreadyExists = errors.New("item already exists")
)

// Store defines the interface for item storage operations.
type Store interface {
	// List returns all items in store order.
	List(ctx context.Context) ([]model.Item, error)

	// Get retrieves an item by its ID.
	Get(ctx context.Context, id int) (*model.Item, error)

	// Insert adds a new item keyed by its own ID.
	Insert(ctx context.Context, item model.Item) (*model.Item, error)

	// Replace overwrites the item with the same ID and returns the previous and stored values.
	Replace(ctx context.Context, item model.Item) (old *model.Item, updated *model.Item, err error)

	// Remove deletes an item by its ID and returns it.
	Remove(ctx context.Context, id int) (*model.Item, error)
}

// Package model defines data structures used throughout the application.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrMissingField is returned when a request body omits a required item field.
var ErrMissingField = errors.New("field required")

// Item is a catalog record keyed by ID.
type Item struct {
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Count    int      `json:"count"`
	ID       int      `json:"id"`
	Category Category `json:"category"`
}

// ItemInput is the decode shape of an item request body.
// Pointer fields distinguish an omitted field from a zero value.
type ItemInput struct {
	Name     *string   `json:"name"`
	Price    *float64  `json:"price"`
	Count    *int      `json:"count"`
	ID       *int      `json:"id"`
	Category *Category `json:"category"`
}

// UnmarshalJSON decodes an item body. Keys must match the wire names exactly;
// encoding/json would otherwise accept "NAME" for "name". Unknown keys are
// ignored.
func (in *ItemInput) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	targets := []struct {
		key string
		dst any
	}{
		{"name", &in.Name},
		{"price", &in.Price},
		{"count", &in.Count},
		{"id", &in.ID},
		{"category", &in.Category},
	}
	for _, target := range targets {
		raw, ok := fields[target.key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, target.dst); err != nil {
			return fmt.Errorf("%s: %w", target.key, err)
		}
	}

	return nil
}

// Validate checks that every field of the input is present.
func (in *ItemInput) Validate() error {
	switch {
	case in.Name == nil:
		return fmt.Errorf("name: %w", ErrMissingField)
	case in.Price == nil:
		return fmt.Errorf("price: %w", ErrMissingField)
	case in.Count == nil:
		return fmt.Errorf("count: %w", ErrMissingField)
	case in.ID == nil:
		return fmt.Errorf("id: %w", ErrMissingField)
	case in.Category == nil:
		return fmt.Errorf("category: %w", ErrMissingField)
	}

	return nil
}

// ToItem converts a validated input into an Item.
func (in *ItemInput) ToItem() Item {
	return Item{
		Name:     *in.Name,
		Price:    *in.Price,
		Count:    *in.Count,
		ID:       *in.ID,
		Category: *in.Category,
	}
}

// DefaultItems returns the catalog contents loaded at startup.
func DefaultItems() []Item {
	return []Item{
		{Name: "Hammer", Price: 9.99, Count: 20, ID: 0, Category: CategoryTools},
		{Name: "Pliers", Price: 5.99, Count: 20, ID: 1, Category: CategoryTools},
		{Name: "Nails", Price: 1.99, Count: 100, ID: 2, Category: CategoryConsumables},
	}
}

// ListResponse is the body of GET /.
type ListResponse struct {
	Items map[int]Item `json:"items"`
}

// QueryEcho is the normalized query echoed back by the filter endpoint.
// Absent parameters encode as null.
type QueryEcho struct {
	Name     *string   `json:"name"`
	Price    *float64  `json:"price"`
	Count    *int      `json:"count"`
	Category *Category `json:"category"`
}

// QueryResponse is the body of GET /items/.
type QueryResponse struct {
	Query     QueryEcho `json:"query"`
	Selection []Item    `json:"selection"`
}

// AddedResponse is the body of a successful POST /items.
type AddedResponse struct {
	Item Item `json:"Added Item"`
}

// UpdatedResponse is the body of a successful PUT /items/{item_id}.
type UpdatedResponse struct {
	Old Item `json:"Old Item"`
	New Item `json:"New Item"`
}

// DeletedResponse is the body of a successful DELETE /items/{item_id}.
type DeletedResponse struct {
	Item Item `json:"Deleted Item"`
}

// ErrorResponse represents an error response structure.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// EventType identifies the kind of change an ItemEvent carries.
type EventType string

// Item event types.
const (
	EventItemCreated EventType = "created"
	EventItemUpdated EventType = "updated"
	EventItemDeleted EventType = "deleted"
)

// ItemEvent is a change notification sent to event feed subscribers.
type ItemEvent struct {
	Type      EventType `json:"type"`
	Item      Item      `json:"item"`
	Previous  *Item     `json:"previous,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewItemEvent creates an event stamped with the current UTC time.
func NewItemEvent(eventType EventType, item Item, previous *Item) ItemEvent {
	return ItemEvent{
		Type:      eventType,
		Item:      item,
		Previous:  previous,
		Timestamp: time.Now().UTC(),
	}
}

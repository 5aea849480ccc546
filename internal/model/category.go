package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Category is the closed set of item kinds.
type Category string

// Category values as they appear on the wire.
const (
	CategoryTools       Category = "tools"
	CategoryConsumables Category = "consumables"
)

// ErrInvalidCategory is returned for strings outside the Category set.
var ErrInvalidCategory = errors.New("category must be one of: tools, consumables")

// ParseCategory converts a wire string into a Category.
func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case CategoryTools, CategoryConsumables:
		return c, nil
	default:
		return "", fmt.Errorf("%w: got %q", ErrInvalidCategory, s)
	}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, err := ParseCategory(string(c))
	return err == nil
}

// String returns the wire form of the category.
func (c Category) String() string {
	return string(c)
}

// MarshalJSON encodes the category, refusing values outside the set.
func (c Category) MarshalJSON() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("marshal category: %w: got %q", ErrInvalidCategory, string(c))
	}
	return json.Marshal(string(c))
}

// UnmarshalJSON decodes a category string and rejects unknown values.
func (c *Category) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("category must be a string: %w", err)
	}

	parsed, err := ParseCategory(s)
	if err != nil {
		return err
	}

	*c = parsed
	return nil
}

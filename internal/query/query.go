// Package query implements the item filter used by GET /items/.
//
// A Criteria holds one optional constraint per filterable field. An item
// matches when every present constraint holds: name, price and category
// compare for equality, count is a lower bound.
package query

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"

	"github.com/vyrodovalexey/inventory-catalog/internal/model"
)

// Query parameter names.
const (
	ParamName     = "name"
	ParamPrice    = "price"
	ParamCount    = "count"
	ParamCategory = "category"
)

// ErrNonFinite is returned for a price of NaN or ±Inf, which has no JSON encoding.
var ErrNonFinite = errors.New("must be a finite number")

// ParseError reports a query parameter that could not be parsed.
type ParseError struct {
	Param string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("query parameter %s=%q: %v", e.Param, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Criteria is a set of optional item constraints. A nil field imposes no constraint.
type Criteria struct {
	Name     *string
	Price    *float64
	Count    *int
	Category *model.Category
}

// Parse builds Criteria from URL query values. Absent or empty parameters are
// left unset.
func Parse(values url.Values) (Criteria, error) {
	var c Criteria

	if v := values.Get(ParamName); v != "" {
		c.Name = &v
	}

	if v := values.Get(ParamPrice); v != "" {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Criteria{}, &ParseError{Param: ParamPrice, Value: v, Err: err}
		}
		if math.IsNaN(price) || math.IsInf(price, 0) {
			return Criteria{}, &ParseError{Param: ParamPrice, Value: v, Err: ErrNonFinite}
		}
		c.Price = &price
	}

	if v := values.Get(ParamCount); v != "" {
		count, err := strconv.Atoi(v)
		if err != nil {
			return Criteria{}, &ParseError{Param: ParamCount, Value: v, Err: err}
		}
		c.Count = &count
	}

	if v := values.Get(ParamCategory); v != "" {
		category, err := model.ParseCategory(v)
		if err != nil {
			return Criteria{}, &ParseError{Param: ParamCategory, Value: v, Err: err}
		}
		c.Category = &category
	}

	return c, nil
}

// Matches reports whether item satisfies every present constraint.
func (c Criteria) Matches(item model.Item) bool {
	if c.Name != nil && item.Name != *c.Name {
		return false
	}
	if c.Price != nil && item.Price != *c.Price {
		return false
	}
	if c.Count != nil && item.Count < *c.Count {
		return false
	}
	if c.Category != nil && item.Category != *c.Category {
		return false
	}
	return true
}

// Select returns the items matching c, keeping their order. The result is never nil.
func Select(items []model.Item, c Criteria) []model.Item {
	selection := make([]model.Item, 0, len(items))
	for _, item := range items {
		if c.Matches(item) {
			selection = append(selection, item)
		}
	}
	return selection
}

// Echo returns the normalized parameters for the response body.
func (c Criteria) Echo() model.QueryEcho {
	return model.QueryEcho{
		Name:     c.Name,
		Price:    c.Price,
		Count:    c.Count,
		Category: c.Category,
	}
}

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vyrodovalexey/inventory-catalog/internal/model"
)

// Operation result label values.
const (
	resultOK            = "ok"
	resultNotFound      = "not_found"
	resultAlreadyExists = "already_exists"
	resultError         = "error"
)

// lengther is implemented by stores that can report their size cheaply.
type lengther interface {
	Len() int
}

// InstrumentedStore wraps a Store and records Prometheus metrics for every call.
type InstrumentedStore struct {
	next       Store
	operations *prometheus.CounterVec
}

// NewInstrumentedStore wraps next and registers its collectors with reg.
// When next reports its size, an inventory_items gauge is registered as well.
func NewInstrumentedStore(next Store, reg prometheus.Registerer) (*InstrumentedStore, error) {
	operations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_store_operations_total",
			Help: "Total number of item store operations by result",
		},
		[]string{"operation", "result"},
	)
	if err := reg.Register(operations); err != nil {
		return nil, fmt.Errorf("registering store operations counter: %w", err)
	}

	if l, ok := next.(lengther); ok {
		size := prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "inventory_items",
				Help: "Number of items currently held by the store",
			},
			func() float64 { return float64(l.Len()) },
		)
		if err := reg.Register(size); err != nil {
			return nil, fmt.Errorf("registering inventory size gauge: %w", err)
		}
	}

	return &InstrumentedStore{
		next:       next,
		operations: operations,
	}, nil
}

// List returns all items from the wrapped store.
func (s *InstrumentedStore) List(ctx context.Context) ([]model.Item, error) {
	items, err := s.next.List(ctx)
	s.observe("list", err)
	return items, err
}

// Get retrieves an item from the wrapped store.
func (s *InstrumentedStore) Get(ctx context.Context, id int) (*model.Item, error) {
	item, err := s.next.Get(ctx, id)
	s.observe("get", err)
	return item, err
}

// Insert adds an item to the wrapped store.
func (s *InstrumentedStore) Insert(ctx context.Context, item model.Item) (*model.Item, error) {
	created, err := s.next.Insert(ctx, item)
	s.observe("insert", err)
	return created, err
}

// Replace overwrites an item in the wrapped store.
func (s *InstrumentedStore) Replace(ctx context.Context, item model.Item) (*model.Item, *model.Item, error) {
	old, updated, err := s.next.Replace(ctx, item)
	s.observe("replace", err)
	return old, updated, err
}

// Remove deletes an item from the wrapped store.
func (s *InstrumentedStore) Remove(ctx context.Context, id int) (*model.Item, error) {
	item, err := s.next.Remove(ctx, id)
	s.observe("remove", err)
	return item, err
}

func (s *InstrumentedStore) observe(operation string, err error) {
	s.operations.WithLabelValues(operation, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return resultOK
	case errors.Is(err, ErrNotFound):
		return resultNotFound
	case errors.Is(err, ErrAlreadyExists):
		return resultAlreadyExists
	default:
		return resultError
	}
}

// Package memory implements an in-memory order repository.
package memory

import (
	"context"
	"sync"

	"tableorders/pkg/order"
)

// Repository keeps orders in insertion order and hands out increasing ids.
// A single lock guards both the slice and the id counter.
type Repository struct {
	mu     sync.RWMutex
	orders []order.Order
	next   int
}

// New creates an empty repository whose first id is 1.
func New() *Repository {
	return &Repository{next: 1}
}

// Create assigns the next id to o and stores it.
func (r *Repository) Create(ctx context.Context, o order.Order) (order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.append(o).Clone(), nil
}

// Get retrieves an order by ID.
func (r *Repository) Get(ctx context.Context, id int) (order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, o, err := r.find(id)
	if err != nil {
		return order.Order{}, err
	}
	return o.Clone(), nil
}

// List returns the orders matching f in insertion order.
func (r *Repository) List(ctx context.Context, f order.Filter) ([]order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := f.Apply(r.orders)
	for i := range out {
		out[i] = out[i].Clone()
	}
	return out, nil
}

// UpdateStatus replaces the stored order with a copy carrying status s.
func (r *Repository) UpdateStatus(ctx context.Context, id int, s order.Status) (order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pos, o, err := r.find(id)
	if err != nil {
		return order.Order{}, err
	}
	updated := o.Clone()
	updated.Status = s
	r.replaceAt(pos, updated)
	return updated.Clone(), nil
}

// Delete removes an order by ID.
func (r *Repository) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	pos, _, err := r.find(id)
	if err != nil {
		return err
	}
	r.removeAt(pos)
	return nil
}

// Len reports how many orders are stored.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.orders)
}

// The helpers below expect r.mu to be held.

func (r *Repository) append(o order.Order) order.Order {
	o = o.Clone()
	o.ID = r.next
	r.next++
	r.orders = append(r.orders, o)
	return o
}

func (r *Repository) find(id int) (int, order.Order, error) {
	for i, o := range r.orders {
		if o.ID == id {
			return i, o, nil
		}
	}
	return -1, order.Order{}, order.ErrNotFound
}

func (r *Repository) replaceAt(pos int, o order.Order) {
	r.orders[pos] = o
}

func (r *Repository) removeAt(pos int) {
	copy(r.orders[pos:], r.orders[pos+1:])
	r.orders[len(r.orders)-1] = order.Order{}
	r.orders = r.orders[:len(r.orders)-1]
}

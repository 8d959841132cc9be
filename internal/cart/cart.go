// Package cart holds the session-scoped shopping cart.
package cart

import (
	"sync"

	"shophub/internal/model"

	"github.com/shopspring/decimal"
)

// ProductFinder looks a product up in the current catalogue snapshot.
type ProductFinder interface {
	Find(id string) (model.Product, bool)
}

// Store is an ordered collection of line items, at most one per product.
// Line items keep the product as it was when first added.
type Store struct {
	catalog ProductFinder

	mu    sync.Mutex
	items []model.LineItem
}

// Snapshot is a consistent view of the cart.
type Snapshot struct {
	Items []model.LineItem
	Count int
	Total decimal.Decimal
}

// NewStore creates an empty cart backed by the given catalogue.
func NewStore(catalog ProductFinder) *Store {
	return &Store{catalog: catalog}
}

// Add puts one unit of productID in the cart. An existing line item has its
// quantity incremented; otherwise a new line item is appended. It returns
// false and leaves the cart unchanged when the product is not in the
// catalogue.
func (s *Store) Add(productID string) bool {
	product, ok := s.catalog.Find(productID)
	if !ok {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == productID {
			s.items[i].Quantity++
			return true
		}
	}

	s.items = append(s.items, model.LineItem{Product: product, Quantity: 1})
	return true
}

// Remove deletes the whole line item for productID regardless of its
// quantity. It reports whether a line item was removed.
func (s *Store) Remove(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == productID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
}

// Items returns a copy of the line items in insertion order.
func (s *Store) Items() []model.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyItems()
}

// Len returns the number of distinct line items.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Count returns the sum of quantities.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return count(s.items)
}

// Total returns the exact sum of price × quantity.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return total(s.items)
}

// Snapshot returns items, count and total computed under one lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Items: s.copyItems(),
		Count: count(s.items),
		Total: total(s.items),
	}
}

func (s *Store) copyItems() []model.LineItem {
	out := make([]model.LineItem, len(s.items))
	copy(out, s.items)
	return out
}

func count(items []model.LineItem) int {
	n := 0
	for _, item := range items {
		n += item.Quantity
	}
	return n
}

func total(items []model.LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Subtotal())
	}
	return sum
}

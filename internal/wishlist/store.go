// Package wishlist keeps the session's wishlist as an ordered set keyed by
// normalized product id and coordinates optimistic toggles against the
// upstream marketplace.
package wishlist

import (
	"sync"

	"github.com/ayamansour/souqsync/internal/identity"
)

// Item is one wishlist entry. ID is the normalized base product id, or a
// synthetic "contract:" key for non-product favorites.
type Item struct {
	ID            string  `json:"id"`
	Name          string  `json:"name,omitempty"`
	Brand         string  `json:"brand,omitempty"`
	Image         string  `json:"image,omitempty"`
	Price         float64 `json:"price,omitempty"`
	OriginalPrice float64 `json:"originalPrice,omitempty"`
}

// Store holds the wishlist with set semantics: at most one item per
// normalized id, insertion order preserved for display.
type Store struct {
	mu    sync.Mutex
	items []Item
	index map[string]int
}

func NewStore() *Store {
	return &Store{index: map[string]int{}}
}

// Add inserts the item, replacing any existing entry with the same
// normalized id in place. Returns the stored item and whether it was new.
func (s *Store) Add(item Item) (Item, bool) {
	item.ID = identity.NormalizeBaseID(item.ID)
	if item.ID == "" {
		return Item{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if idx, ok := s.index[item.ID]; ok {
		s.items[idx] = item
		return item, false
	}
	s.items = append(s.items, item)
	s.index[item.ID] = len(s.items) - 1
	return item, true
}

// Remove drops the entry for the normalized id, reporting whether it existed.
func (s *Store) Remove(id string) bool {
	id = identity.NormalizeBaseID(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.index[id]
	if !ok {
		return false
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.reindexLocked()
	return true
}

// Contains reports membership for the normalized id.
func (s *Store) Contains(id string) bool {
	id = identity.NormalizeBaseID(id)

	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[id]
	return ok
}

// Items returns a copy of the ordered item list.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Len reports the number of items.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Replace swaps in a full snapshot, deduplicating by normalized id with
// first occurrence winning.
func (s *Store) Replace(items []Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = s.items[:0]
	s.index = make(map[string]int, len(items))
	for _, item := range items {
		item.ID = identity.NormalizeBaseID(item.ID)
		if item.ID == "" {
			continue
		}
		if _, ok := s.index[item.ID]; ok {
			continue
		}
		s.items = append(s.items, item)
		s.index[item.ID] = len(s.items) - 1
	}
}

// Clear empties the store. The wishlist is never kept for guests, so this
// runs on logout.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.index = map[string]int{}
}

func (s *Store) reindexLocked() {
	s.index = make(map[string]int, len(s.items))
	for i, item := range s.items {
		s.index[item.ID] = i
	}
}

package cart

import (
	"sync"

	"github.com/ayamansour/souqsync/internal/identity"
)

// Store is the in-memory, insertion-ordered cart for one session. All
// mutations are serialized by its mutex; callers never see a line mid-update.
type Store struct {
	mu         sync.Mutex
	lines      []Line
	index      map[string]int
	tombstones map[string]struct{}
}

func NewStore() *Store {
	return &Store{
		index:      map[string]int{},
		tombstones: map[string]struct{}{},
	}
}

// Add merges the incoming line into an existing one with the same composite
// id, or appends it. Merged quantity is clamped by the max quantity (incoming
// first, then stored, then the default) but never drops below what the line
// already held.
func (s *Store) Add(line Line) Line {
	s.mu.Lock()
	defer s.mu.Unlock()

	if line.Quantity < 1 {
		line.Quantity = 1
	}
	delete(s.tombstones, identity.NormalizeBaseID(line.CompositeID))

	idx, ok := s.index[line.CompositeID]
	if !ok {
		s.lines = append(s.lines, line)
		s.index[line.CompositeID] = len(s.lines) - 1
		return line
	}

	existing := s.lines[idx]
	limit := line.MaxQuantity
	if limit <= 0 {
		limit = existing.MaxQuantity
	}
	if limit <= 0 {
		limit = DefaultMaxQuantity
	}

	merged := existing.Quantity + line.Quantity
	if merged > limit {
		merged = limit
	}
	if merged < existing.Quantity {
		merged = existing.Quantity
	}

	existing.Quantity = merged
	if line.MaxQuantity > 0 {
		existing.MaxQuantity = line.MaxQuantity
	}
	s.lines[idx] = existing
	return existing
}

// SetQuantity overwrites a line's quantity, clamped to a minimum of 1.
func (s *Store) SetQuantity(compositeID string, quantity int) (Line, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.index[compositeID]
	if !ok {
		return Line{}, false
	}
	if quantity < 1 {
		quantity = 1
	}
	s.lines[idx].Quantity = quantity
	return s.lines[idx], true
}

// Remove drops the line synchronously and tombstones its base id so a stale
// in-flight server snapshot cannot resurrect it.
func (s *Store) Remove(compositeID string) (Line, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.index[compositeID]
	if !ok {
		return Line{}, false
	}
	removed := s.lines[idx]
	s.lines = append(s.lines[:idx], s.lines[idx+1:]...)
	s.reindexLocked()

	if base := identity.NormalizeBaseID(removed.CompositeID); base != "" {
		s.tombstones[base] = struct{}{}
	}
	return removed, true
}

// Clear empties the store and tombstones every base that was present.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, line := range s.lines {
		if base := identity.NormalizeBaseID(line.CompositeID); base != "" {
			s.tombstones[base] = struct{}{}
		}
	}
	s.lines = nil
	s.index = map[string]int{}
}

// Lines returns a copy of the ordered line list.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// Get looks up a single line by composite id.
func (s *Store) Get(compositeID string) (Line, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.index[compositeID]
	if !ok {
		return Line{}, false
	}
	return s.lines[idx], true
}

// Len reports the number of lines.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// FillMissing patches enrichment data onto a line without overwriting
// anything the line already knows.
func (s *Store) FillMissing(compositeID, name, brand, image string, price float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.index[compositeID]
	if !ok {
		return false
	}
	line := s.lines[idx]
	if line.Name == "" {
		line.Name = name
	}
	if line.Brand == "" {
		line.Brand = brand
	}
	if line.Image == "" {
		line.Image = image
	}
	if line.Price == 0 {
		line.Price = price
	}
	s.lines[idx] = line
	return true
}

// ApplyServerItems reconciles an upstream snapshot against the current lines
// and swaps the result in. This is the worker-facing entry point.
func (s *Store) ApplyServerItems(items []ServerItem, fallback *Line) {
	s.ApplyReconciled(Reconcile(items, s.Lines(), fallback))
}

// ApplyReconciled swaps in a reconciled snapshot. Lines whose base id was
// removed locally after the triggering call went out, and which hold no live
// composite identity, are skipped instead of resurrected. Tombstones are
// consumed by the apply: the next snapshot reflects the removal already.
func (s *Store) ApplyReconciled(lines []Line) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]Line, 0, len(lines))
	for _, line := range lines {
		base := identity.NormalizeBaseID(line.CompositeID)
		if base == "" {
			base = line.BaseProductID
		}
		_, tombstoned := s.tombstones[base]
		_, live := s.index[line.CompositeID]
		if tombstoned && !live {
			continue
		}
		kept = append(kept, line)
	}

	s.lines = kept
	s.reindexLocked()
	s.tombstones = map[string]struct{}{}
}

func (s *Store) reindexLocked() {
	s.index = make(map[string]int, len(s.lines))
	for i, line := range s.lines {
		s.index[line.CompositeID] = i
	}
}

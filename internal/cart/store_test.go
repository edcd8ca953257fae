package cart

import "testing"

func TestStoreAddMergesAndClampsQuantity(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Add(Line{CompositeID: "p-1|v:Drill||100||", Quantity: 5, MaxQuantity: 7})
	merged := s.Add(Line{CompositeID: "p-1|v:Drill||100||", Quantity: 5, MaxQuantity: 7})

	if merged.Quantity != 7 {
		t.Fatalf("merged quantity = %d, want 7", merged.Quantity)
	}
	if s.Len() != 1 {
		t.Fatalf("expected a single merged line, got %d", s.Len())
	}
}

func TestStoreAddNeverLowersQuantity(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Add(Line{CompositeID: "p-1", Quantity: 10})
	s.SetQuantity("p-1", 10)

	// A later add with a tighter limit must not shrink what is held.
	merged := s.Add(Line{CompositeID: "p-1", Quantity: 1, MaxQuantity: 5})
	if merged.Quantity != 10 {
		t.Fatalf("quantity dropped to %d", merged.Quantity)
	}
}

func TestStoreAddDefaultsQuantityToOne(t *testing.T) {
	t.Parallel()

	s := NewStore()
	line := s.Add(Line{CompositeID: "p-1", Quantity: 0})
	if line.Quantity != 1 {
		t.Fatalf("quantity = %d, want 1", line.Quantity)
	}
}

func TestStoreAddUsesDefaultLimitWhenUnset(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Add(Line{CompositeID: "p-1", Quantity: 60})
	merged := s.Add(Line{CompositeID: "p-1", Quantity: 60})
	if merged.Quantity != DefaultMaxQuantity {
		t.Fatalf("quantity = %d, want %d", merged.Quantity, DefaultMaxQuantity)
	}
}

func TestStoreSetQuantityClampsToOne(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Add(Line{CompositeID: "p-1", Quantity: 4})
	line, ok := s.SetQuantity("p-1", 0)
	if !ok || line.Quantity != 1 {
		t.Fatalf("got (%v, %v), want quantity 1", line.Quantity, ok)
	}
}

func TestStoreRemoveIsIdempotent(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Add(Line{CompositeID: "p-1", Quantity: 1})

	if _, ok := s.Remove("p-1"); !ok {
		t.Fatal("first remove should report the line")
	}
	if _, ok := s.Remove("p-1"); ok {
		t.Fatal("second remove should be a no-op")
	}
	if s.Len() != 0 {
		t.Fatalf("store not empty: %d", s.Len())
	}
}

func TestStorePreservesInsertionOrder(t *testing.T) {
	t.Parallel()

	s := NewStore()
	ids := []string{"a", "b", "c", "d"}
	for _, id := range ids {
		s.Add(Line{CompositeID: id, Quantity: 1})
	}
	s.Remove("b")

	lines := s.Lines()
	want := []string{"a", "c", "d"}
	for i, id := range want {
		if lines[i].CompositeID != id {
			t.Fatalf("position %d = %s, want %s", i, lines[i].CompositeID, id)
		}
	}
}

func TestApplyReconciledSkipsTombstonedBases(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Add(Line{CompositeID: "p-1|v:Drill||10||", BaseProductID: "p-1", Quantity: 1})
	s.Remove("p-1|v:Drill||10||")

	// A stale snapshot that still contains the removed base must not bring
	// the line back.
	s.ApplyReconciled([]Line{{CompositeID: "p-1", BaseProductID: "p-1", Quantity: 1}})
	if s.Len() != 0 {
		t.Fatalf("removed line resurrected: %d lines", s.Len())
	}

	// Tombstones are consumed; the next snapshot applies normally.
	s.ApplyReconciled([]Line{{CompositeID: "p-1", BaseProductID: "p-1", Quantity: 1}})
	if s.Len() != 1 {
		t.Fatalf("later snapshot should apply, got %d lines", s.Len())
	}
}

func TestAddClearsTombstone(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Add(Line{CompositeID: "p-1", BaseProductID: "p-1", Quantity: 1})
	s.Remove("p-1")
	s.Add(Line{CompositeID: "p-1", BaseProductID: "p-1", Quantity: 1})

	s.ApplyReconciled([]Line{{CompositeID: "p-1", BaseProductID: "p-1", Quantity: 2}})
	if s.Len() != 1 {
		t.Fatalf("re-added line should survive the snapshot, got %d lines", s.Len())
	}
}

func TestClearTombstonesEverything(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Add(Line{CompositeID: "p-1", BaseProductID: "p-1", Quantity: 1})
	s.Add(Line{CompositeID: "p-2", BaseProductID: "p-2", Quantity: 1})
	s.Clear()

	s.ApplyReconciled([]Line{
		{CompositeID: "p-1", BaseProductID: "p-1", Quantity: 1},
		{CompositeID: "p-2", BaseProductID: "p-2", Quantity: 1},
	})
	if s.Len() != 0 {
		t.Fatalf("cleared lines resurrected: %d", s.Len())
	}
}

func TestFillMissingOnlyPatchesEmptyFields(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Add(Line{CompositeID: "p-1", Name: "Drill", Quantity: 1})

	if !s.FillMissing("p-1", "Other", "Bosch", "d.png", 49.5) {
		t.Fatal("line should exist")
	}
	line, _ := s.Get("p-1")
	if line.Name != "Drill" {
		t.Fatalf("existing name overwritten: %s", line.Name)
	}
	if line.Brand != "Bosch" || line.Image != "d.png" || line.Price != 49.5 {
		t.Fatalf("missing fields not patched: %+v", line)
	}
}

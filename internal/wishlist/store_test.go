package wishlist

import "testing"

func TestStoreSetSemantics(t *testing.T) {
	t.Parallel()

	s := NewStore()
	if _, created := s.Add(Item{ID: "A", Name: "first"}); !created {
		t.Fatal("first add should create")
	}
	if _, created := s.Add(Item{ID: "A", Name: "second"}); created {
		t.Fatal("second add should replace, not create")
	}
	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1", s.Len())
	}
	items := s.Items()
	if items[0].Name != "second" {
		t.Fatalf("later add should win: %+v", items[0])
	}
}

func TestStoreNormalizesIDs(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Add(Item{ID: " A|v:variant "})
	if !s.Contains("A") {
		t.Fatal("id should be normalized to its base")
	}
	if !s.Contains("A|v:other") {
		t.Fatal("lookup should normalize too")
	}
}

func TestStoreRejectsEmptyAndSentinelIDs(t *testing.T) {
	t.Parallel()

	s := NewStore()
	for _, id := range []string{"", "  ", "undefined", "null"} {
		if _, created := s.Add(Item{ID: id}); created {
			t.Fatalf("id %q should be rejected", id)
		}
	}
	if s.Len() != 0 {
		t.Fatalf("len = %d, want 0", s.Len())
	}
}

func TestStoreKeepsContractKeys(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Add(Item{ID: "contract:svc-7"})
	if !s.Contains("contract:svc-7") {
		t.Fatal("synthetic contract keys must be stored as-is")
	}
}

func TestStoreRemove(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Add(Item{ID: "A"})
	if !s.Remove("A") {
		t.Fatal("remove should report the item")
	}
	if s.Remove("A") {
		t.Fatal("second remove should be a no-op")
	}
}

func TestStoreReplaceDeduplicates(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Replace([]Item{
		{ID: "A", Name: "first"},
		{ID: "B"},
		{ID: "A|v:x", Name: "dup"},
		{ID: "undefined"},
	})
	if s.Len() != 2 {
		t.Fatalf("len = %d, want 2", s.Len())
	}
	items := s.Items()
	if items[0].ID != "A" || items[0].Name != "first" {
		t.Fatalf("first occurrence should win: %+v", items[0])
	}
}

package cart

import "testing"

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func TestReconcileKeepsVariantIdentitiesInFIFOOrder(t *testing.T) {
	t.Parallel()

	previous := []Line{
		{CompositeID: "P1|v:Drill A||100||", BaseProductID: "P1", Name: "Drill A", Price: 100, Quantity: 1},
		{CompositeID: "P1|inst|v:Drill B||120||", BaseProductID: "P1", Name: "Drill B", Price: 120, Quantity: 2},
	}
	server := []ServerItem{
		{ProductID: "P1", Quantity: intPtr(1)},
		{ProductID: "P1", Quantity: intPtr(2)},
	}

	out := Reconcile(server, previous, nil)
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	if out[0].CompositeID != previous[0].CompositeID {
		t.Fatalf("first line got %s", out[0].CompositeID)
	}
	if out[1].CompositeID != previous[1].CompositeID {
		t.Fatalf("second line got %s", out[1].CompositeID)
	}
}

func TestReconcileOutputFollowsServerOrder(t *testing.T) {
	t.Parallel()

	previous := []Line{
		{CompositeID: "a|v:A||1||", BaseProductID: "a"},
		{CompositeID: "b|v:B||2||", BaseProductID: "b"},
	}
	server := []ServerItem{
		{ProductID: "b", Quantity: intPtr(1)},
		{ProductID: "a", Quantity: intPtr(1)},
	}

	out := Reconcile(server, previous, nil)
	if out[0].BaseProductID != "b" || out[1].BaseProductID != "a" {
		t.Fatalf("order not taken from server: %+v", out)
	}
}

func TestReconcileServerFieldsWin(t *testing.T) {
	t.Parallel()

	previous := []Line{{CompositeID: "p-1", BaseProductID: "p-1", Name: "Old", Price: 10, Quantity: 1}}
	server := []ServerItem{{ProductID: "p-1", Name: "New", Price: floatPtr(12), Quantity: intPtr(3)}}

	out := Reconcile(server, previous, nil)
	line := out[0]
	if line.Name != "New" || line.Price != 12 || line.Quantity != 3 {
		t.Fatalf("server values not applied: %+v", line)
	}
}

func TestReconcileFallbackFillsUnknownItems(t *testing.T) {
	t.Parallel()

	fallback := &Line{Name: "X", Price: 10}
	server := []ServerItem{{ProductID: "P2", Quantity: intPtr(3)}}

	out := Reconcile(server, nil, fallback)
	line := out[0]
	if line.CompositeID != "P2" {
		t.Fatalf("compositeId = %s, want P2", line.CompositeID)
	}
	if line.Name != "X" || line.Price != 10 || line.Quantity != 3 {
		t.Fatalf("fallback not applied: %+v", line)
	}
}

func TestReconcileDefaultsWhenNothingKnown(t *testing.T) {
	t.Parallel()

	out := Reconcile([]ServerItem{{ProductID: "P3"}}, nil, nil)
	line := out[0]
	if line.Price != 0 || line.Quantity != 1 {
		t.Fatalf("defaults not applied: price %v quantity %d", line.Price, line.Quantity)
	}
}

func TestReconcilePriorCarriesMetadata(t *testing.T) {
	t.Parallel()

	previous := []Line{{
		CompositeID:   "p-1|r:r-7|v:Lift||50||",
		BaseProductID: "p-1",
		RentalID:      "r-7",
		PartNumber:    "L-1",
		MaxQuantity:   4,
		Price:         50,
		Quantity:      2,
	}}
	server := []ServerItem{{ProductID: "p-1", Quantity: intPtr(2)}}

	out := Reconcile(server, previous, nil)
	line := out[0]
	if line.RentalID != "r-7" || line.PartNumber != "L-1" || line.MaxQuantity != 4 {
		t.Fatalf("metadata lost: %+v", line)
	}
	if line.Price != 50 {
		t.Fatalf("prior price not kept: %v", line.Price)
	}
}

func TestReconcileCompositeIDNormalizesServerID(t *testing.T) {
	t.Parallel()

	// A server id with an embedded variant suffix keys by its base.
	out := Reconcile([]ServerItem{{ProductID: " P4|v:x ", Quantity: intPtr(1)}}, nil, nil)
	if out[0].CompositeID != "P4" || out[0].BaseProductID != "P4" {
		t.Fatalf("id not normalized: %+v", out[0])
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	t.Parallel()

	previous := []Line{
		{CompositeID: "P1|v:A||10||", BaseProductID: "P1", Name: "A", Price: 10, Quantity: 1},
		{CompositeID: "P1|v:B||20||", BaseProductID: "P1", Name: "B", Price: 20, Quantity: 2},
	}
	server := []ServerItem{
		{ProductID: "P1", Quantity: intPtr(1)},
		{ProductID: "P1", Quantity: intPtr(2)},
	}

	once := Reconcile(server, previous, nil)
	twice := Reconcile(server, once, nil)
	if len(once) != len(twice) {
		t.Fatalf("lengths differ: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Fatalf("line %d changed on re-apply:\n once %+v\ntwice %+v", i, once[i], twice[i])
		}
	}
}

func TestReconcileDropsSurplusPriorLines(t *testing.T) {
	t.Parallel()

	// The upstream merged two variants into one line; the surplus identity
	// cannot be recovered.
	previous := []Line{
		{CompositeID: "P1|v:A||10||", BaseProductID: "P1"},
		{CompositeID: "P1|v:B||20||", BaseProductID: "P1"},
	}
	server := []ServerItem{{ProductID: "P1", Quantity: intPtr(3)}}

	out := Reconcile(server, previous, nil)
	if len(out) != 1 {
		t.Fatalf("len = %d, want 1", len(out))
	}
	if out[0].CompositeID != "P1|v:A||10||" {
		t.Fatalf("first prior should win: %s", out[0].CompositeID)
	}
}

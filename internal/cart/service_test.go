package cart

import (
	"context"
	"testing"
)

type recordingSink struct {
	commands []Command
	full     bool
}

func (r *recordingSink) Enqueue(cmd Command) bool {
	if r.full {
		return false
	}
	r.commands = append(r.commands, cmd)
	return true
}

func newTestService(t *testing.T) (*Service, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	svc, err := NewService(NewStore(), sink, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, sink
}

func TestNewServiceValidatesCollaborators(t *testing.T) {
	t.Parallel()

	if _, err := NewService(nil, &recordingSink{}, nil); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := NewService(NewStore(), nil, nil); err == nil {
		t.Fatal("expected error for nil sink")
	}
}

func TestAddItemBuildsCompositeIDAndSyncs(t *testing.T) {
	t.Parallel()

	svc, sink := newTestService(t)
	line, err := svc.AddItem(context.Background(), AddItemInput{
		ProductID: "p-1",
		Name:      "Drill",
		Price:     100,
		Quantity:  2,
	})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if line.CompositeID != "p-1|v:Drill||100||" {
		t.Fatalf("compositeId = %s", line.CompositeID)
	}
	if len(sink.commands) != 1 || sink.commands[0].Op != OpAdd {
		t.Fatalf("commands = %+v", sink.commands)
	}
	if sink.commands[0].Quantity != 2 {
		t.Fatalf("command quantity = %d", sink.commands[0].Quantity)
	}
}

func TestAddItemEmptyIDStaysLocal(t *testing.T) {
	t.Parallel()

	svc, sink := newTestService(t)
	for _, id := range []string{"", "  ", "undefined", "null"} {
		if _, err := svc.AddItem(context.Background(), AddItemInput{ProductID: id, Name: "n"}); err != nil {
			t.Fatalf("AddItem(%q): %v", id, err)
		}
	}
	if len(sink.commands) != 0 {
		t.Fatalf("empty ids must never sync, got %d commands", len(sink.commands))
	}
}

func TestSentinelLineUpdateAndRemoveStayLocal(t *testing.T) {
	t.Parallel()

	svc, sink := newTestService(t)
	line, err := svc.AddItem(context.Background(), AddItemInput{ProductID: "undefined", Name: "n", Price: 5})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	// The line is keyed by a sentinel composite id and must stay addressable.
	if _, err := svc.UpdateQuantity(context.Background(), line.CompositeID, 5); err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}
	if got, ok := svc.Get(line.CompositeID); !ok || got.Quantity != 5 {
		t.Fatalf("local update lost: %+v ok=%v", got, ok)
	}
	if err := svc.RemoveItem(context.Background(), line.CompositeID); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if len(svc.Lines()) != 0 {
		t.Fatalf("line not removed locally")
	}

	if len(sink.commands) != 0 {
		t.Fatalf("sentinel-keyed lines must never sync, got %+v", sink.commands)
	}
}

func TestAddItemSyncsMergedQuantity(t *testing.T) {
	t.Parallel()

	svc, sink := newTestService(t)
	in := AddItemInput{ProductID: "p-1", Name: "Drill", Price: 100, Quantity: 5, MaxQuantity: 7}
	svc.AddItem(context.Background(), in)
	svc.AddItem(context.Background(), in)

	last := sink.commands[len(sink.commands)-1]
	if last.Quantity != 7 {
		t.Fatalf("second command quantity = %d, want clamped 7", last.Quantity)
	}
}

func TestUpdateQuantityMissingLine(t *testing.T) {
	t.Parallel()

	svc, sink := newTestService(t)

	// Sentinel ids are a silent no-op.
	if _, err := svc.UpdateQuantity(context.Background(), "undefined", 3); err != nil {
		t.Fatalf("sentinel id should not error: %v", err)
	}

	// A real id that is simply absent is a not-found.
	if _, err := svc.UpdateQuantity(context.Background(), "p-404", 3); err == nil {
		t.Fatal("expected not found")
	}
	if len(sink.commands) != 0 {
		t.Fatalf("no commands expected, got %d", len(sink.commands))
	}
}

func TestRemoveItemIsIdempotentAndSyncsOnce(t *testing.T) {
	t.Parallel()

	svc, sink := newTestService(t)
	svc.AddItem(context.Background(), AddItemInput{ProductID: "p-1", Name: "Drill", Price: 10, Quantity: 1})
	id := svc.Lines()[0].CompositeID

	if err := svc.RemoveItem(context.Background(), id); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if err := svc.RemoveItem(context.Background(), id); err != nil {
		t.Fatalf("second RemoveItem: %v", err)
	}

	removes := 0
	for _, cmd := range sink.commands {
		if cmd.Op == OpRemove {
			removes++
		}
	}
	if removes != 1 {
		t.Fatalf("remove commands = %d, want 1", removes)
	}
}

func TestClearAndRefreshAlwaysDispatch(t *testing.T) {
	t.Parallel()

	svc, sink := newTestService(t)
	svc.Clear(context.Background())
	svc.Refresh(context.Background())

	if len(sink.commands) != 2 {
		t.Fatalf("commands = %d, want 2", len(sink.commands))
	}
	if sink.commands[0].Op != OpClear || sink.commands[1].Op != OpRefresh {
		t.Fatalf("ops = %v %v", sink.commands[0].Op, sink.commands[1].Op)
	}
}

func TestFullSinkDoesNotFailTheMutation(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{full: true}
	svc, err := NewService(NewStore(), sink, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	line, err := svc.AddItem(context.Background(), AddItemInput{ProductID: "p-1", Quantity: 1})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if got, ok := svc.Get(line.CompositeID); !ok || got.Quantity != 1 {
		t.Fatalf("local state lost on queue-full: %+v ok=%v", got, ok)
	}
}

func TestApplyServerItemsReconcilesIntoStore(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	svc.AddItem(context.Background(), AddItemInput{ProductID: "P1", Name: "A", Price: 10, Quantity: 1})

	svc.ApplyServerItems([]ServerItem{
		{ProductID: "P1", Quantity: intPtr(4)},
		{ProductID: "P2", Name: "B", Price: floatPtr(20), Quantity: intPtr(1)},
	}, nil)

	lines := svc.Lines()
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	if lines[0].Name != "A" || lines[0].Quantity != 4 {
		t.Fatalf("first line: %+v", lines[0])
	}
	if lines[1].CompositeID != "P2" || lines[1].Price != 20 {
		t.Fatalf("second line: %+v", lines[1])
	}
}

func TestSubtotalSumsLines(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	svc.AddItem(context.Background(), AddItemInput{ProductID: "p-1", Name: "A", Price: 10, Quantity: 2})
	svc.AddItem(context.Background(), AddItemInput{ProductID: "p-2", Name: "B", Price: 5, Quantity: 3})

	if got := svc.Subtotal(); got != 35 {
		t.Fatalf("subtotal = %v, want 35", got)
	}
}

package session

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayamansour/souqsync/internal/cart"
	"github.com/ayamansour/souqsync/pkg/config"
	"github.com/ayamansour/souqsync/pkg/db"
)

var snapshotDBSeq atomic.Int64

func setupSnapshotTestDB(t *testing.T) *db.Client {
	t.Helper()

	dsn := fmt.Sprintf("file:snapshot_test_%d?mode=memory&cache=shared", snapshotDBSeq.Add(1))
	client, err := db.New(context.Background(), config.DBConfig{DSN: dsn}, true, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	schema := `
CREATE TABLE cart_snapshot_lines (
  id TEXT PRIMARY KEY,
  session_key TEXT NOT NULL,
  composite_id TEXT NOT NULL,
  base_product_id TEXT NOT NULL,
  name TEXT,
  brand TEXT,
  image TEXT,
  part_number TEXT,
  rental_id TEXT,
  installation BOOLEAN NOT NULL DEFAULT FALSE,
  price DOUBLE PRECISION NOT NULL DEFAULT 0,
  quantity INTEGER NOT NULL DEFAULT 1,
  max_quantity INTEGER NOT NULL DEFAULT 0,
  position INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, client.DB().Exec(schema).Error)
	require.NoError(t, client.DB().Exec(
		`CREATE UNIQUE INDEX idx_cart_snapshot_lines_session_composite ON cart_snapshot_lines (session_key, composite_id)`,
	).Error)
	return client
}

func TestReplaceAndListRoundTrip(t *testing.T) {
	t.Parallel()

	repo := NewSnapshotRepository(setupSnapshotTestDB(t))
	ctx := context.Background()

	lines := []cart.Line{
		{CompositeID: "p-1|v:Drill||100||", BaseProductID: "p-1", Name: "Drill", Price: 100, Quantity: 2, MaxQuantity: 5},
		{CompositeID: "p-2|inst|v:Lift||50||", BaseProductID: "p-2", Name: "Lift", Installation: true, Price: 50, Quantity: 1},
	}
	require.NoError(t, repo.ReplaceSession(ctx, "sess-1", lines))

	got, err := repo.ListBySession(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, lines[0], got[0])
	assert.Equal(t, lines[1], got[1])
}

func TestReplaceOverwritesPreviousSnapshot(t *testing.T) {
	t.Parallel()

	repo := NewSnapshotRepository(setupSnapshotTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.ReplaceSession(ctx, "sess-1", []cart.Line{
		{CompositeID: "old", BaseProductID: "old", Quantity: 1},
	}))
	require.NoError(t, repo.ReplaceSession(ctx, "sess-1", []cart.Line{
		{CompositeID: "new", BaseProductID: "new", Quantity: 3},
	}))

	got, err := repo.ListBySession(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].CompositeID)
}

func TestReplaceWithEmptyListDeletes(t *testing.T) {
	t.Parallel()

	repo := NewSnapshotRepository(setupSnapshotTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.ReplaceSession(ctx, "sess-1", []cart.Line{
		{CompositeID: "p-1", BaseProductID: "p-1", Quantity: 1},
	}))
	require.NoError(t, repo.ReplaceSession(ctx, "sess-1", nil))

	got, err := repo.ListBySession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSessionsAreIsolated(t *testing.T) {
	t.Parallel()

	repo := NewSnapshotRepository(setupSnapshotTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.ReplaceSession(ctx, "sess-1", []cart.Line{
		{CompositeID: "a", BaseProductID: "a", Quantity: 1},
	}))
	require.NoError(t, repo.ReplaceSession(ctx, "sess-2", []cart.Line{
		{CompositeID: "b", BaseProductID: "b", Quantity: 1},
	}))

	require.NoError(t, repo.DeleteSession(ctx, "sess-1"))

	gone, err := repo.ListBySession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, gone)

	kept, err := repo.ListBySession(ctx, "sess-2")
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestStaleSessionKeysHonorsCutoff(t *testing.T) {
	t.Parallel()

	client := setupSnapshotTestDB(t)
	repo := NewSnapshotRepository(client)
	ctx := context.Background()

	require.NoError(t, repo.ReplaceSession(ctx, "sess-old", []cart.Line{
		{CompositeID: "x", BaseProductID: "x", Quantity: 1},
		{CompositeID: "y", BaseProductID: "y", Quantity: 1},
	}))
	require.NoError(t, repo.ReplaceSession(ctx, "sess-fresh", []cart.Line{
		{CompositeID: "z", BaseProductID: "z", Quantity: 1},
	}))
	backdateSession(t, client, "sess-old", time.Now().Add(-48*time.Hour))

	keys, err := repo.StaleSessionKeys(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{"sess-old"}, keys)

	none, err := repo.StaleSessionKeys(ctx, time.Now().Add(-72*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func backdateSession(t *testing.T, client *db.Client, sessionKey string, to time.Time) {
	t.Helper()
	require.NoError(t, client.DB().Exec(
		`UPDATE cart_snapshot_lines SET updated_at = ? WHERE session_key = ?`, to, sessionKey,
	).Error)
}

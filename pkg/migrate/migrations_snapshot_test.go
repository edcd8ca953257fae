package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMigrationsDirIsValid(t *testing.T) {
	t.Parallel()

	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("migrations dir failed validation: %v", err)
	}
}

func TestSnapshotMigrationCreatesExpectedSchema(t *testing.T) {
	t.Parallel()

	entries, err := os.ReadDir("migrations")
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}

	var found string
	for _, e := range entries {
		if strings.Contains(e.Name(), "cart_snapshot_lines") {
			found = e.Name()
			break
		}
	}
	if found == "" {
		t.Fatal("cart_snapshot_lines migration missing")
	}

	b, err := os.ReadFile(filepath.Join("migrations", found))
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	sql := string(b)

	for _, col := range []string{"session_key", "composite_id", "base_product_id", "max_quantity", "position"} {
		if !strings.Contains(sql, col) {
			t.Fatalf("migration missing column %q", col)
		}
	}
	if !strings.Contains(sql, "idx_cart_snapshot_lines_session_composite") {
		t.Fatal("unique session/composite index missing")
	}
}

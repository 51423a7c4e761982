package sqlite

import (
	"context"
	"testing"

	"github.com/uptrace/bun"
)

func TestApplyEmbeddedMigrationsCreatesSchema(t *testing.T) {
	dbPath := t.TempDir() + "/embedded.db"
	db, err := OpenDB(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := ApplyMigrations(context.Background(), db, ""); err != nil {
		t.Fatalf("apply embedded migrations: %v", err)
	}

	tables := []string{
		"users", "warehouses", "fdhs", "splitters", "ports",
		"customers", "assets", "asset_assignments", "deployment_tasks", "audit_logs",
	}
	for _, table := range tables {
		var count int
		err := db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
			return tx.NewRaw(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(ctx, &count)
		})
		if err != nil {
			t.Fatalf("query sqlite_master for %s: %v", table, err)
		}
		if count != 1 {
			t.Fatalf("expected table %s to exist", table)
		}
	}
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	if err := ApplyMigrations(context.Background(), db, ""); err != nil {
		t.Fatalf("re-apply migrations: %v", err)
	}
}

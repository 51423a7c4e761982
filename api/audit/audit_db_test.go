package audit

import (
	"bytes"
	"context"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"fibertrack/infrastructure/sqlite"
	"fibertrack/models"
)

func openTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.OpenDB(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	migrationsDir := filepath.Join(filepath.Dir(file), "..", "..", "infrastructure", "sqlite", "migrations")
	if err := sqlite.ApplyMigrations(context.Background(), db, migrationsDir); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return db
}

func seedLogs(t *testing.T, db *sqlite.DB) models.User {
	t.Helper()
	ctx := context.Background()

	user := models.User{Username: "admin", PasswordHash: "x", Role: "Admin"}
	if _, err := db.W.NewInsert().Model(&user).Exec(ctx); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	if _, err := db.W.ExecContext(ctx, `
INSERT INTO audit_logs (user_id, action_type, description, created_at)
VALUES (?, 'CREATE', 'created something', datetime('now')),
       (?, 'UPDATE', 'updated something', datetime('now', '-2 days')),
       (NULL, 'READ', 'anonymous read', datetime('now', '-40 days'))`,
		user.ID, user.ID); err != nil {
		t.Fatalf("seed logs: %v", err)
	}
	return user
}

func TestListLogsFilters(t *testing.T) {
	db := openTestDB(t)
	user := seedLogs(t, db)
	ctx := context.Background()

	all, err := ListLogs(ctx, db, Filter{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(all))
	}
	if all[0].ActionType != models.AuditCreate {
		t.Fatalf("expected newest first, got %+v", all[0])
	}

	byUser, err := ListLogs(ctx, db, Filter{UserID: user.ID})
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(byUser) != 2 {
		t.Fatalf("expected 2 rows for user, got %d", len(byUser))
	}

	recent, err := ListLogs(ctx, db, Filter{DaysAgo: 7})
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 rows within 7 days, got %d", len(recent))
	}

	reads, err := ListLogs(ctx, db, Filter{Action: models.AuditRead})
	if err != nil {
		t.Fatalf("list reads: %v", err)
	}
	if len(reads) != 1 || reads[0].UserID != nil {
		t.Fatalf("expected one anonymous READ row, got %+v", reads)
	}

	limited, err := ListLogs(ctx, db, Filter{Limit: 1})
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected 1 row, got %d", len(limited))
	}
}

func TestWriteLogsCSV(t *testing.T) {
	db := openTestDB(t)
	seedLogs(t, db)

	list, err := ListLogs(context.Background(), db, Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteLogsCSV(&buf, list); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "id,user_id,action_type") {
		t.Fatalf("unexpected header: %s", lines[0])
	}
}

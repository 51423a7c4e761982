package login

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"

	"fibertrack/infrastructure/apperr"
	"fibertrack/infrastructure/argon"
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

func seedUser(t *testing.T, db *sqlite.DB, username, password string) models.User {
	t.Helper()
	hash, err := argon.CreateHash(password, argon.DefaultParams)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user := models.User{Username: username, PasswordHash: hash, Role: "Planner"}
	if _, err := db.W.NewInsert().Model(&user).Exec(context.Background()); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestAuthenticateSuccessStampsLastLogin(t *testing.T) {
	db := openTestDB(t)
	seedUser(t, db, "planner1", "correct-horse")
	ctx := context.Background()

	user, err := Authenticate(ctx, db, "planner1", "correct-horse")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.LastLogin == nil {
		t.Fatalf("expected last_login stamped")
	}

	var stored models.User
	if err := db.R.NewSelect().Model(&stored).Where("username = ?", "planner1").Scan(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.LastLogin == nil {
		t.Fatalf("expected last_login persisted")
	}
}

func TestAuthenticateRejectsBadPassword(t *testing.T) {
	db := openTestDB(t)
	seedUser(t, db, "planner1", "correct-horse")

	_, err := Authenticate(context.Background(), db, "planner1", "wrong")
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestAuthenticateRejectsUnknownUserWithSameError(t *testing.T) {
	db := openTestDB(t)
	seedUser(t, db, "planner1", "correct-horse")
	ctx := context.Background()

	_, badUser := Authenticate(ctx, db, "nobody", "correct-horse")
	_, badPass := Authenticate(ctx, db, "planner1", "wrong")
	if badUser == nil || badPass == nil {
		t.Fatalf("expected both to fail")
	}
	if badUser.Error() != badPass.Error() {
		t.Fatalf("expected identical errors, got %q vs %q", badUser, badPass)
	}
}

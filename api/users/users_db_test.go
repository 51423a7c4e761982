package users

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"

	"fibertrack/infrastructure/apperr"
	"fibertrack/infrastructure/argon"
	"fibertrack/infrastructure/audit"
	"fibertrack/infrastructure/cache"
	"fibertrack/infrastructure/rbac"
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

func seedAdmin(t *testing.T, db *sqlite.DB) models.User {
	t.Helper()
	admin := models.User{Username: "admin", PasswordHash: "x", Role: rbac.RoleAdmin}
	if _, err := db.W.NewInsert().Model(&admin).Exec(context.Background()); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	return admin
}

func TestCreateUserHashesPassword(t *testing.T) {
	db := openTestDB(t)
	admin := seedAdmin(t, db)
	ctx := context.Background()

	created, err := CreateUser(ctx, db, audit.NewService(), admin, CreateUserInput{
		Username: "tech1",
		Password: "s3cret-pass",
		Role:     rbac.RoleTechnician,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if created.PasswordHash == "s3cret-pass" || created.PasswordHash == "" {
		t.Fatalf("expected hashed password")
	}

	match, err := argon.ComparePasswordAndHash("s3cret-pass", created.PasswordHash)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if !match {
		t.Fatalf("expected password to verify against stored hash")
	}
}

func TestCreateUserRejectsDuplicateUsername(t *testing.T) {
	db := openTestDB(t)
	admin := seedAdmin(t, db)
	ctx := context.Background()
	auditSvc := audit.NewService()

	in := CreateUserInput{Username: "tech1", Password: "s3cret-pass", Role: rbac.RoleTechnician}
	if _, err := CreateUser(ctx, db, auditSvc, admin, in); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := CreateUser(ctx, db, auditSvc, admin, in); apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreateUserRejectsUnknownRole(t *testing.T) {
	db := openTestDB(t)
	admin := seedAdmin(t, db)

	_, err := CreateUser(context.Background(), db, audit.NewService(), admin, CreateUserInput{
		Username: "ghost", Password: "pw", Role: "Wizard",
	})
	if apperr.KindOf(err) != apperr.KindInvalidState {
		t.Fatalf("expected invalid state, got %v", err)
	}
}

func TestUpdateUserRole(t *testing.T) {
	db := openTestDB(t)
	admin := seedAdmin(t, db)
	ctx := context.Background()
	auditSvc := audit.NewService()
	userCache := cache.NewUserCache()

	tech, err := CreateUser(ctx, db, auditSvc, admin, CreateUserInput{
		Username: "tech1", Password: "pw-long-enough", Role: rbac.RoleTechnician,
	})
	if err != nil {
		t.Fatalf("create tech: %v", err)
	}
	userCache.Add(tech.Username, tech)

	updated, err := UpdateUserRole(ctx, db, auditSvc, userCache, admin, tech.ID, UpdateRoleInput{Role: rbac.RolePlanner})
	if err != nil {
		t.Fatalf("update role: %v", err)
	}
	if updated.Role != rbac.RolePlanner {
		t.Fatalf("expected Planner, got %q", updated.Role)
	}
	if _, cached := userCache.Get(tech.Username); cached {
		t.Fatalf("expected cache entry invalidated")
	}
}

func TestUpdateUserRoleUnchangedIsNoOp(t *testing.T) {
	db := openTestDB(t)
	admin := seedAdmin(t, db)
	ctx := context.Background()
	auditSvc := audit.NewService()

	tech, err := CreateUser(ctx, db, auditSvc, admin, CreateUserInput{
		Username: "tech1", Password: "pw-long-enough", Role: rbac.RoleTechnician,
	})
	if err != nil {
		t.Fatalf("create tech: %v", err)
	}

	var before int
	if err := db.R.NewRaw(`SELECT COUNT(*) FROM audit_logs`).Scan(ctx, &before); err != nil {
		t.Fatalf("count audit rows: %v", err)
	}

	updated, err := UpdateUserRole(ctx, db, auditSvc, cache.NewUserCache(), admin, tech.ID, UpdateRoleInput{Role: rbac.RoleTechnician})
	if err != nil {
		t.Fatalf("update with same role: %v", err)
	}
	if updated.Role != rbac.RoleTechnician {
		t.Fatalf("expected role unchanged, got %q", updated.Role)
	}

	var after int
	if err := db.R.NewRaw(`SELECT COUNT(*) FROM audit_logs`).Scan(ctx, &after); err != nil {
		t.Fatalf("count audit rows: %v", err)
	}
	if after != before {
		t.Fatalf("expected no audit row for an unchanged role, got %d new", after-before)
	}
}

func TestUpdateUserRoleRejectsSelfChange(t *testing.T) {
	db := openTestDB(t)
	admin := seedAdmin(t, db)

	_, err := UpdateUserRole(context.Background(), db, audit.NewService(), cache.NewUserCache(), admin, admin.ID, UpdateRoleInput{Role: rbac.RolePlanner})
	if apperr.KindOf(err) != apperr.KindInvalidState {
		t.Fatalf("expected invalid state, got %v", err)
	}
}

func TestListUsersByRole(t *testing.T) {
	db := openTestDB(t)
	admin := seedAdmin(t, db)
	ctx := context.Background()
	auditSvc := audit.NewService()

	for _, name := range []string{"tech-b", "tech-a"} {
		if _, err := CreateUser(ctx, db, auditSvc, admin, CreateUserInput{Username: name, Password: "pw-long-enough", Role: rbac.RoleTechnician}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	techs, err := ListUsersByRole(ctx, db, rbac.RoleTechnician)
	if err != nil {
		t.Fatalf("list technicians: %v", err)
	}
	if len(techs) != 2 || techs[0].Username != "tech-a" {
		t.Fatalf("expected sorted technician list, got %+v", techs)
	}

	if _, err := ListUsersByRole(ctx, db, "Wizard"); apperr.KindOf(err) != apperr.KindInvalidState {
		t.Fatalf("expected invalid state for unknown role, got %v", err)
	}

	all, err := ListAllUsers(ctx, db)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 users, got %d", len(all))
	}
}

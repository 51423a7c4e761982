package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"

	"fibertrack/infrastructure/apperr"
	"fibertrack/infrastructure/argon"
	"fibertrack/infrastructure/audit"
	"fibertrack/infrastructure/cache"
	"fibertrack/infrastructure/rbac"
	"fibertrack/infrastructure/sqlite"
	"fibertrack/models"
)

// CreateUserInput registers a new app user.
type CreateUserInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UpdateRoleInput changes a user's role.
type UpdateRoleInput struct {
	Role string `json:"role"`
}

// ListUsersByRole returns users with one role, for assignment pickers.
func ListUsersByRole(ctx context.Context, db *sqlite.DB, role string) ([]models.User, error) {
	if !rbac.KnownRole(role) {
		return nil, apperr.InvalidState("unknown role: %s", role)
	}
	var list []models.User
	err := db.R.NewSelect().
		Model(&list).
		Where("role = ?", role).
		OrderExpr("username COLLATE NOCASE ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.User{}
	}
	return list, nil
}

// ListAllUsers returns every user for the admin screen.
func ListAllUsers(ctx context.Context, db *sqlite.DB) ([]models.User, error) {
	var list []models.User
	err := db.R.NewSelect().
		Model(&list).
		OrderExpr("username COLLATE NOCASE ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.User{}
	}
	return list, nil
}

// CreateUser registers a user with an argon2id password hash.
func CreateUser(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, actor models.User, in CreateUserInput) (models.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return models.User{}, apperr.InvalidState("username is required")
	}
	if strings.TrimSpace(in.Password) == "" {
		return models.User{}, apperr.InvalidState("password is required")
	}
	if !rbac.KnownRole(in.Role) {
		return models.User{}, apperr.InvalidState("unknown role: %s", in.Role)
	}

	hash, err := argon.CreateHash(in.Password, argon.DefaultParams)
	if err != nil {
		return models.User{}, apperr.Internal("hash password", err)
	}

	var created models.User
	err = db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.User)(nil)).
			Where("username = ?", username).
			Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			return apperr.Conflict("username '%s' is already taken", username)
		}

		created = models.User{
			Username:     username,
			PasswordHash: hash,
			Role:         in.Role,
		}
		if _, err := tx.NewInsert().Model(&created).Exec(ctx); err != nil {
			return err
		}

		desc := fmt.Sprintf("User '%s' created user '%s' with role %s.", actor.Username, created.Username, created.Role)
		return auditSvc.Record(ctx, tx, actor, models.AuditCreate, desc)
	})
	if err != nil {
		return models.User{}, err
	}
	return created, nil
}

// UpdateUserRole changes a user's role. Admins cannot change their own
// role, which keeps at least one working admin in the system. The cache
// entry is dropped so the next request sees the new role.
func UpdateUserRole(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, userCache *cache.UserCache, actor models.User, userID int64, in UpdateRoleInput) (models.User, error) {
	if !rbac.KnownRole(in.Role) {
		return models.User{}, apperr.InvalidState("unknown role: %s", in.Role)
	}
	if userID == actor.ID {
		return models.User{}, apperr.InvalidState("cannot change your own role")
	}

	var updated models.User
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var user models.User
		if err := tx.NewSelect().Model(&user).Where("id = ?", userID).Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperr.NotFound("user %d not found", userID)
			}
			return err
		}

		// An unchanged role writes and audits nothing.
		if user.Role == in.Role {
			updated = user
			return nil
		}

		previous := user.Role
		user.Role = in.Role
		if _, err := tx.NewUpdate().Model(&user).Column("role").WherePK().Exec(ctx); err != nil {
			return err
		}

		desc := fmt.Sprintf("User '%s' changed role of '%s': %s -> %s.", actor.Username, user.Username, previous, user.Role)
		if err := auditSvc.Record(ctx, tx, actor, models.AuditUpdate, desc); err != nil {
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	if userCache != nil {
		userCache.Delete(updated.Username)
	}
	return updated, nil
}

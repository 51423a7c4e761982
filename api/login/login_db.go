package login

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"fibertrack/infrastructure/apperr"
	"fibertrack/infrastructure/argon"
	"fibertrack/infrastructure/sqlite"
	"fibertrack/models"
)

// Authenticate verifies a username/password pair against the stored
// argon2id hash and stamps last_login. The same error is returned for
// unknown users and bad passwords.
func Authenticate(ctx context.Context, db *sqlite.DB, username, password string) (models.User, error) {
	var user models.User
	err := db.R.NewSelect().Model(&user).Where("username = ?", username).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, apperr.Forbidden("incorrect username or password")
		}
		return models.User{}, err
	}

	match, err := argon.ComparePasswordAndHash(password, user.PasswordHash)
	if err != nil || !match {
		return models.User{}, apperr.Forbidden("incorrect username or password")
	}

	now := time.Now().UTC()
	user.LastLogin = &now
	err = db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewUpdate().Model(&user).Column("last_login").WherePK().Exec(ctx)
		return err
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// UpsertUserPasswordHash creates or resets a user with the given role
// and password. Used by the seeding tool.
func UpsertUserPasswordHash(ctx context.Context, db *sqlite.DB, username, role, password string) error {
	hash, err := argon.CreateHash(password, argon.DefaultParams)
	if err != nil {
		return err
	}
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.ExecContext(ctx, `
INSERT INTO users (username, password_hash, role)
VALUES (?, ?, ?)
ON CONFLICT(username) DO UPDATE SET
  password_hash = excluded.password_hash,
  role = excluded.role,
  updated_at = CURRENT_TIMESTAMP`, username, hash, role)
		return err
	})
}

// FindUser loads a user by username for token verification.
func FindUser(ctx context.Context, db *sqlite.DB, username string) (models.User, error) {
	var user models.User
	err := db.R.NewSelect().Model(&user).Where("username = ?", username).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, apperr.Forbidden("unknown user")
		}
		return models.User{}, err
	}
	return user, nil
}

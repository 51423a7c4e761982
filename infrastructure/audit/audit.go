package audit

import (
	"context"
	"log/slog"

	"github.com/uptrace/bun"

	"fibertrack/infrastructure/sqlite"
	"fibertrack/models"
)

// Service appends audit records inside the caller's open transaction.
// It never commits on its own: write paths that fail after Record leave
// no audit row behind, and an audit insert failure aborts the whole
// transaction.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

// Record inserts one audit row using the caller's transaction.
func (s *Service) Record(ctx context.Context, tx bun.Tx, actor models.User, action models.AuditAction, description string) error {
	entry := &models.AuditLog{
		ActionType:  action,
		Description: description,
	}
	if actor.ID > 0 {
		id := actor.ID
		entry.UserID = &id
	}
	_, err := tx.NewInsert().Model(entry).Exec(ctx)
	return err
}

// RecordRead logs a sensitive read in its own transaction. Failures are
// suppressed so a reporting path never aborts because logging did.
func (s *Service) RecordRead(ctx context.Context, db *sqlite.DB, actor models.User, description string) {
	if s == nil || db == nil {
		return
	}
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return s.Record(ctx, tx, actor, models.AuditRead, description)
	})
	if err != nil {
		slog.Error("read-path audit log failed", slog.String("description", description), slog.Any("err", err))
	}
}

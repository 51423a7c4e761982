package audit

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"fibertrack/infrastructure/sqlite"
	"fibertrack/models"
)

// Filter narrows the audit trail listing.
type Filter struct {
	UserID  int64
	DaysAgo int
	Action  models.AuditAction
	Limit   int
}

const defaultLimit = 500

// ListLogs returns audit entries newest first.
func ListLogs(ctx context.Context, db *sqlite.DB, f Filter) ([]models.AuditLog, error) {
	var list []models.AuditLog
	q := db.R.NewSelect().Model(&list).OrderExpr("created_at DESC, id DESC")
	if f.UserID > 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.DaysAgo > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -f.DaysAgo)
		q = q.Where("created_at >= ?", cutoff)
	}
	if f.Action != "" {
		q = q.Where("action_type = ?", f.Action)
	}
	limit := f.Limit
	if limit <= 0 || limit > defaultLimit {
		limit = defaultLimit
	}
	if err := q.Limit(limit).Scan(ctx); err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.AuditLog{}
	}
	return list, nil
}

// WriteLogsCSV streams the filtered trail as CSV.
func WriteLogsCSV(w io.Writer, list []models.AuditLog) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "user_id", "action_type", "description", "created_at"}); err != nil {
		return err
	}
	for _, entry := range list {
		userID := ""
		if entry.UserID != nil {
			userID = fmt.Sprintf("%d", *entry.UserID)
		}
		row := []string{
			fmt.Sprintf("%d", entry.ID),
			userID,
			string(entry.ActionType),
			entry.Description,
			entry.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

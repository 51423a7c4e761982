package audit

import (
	"net/http"
	"strconv"

	"fibertrack/api/shared/respond"
	"fibertrack/infrastructure/sqlite"
	"fibertrack/models"
)

// ListLogsQueryHandler handles GET /audit-logs.
func ListLogsQueryHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := ListLogs(r.Context(), db, filterFromQuery(r))
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, list)
	}
}

// ExportLogsQueryHandler handles GET /audit-logs/export.csv.
func ExportLogsQueryHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := ListLogs(r.Context(), db, filterFromQuery(r))
		if err != nil {
			respond.Error(w, err)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="audit-logs.csv"`)
		if err := WriteLogsCSV(w, list); err != nil {
			respond.Error(w, err)
		}
	}
}

func filterFromQuery(r *http.Request) Filter {
	var f Filter
	if v, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64); err == nil {
		f.UserID = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("days_ago")); err == nil {
		f.DaysAgo = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		f.Limit = v
	}
	f.Action = models.AuditAction(r.URL.Query().Get("action"))
	return f
}

package inventory

import (
	"fmt"
	"net/http"
	"strings"

	"fibertrack/api/shared/actor"
	"fibertrack/api/shared/respond"
	"fibertrack/infrastructure/audit"
	"fibertrack/infrastructure/sqlite"
)

// SnapshotQueryHandler handles GET /inventory?pincode=.
func SnapshotQueryHandler(db *sqlite.DB, auditSvc *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := actor.FromContext(r.Context())

		pincode := strings.TrimSpace(r.URL.Query().Get("pincode"))
		snap, err := GetSnapshot(r.Context(), db, pincode)
		if err != nil {
			respond.Error(w, err)
			return
		}

		scope := "the full network"
		if pincode != "" {
			scope = "pincode " + pincode
		}
		auditSvc.RecordRead(r.Context(), db, user, fmt.Sprintf("User '%s' viewed inventory for %s.", user.Username, scope))
		respond.JSON(w, http.StatusOK, snap)
	}
}

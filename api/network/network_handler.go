package network

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"fibertrack/api/shared/actor"
	"fibertrack/api/shared/respond"
	"fibertrack/infrastructure/apperr"
	"fibertrack/infrastructure/audit"
	"fibertrack/infrastructure/sqlite"
)

// ListFDHsQueryHandler handles GET /fdhs.
func ListFDHsQueryHandler(db *sqlite.DB, auditSvc *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := actor.FromContext(r.Context())

		list, err := ListFDHs(r.Context(), db, r.URL.Query().Get("pincode"))
		if err != nil {
			respond.Error(w, err)
			return
		}

		auditSvc.RecordRead(r.Context(), db, user, fmt.Sprintf("User '%s' viewed the FDH list.", user.Username))
		respond.JSON(w, http.StatusOK, list)
	}
}

// ListSplittersQueryHandler handles GET /fdhs/{id}/splitters.
func ListSplittersQueryHandler(db *sqlite.DB, auditSvc *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := actor.FromContext(r.Context())

		id, err := idParam(r, "fdh")
		if err != nil {
			respond.Error(w, err)
			return
		}
		openOnly := r.URL.Query().Get("open_ports_only") == "true"
		list, err := ListSplitters(r.Context(), db, id, openOnly)
		if err != nil {
			respond.Error(w, err)
			return
		}

		auditSvc.RecordRead(r.Context(), db, user, fmt.Sprintf("User '%s' viewed splitters of FDH %d.", user.Username, id))
		respond.JSON(w, http.StatusOK, list)
	}
}

// ListPortsQueryHandler handles GET /splitters/{id}/ports.
func ListPortsQueryHandler(db *sqlite.DB, auditSvc *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := actor.FromContext(r.Context())

		id, err := idParam(r, "splitter")
		if err != nil {
			respond.Error(w, err)
			return
		}
		list, err := ListPorts(r.Context(), db, id)
		if err != nil {
			respond.Error(w, err)
			return
		}

		auditSvc.RecordRead(r.Context(), db, user, fmt.Sprintf("User '%s' viewed ports of splitter %d.", user.Username, id))
		respond.JSON(w, http.StatusOK, list)
	}
}

func idParam(r *http.Request, what string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.InvalidState("invalid %s id", what)
	}
	return id, nil
}

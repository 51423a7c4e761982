package deployments

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
	"fibertrack/models"
)

// CreateTaskCommandHandler handles POST /deployment-tasks.
func CreateTaskCommandHandler(db *sqlite.DB, auditSvc *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := actor.FromContext(r.Context())

		var in CreateTaskInput
		if err := respond.DecodeJSON(r, &in); err != nil {
			respond.Error(w, err)
			return
		}
		created, err := CreateTask(r.Context(), db, auditSvc, user, in)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusCreated, created)
	}
}

// ListTasksQueryHandler handles GET /deployment-tasks.
func ListTasksQueryHandler(db *sqlite.DB, auditSvc *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := actor.FromContext(r.Context())

		status := models.TaskStatus(r.URL.Query().Get("status"))
		list, err := ListTasks(r.Context(), db, user, status)
		if err != nil {
			respond.Error(w, err)
			return
		}

		auditSvc.RecordRead(r.Context(), db, user, fmt.Sprintf("User '%s' viewed the deployment task list.", user.Username))
		respond.JSON(w, http.StatusOK, list)
	}
}

// UpdateChecklistCommandHandler handles PATCH /deployment-tasks/{id}.
func UpdateChecklistCommandHandler(db *sqlite.DB, auditSvc *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := actor.FromContext(r.Context())

		id, err := taskIDParam(r)
		if err != nil {
			respond.Error(w, err)
			return
		}
		var in ChecklistInput
		if err := respond.DecodeJSON(r, &in); err != nil {
			respond.Error(w, err)
			return
		}
		updated, err := UpdateChecklist(r.Context(), db, auditSvc, user, id, in)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, updated)
	}
}

// FailTaskCommandHandler handles POST /deployment-tasks/{id}/fail.
func FailTaskCommandHandler(db *sqlite.DB, auditSvc *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := actor.FromContext(r.Context())

		id, err := taskIDParam(r)
		if err != nil {
			respond.Error(w, err)
			return
		}
		var in FailTaskInput
		if err := respond.DecodeJSON(r, &in); err != nil {
			respond.Error(w, err)
			return
		}
		updated, err := FailTask(r.Context(), db, auditSvc, user, id, in)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, updated)
	}
}

func taskIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.InvalidState("invalid task id")
	}
	return id, nil
}

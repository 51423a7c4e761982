package users

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"fibertrack/api/shared/actor"
	"fibertrack/api/shared/respond"
	"fibertrack/infrastructure/apperr"
	"fibertrack/infrastructure/audit"
	"fibertrack/infrastructure/cache"
	"fibertrack/infrastructure/rbac"
	"fibertrack/infrastructure/sqlite"
)

// ListUsersQueryHandler handles GET /users?role=.
func ListUsersQueryHandler(db *sqlite.DB, auditSvc *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := actor.FromContext(r.Context())

		role := r.URL.Query().Get("role")
		if role == "" {
			role = rbac.RoleTechnician
		}
		list, err := ListUsersByRole(r.Context(), db, role)
		if err != nil {
			respond.Error(w, err)
			return
		}

		auditSvc.RecordRead(r.Context(), db, user, fmt.Sprintf("User '%s' viewed users with role %s.", user.Username, role))
		respond.JSON(w, http.StatusOK, list)
	}
}

// ListAllUsersQueryHandler handles GET /users/all.
func ListAllUsersQueryHandler(db *sqlite.DB, auditSvc *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := actor.FromContext(r.Context())

		list, err := ListAllUsers(r.Context(), db)
		if err != nil {
			respond.Error(w, err)
			return
		}

		auditSvc.RecordRead(r.Context(), db, user, fmt.Sprintf("User '%s' viewed the full user list.", user.Username))
		respond.JSON(w, http.StatusOK, list)
	}
}

// CreateUserCommandHandler handles POST /users.
func CreateUserCommandHandler(db *sqlite.DB, auditSvc *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := actor.FromContext(r.Context())

		var in CreateUserInput
		if err := respond.DecodeJSON(r, &in); err != nil {
			respond.Error(w, err)
			return
		}
		created, err := CreateUser(r.Context(), db, auditSvc, user, in)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusCreated, created)
	}
}

// UpdateUserRoleCommandHandler handles PATCH /users/{id}/role.
func UpdateUserRoleCommandHandler(db *sqlite.DB, auditSvc *audit.Service, userCache *cache.UserCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := actor.FromContext(r.Context())

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id <= 0 {
			respond.Error(w, apperr.InvalidState("invalid user id"))
			return
		}
		var in UpdateRoleInput
		if err := respond.DecodeJSON(r, &in); err != nil {
			respond.Error(w, err)
			return
		}
		updated, err := UpdateUserRole(r.Context(), db, auditSvc, userCache, user, id, in)
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, updated)
	}
}

package login

import (
	"net/http"
	"strings"

	"fibertrack/api/shared/actor"
	"fibertrack/api/shared/respond"
	"fibertrack/infrastructure/apperr"
	"fibertrack/infrastructure/cache"
	"fibertrack/infrastructure/sqlite"
	"fibertrack/infrastructure/token"
)

// TokenPair is the password-grant response body.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
}

type refreshInput struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenCommandHandler handles POST /auth/token. The body is form
// encoded with username and password fields.
func TokenCommandHandler(db *sqlite.DB, tokenSvc *token.Service, userCache *cache.UserCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			respond.Error(w, apperr.InvalidState("invalid form data"))
			return
		}
		username := strings.TrimSpace(r.FormValue("username"))
		password := r.FormValue("password")
		if username == "" || password == "" {
			respond.Error(w, apperr.InvalidState("username and password are required"))
			return
		}

		user, err := Authenticate(r.Context(), db, username, password)
		if err != nil {
			respond.Error(w, err)
			return
		}

		access, err := tokenSvc.IssueAccess(user.Username, user.Role)
		if err != nil {
			respond.Error(w, apperr.Internal("issue access token", err))
			return
		}
		refresh, err := tokenSvc.IssueRefresh(user.Username, user.Role)
		if err != nil {
			respond.Error(w, apperr.Internal("issue refresh token", err))
			return
		}

		userCache.Add(user.Username, user)
		respond.JSON(w, http.StatusOK, TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"})
	}
}

// RefreshCommandHandler handles POST /auth/refresh.
func RefreshCommandHandler(db *sqlite.DB, tokenSvc *token.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in refreshInput
		if err := respond.DecodeJSON(r, &in); err != nil {
			respond.Error(w, err)
			return
		}
		claims, err := tokenSvc.ParseRefresh(in.RefreshToken)
		if err != nil {
			respond.Error(w, apperr.Forbidden("invalid refresh token"))
			return
		}

		// Re-resolve the user so a role change takes effect on refresh.
		user, err := FindUser(r.Context(), db, claims.Username)
		if err != nil {
			respond.Error(w, err)
			return
		}
		access, err := tokenSvc.IssueAccess(user.Username, user.Role)
		if err != nil {
			respond.Error(w, apperr.Internal("issue access token", err))
			return
		}
		respond.JSON(w, http.StatusOK, TokenPair{AccessToken: access, TokenType: "bearer"})
	}
}

// MeQueryHandler handles GET /auth/me.
func MeQueryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := actor.FromContext(r.Context())
		if !ok {
			respond.Error(w, apperr.Forbidden("not authenticated"))
			return
		}
		respond.JSON(w, http.StatusOK, user)
	}
}

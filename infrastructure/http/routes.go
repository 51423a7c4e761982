package http

import (
	"github.com/go-chi/chi/v5"

	auditapi "fibertrack/api/audit"
	"fibertrack/api/assets"
	"fibertrack/api/customers"
	"fibertrack/api/deployments"
	"fibertrack/api/inventory"
	"fibertrack/api/login"
	"fibertrack/api/network"
	"fibertrack/api/users"
	"fibertrack/infrastructure/rbac"
)

// RegisterAuthRoutes registers the unauthenticated token endpoints.
func (s *Server) RegisterAuthRoutes() {
	s.router.Post("/auth/token", login.TokenCommandHandler(s.DB, s.Tokens, s.UserCache))
	s.router.Post("/auth/refresh", login.RefreshCommandHandler(s.DB, s.Tokens))
}

// RegisterAPIRoutes registers every authenticated endpoint with its
// role requirements.
func (s *Server) RegisterAPIRoutes(r chi.Router) chi.Router {
	r.Get("/auth/me", login.MeQueryHandler())

	r.Route("/customers", func(r chi.Router) {
		r.With(s.RequireRoles(rbac.RolePlanner, rbac.RoleAdmin)).
			Post("/", customers.ProvisionCustomerCommandHandler(s.DB, s.Audit))
		r.Get("/", customers.ListCustomersQueryHandler(s.DB, s.Audit))
		r.Get("/{id}/provisioning-details", customers.ProvisioningDetailsQueryHandler(s.DB, s.Audit))
		r.With(s.RequireRoles(rbac.RoleSupportAgent, rbac.RoleAdmin)).
			Post("/{id}/deactivate", customers.DeactivateCustomerCommandHandler(s.DB, s.Audit))
		r.With(s.RequireRoles(rbac.RoleSupportAgent, rbac.RoleAdmin)).
			Get("/{id}/deactivation-details", customers.DeactivationDetailsQueryHandler(s.DB, s.Audit))
	})

	r.Route("/deployment-tasks", func(r chi.Router) {
		r.With(s.RequireRoles(rbac.RolePlanner, rbac.RoleAdmin)).
			Post("/", deployments.CreateTaskCommandHandler(s.DB, s.Audit))
		r.Get("/", deployments.ListTasksQueryHandler(s.DB, s.Audit))
		r.Patch("/{id}", deployments.UpdateChecklistCommandHandler(s.DB, s.Audit))
		r.With(s.RequireRoles(rbac.RolePlanner, rbac.RoleAdmin)).
			Post("/{id}/fail", deployments.FailTaskCommandHandler(s.DB, s.Audit))
	})

	r.Route("/assets", func(r chi.Router) {
		r.Get("/", assets.ListAssetsQueryHandler(s.DB, s.Audit))
		r.Get("/export.csv", assets.ExportAssetsQueryHandler(s.DB, s.Audit))
		r.With(s.RequireRoles(rbac.RolePlanner, rbac.RoleAdmin)).
			Get("/labels.pdf", assets.AssetLabelsQueryHandler(s.DB, s.Audit))
		r.Get("/{id}", assets.GetAssetQueryHandler(s.DB))
		r.Get("/{id}/history", assets.AssetHistoryQueryHandler(s.DB, s.Audit))
		r.With(s.RequireRoles(rbac.RolePlanner, rbac.RoleAdmin)).
			Post("/", assets.CreateAssetCommandHandler(s.DB, s.Audit))
		r.With(s.RequireRoles(rbac.RolePlanner, rbac.RoleAdmin)).
			Post("/bulk", assets.BulkImportCommandHandler(s.DB, s.Audit))
		r.With(s.RequireRoles(rbac.RoleSupportAgent, rbac.RoleAdmin)).
			Post("/swap", assets.SwapAssetsCommandHandler(s.DB, s.Audit))
		r.With(s.RequireRoles(rbac.RolePlanner, rbac.RoleAdmin)).
			Patch("/{id}", assets.UpdateAssetCommandHandler(s.DB, s.Audit))
		r.With(s.RequireRoles(rbac.RoleAdmin)).
			Delete("/{id}", assets.DeleteAssetCommandHandler(s.DB, s.Audit))
	})

	r.Get("/fdhs", network.ListFDHsQueryHandler(s.DB, s.Audit))
	r.Get("/fdhs/{id}/splitters", network.ListSplittersQueryHandler(s.DB, s.Audit))
	r.Get("/splitters/{id}/ports", network.ListPortsQueryHandler(s.DB, s.Audit))

	r.Get("/inventory", inventory.SnapshotQueryHandler(s.DB, s.Audit))

	r.Route("/users", func(r chi.Router) {
		r.With(s.RequireRoles(rbac.RolePlanner, rbac.RoleAdmin)).
			Get("/", users.ListUsersQueryHandler(s.DB, s.Audit))
		r.With(s.RequireRoles(rbac.RoleAdmin)).
			Get("/all", users.ListAllUsersQueryHandler(s.DB, s.Audit))
		r.With(s.RequireRoles(rbac.RoleAdmin)).
			Post("/", users.CreateUserCommandHandler(s.DB, s.Audit))
		r.With(s.RequireRoles(rbac.RoleAdmin)).
			Patch("/{id}/role", users.UpdateUserRoleCommandHandler(s.DB, s.Audit, s.UserCache))
	})

	r.Route("/audit-logs", func(r chi.Router) {
		r.Use(s.RequireRoles(rbac.RoleAdmin))
		r.Get("/", auditapi.ListLogsQueryHandler(s.DB))
		r.Get("/export.csv", auditapi.ExportLogsQueryHandler(s.DB))
	})

	return r
}

package rbac

// Roles match the values stored in users.role.
const (
	RoleAdmin        = "Admin"
	RolePlanner      = "Planner"
	RoleTechnician   = "Technician"
	RoleSupportAgent = "SupportAgent"
)

// KnownRole reports whether role is one of the closed set above.
func KnownRole(role string) bool {
	switch role {
	case RoleAdmin, RolePlanner, RoleTechnician, RoleSupportAgent:
		return true
	}
	return false
}

// Allow is the single capability check: it reports whether the actor's
// role is in the required set. An empty required set allows any known role.
func Allow(actorRole string, required ...string) bool {
	if !KnownRole(actorRole) {
		return false
	}
	if len(required) == 0 {
		return true
	}
	for _, role := range required {
		if actorRole == role {
			return true
		}
	}
	return false
}

package domain

// Role names as they appear in JWT claims issued by the upstream HR API.
const (
	RoleAdmin    = "admin"
	RoleHR       = "hr"
	RoleEmployee = "employee"
	RoleTeamLead = "team_lead"
)

// IsAdminLike reports whether the role sees the admin navigation
// namespace. Everything except plain employees is admin-like.
func IsAdminLike(role string) bool {
	return role != RoleEmployee && role != ""
}

// CanViewLeaveStream reports whether the role may subscribe to the
// admin leave-notification stream.
func CanViewLeaveStream(role string) bool {
	return role == RoleAdmin || role == RoleHR
}

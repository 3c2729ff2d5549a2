package auth

// Role is the capability level carried by a session. Viewers read the
// dashboard, operators additionally issue device commands and resolve
// error events, admins cover everything else.
type Role string

const (
	RoleViewer   Role = "viewer"
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

var roleRanks = map[Role]int{
	RoleViewer:   1,
	RoleOperator: 2,
	RoleAdmin:    3,
}

// NormalizeRole validates a role string. Unknown values are rejected
// rather than mapped to viewer so a typo in AUTH_USERS surfaces early.
func NormalizeRole(value string) (Role, bool) {
	role := Role(value)
	if _, known := roleRanks[role]; !known {
		return "", false
	}
	return role, true
}

// RoleAtLeast reports whether role meets the required capability level.
// Unknown roles rank below viewer and never satisfy any requirement.
func RoleAtLeast(role Role, required Role) bool {
	return roleRanks[role] >= roleRanks[required] && roleRanks[role] > 0
}

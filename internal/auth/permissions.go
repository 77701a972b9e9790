package auth

// Permission constants name the permissions checked against the principal's
// roles. A role matches a permission when the part after its first "_"
// equals the permission, ignoring case, e.g. ROLE_ADMIN_GROUPS grants
// admin_groups.
const (
	// PermAdminGroups allows listing groups and changing memberships of other users.
	PermAdminGroups = "admin_groups"
	// PermAdminUsers allows creating and importing users.
	PermAdminUsers = "admin_users"
	// PermAdmin allows everything below /api/admin.
	PermAdmin = "admin"
)

package constants

// PermissionRoles maps each permission to the roles allowed to perform it.
var PermissionRoles = map[string][]string{
	ManageUsers:     {Admin},
	AssignRole:      {Admin},
	ReviewDocuments: {Officer, Admin},
	ReviewKYC:       {Officer, Admin},
	CreateAMLCheck:  {Officer, Admin},
}

// AllowedRole returns true if role is in the list of allowed roles for the permission.
func AllowedRole(permission, role string) bool {
	roles, ok := PermissionRoles[permission]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

package model

const (
	RolePending = "pending"
	RoleViewer  = "viewer"
	RoleEditor  = "editor"
	RoleAdmin   = "admin"
)

// ApprovedRoles 管理员审核时可授予的角色
var ApprovedRoles = []string{RoleViewer, RoleEditor, RoleAdmin}

func IsApprovedRole(role string) bool {
	for _, r := range ApprovedRoles {
		if r == role {
			return true
		}
	}
	return false
}

package service

import (
	"Pibno/internal/model"
)

// Capability 管理面板中的一项能力
type Capability string

const (
	CapViewPosts   Capability = "view_posts"
	CapManagePosts Capability = "manage_posts"
	CapViewUsers   Capability = "view_users"
	CapManageUsers Capability = "manage_users"
	CapSettings    Capability = "settings"
)

var capabilities = map[string][]Capability{
	model.RoleViewer: {CapViewPosts},
	model.RoleEditor: {CapViewPosts, CapManagePosts, CapSettings},
	model.RoleAdmin:  {CapViewPosts, CapManagePosts, CapViewUsers, CapManageUsers, CapSettings},
}

// Can 判断角色是否拥有能力，pending 与未知角色没有任何能力
func Can(role string, capability Capability) bool {
	for _, c := range capabilities[role] {
		if c == capability {
			return true
		}
	}
	return false
}

// CanUser 未审核的用户一律拒绝
func CanUser(user *model.User, capability Capability) bool {
	return user.Active() && Can(user.Role, capability)
}

// Capabilities 返回角色的全部能力，用于前端渲染可见的标签页
func Capabilities(role string) []Capability {
	out := make([]Capability, len(capabilities[role]))
	copy(out, capabilities[role])
	return out
}

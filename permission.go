package taskflow

import "strings"

// Permission keys. This is the closed set; anything else is denied.
const (
	PermViewAllTasks          = "viewAllTasks"
	PermViewDepartmentTasks   = "viewDepartmentTasks"
	PermViewAssignedToMeTasks = "viewAssignedToMeTasks"
	PermViewIAssignedTasks    = "viewIAssignedTasks"
	PermViewSelfTasks         = "viewSelfTasks"
	PermCreateTasks           = "createTasks"
	PermApproveTasks          = "approveTasks"
	PermEditAllTasks          = "editAllTasks"
	PermEditOwnTasks          = "editOwnTasks"
	PermDeleteAllTasks        = "deleteAllTasks"
	PermDeleteOwnTasks        = "deleteOwnTasks"
	PermFilterByDepartment    = "filterByDepartment"
	PermFilterByRole          = "filterByRole"
	PermFilterByAssignee      = "filterByAssignee"
)

var knownPermissions = map[string]struct{}{
	PermViewAllTasks:          {},
	PermViewDepartmentTasks:   {},
	PermViewAssignedToMeTasks: {},
	PermViewIAssignedTasks:    {},
	PermViewSelfTasks:         {},
	PermCreateTasks:           {},
	PermApproveTasks:          {},
	PermEditAllTasks:          {},
	PermEditOwnTasks:          {},
	PermDeleteAllTasks:        {},
	PermDeleteOwnTasks:        {},
	PermFilterByDepartment:    {},
	PermFilterByRole:          {},
	PermFilterByAssignee:      {},
}

// KnownPermission reports whether key belongs to the permission set.
func KnownPermission(key string) bool {
	_, ok := knownPermissions[key]
	return ok
}

// HasPermission returns the flag stored for key on role. Missing roles,
// unknown keys and non-boolean values all deny.
func HasPermission(role *Role, key string) bool {
	if role == nil || role.Permissions == nil || !KnownPermission(key) {
		return false
	}
	allowed, ok := role.Permissions[key].(bool)
	return ok && allowed
}

// Can is HasPermission for the user's resolved role.
func (u *User) Can(key string) bool {
	if u == nil {
		return false
	}
	return HasPermission(u.Role, key)
}

// Role keys.
const (
	RoleMainDirector                = "maindirector"
	RoleDirector                    = "director"
	RoleGeneralManager              = "generalmanager"
	RoleManager                     = "manager"
	RoleDepartmentHead              = "departmenthead"
	RoleProjectManager              = "projectmanager"
	RoleStandalone                  = "standalone"
	RoleStandaloneRole              = "standalonerole"
	RoleProjectManagerAndStandalone = "projectmanagerandstandalone"
	RoleStaff                       = "staff"
)

// roleLevels ranks role keys for hierarchy comparisons. Unknown keys rank 0.
var roleLevels = map[string]int{
	RoleStaff:                       1,
	RoleProjectManager:              1,
	RoleStandalone:                  1,
	RoleStandaloneRole:              1,
	RoleProjectManagerAndStandalone: 1,
	RoleManager:                     2,
	RoleDepartmentHead:              2,
	RoleGeneralManager:              3,
	RoleDirector:                    4,
	RoleMainDirector:                5,
}

// NormalizeRoleName lowercases a role name and strips spaces, dashes and underscores.
func NormalizeRoleName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '-', '_':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(name)))
}

// RoleLevel returns the hierarchy rank of roleName.
func RoleLevel(roleName string) int {
	return roleLevels[NormalizeRoleName(roleName)]
}

// Outranks reports whether role a sits strictly above role b.
func Outranks(a, b string) bool {
	return RoleLevel(a) > RoleLevel(b)
}

func isManagerial(roleName string) bool {
	return roleName == RoleManager || roleName == RoleDepartmentHead
}

package taskflow

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func perms(keys ...string) datatypes.JSONMap {
	m := datatypes.JSONMap{}
	for _, k := range keys {
		m[k] = true
	}
	return m
}

// DefaultRoles is the seed set of roles and their permission flags.
var DefaultRoles = []Role{
	{Name: RoleMainDirector, DisplayName: "Main Director", Permissions: perms(
		PermViewAllTasks, PermViewAssignedToMeTasks, PermViewIAssignedTasks, PermViewSelfTasks,
		PermCreateTasks, PermApproveTasks, PermEditAllTasks, PermDeleteAllTasks,
		PermFilterByDepartment, PermFilterByRole, PermFilterByAssignee,
	)},
	{Name: RoleDirector, DisplayName: "Director", Permissions: perms(
		PermViewAllTasks, PermViewAssignedToMeTasks, PermViewIAssignedTasks, PermViewSelfTasks,
		PermCreateTasks, PermApproveTasks, PermEditOwnTasks, PermDeleteOwnTasks,
		PermFilterByDepartment, PermFilterByRole, PermFilterByAssignee,
	)},
	{Name: RoleGeneralManager, DisplayName: "General Manager", Permissions: perms(
		PermViewAllTasks, PermViewAssignedToMeTasks, PermViewIAssignedTasks, PermViewSelfTasks,
		PermCreateTasks, PermApproveTasks, PermEditOwnTasks, PermDeleteOwnTasks,
		PermFilterByDepartment, PermFilterByRole,
	)},
	{Name: RoleManager, DisplayName: "Manager", Permissions: perms(
		PermViewDepartmentTasks, PermViewAssignedToMeTasks, PermViewIAssignedTasks, PermViewSelfTasks,
		PermCreateTasks, PermApproveTasks, PermEditOwnTasks, PermDeleteOwnTasks, PermFilterByAssignee,
	)},
	{Name: RoleDepartmentHead, DisplayName: "Department Head", Permissions: perms(
		PermViewDepartmentTasks, PermViewAssignedToMeTasks, PermViewIAssignedTasks, PermViewSelfTasks,
		PermCreateTasks, PermApproveTasks, PermEditOwnTasks, PermDeleteOwnTasks, PermFilterByAssignee,
	)},
	{Name: RoleProjectManager, DisplayName: "Project Manager", Permissions: perms(
		PermViewAssignedToMeTasks, PermViewIAssignedTasks, PermViewSelfTasks,
		PermCreateTasks, PermEditOwnTasks, PermDeleteOwnTasks,
	)},
	{Name: RoleStandalone, DisplayName: "Standalone", Permissions: perms(
		PermViewAssignedToMeTasks, PermViewSelfTasks, PermCreateTasks, PermEditOwnTasks, PermDeleteOwnTasks,
	)},
	{Name: RoleStaff, DisplayName: "Staff", Permissions: perms(
		PermViewAssignedToMeTasks, PermViewSelfTasks, PermCreateTasks, PermEditOwnTasks, PermDeleteOwnTasks,
	)},
}

// SeedRoles creates any default role that does not exist yet.
func (s *Service) SeedRoles(ctx context.Context) error {
	for _, def := range DefaultRoles {
		role := def
		role.Permissions = datatypes.JSONMap{}
		for k, v := range def.Permissions {
			role.Permissions[k] = v
		}
		if err := s.db.WithContext(ctx).Where("name = ?", role.Name).FirstOrCreate(&role).Error; err != nil {
			return fmt.Errorf("failed to seed role %s: %w", role.Name, err)
		}
	}
	return s.invalidateCache(ctx, "role")
}

// GetRoleByName retrieves a role by its normalized key.
func (s *Service) GetRoleByName(ctx context.Context, name string) (*Role, error) {
	name = NormalizeRoleName(name)
	if name == "" {
		return nil, ErrInvalidInput
	}

	var role Role
	key := s.cacheKey("role", name)
	if s.getCached(ctx, key, &role) {
		return &role, nil
	}

	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.setCached(ctx, key, role)
	return &role, nil
}

// ListRoles retrieves all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	var roles []Role
	if err := s.db.WithContext(ctx).Order("id").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

// UpdateRolePermissions replaces a role's permission flags. Unknown keys are rejected.
func (s *Service) UpdateRolePermissions(ctx context.Context, roleID uint, flags map[string]bool) (*Role, error) {
	if roleID == 0 {
		return nil, ErrInvalidInput
	}
	m := datatypes.JSONMap{}
	for k, v := range flags {
		if !KnownPermission(k) {
			return nil, fmt.Errorf("%w: unknown permission %q", ErrInvalidInput, k)
		}
		m[k] = v
	}

	var role Role
	if err := s.db.WithContext(ctx).First(&role, roleID).Error; err != nil {
		return nil, ErrNotFound
	}
	role.Permissions = m
	if err := s.db.WithContext(ctx).Save(&role).Error; err != nil {
		return nil, err
	}

	s.invalidateCache(ctx, "role")
	s.invalidateCache(ctx, "assignable")
	return &role, nil
}

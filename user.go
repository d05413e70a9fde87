package taskflow

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

func withUserRefs(db *gorm.DB) *gorm.DB {
	return db.Preload("Role").Preload("Department")
}

// CreateUser creates a user with the given role and optional department.
func (s *Service) CreateUser(ctx context.Context, u *User) error {
	if u == nil || u.Email == "" || u.Name == "" || u.RoleID == 0 {
		return ErrInvalidInput
	}

	var role Role
	if err := s.db.WithContext(ctx).First(&role, u.RoleID).Error; err != nil {
		return ErrNotFound
	}
	if u.DepartmentID != nil {
		if _, err := s.GetDepartment(ctx, *u.DepartmentID); err != nil {
			return err
		}
	}

	if err := s.db.WithContext(ctx).Omit("Role", "Department").Create(u).Error; err != nil {
		return err
	}
	u.Role = &role
	s.invalidateCache(ctx, "assignable")
	return nil
}

// GetUser retrieves a user with role and department resolved.
func (s *Service) GetUser(ctx context.Context, id uint) (*User, error) {
	if id == 0 {
		return nil, ErrInvalidInput
	}

	var u User
	if err := withUserRefs(s.db.WithContext(ctx)).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// ListUsers retrieves all users with role and department resolved.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := withUserRefs(s.db.WithContext(ctx)).Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Service) usersByIDs(ctx context.Context, ids []uint) ([]User, error) {
	var found []User
	if err := withUserRefs(s.db.WithContext(ctx)).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]User, len(found))
	for _, u := range found {
		byID[u.ID] = u
	}
	out := make([]User, 0, len(ids))
	for _, id := range ids {
		u, ok := byID[id]
		if !ok {
			return nil, ErrNotFound
		}
		out = append(out, u)
	}
	return out, nil
}

var crossDepartmentTargets = []string{
	RoleDepartmentHead,
	RoleProjectManager,
	RoleStandalone,
	RoleStandaloneRole,
	RoleProjectManagerAndStandalone,
}

// ListAssignableUsers returns the users actor may assign tasks to. Managers and
// department heads get their own department's staff plus heads, project
// managers and standalone roles of other departments; the resolver then
// applies the role-hierarchy rules.
func (s *Service) ListAssignableUsers(ctx context.Context, actor *User) ([]User, error) {
	if actor == nil || actor.ID == 0 {
		return nil, ErrInvalidInput
	}

	var users []User
	key := s.cacheKey("assignable", actor.ID)
	if s.getCached(ctx, key, &users) {
		return users, nil
	}

	query := withUserRefs(s.db.WithContext(ctx)).Where("users.id <> ?", actor.ID).Order("users.id")
	if isManagerial(s.resolver.EffectiveRole(actor)) && actor.DepartmentID != nil {
		query = query.Joins("JOIN roles ON roles.id = users.role_id").
			Where("(users.department_id = ? AND roles.name = ?) OR (COALESCE(users.department_id, 0) <> ? AND roles.name IN ?)",
				*actor.DepartmentID, RoleStaff, *actor.DepartmentID, crossDepartmentTargets)
	}
	if err := query.Find(&users).Error; err != nil {
		return nil, err
	}

	users = s.resolver.Resolve(actor, users)
	s.setCached(ctx, key, users)
	return users, nil
}

// UpdateUserRole moves a user to another role.
func (s *Service) UpdateUserRole(ctx context.Context, userID, roleID uint) (*User, error) {
	if userID == 0 || roleID == 0 {
		return nil, ErrInvalidInput
	}

	var role Role
	if err := s.db.WithContext(ctx).First(&role, roleID).Error; err != nil {
		return nil, ErrNotFound
	}
	res := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).Update("role_id", roleID)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	s.invalidateCache(ctx, "assignable")
	return s.GetUser(ctx, userID)
}

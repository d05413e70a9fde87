package taskflow

import "context"

// CreateDepartment creates a new department.
func (s *Service) CreateDepartment(ctx context.Context, name string) (*Department, error) {
	if name == "" {
		return nil, ErrInvalidInput
	}

	dept := &Department{Name: name}
	if err := s.db.WithContext(ctx).Create(dept).Error; err != nil {
		return nil, err
	}
	return dept, nil
}

// GetDepartment retrieves a department by ID.
func (s *Service) GetDepartment(ctx context.Context, id uint) (*Department, error) {
	if id == 0 {
		return nil, ErrInvalidInput
	}

	var dept Department
	if err := s.db.WithContext(ctx).First(&dept, id).Error; err != nil {
		return nil, ErrNotFound
	}
	return &dept, nil
}

// ListDepartments retrieves all departments.
func (s *Service) ListDepartments(ctx context.Context) ([]Department, error) {
	var depts []Department
	if err := s.db.WithContext(ctx).Order("name").Find(&depts).Error; err != nil {
		return nil, err
	}
	return depts, nil
}

package taskflow

import (
	"fmt"
	"testing"
	"time"
)

// roleFixture returns a copy of the default role with the given key.
func roleFixture(t *testing.T, name string) *Role {
	t.Helper()
	for i, r := range DefaultRoles {
		if r.Name == name {
			role := DefaultRoles[i]
			role.ID = uint(i + 1)
			return &role
		}
	}
	t.Fatalf("no default role %q", name)
	return nil
}

// makeUser builds a resolved user for pure-function tests.
func makeUser(t *testing.T, id uint, roleName string, dept uint) User {
	t.Helper()
	role := roleFixture(t, roleName)
	u := User{
		ID:     id,
		Name:   fmt.Sprintf("%s %d", roleName, id),
		Email:  fmt.Sprintf("%s%d@example.com", roleName, id),
		RoleID: role.ID,
		Role:   role,
	}
	if dept != 0 {
		d := dept
		u.DepartmentID = &d
		u.Department = &Department{ID: d, Name: "dept"}
	}
	return u
}

// makeTask builds a task created by creator and held by assignee.
func makeTask(id uint, creator, assignee *User) Task {
	return Task{
		ID:              id,
		SNo:             id,
		Description:     "task",
		Priority:        PriorityMedium,
		Status:          StatusPending,
		CreatedByID:     creator.ID,
		CreatedBy:       creator,
		AssignedToID:    assignee.ID,
		AssignedTo:      assignee,
		AssignedToEmail: assignee.Email,
		IsSelfTask:      creator.ID == assignee.ID,
		ApprovalStatus:  ApprovalPending,
		CreatedAt:       time.Date(2026, 1, 1, 0, 0, int(id), 0, time.UTC),
	}
}

func ids(tasks []Task) []uint {
	out := make([]uint, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func equalIDs(a, b []uint) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

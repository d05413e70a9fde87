package taskflow

import "testing"

func TestDirectoryNormalizeTasks(t *testing.T) {
	roles := []Role{*roleFixture(t, RoleStaff), *roleFixture(t, RoleDepartmentHead)}
	depts := []Department{{ID: 1, Name: "Operations"}}
	dept := uint(1)
	users := []User{
		{ID: 1, Email: "head@example.com", RoleID: roles[1].ID, DepartmentID: &dept},
		{ID: 2, Email: "staff@example.com", RoleID: roles[0].ID, DepartmentID: &dept},
	}
	d := NewDirectory(users, roles, depts)

	if u := d.User(2); u == nil || u.RoleName() != RoleStaff || u.Department == nil || u.Department.Name != "Operations" {
		t.Fatalf("user not normalized: %+v", u)
	}
	if d.User(99) != nil {
		t.Error("unknown user must be nil")
	}
	if users[0].Role != nil {
		t.Error("input users must not be mutated")
	}

	headID := uint(1)
	raw := []Task{{ID: 7, CreatedByID: 1, AssignedToID: 2, ForwardedByID: &headID, TaskGivenByID: &headID}}
	got := d.NormalizeTasks(raw)

	task := got[0]
	if task.AssignedTo == nil || task.AssignedTo.RoleName() != RoleStaff {
		t.Errorf("assignee not resolved: %+v", task.AssignedTo)
	}
	if task.AssignedToEmail != "staff@example.com" || task.ForwardedByEmail != "head@example.com" {
		t.Errorf("emails not filled: %q %q", task.AssignedToEmail, task.ForwardedByEmail)
	}
	if task.CreatedBy == nil || task.TaskGivenBy == nil || task.ForwardedBy == nil {
		t.Error("user references not resolved")
	}
	if raw[0].AssignedTo != nil {
		t.Error("input tasks must not be mutated")
	}
}

func TestDirectoryKeepsDanglingReferences(t *testing.T) {
	d := NewDirectory(nil, nil, nil)
	got := d.NormalizeTasks([]Task{{ID: 1, CreatedByID: 5, AssignedToID: 6, AssignedToEmail: "kept@example.com"}})
	if got[0].AssignedTo != nil || got[0].AssignedToEmail != "kept@example.com" {
		t.Errorf("dangling reference handled wrongly: %+v", got[0])
	}

	users := d.NormalizeUsers([]User{{ID: 5, RoleID: 3}})
	if users[0].Role != nil || users[0].RoleName() != "" {
		t.Error("unknown role must stay unresolved")
	}
}

package taskflow

// Directory resolves role, department and user references into objects so the
// classifier and pipeline only ever see fully populated records.
type Directory struct {
	users map[uint]*User
	roles map[uint]*Role
	depts map[uint]*Department
}

// NewDirectory indexes the given records. Users are copied and normalized.
func NewDirectory(users []User, roles []Role, depts []Department) *Directory {
	d := &Directory{
		users: make(map[uint]*User, len(users)),
		roles: make(map[uint]*Role, len(roles)),
		depts: make(map[uint]*Department, len(depts)),
	}
	for i := range roles {
		d.roles[roles[i].ID] = &roles[i]
	}
	for i := range depts {
		d.depts[depts[i].ID] = &depts[i]
	}
	for _, u := range users {
		u := u
		d.normalizeUser(&u)
		d.users[u.ID] = &u
	}
	return d
}

func (d *Directory) normalizeUser(u *User) {
	if u.Role == nil {
		u.Role = d.roles[u.RoleID]
	}
	if u.Department == nil && u.DepartmentID != nil {
		u.Department = d.depts[*u.DepartmentID]
	}
}

// User returns the normalized user with the given id, or nil.
func (d *Directory) User(id uint) *User {
	return d.users[id]
}

// NormalizeUsers returns copies of users with role and department resolved.
func (d *Directory) NormalizeUsers(users []User) []User {
	out := make([]User, len(users))
	for i, u := range users {
		d.normalizeUser(&u)
		out[i] = u
	}
	return out
}

// NormalizeTasks returns copies of tasks whose user references point at
// normalized directory entries.
func (d *Directory) NormalizeTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		if u := d.users[t.CreatedByID]; u != nil {
			t.CreatedBy = u
		}
		if u := d.users[t.AssignedToID]; u != nil {
			t.AssignedTo = u
			if t.AssignedToEmail == "" {
				t.AssignedToEmail = u.Email
			}
		}
		if t.ForwardedByID != nil {
			if u := d.users[*t.ForwardedByID]; u != nil {
				t.ForwardedBy = u
				if t.ForwardedByEmail == "" {
					t.ForwardedByEmail = u.Email
				}
			}
		}
		if t.TaskGivenByID != nil {
			if u := d.users[*t.TaskGivenByID]; u != nil {
				t.TaskGivenBy = u
			}
		}
		out[i] = t
	}
	return out
}

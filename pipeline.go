package taskflow

import (
	"slices"
	"strings"
)

// Filter narrows a view. Empty fields and "all" match everything.
type Filter struct {
	Status       string `query:"status"`
	Search       string `query:"search"`
	DepartmentID uint   `query:"department"`
	Priority     string `query:"priority"`
	Role         string `query:"role"`
	Assignee     string `query:"assignee"`

	// StrictDepartmentID, when set, is applied before DepartmentID and
	// cannot be widened by it.
	StrictDepartmentID uint `query:"-"`
}

// SortKey selects the ordering applied after filtering.
type SortKey string

const (
	SortByDate     SortKey = "date"
	SortByNewest   SortKey = "newest"
	SortByOldest   SortKey = "oldest"
	SortByPriority SortKey = "priority"
	SortByStatus   SortKey = "status"
)

func unset(v string) bool {
	return v == "" || strings.EqualFold(v, "all")
}

func assigneeDepartment(t *Task) uint {
	if t.AssignedTo == nil || t.AssignedTo.DepartmentID == nil {
		return 0
	}
	return *t.AssignedTo.DepartmentID
}

func matchesSearch(t *Task, q string) bool {
	fields := []string{t.Description, t.AssignedToEmail}
	if t.AssignedTo != nil {
		fields = append(fields, t.AssignedTo.Name, t.AssignedTo.Email)
	}
	if t.CreatedBy != nil {
		fields = append(fields, t.CreatedBy.Email)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// ApplyPipeline filters tasks as a conjunction of f's predicates and sorts
// the result stably by sortBy. The input slice is not modified.
func ApplyPipeline(tasks []Task, f Filter, sortBy SortKey) []Task {
	query := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]Task, 0, len(tasks))
	for i := range tasks {
		t := &tasks[i]
		if f.StrictDepartmentID != 0 && assigneeDepartment(t) != f.StrictDepartmentID {
			continue
		}
		if !unset(f.Status) && !strings.EqualFold(string(t.Status), f.Status) {
			continue
		}
		if query != "" && !matchesSearch(t, query) {
			continue
		}
		if f.DepartmentID != 0 && assigneeDepartment(t) != f.DepartmentID {
			continue
		}
		if !unset(f.Priority) && string(t.Priority) != f.Priority {
			continue
		}
		if !unset(f.Role) && (t.AssignedTo == nil || t.AssignedTo.Role == nil || t.AssignedTo.Role.Name != f.Role) {
			continue
		}
		if !unset(f.Assignee) && t.AssignedToEmail != f.Assignee {
			continue
		}
		out = append(out, *t)
	}
	SortTasks(out, sortBy)
	return out
}

var priorityRank = map[Priority]int{
	PriorityHigh:   1,
	PriorityMedium: 2,
	PriorityLow:    3,
}

var statusRank = map[TaskStatus]int{
	StatusPending:            1,
	StatusInProgress:         2,
	StatusWaitingForApproval: 3,
	StatusCompleted:          4,
}

func rank(m map[Priority]int, p Priority) int {
	if r, ok := m[p]; ok {
		return r
	}
	return len(m) + 1
}

// SortTasks orders tasks in place. Unknown keys leave the order unchanged.
func SortTasks(tasks []Task, sortBy SortKey) {
	var cmp func(a, b Task) int
	switch sortBy {
	case SortByDate:
		cmp = func(a, b Task) int {
			switch {
			case a.DueDate == nil && b.DueDate == nil:
				return 0
			case a.DueDate == nil:
				return 1
			case b.DueDate == nil:
				return -1
			}
			return a.DueDate.Compare(*b.DueDate)
		}
	case SortByNewest:
		cmp = func(a, b Task) int { return b.CreatedAt.Compare(a.CreatedAt) }
	case SortByOldest:
		cmp = func(a, b Task) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case SortByPriority:
		cmp = func(a, b Task) int { return rank(priorityRank, a.Priority) - rank(priorityRank, b.Priority) }
	case SortByStatus:
		cmp = func(a, b Task) int { return statusOrder(a.Status) - statusOrder(b.Status) }
	default:
		return
	}
	slices.SortStableFunc(tasks, cmp)
}

func statusOrder(s TaskStatus) int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return len(statusRank) + 1
}

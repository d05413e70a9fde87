package taskflow

import "strings"

// Views holds the named task buckets for one actor. Buckets overlap.
type Views struct {
	AssignedToMe  []Task `json:"assignedToMe"`
	IAssigned     []Task `json:"iAssigned"`
	SelfTasks     []Task `json:"selfTasks"`
	ForwardedByMe []Task `json:"forwardedByMe"`
	AllDeptTasks  []Task `json:"allDeptTasks"`
}

// Classify partitions tasks into the actor's views.
func Classify(actor *User, tasks []Task) Views {
	v := Views{
		AssignedToMe:  []Task{},
		IAssigned:     []Task{},
		SelfTasks:     []Task{},
		ForwardedByMe: []Task{},
		AllDeptTasks:  append([]Task{}, tasks...),
	}
	if actor == nil {
		return v
	}
	for _, t := range tasks {
		if t.AssignedToID == actor.ID && t.CreatedByID != actor.ID {
			v.AssignedToMe = append(v.AssignedToMe, t)
		}
		if t.CreatedByID == actor.ID && t.AssignedToID != actor.ID {
			v.IAssigned = append(v.IAssigned, t)
		}
		if t.IsSelfTask && t.CreatedByID == actor.ID && t.AssignedToID == actor.ID {
			v.SelfTasks = append(v.SelfTasks, t)
		}
		if t.IsForwarded && isForwarder(actor, &t) {
			v.ForwardedByMe = append(v.ForwardedByMe, t)
		}
	}
	return v
}

func isForwarder(actor *User, t *Task) bool {
	if actor == nil || !t.IsForwarded {
		return false
	}
	if t.ForwardedByID != nil && *t.ForwardedByID == actor.ID {
		return true
	}
	return actor.Email != "" && strings.EqualFold(t.ForwardedByEmail, actor.Email)
}

func sameDepartment(u *User, deptID *uint) bool {
	return u != nil && u.DepartmentID != nil && deptID != nil && *u.DepartmentID == *deptID
}

// DepartmentTasks returns the department-tasks view. Department heads only see
// tasks whose assignee belongs to their own department.
func DepartmentTasks(actor *User, v Views) []Task {
	if actor.RoleName() != RoleDepartmentHead {
		return v.AllDeptTasks
	}
	out := make([]Task, 0, len(v.AllDeptTasks))
	for _, t := range v.AllDeptTasks {
		if sameDepartment(t.AssignedTo, actor.DepartmentID) {
			out = append(out, t)
		}
	}
	return out
}

// Tab names a selectable view.
type Tab string

const (
	TabAssignedToMe    Tab = "assigned-to-me"
	TabIAssigned       Tab = "i-assigned"
	TabSelfTasks       Tab = "self-tasks"
	TabAllTasks        Tab = "all-tasks"
	TabDepartmentTasks Tab = "department-tasks"
	TabForwardedTasks  Tab = "forwarded-tasks"
)

// tabOrder is the fallback priority when the requested tab is not permitted.
var tabOrder = []Tab{
	TabAssignedToMe,
	TabIAssigned,
	TabSelfTasks,
	TabAllTasks,
	TabDepartmentTasks,
	TabForwardedTasks,
}

// TabPermitted reports whether actor may open tab.
func TabPermitted(actor *User, tab Tab) bool {
	switch tab {
	case TabAssignedToMe:
		return actor.Can(PermViewAssignedToMeTasks)
	case TabIAssigned:
		return actor.Can(PermViewIAssignedTasks)
	case TabSelfTasks:
		return actor.Can(PermViewSelfTasks)
	case TabAllTasks:
		return actor.Can(PermViewAllTasks)
	case TabDepartmentTasks:
		return actor.Can(PermViewDepartmentTasks)
	case TabForwardedTasks:
		return isManagerial(actor.RoleName())
	}
	return false
}

// PermittedTabs lists the actor's tabs in priority order.
func PermittedTabs(actor *User) []Tab {
	tabs := make([]Tab, 0, len(tabOrder))
	for _, tab := range tabOrder {
		if TabPermitted(actor, tab) {
			tabs = append(tabs, tab)
		}
	}
	return tabs
}

// SelectTab returns requested when permitted, otherwise the first permitted
// tab. The boolean is false when the actor has no tab at all.
func SelectTab(actor *User, requested Tab) (Tab, bool) {
	if TabPermitted(actor, requested) {
		return requested, true
	}
	tabs := PermittedTabs(actor)
	if len(tabs) == 0 {
		return "", false
	}
	return tabs[0], true
}

// Tasks returns the bucket backing tab.
func (v Views) Tasks(actor *User, tab Tab) []Task {
	switch tab {
	case TabAssignedToMe:
		return v.AssignedToMe
	case TabIAssigned:
		return v.IAssigned
	case TabSelfTasks:
		return v.SelfTasks
	case TabAllTasks:
		return v.AllDeptTasks
	case TabDepartmentTasks:
		return DepartmentTasks(actor, v)
	case TabForwardedTasks:
		return v.ForwardedByMe
	}
	return nil
}

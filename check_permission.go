package taskflow

func involved(actor *User, t *Task) bool {
	if actor == nil {
		return false
	}
	if t.CreatedByID == actor.ID || t.AssignedToID == actor.ID {
		return true
	}
	if t.TaskGivenByID != nil && *t.TaskGivenByID == actor.ID {
		return true
	}
	return isForwarder(actor, t)
}

// CanViewTask reports whether actor may see t at all.
func CanViewTask(actor *User, t *Task) bool {
	if involved(actor, t) || actor.Can(PermViewAllTasks) {
		return true
	}
	if !actor.Can(PermViewDepartmentTasks) {
		return false
	}
	return sameDepartment(t.AssignedTo, actor.DepartmentID) || sameDepartment(t.CreatedBy, actor.DepartmentID)
}

// CanEditTask checks editAllTasks, or editOwnTasks on a task the actor created.
func CanEditTask(actor *User, t *Task) bool {
	if actor.Can(PermEditAllTasks) {
		return true
	}
	return actor.Can(PermEditOwnTasks) && t.CreatedByID == actor.ID
}

// CanDeleteTask checks deleteAllTasks, or deleteOwnTasks on a task the actor created.
func CanDeleteTask(actor *User, t *Task) bool {
	if actor.Can(PermDeleteAllTasks) {
		return true
	}
	return actor.Can(PermDeleteOwnTasks) && t.CreatedByID == actor.ID
}

// CanForwardTask reports whether actor currently holds t and may pass it on.
func CanForwardTask(actor *User, t *Task) bool {
	if actor == nil || !isManagerial(actor.RoleName()) {
		return false
	}
	return t.AssignedToID == actor.ID && t.Status != StatusCompleted
}

// CanChangeStatus reports whether actor owns t's status.
func CanChangeStatus(actor *User, t *Task) bool {
	if actor == nil {
		return false
	}
	return t.AssignedToID == actor.ID || actor.Can(PermEditAllTasks)
}

// CanApproveTask reports whether actor may approve or reject t at its current stage.
func CanApproveTask(actor *User, t *Task) bool {
	if actor == nil {
		return false
	}
	switch Stage(t) {
	case StageNeedsForwarderVerification:
		return isForwarder(actor, t)
	case StageNeedsApproval:
		if t.AssignedToID == actor.ID {
			return false
		}
		if t.CreatedByID == actor.ID {
			return true
		}
		// a verified forward goes upstream; the forwarder already had their hop.
		if t.ForwarderApproved && isForwarder(actor, t) {
			return false
		}
		return actor.Can(PermApproveTasks)
	}
	return false
}

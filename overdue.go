package taskflow

import "time"

// IsTaskOverdue reports whether t is past its due date and not completed.
func IsTaskOverdue(t *Task, now time.Time) bool {
	if t.DueDate == nil || t.Status == StatusCompleted {
		return false
	}
	return t.DueDate.Before(now)
}

// CountOverdue counts overdue tasks in tasks.
func CountOverdue(tasks []Task, now time.Time) int {
	n := 0
	for i := range tasks {
		if IsTaskOverdue(&tasks[i], now) {
			n++
		}
	}
	return n
}

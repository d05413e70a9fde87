package taskflow

import (
	"testing"
	"time"
)

func TestIsTaskOverdue(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	tomorrow := now.AddDate(0, 0, 1)

	tests := []struct {
		name   string
		due    *time.Time
		status TaskStatus
		want   bool
	}{
		{"Given due yesterday and pending Then overdue", &yesterday, StatusPending, true},
		{"Given due yesterday and waiting Then overdue", &yesterday, StatusWaitingForApproval, true},
		{"Given due yesterday and completed Then not overdue", &yesterday, StatusCompleted, false},
		{"Given due tomorrow Then not overdue", &tomorrow, StatusInProgress, false},
		{"Given due exactly now Then not overdue", &now, StatusPending, false},
		{"Given no due date Then not overdue", nil, StatusPending, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := Task{DueDate: tt.due, Status: tt.status}
			if got := IsTaskOverdue(&task, now); got != tt.want {
				t.Errorf("IsTaskOverdue = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCountOverdue(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	tasks := []Task{
		{DueDate: &past, Status: StatusPending},
		{DueDate: &past, Status: StatusCompleted},
		{DueDate: &past, Status: StatusInProgress},
		{Status: StatusPending},
	}
	if got := CountOverdue(tasks, now); got != 2 {
		t.Errorf("CountOverdue = %d, want 2", got)
	}
}

package taskflow

import (
	"errors"
	"testing"
	"time"
)

var approvalNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func TestApplyStatusTransitions(t *testing.T) {
	gm := makeUser(t, 1, RoleGeneralManager, 0)
	staff := makeUser(t, 4, RoleStaff, 1)
	other := makeUser(t, 5, RoleStaff, 1)
	md := makeUser(t, 6, RoleMainDirector, 0)

	assigned := makeTask(1, &gm, &staff)
	self := makeTask(2, &staff, &staff)
	toMain := makeTask(3, &gm, &md)

	tests := []struct {
		name    string
		actor   *User
		task    Task
		from    TaskStatus
		to      TaskStatus
		confirm bool
		wantErr error
	}{
		{"Given unconfirmed change Then confirmation required", &staff, assigned, StatusPending, StatusInProgress, false, ErrConfirmationRequired},
		{"Given unknown status Then invalid input", &staff, assigned, StatusPending, TaskStatus("Done"), true, ErrInvalidInput},
		{"Given non assignee Then denied", &other, assigned, StatusPending, StatusInProgress, true, ErrPermissionDenied},
		{"Given pending When start Then in progress", &staff, assigned, StatusPending, StatusInProgress, true, nil},
		{"Given same status Then invalid transition", &staff, assigned, StatusInProgress, StatusInProgress, true, ErrInvalidTransition},
		{"Given in progress When submit Then waiting", &staff, assigned, StatusInProgress, StatusWaitingForApproval, true, nil},
		{"Given approval needed When complete directly Then approval required", &staff, assigned, StatusInProgress, StatusCompleted, true, ErrApprovalRequired},
		{"Given waiting When assignee moves on Then approval required", &staff, assigned, StatusWaitingForApproval, StatusInProgress, true, ErrApprovalRequired},
		{"Given completed Then terminal", &staff, assigned, StatusCompleted, StatusInProgress, true, ErrInvalidTransition},
		{"Given in progress When back to pending Then invalid", &staff, assigned, StatusInProgress, StatusPending, true, ErrInvalidTransition},
		{"Given pending When submit Then invalid", &staff, assigned, StatusPending, StatusWaitingForApproval, true, ErrInvalidTransition},
		{"Given pending self task When complete Then invalid", &staff, self, StatusPending, StatusCompleted, true, ErrInvalidTransition},
		{"Given self task in progress When complete Then allowed", &staff, self, StatusInProgress, StatusCompleted, true, nil},
		{"Given self task When submit Then invalid", &staff, self, StatusInProgress, StatusWaitingForApproval, true, ErrInvalidTransition},
		{"Given main director holder When complete Then allowed", &md, toMain, StatusInProgress, StatusCompleted, true, nil},
		{"Given edit-all holder When start Then allowed", &md, assigned, StatusPending, StatusInProgress, true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := tt.task
			task.Status = tt.from
			next, err := ApplyStatus(tt.actor, &task, tt.to, tt.confirm, approvalNow)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				if next != nil {
					t.Error("no task may be returned on error")
				}
				return
			}
			if next.Status != tt.to {
				t.Errorf("status = %s, want %s", next.Status, tt.to)
			}
			if task.Status != tt.from {
				t.Error("input task must not be mutated")
			}
			if tt.to == StatusCompleted && (next.CompletedAt == nil || next.ApprovalStatus != ApprovalApproved) {
				t.Errorf("completion not recorded: %+v", next)
			}
		})
	}
}

func TestApprovalRoundTrip(t *testing.T) {
	gm := makeUser(t, 1, RoleGeneralManager, 0)
	staff := makeUser(t, 4, RoleStaff, 1)
	task := makeTask(1, &gm, &staff)
	task.Status = StatusInProgress

	waiting, err := ApplyStatus(&staff, &task, StatusWaitingForApproval, true, approvalNow)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if Stage(waiting) != StageNeedsApproval || ApprovalLabel(waiting) != "Approve" {
		t.Fatalf("stage = %s", Stage(waiting))
	}
	if _, _, err := ApplyApproval(&staff, waiting, true, approvalNow); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("assignee approving own task: err = %v", err)
	}

	returned, err := ApplyRejection(&gm, waiting, true)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if returned.Status != StatusInProgress || returned.ApprovalStatus != ApprovalReturned {
		t.Errorf("rejected task = %s / %s", returned.Status, returned.ApprovalStatus)
	}

	resubmitted, err := ApplyStatus(&staff, returned, StatusWaitingForApproval, true, approvalNow)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if resubmitted.ApprovalStatus != ApprovalPending {
		t.Errorf("resubmitted approval status = %s", resubmitted.ApprovalStatus)
	}

	done, outcome, err := ApplyApproval(&gm, resubmitted, true, approvalNow)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if outcome != OutcomeApproved || done.Status != StatusCompleted || Stage(done) != StageApproved {
		t.Errorf("approve outcome = %s, status = %s", outcome, done.Status)
	}
	if done.CompletedAt == nil || !done.CompletedAt.Equal(approvalNow) {
		t.Errorf("completedAt = %v", done.CompletedAt)
	}

	if _, err := ApplyRejection(&gm, done, true); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("rejecting a completed task: err = %v", err)
	}
}

func TestForwardedTaskTwoHopApproval(t *testing.T) {
	gm := makeUser(t, 1, RoleGeneralManager, 0)
	head := makeUser(t, 2, RoleDepartmentHead, 1)
	otherHead := makeUser(t, 3, RoleDepartmentHead, 2)
	staff := makeUser(t, 4, RoleStaff, 1)

	headID := head.ID
	task := makeTask(1, &gm, &staff)
	task.IsForwarded = true
	task.ForwardedByID = &headID
	task.ForwardedByEmail = head.Email
	task.Status = StatusWaitingForApproval

	if Stage(&task) != StageNeedsForwarderVerification {
		t.Fatalf("stage = %s", Stage(&task))
	}
	if ApprovalLabel(&task) != "Verify & Sent Approval" {
		t.Errorf("label = %q", ApprovalLabel(&task))
	}
	for _, u := range []*User{&gm, &otherHead, &staff} {
		if CanApproveTask(u, &task) {
			t.Errorf("%s must not act before forwarder verification", u.Email)
		}
	}

	verified, outcome, err := ApplyApproval(&head, &task, true, approvalNow)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if outcome != OutcomeForwarderVerified || verified.Status != StatusWaitingForApproval || !verified.ForwarderApproved {
		t.Fatalf("verification result = %s %s %v", outcome, verified.Status, verified.ForwarderApproved)
	}
	if Stage(verified) != StageNeedsApproval {
		t.Fatalf("stage after verification = %s", Stage(verified))
	}

	if CanApproveTask(&head, verified) {
		t.Error("forwarder must not also take the final hop")
	}
	if _, _, err := ApplyApproval(&head, verified, true, approvalNow); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("second approval by the forwarder: err = %v", err)
	}
	if !CanApproveTask(&otherHead, verified) {
		t.Error("another approver may take the final hop")
	}

	done, outcome, err := ApplyApproval(&gm, verified, true, approvalNow)
	if err != nil || outcome != OutcomeApproved || done.Status != StatusCompleted {
		t.Fatalf("final approval = %v %s", err, outcome)
	}
}

func TestForwarderWhoCreatedTaskApprovesOnce(t *testing.T) {
	head := makeUser(t, 2, RoleDepartmentHead, 1)
	staff := makeUser(t, 4, RoleStaff, 1)

	headID := head.ID
	task := makeTask(1, &head, &staff)
	task.IsForwarded = true
	task.ForwardedByID = &headID
	task.Status = StatusWaitingForApproval

	done, outcome, err := ApplyApproval(&head, &task, true, approvalNow)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if outcome != OutcomeApproved || done.Status != StatusCompleted {
		t.Errorf("approval = %s %s, want a single completing step", outcome, done.Status)
	}
}

func TestRejectionResetsForwarderVerification(t *testing.T) {
	gm := makeUser(t, 1, RoleGeneralManager, 0)
	head := makeUser(t, 2, RoleDepartmentHead, 1)
	staff := makeUser(t, 4, RoleStaff, 1)

	headID := head.ID
	task := makeTask(1, &gm, &staff)
	task.IsForwarded = true
	task.ForwardedByID = &headID
	task.ForwarderApproved = true
	task.Status = StatusWaitingForApproval

	if _, err := ApplyRejection(&gm, &task, false); !errors.Is(err, ErrConfirmationRequired) {
		t.Fatalf("unconfirmed reject: err = %v", err)
	}
	returned, err := ApplyRejection(&gm, &task, true)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if returned.ForwarderApproved {
		t.Error("rejection must clear forwarder verification")
	}

	resubmitted, err := ApplyStatus(&staff, returned, StatusWaitingForApproval, true, approvalNow)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if Stage(resubmitted) != StageNeedsForwarderVerification {
		t.Errorf("resubmitted stage = %s", Stage(resubmitted))
	}
}

func TestApprovalStageString(t *testing.T) {
	if got := StageNeedsForwarderVerification.String(); got != "NeedsForwarderVerification" {
		t.Errorf("String() = %q", got)
	}
	if got := ApprovalStage(9).String(); got != "ApprovalStage(9)" {
		t.Errorf("String() = %q", got)
	}
}

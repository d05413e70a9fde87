package taskflow

import (
	"fmt"
	"time"
)

// ApprovalStage is the derived position of a task in the approval workflow.
type ApprovalStage int

const (
	StageNotSubmitted ApprovalStage = iota
	StageNeedsApproval
	StageNeedsForwarderVerification
	StageApproved
)

func (s ApprovalStage) String() string {
	switch s {
	case StageNotSubmitted:
		return "NotSubmitted"
	case StageNeedsApproval:
		return "NeedsApproval"
	case StageNeedsForwarderVerification:
		return "NeedsForwarderVerification"
	case StageApproved:
		return "Approved"
	}
	return fmt.Sprintf("ApprovalStage(%d)", int(s))
}

// Stage derives the approval stage of t.
func Stage(t *Task) ApprovalStage {
	switch t.Status {
	case StatusCompleted:
		return StageApproved
	case StatusWaitingForApproval:
		if t.IsForwarded && !t.ForwarderApproved {
			return StageNeedsForwarderVerification
		}
		return StageNeedsApproval
	}
	return StageNotSubmitted
}

// ApprovalLabel is the action label shown for the approve control.
func ApprovalLabel(t *Task) string {
	if Stage(t) == StageNeedsForwarderVerification {
		return "Verify & Sent Approval"
	}
	return "Approve"
}

// RequiresApproval reports whether completing t must go through approval.
// Self tasks and tasks held by a main director complete directly.
func RequiresApproval(t *Task) bool {
	if t.IsSelfTask || t.CreatedByID == t.AssignedToID {
		return false
	}
	return t.AssignedTo.RoleName() != RoleMainDirector
}

// ApplyStatus returns a copy of t moved to status to by actor.
func ApplyStatus(actor *User, t *Task, to TaskStatus, confirmed bool, now time.Time) (*Task, error) {
	if !confirmed {
		return nil, ErrConfirmationRequired
	}
	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, to)
	}
	if !CanChangeStatus(actor, t) {
		return nil, ErrPermissionDenied
	}
	if err := ensureTransition(t, to); err != nil {
		return nil, err
	}

	next := *t
	next.Status = to
	switch to {
	case StatusWaitingForApproval:
		next.ApprovalStatus = ApprovalPending
		next.ForwarderApproved = false
	case StatusCompleted:
		next.ApprovalStatus = ApprovalApproved
		next.CompletedAt = &now
	}
	return &next, nil
}

func ensureTransition(t *Task, to TaskStatus) error {
	from := t.Status
	switch {
	case from == to:
		return fmt.Errorf("%w: task is already %s", ErrInvalidTransition, from)
	case from == StatusCompleted:
		return fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, from)
	case from == StatusWaitingForApproval:
		return ErrApprovalRequired
	}

	switch {
	case to == StatusInProgress && from == StatusPending:
		return nil
	case to == StatusWaitingForApproval && from == StatusInProgress && RequiresApproval(t):
		return nil
	case to == StatusCompleted && from == StatusInProgress:
		if RequiresApproval(t) {
			return ErrApprovalRequired
		}
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// ApprovalOutcome describes what an approve action did.
type ApprovalOutcome string

const (
	OutcomeForwarderVerified ApprovalOutcome = "forwarder_verified"
	OutcomeApproved          ApprovalOutcome = "approved"
)

// ApplyApproval approves t on behalf of actor. A forwarded task that the
// forwarder has not verified yet only records the verification and stays
// waiting for the final approver, unless the forwarder also created it.
func ApplyApproval(actor *User, t *Task, confirmed bool, now time.Time) (*Task, ApprovalOutcome, error) {
	if !confirmed {
		return nil, "", ErrConfirmationRequired
	}
	if t.Status != StatusWaitingForApproval {
		return nil, "", fmt.Errorf("%w: task is %s", ErrInvalidTransition, t.Status)
	}
	if !CanApproveTask(actor, t) {
		return nil, "", ErrPermissionDenied
	}

	next := *t
	if Stage(t) == StageNeedsForwarderVerification && t.CreatedByID != actor.ID {
		next.ForwarderApproved = true
		return &next, OutcomeForwarderVerified, nil
	}
	next.Status = StatusCompleted
	next.ApprovalStatus = ApprovalApproved
	next.CompletedAt = &now
	return &next, OutcomeApproved, nil
}

// ApplyRejection returns t to the assignee for more work.
func ApplyRejection(actor *User, t *Task, confirmed bool) (*Task, error) {
	if !confirmed {
		return nil, ErrConfirmationRequired
	}
	if t.Status != StatusWaitingForApproval {
		return nil, fmt.Errorf("%w: task is %s", ErrInvalidTransition, t.Status)
	}
	if !CanApproveTask(actor, t) {
		return nil, ErrPermissionDenied
	}

	next := *t
	next.Status = StatusInProgress
	next.ApprovalStatus = ApprovalReturned
	next.ForwarderApproved = false
	return &next, nil
}

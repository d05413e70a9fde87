package taskflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// TaskWriter persists task mutations issued by the forwarding protocol.
type TaskWriter interface {
	UpdateTask(ctx context.Context, task *Task) error
	CreateTask(ctx context.Context, task *Task) error
}

// ForwardOptions tunes Forward.
type ForwardOptions struct {
	Concurrency int
	Now         func() time.Time
}

// ForwardResult reports the outcome of a forward, including partial progress.
type ForwardResult struct {
	BatchID  string  `json:"batchId"`
	Original *Task   `json:"original"`
	Clones   []*Task `json:"clones"`
	Failed   []uint  `json:"failedRecipients,omitempty"`
}

// isForwardCandidate checks the staff-only, no-self, no-current-holder rule
// plus the cross-department restriction for managers and department heads.
func isForwardCandidate(actor *User, t *Task, u *User) bool {
	if u.ID == actor.ID || u.ID == t.AssignedToID {
		return false
	}
	role := u.RoleName()
	if isManagerial(actor.RoleName()) && isManagerial(role) && !sameDepartment(u, actor.DepartmentID) {
		return false
	}
	return role == RoleStaff
}

// ForwardCandidates filters users down to valid forward recipients for t.
func ForwardCandidates(actor *User, t *Task, users []User) []User {
	out := make([]User, 0, len(users))
	if actor == nil {
		return out
	}
	for i := range users {
		if isForwardCandidate(actor, t, &users[i]) {
			out = append(out, users[i])
		}
	}
	return out
}

// AppendForwardNote appends the forward marker to notes.
func AppendForwardNote(notes, note string) string {
	note = strings.TrimSpace(note)
	if note == "" {
		return notes
	}
	marker := "[Forwarded]: " + note
	if notes == "" {
		return marker
	}
	return notes + "\n" + marker
}

// Forward reassigns t to the first recipient and clones it for the rest.
// The original update happens first; clones are created concurrently. A
// partial failure is returned as ErrPartialForward together with the result
// so far. Nothing is rolled back.
func Forward(ctx context.Context, w TaskWriter, actor *User, t *Task, recipients []User, note string, opts ForwardOptions) (*ForwardResult, error) {
	if len(recipients) == 0 {
		return nil, ErrNoRecipients
	}
	if !CanForwardTask(actor, t) {
		return nil, ErrPermissionDenied
	}
	seen := make(map[uint]bool, len(recipients))
	for i := range recipients {
		r := &recipients[i]
		if seen[r.ID] || !isForwardCandidate(actor, t, r) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidRecipient, r.Email)
		}
		seen[r.ID] = true
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	actorID := actor.ID
	notes := AppendForwardNote(t.Notes, note)
	result := &ForwardResult{BatchID: uuid.NewString()}

	first := recipients[0]
	original := *t
	original.AssignedToID = first.ID
	original.AssignedTo = &first
	original.AssignedToEmail = first.Email
	original.Notes = notes
	original.IsSelfTask = false
	original.IsForwarded = true
	original.ForwardedByID = &actorID
	original.ForwardedBy = actor
	original.ForwardedByEmail = actor.Email
	original.ForwarderApproved = false
	original.ApprovalStatus = ApprovalPending
	original.ForwardBatchID = result.BatchID
	if err := w.UpdateTask(ctx, &original); err != nil {
		return nil, fmt.Errorf("reassign task %d: %w", t.ID, err)
	}
	result.Original = &original

	rest := recipients[1:]
	clones := make([]*Task, len(rest))
	errs := make([]error, len(rest))

	var g errgroup.Group
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}
	for i := range rest {
		r := rest[i]
		g.Go(func() error {
			clone := &Task{
				Description:      t.Description,
				Priority:         t.Priority,
				Status:           StatusPending,
				DueDate:          copyTime(t.DueDate),
				Notes:            notes,
				CreatedByID:      t.CreatedByID,
				AssignedToID:     r.ID,
				AssignedTo:       &r,
				AssignedToEmail:  r.Email,
				AssignedAt:       now(),
				IsSelfTask:       false,
				IsForwarded:      true,
				ForwardedByID:    &actorID,
				ForwardedByEmail: actor.Email,
				ForwardBatchID:   result.BatchID,
				TaskGivenByID:    &actorID,
				ApprovalStatus:   ApprovalPending,
			}
			if err := w.CreateTask(ctx, clone); err != nil {
				errs[i] = fmt.Errorf("clone for %s: %w", r.Email, err)
				return nil
			}
			clones[i] = clone
			return nil
		})
	}
	_ = g.Wait()

	for i, c := range clones {
		if c == nil {
			result.Failed = append(result.Failed, rest[i].ID)
			continue
		}
		result.Clones = append(result.Clones, c)
	}
	if err := multierr.Combine(errs...); err != nil {
		return result, fmt.Errorf("%w: %w", ErrPartialForward, err)
	}
	return result, nil
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

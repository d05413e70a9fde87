package taskflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bohemiyan/taskflow/zapLogger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TaskInput carries the editable fields of a task.
type TaskInput struct {
	Description   string     `json:"task" validate:"required,max=2000"`
	Priority      Priority   `json:"priority" validate:"required,oneof=Low Medium High"`
	DueDate       *time.Time `json:"dueDate" validate:"required"`
	Notes         string     `json:"notes" validate:"max=5000"`
	AssignedToID  uint       `json:"assignedTo" validate:"required"`
	TaskGivenByID *uint      `json:"taskGivenBy"`
}

func withTaskRefs(db *gorm.DB) *gorm.DB {
	return db.
		Preload("CreatedBy.Role").Preload("CreatedBy.Department").
		Preload("AssignedTo.Role").Preload("AssignedTo.Department").
		Preload("ForwardedBy").Preload("TaskGivenBy").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("Comments.Author")
}

// GetTask retrieves a task with its references and comments.
func (s *Service) GetTask(ctx context.Context, id uint) (*Task, error) {
	if id == 0 {
		return nil, ErrInvalidInput
	}

	var t Task
	if err := withTaskRefs(s.db.WithContext(ctx)).First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// visibleTask loads a task and checks that actor can see it.
func (s *Service) visibleTask(ctx context.Context, actor *User, id uint) (*Task, error) {
	t, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanViewTask(actor, t) {
		return nil, ErrPermissionDenied
	}
	return t, nil
}

// CreateTask inserts t and assigns its sequence number. It fills defaults and
// never writes associations.
func (s *Service) CreateTask(ctx context.Context, t *Task) error {
	if t == nil || strings.TrimSpace(t.Description) == "" || t.CreatedByID == 0 || t.AssignedToID == 0 {
		return ErrInvalidInput
	}
	if t.Status == "" {
		t.Status = StatusPending
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.ApprovalStatus == "" {
		t.ApprovalStatus = ApprovalPending
	}
	if t.AssignedAt.IsZero() {
		t.AssignedAt = s.now()
	}

	// sno mirrors the primary key.
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(t).Error; err != nil {
			return err
		}
		t.SNo = t.ID
		return tx.Model(&Task{}).Where("id = ?", t.ID).Update("s_no", t.SNo).Error
	})
}

// UpdateTask saves the scalar fields of t.
func (s *Service) UpdateTask(ctx context.Context, t *Task) error {
	if t == nil || t.ID == 0 {
		return ErrInvalidInput
	}
	return s.db.WithContext(ctx).Omit(clause.Associations).Save(t).Error
}

// ListTasksFor fetches the actor's visible task set with references resolved.
func (s *Service) ListTasksFor(ctx context.Context, actor *User) ([]Task, error) {
	if actor == nil {
		return nil, ErrInvalidInput
	}

	query := s.db.WithContext(ctx).Order("s_no")
	switch {
	case actor.Can(PermViewAllTasks):
	case actor.Can(PermViewDepartmentTasks) && actor.DepartmentID != nil:
		members := s.db.WithContext(ctx).Model(&User{}).Select("id").Where("department_id = ?", *actor.DepartmentID)
		query = query.Where(
			"assigned_to_id IN (?) OR created_by_id IN (?) OR forwarded_by_id = ? OR task_given_by_id = ?",
			members, members, actor.ID, actor.ID)
	default:
		query = query.Where(
			"created_by_id = ? OR assigned_to_id = ? OR forwarded_by_id = ? OR task_given_by_id = ?",
			actor.ID, actor.ID, actor.ID, actor.ID)
	}

	var tasks []Task
	if err := query.Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch tasks: %w", err)
	}

	dir, err := s.directory(ctx)
	if err != nil {
		return nil, err
	}
	return dir.NormalizeTasks(tasks), nil
}

func (s *Service) directory(ctx context.Context) (*Directory, error) {
	var users []User
	if err := s.db.WithContext(ctx).Find(&users).Error; err != nil {
		return nil, err
	}
	roles, err := s.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	depts, err := s.ListDepartments(ctx)
	if err != nil {
		return nil, err
	}
	return NewDirectory(users, roles, depts), nil
}

// TaskViewResult is the classified, filtered and sorted task set for one request.
type TaskViewResult struct {
	Views  Views  `json:"views"`
	Tabs   []Tab  `json:"tabs"`
	Active Tab    `json:"active"`
	Tasks  []Task `json:"tasks"`
}

// TaskViews classifies the actor's tasks, picks the active tab and runs the
// filter pipeline over it.
func (s *Service) TaskViews(ctx context.Context, actor *User, requested Tab, f Filter, sortBy SortKey) (*TaskViewResult, error) {
	tasks, err := s.ListTasksFor(ctx, actor)
	if err != nil {
		return nil, err
	}

	views := Classify(actor, tasks)
	result := &TaskViewResult{Views: views, Tabs: PermittedTabs(actor), Tasks: []Task{}}
	active, ok := SelectTab(actor, requested)
	if !ok {
		return result, nil
	}
	result.Active = active

	f.StrictDepartmentID = 0
	if active == TabDepartmentTasks && actor.RoleName() == RoleDepartmentHead && actor.DepartmentID != nil {
		f.StrictDepartmentID = *actor.DepartmentID
	}
	if !actor.Can(PermFilterByDepartment) {
		f.DepartmentID = 0
	}
	if !actor.Can(PermFilterByRole) {
		f.Role = ""
	}
	if !actor.Can(PermFilterByAssignee) {
		f.Assignee = ""
	}
	result.Tasks = ApplyPipeline(views.Tasks(actor, active), f, sortBy)
	return result, nil
}

// NewTask creates a task on behalf of actor.
func (s *Service) NewTask(ctx context.Context, actor *User, in TaskInput) (*Task, error) {
	if !actor.Can(PermCreateTasks) {
		return nil, ErrPermissionDenied
	}
	if strings.TrimSpace(in.Description) == "" || in.DueDate == nil || !in.Priority.Valid() {
		return nil, ErrInvalidInput
	}

	assignee, err := s.assignee(ctx, actor, in.AssignedToID)
	if err != nil {
		return nil, err
	}

	t := &Task{
		Description:     in.Description,
		Priority:        in.Priority,
		DueDate:         in.DueDate,
		Notes:           in.Notes,
		CreatedByID:     actor.ID,
		AssignedToID:    assignee.ID,
		AssignedToEmail: assignee.Email,
		IsSelfTask:      assignee.ID == actor.ID,
		TaskGivenByID:   in.TaskGivenByID,
	}
	if err := s.CreateTask(ctx, t); err != nil {
		return nil, err
	}
	s.logAudit(ctx, actor.ID, AuditCreate, t.ID, "assigned to "+assignee.Email)
	return s.GetTask(ctx, t.ID)
}

// assignee checks that actor may hand a task to userID.
func (s *Service) assignee(ctx context.Context, actor *User, userID uint) (*User, error) {
	if userID == actor.ID {
		return actor, nil
	}
	allowed, err := s.ListAssignableUsers(ctx, actor)
	if err != nil {
		return nil, err
	}
	for i := range allowed {
		if allowed[i].ID == userID {
			return &allowed[i], nil
		}
	}
	return nil, fmt.Errorf("%w: user %d is not assignable", ErrPermissionDenied, userID)
}

// EditTask updates the editable fields of a task.
func (s *Service) EditTask(ctx context.Context, actor *User, id uint, in TaskInput) (*Task, error) {
	t, err := s.visibleTask(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !CanEditTask(actor, t) {
		return nil, ErrPermissionDenied
	}
	if strings.TrimSpace(in.Description) == "" || !in.Priority.Valid() {
		return nil, ErrInvalidInput
	}

	t.Description = in.Description
	t.Priority = in.Priority
	t.Notes = in.Notes
	if in.TaskGivenByID != nil {
		t.TaskGivenByID = in.TaskGivenByID
	}
	if in.DueDate != nil {
		t.DueDate = in.DueDate
	}
	if in.AssignedToID != 0 && in.AssignedToID != t.AssignedToID {
		assignee, err := s.assignee(ctx, actor, in.AssignedToID)
		if err != nil {
			return nil, err
		}
		t.AssignedToID = assignee.ID
		t.AssignedToEmail = assignee.Email
		t.AssignedAt = s.now()
		t.IsSelfTask = assignee.ID == t.CreatedByID
	}
	if err := s.UpdateTask(ctx, t); err != nil {
		return nil, err
	}
	s.logAudit(ctx, actor.ID, AuditEdit, t.ID, "")
	return s.GetTask(ctx, t.ID)
}

// DeleteTask soft-deletes a task.
func (s *Service) DeleteTask(ctx context.Context, actor *User, id uint, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	t, err := s.visibleTask(ctx, actor, id)
	if err != nil {
		return err
	}
	if !CanDeleteTask(actor, t) {
		return ErrPermissionDenied
	}
	if err := s.db.WithContext(ctx).Delete(&Task{}, t.ID).Error; err != nil {
		return err
	}
	s.logAudit(ctx, actor.ID, AuditDelete, t.ID, "")
	return nil
}

// ChangeStatus moves a task to a new status.
func (s *Service) ChangeStatus(ctx context.Context, actor *User, id uint, to TaskStatus, confirmed bool) (*Task, error) {
	t, err := s.visibleTask(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	next, err := ApplyStatus(actor, t, to, confirmed, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.UpdateTask(ctx, next); err != nil {
		return nil, err
	}
	s.logAudit(ctx, actor.ID, AuditStatus, t.ID, fmt.Sprintf("%s -> %s", t.Status, to))
	return s.GetTask(ctx, t.ID)
}

// ApproveTask runs the approve action. For forwarded tasks awaiting the
// forwarder's verification, only the verification is recorded.
func (s *Service) ApproveTask(ctx context.Context, actor *User, id uint, confirmed bool) (*Task, ApprovalOutcome, error) {
	t, err := s.visibleTask(ctx, actor, id)
	if err != nil {
		return nil, "", err
	}
	next, outcome, err := ApplyApproval(actor, t, confirmed, s.now())
	if err != nil {
		return nil, "", err
	}
	if err := s.UpdateTask(ctx, next); err != nil {
		return nil, "", err
	}

	action := AuditApprove
	if outcome == OutcomeForwarderVerified {
		action = AuditVerify
	}
	s.logAudit(ctx, actor.ID, action, t.ID, string(outcome))
	updated, err := s.GetTask(ctx, t.ID)
	return updated, outcome, err
}

// RejectTask returns a waiting task to its assignee. A non-empty reason is
// appended as a comment.
func (s *Service) RejectTask(ctx context.Context, actor *User, id uint, reason string, confirmed bool) (*Task, error) {
	t, err := s.visibleTask(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	next, err := ApplyRejection(actor, t, confirmed)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(next).Error; err != nil {
			return err
		}
		if reason = strings.TrimSpace(reason); reason != "" {
			c := &TaskComment{TaskID: t.ID, AuthorID: actor.ID, Text: reason, CreatedAt: s.now()}
			return tx.Omit(clause.Associations).Create(c).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, actor.ID, AuditReject, t.ID, reason)
	return s.GetTask(ctx, t.ID)
}

// AddComment appends a comment and returns the task with all comments.
func (s *Service) AddComment(ctx context.Context, actor *User, id uint, text string) (*Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrInvalidInput
	}
	t, err := s.visibleTask(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	c := &TaskComment{TaskID: t.ID, AuthorID: actor.ID, Text: text, CreatedAt: s.now()}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error; err != nil {
		return nil, err
	}
	s.logAudit(ctx, actor.ID, AuditComment, t.ID, "")
	return s.GetTask(ctx, t.ID)
}

// ForwardCandidatesFor lists the users actor may forward task id to.
func (s *Service) ForwardCandidatesFor(ctx context.Context, actor *User, id uint) ([]User, error) {
	t, err := s.visibleTask(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !CanForwardTask(actor, t) {
		return nil, ErrPermissionDenied
	}
	users, err := s.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	return ForwardCandidates(actor, t, users), nil
}

// ForwardTask reassigns task id to the first recipient and clones it for the
// others. On partial failure the returned result lists what was created.
func (s *Service) ForwardTask(ctx context.Context, actor *User, id uint, recipientIDs []uint, note string, confirmed bool) (*ForwardResult, error) {
	if !confirmed {
		return nil, ErrConfirmationRequired
	}
	if len(recipientIDs) == 0 {
		return nil, ErrNoRecipients
	}
	t, err := s.visibleTask(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	recipients, err := s.usersByIDs(ctx, recipientIDs)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown recipient", ErrInvalidRecipient)
		}
		return nil, err
	}

	result, err := Forward(ctx, s, actor, t, recipients, note, ForwardOptions{
		Concurrency: s.forwardLimit,
		Now:         s.now,
	})
	if err != nil && result == nil {
		return nil, err
	}

	details := fmt.Sprintf("batch %s: %d recipients, %d clones", result.BatchID, len(recipientIDs), len(result.Clones))
	s.logAudit(ctx, actor.ID, AuditForward, t.ID, details)
	for _, c := range result.Clones {
		s.logAudit(ctx, actor.ID, AuditForward, c.ID, "clone of task "+fmt.Sprint(t.ID))
	}
	if err != nil {
		zapLogger.Log.Errorw("forward partially failed", "task", t.ID, "batch", result.BatchID,
			"failed", result.Failed, "error", err)
	}
	return result, err
}

// OverdueTasks returns every task that is overdue at now and caches the count.
func (s *Service) OverdueTasks(ctx context.Context, now time.Time) ([]Task, error) {
	var candidates []Task
	err := s.db.WithContext(ctx).
		Where("due_date IS NOT NULL AND due_date < ? AND status <> ?", now, StatusCompleted).
		Order("due_date").
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch overdue tasks: %w", err)
	}

	overdue := make([]Task, 0, len(candidates))
	for i := range candidates {
		if IsTaskOverdue(&candidates[i], now) {
			overdue = append(overdue, candidates[i])
		}
	}
	s.setCached(ctx, s.cacheKey("overdue", "count"), len(overdue))
	return overdue, nil
}

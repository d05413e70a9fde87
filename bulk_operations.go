package taskflow

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/gorm"
)

// TaskAccess is the set of controls an actor gets for one task.
type TaskAccess struct {
	TaskID     uint   `json:"taskId"`
	CanView    bool   `json:"canView"`
	CanEdit    bool   `json:"canEdit"`
	CanDelete  bool   `json:"canDelete"`
	CanForward bool   `json:"canForward"`
	CanApprove bool   `json:"canApprove"`
	Label      string `json:"approveLabel,omitempty"`
}

// CheckBulkAccess evaluates actor's controls for many tasks. Results keep the
// order of tasks.
func CheckBulkAccess(actor *User, tasks []Task) []TaskAccess {
	results := make([]TaskAccess, len(tasks))
	if len(tasks) == 0 {
		return results
	}

	// Use worker pool for concurrent processing
	workerCount := 10
	if len(tasks) < workerCount {
		workerCount = len(tasks)
	}

	jobs := make(chan int, len(tasks))
	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				t := &tasks[idx]
				access := TaskAccess{
					TaskID:     t.ID,
					CanView:    CanViewTask(actor, t),
					CanEdit:    CanEditTask(actor, t),
					CanDelete:  CanDeleteTask(actor, t),
					CanForward: CanForwardTask(actor, t),
					CanApprove: CanApproveTask(actor, t),
				}
				if access.CanApprove {
					access.Label = ApprovalLabel(t)
				}
				results[idx] = access
			}
		}()
	}

	for i := range tasks {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

// BulkDeleteTasks deletes several tasks in one transaction. Nothing is deleted
// if the actor lacks delete rights on any of them.
func (s *Service) BulkDeleteTasks(ctx context.Context, actor *User, ids []uint, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	if len(ids) == 0 {
		return ErrInvalidInput
	}
	seen := make(map[uint]bool, len(ids))
	unique := ids[:0:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	ids = unique

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tasks []Task
		if err := tx.Where("id IN ?", ids).Find(&tasks).Error; err != nil {
			return err
		}
		if len(tasks) != len(ids) {
			return ErrNotFound
		}
		for i := range tasks {
			if !CanDeleteTask(actor, &tasks[i]) {
				return fmt.Errorf("%w: task %d", ErrPermissionDenied, tasks[i].ID)
			}
		}
		return tx.Where("id IN ?", ids).Delete(&Task{}).Error
	})
	if err != nil {
		return err
	}

	for _, id := range ids {
		s.logAudit(ctx, actor.ID, AuditDelete, id, "bulk")
	}
	return nil
}

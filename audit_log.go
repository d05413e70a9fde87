package taskflow

import (
	"context"

	"github.com/bohemiyan/taskflow/zapLogger"
)

// Audit actions.
const (
	AuditCreate  = "create_task"
	AuditEdit    = "edit_task"
	AuditDelete  = "delete_task"
	AuditStatus  = "change_status"
	AuditForward = "forward_task"
	AuditApprove = "approve_task"
	AuditVerify  = "verify_task"
	AuditReject  = "reject_task"
	AuditComment = "comment_task"
)

// logAudit creates an audit log entry.
func (s *Service) logAudit(ctx context.Context, actorID uint, action string, taskID uint, details string) {
	zapLogger.Log.Infow(action, "actor", actorID, "task", taskID, "details", details)
	if !s.auditEnabled {
		return
	}
	audit := &AuditLog{
		ActorID:   actorID,
		Action:    action,
		TaskID:    taskID,
		Details:   details,
		CreatedAt: s.now(),
	}
	if err := s.db.WithContext(ctx).Create(audit).Error; err != nil {
		zapLogger.Log.Warnw("failed to write audit log", "action", action, "task", taskID, "error", err)
	}
}

// ListAuditLogs retrieves audit logs, optionally filtered by actor or task.
func (s *Service) ListAuditLogs(ctx context.Context, actorID, taskID *uint) ([]AuditLog, error) {
	var audits []AuditLog
	query := s.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if actorID != nil {
		query = query.Where("actor_id = ?", *actorID)
	}
	if taskID != nil {
		query = query.Where("task_id = ?", *taskID)
	}
	if err := query.Find(&audits).Error; err != nil {
		return nil, err
	}
	return audits, nil
}

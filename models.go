package taskflow

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	StatusPending            TaskStatus = "Pending"
	StatusInProgress         TaskStatus = "In Progress"
	StatusWaitingForApproval TaskStatus = "Waiting For Approval"
	StatusCompleted          TaskStatus = "Completed"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusWaitingForApproval, StatusCompleted:
		return true
	}
	return false
}

// Priority of a task.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// ApprovalStatus is the persisted outcome of the approval workflow.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "Pending"
	ApprovalApproved ApprovalStatus = "Approved"
	ApprovalReturned ApprovalStatus = "Returned"
)

// Department represents a logical group (e.g., Sales, HR).
type Department struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"unique;not null" json:"name"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Role carries a stable lowercase key and its permission flags.
type Role struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	Name        string            `gorm:"unique;not null" json:"name"`
	DisplayName string            `json:"displayName"`
	Permissions datatypes.JSONMap `json:"permissions"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt    `gorm:"index" json:"-"`
}

// User is a person that can create, hold, forward or approve tasks.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Email        string         `gorm:"unique;not null" json:"email"`
	Name         string         `gorm:"not null" json:"name"`
	RoleID       uint           `gorm:"index" json:"roleId"`
	Role         *Role          `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	DepartmentID *uint          `gorm:"index" json:"departmentId,omitempty"`
	Department   *Department    `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
	Designation  string         `json:"designation"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// RoleName returns the normalized role key of the user, or "" when unresolved.
func (u *User) RoleName() string {
	if u == nil || u.Role == nil {
		return ""
	}
	return NormalizeRoleName(u.Role.Name)
}

// Task is a unit of work moving through the status and approval workflow.
type Task struct {
	ID                uint           `gorm:"primaryKey" json:"_id"`
	SNo               uint           `gorm:"index" json:"sno"`
	Description       string         `gorm:"column:task;not null" json:"task"`
	Priority          Priority       `gorm:"not null;default:Medium" json:"priority"`
	Status            TaskStatus     `gorm:"index;not null;default:Pending" json:"status"`
	DueDate           *time.Time     `json:"dueDate,omitempty"`
	Notes             string         `json:"notes"`
	CreatedByID       uint           `gorm:"index;not null" json:"createdById"`
	CreatedBy         *User          `gorm:"foreignKey:CreatedByID" json:"createdBy,omitempty"`
	AssignedToID      uint           `gorm:"index;not null" json:"assignedToId"`
	AssignedTo        *User          `gorm:"foreignKey:AssignedToID" json:"assignedTo,omitempty"`
	AssignedToEmail   string         `json:"assignedToEmail"`
	AssignedAt        time.Time      `json:"assignedAt"`
	IsSelfTask        bool           `gorm:"default:false" json:"isSelfTask"`
	IsForwarded       bool           `gorm:"default:false" json:"isForwarded"`
	ForwardedByID     *uint          `gorm:"index" json:"forwardedById,omitempty"`
	ForwardedBy       *User          `gorm:"foreignKey:ForwardedByID" json:"forwardedBy,omitempty"`
	ForwardedByEmail  string         `json:"forwardedByEmail,omitempty"`
	ForwarderApproved bool           `gorm:"default:false" json:"forwarderApproved"`
	ForwardBatchID    string         `gorm:"index" json:"forwardBatchId,omitempty"`
	TaskGivenByID     *uint          `gorm:"index" json:"taskGivenById,omitempty"`
	TaskGivenBy       *User          `gorm:"foreignKey:TaskGivenByID" json:"taskGivenBy,omitempty"`
	ApprovalStatus    ApprovalStatus `gorm:"not null;default:Pending" json:"approvalStatus"`
	CompletedAt       *time.Time     `json:"completedAt,omitempty"`
	Comments          []TaskComment  `gorm:"foreignKey:TaskID" json:"comments"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

// TaskComment is an append-only note on a task.
type TaskComment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TaskID    uint      `gorm:"index;not null" json:"taskId"`
	AuthorID  uint      `gorm:"index;not null" json:"authorId"`
	Author    *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Text      string    `gorm:"not null" json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// AuditLog tracks task workflow events.
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ActorID   uint      `gorm:"index;not null" json:"actorId"`
	Action    string    `gorm:"not null" json:"action"`
	TaskID    uint      `gorm:"index;not null" json:"taskId"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"createdAt"`
}

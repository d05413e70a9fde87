package routes

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/bohemiyan/taskflow"
	"github.com/bohemiyan/taskflow/zapLogger"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Handler serves the task endpoints.
type Handler struct {
	svc      *taskflow.Service
	validate *validator.Validate
}

type statusRequest struct {
	Status    taskflow.TaskStatus `json:"status" validate:"required"`
	Confirmed bool                `json:"confirmed"`
}

type commentRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

type forwardRequest struct {
	RecipientIDs []uint `json:"recipientIds" validate:"required,min=1,dive,gt=0"`
	Note         string `json:"note" validate:"max=2000"`
	Confirmed    bool   `json:"confirmed"`
}

type decisionRequest struct {
	Reason    string `json:"reason" validate:"max=2000"`
	Confirmed bool   `json:"confirmed"`
}

type bulkDeleteRequest struct {
	IDs       []uint `json:"ids" validate:"required,min=1,dive,gt=0"`
	Confirmed bool   `json:"confirmed"`
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, taskflow.ErrPartialForward):
		return fiber.StatusBadGateway
	case errors.Is(err, taskflow.ErrConfirmationRequired):
		return fiber.StatusPreconditionRequired
	case errors.Is(err, taskflow.ErrInvalidInput),
		errors.Is(err, taskflow.ErrNoRecipients),
		errors.Is(err, taskflow.ErrInvalidRecipient):
		return fiber.StatusBadRequest
	case errors.Is(err, taskflow.ErrPermissionDenied):
		return fiber.StatusForbidden
	case errors.Is(err, taskflow.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, taskflow.ErrInvalidTransition),
		errors.Is(err, taskflow.ErrApprovalRequired):
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

// ErrorHandler renders every error as {"success": false, "error": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	msg := err.Error()
	if status >= fiber.StatusInternalServerError && status != fiber.StatusBadGateway {
		zapLogger.Log.Errorw("request failed", "method", c.Method(), "path", c.Path(), "error", err)
		msg = "internal server error"
	}
	return c.Status(status).JSON(fiber.Map{"success": false, "error": msg})
}

func respond(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{"success": true, "data": data})
}

func taskID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: bad task id", taskflow.ErrInvalidInput)
	}
	return uint(id), nil
}

func (h *Handler) bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return fmt.Errorf("%w: %v", taskflow.ErrInvalidInput, err)
	}
	if err := h.validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", taskflow.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handler) ListTasks(c *fiber.Ctx) error {
	tasks, err := h.svc.ListTasksFor(c.UserContext(), actor(c))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, tasks)
}

func (h *Handler) TaskViews(c *fiber.Ctx) error {
	var f taskflow.Filter
	if err := c.QueryParser(&f); err != nil {
		return fmt.Errorf("%w: %v", taskflow.ErrInvalidInput, err)
	}
	result, err := h.svc.TaskViews(c.UserContext(), actor(c), taskflow.Tab(c.Query("tab")), f, taskflow.SortKey(c.Query("sortBy")))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, result)
}

func (h *Handler) TaskAccess(c *fiber.Ctx) error {
	tasks, err := h.svc.ListTasksFor(c.UserContext(), actor(c))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, taskflow.CheckBulkAccess(actor(c), tasks))
}

func (h *Handler) GetTask(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	t, err := h.svc.GetTask(c.UserContext(), id)
	if err != nil {
		return err
	}
	if !taskflow.CanViewTask(actor(c), t) {
		return taskflow.ErrPermissionDenied
	}
	return respond(c, fiber.StatusOK, t)
}

func (h *Handler) CreateTask(c *fiber.Ctx) error {
	var in taskflow.TaskInput
	if err := h.bind(c, &in); err != nil {
		return err
	}
	t, err := h.svc.NewTask(c.UserContext(), actor(c), in)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, t)
}

func (h *Handler) UpdateTask(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	var in taskflow.TaskInput
	if err := h.bind(c, &in); err != nil {
		return err
	}
	t, err := h.svc.EditTask(c.UserContext(), actor(c), id, in)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, t)
}

func (h *Handler) DeleteTask(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteTask(c.UserContext(), actor(c), id, c.QueryBool("confirmed")); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fiber.Map{"id": id})
}

func (h *Handler) BulkDeleteTasks(c *fiber.Ctx) error {
	var req bulkDeleteRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	if err := h.svc.BulkDeleteTasks(c.UserContext(), actor(c), req.IDs, req.Confirmed); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fiber.Map{"ids": req.IDs})
}

func (h *Handler) ChangeStatus(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	var req statusRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	t, err := h.svc.ChangeStatus(c.UserContext(), actor(c), id, req.Status, req.Confirmed)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, t)
}

func (h *Handler) AddComment(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	var req commentRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	t, err := h.svc.AddComment(c.UserContext(), actor(c), id, req.Text)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, t)
}

func (h *Handler) ForwardCandidates(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	users, err := h.svc.ForwardCandidatesFor(c.UserContext(), actor(c), id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, users)
}

func (h *Handler) ForwardTask(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	var req forwardRequest
	if err := c.BodyParser(&req); err != nil {
		return fmt.Errorf("%w: %v", taskflow.ErrInvalidInput, err)
	}
	if len(req.RecipientIDs) == 0 {
		return taskflow.ErrNoRecipients
	}
	if err := h.validate.Struct(&req); err != nil {
		return fmt.Errorf("%w: %v", taskflow.ErrInvalidInput, err)
	}

	result, err := h.svc.ForwardTask(c.UserContext(), actor(c), id, req.RecipientIDs, req.Note, req.Confirmed)
	if errors.Is(err, taskflow.ErrPartialForward) {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"data":    result,
		})
	}
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, result)
}

func (h *Handler) Approve(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	var req decisionRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	t, outcome, err := h.svc.ApproveTask(c.UserContext(), actor(c), id, req.Confirmed)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fiber.Map{"task": t, "outcome": outcome})
}

func (h *Handler) Reject(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	var req decisionRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	t, err := h.svc.RejectTask(c.UserContext(), actor(c), id, req.Reason, req.Confirmed)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, t)
}

func (h *Handler) ListUsers(c *fiber.Ctx) error {
	var (
		users []taskflow.User
		err   error
	)
	switch c.Query("scope", "all") {
	case "assignable", "assignable-for-tasks":
		users, err = h.svc.ListAssignableUsers(c.UserContext(), actor(c))
	case "all":
		users, err = h.svc.ListUsers(c.UserContext())
	default:
		return fmt.Errorf("%w: unknown scope", taskflow.ErrInvalidInput)
	}
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, users)
}

func (h *Handler) ListDepartments(c *fiber.Ctx) error {
	depts, err := h.svc.ListDepartments(c.UserContext())
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, depts)
}

func (h *Handler) ListRoles(c *fiber.Ctx) error {
	roles, err := h.svc.ListRoles(c.UserContext())
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, roles)
}

func (h *Handler) ListAuditLogs(c *fiber.Ctx) error {
	var filter *uint
	if raw := c.Query("taskId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: bad taskId", taskflow.ErrInvalidInput)
		}
		v := uint(id)
		filter = &v
	}
	logs, err := h.svc.ListAuditLogs(c.UserContext(), nil, filter)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, logs)
}

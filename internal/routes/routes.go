package routes

import (
	"github.com/bohemiyan/taskflow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

func Setup(app *fiber.App, svc *taskflow.Service) {
	h := &Handler{svc: svc, validate: validator.New()}

	api := app.Group("/api/v1", ActingUser(svc))

	tasks := api.Group("/tasks")
	tasks.Get("/", h.ListTasks)
	tasks.Get("/views", h.TaskViews)
	tasks.Get("/access", h.TaskAccess)
	tasks.Post("/", RequirePermission(taskflow.PermCreateTasks), h.CreateTask)
	tasks.Post("/bulk-delete", h.BulkDeleteTasks)
	tasks.Get("/:id", h.GetTask)
	tasks.Put("/:id", h.UpdateTask)
	tasks.Delete("/:id", h.DeleteTask)
	tasks.Patch("/:id/status", h.ChangeStatus)
	tasks.Post("/:id/comments", h.AddComment)
	tasks.Get("/:id/forward-candidates", h.ForwardCandidates)
	tasks.Post("/:id/forward", h.ForwardTask)

	approvals := api.Group("/approvals")
	approvals.Post("/:id/approve", h.Approve)
	approvals.Post("/:id/reject", h.Reject)

	api.Get("/users", h.ListUsers)
	api.Get("/departments", h.ListDepartments)
	api.Get("/roles", h.ListRoles)
	api.Get("/audit", RequirePermission(taskflow.PermViewAllTasks), h.ListAuditLogs)
}

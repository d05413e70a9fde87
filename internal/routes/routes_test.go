package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bohemiyan/taskflow"
	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	app                      *fiber.App
	svc                      *taskflow.Service
	gm, head, staffA, staffB *taskflow.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:routes_"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	svc, err := taskflow.NewService(taskflow.Config{DB: db, AutoMigrate: true, ForwardConcurrency: 1})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if err := svc.SeedRoles(ctx); err != nil {
		t.Fatalf("SeedRoles: %v", err)
	}
	ops, err := svc.CreateDepartment(ctx, "Operations")
	if err != nil {
		t.Fatalf("CreateDepartment: %v", err)
	}

	user := func(email, role string, dept *uint) *taskflow.User {
		r, err := svc.GetRoleByName(ctx, role)
		if err != nil {
			t.Fatalf("GetRoleByName(%s): %v", role, err)
		}
		u := &taskflow.User{Email: email, Name: email, RoleID: r.ID, DepartmentID: dept}
		if err := svc.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser(%s): %v", email, err)
		}
		return u
	}

	env := &testEnv{svc: svc}
	env.gm = user("gm@example.com", taskflow.RoleGeneralManager, nil)
	env.head = user("head@example.com", taskflow.RoleDepartmentHead, &ops.ID)
	env.staffA = user("a@example.com", taskflow.RoleStaff, &ops.ID)
	env.staffB = user("b@example.com", taskflow.RoleStaff, &ops.ID)

	env.app = fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	Setup(env.app, svc)
	return env
}

type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func (e *testEnv) do(t *testing.T, method, path string, actor *taskflow.User, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if actor != nil {
		req.Header.Set(ActorHeader, fmt.Sprint(actor.ID))
	}

	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("%s %s: decode: %v", method, path, err)
	}
	return resp.StatusCode, env
}

func (e *testEnv) createTask(t *testing.T, actor, assignee *taskflow.User) taskflow.Task {
	t.Helper()
	status, env := e.do(t, http.MethodPost, "/api/v1/tasks", actor, fiber.Map{
		"task":       "Quarterly audit",
		"priority":   "High",
		"dueDate":    time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339),
		"assignedTo": assignee.ID,
	})
	if status != fiber.StatusCreated {
		t.Fatalf("create task: %d %s", status, env.Error)
	}
	var task taskflow.Task
	if err := json.Unmarshal(env.Data, &task); err != nil {
		t.Fatalf("decode task: %v", err)
	}
	return task
}

func TestActingUserRequired(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodGet, "/api/v1/tasks", nil, nil)
	if status != fiber.StatusUnauthorized || body.Success {
		t.Errorf("missing actor: %d %+v", status, body)
	}
	status, _ = env.do(t, http.MethodGet, "/api/v1/tasks", &taskflow.User{ID: 999}, nil)
	if status != fiber.StatusUnauthorized {
		t.Errorf("unknown actor: %d", status)
	}
}

func TestErrorMapping(t *testing.T) {
	env := newTestEnv(t)
	task := env.createTask(t, env.head, env.staffA)
	id := fmt.Sprint(task.ID)

	tests := []struct {
		name   string
		method string
		path   string
		actor  *taskflow.User
		body   any
		want   int
	}{
		{"Given bad id Then 400", http.MethodGet, "/api/v1/tasks/abc", env.head, nil, fiber.StatusBadRequest},
		{"Given unknown task Then 404", http.MethodGet, "/api/v1/tasks/9999", env.head, nil, fiber.StatusNotFound},
		{"Given unconfirmed status change Then 428", http.MethodPatch, "/api/v1/tasks/" + id + "/status", env.staffA,
			fiber.Map{"status": "In Progress"}, fiber.StatusPreconditionRequired},
		{"Given outsider status change Then 403", http.MethodPatch, "/api/v1/tasks/" + id + "/status", env.staffB,
			fiber.Map{"status": "In Progress", "confirmed": true}, fiber.StatusForbidden},
		{"Given completion skipping the workflow Then 409", http.MethodPatch, "/api/v1/tasks/" + id + "/status", env.staffA,
			fiber.Map{"status": "Completed", "confirmed": true}, fiber.StatusConflict},
		{"Given empty recipients Then 400", http.MethodPost, "/api/v1/tasks/" + id + "/forward", env.head,
			fiber.Map{"recipientIds": []uint{}, "confirmed": true}, fiber.StatusBadRequest},
		{"Given unknown user scope Then 400", http.MethodGet, "/api/v1/users?scope=bogus", env.head, nil, fiber.StatusBadRequest},
		{"Given audit without view-all Then 403", http.MethodGet, "/api/v1/audit", env.head, nil, fiber.StatusForbidden},
		{"Given unconfirmed delete Then 428", http.MethodDelete, "/api/v1/tasks/" + id, env.head, nil, fiber.StatusPreconditionRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := env.do(t, tt.method, tt.path, tt.actor, tt.body)
			if status != tt.want {
				t.Errorf("status = %d (%s), want %d", status, body.Error, tt.want)
			}
			if body.Success || body.Error == "" {
				t.Errorf("error envelope = %+v", body)
			}
		})
	}
}

func TestForwardAndViewsEndpoints(t *testing.T) {
	env := newTestEnv(t)
	task := env.createTask(t, env.gm, env.head)
	id := fmt.Sprint(task.ID)

	status, body := env.do(t, http.MethodGet, "/api/v1/tasks/"+id+"/forward-candidates", env.head, nil)
	if status != fiber.StatusOK {
		t.Fatalf("forward candidates: %d %s", status, body.Error)
	}
	var candidates []taskflow.User
	if err := json.Unmarshal(body.Data, &candidates); err != nil {
		t.Fatalf("decode candidates: %v", err)
	}
	if len(candidates) != 2 {
		t.Errorf("candidates = %d, want 2", len(candidates))
	}

	status, body = env.do(t, http.MethodPost, "/api/v1/tasks/"+id+"/forward", env.head, fiber.Map{
		"recipientIds": []uint{env.staffA.ID, env.staffB.ID},
		"note":         "split",
		"confirmed":    true,
	})
	if status != fiber.StatusOK {
		t.Fatalf("forward: %d %s", status, body.Error)
	}
	var result taskflow.ForwardResult
	if err := json.Unmarshal(body.Data, &result); err != nil {
		t.Fatalf("decode forward result: %v", err)
	}
	if result.Original == nil || result.Original.AssignedToID != env.staffA.ID || len(result.Clones) != 1 {
		t.Fatalf("forward result = %+v", result)
	}

	status, body = env.do(t, http.MethodGet, "/api/v1/tasks/views?tab=forwarded-tasks&sortBy=oldest", env.head, nil)
	if status != fiber.StatusOK {
		t.Fatalf("views: %d %s", status, body.Error)
	}
	var views taskflow.TaskViewResult
	if err := json.Unmarshal(body.Data, &views); err != nil {
		t.Fatalf("decode views: %v", err)
	}
	if views.Active != taskflow.TabForwardedTasks || len(views.Tasks) != 2 {
		t.Errorf("forwarded view = %s with %d tasks", views.Active, len(views.Tasks))
	}

	status, body = env.do(t, http.MethodGet, "/api/v1/tasks/views?tab=forwarded-tasks", env.staffA, nil)
	if status != fiber.StatusOK {
		t.Fatalf("staff views: %d %s", status, body.Error)
	}
	if err := json.Unmarshal(body.Data, &views); err != nil {
		t.Fatalf("decode views: %v", err)
	}
	if views.Active != taskflow.TabAssignedToMe || len(views.Tasks) != 1 {
		t.Errorf("staff view = %s with %d tasks", views.Active, len(views.Tasks))
	}
}

func TestApprovalEndpoints(t *testing.T) {
	env := newTestEnv(t)
	task := env.createTask(t, env.head, env.staffA)
	id := fmt.Sprint(task.ID)

	for _, s := range []string{"In Progress", "Waiting For Approval"} {
		status, body := env.do(t, http.MethodPatch, "/api/v1/tasks/"+id+"/status", env.staffA, fiber.Map{"status": s, "confirmed": true})
		if status != fiber.StatusOK {
			t.Fatalf("status %s: %d %s", s, status, body.Error)
		}
	}

	status, body := env.do(t, http.MethodPost, "/api/v1/approvals/"+id+"/reject", env.head, fiber.Map{"reason": "redo", "confirmed": true})
	if status != fiber.StatusOK {
		t.Fatalf("reject: %d %s", status, body.Error)
	}
	var returned taskflow.Task
	if err := json.Unmarshal(body.Data, &returned); err != nil {
		t.Fatalf("decode task: %v", err)
	}
	if returned.Status != taskflow.StatusInProgress || len(returned.Comments) != 1 {
		t.Errorf("rejected task = %s with %d comments", returned.Status, len(returned.Comments))
	}

	status, _ = env.do(t, http.MethodPatch, "/api/v1/tasks/"+id+"/status", env.staffA, fiber.Map{"status": "Waiting For Approval", "confirmed": true})
	if status != fiber.StatusOK {
		t.Fatalf("resubmit: %d", status)
	}
	status, body = env.do(t, http.MethodPost, "/api/v1/approvals/"+id+"/approve", env.head, fiber.Map{"confirmed": true})
	if status != fiber.StatusOK {
		t.Fatalf("approve: %d %s", status, body.Error)
	}
	var approved struct {
		Task    taskflow.Task            `json:"task"`
		Outcome taskflow.ApprovalOutcome `json:"outcome"`
	}
	if err := json.Unmarshal(body.Data, &approved); err != nil {
		t.Fatalf("decode approval: %v", err)
	}
	if approved.Outcome != taskflow.OutcomeApproved || approved.Task.Status != taskflow.StatusCompleted {
		t.Errorf("approval = %s %s", approved.Outcome, approved.Task.Status)
	}
}

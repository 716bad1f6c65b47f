package engine

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sadreammm/Helply/pkg/cerr"
	"github.com/sadreammm/Helply/pkg/models"
)

// DefaultPriority is given to tasks created without one
const DefaultPriority = 99

// EmployeeTasks returns the employee with their active tasks
func (e *Engine) EmployeeTasks(ctx context.Context, employeeID string) (*models.Employee, []models.TaskInstance, error) {
	emp, err := e.tasks.Employee(ctx, employeeID)
	if err != nil {
		return nil, nil, cerr.WrapReadError("employee", err)
	}
	tasks, err := e.tasks.Tasks(ctx, employeeID)
	if err != nil {
		return nil, nil, cerr.WrapReadError("tasks", err)
	}
	return emp, tasks, nil
}

// TaskForURL returns the first active task whose platform appears in url.
// A nil task with a nil error means the employee has nothing to do there.
func (e *Engine) TaskForURL(ctx context.Context, employeeID, url string) (*models.Employee, *models.TaskInstance, error) {
	emp, tasks, err := e.EmployeeTasks(ctx, employeeID)
	if err != nil {
		return nil, nil, err
	}
	t, ok := chooseTask(tasks, "", url)
	if !ok {
		return emp, nil, nil
	}
	return emp, &t, nil
}

// SubmitProgress records an explicit step report. Reaching the task's step
// count completes it, which removes it from the active set. The returned
// status is the one written.
func (e *Engine) SubmitProgress(ctx context.Context, taskID, employeeID string, stepsCompleted int) (models.TaskStatus, error) {
	if taskID == "" || employeeID == "" {
		return "", cerr.NewError(cerr.InvalidArgument, "task_id and employee_id are required", models.ErrNotValid)
	}
	if stepsCompleted < 0 {
		return "", cerr.NewError(cerr.InvalidArgument, "step_completed must not be negative", models.ErrNotValid)
	}
	tasks, err := e.tasks.Tasks(ctx, employeeID)
	if err != nil {
		return "", cerr.WrapReadError("tasks", err)
	}
	var task *models.TaskInstance
	for i := range tasks {
		if tasks[i].ID == taskID {
			task = &tasks[i]
			break
		}
	}
	if task == nil {
		return "", cerr.NewError(cerr.NotFound, "task not found", models.ErrTaskNotFound)
	}

	status := models.StatusInProgress
	if task.TotalSteps > 0 && stepsCompleted >= task.TotalSteps {
		status = models.StatusCompleted
		stepsCompleted = task.TotalSteps
	}
	if status == models.StatusCompleted {
		err = e.tasks.DeleteTask(ctx, taskID, employeeID)
	} else {
		err = e.tasks.UpdateProgress(ctx, taskID, employeeID, stepsCompleted, status)
	}
	e.metrics.Persist("submit", err)
	if err != nil {
		return "", cerr.WrapWriteError("task", err)
	}
	slog.InfoContext(ctx, "progress submitted", "task_id", taskID, "steps_completed", stepsCompleted, "status", status)
	return status, nil
}

// CreateTask stores a task for an existing employee
func (e *Engine) CreateTask(ctx context.Context, t models.NewTask) (string, error) {
	if strings.TrimSpace(t.EmployeeID) == "" || strings.TrimSpace(t.Title) == "" {
		return "", cerr.NewError(cerr.InvalidArgument, "employee_id and title are required", models.ErrNotValid)
	}
	if t.TotalSteps < 0 {
		return "", cerr.NewError(cerr.InvalidArgument, "total_steps must not be negative", models.ErrNotValid)
	}
	if t.Priority == 0 {
		t.Priority = DefaultPriority
	}
	if t.TotalSteps == 0 {
		platform, ref := models.TaskInstance{Type: t.Type, Platform: t.Platform}.DefinitionRef()
		if def, err := e.defs.Resolve(platform, ref); err == nil {
			t.TotalSteps = len(def.Steps)
		}
	}
	if _, err := e.tasks.Employee(ctx, t.EmployeeID); err != nil {
		return "", cerr.WrapReadError("employee", err)
	}
	id, err := e.tasks.CreateTask(ctx, t)
	if err != nil {
		return "", cerr.WrapWriteError("task", err)
	}
	return id, nil
}

// DeleteTask removes a task from the active set
func (e *Engine) DeleteTask(ctx context.Context, taskID, employeeID string) error {
	if taskID == "" || employeeID == "" {
		return cerr.NewError(cerr.InvalidArgument, "task id and employee_id are required", models.ErrNotValid)
	}
	if err := e.tasks.DeleteTask(ctx, taskID, employeeID); err != nil {
		return cerr.WrapWriteError("task", err)
	}
	return nil
}

// ActionSummary is one knowledge base entry as listed to clients
type ActionSummary struct {
	ID       string `json:"id"`
	Platform string `json:"platform"`
	Title    string `json:"title"`
	Steps    int    `json:"steps"`
}

// Actions lists every known definition in knowledge base order
func (e *Engine) Actions() []ActionSummary {
	defs := e.defs.List()
	out := make([]ActionSummary, 0, len(defs))
	for _, d := range defs {
		name := d.Platform
		if p, ok := e.defs.Platform(d.Platform); ok && p.Name != "" {
			name = p.Name
		}
		id := d.ID
		if id == "" {
			id = d.Platform + "_" + d.Key
		}
		out = append(out, ActionSummary{ID: id, Platform: name, Title: d.Title, Steps: len(d.Steps)})
	}
	return out
}

// Package memory is an in-process task store seeded with demo data.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sadreammm/Helply/internal/crm/demo"
	"github.com/sadreammm/Helply/internal/interfaces"
	"github.com/sadreammm/Helply/pkg/models"
)

// Action is one logged analytics event
type Action struct {
	EmployeeID string
	Action     string
	Metadata   map[string]any
	At         time.Time
}

// Store keeps employees and tasks in maps guarded by a mutex
type Store struct {
	mu        sync.RWMutex
	employees map[string]models.Employee
	tasks     map[string][]models.TaskInstance
	actions   []Action
	now       func() time.Time
}

// New returns an empty store
func New() *Store {
	return &Store{
		employees: make(map[string]models.Employee),
		tasks:     make(map[string][]models.TaskInstance),
		now:       time.Now,
	}
}

// NewDemo returns a store seeded with the demo employees and tasks
func NewDemo() *Store {
	s := New()
	now := s.now()
	for _, emp := range demo.Employees() {
		s.Add(emp, demo.Tasks(emp.ID, now)...)
	}
	return s
}

// Add inserts or replaces an employee and appends tasks
func (s *Store) Add(emp models.Employee, tasks ...models.TaskInstance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[emp.ID] = emp
	for _, t := range tasks {
		t.EmployeeID = emp.ID
		s.tasks[emp.ID] = append(s.tasks[emp.ID], t)
	}
}

func (s *Store) Connect(ctx context.Context) error { return nil }

func (s *Store) Employee(ctx context.Context, employeeID string) (*models.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	emp, ok := s.employees[employeeID]
	if !ok {
		return nil, fmt.Errorf("employee %q: %w", employeeID, models.ErrEmployeeNotFound)
	}
	return &emp, nil
}

func (s *Store) Tasks(ctx context.Context, employeeID string, statuses ...models.TaskStatus) ([]models.TaskInstance, error) {
	s.mu.RLock()
	out := models.FilterStatus(s.tasks[employeeID], statuses...)
	s.mu.RUnlock()
	models.SortTasks(out)
	return out, nil
}

func (s *Store) CreateTask(ctx context.Context, task models.NewTask) (string, error) {
	if task.EmployeeID == "" || task.Title == "" {
		return "", fmt.Errorf("employee id and title are required: %w", models.ErrNotValid)
	}
	status := task.Status
	if status == "" {
		status = models.StatusPending
	}
	id := "task_" + uuid.NewString()

	s.mu.Lock()
	s.tasks[task.EmployeeID] = append(s.tasks[task.EmployeeID], models.TaskInstance{
		ID:          id,
		EmployeeID:  task.EmployeeID,
		Title:       task.Title,
		Description: task.Description,
		Type:        task.Type,
		Platform:    task.Platform,
		Status:      status,
		TotalSteps:  task.TotalSteps,
		Priority:    task.Priority,
		AssignedAt:  s.now(),
	})
	s.mu.Unlock()

	return id, nil
}

func (s *Store) UpdateProgress(ctx context.Context, taskID, employeeID string, stepsCompleted int, status models.TaskStatus) error {
	if status == models.StatusCompleted {
		return s.DeleteTask(ctx, taskID, employeeID)
	}

	s.mu.Lock()
	found := false
	for i := range s.tasks[employeeID] {
		t := &s.tasks[employeeID][i]
		if t.ID == taskID {
			t.StepsCompleted = stepsCompleted
			t.Status = status
			found = true
			break
		}
	}
	s.mu.Unlock()
	if !found {
		return fmt.Errorf("task %q: %w", taskID, models.ErrTaskNotFound)
	}

	return s.LogAction(ctx, employeeID, "task_progress_updated", map[string]any{
		"task_id":         taskID,
		"steps_completed": stepsCompleted,
		"status":          string(status),
	})
}

func (s *Store) DeleteTask(ctx context.Context, taskID, employeeID string) error {
	_ = s.LogAction(ctx, employeeID, "task_completed", map[string]any{"task_id": taskID})

	s.mu.Lock()
	defer s.mu.Unlock()
	tasks := s.tasks[employeeID]
	for i, t := range tasks {
		if t.ID == taskID {
			s.tasks[employeeID] = append(tasks[:i:i], tasks[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("task %q: %w", taskID, models.ErrTaskNotFound)
}

func (s *Store) LogAction(ctx context.Context, employeeID, action string, metadata map[string]any) error {
	s.mu.Lock()
	s.actions = append(s.actions, Action{
		EmployeeID: employeeID,
		Action:     action,
		Metadata:   maps.Clone(metadata),
		At:         s.now(),
	})
	s.mu.Unlock()
	slog.DebugContext(ctx, "employee action", "employee_id", employeeID, "action", action)
	return nil
}

// Actions returns a copy of the logged actions
func (s *Store) Actions() []Action {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Action(nil), s.actions...)
}

func (s *Store) Close() error { return nil }

var _ interfaces.TaskStore = (*Store)(nil)

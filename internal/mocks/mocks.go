package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/sadreammm/Helply/internal/interfaces"
	"github.com/sadreammm/Helply/pkg/models"
)

// LoggedAction is one call recorded by MockTaskStore.LogAction
type LoggedAction struct {
	EmployeeID string
	Action     string
	Metadata   map[string]any
}

// MockTaskStore is a mock implementation of TaskStore for testing.
// Unset Func fields fall back to an in-memory table.
type MockTaskStore struct {
	EmployeeFunc       func(ctx context.Context, employeeID string) (*models.Employee, error)
	TasksFunc          func(ctx context.Context, employeeID string, statuses ...models.TaskStatus) ([]models.TaskInstance, error)
	CreateTaskFunc     func(ctx context.Context, task models.NewTask) (string, error)
	UpdateProgressFunc func(ctx context.Context, taskID, employeeID string, steps int, status models.TaskStatus) error
	DeleteTaskFunc     func(ctx context.Context, taskID, employeeID string) error

	mu        sync.Mutex
	employees map[string]models.Employee
	tasks     map[string][]models.TaskInstance
	Actions   []LoggedAction
	Updates   []string
	Deletes   []string
}

// NewMockTaskStore creates a new mock task store
func NewMockTaskStore() *MockTaskStore {
	return &MockTaskStore{
		employees: make(map[string]models.Employee),
		tasks:     make(map[string][]models.TaskInstance),
	}
}

// AddEmployee seeds an employee and its tasks
func (m *MockTaskStore) AddEmployee(emp models.Employee, tasks ...models.TaskInstance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[emp.ID] = emp
	for _, t := range tasks {
		t.EmployeeID = emp.ID
		m.tasks[emp.ID] = append(m.tasks[emp.ID], t)
	}
}

func (m *MockTaskStore) Connect(ctx context.Context) error { return nil }

func (m *MockTaskStore) Employee(ctx context.Context, employeeID string) (*models.Employee, error) {
	if m.EmployeeFunc != nil {
		return m.EmployeeFunc(ctx, employeeID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	emp, ok := m.employees[employeeID]
	if !ok {
		return nil, models.ErrEmployeeNotFound
	}
	return &emp, nil
}

func (m *MockTaskStore) Tasks(ctx context.Context, employeeID string, statuses ...models.TaskStatus) ([]models.TaskInstance, error) {
	if m.TasksFunc != nil {
		return m.TasksFunc(ctx, employeeID, statuses...)
	}
	m.mu.Lock()
	out := models.FilterStatus(m.tasks[employeeID], statuses...)
	m.mu.Unlock()
	models.SortTasks(out)
	return out, nil
}

func (m *MockTaskStore) CreateTask(ctx context.Context, task models.NewTask) (string, error) {
	if m.CreateTaskFunc != nil {
		return m.CreateTaskFunc(ctx, task)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id := fmt.Sprintf("task_%s_%03d", task.EmployeeID, len(m.tasks[task.EmployeeID])+1)
	status := task.Status
	if status == "" {
		status = models.StatusPending
	}
	m.tasks[task.EmployeeID] = append(m.tasks[task.EmployeeID], models.TaskInstance{
		ID:          id,
		EmployeeID:  task.EmployeeID,
		Title:       task.Title,
		Description: task.Description,
		Type:        task.Type,
		Platform:    task.Platform,
		Status:      status,
		TotalSteps:  task.TotalSteps,
		Priority:    task.Priority,
	})
	return id, nil
}

func (m *MockTaskStore) UpdateProgress(ctx context.Context, taskID, employeeID string, steps int, status models.TaskStatus) error {
	m.mu.Lock()
	m.Updates = append(m.Updates, taskID)
	m.mu.Unlock()
	if m.UpdateProgressFunc != nil {
		return m.UpdateProgressFunc(ctx, taskID, employeeID, steps, status)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tasks[employeeID] {
		t := &m.tasks[employeeID][i]
		if t.ID == taskID {
			t.StepsCompleted = steps
			t.Status = status
			return nil
		}
	}
	return models.ErrTaskNotFound
}

func (m *MockTaskStore) DeleteTask(ctx context.Context, taskID, employeeID string) error {
	m.mu.Lock()
	m.Deletes = append(m.Deletes, taskID)
	m.mu.Unlock()
	if m.DeleteTaskFunc != nil {
		return m.DeleteTaskFunc(ctx, taskID, employeeID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tasks := m.tasks[employeeID]
	for i, t := range tasks {
		if t.ID == taskID {
			m.tasks[employeeID] = append(tasks[:i], tasks[i+1:]...)
			return nil
		}
	}
	return models.ErrTaskNotFound
}

func (m *MockTaskStore) LogAction(ctx context.Context, employeeID, action string, metadata map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Actions = append(m.Actions, LoggedAction{EmployeeID: employeeID, Action: action, Metadata: metadata})
	return nil
}

func (m *MockTaskStore) Close() error { return nil }

// Snapshot returns copies of the recorded update and delete calls
func (m *MockTaskStore) Snapshot() (updates, deletes []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Updates...), append([]string(nil), m.Deletes...)
}

// Ensure MockTaskStore implements TaskStore interface
var _ interfaces.TaskStore = (*MockTaskStore)(nil)

// MockGuidanceGenerator is a mock implementation of GuidanceGenerator for testing
type MockGuidanceGenerator struct {
	GenerateFunc      func(ctx context.Context, req models.GuidanceRequest) (*models.Guidance, error)
	ClarifyIntentFunc func(ctx context.Context, text, currentURL string) (*models.Intent, error)

	mu       sync.Mutex
	Requests []models.GuidanceRequest
}

func (m *MockGuidanceGenerator) Generate(ctx context.Context, req models.GuidanceRequest) (*models.Guidance, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return &models.Guidance{
		Actions: []models.OverlayAction{{
			Selector:   "#mock",
			ActionType: models.ActionHighlight,
			Message:    "mock guidance",
			Priority:   3,
		}},
		Confidence: 0.8,
	}, nil
}

func (m *MockGuidanceGenerator) ClarifyIntent(ctx context.Context, text, currentURL string) (*models.Intent, error) {
	if m.ClarifyIntentFunc != nil {
		return m.ClarifyIntentFunc(ctx, text, currentURL)
	}
	return &models.Intent{Intent: text, Confidence: 0.5}, nil
}

func (m *MockGuidanceGenerator) Model() string { return "mock" }

// Ensure MockGuidanceGenerator implements GuidanceGenerator interface
var _ interfaces.GuidanceGenerator = (*MockGuidanceGenerator)(nil)

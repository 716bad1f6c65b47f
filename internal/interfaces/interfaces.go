package interfaces

import (
	"context"

	"github.com/sadreammm/Helply/pkg/models"
)

// TaskStore persists employees and their task instances (a CRM or a local database)
type TaskStore interface {
	// Connect prepares the store (authentication, health check, migrations)
	Connect(ctx context.Context) error
	// Employee returns an employee or models.ErrEmployeeNotFound
	Employee(ctx context.Context, employeeID string) (*models.Employee, error)
	// Tasks returns an employee's tasks with the given statuses, the active
	// set when none are given, in-progress first then by priority
	Tasks(ctx context.Context, employeeID string, statuses ...models.TaskStatus) ([]models.TaskInstance, error)
	// CreateTask stores a new task and returns its id
	CreateTask(ctx context.Context, task models.NewTask) (string, error)
	// UpdateProgress sets steps_completed and status; completed removes the task
	UpdateProgress(ctx context.Context, taskID, employeeID string, stepsCompleted int, status models.TaskStatus) error
	// DeleteTask removes a task from the active set
	DeleteTask(ctx context.Context, taskID, employeeID string) error
	// LogAction records an analytics event
	LogAction(ctx context.Context, employeeID, action string, metadata map[string]any) error
	// Close releases connections
	Close() error
}

// DefinitionStore serves task definitions
type DefinitionStore interface {
	// Resolve finds a definition by platform and task reference
	Resolve(platform, ref string) (*models.TaskDefinition, error)
	// List returns all definitions in a stable order
	List() []*models.TaskDefinition
	// Platform returns a platform by key
	Platform(key string) (*models.Platform, bool)
	// Loaded reports whether any definition is available
	Loaded() bool
}

// GuidanceGenerator produces guidance with a generative model
type GuidanceGenerator interface {
	// Generate returns model guidance for the page
	Generate(ctx context.Context, req models.GuidanceRequest) (*models.Guidance, error)
	// ClarifyIntent interprets a free-text task request
	ClarifyIntent(ctx context.Context, text, currentURL string) (*models.Intent, error)
	// Model returns the model name in use
	Model() string
}

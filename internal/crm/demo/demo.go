// Package demo holds the seed employees and tasks used by the in-memory
// store and by `helply crm seed`.
package demo

import (
	"fmt"
	"time"

	"github.com/sadreammm/Helply/pkg/models"
)

type template struct {
	Title       string
	Description string
	Type        string
	Platform    string
	TotalSteps  int
	Status      models.TaskStatus
}

var templates = []template{
	{
		Title:       "Create Your First GitHub Repository",
		Description: "Navigate to GitHub and create a new repository",
		Type:        "github_repo_creation",
		Platform:    "github.com",
		TotalSteps:  3,
		Status:      models.StatusInProgress,
	},
	{
		Title:       "Clone a Repository",
		Description: "Clone a repository to your local machine",
		Type:        "github_clone",
		Platform:    "github.com",
		TotalSteps:  3,
		Status:      models.StatusPending,
	},
	{
		Title:       "Create Your First Pull Request",
		Description: "Make a change and create a pull request",
		Type:        "github_pull_request",
		Platform:    "github.com",
		TotalSteps:  4,
		Status:      models.StatusPending,
	},
}

// Employees returns the demo employees
func Employees() []models.Employee {
	return []models.Employee{
		{ID: "emp_001", Name: "John Doe", Email: "john@company.com", Role: "Software Engineer", Department: "Engineering"},
		{ID: "emp_002", Name: "Jane Smith", Email: "jane@company.com", Role: "DevOps Engineer", Department: "Engineering"},
	}
}

// Tasks returns the demo tasks for one employee. Ids are task_{emp}_00N and
// priority follows template order.
func Tasks(employeeID string, assignedAt time.Time) []models.TaskInstance {
	out := make([]models.TaskInstance, 0, len(templates))
	for i, tpl := range templates {
		out = append(out, models.TaskInstance{
			ID:          fmt.Sprintf("task_%s_%03d", employeeID, i+1),
			EmployeeID:  employeeID,
			Title:       tpl.Title,
			Description: tpl.Description,
			Type:        tpl.Type,
			Platform:    tpl.Platform,
			Status:      tpl.Status,
			TotalSteps:  tpl.TotalSteps,
			Priority:    i + 1,
			AssignedAt:  assignedAt,
		})
	}
	return out
}

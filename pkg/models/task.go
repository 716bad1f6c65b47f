package models

import (
	"strings"
	"time"
)

// TaskStatus is the lifecycle state of a task instance
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusAssigned   TaskStatus = "assigned"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
)

// ActiveStatuses are the statuses of tasks still shown to an employee
var ActiveStatuses = []TaskStatus{StatusPending, StatusAssigned, StatusInProgress}

// Active reports whether s belongs to the active task set
func (s TaskStatus) Active() bool {
	return s == StatusPending || s == StatusAssigned || s == StatusInProgress
}

// Employee is a person going through onboarding
type Employee struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Role       string `json:"role,omitempty"`
	Department string `json:"department,omitempty"`
}

// TaskInstance is one employee's progress record against a task definition
type TaskInstance struct {
	ID             string     `json:"id"`
	EmployeeID     string     `json:"employee_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Type           string     `json:"type"`
	Platform       string     `json:"platform"`
	Status         TaskStatus `json:"status"`
	StepsCompleted int        `json:"steps_completed"`
	TotalSteps     int        `json:"total_steps"`
	Priority       int        `json:"priority"`
	AssignedAt     time.Time  `json:"assigned_date,omitempty"`
}

// PlatformKey returns the short platform key ("github.com" becomes "github")
func (t TaskInstance) PlatformKey() string {
	return PlatformKey(t.Platform)
}

// DefinitionRef splits the task type into the platform and action reference
// used to resolve its definition. Types like "github_create_repo" carry the
// platform as prefix; otherwise the platform field is used.
func (t TaskInstance) DefinitionRef() (platform, actionID string) {
	if p, _, ok := strings.Cut(t.Type, "_"); ok {
		return strings.ToLower(p), t.Type
	}
	return t.PlatformKey(), t.Type
}

// OnURL reports whether the task's platform appears in url
func (t TaskInstance) OnURL(url string) bool {
	p := strings.ToLower(t.Platform)
	return p != "" && strings.Contains(strings.ToLower(url), p)
}

// PlatformKey lower-cases p and keeps everything before the first dot
func PlatformKey(p string) string {
	p = strings.ToLower(strings.TrimSpace(p))
	key, _, _ := strings.Cut(p, ".")
	return key
}

// NewTask carries the fields needed to create a task instance
type NewTask struct {
	EmployeeID  string     `json:"employee_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Type        string     `json:"type"`
	Platform    string     `json:"platform"`
	Status      TaskStatus `json:"status,omitempty"`
	TotalSteps  int        `json:"total_steps"`
	Priority    int        `json:"priority"`
}

// PageSnapshot describes the page the user is currently viewing
type PageSnapshot struct {
	URL             string   `json:"url"`
	PageTitle       string   `json:"page_title"`
	VisibleText     string   `json:"visible_text"`
	DOMElements     []string `json:"dom_elements"`
	PreviousActions []string `json:"previous_actions"`
}

// MatchResult is one ranked candidate produced by the action matcher
type MatchResult struct {
	ActionID   string  `json:"action_id"`
	Platform   string  `json:"platform"`
	Key        string  `json:"key"`
	Title      string  `json:"title"`
	Confidence float64 `json:"confidence"`
	Snippet    string  `json:"snippet"`
}

// OverlayAction is a single UI instruction for the overlay client
type OverlayAction struct {
	Selector     string     `json:"target_selector"`
	ActionType   ActionType `json:"action_type"`
	Message      string     `json:"message"`
	Priority     int        `json:"priority"`
	Alternatives []string   `json:"alternatives"`
	Reasoning    string     `json:"reasoning,omitempty"`
	Position     string     `json:"position,omitempty"`
	Animation    string     `json:"animation,omitempty"`
}

// Guidance is the renderable result for one step
type Guidance struct {
	Actions            []OverlayAction `json:"actions"`
	Tip                string          `json:"tip,omitempty"`
	Explanation        string          `json:"explanation,omitempty"`
	Confidence         float64         `json:"confidence,omitempty"`
	NextStepPrediction string          `json:"next_step_prediction,omitempty"`
	PotentialIssues    []string        `json:"potential_issues,omitempty"`
	StepDescription    string          `json:"step_description,omitempty"`
}

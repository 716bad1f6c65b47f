// Package rest is a task store over a generic REST CRM API.
package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/sadreammm/Helply/internal/apiclient"
	"github.com/sadreammm/Helply/internal/interfaces"
	"github.com/sadreammm/Helply/pkg/models"
)

// Config is the configuration for the REST store.
type Config struct {
	BaseURL string
	APIKey  string
	// HTTPClient overrides the transport; the bearer token is still applied.
	HTTPClient *http.Client
}

// Store talks to a CRM exposing /employees, /tasks and /analytics endpoints.
type Store struct {
	api *apiclient.Client
	now func() time.Time
}

// New returns a REST store. Requests carry the API key as a bearer token.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("invalid config: base url is required")
	}
	if cfg.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, cfg.HTTPClient)
	}
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIKey, TokenType: "Bearer"}))
	return &Store{api: apiclient.New(cfg.BaseURL, hc), now: time.Now}, nil
}

func (s *Store) Connect(ctx context.Context) error {
	if err := s.api.Do(ctx, http.MethodGet, "/health", nil, nil); err != nil {
		return fmt.Errorf("crm health check failed: %w", err)
	}
	return nil
}

type wireEmployee struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	JobTitle   string `json:"job_title"`
	Department string `json:"department"`
}

func (s *Store) Employee(ctx context.Context, employeeID string) (*models.Employee, error) {
	var w wireEmployee
	err := s.api.Do(ctx, http.MethodGet, "/employees/"+url.PathEscape(employeeID), nil, &w)
	if apiclient.IsStatus(err, http.StatusNotFound) {
		return nil, fmt.Errorf("employee %q: %w", employeeID, models.ErrEmployeeNotFound)
	}
	if err != nil {
		return nil, err
	}

	emp := &models.Employee{
		ID:         firstNonEmpty(w.ID, w.EmployeeID, employeeID),
		Name:       firstNonEmpty(w.Name, strings.TrimSpace(w.FirstName+" "+w.LastName)),
		Email:      w.Email,
		Role:       firstNonEmpty(w.Role, w.JobTitle),
		Department: w.Department,
	}
	return emp, nil
}

// flexInt accepts a JSON number or a numeric string
type flexInt struct {
	v   int
	set bool
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("not a number: %s", b)
	}
	f.v, f.set = int(n), true
	return nil
}

func (f flexInt) or(def int) int {
	if !f.set {
		return def
	}
	return f.v
}

type wireTask struct {
	ID             string  `json:"id"`
	TaskID         string  `json:"task_id"`
	EmployeeID     string  `json:"employee_id"`
	Title          string  `json:"title"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	Type           string  `json:"type"`
	TaskType       string  `json:"task_type"`
	Platform       string  `json:"platform"`
	Status         string  `json:"status"`
	StepsCompleted flexInt `json:"steps_completed"`
	TotalSteps     flexInt `json:"total_steps"`
	Priority       flexInt `json:"priority"`
	AssignedDate   string  `json:"assigned_date"`
	CreatedAt      string  `json:"created_at"`
}

func (w wireTask) model(employeeID string) models.TaskInstance {
	status := strings.ToLower(w.Status)
	if status == "" {
		status = string(models.StatusPending)
	}
	return models.TaskInstance{
		ID:             firstNonEmpty(w.ID, w.TaskID),
		EmployeeID:     firstNonEmpty(w.EmployeeID, employeeID),
		Title:          firstNonEmpty(w.Title, w.Name),
		Description:    w.Description,
		Type:           firstNonEmpty(w.Type, w.TaskType),
		Platform:       w.Platform,
		Status:         models.TaskStatus(status),
		StepsCompleted: w.StepsCompleted.or(0),
		TotalSteps:     w.TotalSteps.or(1),
		Priority:       w.Priority.or(99),
		AssignedAt:     parseTime(firstNonEmpty(w.AssignedDate, w.CreatedAt)),
	}
}

// taskList decodes either a bare list or {"tasks": [...]}
type taskList []wireTask

func (l *taskList) UnmarshalJSON(b []byte) error {
	var list []wireTask
	if err := json.Unmarshal(b, &list); err == nil {
		*l = list
		return nil
	}
	var wrapped struct {
		Tasks []wireTask `json:"tasks"`
	}
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return err
	}
	*l = wrapped.Tasks
	return nil
}

func (s *Store) Tasks(ctx context.Context, employeeID string, statuses ...models.TaskStatus) ([]models.TaskInstance, error) {
	if len(statuses) == 0 {
		statuses = models.ActiveStatuses
	}
	names := make([]string, 0, len(statuses))
	for _, st := range statuses {
		names = append(names, string(st))
	}
	q := url.Values{"status": {strings.Join(names, ",")}}

	var list taskList
	path := "/employees/" + url.PathEscape(employeeID) + "/tasks?" + q.Encode()
	if err := s.api.Do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}

	tasks := make([]models.TaskInstance, 0, len(list))
	for _, w := range list {
		tasks = append(tasks, w.model(employeeID))
	}
	// The API may ignore the status filter.
	tasks = models.FilterStatus(tasks, statuses...)
	models.SortTasks(tasks)
	return tasks, nil
}

func (s *Store) CreateTask(ctx context.Context, task models.NewTask) (string, error) {
	status := task.Status
	if status == "" {
		status = models.StatusPending
	}
	payload := map[string]any{
		"employee_id":     task.EmployeeID,
		"title":           task.Title,
		"description":     task.Description,
		"type":            task.Type,
		"platform":        task.Platform,
		"status":          string(status),
		"steps_completed": 0,
		"total_steps":     task.TotalSteps,
		"priority":        task.Priority,
		"created_at":      s.now().UTC().Format(time.RFC3339),
	}

	var out struct {
		ID     string `json:"id"`
		TaskID string `json:"task_id"`
	}
	if err := s.api.Do(ctx, http.MethodPost, "/tasks", payload, &out); err != nil {
		return "", err
	}
	id := firstNonEmpty(out.ID, out.TaskID)
	if id == "" {
		return "", fmt.Errorf("crm returned no task id")
	}
	return id, nil
}

func (s *Store) UpdateProgress(ctx context.Context, taskID, employeeID string, stepsCompleted int, status models.TaskStatus) error {
	if status == models.StatusCompleted {
		return s.DeleteTask(ctx, taskID, employeeID)
	}
	payload := map[string]any{
		"steps_completed": stepsCompleted,
		"status":          string(status),
		"updated_at":      s.now().UTC().Format(time.RFC3339),
	}
	err := s.api.Do(ctx, http.MethodPatch, "/tasks/"+url.PathEscape(taskID), payload, nil)
	if apiclient.IsStatus(err, http.StatusNotFound) {
		return fmt.Errorf("task %q: %w", taskID, models.ErrTaskNotFound)
	}
	return err
}

func (s *Store) DeleteTask(ctx context.Context, taskID, employeeID string) error {
	// Analytics are best effort.
	_ = s.LogAction(ctx, employeeID, "task_completed", map[string]any{"task_id": taskID})

	err := s.api.Do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(taskID), nil, nil)
	if apiclient.IsStatus(err, http.StatusNotFound) {
		return fmt.Errorf("task %q: %w", taskID, models.ErrTaskNotFound)
	}
	return err
}

func (s *Store) LogAction(ctx context.Context, employeeID, action string, metadata map[string]any) error {
	payload := map[string]any{
		"employee_id": employeeID,
		"action":      action,
		"timestamp":   s.now().UTC().Format(time.RFC3339),
		"metadata":    metadata,
	}
	return s.api.Do(ctx, http.MethodPost, "/analytics/actions", payload, nil)
}

func (s *Store) Close() error { return nil }

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

var _ interfaces.TaskStore = (*Store)(nil)

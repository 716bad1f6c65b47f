// Package hubspot is a task store over the HubSpot CRM v3 API. Employees are
// contacts carrying an employee_id property; tasks live in the custom object
// onboarding_tasks associated through employee_contact_id.
package hubspot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/sadreammm/Helply/internal/apiclient"
	"github.com/sadreammm/Helply/internal/interfaces"
	"github.com/sadreammm/Helply/pkg/models"
)

const (
	// DefaultBaseURL is the public HubSpot API
	DefaultBaseURL = "https://api.hubapi.com"
	// TaskObject is the custom object type holding onboarding tasks
	TaskObject = "onboarding_tasks"

	noteToContact = 202
)

var taskProperties = []string{
	"title", "description", "type", "platform", "status",
	"steps_completed", "total_steps", "priority", "assigned_date", "employee_contact_id",
}

// Config is the configuration for the HubSpot store.
type Config struct {
	// AccessToken is a private app token.
	AccessToken string
	BaseURL     string
	HTTPClient  *http.Client
}

// Store maps employees to HubSpot contacts and tasks to custom objects.
type Store struct {
	api      *apiclient.Client
	now      func() time.Time
	contacts sync.Map // employee id -> contact id
}

// New returns a HubSpot store.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("invalid config: access token is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, cfg.HTTPClient)
	}
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken, TokenType: "Bearer"}))
	return &Store{api: apiclient.New(cfg.BaseURL, hc), now: time.Now}, nil
}

type object struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
}

type searchResult struct {
	Total   int      `json:"total"`
	Results []object `json:"results"`
}

type filter struct {
	PropertyName string `json:"propertyName"`
	Operator     string `json:"operator"`
	Value        string `json:"value"`
}

type searchRequest struct {
	FilterGroups []map[string][]filter `json:"filterGroups"`
	Properties   []string              `json:"properties"`
	Sorts        []map[string]string   `json:"sorts,omitempty"`
	Limit        int                   `json:"limit,omitempty"`
}

func eq(prop, value string) []map[string][]filter {
	return []map[string][]filter{{"filters": {{PropertyName: prop, Operator: "EQ", Value: value}}}}
}

func (s *Store) Connect(ctx context.Context) error {
	var out json.RawMessage
	if err := s.api.Do(ctx, http.MethodGet, "/crm/v3/objects/contacts?limit=1", nil, &out); err != nil {
		return fmt.Errorf("hubspot connection failed: %w", err)
	}
	return nil
}

func (s *Store) contact(ctx context.Context, employeeID string) (*object, error) {
	req := searchRequest{
		FilterGroups: eq("employee_id", employeeID),
		Properties:   []string{"firstname", "lastname", "email", "jobtitle", "department", "employee_id"},
		Limit:        1,
	}
	var res searchResult
	if err := s.api.Do(ctx, http.MethodPost, "/crm/v3/objects/contacts/search", req, &res); err != nil {
		return nil, err
	}
	if len(res.Results) == 0 {
		return nil, fmt.Errorf("employee %q: %w", employeeID, models.ErrEmployeeNotFound)
	}
	c := res.Results[0]
	s.contacts.Store(employeeID, c.ID)
	return &c, nil
}

func (s *Store) contactID(ctx context.Context, employeeID string) (string, error) {
	if id, ok := s.contacts.Load(employeeID); ok {
		return id.(string), nil
	}
	c, err := s.contact(ctx, employeeID)
	if err != nil {
		return "", err
	}
	return c.ID, nil
}

func (s *Store) Employee(ctx context.Context, employeeID string) (*models.Employee, error) {
	c, err := s.contact(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	p := c.Properties
	return &models.Employee{
		ID:         employeeID,
		Name:       strings.TrimSpace(p["firstname"] + " " + p["lastname"]),
		Email:      p["email"],
		Role:       p["jobtitle"],
		Department: p["department"],
	}, nil
}

func (s *Store) Tasks(ctx context.Context, employeeID string, statuses ...models.TaskStatus) ([]models.TaskInstance, error) {
	contactID, err := s.contactID(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	req := searchRequest{
		FilterGroups: eq("employee_contact_id", contactID),
		Properties:   taskProperties,
		Sorts:        []map[string]string{{"propertyName": "priority", "direction": "ASCENDING"}},
		Limit:        100,
	}
	var res searchResult
	if err := s.api.Do(ctx, http.MethodPost, "/crm/v3/objects/"+TaskObject+"/search", req, &res); err != nil {
		return nil, err
	}

	tasks := make([]models.TaskInstance, 0, len(res.Results))
	for _, o := range res.Results {
		tasks = append(tasks, taskFromObject(employeeID, o))
	}
	tasks = models.FilterStatus(tasks, statuses...)
	models.SortTasks(tasks)
	return tasks, nil
}

func taskFromObject(employeeID string, o object) models.TaskInstance {
	p := o.Properties
	status := strings.ToLower(p["status"])
	if status == "" {
		status = string(models.StatusPending)
	}
	assigned, _ := time.Parse("2006-01-02", p["assigned_date"])
	return models.TaskInstance{
		ID:             o.ID,
		EmployeeID:     employeeID,
		Title:          p["title"],
		Description:    p["description"],
		Type:           p["type"],
		Platform:       p["platform"],
		Status:         models.TaskStatus(status),
		StepsCompleted: atoi(p["steps_completed"], 0),
		TotalSteps:     atoi(p["total_steps"], 1),
		Priority:       atoi(p["priority"], 99),
		AssignedAt:     assigned,
	}
}

func (s *Store) CreateTask(ctx context.Context, task models.NewTask) (string, error) {
	contactID, err := s.contactID(ctx, task.EmployeeID)
	if err != nil {
		return "", err
	}
	status := task.Status
	if status == "" {
		status = models.StatusPending
	}
	props := map[string]string{
		"employee_contact_id": contactID,
		"title":               task.Title,
		"description":         task.Description,
		"type":                task.Type,
		"platform":            task.Platform,
		"status":              string(status),
		"steps_completed":     "0",
		"total_steps":         strconv.Itoa(task.TotalSteps),
		"priority":            strconv.Itoa(task.Priority),
		"assigned_date":       s.now().UTC().Format("2006-01-02"),
	}
	var out object
	if err := s.api.Do(ctx, http.MethodPost, "/crm/v3/objects/"+TaskObject, map[string]any{"properties": props}, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (s *Store) UpdateProgress(ctx context.Context, taskID, employeeID string, stepsCompleted int, status models.TaskStatus) error {
	if status == models.StatusCompleted {
		return s.DeleteTask(ctx, taskID, employeeID)
	}
	props := map[string]string{
		"steps_completed": strconv.Itoa(stepsCompleted),
		"status":          string(status),
		"last_updated":    s.now().UTC().Format(time.RFC3339),
	}
	err := s.api.Do(ctx, http.MethodPatch, "/crm/v3/objects/"+TaskObject+"/"+url.PathEscape(taskID), map[string]any{"properties": props}, nil)
	if apiclient.IsStatus(err, http.StatusNotFound) {
		return fmt.Errorf("task %q: %w", taskID, models.ErrTaskNotFound)
	}
	return err
}

func (s *Store) DeleteTask(ctx context.Context, taskID, employeeID string) error {
	_ = s.LogAction(ctx, employeeID, "task_completed", map[string]any{"task_id": taskID})

	err := s.api.Do(ctx, http.MethodDelete, "/crm/v3/objects/"+TaskObject+"/"+url.PathEscape(taskID), nil, nil)
	if apiclient.IsStatus(err, http.StatusNotFound) {
		return fmt.Errorf("task %q: %w", taskID, models.ErrTaskNotFound)
	}
	return err
}

// LogAction records the action as a note on the employee's contact.
func (s *Store) LogAction(ctx context.Context, employeeID, action string, metadata map[string]any) error {
	contactID, err := s.contactID(ctx, employeeID)
	if err != nil {
		return err
	}
	details, _ := json.Marshal(metadata)
	note := map[string]any{
		"properties": map[string]string{
			"hs_timestamp": s.now().UTC().Format(time.RFC3339),
			"hs_note_body": fmt.Sprintf("Onboarding: %s %s", action, details),
		},
		"associations": []map[string]any{{
			"to": map[string]string{"id": contactID},
			"types": []map[string]any{{
				"associationCategory": "HUBSPOT_DEFINED",
				"associationTypeId":   noteToContact,
			}},
		}},
	}
	return s.api.Do(ctx, http.MethodPost, "/crm/v3/objects/notes", note, nil)
}

func (s *Store) Close() error { return nil }

func atoi(s string, def int) int {
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return int(f)
}

var _ interfaces.TaskStore = (*Store)(nil)

// Package salesforce is a task store over the Salesforce REST API using the
// Employee__c and Onboarding_Task__c custom objects.
package salesforce

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/sadreammm/Helply/internal/apiclient"
	"github.com/sadreammm/Helply/internal/interfaces"
	"github.com/sadreammm/Helply/pkg/models"
)

// APIVersion is the REST API version used for data calls
const APIVersion = "v59.0"

// Config is the configuration for the Salesforce store.
type Config struct {
	Username      string
	Password      string
	SecurityToken string
	ClientID      string
	ClientSecret  string
	// Domain is "login" for production or "test" for sandboxes.
	Domain string
	// LoginURL overrides https://{Domain}.salesforce.com.
	LoginURL string
	// ActivityLogObject, when set, receives LogAction records.
	ActivityLogObject string
	HTTPClient        *http.Client
}

func (c *Config) defaults() error {
	if c.Username == "" || c.Password == "" {
		return fmt.Errorf("username and password are required")
	}
	if c.Domain == "" {
		c.Domain = "login"
	}
	if c.LoginURL == "" {
		c.LoginURL = fmt.Sprintf("https://%s.salesforce.com", c.Domain)
	}
	return nil
}

// Store authenticates with the OAuth2 password grant on first use.
type Store struct {
	cfg   Config
	oauth *oauth2.Config
	now   func() time.Time

	mu  sync.Mutex
	api *apiclient.Client
}

// New returns a Salesforce store. No request is made until Connect or the
// first call.
func New(cfg Config) (*Store, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	oc := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  strings.TrimSuffix(cfg.LoginURL, "/") + "/services/oauth2/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	return &Store{cfg: cfg, oauth: oc, now: time.Now}, nil
}

// Connect requests an access token and records the instance URL.
func (s *Store) Connect(ctx context.Context) error {
	_, err := s.client(ctx)
	return err
}

func (s *Store) client(ctx context.Context) (*apiclient.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.api != nil {
		return s.api, nil
	}

	if s.cfg.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.cfg.HTTPClient)
	}
	tok, err := s.oauth.PasswordCredentialsToken(ctx, s.cfg.Username, s.cfg.Password+s.cfg.SecurityToken)
	if err != nil {
		return nil, fmt.Errorf("salesforce authentication failed: %w", err)
	}
	instance, _ := tok.Extra("instance_url").(string)
	if instance == "" {
		return nil, fmt.Errorf("salesforce token response has no instance_url")
	}

	// Detached so the session outlives the request that opened it.
	hc := oauth2.NewClient(context.WithoutCancel(ctx), oauth2.StaticTokenSource(tok))
	s.api = apiclient.New(instance+"/services/data/"+APIVersion, hc)
	slog.DebugContext(ctx, "salesforce connected", "instance", instance)
	return s.api, nil
}

// reset drops the cached session so the next call authenticates again.
func (s *Store) reset() {
	s.mu.Lock()
	s.api = nil
	s.mu.Unlock()
}

func (s *Store) do(ctx context.Context, method, path string, in, out any) error {
	api, err := s.client(ctx)
	if err != nil {
		return err
	}
	err = api.Do(ctx, method, path, in, out)
	if apiclient.IsStatus(err, http.StatusUnauthorized) {
		s.reset()
	}
	return err
}

type queryResult[T any] struct {
	TotalSize int `json:"totalSize"`
	Records   []T `json:"records"`
}

func (s *Store) query(ctx context.Context, soql string, out any) error {
	return s.do(ctx, http.MethodGet, "/query?q="+url.QueryEscape(soql), nil, out)
}

type employeeRecord struct {
	ID         string `json:"Id"`
	Name       string `json:"Name"`
	Email      string `json:"Email__c"`
	Role       string `json:"Role__c"`
	Department string `json:"Department__c"`
	ExternalID string `json:"Employee_External_Id__c"`
}

func (s *Store) employeeRecord(ctx context.Context, employeeID string) (*employeeRecord, error) {
	soql := fmt.Sprintf(`SELECT Id, Name, Email__c, Role__c, Department__c, Employee_External_Id__c
		FROM Employee__c WHERE Employee_External_Id__c = '%s' LIMIT 1`, quote(employeeID))
	var res queryResult[employeeRecord]
	if err := s.query(ctx, soql, &res); err != nil {
		return nil, err
	}
	if len(res.Records) == 0 {
		return nil, fmt.Errorf("employee %q: %w", employeeID, models.ErrEmployeeNotFound)
	}
	return &res.Records[0], nil
}

func (s *Store) Employee(ctx context.Context, employeeID string) (*models.Employee, error) {
	rec, err := s.employeeRecord(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return &models.Employee{
		ID:         employeeID,
		Name:       rec.Name,
		Email:      rec.Email,
		Role:       rec.Role,
		Department: rec.Department,
	}, nil
}

type taskRecord struct {
	ID             string   `json:"Id"`
	Name           string   `json:"Name"`
	Description    string   `json:"Description__c"`
	Type           string   `json:"Type__c"`
	Platform       string   `json:"Platform__c"`
	Status         string   `json:"Status__c"`
	StepsCompleted *float64 `json:"Steps_Completed__c"`
	TotalSteps     *float64 `json:"Total_Steps__c"`
	Priority       *float64 `json:"Priority__c"`
	AssignedDate   string   `json:"Assigned_Date__c"`
}

func (s *Store) Tasks(ctx context.Context, employeeID string, statuses ...models.TaskStatus) ([]models.TaskInstance, error) {
	rec, err := s.employeeRecord(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	soql := fmt.Sprintf(`SELECT Id, Name, Description__c, Type__c, Platform__c, Status__c,
		Steps_Completed__c, Total_Steps__c, Priority__c, Assigned_Date__c
		FROM Onboarding_Task__c WHERE Employee__c = '%s' ORDER BY Priority__c ASC`, quote(rec.ID))
	var res queryResult[taskRecord]
	if err := s.query(ctx, soql, &res); err != nil {
		return nil, err
	}

	tasks := make([]models.TaskInstance, 0, len(res.Records))
	for _, r := range res.Records {
		tasks = append(tasks, r.model(employeeID))
	}
	tasks = models.FilterStatus(tasks, statuses...)
	models.SortTasks(tasks)
	return tasks, nil
}

func (r taskRecord) model(employeeID string) models.TaskInstance {
	status := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(r.Status), " ", "_"))
	if status == "" {
		status = string(models.StatusPending)
	}
	assigned, _ := time.Parse("2006-01-02", r.AssignedDate)
	return models.TaskInstance{
		ID:             r.ID,
		EmployeeID:     employeeID,
		Title:          r.Name,
		Description:    r.Description,
		Type:           r.Type,
		Platform:       r.Platform,
		Status:         models.TaskStatus(status),
		StepsCompleted: num(r.StepsCompleted, 0),
		TotalSteps:     num(r.TotalSteps, 1),
		Priority:       num(r.Priority, 99),
		AssignedAt:     assigned,
	}
}

func (s *Store) CreateTask(ctx context.Context, task models.NewTask) (string, error) {
	rec, err := s.employeeRecord(ctx, task.EmployeeID)
	if err != nil {
		return "", err
	}
	status := task.Status
	if status == "" {
		status = models.StatusPending
	}
	body := map[string]any{
		"Employee__c":        rec.ID,
		"Name":               task.Title,
		"Description__c":     task.Description,
		"Type__c":            task.Type,
		"Platform__c":        task.Platform,
		"Status__c":          picklist(status),
		"Steps_Completed__c": 0,
		"Total_Steps__c":     task.TotalSteps,
		"Priority__c":        task.Priority,
		"Assigned_Date__c":   s.now().UTC().Format("2006-01-02"),
	}
	var out struct {
		ID      string `json:"id"`
		Success bool   `json:"success"`
	}
	if err := s.do(ctx, http.MethodPost, "/sobjects/Onboarding_Task__c", body, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("salesforce returned no record id")
	}
	return out.ID, nil
}

func (s *Store) UpdateProgress(ctx context.Context, taskID, employeeID string, stepsCompleted int, status models.TaskStatus) error {
	if status == models.StatusCompleted {
		return s.DeleteTask(ctx, taskID, employeeID)
	}
	body := map[string]any{
		"Steps_Completed__c": stepsCompleted,
		"Status__c":          picklist(status),
		"Last_Updated__c":    s.now().UTC().Format(time.RFC3339),
	}
	err := s.do(ctx, http.MethodPatch, "/sobjects/Onboarding_Task__c/"+url.PathEscape(taskID), body, nil)
	if apiclient.IsStatus(err, http.StatusNotFound) {
		return fmt.Errorf("task %q: %w", taskID, models.ErrTaskNotFound)
	}
	return err
}

func (s *Store) DeleteTask(ctx context.Context, taskID, employeeID string) error {
	_ = s.LogAction(ctx, employeeID, "task_completed", map[string]any{"task_id": taskID})

	err := s.do(ctx, http.MethodDelete, "/sobjects/Onboarding_Task__c/"+url.PathEscape(taskID), nil, nil)
	if apiclient.IsStatus(err, http.StatusNotFound) {
		return fmt.Errorf("task %q: %w", taskID, models.ErrTaskNotFound)
	}
	return err
}

func (s *Store) LogAction(ctx context.Context, employeeID, action string, metadata map[string]any) error {
	if s.cfg.ActivityLogObject == "" {
		slog.DebugContext(ctx, "employee action", "employee_id", employeeID, "action", action)
		return nil
	}
	rec, err := s.employeeRecord(ctx, employeeID)
	if err != nil {
		return err
	}
	body := map[string]any{
		"Employee__c":  rec.ID,
		"Action__c":    action,
		"Timestamp__c": s.now().UTC().Format(time.RFC3339),
		"Details__c":   fmt.Sprint(metadata),
	}
	return s.do(ctx, http.MethodPost, "/sobjects/"+s.cfg.ActivityLogObject, body, nil)
}

func (s *Store) Close() error { return nil }

// picklist title-cases a status for Salesforce picklist values
// ("in_progress" becomes "In_Progress").
func picklist(status models.TaskStatus) string {
	parts := strings.Split(string(status), "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, "_")
}

func quote(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

func num(f *float64, def int) int {
	if f == nil {
		return def
	}
	return int(*f)
}

var _ interfaces.TaskStore = (*Store)(nil)

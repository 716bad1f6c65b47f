// Package sqlite is a task store backed by a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/sadreammm/Helply/internal/crm/demo"
	"github.com/sadreammm/Helply/internal/db"
	"github.com/sadreammm/Helply/internal/interfaces"
	"github.com/sadreammm/Helply/pkg/models"
)

// Config is the configuration for the SQLite store.
type Config struct {
	DBPath string
	// Seed inserts the demo employees and tasks when the database has none.
	Seed bool
}

func (c *Config) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	return nil
}

// Store is a SQLite implementation of interfaces.TaskStore.
type Store struct {
	db  *db.DB
	cfg Config
	now func() time.Time
}

// New opens the database and applies migrations.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	conn, err := db.New(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "sqlite task store initialized", "path", cfg.DBPath)
	return &Store{
		db:  conn,
		cfg: cfg,
		now: time.Now,
	}, nil
}

// DB returns the underlying database.
func (s *Store) DB() *db.DB { return s.db }

// Connect checks the connection and seeds demo data when configured.
func (s *Store) Connect(ctx context.Context) error {
	if err := s.db.Conn().PingContext(ctx); err != nil {
		return fmt.Errorf("could not ping database: %w", err)
	}
	if !s.cfg.Seed {
		return nil
	}
	_, err := s.Seed(ctx)
	return err
}

// Seed inserts the demo data if the employees table is empty. It reports
// whether anything was inserted.
func (s *Store) Seed(ctx context.Context) (bool, error) {
	var count int
	if err := s.db.Conn().QueryRowContext(ctx, "SELECT COUNT(*) FROM employees").Scan(&count); err != nil {
		return false, fmt.Errorf("could not count employees: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	tx, err := s.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := s.now()
	for _, emp := range demo.Employees() {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO employees (id, name, email, role, department) VALUES (?, ?, ?, ?, ?)`,
			emp.ID, emp.Name, emp.Email, emp.Role, emp.Department)
		if err != nil {
			return false, fmt.Errorf("could not insert employee %s: %w", emp.ID, err)
		}
		for _, t := range demo.Tasks(emp.ID, now) {
			if err := insertTask(ctx, tx, t); err != nil {
				return false, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("could not commit seed: %w", err)
	}
	slog.InfoContext(ctx, "seeded demo data", "employees", len(demo.Employees()))
	return true, nil
}

// AddEmployee inserts or replaces an employee.
func (s *Store) AddEmployee(ctx context.Context, emp models.Employee) error {
	_, err := s.db.Conn().ExecContext(ctx, `
		INSERT INTO employees (id, name, email, role, department) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, email = excluded.email,
			role = excluded.role, department = excluded.department
	`, emp.ID, emp.Name, emp.Email, emp.Role, emp.Department)
	if err != nil {
		return fmt.Errorf("could not upsert employee: %w", err)
	}
	return nil
}

func (s *Store) Employee(ctx context.Context, employeeID string) (*models.Employee, error) {
	var emp models.Employee
	err := s.db.Conn().QueryRowContext(ctx,
		`SELECT id, name, email, role, department FROM employees WHERE id = ?`, employeeID).
		Scan(&emp.ID, &emp.Name, &emp.Email, &emp.Role, &emp.Department)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("employee %q: %w", employeeID, models.ErrEmployeeNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("could not query employee: %w", err)
	}
	return &emp, nil
}

func (s *Store) Tasks(ctx context.Context, employeeID string, statuses ...models.TaskStatus) ([]models.TaskInstance, error) {
	if len(statuses) == 0 {
		statuses = models.ActiveStatuses
	}
	args := make([]any, 0, len(statuses)+1)
	args = append(args, employeeID)
	for _, st := range statuses {
		args = append(args, string(st))
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(statuses)), ",")

	query := fmt.Sprintf(`
		SELECT id, employee_id, title, description, type, platform, status,
		       steps_completed, total_steps, priority, assigned_at
		FROM tasks
		WHERE employee_id = ? AND status IN (%s)
		ORDER BY CASE WHEN status = 'in_progress' THEN 0 ELSE 1 END, priority ASC, assigned_at ASC
	`, placeholders)

	rows, err := s.db.Conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.TaskInstance
	for rows.Next() {
		var t models.TaskInstance
		var status string
		var assignedAt int64
		err := rows.Scan(&t.ID, &t.EmployeeID, &t.Title, &t.Description, &t.Type, &t.Platform,
			&status, &t.StepsCompleted, &t.TotalSteps, &t.Priority, &assignedAt)
		if err != nil {
			return nil, fmt.Errorf("could not scan task: %w", err)
		}
		t.Status = models.TaskStatus(status)
		t.AssignedAt = time.Unix(assignedAt, 0).UTC()
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate tasks: %w", err)
	}
	return tasks, nil
}

func (s *Store) CreateTask(ctx context.Context, task models.NewTask) (string, error) {
	if task.EmployeeID == "" || task.Title == "" {
		return "", fmt.Errorf("employee id and title are required: %w", models.ErrNotValid)
	}
	if _, err := s.Employee(ctx, task.EmployeeID); err != nil {
		return "", err
	}
	status := task.Status
	if status == "" {
		status = models.StatusPending
	}

	t := models.TaskInstance{
		ID:          "task_" + uuid.NewString(),
		EmployeeID:  task.EmployeeID,
		Title:       task.Title,
		Description: task.Description,
		Type:        task.Type,
		Platform:    task.Platform,
		Status:      status,
		TotalSteps:  task.TotalSteps,
		Priority:    task.Priority,
		AssignedAt:  s.now(),
	}
	if err := insertTask(ctx, s.db.Conn(), t); err != nil {
		return "", err
	}
	return t.ID, nil
}

func (s *Store) UpdateProgress(ctx context.Context, taskID, employeeID string, stepsCompleted int, status models.TaskStatus) error {
	if status == models.StatusCompleted {
		return s.DeleteTask(ctx, taskID, employeeID)
	}

	res, err := s.db.Conn().ExecContext(ctx, `
		UPDATE tasks SET steps_completed = ?, status = ?, updated_at = ?
		WHERE id = ? AND employee_id = ?
	`, stepsCompleted, string(status), s.now().Unix(), taskID, employeeID)
	if err != nil {
		return fmt.Errorf("could not update task: %w", err)
	}
	if err := affected(res, taskID); err != nil {
		return err
	}

	return s.LogAction(ctx, employeeID, "task_progress_updated", map[string]any{
		"task_id":         taskID,
		"steps_completed": stepsCompleted,
		"status":          string(status),
	})
}

func (s *Store) DeleteTask(ctx context.Context, taskID, employeeID string) error {
	if err := s.LogAction(ctx, employeeID, "task_completed", map[string]any{"task_id": taskID}); err != nil {
		slog.WarnContext(ctx, "could not log completion", "task_id", taskID, "error", err)
	}

	res, err := s.db.Conn().ExecContext(ctx,
		`DELETE FROM tasks WHERE id = ? AND employee_id = ?`, taskID, employeeID)
	if err != nil {
		return fmt.Errorf("could not delete task: %w", err)
	}
	return affected(res, taskID)
}

func (s *Store) LogAction(ctx context.Context, employeeID, action string, metadata map[string]any) error {
	if metadata == nil {
		metadata = map[string]any{}
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("could not encode metadata: %w", err)
	}

	// ULIDs sort by creation time
	id := ulid.Make()
	_, err = s.db.Conn().ExecContext(ctx,
		`INSERT INTO actions (id, employee_id, action, metadata, created_at) VALUES (?, ?, ?, ?, ?)`,
		id.String(), employeeID, action, string(raw), s.now().Unix())
	if err != nil {
		return fmt.Errorf("could not log action: %w", err)
	}
	return nil
}

// ActionNames returns an employee's logged action names, oldest first.
func (s *Store) ActionNames(ctx context.Context, employeeID string) ([]string, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		`SELECT action FROM actions WHERE employee_id = ? ORDER BY id ASC`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("could not query actions: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("could not scan action: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *Store) Close() error { return s.db.Close() }

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertTask(ctx context.Context, e execer, t models.TaskInstance) error {
	_, err := e.ExecContext(ctx, `
		INSERT INTO tasks (
			id, employee_id, title, description, type, platform, status,
			steps_completed, total_steps, priority, assigned_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID, t.EmployeeID, t.Title, t.Description, t.Type, t.Platform, string(t.Status),
		t.StepsCompleted, t.TotalSteps, t.Priority, t.AssignedAt.Unix(), t.AssignedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("could not insert task %s: %w", t.ID, err)
	}
	return nil
}

func affected(res sql.Result, taskID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("task %q: %w", taskID, models.ErrTaskNotFound)
	}
	return nil
}

var _ interfaces.TaskStore = (*Store)(nil)

package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadreammm/Helply/internal/crm/sqlite"
	"github.com/sadreammm/Helply/pkg/models"
)

func newStore(t *testing.T, seed bool) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(context.Background(), sqlite.Config{
		DBPath: filepath.Join(t.TempDir(), "helply.db"),
		Seed:   seed,
	})
	require.NoError(t, err)
	require.NoError(t, s.Connect(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, true)

	emp, err := s.Employee(ctx, "emp_001")
	require.NoError(t, err)
	assert.Equal(t, "John Doe", emp.Name)

	tasks, err := s.Tasks(ctx, "emp_001")
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "task_emp_001_001", tasks[0].ID)
	assert.Equal(t, models.StatusInProgress, tasks[0].Status)
	assert.Equal(t, "task_emp_001_002", tasks[1].ID)

	// Seeding twice is a no-op.
	inserted, err := s.Seed(ctx)
	require.NoError(t, err)
	assert.False(t, inserted)
}

func TestEmployeeNotFound(t *testing.T) {
	s := newStore(t, false)

	_, err := s.Employee(context.Background(), "emp_001")
	assert.ErrorIs(t, err, models.ErrEmployeeNotFound)

	_, err = s.CreateTask(context.Background(), models.NewTask{EmployeeID: "emp_001", Title: "x"})
	assert.ErrorIs(t, err, models.ErrEmployeeNotFound)
}

func TestTaskLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, false)
	require.NoError(t, s.AddEmployee(ctx, models.Employee{ID: "emp_9", Name: "Nine"}))

	id, err := s.CreateTask(ctx, models.NewTask{
		EmployeeID: "emp_9",
		Title:      "Join #general",
		Type:       "slack_join_channel",
		Platform:   "slack.com",
		TotalSteps: 2,
		Priority:   5,
	})
	require.NoError(t, err)

	tasks, err := s.Tasks(ctx, "emp_9")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, models.StatusPending, tasks[0].Status)

	require.NoError(t, s.UpdateProgress(ctx, id, "emp_9", 1, models.StatusInProgress))
	tasks, err = s.Tasks(ctx, "emp_9", models.StatusInProgress)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, 1, tasks[0].StepsCompleted)

	require.NoError(t, s.UpdateProgress(ctx, id, "emp_9", 2, models.StatusCompleted))
	tasks, err = s.Tasks(ctx, "emp_9")
	require.NoError(t, err)
	assert.Empty(t, tasks)

	err = s.UpdateProgress(ctx, id, "emp_9", 2, models.StatusInProgress)
	assert.ErrorIs(t, err, models.ErrTaskNotFound)

	names, err := s.ActionNames(ctx, "emp_9")
	require.NoError(t, err)
	assert.Equal(t, []string{"task_progress_updated", "task_completed"}, names)
}

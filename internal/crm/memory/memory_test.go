package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadreammm/Helply/internal/crm/memory"
	"github.com/sadreammm/Helply/pkg/models"
)

func TestDemoData(t *testing.T) {
	s := memory.NewDemo()
	ctx := context.Background()

	emp, err := s.Employee(ctx, "emp_002")
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", emp.Name)

	_, err = s.Employee(ctx, "emp_404")
	assert.ErrorIs(t, err, models.ErrEmployeeNotFound)

	tasks, err := s.Tasks(ctx, "emp_001")
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "task_emp_001_001", tasks[0].ID)
	assert.Equal(t, models.StatusInProgress, tasks[0].Status)
	assert.Equal(t, 4, tasks[2].TotalSteps)
}

func TestTaskLifecycle(t *testing.T) {
	tests := map[string]struct {
		status      models.TaskStatus
		expTasks    int
		expLastLog  string
		expStepsOf1 int
	}{
		"Progress keeps the task.": {
			status:      models.StatusInProgress,
			expTasks:    4,
			expLastLog:  "task_progress_updated",
			expStepsOf1: 2,
		},
		"Completion deletes the task.": {
			status:     models.StatusCompleted,
			expTasks:   3,
			expLastLog: "task_completed",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)
			ctx := context.Background()

			s := memory.NewDemo()
			id, err := s.CreateTask(ctx, models.NewTask{
				EmployeeID: "emp_001",
				Title:      "Join #general",
				Type:       "slack_join_channel",
				Platform:   "slack.com",
				TotalSteps: 2,
				Priority:   0,
			})
			require.NoError(err)
			assert.NotEmpty(id)

			err = s.UpdateProgress(ctx, id, "emp_001", 2, test.status)
			require.NoError(err)

			tasks, err := s.Tasks(ctx, "emp_001")
			require.NoError(err)
			assert.Len(tasks, test.expTasks)

			actions := s.Actions()
			require.NotEmpty(actions)
			assert.Equal(test.expLastLog, actions[len(actions)-1].Action)

			if test.expStepsOf1 > 0 {
				for _, task := range tasks {
					if task.ID == id {
						assert.Equal(test.expStepsOf1, task.StepsCompleted)
					}
				}
			}
		})
	}
}

func TestUnknownTask(t *testing.T) {
	s := memory.NewDemo()
	ctx := context.Background()

	err := s.UpdateProgress(ctx, "nope", "emp_001", 1, models.StatusInProgress)
	assert.ErrorIs(t, err, models.ErrTaskNotFound)

	err = s.DeleteTask(ctx, "nope", "emp_001")
	assert.ErrorIs(t, err, models.ErrTaskNotFound)

	_, err = s.CreateTask(ctx, models.NewTask{EmployeeID: "emp_001"})
	assert.ErrorIs(t, err, models.ErrNotValid)
}

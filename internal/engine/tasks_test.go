package engine

import (
	"context"
	"testing"

	"github.com/sadreammm/Helply/pkg/cerr"
	"github.com/sadreammm/Helply/pkg/models"
)

func TestSubmitProgress(t *testing.T) {
	te := setupEngine(t)
	ctx := context.Background()

	status, err := te.SubmitProgress(ctx, "task_emp_001_002", "emp_001", 1)
	if err != nil || status != models.StatusInProgress {
		t.Fatalf("Expected in_progress, got %s %v", status, err)
	}
	status, err = te.SubmitProgress(ctx, "task_emp_001_002", "emp_001", 3)
	if err != nil || status != models.StatusCompleted {
		t.Fatalf("Expected completed, got %s %v", status, err)
	}
	_, deletes := te.store.Snapshot()
	if len(deletes) != 1 || deletes[0] != "task_emp_001_002" {
		t.Errorf("Expected completed task deleted, got %v", deletes)
	}

	if _, err := te.SubmitProgress(ctx, "task_emp_001_002", "emp_001", 1); !cerr.IsCode(err, cerr.NotFound) {
		t.Errorf("Expected NotFound after completion, got %v", err)
	}
	if _, err := te.SubmitProgress(ctx, "task_emp_001_001", "emp_001", -1); !cerr.IsCode(err, cerr.InvalidArgument) {
		t.Errorf("Expected InvalidArgument, got %v", err)
	}
}

func TestCreateTask(t *testing.T) {
	te := setupEngine(t)
	ctx := context.Background()

	id, err := te.CreateTask(ctx, models.NewTask{EmployeeID: "emp_002", Title: "Clone", Type: "github_clone", Platform: "github.com"})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	tasks, _ := te.store.Tasks(ctx, "emp_002")
	for _, task := range tasks {
		if task.ID != id {
			continue
		}
		if task.Priority != DefaultPriority {
			t.Errorf("Expected default priority, got %d", task.Priority)
		}
		if task.TotalSteps != 3 {
			t.Errorf("Expected steps from definition, got %d", task.TotalSteps)
		}
	}

	if _, err := te.CreateTask(ctx, models.NewTask{EmployeeID: "emp_002"}); !cerr.IsCode(err, cerr.InvalidArgument) {
		t.Errorf("Expected InvalidArgument, got %v", err)
	}
	if _, err := te.CreateTask(ctx, models.NewTask{EmployeeID: "emp_404", Title: "x"}); !cerr.IsCode(err, cerr.NotFound) {
		t.Errorf("Expected NotFound, got %v", err)
	}
}

func TestDeleteTask(t *testing.T) {
	te := setupEngine(t)
	ctx := context.Background()
	if err := te.DeleteTask(ctx, "task_emp_001_003", "emp_001"); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
	if err := te.DeleteTask(ctx, "task_emp_001_003", "emp_001"); !cerr.IsCode(err, cerr.NotFound) {
		t.Errorf("Expected NotFound on second delete, got %v", err)
	}
}

func TestTaskForURL(t *testing.T) {
	te := setupEngine(t)
	emp, task, err := te.TaskForURL(context.Background(), "emp_001", "https://github.com/new")
	if err != nil {
		t.Fatalf("TaskForURL failed: %v", err)
	}
	if emp.Name != "John Doe" || task == nil || task.ID != "task_emp_001_001" {
		t.Errorf("Unexpected result %+v %+v", emp, task)
	}
	_, task, err = te.TaskForURL(context.Background(), "emp_001", "https://jira.com")
	if err != nil || task != nil {
		t.Errorf("Expected no task for jira, got %+v %v", task, err)
	}
}

func TestActions(t *testing.T) {
	te := setupEngine(t)
	actions := te.Actions()
	if len(actions) == 0 {
		t.Fatal("Expected knowledge base actions")
	}
	found := false
	for _, a := range actions {
		if a.ID == "github_repo_creation" {
			found = true
			if a.Platform != "GitHub" || a.Steps != 3 {
				t.Errorf("Unexpected summary %+v", a)
			}
		}
	}
	if !found {
		t.Error("Expected github_repo_creation in actions")
	}
}

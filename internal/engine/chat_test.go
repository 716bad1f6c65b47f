package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/sadreammm/Helply/pkg/cerr"
	"github.com/sadreammm/Helply/pkg/models"
)

func TestParseTaskLexical(t *testing.T) {
	te := setupEngine(t)
	resp := te.ParseTask(context.Background(), ParseRequest{Message: "create your first github repository", CurrentURL: "https://github.com"})

	if !resp.Understood || resp.Task == nil {
		t.Fatalf("Expected a match, got %+v", resp)
	}
	if resp.Task.ActionID != "github_repo_creation" {
		t.Errorf("Expected github_repo_creation, got %s", resp.Task.ActionID)
	}
	if len(resp.Matches) > 3 {
		t.Errorf("Expected at most 3 matches, got %d", len(resp.Matches))
	}
	if resp.AIEnhanced {
		t.Error("AI is disabled")
	}
}

func TestParseTaskNoMatch(t *testing.T) {
	te := setupEngine(t)
	resp := te.ParseTask(context.Background(), ParseRequest{Message: ""})
	if resp.Understood || resp.Task != nil {
		t.Errorf("Expected nothing understood, got %+v", resp)
	}
}

func TestParseTaskClarified(t *testing.T) {
	te := setupEngine(t)
	_ = te.settings.SetAIEnabled(context.Background(), true)
	var asked string
	te.gen.ClarifyIntentFunc = func(_ context.Context, text, _ string) (*models.Intent, error) {
		asked = text
		return &models.Intent{Action: "Create Your First GitHub Repository", Confidence: 0.9}, nil
	}

	resp := te.ParseTask(context.Background(), ParseRequest{Message: "zzz qqq"})
	if asked != "zzz qqq" {
		t.Errorf("Expected the model to be asked, got %q", asked)
	}
	if !resp.Understood || !resp.AIEnhanced {
		t.Fatalf("Expected an enhanced match, got %+v", resp)
	}
	if resp.Task.ActionID != "github_repo_creation" {
		t.Errorf("Expected github_repo_creation, got %s", resp.Task.ActionID)
	}
}

func TestParseTaskClarifyFailureKeepsLexical(t *testing.T) {
	te := setupEngine(t)
	_ = te.settings.SetAIEnabled(context.Background(), true)
	te.gen.ClarifyIntentFunc = func(context.Context, string, string) (*models.Intent, error) {
		return nil, errors.New("quota")
	}
	resp := te.ParseTask(context.Background(), ParseRequest{Message: "clone repository"})
	if !resp.Understood || resp.AIEnhanced {
		t.Errorf("Expected the lexical match to stand, got %+v", resp)
	}
}

func TestCreateFromChat(t *testing.T) {
	te := setupEngine(t)
	ctx := context.Background()
	id, err := te.CreateFromChat(ctx, "emp_002", ParsedTask{Platform: "github", ActionID: "github_repo_creation", Title: "Create Your First GitHub Repository"})
	if err != nil {
		t.Fatalf("CreateFromChat failed: %v", err)
	}

	tasks, _ := te.store.Tasks(ctx, "emp_002")
	var created *models.TaskInstance
	for i := range tasks {
		if tasks[i].ID == id {
			created = &tasks[i]
		}
	}
	if created == nil {
		t.Fatalf("Created task %s not found", id)
	}
	if created.TotalSteps != 3 || created.Priority != 1 {
		t.Errorf("Expected 3 steps priority 1, got %d/%d", created.TotalSteps, created.Priority)
	}
	if created.Description != "Task created via AI chat: Create Your First GitHub Repository" {
		t.Errorf("Unexpected description %q", created.Description)
	}
	if len(te.store.Actions) != 1 || te.store.Actions[0].Action != "task_created" {
		t.Errorf("Expected task_created action, got %+v", te.store.Actions)
	}
}

func TestCreateFromChatValidation(t *testing.T) {
	te := setupEngine(t)
	if _, err := te.CreateFromChat(context.Background(), "", ParsedTask{ActionID: "x"}); !cerr.IsCode(err, cerr.InvalidArgument) {
		t.Errorf("Expected InvalidArgument, got %v", err)
	}
	if _, err := te.CreateFromChat(context.Background(), "emp_404", ParsedTask{ActionID: "x"}); !cerr.IsCode(err, cerr.NotFound) {
		t.Errorf("Expected NotFound, got %v", err)
	}
	id, err := te.CreateFromChat(context.Background(), "emp_001", ParsedTask{ActionID: "unknown_action", Title: "Something"})
	if err != nil || id == "" {
		t.Fatalf("Unknown definitions still create a task: %v", err)
	}
}

package models

import "testing"

func TestDefinitionRef(t *testing.T) {
	tests := []struct {
		task        TaskInstance
		expPlatform string
		expAction   string
	}{
		{TaskInstance{Type: "github_create_repo", Platform: "github.com"}, "github", "github_create_repo"},
		{TaskInstance{Type: "GitHub_clone", Platform: ""}, "github", "GitHub_clone"},
		{TaskInstance{Type: "onboarding", Platform: "Slack.com"}, "slack", "onboarding"},
		{TaskInstance{Type: "onboarding", Platform: "jira"}, "jira", "onboarding"},
	}
	for _, tt := range tests {
		p, a := tt.task.DefinitionRef()
		if p != tt.expPlatform || a != tt.expAction {
			t.Errorf("DefinitionRef(%q, %q) = (%q, %q), expected (%q, %q)",
				tt.task.Type, tt.task.Platform, p, a, tt.expPlatform, tt.expAction)
		}
	}
}

func TestOnURL(t *testing.T) {
	task := TaskInstance{Platform: "github.com"}
	if !task.OnURL("https://GitHub.com/new") {
		t.Error("Expected platform to match URL case-insensitively")
	}
	if task.OnURL("https://gitlab.com") {
		t.Error("Expected no match")
	}
	if (TaskInstance{}).OnURL("https://github.com") {
		t.Error("Expected empty platform never to match")
	}
}

func TestSortTasks(t *testing.T) {
	tasks := []TaskInstance{
		{ID: "a", Status: StatusPending, Priority: 1},
		{ID: "b", Status: StatusInProgress, Priority: 5},
		{ID: "c", Status: StatusAssigned, Priority: 0},
		{ID: "d", Status: StatusInProgress, Priority: 2},
	}
	SortTasks(tasks)

	var got string
	for _, task := range tasks {
		got += task.ID
	}
	if got != "dbca" {
		t.Errorf("Expected order dbca, got %s", got)
	}
}

func TestFilterStatus(t *testing.T) {
	tasks := []TaskInstance{
		{ID: "a", Status: StatusPending},
		{ID: "b", Status: StatusCompleted},
		{ID: "c", Status: StatusInProgress},
	}
	if got := FilterStatus(tasks); len(got) != 2 {
		t.Errorf("Expected 2 active tasks, got %d", len(got))
	}
	if got := FilterStatus(tasks, StatusCompleted); len(got) != 1 || got[0].ID != "b" {
		t.Errorf("Unexpected filter result: %v", got)
	}
}

func TestClampStep(t *testing.T) {
	def := &TaskDefinition{Steps: make([]StepDefinition, 3)}
	for in, want := range map[int]int{-1: 0, 0: 0, 2: 2, 3: 2, 10: 2} {
		if got := def.ClampStep(in); got != want {
			t.Errorf("ClampStep(%d) = %d, expected %d", in, got, want)
		}
	}
	if got := (&TaskDefinition{}).ClampStep(4); got != 0 {
		t.Errorf("Expected 0 for empty definition, got %d", got)
	}
}

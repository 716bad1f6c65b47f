package detect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadreammm/Helply/internal/detect"
	"github.com/sadreammm/Helply/pkg/models"
)

func createRepositoryDef() *models.TaskDefinition {
	return &models.TaskDefinition{
		Platform: "github",
		Key:      "create_repository",
		Title:    "Create Your First GitHub Repository",
		Steps: []models.StepDefinition{
			{Message: "Open the new repository page", PagePattern: "/new"},
			{Message: "Wait for the repository", CompletionIndicators: []string{"file-navigation"}},
		},
	}
}

func threeStepDef() *models.TaskDefinition {
	return &models.TaskDefinition{
		Platform: "acme",
		Key:      "setup",
		Steps: []models.StepDefinition{
			{Message: "one", CompletionIndicators: []string{"Welcome"}},
			{Message: "two", PagePattern: "acme.io/profile*", CompletionIndicators: []string{"Profile saved"}},
			{Message: "three", PagePattern: "*acme.io/done"},
		},
	}
}

func TestDetectScenarioCreateRepository(t *testing.T) {
	d := detect.NewDetector(nil)
	def := createRepositoryDef()

	got := d.Detect(def, models.PageSnapshot{URL: "https://github.com/new"}, 0, 2, "create_repository")
	assert.Equal(t, 0, got.Index)
	assert.False(t, got.Complete)
	assert.Equal(t, "step", got.Rule)

	got = d.Detect(def, models.PageSnapshot{
		URL:         "https://example.com/alice/demo",
		DOMElements: []string{"div#File-Navigation"},
	}, 0, 2, "create_repository")
	assert.Equal(t, 1, got.Index, "index is clamped to the last step")
	assert.True(t, got.Complete)
	assert.Equal(t, 2, got.Resolved(2))
}

func TestDetect(t *testing.T) {
	tests := map[string]struct {
		snapshot    models.PageSnapshot
		stored      int
		total       int
		expIndex    int
		expComplete bool
		expRule     string
	}{
		"No match falls back to the stored index": {
			snapshot: models.PageSnapshot{URL: "https://acme.io/"},
			stored:   1,
			expIndex: 1,
			expRule:  "stored",
		},
		"Stored index beyond the steps is clamped": {
			snapshot: models.PageSnapshot{URL: "https://acme.io/"},
			stored:   4,
			total:    5,
			expIndex: 2,
			expRule:  "stored",
		},
		"Stored index at total stays complete": {
			snapshot:    models.PageSnapshot{URL: "https://acme.io/profile"},
			stored:      3,
			expIndex:    2,
			expComplete: true,
			expRule:     "stored",
		},
		"Negative stored index is treated as zero": {
			snapshot: models.PageSnapshot{},
			stored:   -4,
			expIndex: 0,
			expRule:  "stored",
		},
		"Indicator in visible text advances past its step": {
			snapshot: models.PageSnapshot{VisibleText: "welcome, Alice"},
			expIndex: 1,
			expRule:  "step",
		},
		"Wildcards are stripped from patterns": {
			snapshot: models.PageSnapshot{URL: "HTTPS://ACME.IO/PROFILE/edit"},
			expIndex: 1,
			expRule:  "step",
		},
		"First matching step wins over later ones": {
			snapshot: models.PageSnapshot{URL: "https://acme.io/done", VisibleText: "Welcome"},
			expIndex: 1,
			expRule:  "step",
		},
		"Detection never regresses": {
			snapshot: models.PageSnapshot{URL: "https://acme.io/profile"},
			stored:   2,
			expIndex: 2,
			expRule:  "stored",
		},
		"Pattern on the last step is not completion": {
			snapshot: models.PageSnapshot{URL: "https://acme.io/done"},
			expIndex: 2,
			expRule:  "step",
		},
	}

	d := detect.NewDetector(detect.DefaultRegistry())
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got := d.Detect(threeStepDef(), test.snapshot, test.stored, test.total, "setup")
			assert.Equal(t, test.expIndex, got.Index)
			assert.Equal(t, test.expComplete, got.Complete)
			assert.Equal(t, test.expRule, got.Rule)
		})
	}
}

func TestDetectEmptyDefinition(t *testing.T) {
	d := detect.NewDetector(detect.DefaultRegistry())

	got := d.Detect(&models.TaskDefinition{Platform: "github"}, models.PageSnapshot{URL: "https://github.com/a/b"}, 3, 3, "repo")
	assert.Equal(t, 0, got.Index)
	assert.False(t, got.Complete)

	got = d.Detect(nil, models.PageSnapshot{}, 0, 0, "")
	assert.Equal(t, 0, got.Index)
}

func TestDetectIsMonotonic(t *testing.T) {
	d := detect.NewDetector(detect.DefaultRegistry())
	def := threeStepDef()
	snapshots := []models.PageSnapshot{
		{URL: "https://acme.io/"},
		{URL: "https://acme.io/profile"},
		{VisibleText: "Welcome"},
		{URL: "https://acme.io/done"},
		{URL: "https://acme.io/"},
		{URL: "https://acme.io/profile", VisibleText: "Profile saved"},
		{},
	}

	stored := 0
	prev := 0
	for i, snap := range snapshots {
		got := d.Detect(def, snap, stored, 3, "setup")
		resolved := got.Resolved(3)
		require.GreaterOrEqual(t, resolved, prev, "snapshot %d regressed", i)
		require.True(t, got.Index >= 0 && got.Index < len(def.Steps))
		prev = resolved
		if resolved > stored {
			stored = resolved
		}
	}
}

func TestGitHubRepositoryRule(t *testing.T) {
	def := &models.TaskDefinition{
		Platform: "github",
		Key:      "create_repository",
		Steps: []models.StepDefinition{
			{Message: "Click New"},
			{Message: "Fill the form"},
			{Message: "Submit"},
		},
	}

	tests := map[string]struct {
		url         string
		actionID    string
		stored      int
		expIndex    int
		expComplete bool
		expRule     string
	}{
		"Owner and name path means the repository exists": {
			url:         "https://github.com/alice/demo",
			actionID:    "github_create_repo",
			expIndex:    2,
			expComplete: true,
			expRule:     "github_repository",
		},
		"Query strings are ignored": {
			url:         "https://github.com/alice/demo?tab=readme",
			actionID:    "create_repository",
			expIndex:    2,
			expComplete: true,
			expRule:     "github_repository",
		},
		"New page is at least the form step": {
			url:      "https://github.com/new",
			actionID: "github_create_repo",
			expIndex: 1,
			expRule:  "github_repository",
		},
		"New page keeps a later stored step": {
			url:      "https://github.com/new",
			actionID: "github_create_repo",
			stored:   2,
			expIndex: 2,
			expRule:  "github_repository",
		},
		"Creating a file inside a repo is not completion": {
			url:      "https://github.com/alice/demo/new/main",
			actionID: "github_create_repo",
			expIndex: 1,
			expRule:  "github_repository",
		},
		"Owner named like a reserved word still completes": {
			url:         "https://github.com/newton/hello",
			actionID:    "github_create_repo",
			expIndex:    2,
			expComplete: true,
			expRule:     "github_repository",
		},
		"Repository named like a reserved word still completes": {
			url:         "https://github.com/alice/repositories-demo",
			actionID:    "github_create_repo",
			expIndex:    2,
			expComplete: true,
			expRule:     "github_repository",
		},
		"Reserved paths are not repositories": {
			url:      "https://github.com/settings/profile",
			actionID: "github_create_repo",
			expIndex: 0,
			expRule:  "stored",
		},
		"Bare domain cannot move progress back": {
			url:      "https://github.com/",
			actionID: "github_create_repo",
			stored:   1,
			expIndex: 1,
			expRule:  "stored",
		},
		"Other actions are left alone": {
			url:      "https://github.com/alice/demo",
			actionID: "github_clone",
			expIndex: 0,
			expRule:  "stored",
		},
		"Other sites are left alone": {
			url:      "https://gitlab.com/alice/demo",
			actionID: "github_create_repo",
			expIndex: 0,
			expRule:  "stored",
		},
	}

	d := detect.NewDetector(detect.DefaultRegistry())
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got := d.Detect(def, models.PageSnapshot{URL: test.url}, test.stored, 3, test.actionID)
			assert.Equal(t, test.expIndex, got.Index)
			assert.Equal(t, test.expComplete, got.Complete)
			assert.Equal(t, test.expRule, got.Rule)
		})
	}
}

func TestGitHubBareDomainKeepsDeclarativeAdvance(t *testing.T) {
	def := &models.TaskDefinition{
		Platform: "github",
		Key:      "create_repository",
		Steps: []models.StepDefinition{
			{Message: "Open the new repository form", CompletionIndicators: []string{"Create a new repository"}},
			{Message: "Fill the form"},
			{Message: "Submit"},
		},
	}

	d := detect.NewDetector(detect.DefaultRegistry())
	got := d.Detect(def, models.PageSnapshot{URL: "https://github.com/", VisibleText: "Create a new repository"}, 0, 3, "github_create_repo")
	assert.Equal(t, 1, got.Index)
	assert.False(t, got.Complete)
	assert.Equal(t, "step", got.Rule)
}

func TestRegistry(t *testing.T) {
	r := detect.NewRegistry()
	rule := detect.RuleFunc{RuleName: "always_two", Fn: func(detect.Input) (detect.Proposal, bool) {
		return detect.Proposal{Index: 2}, true
	}}

	require.NoError(t, r.Register("acme.io", rule))
	assert.Error(t, r.Register("acme", rule), "duplicate names are rejected")
	assert.Error(t, r.Register("", rule))
	assert.Error(t, r.Register("acme", nil))
	assert.Len(t, r.Rules("ACME"), 1)
	assert.Equal(t, []string{"acme"}, r.Platforms())

	got := detect.NewDetector(r).Detect(threeStepDef(), models.PageSnapshot{VisibleText: "Welcome"}, 0, 3, "setup")
	assert.Equal(t, 2, got.Index, "platform overrides run after declarative rules")
	assert.Equal(t, "always_two", got.Rule)
}

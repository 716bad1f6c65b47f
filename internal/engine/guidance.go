package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sourcegraph/conc/panics"

	"github.com/sadreammm/Helply/internal/guidance"
	"github.com/sadreammm/Helply/internal/llm"
	"github.com/sadreammm/Helply/internal/progress"
	"github.com/sadreammm/Helply/pkg/cerr"
	"github.com/sadreammm/Helply/pkg/clog"
	"github.com/sadreammm/Helply/pkg/models"
)

// Guidance sources, also used as metric labels
const (
	SourceAI     = "ai"
	SourceKB     = "kb"
	SourceStatic = "static"
)

// GuidanceRequest is a page snapshot plus who is looking at it
type GuidanceRequest struct {
	models.PageSnapshot
	EmployeeID string `json:"employee_id"`
	TaskID     string `json:"task_id,omitempty"`
}

// GuidanceResponse is what the overlay client renders
type GuidanceResponse struct {
	Actions            []models.OverlayAction `json:"actions"`
	Tip                string                 `json:"tip,omitempty"`
	Explanation        string                 `json:"explanation,omitempty"`
	StepNumber         int                    `json:"step_number"`
	TotalSteps         int                    `json:"total_steps"`
	TaskComplete       bool                   `json:"task_complete"`
	Confidence         float64                `json:"confidence,omitempty"`
	NextStepPrediction string                 `json:"next_step_prediction,omitempty"`
	PotentialIssues    []string               `json:"potential_issues,omitempty"`
	AIGenerated        bool                   `json:"ai_generated"`
	StepDescription    string                 `json:"step_description,omitempty"`
	GuidanceText       string                 `json:"guidance_text,omitempty"`
	TaskID             string                 `json:"task_id"`
	NextTask           *models.TaskInstance   `json:"next_task,omitempty"`
	Source             string                 `json:"source"`
}

// Guide resolves the employee's task for the page and returns guidance for
// the step they are on. Only an unknown employee or a missing active task
// is an error; anything failing after the task is chosen degrades to a
// static tooltip.
func (e *Engine) Guide(ctx context.Context, req GuidanceRequest) (*GuidanceResponse, error) {
	clog.AddAttribute(ctx, "employee_id", req.EmployeeID)
	if strings.TrimSpace(req.EmployeeID) == "" {
		return nil, cerr.NewError(cerr.InvalidArgument, "employee_id is required", models.ErrNotValid)
	}
	if _, err := e.tasks.Employee(ctx, req.EmployeeID); err != nil {
		return nil, cerr.WrapReadError("employee", err)
	}
	tasks, err := e.tasks.Tasks(ctx, req.EmployeeID)
	if err != nil {
		return nil, cerr.WrapReadError("tasks", err)
	}
	task, ok := chooseTask(tasks, req.TaskID, req.URL)
	if !ok {
		return nil, cerr.NewError(cerr.NotFound, "no active task found", models.ErrTaskNotFound)
	}
	clog.AddAttribute(ctx, "task_id", task.ID)

	var resp *GuidanceResponse
	var catcher panics.Catcher
	catcher.Try(func() { resp = e.guide(ctx, req, task, tasks) })
	if r := catcher.Recovered(); r != nil {
		slog.ErrorContext(ctx, "guidance generation failed", "error", r.AsError())
		resp = staticResponse(task)
	}
	e.metrics.Guidance(resp.Source)
	return resp, nil
}

// chooseTask prefers an explicit id, then the first active task whose
// platform appears in the URL. tasks arrive in store order (in progress
// first, then priority).
func chooseTask(tasks []models.TaskInstance, taskID, url string) (models.TaskInstance, bool) {
	for _, t := range tasks {
		if taskID != "" && t.ID == taskID {
			return t, true
		}
	}
	if taskID != "" {
		return models.TaskInstance{}, false
	}
	for _, t := range tasks {
		if t.Status.Active() && t.OnURL(url) {
			return t, true
		}
	}
	return models.TaskInstance{}, false
}

func (e *Engine) guide(ctx context.Context, req GuidanceRequest, task models.TaskInstance, tasks []models.TaskInstance) *GuidanceResponse {
	platform, actionID := task.DefinitionRef()
	total := task.TotalSteps

	def, err := e.defs.Resolve(platform, actionID)
	if err != nil {
		slog.WarnContext(ctx, "no definition for task", "platform", platform, "action_id", actionID, "error", err)
		def = nil
	}
	if total <= 0 && def != nil {
		total = len(def.Steps)
	}

	resolved := task.StepsCompleted
	index := task.StepsCompleted
	if def != nil {
		det := e.detector.Detect(def, req.PageSnapshot, task.StepsCompleted, total, actionID)
		e.metrics.Detection(det.Rule)
		resolved = det.Resolved(total)
		index = det.Index
		slog.DebugContext(ctx, "step detected", "stored", task.StepsCompleted, "resolved", resolved, "rule", det.Rule)
	}

	g, source := e.produce(ctx, req, task, def, actionID, index, resolved, total)
	guidance.Decorate(&g)

	decision := progress.Reconcile(models.TaskInstance{
		ID:             task.ID,
		EmployeeID:     task.EmployeeID,
		StepsCompleted: task.StepsCompleted,
		TotalSteps:     total,
	}, resolved)
	if e.persister.Submit(ctx, task, decision) {
		slog.InfoContext(ctx, "progress advanced", "from", task.StepsCompleted, "to", decision.StepsCompleted, "complete", decision.IsComplete)
	}

	resp := &GuidanceResponse{
		Actions:            g.Actions,
		Tip:                g.Tip,
		Explanation:        g.Explanation,
		StepNumber:         stepNumber(resolved, total),
		TotalSteps:         total,
		TaskComplete:       decision.IsComplete,
		Confidence:         g.Confidence,
		NextStepPrediction: g.NextStepPrediction,
		PotentialIssues:    g.PotentialIssues,
		AIGenerated:        source == SourceAI,
		StepDescription:    g.StepDescription,
		TaskID:             task.ID,
		Source:             source,
	}
	if source == SourceKB && def != nil {
		resp.GuidanceText = fmt.Sprintf("Step %d of %d: %s", resp.StepNumber, total, g.StepDescription)
		if resp.NextStepPrediction == "" && index+1 < len(def.Steps) && !decision.IsComplete {
			resp.NextStepPrediction = def.Steps[index+1].Message
		}
	}
	if decision.IsComplete {
		resp.NextTask = nextTask(tasks, task.ID)
	}
	return resp
}

// produce picks the guidance source: the model when enabled, the knowledge
// base otherwise or when the model fails, a generic fallback when neither
// can serve.
func (e *Engine) produce(ctx context.Context, req GuidanceRequest, task models.TaskInstance, def *models.TaskDefinition, actionID string, index, resolved, total int) (models.Guidance, string) {
	if e.aiActive() {
		g, err := e.generator.Generate(ctx, models.GuidanceRequest{
			TaskTitle:       task.Title,
			TaskDescription: task.Description,
			Page:            req.PageSnapshot,
			StepNumber:      stepNumber(resolved, total),
			TotalSteps:      total,
		})
		if err == nil && g != nil && len(g.Actions) > 0 {
			return *g, SourceAI
		}
		slog.WarnContext(ctx, "generative guidance failed, falling back", "model", e.generator.Model(), "error", err)
		if def == nil {
			return *llm.Fallback(stepNumber(resolved, total)), SourceStatic
		}
	}
	if def == nil {
		return guidance.Missing(actionID), SourceKB
	}
	return guidance.Select(def, index), SourceKB
}

// stepNumber is the 1-based step shown to the user, capped at total once
// every step is done
func stepNumber(resolved, total int) int {
	n := resolved + 1
	if total > 0 && n > total {
		n = total
	}
	if n < 1 {
		n = 1
	}
	return n
}

func nextTask(tasks []models.TaskInstance, currentID string) *models.TaskInstance {
	for _, t := range tasks {
		if t.ID != currentID && t.Status.Active() {
			return &t
		}
	}
	return nil
}

func staticResponse(task models.TaskInstance) *GuidanceResponse {
	g := guidance.Static(task.Title)
	guidance.Decorate(&g)
	return &GuidanceResponse{
		Actions:     g.Actions,
		Tip:         g.Tip,
		Explanation: g.Explanation,
		StepNumber:  stepNumber(task.StepsCompleted, task.TotalSteps),
		TotalSteps:  task.TotalSteps,
		TaskID:      task.ID,
		Source:      SourceStatic,
	}
}

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/sadreammm/Helply/internal/intent"
	"github.com/sadreammm/Helply/pkg/cerr"
	"github.com/sadreammm/Helply/pkg/models"
)

const (
	// ClarifyBelow is the top match confidence under which the model is asked
	// to restate the request
	ClarifyBelow = 0.7
	// ClarifyBoost is added to the top match found through a restated request
	ClarifyBoost = 0.2
	// DefaultTotalSteps is used for chat-created tasks without a definition
	DefaultTotalSteps = 3

	chatMatches = 3
)

type ParseRequest struct {
	Message    string `json:"message"`
	EmployeeID string `json:"employee_id,omitempty"`
	CurrentURL string `json:"current_url,omitempty"`
}

// ParsedTask is the task a chat message was understood as
type ParsedTask struct {
	Platform   string  `json:"platform"`
	ActionID   string  `json:"action_id"`
	Title      string  `json:"title"`
	Confidence float64 `json:"confidence,omitempty"`
}

type ParseResponse struct {
	Understood bool                 `json:"understood"`
	Task       *ParsedTask          `json:"task,omitempty"`
	Message    string               `json:"message"`
	Matches    []models.MatchResult `json:"matches,omitempty"`
	AIEnhanced bool                 `json:"ai_enhanced"`
}

// ParseTask maps a chat message onto a task definition. When lexical
// matching is weak and generative guidance is on, the model restates the
// request as "platform action" and matching runs again on that.
func (e *Engine) ParseTask(ctx context.Context, req ParseRequest) *ParseResponse {
	mctx := intent.Context{URL: req.CurrentURL}
	matches := e.matcher.Match(req.Message, mctx, intent.DefaultTopK)

	enhanced := false
	if e.aiActive() && (len(matches) == 0 || matches[0].Confidence < ClarifyBelow) {
		if clarified := e.clarify(ctx, req, mctx); len(clarified) > 0 {
			matches = clarified
			enhanced = true
		}
	}
	if len(matches) > 0 {
		e.metrics.Match(matches[0].Confidence, enhanced)
	}

	if len(matches) == 0 {
		return &ParseResponse{
			Understood: false,
			Message:    "I couldn't find a matching task. Can you be more specific?",
			AIEnhanced: enhanced,
		}
	}
	best := matches[0]
	if len(matches) > chatMatches {
		matches = matches[:chatMatches]
	}
	return &ParseResponse{
		Understood: true,
		Task: &ParsedTask{
			Platform:   best.Platform,
			ActionID:   best.ActionID,
			Title:      best.Title,
			Confidence: best.Confidence,
		},
		Message:    fmt.Sprintf("Got it! I'll guide you through: %s", best.Title),
		Matches:    matches,
		AIEnhanced: enhanced,
	}
}

func (e *Engine) clarify(ctx context.Context, req ParseRequest, mctx intent.Context) []models.MatchResult {
	in, err := e.generator.ClarifyIntent(ctx, req.Message, req.CurrentURL)
	if err != nil {
		slog.WarnContext(ctx, "intent clarification failed", "error", err)
		return nil
	}
	query := strings.TrimSpace(in.Platform + " " + in.Action)
	if query == "" {
		query = in.Intent
	}
	matches := e.matcher.Match(query, mctx, intent.DefaultTopK)
	if len(matches) > 0 {
		matches[0].Confidence = math.Min(matches[0].Confidence+ClarifyBoost, 1)
	}
	slog.DebugContext(ctx, "intent clarified", "query", query, "matches", len(matches))
	return matches
}

// CreateFromChat creates the task a chat message was parsed into. The step
// count comes from the definition when one resolves.
func (e *Engine) CreateFromChat(ctx context.Context, employeeID string, t ParsedTask) (string, error) {
	if strings.TrimSpace(employeeID) == "" || (t.ActionID == "" && t.Title == "") {
		return "", cerr.NewError(cerr.InvalidArgument, "missing employee_id or task data", models.ErrNotValid)
	}
	if _, err := e.tasks.Employee(ctx, employeeID); err != nil {
		return "", cerr.WrapReadError("employee", err)
	}

	platform := models.PlatformKey(t.Platform)
	total := DefaultTotalSteps
	if def, err := e.defs.Resolve(platform, t.ActionID); err == nil && len(def.Steps) > 0 {
		total = len(def.Steps)
		if platform == "" {
			platform = def.Platform
		}
	}
	title := t.Title
	if title == "" {
		title = "Untitled Task"
	}
	taskPlatform := t.Platform
	if taskPlatform == "" {
		taskPlatform = platform
	}

	id, err := e.tasks.CreateTask(ctx, models.NewTask{
		EmployeeID:  employeeID,
		Title:       title,
		Description: fmt.Sprintf("Task created via AI chat: %s", title),
		Type:        t.ActionID,
		Platform:    taskPlatform,
		Status:      models.StatusAssigned,
		TotalSteps:  total,
		Priority:    1,
	})
	if err != nil {
		return "", cerr.WrapWriteError("task", err)
	}
	if err := e.tasks.LogAction(ctx, employeeID, "task_created", map[string]any{
		"task_id": id, "action_id": t.ActionID, "source": "chat",
	}); err != nil {
		slog.WarnContext(ctx, "failed to log action", "action", "task_created", "error", err)
	}
	return id, nil
}

package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/sadreammm/Helply/pkg/models"
)

// Defaults applied to fields the model leaves out
const (
	DefaultSelector   = "body"
	DefaultMessage    = "Continue..."
	DefaultPriority   = 3
	DefaultConfidence = 0.8
)

var (
	fenceRe         = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
)

// ExtractJSON pulls a JSON object out of model output. It accepts fenced
// code blocks, prose around a bare object and trailing commas.
func ExtractJSON(text string) (string, error) {
	text = strings.TrimSpace(text)
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", fmt.Errorf("no json object in model output")
	}
	text = trailingCommaRe.ReplaceAllString(text[start:end+1], "$1")

	if !json.Valid([]byte(text)) {
		return "", fmt.Errorf("model output is not valid json")
	}
	return text, nil
}

type wireAction struct {
	Selector     string   `json:"selector"`
	ActionType   string   `json:"action_type"`
	Message      string   `json:"message"`
	Priority     *int     `json:"priority"`
	Reasoning    string   `json:"reasoning"`
	Alternatives []string `json:"alternatives"`
}

type wireGuidance struct {
	Actions            []wireAction `json:"actions"`
	Tip                string       `json:"tip"`
	Explanation        string       `json:"explanation"`
	Confidence         *float64     `json:"confidence"`
	NextStepPrediction string       `json:"next_step_prediction"`
	PotentialIssues    []string     `json:"potential_issues"`
}

// parseGuidance decodes model output into guidance, filling defaults
func parseGuidance(text string) (*models.Guidance, error) {
	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, err
	}
	var w wireGuidance
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return nil, fmt.Errorf("could not decode guidance: %w", err)
	}
	if len(w.Actions) == 0 {
		return nil, fmt.Errorf("model returned no actions")
	}

	g := &models.Guidance{
		Actions:            make([]models.OverlayAction, 0, len(w.Actions)),
		Tip:                w.Tip,
		Explanation:        w.Explanation,
		Confidence:         DefaultConfidence,
		NextStepPrediction: w.NextStepPrediction,
		PotentialIssues:    w.PotentialIssues,
	}
	if w.Confidence != nil {
		g.Confidence = clamp01(*w.Confidence)
	}
	for _, a := range w.Actions {
		oa := models.OverlayAction{
			Selector:     orDefault(a.Selector, DefaultSelector),
			ActionType:   models.ActionType(strings.ToLower(a.ActionType)),
			Message:      orDefault(a.Message, DefaultMessage),
			Priority:     DefaultPriority,
			Reasoning:    a.Reasoning,
			Alternatives: a.Alternatives,
		}
		if !oa.ActionType.Valid() {
			oa.ActionType = models.ActionHighlight
		}
		if a.Priority != nil {
			oa.Priority = min(max(*a.Priority, 1), 5)
		}
		if oa.Alternatives == nil {
			oa.Alternatives = []string{}
		}
		g.Actions = append(g.Actions, oa)
	}
	return g, nil
}

func parseIntent(text string) (*models.Intent, error) {
	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, err
	}
	var in models.Intent
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return nil, fmt.Errorf("could not decode intent: %w", err)
	}
	if in.Platform == "" && in.Action == "" {
		return nil, fmt.Errorf("model returned an empty intent")
	}
	in.Confidence = clamp01(in.Confidence)
	return &in, nil
}

// Fallback is the deterministic guidance used when the model fails
func Fallback(step int) *models.Guidance {
	return &models.Guidance{
		Actions: []models.OverlayAction{{
			Selector:     DefaultSelector,
			ActionType:   models.ActionHighlight,
			Message:      fmt.Sprintf("Continue with step %d", step),
			Priority:     DefaultPriority,
			Reasoning:    "Fallback guidance",
			Alternatives: []string{},
		}},
		Tip:         "Navigate to complete this step",
		Explanation: "We're here to help you succeed!",
		Confidence:  0.6,
	}
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func clamp01(f float64) float64 {
	return min(max(f, 0), 1)
}

// Package guidance turns a resolved step of a task definition into overlay
// actions.
package guidance

import (
	"fmt"

	"github.com/sadreammm/Helply/pkg/models"
)

const (
	// KBConfidence marks guidance taken verbatim from the knowledge base
	KBConfidence = 0.95
	// FallbackConfidence marks guidance made up without a matching step
	FallbackConfidence = 0.6
	// RootSelector targets the page itself
	RootSelector = "body"

	priorityRequired = 4
	priorityDefault  = 3
	priorityFallback = 2
)

// Select emits one action per selector of the clamped step, in listed order.
// It has no side effects; equal inputs give equal output.
func Select(def *models.TaskDefinition, step int) models.Guidance {
	s, _ := def.Step(step)
	actionType := s.ActionType()

	actions := make([]models.OverlayAction, 0, len(s.Selectors))
	for _, sel := range s.Selectors {
		if sel.Locator == "" {
			continue
		}
		msg := sel.Message
		if msg == "" {
			msg = s.Message
		}
		priority := priorityDefault
		if sel.Required {
			priority = priorityRequired
		}
		alternatives := make([]string, len(sel.Alternatives))
		copy(alternatives, sel.Alternatives)
		actions = append(actions, models.OverlayAction{
			Selector:     sel.Locator,
			ActionType:   actionType,
			Message:      msg,
			Priority:     priority,
			Alternatives: alternatives,
		})
	}

	if len(actions) == 0 {
		msg := s.Message
		if msg == "" {
			msg = def.Title
		}
		actions = append(actions, models.OverlayAction{
			Selector:     RootSelector,
			ActionType:   models.ActionTooltip,
			Message:      msg,
			Priority:     priorityFallback,
			Alternatives: []string{},
		})
	}

	tip := s.Tip
	if tip == "" {
		tip = def.Tip
	}
	if tip == "" {
		tip = def.Description
	}

	return models.Guidance{
		Actions:         actions,
		Tip:             tip,
		Explanation:     def.Title,
		Confidence:      KBConfidence,
		StepDescription: s.Message,
	}
}

// Missing is the guidance for a reference with no definition
func Missing(actionID string) models.Guidance {
	return models.Guidance{
		Actions: []models.OverlayAction{{
			Selector:     RootSelector,
			ActionType:   models.ActionHighlight,
			Message:      fmt.Sprintf("Proceed with %s", actionID),
			Priority:     priorityDefault,
			Alternatives: []string{},
		}},
		Confidence: FallbackConfidence,
	}
}

// Static is the last-resort guidance used when producing guidance failed
func Static(title string) models.Guidance {
	return models.Guidance{
		Actions: []models.OverlayAction{{
			Selector:     RootSelector,
			ActionType:   models.ActionTooltip,
			Message:      fmt.Sprintf("Continue with: %s", title),
			Priority:     priorityDefault,
			Alternatives: []string{},
			Position:     "top",
		}},
		Tip:         "Navigate to complete this step",
		Explanation: "We're here to help!",
		Confidence:  FallbackConfidence,
	}
}

// Decorate fills rendering hints the overlay client needs. Actions that
// already carry a position keep it.
func Decorate(g *models.Guidance) {
	for i := range g.Actions {
		a := &g.Actions[i]
		if a.Position == "" {
			a.Position = "bottom"
		}
		if a.Animation == "" {
			a.Animation = "fade"
			if a.ActionType == models.ActionClick || a.ActionType == models.ActionSubmit {
				a.Animation = "pulse"
			}
		}
		if a.Alternatives == nil {
			a.Alternatives = []string{}
		}
	}
}

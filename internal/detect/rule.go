// Package detect resolves which step of a task definition a user is on from
// a page snapshot.
package detect

import (
	"strings"

	"github.com/sadreammm/Helply/pkg/models"
)

// Input is everything a rule may inspect
type Input struct {
	Definition *models.TaskDefinition
	Snapshot   models.PageSnapshot
	// Stored is the persisted count of completed steps
	Stored int
	// TotalSteps is the task instance's step count; the completion sentinel
	TotalSteps int
	// ActionID is the task type or action reference being detected
	ActionID string
}

// Proposal is a rule's opinion on the current step. Complete means every
// step is satisfied, which is distinct from being on the last step.
type Proposal struct {
	Index    int
	Complete bool
}

// Rule proposes a step for a snapshot. Rules must tolerate missing fields
// and report ok=false when they have no opinion.
type Rule interface {
	Name() string
	Propose(in Input) (p Proposal, ok bool)
}

// RuleFunc adapts a function to the Rule interface
type RuleFunc struct {
	RuleName string
	Fn       func(in Input) (Proposal, bool)
}

func (r RuleFunc) Name() string { return r.RuleName }

func (r RuleFunc) Propose(in Input) (Proposal, bool) { return r.Fn(in) }

// StepRule walks steps in declared order and lets the first positive step
// win. For each step page_pattern is checked first and completion indicators
// second.
type StepRule struct{}

func (StepRule) Name() string { return "step" }

func (StepRule) Propose(in Input) (Proposal, bool) {
	url := strings.ToLower(in.Snapshot.URL)
	haystack := newHaystack(in.Snapshot)
	last := len(in.Definition.Steps) - 1
	for i, step := range in.Definition.Steps {
		if matchPattern(step.PagePattern, url) {
			return Proposal{Index: i}, true
		}
		if haystack.containsAny(step.CompletionIndicators) {
			return advancePast(i, last), true
		}
	}
	return Proposal{}, false
}

func advancePast(i, last int) Proposal {
	if i >= last {
		return Proposal{Index: last, Complete: true}
	}
	return Proposal{Index: i + 1}
}

func matchPattern(pattern, lowerURL string) bool {
	p := strings.ToLower(strings.ReplaceAll(pattern, "*", ""))
	if strings.TrimSpace(p) == "" || lowerURL == "" {
		return false
	}
	return strings.Contains(lowerURL, p)
}

type haystack struct {
	text string
	dom  []string
}

func newHaystack(s models.PageSnapshot) haystack {
	h := haystack{text: strings.ToLower(s.VisibleText), dom: make([]string, 0, len(s.DOMElements))}
	for _, el := range s.DOMElements {
		h.dom = append(h.dom, strings.ToLower(el))
	}
	return h
}

func (h haystack) containsAny(indicators []string) bool {
	for _, ind := range indicators {
		ind = strings.ToLower(strings.TrimSpace(ind))
		if ind == "" {
			continue
		}
		if strings.Contains(h.text, ind) {
			return true
		}
		for _, el := range h.dom {
			if strings.Contains(el, ind) {
				return true
			}
		}
	}
	return false
}

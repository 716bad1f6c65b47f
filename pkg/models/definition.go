package models

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ActionType describes how an overlay presents its target
type ActionType string

const (
	ActionHighlight ActionType = "highlight"
	ActionClick     ActionType = "click"
	ActionTypeText  ActionType = "type"
	ActionNavigate  ActionType = "navigate"
	ActionTooltip   ActionType = "tooltip"
	ActionArrow     ActionType = "arrow"
	ActionSubmit    ActionType = "submit"
)

// Valid reports whether a is one of the known action types
func (a ActionType) Valid() bool {
	switch a {
	case ActionHighlight, ActionClick, ActionTypeText, ActionNavigate, ActionTooltip, ActionArrow, ActionSubmit:
		return true
	}
	return false
}

// Platform groups the task definitions of one third-party site
type Platform struct {
	Key     string                     `yaml:"-" json:"key"` // Populated from map key
	Name    string                     `yaml:"name" json:"name"`
	Actions map[string]*TaskDefinition `yaml:"actions" json:"actions"`
}

// TaskDefinition is an immutable, ordered description of a guided workflow
type TaskDefinition struct {
	Platform    string           `yaml:"-" json:"platform"` // Populated from platform key
	Key         string           `yaml:"-" json:"key"`      // Populated from action key
	ID          string           `yaml:"id,omitempty" json:"id,omitempty"`
	Title       string           `yaml:"title" json:"title"`
	Description string           `yaml:"description,omitempty" json:"description,omitempty"`
	Tip         string           `yaml:"tip,omitempty" json:"tip,omitempty"`
	Steps       []StepDefinition `yaml:"steps" json:"steps"`
}

// ActionID returns the id field, falling back to the action key
func (d *TaskDefinition) ActionID() string {
	if d.ID != "" {
		return d.ID
	}
	return d.Key
}

// ClampStep bounds i to a valid step index. A definition without steps clamps to 0.
func (d *TaskDefinition) ClampStep(i int) int {
	if i >= len(d.Steps) {
		i = len(d.Steps) - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// Step returns the step at the clamped index and whether one exists
func (d *TaskDefinition) Step(i int) (StepDefinition, bool) {
	if len(d.Steps) == 0 {
		return StepDefinition{}, false
	}
	return d.Steps[d.ClampStep(i)], true
}

// StepDefinition is one stage of a task
type StepDefinition struct {
	Message              string     `yaml:"message" json:"message"`
	Action               ActionType `yaml:"action,omitempty" json:"action_type,omitempty"`
	Selectors            []Selector `yaml:"selectors,omitempty" json:"selectors,omitempty"`
	PagePattern          string     `yaml:"page_pattern,omitempty" json:"page_pattern,omitempty"`
	CompletionIndicators []string   `yaml:"completion_indicators,omitempty" json:"completion_indicators,omitempty"`
	Tip                  string     `yaml:"tip,omitempty" json:"tip,omitempty"`
}

// ActionType returns the declared action type, highlight when absent
func (s StepDefinition) ActionType() ActionType {
	if s.Action == "" {
		return ActionHighlight
	}
	return s.Action
}

// UnmarshalYAML accepts both "action" and "action_type" keys
func (s *StepDefinition) UnmarshalYAML(node *yaml.Node) error {
	type plain StepDefinition
	var raw struct {
		plain      `yaml:",inline"`
		ActionType ActionType `yaml:"action_type"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*s = StepDefinition(raw.plain)
	if s.Action == "" {
		s.Action = raw.ActionType
	}
	return nil
}

// Selector locates an overlay target on the page
type Selector struct {
	Locator      string   `yaml:"selector" json:"selector"`
	Message      string   `yaml:"message,omitempty" json:"message,omitempty"`
	Required     bool     `yaml:"required,omitempty" json:"required,omitempty"`
	Alternatives []string `yaml:"alternatives,omitempty" json:"alternatives,omitempty"`
}

// UnmarshalYAML accepts either a plain locator string or a mapping
func (s *Selector) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*s = Selector{Locator: node.Value}
		return nil
	case yaml.MappingNode:
		type plain Selector
		var p plain
		if err := node.Decode(&p); err != nil {
			return err
		}
		*s = Selector(p)
		return nil
	default:
		return fmt.Errorf("selector at line %d must be a string or mapping", node.Line)
	}
}

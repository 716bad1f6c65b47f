package detect

import "github.com/sadreammm/Helply/pkg/models"

// Detection is the resolved step. Index is always within the definition's
// steps; Complete marks that every step is satisfied.
type Detection struct {
	Index    int
	Complete bool
	// Rule names the rule that decided, "stored" for the fallback
	Rule string
}

// Resolved maps the detection onto the progress scale where total is the
// completion sentinel
func (d Detection) Resolved(total int) int {
	if d.Complete {
		return total
	}
	return d.Index
}

// Detector evaluates declarative rules first, platform overrides last and
// never moves progress backwards.
type Detector struct {
	rules     []Rule
	platforms *Registry
}

// NewDetector creates a detector. A nil registry disables platform overrides.
func NewDetector(platforms *Registry, rules ...Rule) *Detector {
	if len(rules) == 0 {
		rules = []Rule{StepRule{}}
	}
	return &Detector{rules: rules, platforms: platforms}
}

// Detect resolves the current step of def for snapshot. stored is the
// persisted steps_completed and total the task's step count (0 means the
// number of steps in def).
func (d *Detector) Detect(def *models.TaskDefinition, snapshot models.PageSnapshot, stored, total int, actionID string) Detection {
	if def == nil || len(def.Steps) == 0 {
		return Detection{Index: 0, Rule: "empty"}
	}
	last := len(def.Steps) - 1
	if total <= 0 {
		total = len(def.Steps)
	}
	if stored < 0 {
		stored = 0
	}
	in := Input{
		Definition: def,
		Snapshot:   snapshot,
		Stored:     stored,
		TotalSteps: total,
		ActionID:   actionID,
	}

	floor := Detection{Index: min(stored, last), Complete: stored >= total, Rule: "stored"}

	result := floor
	for _, rule := range d.rules {
		if p, ok := rule.Propose(in); ok {
			result = fromProposal(p, last, rule.Name())
			break
		}
	}

	for _, rule := range d.platforms.Rules(def.Platform) {
		if p, ok := rule.Propose(in); ok {
			result = fromProposal(p, last, rule.Name())
			break
		}
	}

	if !result.Complete && (floor.Complete || result.Index < floor.Index) {
		return floor
	}
	return result
}

func fromProposal(p Proposal, last int, rule string) Detection {
	if p.Complete {
		return Detection{Index: last, Complete: true, Rule: rule}
	}
	idx := p.Index
	if idx > last {
		idx = last
	}
	if idx < 0 {
		idx = 0
	}
	return Detection{Index: idx, Rule: rule}
}

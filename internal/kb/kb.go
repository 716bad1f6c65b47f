// Package kb holds the task definition knowledge base: the static table of
// platform workflows the matcher, detector and selector read from.
package kb

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sadreammm/Helply/pkg/models"
)

// ErrDefinitionNotFound is returned when no definition resolves for a reference
var ErrDefinitionNotFound = models.ErrDefinitionNotFound

// Document is the on-disk layout of the knowledge base
type Document struct {
	Aliases   map[string]string           `yaml:"aliases,omitempty"`
	Platforms map[string]*models.Platform `yaml:"platforms"`
}

// KB is an immutable, indexed knowledge base snapshot. It is safe for
// concurrent use without locking.
type KB struct {
	platforms map[string]*models.Platform
	aliases   map[string]string
	defs      []*models.TaskDefinition
}

// Parse decodes a YAML (or JSON) knowledge base document. Documents that list
// platforms at the top level without a "platforms" key are accepted too.
func Parse(data []byte) (*KB, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse knowledge base: %w", err)
	}

	if len(doc.Platforms) == 0 {
		var legacy map[string]*models.Platform
		if err := yaml.Unmarshal(data, &legacy); err == nil {
			delete(legacy, "aliases")
			delete(legacy, "platforms")
			doc.Platforms = legacy
		}
	}

	return New(doc), nil
}

// New indexes a document. Map keys are copied onto the platform and
// definition values.
func New(doc Document) *KB {
	k := &KB{
		platforms: make(map[string]*models.Platform, len(doc.Platforms)),
		aliases:   make(map[string]string, len(doc.Aliases)),
	}

	for alias, target := range doc.Aliases {
		k.aliases[strings.ToLower(alias)] = target
	}

	for pKey, p := range doc.Platforms {
		if p == nil {
			continue
		}
		pKey = strings.ToLower(pKey)
		p.Key = pKey
		if p.Name == "" {
			p.Name = pKey
		}
		for aKey, def := range p.Actions {
			if def == nil {
				delete(p.Actions, aKey)
				continue
			}
			def.Platform = pKey
			def.Key = aKey
			k.defs = append(k.defs, def)
		}
		k.platforms[pKey] = p
	}

	sort.Slice(k.defs, func(i, j int) bool {
		if k.defs[i].Platform != k.defs[j].Platform {
			return k.defs[i].Platform < k.defs[j].Platform
		}
		return k.defs[i].Key < k.defs[j].Key
	})

	return k
}

// Len returns the number of task definitions
func (k *KB) Len() int {
	return len(k.defs)
}

// List returns every definition ordered by platform key then action key
func (k *KB) List() []*models.TaskDefinition {
	out := make([]*models.TaskDefinition, len(k.defs))
	copy(out, k.defs)
	return out
}

// Platform returns a platform by key ("github.com" is accepted for "github")
func (k *KB) Platform(key string) (*models.Platform, bool) {
	p, ok := k.platforms[models.PlatformKey(key)]
	return p, ok
}

// Lookup returns the definition stored under the exact action key
func (k *KB) Lookup(platform, actionKey string) (*models.TaskDefinition, bool) {
	p, ok := k.Platform(platform)
	if !ok {
		return nil, false
	}
	def, ok := p.Actions[actionKey]
	return def, ok
}

// Resolve finds the definition for a task reference. Resolution order is
// fixed: exact action key, then id field, then the alias table, then a fuzzy
// substring match. Each stage searches the given platform before all others.
func (k *KB) Resolve(platform, ref string) (*models.TaskDefinition, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("empty reference: %w", ErrDefinitionNotFound)
	}
	platform = models.PlatformKey(platform)

	if def := k.direct(platform, ref); def != nil {
		return def, nil
	}

	if target, ok := k.aliases[strings.ToLower(ref)]; ok {
		if def := k.direct(platform, target); def != nil {
			return def, nil
		}
	}

	if def := k.fuzzy(platform, ref); def != nil {
		return def, nil
	}

	return nil, fmt.Errorf("%s/%s: %w", platform, ref, ErrDefinitionNotFound)
}

// direct runs the exact key and id field stages. A "platform.action" ref
// overrides the platform argument.
func (k *KB) direct(platform, ref string) *models.TaskDefinition {
	if p, a, ok := strings.Cut(ref, "."); ok {
		if def, found := k.Lookup(p, a); found {
			return def
		}
	}

	if def, ok := k.Lookup(platform, ref); ok {
		return def
	}
	for _, def := range k.defs {
		if def.Key == ref {
			return def
		}
	}

	for _, def := range k.ordered(platform) {
		if def.ID != "" && def.ID == ref {
			return def
		}
	}
	return nil
}

func (k *KB) fuzzy(platform, ref string) *models.TaskDefinition {
	needle := strings.ToLower(ref)
	if platform != "" {
		needle = strings.TrimPrefix(needle, platform+"_")
	}
	if len(needle) < 3 {
		return nil
	}

	for _, def := range k.ordered(platform) {
		for _, cand := range []string{strings.ToLower(def.Key), strings.ToLower(def.ID)} {
			if len(cand) < 3 {
				continue
			}
			if strings.Contains(cand, needle) || strings.Contains(needle, cand) {
				return def
			}
		}
	}
	return nil
}

// ordered returns the platform's definitions first, then the rest
func (k *KB) ordered(platform string) []*models.TaskDefinition {
	if platform == "" {
		return k.defs
	}
	out := make([]*models.TaskDefinition, 0, len(k.defs))
	for _, def := range k.defs {
		if def.Platform == platform {
			out = append(out, def)
		}
	}
	for _, def := range k.defs {
		if def.Platform != platform {
			out = append(out, def)
		}
	}
	return out
}

// Validate reports malformed definitions. Problems are warnings: malformed
// definitions still load and participate with defaulted fields.
func (k *KB) Validate() []string {
	var problems []string
	for _, def := range k.defs {
		name := def.Platform + "." + def.Key
		if def.Title == "" {
			problems = append(problems, fmt.Sprintf("%s: missing title", name))
		}
		if len(def.Steps) == 0 {
			problems = append(problems, fmt.Sprintf("%s: no steps", name))
		}
		for i, step := range def.Steps {
			if step.Action != "" && !step.Action.Valid() {
				problems = append(problems, fmt.Sprintf("%s: step %d: unknown action type %q", name, i, step.Action))
			}
			if step.Message == "" {
				problems = append(problems, fmt.Sprintf("%s: step %d: missing message", name, i))
			}
			for j, sel := range step.Selectors {
				if sel.Locator == "" {
					problems = append(problems, fmt.Sprintf("%s: step %d: selector %d has no locator", name, i, j))
				}
			}
		}
	}
	for alias, target := range k.aliases {
		if k.direct("", target) == nil {
			problems = append(problems, fmt.Sprintf("alias %s: target %s does not exist", alias, target))
		}
	}
	sort.Strings(problems)
	return problems
}

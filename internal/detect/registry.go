package detect

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/sadreammm/Helply/pkg/models"
)

// Registry holds platform-specific override rules in registration order
type Registry struct {
	mu         sync.RWMutex
	byPlatform map[string][]Rule
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{byPlatform: map[string][]Rule{}}
}

// DefaultRegistry returns a registry with the built-in platform rules
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister("github", GitHubRepositoryRule{})
	return r
}

// Register adds rule for platform. Names must be unique per platform.
func (r *Registry) Register(platform string, rule Rule) error {
	if rule == nil {
		return errors.New("rule is nil")
	}
	key := models.PlatformKey(platform)
	if key == "" {
		return errors.New("platform is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byPlatform[key] {
		if existing.Name() == rule.Name() {
			return fmt.Errorf("rule %q already registered for %s", rule.Name(), key)
		}
	}
	r.byPlatform[key] = append(r.byPlatform[key], rule)
	return nil
}

func (r *Registry) MustRegister(platform string, rule Rule) {
	if err := r.Register(platform, rule); err != nil {
		panic(err)
	}
}

// Rules returns the override rules for platform
func (r *Registry) Rules(platform string) []Rule {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rules := r.byPlatform[models.PlatformKey(platform)]
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Platforms lists platforms with at least one rule
func (r *Registry) Platforms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byPlatform))
	for p := range r.byPlatform {
		out = append(out, p)
	}
	return out
}

var reservedGitHubPaths = map[string]bool{
	"new": true, "repositories": true, "settings": true, "organizations": true,
	"orgs": true, "login": true, "signup": true, "explore": true,
	"marketplace": true, "notifications": true, "pulls": true, "issues": true,
	"codespaces": true,
}

// GitHubRepositoryRule recognises the repository creation flow from the URL
// alone. Landing on an owner/name page means the repository exists.
type GitHubRepositoryRule struct{}

func (GitHubRepositoryRule) Name() string { return "github_repository" }

func (GitHubRepositoryRule) Propose(in Input) (Proposal, bool) {
	url := strings.ToLower(strings.TrimSpace(in.Snapshot.URL))
	if !strings.Contains(url, "github.com") || !strings.Contains(strings.ToLower(in.ActionID), "repo") {
		return Proposal{}, false
	}

	parts := githubPath(url)
	if slices.Contains(parts, "new") {
		return Proposal{Index: max(in.Stored, 1)}, true
	}
	if len(parts) >= 2 && !reservedGitHubPaths[parts[0]] && !reservedGitHubPaths[parts[1]] {
		return Proposal{Complete: true}, true
	}
	return Proposal{}, false
}

func githubPath(url string) []string {
	url = strings.TrimPrefix(strings.TrimPrefix(url, "https://"), "http://")
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	var parts []string
	for _, p := range strings.Split(url, "/") {
		if p == "" || p == "github.com" || p == "www.github.com" {
			continue
		}
		parts = append(parts, p)
	}
	return parts
}

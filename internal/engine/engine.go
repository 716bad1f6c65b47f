// Package engine runs one guidance request end to end: it picks the task,
// detects the step, produces guidance and schedules the progress write.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/sadreammm/Helply/internal/config"
	"github.com/sadreammm/Helply/internal/detect"
	"github.com/sadreammm/Helply/internal/interfaces"
	"github.com/sadreammm/Helply/internal/intent"
	"github.com/sadreammm/Helply/internal/metrics"
	"github.com/sadreammm/Helply/internal/progress"
	"github.com/sadreammm/Helply/pkg/models"
)

// Matcher ranks task definitions for a free-text request
type Matcher interface {
	Match(query string, mctx intent.Context, topK int) []models.MatchResult
}

// Persister schedules progress writes behind the response
type Persister interface {
	Submit(ctx context.Context, task models.TaskInstance, d progress.Decision) bool
}

// Config wires the engine's collaborators. Generator may be nil, in which
// case guidance always comes from the knowledge base.
type Config struct {
	Tasks       interfaces.TaskStore
	Definitions interfaces.DefinitionStore
	Matcher     Matcher
	Detector    *detect.Detector
	Generator   interfaces.GuidanceGenerator
	Persister   Persister
	Settings    *config.Settings
	Metrics     *metrics.Metrics
}

func (c *Config) defaults() error {
	if c.Tasks == nil {
		return errors.New("task store is required")
	}
	if c.Definitions == nil {
		return errors.New("definition store is required")
	}
	if c.Persister == nil {
		return errors.New("persister is required")
	}
	if c.Matcher == nil {
		return errors.New("matcher is required")
	}
	if c.Detector == nil {
		c.Detector = detect.NewDetector(detect.DefaultRegistry())
	}
	if c.Settings == nil {
		c.Settings = config.NewSettings(false)
	}
	return nil
}

// Engine is safe for concurrent use
type Engine struct {
	tasks     interfaces.TaskStore
	defs      interfaces.DefinitionStore
	matcher   Matcher
	detector  *detect.Detector
	generator interfaces.GuidanceGenerator
	persister Persister
	settings  *config.Settings
	metrics   *metrics.Metrics
}

// New creates an engine
func New(cfg Config) (*Engine, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Engine{
		tasks:     cfg.Tasks,
		defs:      cfg.Definitions,
		matcher:   cfg.Matcher,
		detector:  cfg.Detector,
		generator: cfg.Generator,
		persister: cfg.Persister,
		settings:  cfg.Settings,
		metrics:   cfg.Metrics,
	}, nil
}

// Settings returns the runtime settings the engine reads
func (e *Engine) Settings() *config.Settings {
	return e.settings
}

// Generator returns the generative collaborator, nil when none is wired
func (e *Engine) Generator() interfaces.GuidanceGenerator {
	return e.generator
}

// Definitions returns the knowledge base the engine resolves against
func (e *Engine) Definitions() interfaces.DefinitionStore {
	return e.defs
}

// aiActive reports whether generative guidance should be attempted
func (e *Engine) aiActive() bool {
	return e.generator != nil && e.settings.AIEnabled()
}

package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"github.com/sadreammm/Helply/internal/metrics"
	"github.com/sadreammm/Helply/pkg/models"
)

// Store is the part of the task store the persister writes to
type Store interface {
	UpdateProgress(ctx context.Context, taskID, employeeID string, stepsCompleted int, status models.TaskStatus) error
	DeleteTask(ctx context.Context, taskID, employeeID string) error
}

// PersisterConfig configures a Persister
type PersisterConfig struct {
	Store Store
	// MaxInFlight bounds concurrent writes; extra writes wait in their goroutine
	MaxInFlight int
	// Timeout bounds each write
	Timeout time.Duration
	Metrics *metrics.Metrics
}

func (c *PersisterConfig) defaults() error {
	if c.Store == nil {
		return errors.New("store is required")
	}
	if c.MaxInFlight <= 0 {
		c.MaxInFlight = 8
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	return nil
}

// Persister applies reconcile decisions in the background. Callers never wait
// for the write. Writes for the same task are not serialised: two requests
// that both detect an advance both write, and the store keeps the last one.
type Persister struct {
	store   Store
	sem     chan struct{}
	timeout time.Duration
	metrics *metrics.Metrics
	wg      *conc.WaitGroup
}

// NewPersister creates a Persister
func NewPersister(cfg PersisterConfig) (*Persister, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Persister{
		store:   cfg.Store,
		sem:     make(chan struct{}, cfg.MaxInFlight),
		timeout: cfg.Timeout,
		metrics: cfg.Metrics,
		wg:      conc.NewWaitGroup(),
	}, nil
}

// Submit schedules the writes d asks for and returns immediately. Completion
// removes the task from the store instead of updating it.
func (p *Persister) Submit(ctx context.Context, task models.TaskInstance, d Decision) bool {
	if !d.ShouldPersist && !d.IsComplete {
		return false
	}
	// Detach from the request so the write outlives it, keeping log attributes.
	ctx = context.WithoutCancel(ctx)

	p.wg.Go(func() {
		var catcher panics.Catcher
		catcher.Try(func() { p.apply(ctx, task, d) })
		if r := catcher.Recovered(); r != nil {
			slog.ErrorContext(ctx, "progress write panicked", "task_id", task.ID, "error", r.AsError())
			p.metrics.Persist("panic", r.AsError())
		}
	})
	return true
}

func (p *Persister) apply(ctx context.Context, task models.TaskInstance, d Decision) {
	p.sem <- struct{}{}
	defer func() { <-p.sem }()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if d.IsComplete {
		err := p.store.DeleteTask(ctx, task.ID, task.EmployeeID)
		p.metrics.Persist("delete", err)
		if err != nil {
			slog.ErrorContext(ctx, "failed to remove completed task", "task_id", task.ID, "employee_id", task.EmployeeID, "error", err)
			return
		}
		slog.InfoContext(ctx, "task completed", "task_id", task.ID, "employee_id", task.EmployeeID)
		return
	}

	err := p.store.UpdateProgress(ctx, task.ID, task.EmployeeID, d.StepsCompleted, d.NewStatus)
	p.metrics.Persist("update", err)
	if err != nil {
		slog.ErrorContext(ctx, "failed to persist progress", "task_id", task.ID, "steps_completed", d.StepsCompleted, "error", err)
		return
	}
	slog.DebugContext(ctx, "progress persisted", "task_id", task.ID, "from", task.StepsCompleted, "to", d.StepsCompleted)
}

// Wait blocks until every submitted write has finished
func (p *Persister) Wait() {
	p.wg.Wait()
}

// Package progress decides whether detected progress should be persisted and
// performs those writes behind the response.
package progress

import "github.com/sadreammm/Helply/pkg/models"

// Decision is the outcome of comparing a resolved step with stored progress
type Decision struct {
	ShouldPersist  bool
	IsComplete     bool
	NewStatus      models.TaskStatus
	StepsCompleted int
}

// Reconcile compares resolved, on the scale where task.TotalSteps means
// complete, with task.StepsCompleted. Only strict advances are persisted.
func Reconcile(task models.TaskInstance, resolved int) Decision {
	d := Decision{
		ShouldPersist:  resolved > task.StepsCompleted,
		IsComplete:     resolved >= task.TotalSteps,
		NewStatus:      models.StatusInProgress,
		StepsCompleted: task.StepsCompleted,
	}
	if d.ShouldPersist {
		d.StepsCompleted = resolved
	}
	if d.IsComplete {
		d.NewStatus = models.StatusCompleted
	}
	return d
}

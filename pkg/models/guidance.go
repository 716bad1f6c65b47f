package models

import "sort"

// GuidanceRequest is the input to a generative guidance model
type GuidanceRequest struct {
	TaskTitle       string
	TaskDescription string
	Page            PageSnapshot
	StepNumber      int // 1-based
	TotalSteps      int
}

// Intent is a generative model's reading of a free-text request
type Intent struct {
	Intent     string  `json:"intent"`
	Platform   string  `json:"platform"`
	Action     string  `json:"action"`
	Confidence float64 `json:"confidence"`
}

// SortTasks orders tasks with in-progress ones first, then by priority
// (lower is more urgent). The sort is stable.
func SortTasks(tasks []TaskInstance) {
	sort.SliceStable(tasks, func(i, j int) bool {
		pi, pj := tasks[i].Status == StatusInProgress, tasks[j].Status == StatusInProgress
		if pi != pj {
			return pi
		}
		return tasks[i].Priority < tasks[j].Priority
	})
}

// FilterStatus keeps tasks whose status is in statuses. No statuses means
// the active set.
func FilterStatus(tasks []TaskInstance, statuses ...TaskStatus) []TaskInstance {
	if len(statuses) == 0 {
		statuses = ActiveStatuses
	}
	out := make([]TaskInstance, 0, len(tasks))
	for _, t := range tasks {
		for _, s := range statuses {
			if t.Status == s {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

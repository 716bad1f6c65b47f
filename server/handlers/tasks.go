package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sadreammm/Helply/pkg/cerr"
	"github.com/sadreammm/Helply/pkg/models"
)

func (h *Handlers) EmployeeTasks(w http.ResponseWriter, r *http.Request) {
	emp, tasks, err := h.engine.EmployeeTasks(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		cerr.SetJSONError(r.Context(), err)
		return
	}
	cerr.SetJSONResponse(r.Context(), map[string]any{
		"employee": emp,
		"tasks":    tasks,
	})
}

// EmployeeTask returns the task the employee should work on at current_url
func (h *Handlers) EmployeeTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EmployeeID string `json:"employee_id"`
		CurrentURL string `json:"current_url"`
	}
	if !decode(w, r, &req) {
		return
	}
	emp, task, err := h.engine.TaskForURL(r.Context(), req.EmployeeID, req.CurrentURL)
	if err != nil {
		cerr.SetJSONError(r.Context(), err)
		return
	}
	if task == nil {
		cerr.SetJSONResponse(r.Context(), map[string]any{
			"has_active_task": false,
			"employee":        emp,
			"message":         "No active task for this website",
		})
		return
	}
	cerr.SetJSONResponse(r.Context(), map[string]any{
		"has_active_task": true,
		"employee":        emp,
		"task":            task,
	})
}

func (h *Handlers) TaskProgress(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TaskID        string `json:"task_id"`
		EmployeeID    string `json:"employee_id"`
		StepCompleted int    `json:"step_completed"`
	}
	if !decode(w, r, &req) {
		return
	}
	status, err := h.engine.SubmitProgress(r.Context(), req.TaskID, req.EmployeeID, req.StepCompleted)
	if err != nil {
		cerr.SetJSONError(r.Context(), err)
		return
	}
	cerr.SetJSONResponse(r.Context(), map[string]any{
		"success": true,
		"status":  status,
	})
}

func (h *Handlers) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req models.NewTask
	if !decode(w, r, &req) {
		return
	}
	id, err := h.engine.CreateTask(r.Context(), req)
	if err != nil {
		cerr.SetJSONError(r.Context(), err)
		return
	}
	cerr.SetJSONResponseWithStatus(r.Context(), http.StatusCreated, map[string]any{
		"success": true,
		"task_id": id,
		"message": fmt.Sprintf("Task '%s' created", req.Title),
	})
}

func (h *Handlers) DeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	if err := h.engine.DeleteTask(r.Context(), taskID, r.URL.Query().Get("employee_id")); err != nil {
		cerr.SetJSONError(r.Context(), err)
		return
	}
	cerr.SetJSONResponse(r.Context(), map[string]any{
		"success": true,
		"message": fmt.Sprintf("Task %s deleted", taskID),
	})
}

func (h *Handlers) KBActions(w http.ResponseWriter, r *http.Request) {
	cerr.SetJSONResponse(r.Context(), map[string]any{
		"actions": h.engine.Actions(),
	})
}

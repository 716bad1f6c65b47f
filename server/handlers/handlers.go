package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sadreammm/Helply/internal/engine"
	"github.com/sadreammm/Helply/pkg/cerr"
	"github.com/sadreammm/Helply/pkg/models"
)

// maxBodyBytes bounds request bodies; page snapshots carry visible text
const maxBodyBytes = 1 << 20

type Config struct {
	Engine  *engine.Engine
	Version string
}

type Handlers struct {
	engine  *engine.Engine
	version string
}

func New(cfg Config) *Handlers {
	return &Handlers{
		engine:  cfg.Engine,
		version: cfg.Version,
	}
}

// Routes mounts every endpoint on r
func (h *Handlers) Routes(r chi.Router) {
	r.Get("/", h.Home)
	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Post("/guidance", h.Guidance)

		r.Post("/chat/parse-task", h.ParseTask)
		r.Post("/chat/create-task", h.CreateTaskFromChat)

		r.Post("/ai/toggle", h.ToggleAI)
		r.Get("/ai/status", h.AIStatus)

		r.Get("/employees/{employeeID}/tasks", h.EmployeeTasks)
		r.Post("/employee/task", h.EmployeeTask)

		r.Post("/task/progress", h.TaskProgress)
		r.Post("/task/create", h.CreateTask)
		r.Delete("/task/{taskID}", h.DeleteTask)

		r.Get("/kb/actions", h.KBActions)

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			cerr.SetNewJSONError(r.Context(), cerr.NotFound, "not found", nil)
		})
	})
}

// Home describes the service
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	settings := h.engine.Settings()
	resp := map[string]any{
		"message":     "Helply onboarding assistant",
		"version":     h.version,
		"features":    []string{"AI Guidance", "KB Fallback", "CRM Integration", "Step Detection"},
		"ai_enabled":  settings.AIEnabled(),
		"ai_provider": nil,
	}
	if settings.AIEnabled() {
		resp["ai_provider"] = "gemini"
	}
	cerr.SetJSONResponse(r.Context(), resp)
}

// HealthCheck reports liveness and whether the knowledge base is loaded
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	cerr.SetJSONResponse(r.Context(), map[string]any{
		"status":    "ok",
		"kb_loaded": h.engine.Definitions().Loaded(),
	})
}

// Guidance returns overlay guidance for a page snapshot
func (h *Handlers) Guidance(w http.ResponseWriter, r *http.Request) {
	var req engine.GuidanceRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.engine.Guide(r.Context(), req)
	if err != nil {
		cerr.SetJSONError(r.Context(), err)
		return
	}
	cerr.SetJSONResponse(r.Context(), resp)
}

func (h *Handlers) ParseTask(w http.ResponseWriter, r *http.Request) {
	var req engine.ParseRequest
	if !decode(w, r, &req) {
		return
	}
	cerr.SetJSONResponse(r.Context(), h.engine.ParseTask(r.Context(), req))
}

func (h *Handlers) CreateTaskFromChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EmployeeID string             `json:"employee_id"`
		Task       *engine.ParsedTask `json:"task"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.EmployeeID == "" || req.Task == nil {
		cerr.SetNewJSONError(r.Context(), cerr.InvalidArgument, "missing employee_id or task data", models.ErrNotValid)
		return
	}
	id, err := h.engine.CreateFromChat(r.Context(), req.EmployeeID, *req.Task)
	if err != nil {
		cerr.SetJSONError(r.Context(), err)
		return
	}
	cerr.SetJSONResponse(r.Context(), map[string]any{
		"success": true,
		"task_id": id,
		"message": "Task created! Starting guidance...",
	})
}

func (h *Handlers) ToggleAI(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled *bool `json:"enabled"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Enabled == nil {
		cerr.SetNewJSONError(r.Context(), cerr.InvalidArgument, "enabled is required", models.ErrNotValid)
		return
	}
	on := *req.Enabled
	if err := h.engine.Settings().SetAIEnabled(r.Context(), on); err != nil {
		slog.WarnContext(r.Context(), "failed to persist AI toggle", "error", err)
	}
	state := "disabled"
	if on {
		state = "enabled"
	}
	cerr.SetJSONResponse(r.Context(), map[string]any{
		"ai_enabled": on,
		"message":    fmt.Sprintf("AI guidance %s", state),
	})
}

func (h *Handlers) AIStatus(w http.ResponseWriter, r *http.Request) {
	gen := h.engine.Generator()
	model := ""
	if gen != nil {
		model = gen.Model()
	}
	cerr.SetJSONResponse(r.Context(), map[string]any{
		"ai_enabled":         h.engine.Settings().AIEnabled(),
		"provider":           "gemini",
		"model":              model,
		"engine_initialized": gen != nil,
		"kb_loaded":          h.engine.Definitions().Loaded(),
	})
}

// decode reads a JSON body into v. On failure the error response is already
// queued and false is returned.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		msg := "invalid request body"
		if errors.Is(err, io.EOF) {
			msg = "request body is required"
		}
		cerr.SetNewJSONError(r.Context(), cerr.InvalidArgument, msg, err)
		return false
	}
	return true
}

// Package handlers provides HTTP handlers for the web interface.
package handlers

import (
	"embed"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/alienxp03/council/internal/core"
	"github.com/alienxp03/council/internal/engine"
	"github.com/alienxp03/council/internal/export"
	"github.com/alienxp03/council/internal/persona"
)

//go:embed templates/index.html
var templateFS embed.FS

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	engine   *engine.Engine
	personas *persona.Store
}

// New creates a new Handler.
func New(eng *engine.Engine, personas *persona.Store) *Handler {
	return &Handler{
		engine:   eng,
		personas: personas,
	}
}

// Routes builds the HTTP router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/personas", h.handleListPersonas)
		r.Post("/personas", h.handleCreatePersona)
		r.Patch("/personas/{id}", h.handleUpdatePersona)
		r.Post("/personas/{id}/toggle", h.handleTogglePersona)
		r.Delete("/personas/{id}", h.handleDeletePersona)
		r.Post("/personas/reset", h.handleResetPersonas)

		r.Get("/turns", h.handleListTurns)
		r.Post("/turns", h.handleSubmitTurn)
		r.Post("/debate", h.handleTriggerDebate)

		r.Get("/export/{format}", h.handleExport)
		r.Get("/stream", h.handleStream)
	})

	r.Get("/", h.handleIndex)
	return r
}

// Page handler

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := templateFS.ReadFile("templates/index.html")
	if err != nil {
		slog.Error("Failed to read embedded page", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

// Persona handlers

func (h *Handler) handleListPersonas(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.personas.List())
}

func (h *Handler) handleCreatePersona(w http.ResponseWriter, r *http.Request) {
	var p core.Persona
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if err := h.personas.Add(p); err != nil {
		if errors.Is(err, persona.ErrValidation) {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		slog.Error("Failed to add persona", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to add persona")
		return
	}

	respondJSON(w, http.StatusCreated, h.personas.List())
}

type personaUpdateRequest struct {
	Name                *string `json:"name"`
	Role                *string `json:"role"`
	StyleTag            *string `json:"style_tag"`
	BehaviorInstruction *string `json:"behavior_instruction"`
	IsActive            *bool   `json:"is_active"`
}

func (h *Handler) handleUpdatePersona(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req personaUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	h.personas.Update(id, persona.Update{
		Name:                req.Name,
		Role:                req.Role,
		StyleTag:            req.StyleTag,
		BehaviorInstruction: req.BehaviorInstruction,
		IsActive:            req.IsActive,
	})
	respondJSON(w, http.StatusOK, h.personas.List())
}

func (h *Handler) handleTogglePersona(w http.ResponseWriter, r *http.Request) {
	h.personas.ToggleActive(chi.URLParam(r, "id"))
	respondJSON(w, http.StatusOK, h.personas.List())
}

func (h *Handler) handleDeletePersona(w http.ResponseWriter, r *http.Request) {
	h.personas.Remove(chi.URLParam(r, "id"))
	respondJSON(w, http.StatusOK, h.personas.List())
}

func (h *Handler) handleResetPersonas(w http.ResponseWriter, r *http.Request) {
	h.personas.ResetToDefaults()
	respondJSON(w, http.StatusOK, h.personas.List())
}

// Turn handlers

// TurnView is a turn with its recorded responses and failures.
type TurnView struct {
	*core.Turn
	Responses map[string]string `json:"responses"`
	Failures  map[string]string `json:"failures,omitempty"`
	Complete  bool              `json:"complete"`
}

func (h *Handler) turnViews() []TurnView {
	turns := h.engine.Turns()
	views := make([]TurnView, 0, len(turns))
	for _, t := range turns {
		views = append(views, TurnView{
			Turn:      t,
			Responses: h.engine.Responses(t.ID),
			Failures:  h.engine.Failures(t.ID),
			Complete:  h.engine.IsComplete(t.ID),
		})
	}
	return views
}

func (h *Handler) handleListTurns(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.turnViews())
}

type submitTurnRequest struct {
	Text string `json:"text"`
}

func (h *Handler) handleSubmitTurn(w http.ResponseWriter, r *http.Request) {
	var req submitTurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	turn, err := h.engine.SubmitUserTurn(req.Text)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrEmptyPrompt):
			respondError(w, http.StatusUnprocessableEntity, "Prompt must not be empty")
		case errors.Is(err, engine.ErrNoActivePersona):
			respondError(w, http.StatusConflict, "Activate at least one persona to chat")
		default:
			slog.Error("Failed to submit turn", "error", err)
			respondError(w, http.StatusInternalServerError, "Failed to submit turn")
		}
		return
	}

	respondJSON(w, http.StatusCreated, turn)
}

func (h *Handler) handleTriggerDebate(w http.ResponseWriter, r *http.Request) {
	turn, err := h.engine.TriggerDebate()
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrNoTurns):
			respondError(w, http.StatusConflict, "Nothing to debate yet")
		case errors.Is(err, engine.ErrTurnNotComplete):
			respondError(w, http.StatusConflict, "Wait for all responses before debating")
		case errors.Is(err, engine.ErrDepthReached):
			respondError(w, http.StatusConflict, "Debate depth limit reached")
		default:
			slog.Error("Failed to trigger debate", "error", err)
			respondError(w, http.StatusInternalServerError, "Failed to trigger debate")
		}
		return
	}

	respondJSON(w, http.StatusCreated, turn)
}

// Export handler

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	format := export.Format(chi.URLParam(r, "format"))
	exporter, err := export.GetExporter(format)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	session := &export.Session{
		ExportedAt: time.Now(),
		Personas:   h.personas.List(),
		Turns:      h.engine.Turns(),
		Responses:  make(map[string]map[string]string),
	}
	for _, t := range session.Turns {
		session.Responses[t.ID] = h.engine.Responses(t.ID)
	}

	filename := export.GenerateFilename(session, exporter.FileExtension())
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	switch format {
	case export.FormatJSON:
		w.Header().Set("Content-Type", "application/json")
	case export.FormatPDF:
		w.Header().Set("Content-Type", "application/pdf")
	default:
		w.Header().Set("Content-Type", "text/markdown")
	}

	if err := exporter.Export(session, w); err != nil {
		slog.Error("Failed to export session", "format", format, "error", err)
	}
}

// JSON helpers

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"roast/pkg/roast"
)

// version is set via -ldflags at build time
var version = "dev"

// SetVersion sets the version string (called from main).
func SetVersion(v string) {
	version = v
}

// Response types

// HealthResponse is the response for /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// VersionResponse is the response for /version.
type VersionResponse struct {
	Version string `json:"version"`
	Service string `json:"service"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// PersonaResponse represents a persona in API responses.
type PersonaResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Focus       string `json:"focus"`
	Description string `json:"description,omitempty"`
}

// RoastResponse summarizes a completed run.
type RoastResponse struct {
	RunID      string              `json:"run_id"`
	Topic      string              `json:"topic"`
	Stopped    string              `json:"stopped"`
	Iterations []IterationResponse `json:"iterations"`
}

// IterationResponse is one iteration's bookkeeping.
type IterationResponse struct {
	Iteration      int    `json:"iteration"`
	Findings       int    `json:"findings"`
	New            int    `json:"new"`
	Recurring      int    `json:"recurring"`
	ReportPath     string `json:"report_path"`
	ScreenshotPath string `json:"screenshot_path"`
}

// ReportContentResponse carries a rendered report.
type ReportContentResponse struct {
	Topic     string `json:"topic"`
	Iteration int    `json:"iteration"`
	Markdown  string `json:"markdown"`
}

// Handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{
		Version: version,
		Service: "roast-service",
	})
}

func (s *Server) handleListPersonas(w http.ResponseWriter, r *http.Request) {
	personas := s.registry.List()
	response := make([]PersonaResponse, 0, len(personas))

	for _, p := range personas {
		response = append(response, PersonaResponse{
			ID:          p.ID,
			Name:        p.Name,
			Focus:       p.Focus,
			Description: p.Description,
		})
	}

	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleGetPersona(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, ok := s.registry.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Persona not found")
		return
	}

	writeJSON(w, http.StatusOK, PersonaResponse{
		ID:          p.ID,
		Name:        p.Name,
		Focus:       p.Focus,
		Description: p.Description,
	})
}

func (s *Server) handleRoast(w http.ResponseWriter, r *http.Request) {
	var req RoastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.URL == "" && req.ImagePath == "" {
		writeError(w, http.StatusBadRequest, "url or image_path is required")
		return
	}
	if _, err := roast.ParseFixMode(req.FixMode); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.runner.Roast(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response := RoastResponse{
		RunID:   result.RunID,
		Topic:   result.Topic,
		Stopped: result.Stopped,
	}
	for _, iter := range result.Iterations {
		response.Iterations = append(response.Iterations, IterationResponse{
			Iteration:      iter.Number,
			Findings:       len(iter.Findings),
			New:            iter.New,
			Recurring:      iter.Recurring,
			ReportPath:     iter.ReportPath,
			ScreenshotPath: iter.ScreenshotPath,
		})
	}

	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	infos, err := s.workdir.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list reports: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	topic := chi.URLParam(r, "topic")

	iteration, err := strconv.Atoi(chi.URLParam(r, "iteration"))
	if err != nil || iteration < 1 {
		writeError(w, http.StatusBadRequest, "Invalid iteration")
		return
	}

	content, err := s.workdir.ReadReport(topic, iteration)
	if err != nil {
		writeError(w, http.StatusNotFound, "Report not found")
		return
	}

	writeJSON(w, http.StatusOK, ReportContentResponse{
		Topic:     topic,
		Iteration: iteration,
		Markdown:  content,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

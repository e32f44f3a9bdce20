package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/avana/avana/internal/export"
	"github.com/avana/avana/internal/extract"
	"github.com/avana/avana/internal/metrics"
)

// csvFilename is the download name of the selected list
const csvFilename = "avana_selected_emails.csv"

// ExtractRequest is the request body for POST /extract
type ExtractRequest struct {
	Text         string   `json:"text"`
	MaxPerDomain *int     `json:"max_per_domain,omitempty"`
	Keywords     []string `json:"keywords,omitempty"`   // null = configured defaults, [] = no keywords
	KeywordsRaw  *string  `json:"keywords_raw,omitempty"` // comma separated, overrides keywords
}

// ExtractResponse is the response for POST /extract
type ExtractResponse struct {
	RunID    string                 `json:"run_id"`
	Summary  extract.Summary        `json:"summary"`
	Domains  []extract.DomainReport `json:"domains"`
	Selected []extract.Entry        `json:"selected"`
	Skipped  []string               `json:"skipped"`
}

// HealthResponse is the response for GET /health
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// ErrorResponse is the error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// handleExtract handles POST /api/v1/extract
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	runID, res, ok := s.runExtraction(w, r)
	if !ok {
		return
	}

	s.sendJSON(w, http.StatusOK, ExtractResponse{
		RunID:    runID,
		Summary:  res.Summary,
		Domains:  res.Domains,
		Selected: res.Selected,
		Skipped:  res.Skipped,
	})
}

// handleExtractCSV handles POST /api/v1/extract/csv
func (s *Server) handleExtractCSV(w http.ResponseWriter, r *http.Request) {
	runID, res, ok := s.runExtraction(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+csvFilename+`"`)
	w.Header().Set("X-Run-ID", runID)
	w.WriteHeader(http.StatusOK)

	if err := export.WriteCSV(w, res.Selected); err != nil {
		s.logger.Error("failed to write csv", "run_id", runID, "error", err)
	}
}

// runExtraction decodes the request and runs the pipeline. On failure the
// error response is already written and ok is false.
func (s *Server) runExtraction(w http.ResponseWriter, r *http.Request) (runID string, res *extract.Result, ok bool) {
	if s.maxInput > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxInput)
	}

	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.sendError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return "", nil, false
		}
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return "", nil, false
	}

	// The core treats empty text as an empty result; the API asks for input instead
	if req.Text == "" {
		s.sendError(w, http.StatusBadRequest, "text is required")
		return "", nil, false
	}

	opts, err := s.resolveOptions(&req)
	if err != nil {
		s.sendError(w, http.StatusBadRequest, err.Error())
		return "", nil, false
	}

	runID = uuid.New().String()
	start := time.Now()
	res = extract.Run(req.Text, opts)
	elapsed := time.Since(start)

	metrics.ObserveRun("api", res.Summary, elapsed)

	s.logger.Info("extraction completed",
		"run_id", runID,
		"unique", res.Summary.UniqueTotal,
		"selected", res.Summary.SelectedCount,
		"skipped", res.Summary.SkippedCount,
		"domains", res.Summary.DomainCount,
		"duration", elapsed,
	)

	return runID, res, true
}

// resolveOptions merges request overrides into the configured defaults
func (s *Server) resolveOptions(req *ExtractRequest) (extract.Options, error) {
	opts := extract.Options{
		MaxPerDomain: s.defaults.MaxPerDomain,
		Keywords:     s.defaults.Keywords,
	}

	if req.MaxPerDomain != nil {
		opts.MaxPerDomain = *req.MaxPerDomain
	}
	if req.Keywords != nil {
		opts.Keywords = req.Keywords
	}
	if req.KeywordsRaw != nil {
		opts.Keywords = extract.ParseKeywords(*req.KeywordsRaw)
	}

	if err := opts.Validate(); err != nil {
		return extract.Options{}, err
	}
	return opts.Normalize(), nil
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: s.version,
		Uptime:  time.Since(s.startTime).String(),
	})
}

// sendJSON sends a JSON response
func (s *Server) sendJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// sendError sends an error response
func (s *Server) sendError(w http.ResponseWriter, status int, message string) {
	s.sendJSON(w, status, ErrorResponse{Error: message})
}

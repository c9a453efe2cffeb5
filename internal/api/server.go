// Package api serves the event drafting engine over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/eventdraft/internal/classify"
	"github.com/sells-group/eventdraft/internal/fusion"
	"github.com/sells-group/eventdraft/internal/gaps"
	"github.com/sells-group/eventdraft/internal/model"
	"github.com/sells-group/eventdraft/internal/orchestrator"
)

// maxBodyBytes bounds request bodies; base64 flyer images dominate.
const maxBodyBytes = 20 << 20

// Deps are the components the handlers call.
type Deps struct {
	Orchestrator   *orchestrator.Orchestrator
	Gaps           *gaps.Analyzer
	Fusion         *fusion.Config
	Metrics        http.Handler
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// Server holds the router.
type Server struct {
	deps   Deps
	router chi.Router
}

// New builds the router.
func New(deps Deps) *Server {
	if deps.Gaps == nil {
		deps.Gaps = gaps.New(nil)
	}
	if deps.Fusion == nil {
		deps.Fusion = fusion.NewDefaultConfig()
	}
	if len(deps.AllowedOrigins) == 0 {
		deps.AllowedOrigins = []string{"*"}
	}
	if deps.RequestTimeout <= 0 {
		deps.RequestTimeout = 2 * time.Minute
	}

	s := &Server{deps: deps, router: chi.NewRouter()}
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(deps.RequestTimeout))
		r.Post("/parse", s.handleParse)
		r.Get("/progress", s.handleProgress)
		r.Get("/latest", s.handleLatest)
		r.Post("/gaps", s.handleGaps)
		r.Post("/infer", s.handleInfer)
		r.Post("/edit", s.handleEdit)
	})
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ParseRequest is the body of POST /v1/parse.
type ParseRequest struct {
	Sources   []model.DataSourceInput `json:"sources"`
	Parallel  *bool                   `json:"parallel,omitempty"`
	Strategy  string                  `json:"strategy,omitempty"`
	Threshold *float64                `json:"threshold,omitempty"`
	Previous  *model.EventDraft       `json:"previous,omitempty"`
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	if !decode(w, r, &req) {
		return
	}
	if len(req.Sources) == 0 {
		writeError(w, http.StatusBadRequest, "at least one source is required")
		return
	}

	opts := orchestrator.RunOptions{Parallel: true, Previous: req.Previous}
	if req.Parallel != nil {
		opts.Parallel = *req.Parallel
	}
	if req.Strategy != "" || req.Threshold != nil {
		cfg, err := s.deps.Fusion.Override(req.Strategy, req.Threshold)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		opts.Fusion = fusion.New(cfg)
	}

	resp, err := s.deps.Orchestrator.Run(r.Context(), req.Sources, opts)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, resp)
	case errors.Is(err, orchestrator.ErrNoSources):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, orchestrator.ErrAllSourcesFailed):
		writeJSON(w, http.StatusUnprocessableEntity, resp)
	case errors.Is(err, orchestrator.ErrStaleRun):
		writeJSON(w, http.StatusConflict, resp)
	default:
		zap.L().Error("api: parse failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) handleProgress(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Orchestrator.Progress())
}

func (s *Server) handleLatest(w http.ResponseWriter, _ *http.Request) {
	latest := s.deps.Orchestrator.Latest()
	if latest == nil {
		writeError(w, http.StatusNotFound, "no completed run")
		return
	}
	writeJSON(w, http.StatusOK, latest)
}

// GapsRequest is the body of POST /v1/gaps.
type GapsRequest struct {
	Draft *model.EventDraft `json:"draft"`
}

func (s *Server) handleGaps(w http.ResponseWriter, r *http.Request) {
	var req GapsRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Gaps.Analyze(req.Draft))
}

// InferRequest is the body of POST /v1/infer.
type InferRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

func (s *Server) handleInfer(w http.ResponseWriter, r *http.Request) {
	var req InferRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	writeJSON(w, http.StatusOK, classify.Infer(req.Title, req.Description))
}

// EditRequest is the body of POST /v1/edit.
type EditRequest struct {
	Draft *model.EventDraft `json:"draft"`
	Field model.FieldName   `json:"field"`
	Value string            `json:"value"`
}

// EditResponse returns the edited draft with a fresh gap analysis.
type EditResponse struct {
	Draft       *model.EventDraft        `json:"draft"`
	GapAnalysis *model.GapAnalysisResult `json:"gap_analysis"`
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	var req EditRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Draft == nil {
		req.Draft = &model.EventDraft{}
	}
	if !req.Draft.ApplyManualEdit(req.Field, req.Value) {
		writeError(w, http.StatusBadRequest, "unknown field "+string(req.Field))
		return
	}
	writeJSON(w, http.StatusOK, EditResponse{Draft: req.Draft, GapAnalysis: s.deps.Gaps.Analyze(req.Draft)})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

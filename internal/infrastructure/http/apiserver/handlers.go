package apiserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/platewise/v2/internal/domain/plan"
	"github.com/platewise/v2/internal/ports/inbound"
	apperrors "github.com/platewise/v2/pkg/errors"
	"go.uber.org/zap"
)

// Request DTOs

type generatePlanRequest struct {
	Profile plan.UserProfile `json:"profile"`
	Plan    planRequestDTO   `json:"plan"`
}

type planRequestDTO struct {
	Name              string   `json:"name"`
	Preferences       []string `json:"preferences"`
	CustomRequirement string   `json:"custom_requirement"`
	WeekStart         string   `json:"week_start"`
}

type regenerateMealRequest struct {
	Profile     plan.UserProfile `json:"profile"`
	Meal        plan.Meal        `json:"meal"`
	Requirement string           `json:"requirement"`
}

func (d planRequestDTO) toDomain() (plan.PlanRequest, error) {
	req := plan.PlanRequest{
		Name:              d.Name,
		Preferences:       d.Preferences,
		CustomRequirement: d.CustomRequirement,
	}
	if d.Name == "" {
		return req, fmt.Errorf("plan name is required")
	}
	if d.WeekStart != "" {
		t, err := parseDate(d.WeekStart)
		if err != nil {
			return req, fmt.Errorf("week_start: %w", err)
		}
		req.WeekStart = t
	}
	return req, nil
}

// handleGeneratePlan produces a complete weekly plan. The response is
// always a structurally valid 28-meal plan; degraded generations carry
// "source": "fallback".
func (s *Server) handleGeneratePlan(w http.ResponseWriter, r *http.Request) {
	var body generatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, apperrors.Wrap(err, apperrors.CodeBadRequest, "invalid request body"))
		return
	}
	req, err := body.Plan.toDomain()
	if err != nil {
		s.writeError(w, apperrors.Wrap(err, apperrors.CodeValidationFailed, "invalid plan request"))
		return
	}

	p, err := s.planService.GeneratePlan(r.Context(), body.Profile, req)
	if err != nil {
		s.logger.Error("plan generation returned unexpected error", zap.Error(err))
		s.writeError(w, apperrors.New(apperrors.CodeInternal, "plan generation failed"))
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

// handleRegenerateMeal replaces one meal. Unlike full-plan generation this
// can fail visibly; the failure reason is reported without internals.
func (s *Server) handleRegenerateMeal(w http.ResponseWriter, r *http.Request) {
	var body regenerateMealRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, apperrors.Wrap(err, apperrors.CodeBadRequest, "invalid request body"))
		return
	}
	if body.Meal.Name == "" || !body.Meal.Day.IsValid() || !body.Meal.Type.IsValid() {
		s.writeError(w, apperrors.New(apperrors.CodeValidationFailed, "meal with valid day and meal_type is required"))
		return
	}

	m, err := s.planService.RegenerateMeal(r.Context(), body.Profile, body.Meal, body.Requirement)
	if err != nil {
		s.logger.Warn("meal regeneration failed", zap.Error(err))
		s.writeError(w, apperrors.New(apperrors.CodeGenerationFailed, "could not generate a suitable replacement meal"))
		return
	}
	s.writeJSON(w, http.StatusOK, m)
}

// handleGeneratePlanStream streams progressive generation events over
// server-sent events, one event per line in day order, ending with the
// completed plan.
func (s *Server) handleGeneratePlanStream(w http.ResponseWriter, r *http.Request) {
	var body generatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, apperrors.Wrap(err, apperrors.CodeBadRequest, "invalid request body"))
		return
	}
	req, err := body.Plan.toDomain()
	if err != nil {
		s.writeError(w, apperrors.Wrap(err, apperrors.CodeValidationFailed, "invalid plan request"))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, apperrors.New(apperrors.CodeInternal, "streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	writeEvent := func(ev inbound.ProgressEvent) {
		payload, err := json.Marshal(ev)
		if err != nil {
			s.logger.Warn("failed to encode progress event", zap.Error(err))
			return
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Stage, payload)
		flusher.Flush()
	}

	if _, err := s.planService.GeneratePlanProgress(r.Context(), body.Profile, req, writeEvent); err != nil {
		s.logger.Error("progressive generation returned unexpected error", zap.Error(err))
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, appErr *apperrors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode())
	_ = json.NewEncoder(w).Encode(map[string]any{"error": appErr})
}

func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD or RFC 3339, got %q", value)
	}
	return t, nil
}

// Package planner implements the plan generation pipeline: prompt
// construction, model invocation, response recovery, validation and the
// static fallback supply.
package planner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/platewise/v2/internal/domain/plan"
	"github.com/platewise/v2/internal/infrastructure/monitoring"
	"github.com/platewise/v2/internal/ports/inbound"
	"github.com/platewise/v2/internal/ports/outbound"
	"go.uber.org/zap"
)

// Strategy selects how a weekly plan is fetched from the model.
type Strategy string

const (
	// StrategySingleShot asks for the whole week in one call. Cheapest,
	// but a long completion risks truncation.
	StrategySingleShot Strategy = "single"
	// StrategyPerDay asks for one day (four meals) per call, passing the
	// names of earlier meals along to reduce duplication.
	StrategyPerDay Strategy = "per-day"
	// StrategyPerMeal asks for one meal per call. Slowest and most
	// robust; also the last-resort tier when another strategy fails.
	StrategyPerMeal Strategy = "per-meal"
)

// IsValid reports whether s is a known strategy.
func (s Strategy) IsValid() bool {
	switch s {
	case StrategySingleShot, StrategyPerDay, StrategyPerMeal:
		return true
	}
	return false
}

// Config holds the pipeline settings for one Service instance.
type Config struct {
	Strategy Strategy
	// Model is the primary model configuration.
	Model string
	// FallbackModel, when set, is a cheaper configuration attempted once
	// if the primary configuration fails outright.
	FallbackModel string
	Temperature   float64
	MaxTokens     int
	Stream        bool
	// Timeout bounds each model invocation.
	Timeout time.Duration
	// InterCallDelay is a politeness pause between sequential calls in
	// the chunked strategies. Not a correctness requirement.
	InterCallDelay time.Duration
	// CalorieDelta bounds how far a regenerated meal's calories may
	// drift from the original.
	CalorieDelta int
}

// PlanCache stores model-validated plans keyed by the generation inputs.
// Implementations live in the infrastructure layer; fallback plans are
// never stored.
type PlanCache interface {
	GetPlan(ctx context.Context, key string) (*plan.DietPlan, bool)
	StorePlan(ctx context.Context, key string, p *plan.DietPlan)
}

// Service is the generation pipeline. Each call is independent; the
// service owns no per-request mutable state.
type Service struct {
	config    Config
	textGen   outbound.TextGenerator
	recoverer Recoverer
	cache     PlanCache
	metrics   *monitoring.PipelineMetrics
	logger    *zap.Logger
}

var _ inbound.PlanService = (*Service)(nil)

// NewService creates a generation pipeline. The text generator is a
// required dependency; cache and metrics may be nil.
func NewService(cfg Config, textGen outbound.TextGenerator, cache PlanCache, metrics *monitoring.PipelineMetrics, logger *zap.Logger) (*Service, error) {
	if textGen == nil {
		return nil, errors.New("planner: text generator is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("planner: primary model is required")
	}
	if !cfg.Strategy.IsValid() {
		return nil, fmt.Errorf("planner: unknown strategy %q", cfg.Strategy)
	}
	if cfg.Timeout <= 0 {
		return nil, errors.New("planner: timeout must be positive")
	}
	if cfg.CalorieDelta <= 0 {
		cfg.CalorieDelta = 50
	}
	return &Service{
		config:    cfg,
		textGen:   textGen,
		recoverer: BraceRecoverer{},
		cache:     cache,
		metrics:   metrics,
		logger:    logger.Named("planner"),
	}, nil
}

// GeneratePlan produces a complete weekly plan. Expected failure modes
// (service errors, timeouts, malformed output, validation failures) are
// recovered by supplying the deterministic fallback plan, so the call
// only errors for programmer mistakes.
func (s *Service) GeneratePlan(ctx context.Context, profile plan.UserProfile, req plan.PlanRequest) (*plan.DietPlan, error) {
	p, err := s.generate(ctx, profile, req, nil)
	if err != nil {
		s.logger.Warn("plan generation failed, supplying fallback plan",
			zap.String("plan", req.Name),
			zap.String("failure", failureKind(err)),
			zap.Error(err))
		s.metrics.RecordGeneration("fallback")
		s.metrics.RecordFailure(failureKind(err))
		fb := FallbackPlan(req)
		fb.Strategy = string(s.config.Strategy)
		return fb, nil
	}
	s.metrics.RecordGeneration("valid")
	return p, nil
}

// GeneratePlanProgress generates a plan one day at a time, reporting
// progress in week order. If the day-by-day pass fails, generation
// degrades to the per-meal tier and then to the fallback plan; in that
// case day events are re-emitted from Monday for the replacement plan,
// and the terminal completed event always carries the authoritative plan.
// The plan cache is shared with GeneratePlan: a cached plan for the same
// inputs is replayed as day events without touching the model.
func (s *Service) GeneratePlanProgress(ctx context.Context, profile plan.UserProfile, req plan.PlanRequest, onProgress func(inbound.ProgressEvent)) (*plan.DietPlan, error) {
	emit := func(ev inbound.ProgressEvent) {
		if onProgress != nil {
			onProgress(ev)
		}
	}
	emit(inbound.ProgressEvent{Stage: inbound.StageStarted})

	key := cacheKey(profile, req, s.config)
	if s.cache != nil {
		if cached, ok := s.cache.GetPlan(ctx, key); ok {
			s.metrics.RecordCacheHit()
			s.logger.Debug("plan served from cache", zap.String("key", key))
			emitWeek(cached, emit)
			emit(inbound.ProgressEvent{Stage: inbound.StageCompleted, Plan: cached})
			return cached, nil
		}
	}

	p, err := s.generatePerDay(ctx, profile, req, onProgress)
	if err != nil {
		s.logger.Warn("progressive day-by-day generation failed, retrying one meal at a time",
			zap.String("failure", failureKind(err)), zap.Error(err))
		p, err = s.generatePerMeal(ctx, profile, req)
		if err != nil {
			s.metrics.RecordGeneration("fallback")
			s.metrics.RecordFailure(failureKind(err))
			p = FallbackPlan(req)
			p.Strategy = string(StrategyPerDay)
		} else {
			s.metrics.RecordGeneration("valid")
		}
		emitWeek(p, emit)
	} else {
		s.metrics.RecordGeneration("valid")
	}

	if s.cache != nil && p.Source == plan.SourceModel {
		s.cache.StorePlan(ctx, key, p)
	}

	emit(inbound.ProgressEvent{Stage: inbound.StageCompleted, Plan: p})
	return p, nil
}

// emitWeek replays a finished plan as day events in week order, used when
// the plan did not come from a live day-by-day pass.
func emitWeek(p *plan.DietPlan, emit func(inbound.ProgressEvent)) {
	for _, d := range plan.Days() {
		emit(inbound.ProgressEvent{Stage: inbound.StageDayStarted, Day: d})
		emit(inbound.ProgressEvent{Stage: inbound.StageDayCompleted, Day: d, Meals: p.MealsForDay(d)})
	}
}

// RegenerateMeal produces a replacement meal. There is no safe static
// substitute for "similar but different", so failures propagate to the
// caller as one descriptive error.
func (s *Service) RegenerateMeal(ctx context.Context, profile plan.UserProfile, original plan.Meal, requirement string) (*plan.Meal, error) {
	prompt := buildRegeneratePrompt(profile, original, requirement, s.config.CalorieDelta)

	content, model, err := s.invoke(ctx, prompt)
	if err != nil {
		s.metrics.RecordFailure(failureKind(err))
		return nil, fmt.Errorf("meal regeneration: %w", err)
	}

	doc, err := s.recoverer.Extract(content)
	if err != nil {
		s.metrics.RecordFailure(failureKind(err))
		return nil, fmt.Errorf("meal regeneration: %w", err)
	}

	meals, err := decodeMeals(doc)
	if err != nil {
		s.metrics.RecordFailure(failureKind(err))
		return nil, fmt.Errorf("meal regeneration: %w", err)
	}
	if len(meals) != 1 {
		err := validationErrf(nil, "expected 1 replacement meal, got %d", len(meals))
		s.metrics.RecordFailure(failureKind(err))
		return nil, fmt.Errorf("meal regeneration: %w", err)
	}

	replacement := meals[0]
	replacement.Day = original.Day
	replacement.Type = original.Type

	if delta := replacement.Calories - original.Calories; delta > s.config.CalorieDelta || delta < -s.config.CalorieDelta {
		err := validationErrf(nil, "replacement calories %d outside +/-%d of original %d",
			replacement.Calories, s.config.CalorieDelta, original.Calories)
		s.metrics.RecordFailure(failureKind(err))
		return nil, fmt.Errorf("meal regeneration: %w", err)
	}
	if strings.EqualFold(replacement.Name, original.Name) {
		err := validationErr("replacement meal name is not different from the original", nil)
		s.metrics.RecordFailure(failureKind(err))
		return nil, fmt.Errorf("meal regeneration: %w", err)
	}
	if strings.EqualFold(strings.TrimSpace(replacement.Description), strings.TrimSpace(original.Description)) {
		err := validationErr("replacement meal description is not different from the original", nil)
		s.metrics.RecordFailure(failureKind(err))
		return nil, fmt.Errorf("meal regeneration: %w", err)
	}

	s.logger.Info("meal regenerated",
		zap.String("day", string(original.Day)),
		zap.String("meal_type", string(original.Type)),
		zap.String("model", model),
		zap.Int("calories", replacement.Calories))
	return &replacement, nil
}

// generate runs the configured strategy, degrading to the per-meal tier
// before giving up.
func (s *Service) generate(ctx context.Context, profile plan.UserProfile, req plan.PlanRequest, onProgress func(inbound.ProgressEvent)) (*plan.DietPlan, error) {
	key := cacheKey(profile, req, s.config)
	if s.cache != nil {
		if cached, ok := s.cache.GetPlan(ctx, key); ok {
			s.metrics.RecordCacheHit()
			s.logger.Debug("plan served from cache", zap.String("key", key))
			return cached, nil
		}
	}

	var p *plan.DietPlan
	var err error
	switch s.config.Strategy {
	case StrategySingleShot:
		p, err = s.generateSingleShot(ctx, profile, req)
	case StrategyPerDay:
		p, err = s.generatePerDay(ctx, profile, req, onProgress)
	case StrategyPerMeal:
		p, err = s.generatePerMeal(ctx, profile, req)
	default:
		return nil, fmt.Errorf("planner: unknown strategy %q", s.config.Strategy)
	}

	if err != nil && s.config.Strategy != StrategyPerMeal {
		s.logger.Warn("strategy failed, retrying one meal at a time",
			zap.String("strategy", string(s.config.Strategy)),
			zap.String("failure", failureKind(err)),
			zap.Error(err))
		s.metrics.RecordFailure(failureKind(err))
		p, err = s.generatePerMeal(ctx, profile, req)
	}
	if err != nil {
		return nil, err
	}

	if s.cache != nil && p.Source == plan.SourceModel {
		s.cache.StorePlan(ctx, key, p)
	}
	return p, nil
}

// failureKind maps a pipeline error onto its taxonomy bucket for logs
// and metrics.
func failureKind(err error) string {
	var ve *ValidationError
	switch {
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed_response"
	case errors.As(err, &ve):
		return "validation"
	case errors.Is(err, ErrServiceUnavailable):
		return "service_unavailable"
	default:
		return "internal"
	}
}

// cacheKey hashes the generation inputs that determine a plan's content.
func cacheKey(profile plan.UserProfile, req plan.PlanRequest, cfg Config) string {
	payload, _ := json.Marshal(struct {
		Profile  plan.UserProfile `json:"profile"`
		Request  plan.PlanRequest `json:"request"`
		Strategy Strategy         `json:"strategy"`
		Model    string           `json:"model"`
	}{profile, req, cfg.Strategy, cfg.Model})
	sum := sha256.Sum256(payload)
	return "plan:" + hex.EncodeToString(sum[:])
}

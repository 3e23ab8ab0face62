package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/platewise/v2/internal/domain/plan"
	"github.com/platewise/v2/internal/ports/inbound"
	"go.uber.org/zap"
)

// generateSingleShot fetches the whole week in one model call.
func (s *Service) generateSingleShot(ctx context.Context, profile plan.UserProfile, req plan.PlanRequest) (*plan.DietPlan, error) {
	content, model, err := s.invoke(ctx, buildPlanPrompt(profile, req))
	if err != nil {
		return nil, err
	}
	doc, err := s.recoverer.Extract(content)
	if err != nil {
		return nil, err
	}
	p, err := decodePlan(doc, req, model, string(StrategySingleShot))
	if err != nil {
		return nil, err
	}
	s.logger.Info("plan generated",
		zap.String("strategy", string(StrategySingleShot)),
		zap.String("model", model),
		zap.Int("meals", len(p.Meals)))
	return p, nil
}

// generatePerDay fetches the plan one day at a time in week order,
// threading the names of earlier meals through later prompts to avoid
// duplication. onProgress, when set, receives day events as they happen.
func (s *Service) generatePerDay(ctx context.Context, profile plan.UserProfile, req plan.PlanRequest, onProgress func(inbound.ProgressEvent)) (*plan.DietPlan, error) {
	p := plan.NewDietPlan(req.Name, planDescription(profile, req), req.WeekStart)
	p.Source = plan.SourceModel
	p.Strategy = string(StrategyPerDay)

	var avoid []string
	for i, day := range plan.Days() {
		if i > 0 {
			if err := s.pause(ctx); err != nil {
				return nil, err
			}
		}
		if onProgress != nil {
			onProgress(inbound.ProgressEvent{Stage: inbound.StageDayStarted, Day: day})
		}

		content, model, err := s.invoke(ctx, buildDayPrompt(profile, req, day, avoid))
		if err != nil {
			return nil, fmt.Errorf("day %s: %w", day, err)
		}
		doc, err := s.recoverer.Extract(content)
		if err != nil {
			return nil, fmt.Errorf("day %s: %w", day, err)
		}
		meals, err := decodeMeals(doc)
		if err != nil {
			return nil, fmt.Errorf("day %s: %w", day, err)
		}
		if err := checkDayCoverage(day, meals); err != nil {
			return nil, fmt.Errorf("day %s: %w", day, err)
		}

		p.Meals = append(p.Meals, meals...)
		p.Model = model
		for _, m := range meals {
			avoid = append(avoid, m.Name)
		}
		if onProgress != nil {
			onProgress(inbound.ProgressEvent{Stage: inbound.StageDayCompleted, Day: day, Meals: meals})
		}
	}

	p.Normalize()
	if err := p.Validate(); err != nil {
		return nil, validationErr("plan invariants not satisfied", err)
	}
	p.Sort()
	s.logger.Info("plan generated",
		zap.String("strategy", string(StrategyPerDay)),
		zap.String("model", p.Model),
		zap.Int("meals", len(p.Meals)))
	return p, nil
}

// generatePerMeal fetches one meal per call, 28 calls in slot order. The
// most robust tier: a single truncated response only loses one meal's
// worth of work.
func (s *Service) generatePerMeal(ctx context.Context, profile plan.UserProfile, req plan.PlanRequest) (*plan.DietPlan, error) {
	p := plan.NewDietPlan(req.Name, planDescription(profile, req), req.WeekStart)
	p.Source = plan.SourceModel
	p.Strategy = string(StrategyPerMeal)

	var avoid []string
	first := true
	for _, day := range plan.Days() {
		for _, mealType := range plan.MealTypes() {
			if !first {
				if err := s.pause(ctx); err != nil {
					return nil, err
				}
			}
			first = false

			content, model, err := s.invoke(ctx, buildMealPrompt(profile, req, day, mealType, avoid))
			if err != nil {
				return nil, fmt.Errorf("meal %s %s: %w", day, mealType, err)
			}
			doc, err := s.recoverer.Extract(content)
			if err != nil {
				return nil, fmt.Errorf("meal %s %s: %w", day, mealType, err)
			}
			meals, err := decodeMeals(doc)
			if err != nil {
				return nil, fmt.Errorf("meal %s %s: %w", day, mealType, err)
			}
			if len(meals) != 1 {
				return nil, validationErrf(nil, "meal %s %s: expected 1 meal, got %d", day, mealType, len(meals))
			}
			m := meals[0]
			if m.Day != day || m.Type != mealType {
				return nil, validationErrf(nil, "meal %s %s: model answered for slot %s %s", day, mealType, m.Day, m.Type)
			}

			p.Meals = append(p.Meals, m)
			p.Model = model
			avoid = append(avoid, m.Name)
		}
	}

	p.Normalize()
	if err := p.Validate(); err != nil {
		return nil, validationErr("plan invariants not satisfied", err)
	}
	p.Sort()
	s.logger.Info("plan generated",
		zap.String("strategy", string(StrategyPerMeal)),
		zap.String("model", p.Model),
		zap.Int("meals", len(p.Meals)))
	return p, nil
}

// checkDayCoverage verifies one day's batch: four meals, all on the
// requested day, each meal type exactly once.
func checkDayCoverage(day plan.Day, meals []plan.Meal) error {
	if len(meals) != plan.MealsPerDay {
		return validationErrf(nil, "%d of %d meals present", len(meals), plan.MealsPerDay)
	}
	seen := make(map[plan.MealType]bool, plan.MealsPerDay)
	for _, m := range meals {
		if m.Day != day {
			return validationErrf(nil, "meal %q planned for %s, want %s", m.Name, m.Day, day)
		}
		if seen[m.Type] {
			return validationErrf(plan.ErrDuplicateSlot, "meal type %s appears twice", m.Type)
		}
		seen[m.Type] = true
	}
	return nil
}

// pause waits the configured inter-call delay, honoring cancellation.
func (s *Service) pause(ctx context.Context) error {
	if s.config.InterCallDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(s.config.InterCallDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("canceled between calls: %w", ErrTimeout)
	}
}

func planDescription(profile plan.UserProfile, req plan.PlanRequest) string {
	prefs := req.CombinedPreferences(profile)
	if len(prefs) == 0 {
		return "A personalized 7-day diet plan."
	}
	return fmt.Sprintf("A personalized 7-day diet plan (%d preference tags applied).", len(prefs))
}

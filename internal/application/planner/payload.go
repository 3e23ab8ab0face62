package planner

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/platewise/v2/internal/domain/plan"
)

// Wire types for parsed model payloads. Numeric fields are pointers so a
// missing value is distinguishable from zero and rejected instead of
// silently coerced.

type planPayload struct {
	Description string        `json:"description"`
	Meals       []mealPayload `json:"meals"`
}

type mealPayload struct {
	Day          string   `json:"day"`
	MealType     string   `json:"meal_type"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Calories     *float64 `json:"calories"`
	Protein      *float64 `json:"protein_g"`
	Carbs        *float64 `json:"carbs_g"`
	Fat          *float64 `json:"fat_g"`
	Fiber        *float64 `json:"fiber_g"`
	Ingredients  []string `json:"ingredients"`
	Instructions string   `json:"instructions"`
	PrepMinutes  *float64 `json:"prep_time_minutes"`
	CookMinutes  *float64 `json:"cook_time_minutes"`
	Servings     *float64 `json:"servings"`
}

// decodePlan turns a recovered JSON document into a validated, normalized
// DietPlan. The input is known to be syntactically valid JSON; any shape
// or invariant problem is a ValidationError.
func decodePlan(jsonStr string, req plan.PlanRequest, model, strategy string) (*plan.DietPlan, error) {
	var payload planPayload
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		return nil, validationErr("payload shape does not match plan schema", err)
	}

	// Cheap pre-check before the strict pass: a short meals array gives a
	// clearer, cheaper-to-diagnose error than a per-meal walk.
	if len(payload.Meals) < plan.MealsPerWeek {
		return nil, validationErrf(plan.ErrIncompletePlan, "%d of %d meals present", len(payload.Meals), plan.MealsPerWeek)
	}

	p := plan.NewDietPlan(req.Name, payload.Description, req.WeekStart)
	p.Model = model
	p.Strategy = strategy
	p.Source = plan.SourceModel
	for i, mp := range payload.Meals {
		m, err := convertMeal(mp)
		if err != nil {
			return nil, validationErrf(err, "meal %d (%s %s)", i, mp.Day, mp.MealType)
		}
		p.Meals = append(p.Meals, m)
	}

	p.Normalize()
	if err := p.Validate(); err != nil {
		return nil, validationErr("plan invariants not satisfied", err)
	}
	p.Sort()
	return p, nil
}

// decodeMeals decodes a payload holding part of a plan: either an object
// with a "meals" array or a bare array of meals. Used by the per-day and
// per-meal strategies; a single object decodes as a one-element slice.
func decodeMeals(jsonStr string) ([]plan.Meal, error) {
	trimmed := strings.TrimSpace(jsonStr)

	var payloads []mealPayload
	switch {
	case strings.HasPrefix(trimmed, "["):
		if err := json.Unmarshal([]byte(trimmed), &payloads); err != nil {
			return nil, validationErr("payload shape does not match meal array schema", err)
		}
	default:
		var wrapper planPayload
		if err := json.Unmarshal([]byte(trimmed), &wrapper); err != nil {
			return nil, validationErr("payload shape does not match meal schema", err)
		}
		if wrapper.Meals != nil {
			payloads = wrapper.Meals
		} else {
			var single mealPayload
			if err := json.Unmarshal([]byte(trimmed), &single); err != nil {
				return nil, validationErr("payload shape does not match meal schema", err)
			}
			payloads = []mealPayload{single}
		}
	}

	meals := make([]plan.Meal, 0, len(payloads))
	for i, mp := range payloads {
		m, err := convertMeal(mp)
		if err != nil {
			return nil, validationErrf(err, "meal %d (%s %s)", i, mp.Day, mp.MealType)
		}
		m.Normalize()
		if err := m.Validate(); err != nil {
			return nil, validationErrf(err, "meal %d (%s %s)", i, mp.Day, mp.MealType)
		}
		meals = append(meals, m)
	}
	return meals, nil
}

// convertMeal maps a wire meal onto the domain type, rounding calories,
// timings and servings to integers. Missing numerics are rejected.
func convertMeal(mp mealPayload) (plan.Meal, error) {
	for _, field := range []struct {
		name  string
		value *float64
	}{
		{"calories", mp.Calories},
		{"protein_g", mp.Protein},
		{"carbs_g", mp.Carbs},
		{"fat_g", mp.Fat},
		{"fiber_g", mp.Fiber},
		{"prep_time_minutes", mp.PrepMinutes},
		{"cook_time_minutes", mp.CookMinutes},
		{"servings", mp.Servings},
	} {
		if field.value == nil {
			return plan.Meal{}, fmt.Errorf("missing numeric field %q", field.name)
		}
	}

	return plan.Meal{
		ID:           uuid.New(),
		Day:          plan.Day(strings.ToUpper(strings.TrimSpace(mp.Day))),
		Type:         plan.MealType(strings.ToUpper(strings.TrimSpace(mp.MealType))),
		Name:         strings.TrimSpace(mp.Name),
		Description:  strings.TrimSpace(mp.Description),
		Calories:     int(math.Round(*mp.Calories)),
		Protein:      *mp.Protein,
		Carbs:        *mp.Carbs,
		Fat:          *mp.Fat,
		Fiber:        *mp.Fiber,
		Ingredients:  mp.Ingredients,
		Instructions: strings.TrimSpace(mp.Instructions),
		PrepMinutes:  int(math.Round(*mp.PrepMinutes)),
		CookMinutes:  int(math.Round(*mp.CookMinutes)),
		Servings:     int(math.Round(*mp.Servings)),
	}, nil
}

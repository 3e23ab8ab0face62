package plan

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
)

// Plausibility bounds for meal nutrition. Values outside these ranges are
// rejected rather than coerced.
const (
	MinCalories = 50
	MaxCalories = 2000

	MaxProteinGrams = 200
	MaxCarbsGrams   = 500
	MaxFatGrams     = 250
	MaxFiberGrams   = 150

	MaxPrepMinutes = 360
	MaxCookMinutes = 360
	MaxServings    = 16

	// MinInstructionsLen rejects near-empty instruction text.
	MinInstructionsLen = 20
)

// Meal is a single planned meal for one (day, meal type) slot.
type Meal struct {
	ID           uuid.UUID `json:"id"`
	Day          Day       `json:"day"`
	Type         MealType  `json:"meal_type"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Calories     int       `json:"calories"`
	Protein      float64   `json:"protein_g"`
	Carbs        float64   `json:"carbs_g"`
	Fat          float64   `json:"fat_g"`
	Fiber        float64   `json:"fiber_g"`
	Ingredients  []string  `json:"ingredients"`
	Instructions string    `json:"instructions"`
	PrepMinutes  int       `json:"prep_time_minutes"`
	CookMinutes  int       `json:"cook_time_minutes"`
	Servings     int       `json:"servings"`
}

// Validate checks the meal against the domain invariants.
func (m Meal) Validate() error {
	if !m.Day.IsValid() {
		return fmt.Errorf("day %q: %w", m.Day, ErrInvalidDay)
	}
	if !m.Type.IsValid() {
		return fmt.Errorf("meal type %q: %w", m.Type, ErrInvalidMealType)
	}
	if strings.TrimSpace(m.Name) == "" {
		return ErrEmptyName
	}
	if m.Calories < MinCalories || m.Calories > MaxCalories {
		return fmt.Errorf("calories %d not in [%d, %d]: %w", m.Calories, MinCalories, MaxCalories, ErrCaloriesOutOfRange)
	}
	for _, macro := range []struct {
		name  string
		value float64
		max   float64
	}{
		{"protein", m.Protein, MaxProteinGrams},
		{"carbs", m.Carbs, MaxCarbsGrams},
		{"fat", m.Fat, MaxFatGrams},
		{"fiber", m.Fiber, MaxFiberGrams},
	} {
		if macro.value < 0 || macro.value > macro.max {
			return fmt.Errorf("%s %.1fg not in [0, %.0f]: %w", macro.name, macro.value, macro.max, ErrMacroOutOfRange)
		}
	}
	if len(m.Ingredients) == 0 {
		return ErrNoIngredients
	}
	for _, ing := range m.Ingredients {
		if strings.TrimSpace(ing) == "" {
			return fmt.Errorf("blank ingredient entry: %w", ErrNoIngredients)
		}
	}
	if len(strings.TrimSpace(m.Instructions)) < MinInstructionsLen {
		return fmt.Errorf("instructions %d chars, need %d: %w", len(strings.TrimSpace(m.Instructions)), MinInstructionsLen, ErrInstructionsTooShort)
	}
	if m.PrepMinutes < 0 || m.PrepMinutes > MaxPrepMinutes || m.CookMinutes < 0 || m.CookMinutes > MaxCookMinutes {
		return fmt.Errorf("prep %dm cook %dm: %w", m.PrepMinutes, m.CookMinutes, ErrInvalidTiming)
	}
	if m.Servings < 1 || m.Servings > MaxServings {
		return fmt.Errorf("servings %d: %w", m.Servings, ErrInvalidServings)
	}
	return nil
}

// Normalize rounds macro grams to one decimal place. Integer fields are
// already integers, so applying Normalize twice yields the same meal.
func (m *Meal) Normalize() {
	m.Protein = roundTenth(m.Protein)
	m.Carbs = roundTenth(m.Carbs)
	m.Fat = roundTenth(m.Fat)
	m.Fiber = roundTenth(m.Fiber)
}

// Slot identifies the (day, meal type) combination this meal fills.
func (m Meal) Slot() Slot {
	return Slot{Day: m.Day, Type: m.Type}
}

// Slot is a (day, meal type) position within a weekly plan.
type Slot struct {
	Day  Day
	Type MealType
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

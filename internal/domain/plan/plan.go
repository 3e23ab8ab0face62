// Package plan contains the core domain model for weekly diet plans:
// meals, the 7x4 weekly plan aggregate and the invariants both must satisfy.
package plan

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// MealsPerDay is the number of meal slots in a single day.
const MealsPerDay = 4

// MealsPerWeek is the number of meals a complete weekly plan must contain,
// one per (day, meal type) combination.
const MealsPerWeek = 7 * MealsPerDay

// DietPlan is a complete weekly diet plan: exactly one meal for every
// (day, meal type) combination.
type DietPlan struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	WeekStart   time.Time  `json:"week_start"`
	Meals       []Meal     `json:"meals"`
	Source      PlanSource `json:"source"`
	Model       string     `json:"model,omitempty"`
	Strategy    string     `json:"strategy,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewDietPlan creates an empty plan shell with identity and timestamps set.
// Meals are appended by the generation pipeline before Validate.
func NewDietPlan(name, description string, weekStart time.Time) *DietPlan {
	return &DietPlan{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		WeekStart:   weekStart,
		Meals:       make([]Meal, 0, MealsPerWeek),
		CreatedAt:   time.Now().UTC(),
	}
}

// Validate checks the full-coverage invariant: exactly MealsPerWeek meals,
// each (day, meal type) combination present exactly once, every meal valid.
func (p *DietPlan) Validate() error {
	if len(p.Meals) != MealsPerWeek {
		return fmt.Errorf("%d of %d meals present: %w", len(p.Meals), MealsPerWeek, ErrIncompletePlan)
	}
	seen := make(map[Slot]bool, MealsPerWeek)
	for _, m := range p.Meals {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("meal %s %s: %w", m.Day, m.Type, err)
		}
		slot := m.Slot()
		if seen[slot] {
			return fmt.Errorf("slot %s %s: %w", slot.Day, slot.Type, ErrDuplicateSlot)
		}
		seen[slot] = true
	}
	// len check plus uniqueness over valid enums implies full coverage,
	// but report the first missing slot explicitly for diagnostics.
	for _, d := range days {
		for _, t := range mealTypes {
			if !seen[Slot{Day: d, Type: t}] {
				return fmt.Errorf("missing %s %s: %w", d, t, ErrIncompletePlan)
			}
		}
	}
	return nil
}

// Normalize normalizes every meal in the plan. Idempotent.
func (p *DietPlan) Normalize() {
	for i := range p.Meals {
		p.Meals[i].Normalize()
	}
}

// Sort orders meals by day of week, then by meal type within the day.
func (p *DietPlan) Sort() {
	sort.SliceStable(p.Meals, func(i, j int) bool {
		a, b := p.Meals[i], p.Meals[j]
		if a.Day != b.Day {
			return a.Day.Index() < b.Day.Index()
		}
		return a.Type.Index() < b.Type.Index()
	})
}

// MealFor returns the meal filling the given slot, if present.
func (p *DietPlan) MealFor(day Day, mealType MealType) (Meal, bool) {
	for _, m := range p.Meals {
		if m.Day == day && m.Type == mealType {
			return m, true
		}
	}
	return Meal{}, false
}

// MealsForDay returns the meals planned for one day in meal type order.
func (p *DietPlan) MealsForDay(day Day) []Meal {
	out := make([]Meal, 0, MealsPerDay)
	for _, t := range mealTypes {
		if m, ok := p.MealFor(day, t); ok {
			out = append(out, m)
		}
	}
	return out
}

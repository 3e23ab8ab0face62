package plan

import "errors"

// Domain errors for diet plan invariants

var (
	// Meal invariant errors
	ErrInvalidDay           = errors.New("day must be one of the seven week days")
	ErrInvalidMealType      = errors.New("meal type must be breakfast, lunch, dinner or snack")
	ErrEmptyName            = errors.New("meal name is required")
	ErrCaloriesOutOfRange   = errors.New("calories outside plausible bounds")
	ErrMacroOutOfRange      = errors.New("macro grams outside plausible bounds")
	ErrNoIngredients        = errors.New("meal must have at least one ingredient")
	ErrInstructionsTooShort = errors.New("meal instructions are too short")
	ErrInvalidTiming        = errors.New("prep and cook times must be non-negative minutes")
	ErrInvalidServings      = errors.New("servings must be greater than 0")

	// Plan invariant errors
	ErrIncompletePlan = errors.New("plan does not cover every day and meal type exactly once")
	ErrDuplicateSlot  = errors.New("duplicate day and meal type combination in plan")
)

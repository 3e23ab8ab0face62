package plan

// Day is a day of the week a meal is planned for.
type Day string

const (
	DayMonday    Day = "MONDAY"
	DayTuesday   Day = "TUESDAY"
	DayWednesday Day = "WEDNESDAY"
	DayThursday  Day = "THURSDAY"
	DayFriday    Day = "FRIDAY"
	DaySaturday  Day = "SATURDAY"
	DaySunday    Day = "SUNDAY"
)

var days = [...]Day{
	DayMonday,
	DayTuesday,
	DayWednesday,
	DayThursday,
	DayFriday,
	DaySaturday,
	DaySunday,
}

// Days returns all days in week order, Monday first.
func Days() []Day {
	out := make([]Day, len(days))
	copy(out, days[:])
	return out
}

// IsValid reports whether d is one of the seven known days.
func (d Day) IsValid() bool {
	return d.Index() >= 0
}

// Index returns the position of d within the week (Monday is 0),
// or -1 for an unknown value.
func (d Day) Index() int {
	for i, known := range days {
		if d == known {
			return i
		}
	}
	return -1
}

// MealType is one of the four meal slots within a day.
type MealType string

const (
	MealBreakfast MealType = "BREAKFAST"
	MealLunch     MealType = "LUNCH"
	MealDinner    MealType = "DINNER"
	MealSnack     MealType = "SNACK"
)

var mealTypes = [...]MealType{
	MealBreakfast,
	MealLunch,
	MealDinner,
	MealSnack,
}

// MealTypes returns all meal types in daily order.
func MealTypes() []MealType {
	out := make([]MealType, len(mealTypes))
	copy(out, mealTypes[:])
	return out
}

// IsValid reports whether t is one of the four known meal types.
func (t MealType) IsValid() bool {
	return t.Index() >= 0
}

// Index returns the position of t within a day (breakfast is 0),
// or -1 for an unknown value.
func (t MealType) Index() int {
	for i, known := range mealTypes {
		if t == known {
			return i
		}
	}
	return -1
}

// PlanSource records where a plan's content came from.
type PlanSource string

const (
	// SourceModel marks content produced and validated from a model response.
	SourceModel PlanSource = "model"
	// SourceFallback marks statically defined content supplied when
	// generation could not produce a valid result.
	SourceFallback PlanSource = "fallback"
)

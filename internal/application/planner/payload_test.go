package planner

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/platewise/v2/internal/domain/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mealJSON(day plan.Day, mealType plan.MealType, name string) string {
	return fmt.Sprintf(`{
		"day": %q,
		"meal_type": %q,
		"name": %q,
		"description": "A tasty meal.",
		"calories": 420,
		"protein_g": 28.456,
		"carbs_g": 45.0,
		"fat_g": 14.0,
		"fiber_g": 6.0,
		"ingredients": ["ingredient one", "ingredient two"],
		"instructions": "Prepare everything, cook it gently and serve warm.",
		"prep_time_minutes": 10,
		"cook_time_minutes": 20,
		"servings": 1
	}`, day, mealType, name)
}

func fullPlanJSON() string {
	var meals []string
	for _, d := range plan.Days() {
		for _, mt := range plan.MealTypes() {
			meals = append(meals, mealJSON(d, mt, fmt.Sprintf("%s %s dish", d, mt)))
		}
	}
	return fmt.Sprintf(`{"description": "A balanced week.", "meals": [%s]}`, strings.Join(meals, ","))
}

func testRequest() plan.PlanRequest {
	return plan.PlanRequest{
		Name:      "My Week",
		WeekStart: time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
	}
}

func TestDecodePlan(t *testing.T) {
	t.Run("CompleteWeek_Decodes", func(t *testing.T) {
		p, err := decodePlan(fullPlanJSON(), testRequest(), "test-model", string(StrategySingleShot))
		require.NoError(t, err)
		require.NotNil(t, p)

		assert.Equal(t, "My Week", p.Name)
		assert.Equal(t, "A balanced week.", p.Description)
		assert.Equal(t, "test-model", p.Model)
		assert.Equal(t, plan.SourceModel, p.Source)
		assert.Len(t, p.Meals, plan.MealsPerWeek)
		require.NoError(t, p.Validate())

		// Meals come back sorted and normalized.
		assert.Equal(t, plan.DayMonday, p.Meals[0].Day)
		assert.Equal(t, plan.MealBreakfast, p.Meals[0].Type)
		assert.Equal(t, 28.5, p.Meals[0].Protein)
	})

	t.Run("TooFewMeals_FailsPreCheck", func(t *testing.T) {
		var doc struct {
			Description string            `json:"description"`
			Meals       []json.RawMessage `json:"meals"`
		}
		require.NoError(t, json.Unmarshal([]byte(fullPlanJSON()), &doc))
		doc.Meals = doc.Meals[:plan.MealsPerWeek-1]
		short, err := json.Marshal(doc)
		require.NoError(t, err)

		_, err = decodePlan(string(short), testRequest(), "test-model", string(StrategySingleShot))
		require.Error(t, err)

		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.ErrorIs(t, err, plan.ErrIncompletePlan)
		assert.Contains(t, err.Error(), "27 of 28 meals present")
	})

	t.Run("WrongShape_IsValidationError", func(t *testing.T) {
		_, err := decodePlan(`{"meals": "not an array"}`, testRequest(), "m", "single")
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("DuplicateSlot_IsValidationError", func(t *testing.T) {
		doc := fullPlanJSON()
		// Relabel Sunday snack as a second Monday breakfast.
		doc = strings.Replace(doc, `"SUNDAY",
		"meal_type": "SNACK"`, `"MONDAY",
		"meal_type": "BREAKFAST"`, 1)

		_, err := decodePlan(doc, testRequest(), "m", "single")
		require.Error(t, err)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.ErrorIs(t, err, plan.ErrDuplicateSlot)
	})
}

func TestDecodeMeals(t *testing.T) {
	t.Run("BareArray", func(t *testing.T) {
		doc := "[" + mealJSON(plan.DayMonday, plan.MealBreakfast, "Oats") + "," +
			mealJSON(plan.DayMonday, plan.MealLunch, "Salad") + "]"
		meals, err := decodeMeals(doc)
		require.NoError(t, err)
		require.Len(t, meals, 2)
		assert.Equal(t, "Oats", meals[0].Name)
		assert.Equal(t, plan.MealLunch, meals[1].Type)
	})

	t.Run("ObjectWithMealsArray", func(t *testing.T) {
		doc := `{"meals": [` + mealJSON(plan.DayFriday, plan.MealDinner, "Stew") + `]}`
		meals, err := decodeMeals(doc)
		require.NoError(t, err)
		require.Len(t, meals, 1)
		assert.Equal(t, plan.DayFriday, meals[0].Day)
	})

	t.Run("SingleObject", func(t *testing.T) {
		meals, err := decodeMeals(mealJSON(plan.DaySunday, plan.MealSnack, "Nuts"))
		require.NoError(t, err)
		require.Len(t, meals, 1)
		assert.Equal(t, "Nuts", meals[0].Name)
	})

	t.Run("MissingNumericField_IsValidationError", func(t *testing.T) {
		doc := strings.Replace(mealJSON(plan.DayMonday, plan.MealBreakfast, "Oats"),
			`"calories": 420,`, "", 1)
		_, err := decodeMeals(doc)
		require.Error(t, err)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Contains(t, err.Error(), `"calories"`)
	})

	t.Run("LowercaseEnums_AreCoerced", func(t *testing.T) {
		doc := strings.NewReplacer(`"MONDAY"`, `"monday"`, `"BREAKFAST"`, `"breakfast"`).
			Replace(mealJSON(plan.DayMonday, plan.MealBreakfast, "Oats"))
		meals, err := decodeMeals(doc)
		require.NoError(t, err)
		require.Len(t, meals, 1)
		assert.Equal(t, plan.DayMonday, meals[0].Day)
		assert.Equal(t, plan.MealBreakfast, meals[0].Type)
	})

	t.Run("InvalidMeal_IsValidationError", func(t *testing.T) {
		doc := strings.Replace(mealJSON(plan.DayMonday, plan.MealBreakfast, "Oats"),
			`"calories": 420,`, `"calories": 9000,`, 1)
		_, err := decodeMeals(doc)
		require.Error(t, err)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.ErrorIs(t, err, plan.ErrCaloriesOutOfRange)
	})
}

func TestConvertMealRoundsNumerics(t *testing.T) {
	doc := strings.NewReplacer(
		`"calories": 420,`, `"calories": 419.6,`,
		`"servings": 1`, `"servings": 1.4`,
	).Replace(mealJSON(plan.DayMonday, plan.MealBreakfast, "Oats"))
	meals, err := decodeMeals(doc)
	require.NoError(t, err)
	require.Len(t, meals, 1)
	assert.Equal(t, 420, meals[0].Calories)
	assert.Equal(t, 1, meals[0].Servings)
}

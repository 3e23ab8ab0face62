package planner

import (
	"fmt"
	"strings"

	"github.com/platewise/v2/internal/domain/plan"
)

// notSpecified is the placeholder rendered for unset profile fields.
const notSpecified = "Not specified"

const jsonOnlyDirective = "CRITICAL: Respond with ONLY a valid JSON document in the exact format shown. " +
	"Do not include any explanatory text, markdown formatting or code fences."

const mealSkeleton = `{
  "day": "MONDAY",
  "meal_type": "BREAKFAST",
  "name": "Meal name",
  "description": "One short sentence about the meal",
  "calories": 420,
  "protein_g": 28.5,
  "carbs_g": 45.0,
  "fat_g": 14.0,
  "fiber_g": 6.0,
  "ingredients": ["ingredient 1", "ingredient 2"],
  "instructions": "Step by step preparation instructions",
  "prep_time_minutes": 10,
  "cook_time_minutes": 20,
  "servings": 1
}`

// buildPlanPrompt renders the single-shot instruction for a full weekly
// plan: profile context, preferences, required cardinality, the allowed
// enumerations and a strict JSON-only directive with an example skeleton.
func buildPlanPrompt(profile plan.UserProfile, req plan.PlanRequest) string {
	var b strings.Builder

	b.WriteString("You are a professional dietitian. Create a complete 7-day diet plan for the following person.\n\n")
	writeProfile(&b, profile, req)

	fmt.Fprintf(&b, "\nThe plan must contain EXACTLY %d meals: one meal for every combination of day and meal type.\n", plan.MealsPerWeek)
	fmt.Fprintf(&b, "Allowed day values: %s.\n", joinDays())
	fmt.Fprintf(&b, "Allowed meal_type values: %s.\n", joinMealTypes())

	b.WriteString("\n" + jsonOnlyDirective + "\n\nRequired JSON format:\n")
	fmt.Fprintf(&b, "{\n  \"description\": \"Short description of the overall plan\",\n  \"meals\": [\n%s\n  ]\n}\n", indent(mealSkeleton, "    "))
	fmt.Fprintf(&b, "\nThe meals array must hold all %d entries.", plan.MealsPerWeek)

	return b.String()
}

// buildDayPrompt renders the instruction for one day's four meals.
// Names of meals already generated on earlier days are passed along so the
// model avoids repeating them.
func buildDayPrompt(profile plan.UserProfile, req plan.PlanRequest, day plan.Day, avoid []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a professional dietitian. Create the meals for %s of a weekly diet plan for the following person.\n\n", day)
	writeProfile(&b, profile, req)

	fmt.Fprintf(&b, "\nReturn EXACTLY %d meals for %s: one for each meal_type.\n", plan.MealsPerDay, day)
	fmt.Fprintf(&b, "Allowed meal_type values: %s.\n", joinMealTypes())
	fmt.Fprintf(&b, "Every meal must have \"day\" set to %q.\n", string(day))
	if len(avoid) > 0 {
		fmt.Fprintf(&b, "Do not repeat these meals already planned this week: %s.\n", strings.Join(avoid, ", "))
	}

	b.WriteString("\n" + jsonOnlyDirective + "\n\nRequired JSON format:\n")
	fmt.Fprintf(&b, "{\n  \"meals\": [\n%s\n  ]\n}\n", indent(mealSkeleton, "    "))
	fmt.Fprintf(&b, "\nThe meals array must hold all %d entries.", plan.MealsPerDay)

	return b.String()
}

// buildMealPrompt renders the instruction for one specific slot.
func buildMealPrompt(profile plan.UserProfile, req plan.PlanRequest, day plan.Day, mealType plan.MealType, avoid []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a professional dietitian. Create ONE %s meal for %s as part of a weekly diet plan for the following person.\n\n",
		strings.ToLower(string(mealType)), day)
	writeProfile(&b, profile, req)

	fmt.Fprintf(&b, "\nReturn EXACTLY 1 meal with \"day\" set to %q and \"meal_type\" set to %q.\n", string(day), string(mealType))
	if len(avoid) > 0 {
		fmt.Fprintf(&b, "Do not repeat these meals already planned this week: %s.\n", strings.Join(avoid, ", "))
	}

	b.WriteString("\n" + jsonOnlyDirective + "\n\nRequired JSON format:\n")
	b.WriteString(mealSkeleton)

	return b.String()
}

// buildRegeneratePrompt renders the instruction for replacing one meal
// with a different one of comparable calories.
func buildRegeneratePrompt(profile plan.UserProfile, original plan.Meal, requirement string, calorieDelta int) string {
	var b strings.Builder

	b.WriteString("You are a professional dietitian. Suggest a REPLACEMENT for the following meal.\n\n")
	fmt.Fprintf(&b, "Current meal (%s, %s):\n", original.Day, original.Type)
	fmt.Fprintf(&b, "Name: %s\n", original.Name)
	fmt.Fprintf(&b, "Description: %s\n", original.Description)
	fmt.Fprintf(&b, "Calories: %d\n", original.Calories)
	fmt.Fprintf(&b, "Ingredients: %s\n", strings.Join(original.Ingredients, ", "))

	b.WriteString("\nPerson the meal is for:\n")
	writeProfile(&b, profile, plan.PlanRequest{CustomRequirement: requirement})

	fmt.Fprintf(&b, "\nThe replacement must be a DIFFERENT meal (different name and description) with calories within %d of %d.\n",
		calorieDelta, original.Calories)
	fmt.Fprintf(&b, "Return EXACTLY 1 meal with \"day\" set to %q and \"meal_type\" set to %q.\n", string(original.Day), string(original.Type))

	b.WriteString("\n" + jsonOnlyDirective + "\n\nRequired JSON format:\n")
	b.WriteString(mealSkeleton)

	return b.String()
}

// writeProfile renders profile and request fields, substituting a
// human-readable placeholder for anything unset.
func writeProfile(b *strings.Builder, profile plan.UserProfile, req plan.PlanRequest) {
	fmt.Fprintf(b, "Age: %s\n", intOrPlaceholder(profile.Age))
	fmt.Fprintf(b, "Weight: %s\n", floatOrPlaceholder(profile.WeightKg, "kg"))
	fmt.Fprintf(b, "Height: %s\n", floatOrPlaceholder(profile.HeightCm, "cm"))
	fmt.Fprintf(b, "Gender: %s\n", stringOrPlaceholder(profile.Gender))
	fmt.Fprintf(b, "Nationality: %s\n", stringOrPlaceholder(profile.Nationality))
	fmt.Fprintf(b, "Goal: %s\n", stringOrPlaceholder(profile.Goal))
	fmt.Fprintf(b, "Activity level: %s\n", stringOrPlaceholder(profile.ActivityLevel))

	prefs := req.CombinedPreferences(profile)
	if len(prefs) > 0 {
		fmt.Fprintf(b, "Dietary preferences: %s\n", strings.Join(prefs, ", "))
	} else {
		fmt.Fprintf(b, "Dietary preferences: %s\n", notSpecified)
	}
	if strings.TrimSpace(req.CustomRequirement) != "" {
		fmt.Fprintf(b, "Additional requirement: %s\n", strings.TrimSpace(req.CustomRequirement))
	}
}

func stringOrPlaceholder(v string) string {
	if strings.TrimSpace(v) == "" {
		return notSpecified
	}
	return v
}

func intOrPlaceholder(v *int) string {
	if v == nil {
		return notSpecified
	}
	return fmt.Sprintf("%d", *v)
}

func floatOrPlaceholder(v *float64, unit string) string {
	if v == nil {
		return notSpecified
	}
	return fmt.Sprintf("%.1f %s", *v, unit)
}

func joinDays() string {
	parts := make([]string, 0, len(plan.Days()))
	for _, d := range plan.Days() {
		parts = append(parts, string(d))
	}
	return strings.Join(parts, ", ")
}

func joinMealTypes() string {
	parts := make([]string, 0, len(plan.MealTypes()))
	for _, t := range plan.MealTypes() {
		parts = append(parts, string(t))
	}
	return strings.Join(parts, ", ")
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = prefix + lines[i]
	}
	return strings.Join(lines, "\n")
}

package planner

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/platewise/v2/internal/domain/plan"
)

// Static fallback catalog supplied when the generation pipeline cannot
// produce a valid model-derived result. Selection is a pure function of
// (day, meal type): the same slot always yields the same meal, including
// its identifier, so repeated degraded responses are stable.

// fallbackNamespace seeds the deterministic meal identifiers.
var fallbackNamespace = uuid.MustParse("9d2f1b6a-4c1e-4f7a-8b0d-3e5a9c7d2f10")

// FallbackMeal returns the canned meal for one slot.
func FallbackMeal(day plan.Day, mealType plan.MealType) plan.Meal {
	templates := fallbackCatalog[mealType]
	m := templates[day.Index()%len(templates)]
	m.ID = uuid.NewSHA1(fallbackNamespace, []byte(string(day)+"/"+string(mealType)))
	m.Day = day
	m.Type = mealType
	m.Ingredients = append([]string(nil), m.Ingredients...)
	return m
}

// FallbackPlan returns the complete canned weekly plan. It satisfies the
// same invariants as model-derived plans, so downstream consumers never
// need to special-case its origin.
func FallbackPlan(req plan.PlanRequest) *plan.DietPlan {
	p := plan.NewDietPlan(req.Name, "A balanced weekly plan with simple, whole-food meals.", req.WeekStart)
	p.Source = plan.SourceFallback
	for _, d := range plan.Days() {
		for _, t := range plan.MealTypes() {
			p.Meals = append(p.Meals, FallbackMeal(d, t))
		}
	}
	p.Sort()
	return p
}

func meal(name, description string, calories int, protein, carbs, fat, fiber float64, ingredients []string, instructions string, prep, cook, servings int) plan.Meal {
	return plan.Meal{
		Name:         name,
		Description:  description,
		Calories:     calories,
		Protein:      protein,
		Carbs:        carbs,
		Fat:          fat,
		Fiber:        fiber,
		Ingredients:  ingredients,
		Instructions: instructions,
		PrepMinutes:  prep,
		CookMinutes:  cook,
		Servings:     servings,
	}
}

var fallbackCatalog = map[plan.MealType][]plan.Meal{
	plan.MealBreakfast: {
		meal("Oatmeal with Berries", "Rolled oats simmered in milk, topped with mixed berries and honey.",
			380, 14, 62, 9, 8,
			[]string{"rolled oats", "milk", "mixed berries", "honey", "chia seeds"},
			"Simmer the oats in milk for 5 minutes, stirring occasionally. Top with berries, chia seeds and a drizzle of honey.",
			5, 10, 1),
		meal("Greek Yogurt Parfait", "Layers of yogurt, granola and banana for a quick start.",
			340, 20, 48, 8, 5,
			[]string{"greek yogurt", "granola", "banana", "honey"},
			"Layer the yogurt, granola and sliced banana in a glass. Finish with a drizzle of honey and serve chilled.",
			5, 0, 1),
		meal("Vegetable Omelette", "Three-egg omelette with peppers, onion and spinach.",
			310, 21, 8, 22, 2,
			[]string{"eggs", "bell pepper", "onion", "spinach", "olive oil", "salt"},
			"Whisk the eggs with a pinch of salt. Saute the vegetables in olive oil, pour in the eggs and cook until just set, then fold.",
			10, 8, 1),
		meal("Whole Grain Toast with Avocado", "Toasted whole grain bread with smashed avocado and egg.",
			390, 15, 38, 20, 9,
			[]string{"whole grain bread", "avocado", "egg", "lemon juice", "chili flakes"},
			"Toast the bread. Smash the avocado with lemon juice, spread on the toast and top with a fried egg and chili flakes.",
			5, 5, 1),
		meal("Banana Peanut Smoothie", "Creamy smoothie with banana, peanut butter and oats.",
			420, 18, 55, 15, 7,
			[]string{"banana", "peanut butter", "rolled oats", "milk", "ice"},
			"Blend the banana, peanut butter, oats, milk and ice until smooth. Pour into a tall glass and serve immediately.",
			5, 0, 1),
		meal("Cottage Cheese Bowl", "Cottage cheese with walnuts, apple and cinnamon.",
			330, 24, 30, 13, 5,
			[]string{"cottage cheese", "apple", "walnuts", "cinnamon", "honey"},
			"Spoon the cottage cheese into a bowl. Top with diced apple, chopped walnuts, cinnamon and a little honey.",
			5, 0, 1),
		meal("Scrambled Eggs with Salmon", "Soft scrambled eggs with smoked salmon on rye.",
			400, 28, 24, 21, 3,
			[]string{"eggs", "smoked salmon", "rye bread", "butter", "chives"},
			"Scramble the eggs gently in butter over low heat. Serve on toasted rye with smoked salmon and chopped chives.",
			5, 6, 1),
	},
	plan.MealLunch: {
		meal("Grilled Chicken Salad", "Grilled chicken breast over mixed greens with vinaigrette.",
			450, 38, 22, 23, 6,
			[]string{"chicken breast", "mixed greens", "cherry tomatoes", "cucumber", "olive oil", "balsamic vinegar"},
			"Season and grill the chicken 6 minutes per side, rest and slice. Toss the vegetables with oil and vinegar and top with the chicken.",
			10, 12, 1),
		meal("Lentil Soup with Bread", "Hearty lentil and vegetable soup with crusty bread.",
			430, 22, 64, 9, 15,
			[]string{"red lentils", "carrot", "celery", "onion", "vegetable stock", "whole grain bread"},
			"Saute the chopped vegetables, add lentils and stock and simmer 25 minutes until tender. Season and serve with bread.",
			10, 25, 2),
		meal("Tuna Wrap", "Whole wheat wrap with tuna, yogurt dressing and crunchy vegetables.",
			410, 32, 42, 12, 6,
			[]string{"canned tuna", "whole wheat tortilla", "greek yogurt", "lettuce", "red onion", "cucumber"},
			"Mix the drained tuna with yogurt and diced onion. Spread over the tortilla, add lettuce and cucumber and roll tightly.",
			10, 0, 1),
		meal("Quinoa Veggie Bowl", "Quinoa with roasted vegetables, chickpeas and tahini.",
			480, 18, 68, 16, 12,
			[]string{"quinoa", "chickpeas", "zucchini", "bell pepper", "tahini", "lemon"},
			"Cook the quinoa. Roast the vegetables and chickpeas at 200C for 20 minutes, combine and dress with tahini and lemon.",
			15, 20, 1),
		meal("Turkey Sandwich", "Turkey, cheese and tomato on whole grain with a side salad.",
			440, 30, 46, 15, 7,
			[]string{"turkey slices", "whole grain bread", "cheese", "tomato", "lettuce", "mustard"},
			"Layer the turkey, cheese, tomato and lettuce between mustard-spread bread slices. Serve with a simple side salad.",
			8, 0, 1),
		meal("Chicken Rice Bowl", "Stir-fried chicken and vegetables over steamed rice.",
			520, 35, 60, 14, 5,
			[]string{"chicken thigh", "rice", "broccoli", "carrot", "soy sauce", "garlic"},
			"Steam the rice. Stir-fry the chicken with garlic, add the vegetables and soy sauce and cook 5 more minutes. Serve over the rice.",
			12, 15, 1),
		meal("Mediterranean Pasta Salad", "Pasta with olives, feta, tomatoes and herbs.",
			470, 16, 62, 18, 6,
			[]string{"pasta", "feta cheese", "olives", "cherry tomatoes", "olive oil", "oregano"},
			"Cook and cool the pasta. Toss with halved tomatoes, olives, crumbled feta, olive oil and oregano and season to taste.",
			10, 12, 2),
	},
	plan.MealDinner: {
		meal("Baked Salmon with Vegetables", "Oven-baked salmon fillet with roasted seasonal vegetables.",
			520, 40, 28, 26, 7,
			[]string{"salmon fillet", "broccoli", "carrot", "potato", "olive oil", "lemon"},
			"Arrange the salmon and chopped vegetables on a tray, drizzle with oil and roast at 200C for 20 minutes. Finish with lemon.",
			10, 20, 1),
		meal("Beef Stir-Fry", "Lean beef strips with peppers and noodles in a light sauce.",
			540, 36, 52, 19, 5,
			[]string{"lean beef", "egg noodles", "bell pepper", "broccoli", "soy sauce", "ginger"},
			"Sear the beef strips over high heat and set aside. Stir-fry the vegetables with ginger, return the beef, add sauce and toss with noodles.",
			15, 10, 2),
		meal("Chicken Curry with Rice", "Mild chicken curry simmered in tomato and yogurt.",
			560, 38, 58, 18, 6,
			[]string{"chicken breast", "rice", "tomato", "yogurt", "curry powder", "onion"},
			"Brown the onion and chicken, stir in curry powder, tomato and yogurt and simmer 15 minutes. Serve over steamed rice.",
			15, 25, 2),
		meal("Vegetable Chili", "Bean and vegetable chili topped with yogurt.",
			460, 22, 66, 12, 18,
			[]string{"kidney beans", "black beans", "tomato", "onion", "chili powder", "greek yogurt"},
			"Saute the onion, add the beans, tomato and spices and simmer 25 minutes until thick. Serve topped with a spoon of yogurt.",
			10, 25, 3),
		meal("Pork Tenderloin with Potatoes", "Roast pork tenderloin with baby potatoes and greens.",
			550, 42, 44, 20, 6,
			[]string{"pork tenderloin", "baby potatoes", "green beans", "olive oil", "rosemary", "garlic"},
			"Rub the pork with garlic and rosemary, roast with the potatoes at 200C for 25 minutes and rest. Steam the beans and serve alongside.",
			10, 25, 2),
		meal("Shrimp Pasta", "Garlic shrimp tossed with spaghetti and cherry tomatoes.",
			500, 32, 58, 15, 5,
			[]string{"shrimp", "spaghetti", "cherry tomatoes", "garlic", "olive oil", "parsley"},
			"Cook the spaghetti. Saute the garlic and shrimp 3 minutes, add the tomatoes, toss with the pasta and finish with parsley.",
			10, 15, 2),
		meal("Stuffed Bell Peppers", "Peppers filled with rice, beef and herbs, baked until tender.",
			480, 28, 50, 18, 8,
			[]string{"bell peppers", "ground beef", "rice", "onion", "tomato sauce", "parsley"},
			"Brown the beef with onion, mix with cooked rice and sauce, fill the halved peppers and bake at 190C for 30 minutes.",
			15, 30, 2),
	},
	plan.MealSnack: {
		meal("Apple with Almond Butter", "Crisp apple slices with a spoon of almond butter.",
			210, 5, 26, 11, 5,
			[]string{"apple", "almond butter"},
			"Core and slice the apple. Serve with the almond butter for dipping.",
			3, 0, 1),
		meal("Trail Mix", "Nuts, seeds and dried fruit for an energy boost.",
			250, 7, 22, 16, 4,
			[]string{"almonds", "walnuts", "pumpkin seeds", "raisins"},
			"Combine the nuts, seeds and raisins in a small bowl and portion into a snack-size serving.",
			3, 0, 1),
		meal("Hummus with Carrot Sticks", "Creamy hummus with fresh carrot and cucumber sticks.",
			180, 6, 20, 9, 6,
			[]string{"hummus", "carrot", "cucumber"},
			"Cut the carrot and cucumber into sticks and serve with the hummus for dipping.",
			5, 0, 1),
		meal("Greek Yogurt with Honey", "Thick yogurt sweetened with honey and seeds.",
			190, 15, 22, 5, 1,
			[]string{"greek yogurt", "honey", "sunflower seeds"},
			"Spoon the yogurt into a bowl, drizzle with honey and scatter the seeds on top.",
			3, 0, 1),
		meal("Rice Cakes with Cottage Cheese", "Light rice cakes topped with cottage cheese and tomato.",
			170, 12, 22, 4, 2,
			[]string{"rice cakes", "cottage cheese", "cherry tomatoes", "black pepper"},
			"Spread the cottage cheese over the rice cakes, top with halved tomatoes and season with pepper.",
			4, 0, 1),
		meal("Banana and Walnuts", "A banana with a handful of walnuts.",
			230, 5, 30, 12, 4,
			[]string{"banana", "walnuts"},
			"Peel the banana and serve with a small handful of walnuts on the side.",
			2, 0, 1),
		meal("Dark Chocolate and Berries", "A few squares of dark chocolate with fresh berries.",
			200, 4, 24, 11, 5,
			[]string{"dark chocolate", "strawberries", "blueberries"},
			"Arrange the chocolate squares and rinsed berries on a small plate and enjoy slowly.",
			3, 0, 1),
	},
}

func init() {
	// The catalog must satisfy the same invariants as model output.
	for t, templates := range fallbackCatalog {
		if len(templates) != len(plan.Days()) {
			panic(fmt.Sprintf("fallback catalog for %s has %d entries, want %d", t, len(templates), len(plan.Days())))
		}
	}
}

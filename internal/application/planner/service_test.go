package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/platewise/v2/internal/domain/plan"
	"github.com/platewise/v2/internal/ports/inbound"
	"github.com/platewise/v2/internal/ports/outbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeGenerator scripts model responses per call and records every prompt.
type fakeGenerator struct {
	mu      sync.Mutex
	calls   []fakeCall
	respond func(ctx context.Context, n int, prompt string, params outbound.GenerationParams) (string, error)
}

type fakeCall struct {
	prompt string
	model  string
}

func (f *fakeGenerator) GenerateText(ctx context.Context, prompt string, params outbound.GenerationParams) (*outbound.TextResult, error) {
	f.mu.Lock()
	n := len(f.calls)
	f.calls = append(f.calls, fakeCall{prompt: prompt, model: params.Model})
	f.mu.Unlock()

	content, err := f.respond(ctx, n, prompt, params)
	if err != nil {
		return nil, err
	}
	return &outbound.TextResult{Content: content, Model: params.Model}, nil
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeGenerator) call(n int) fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[n]
}

type fakePlanCache struct {
	mu     sync.Mutex
	plans  map[string]*plan.DietPlan
	stores int
	gets   int
}

func newFakePlanCache() *fakePlanCache {
	return &fakePlanCache{plans: make(map[string]*plan.DietPlan)}
}

func (c *fakePlanCache) GetPlan(ctx context.Context, key string) (*plan.DietPlan, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	p, ok := c.plans[key]
	return p, ok
}

func (c *fakePlanCache) StorePlan(ctx context.Context, key string, p *plan.DietPlan) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stores++
	c.plans[key] = p
}

func newTestService(t *testing.T, cfg Config, gen outbound.TextGenerator, cache PlanCache) *Service {
	t.Helper()
	if cfg.Model == "" {
		cfg.Model = "primary"
	}
	if cfg.Strategy == "" {
		cfg.Strategy = StrategySingleShot
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Second
	}
	svc, err := NewService(cfg, gen, cache, nil, zaptest.NewLogger(t))
	require.NoError(t, err)
	return svc
}

func dayResponse(day plan.Day) string {
	var meals []string
	for _, mt := range plan.MealTypes() {
		meals = append(meals, mealJSON(day, mt, fmt.Sprintf("%s %s dish", day, mt)))
	}
	return fmt.Sprintf(`{"meals": [%s]}`, strings.Join(meals, ","))
}

// slotAt returns the (day, meal type) handled by the n-th per-meal call.
func slotAt(n int) (plan.Day, plan.MealType) {
	return plan.Days()[n/plan.MealsPerDay], plan.MealTypes()[n%plan.MealsPerDay]
}

func TestNewServiceValidation(t *testing.T) {
	gen := &fakeGenerator{respond: func(context.Context, int, string, outbound.GenerationParams) (string, error) {
		return "", nil
	}}
	log := zaptest.NewLogger(t)
	base := Config{Strategy: StrategySingleShot, Model: "primary", Timeout: time.Second}

	_, err := NewService(base, nil, nil, nil, log)
	assert.Error(t, err)

	cfg := base
	cfg.Model = ""
	_, err = NewService(cfg, gen, nil, nil, log)
	assert.Error(t, err)

	cfg = base
	cfg.Strategy = "weekly"
	_, err = NewService(cfg, gen, nil, nil, log)
	assert.Error(t, err)

	cfg = base
	cfg.Timeout = 0
	_, err = NewService(cfg, gen, nil, nil, log)
	assert.Error(t, err)

	svc, err := NewService(base, gen, nil, nil, log)
	require.NoError(t, err)
	assert.Equal(t, 50, svc.config.CalorieDelta, "calorie delta defaults when unset")
}

func TestGeneratePlanSingleShot(t *testing.T) {
	gen := &fakeGenerator{respond: func(_ context.Context, n int, _ string, _ outbound.GenerationParams) (string, error) {
		return "```json\n" + fullPlanJSON() + "\n```", nil
	}}
	svc := newTestService(t, Config{Strategy: StrategySingleShot}, gen, nil)

	p, err := svc.GeneratePlan(context.Background(), plan.UserProfile{}, testRequest())

	require.NoError(t, err)
	require.NoError(t, p.Validate())
	assert.Equal(t, plan.SourceModel, p.Source)
	assert.Equal(t, "primary", p.Model)
	assert.Equal(t, string(StrategySingleShot), p.Strategy)
	assert.Equal(t, 1, gen.callCount())
}

func TestGeneratePlanPerDay(t *testing.T) {
	gen := &fakeGenerator{respond: func(_ context.Context, n int, _ string, _ outbound.GenerationParams) (string, error) {
		return dayResponse(plan.Days()[n]), nil
	}}
	svc := newTestService(t, Config{Strategy: StrategyPerDay}, gen, nil)

	p, err := svc.GeneratePlan(context.Background(), plan.UserProfile{}, testRequest())

	require.NoError(t, err)
	require.NoError(t, p.Validate())
	assert.Equal(t, plan.SourceModel, p.Source)
	assert.Equal(t, 7, gen.callCount())

	// Later prompts carry the names of meals already planned.
	tuesdayPrompt := gen.call(1).prompt
	assert.Contains(t, tuesdayPrompt, "MONDAY BREAKFAST dish")
	sundayPrompt := gen.call(6).prompt
	assert.Contains(t, sundayPrompt, "SATURDAY DINNER dish")
}

func TestGeneratePlanDegradesToPerMeal(t *testing.T) {
	gen := &fakeGenerator{respond: func(_ context.Context, n int, _ string, _ outbound.GenerationParams) (string, error) {
		if n == 0 {
			return "no structured output at all", nil
		}
		day, mt := slotAt(n - 1)
		return mealJSON(day, mt, fmt.Sprintf("%s %s dish", day, mt)), nil
	}}
	svc := newTestService(t, Config{Strategy: StrategySingleShot}, gen, nil)

	p, err := svc.GeneratePlan(context.Background(), plan.UserProfile{}, testRequest())

	require.NoError(t, err)
	require.NoError(t, p.Validate())
	assert.Equal(t, plan.SourceModel, p.Source)
	assert.Equal(t, string(StrategyPerMeal), p.Strategy)
	assert.Equal(t, 1+plan.MealsPerWeek, gen.callCount())
}

func TestGeneratePlanFallsBackWhenEverythingFails(t *testing.T) {
	gen := &fakeGenerator{respond: func(context.Context, int, string, outbound.GenerationParams) (string, error) {
		return "", errors.New("upstream is down")
	}}
	svc := newTestService(t, Config{Strategy: StrategyPerDay}, gen, nil)

	p, err := svc.GeneratePlan(context.Background(), plan.UserProfile{}, testRequest())

	require.NoError(t, err, "expected failure modes never surface to the caller")
	require.NoError(t, p.Validate())
	assert.Equal(t, plan.SourceFallback, p.Source)
	assert.Equal(t, string(StrategyPerDay), p.Strategy)

	// The degraded result is deterministic per slot.
	got, ok := p.MealFor(plan.DayMonday, plan.MealBreakfast)
	require.True(t, ok)
	assert.Equal(t, FallbackMeal(plan.DayMonday, plan.MealBreakfast), got)
}

func TestGeneratePlanTimeout(t *testing.T) {
	gen := &fakeGenerator{respond: func(ctx context.Context, _ int, _ string, _ outbound.GenerationParams) (string, error) {
		select {
		case <-time.After(5 * time.Second):
			return fullPlanJSON(), nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}}
	svc := newTestService(t, Config{Strategy: StrategySingleShot, Timeout: 20 * time.Millisecond}, gen, nil)

	started := time.Now()
	p, err := svc.GeneratePlan(context.Background(), plan.UserProfile{}, testRequest())

	require.NoError(t, err)
	assert.Equal(t, plan.SourceFallback, p.Source)
	assert.Less(t, time.Since(started), 3*time.Second, "the time budget must bound the wait, not the transport")
}

func TestGeneratePlanSecondaryModel(t *testing.T) {
	gen := &fakeGenerator{respond: func(_ context.Context, _ int, _ string, params outbound.GenerationParams) (string, error) {
		if params.Model == "primary" {
			return "", errors.New("quota exceeded")
		}
		return fullPlanJSON(), nil
	}}
	svc := newTestService(t, Config{Strategy: StrategySingleShot, FallbackModel: "cheap"}, gen, nil)

	p, err := svc.GeneratePlan(context.Background(), plan.UserProfile{}, testRequest())

	require.NoError(t, err)
	assert.Equal(t, plan.SourceModel, p.Source)
	assert.Equal(t, "cheap", p.Model)
	require.Equal(t, 2, gen.callCount())
	assert.Equal(t, "primary", gen.call(0).model)
	assert.Equal(t, "cheap", gen.call(1).model)
}

func TestGeneratePlanCache(t *testing.T) {
	t.Run("ValidPlan_IsStoredAndServed", func(t *testing.T) {
		gen := &fakeGenerator{respond: func(context.Context, int, string, outbound.GenerationParams) (string, error) {
			return fullPlanJSON(), nil
		}}
		cache := newFakePlanCache()
		svc := newTestService(t, Config{Strategy: StrategySingleShot}, gen, cache)

		first, err := svc.GeneratePlan(context.Background(), plan.UserProfile{}, testRequest())
		require.NoError(t, err)
		assert.Equal(t, 1, cache.stores)

		second, err := svc.GeneratePlan(context.Background(), plan.UserProfile{}, testRequest())
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID, "second call must come from the cache")
		assert.Equal(t, 1, gen.callCount())
	})

	t.Run("FallbackPlan_IsNeverStored", func(t *testing.T) {
		gen := &fakeGenerator{respond: func(context.Context, int, string, outbound.GenerationParams) (string, error) {
			return "", errors.New("upstream is down")
		}}
		cache := newFakePlanCache()
		svc := newTestService(t, Config{Strategy: StrategyPerMeal}, gen, cache)

		p, err := svc.GeneratePlan(context.Background(), plan.UserProfile{}, testRequest())
		require.NoError(t, err)
		assert.Equal(t, plan.SourceFallback, p.Source)
		assert.Zero(t, cache.stores)
	})
}

func originalMeal() plan.Meal {
	return plan.Meal{
		ID:           uuid.New(),
		Day:          plan.DayTuesday,
		Type:         plan.MealLunch,
		Name:         "Greek Salad",
		Description:  "Crisp salad with feta.",
		Calories:     420,
		Protein:      18,
		Carbs:        24,
		Fat:          28,
		Fiber:        6,
		Ingredients:  []string{"lettuce", "feta", "olives"},
		Instructions: "Chop the vegetables, crumble the feta and toss with dressing.",
		PrepMinutes:  15,
		CookMinutes:  0,
		Servings:     1,
	}
}

func TestRegenerateMeal(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		replacement := strings.Replace(
			mealJSON(plan.DayMonday, plan.MealDinner, "Veggie Wrap"),
			`"calories": 420,`, `"calories": 450,`, 1)
		gen := &fakeGenerator{respond: func(context.Context, int, string, outbound.GenerationParams) (string, error) {
			return replacement, nil
		}}
		svc := newTestService(t, Config{CalorieDelta: 50}, gen, nil)

		got, err := svc.RegenerateMeal(context.Background(), plan.UserProfile{}, originalMeal(), "more veggies")

		require.NoError(t, err)
		assert.Equal(t, "Veggie Wrap", got.Name)
		assert.Equal(t, 450, got.Calories)
		// Slot identity always follows the original, whatever the model said.
		assert.Equal(t, plan.DayTuesday, got.Day)
		assert.Equal(t, plan.MealLunch, got.Type)
	})

	t.Run("CalorieDriftTooLarge_Propagates", func(t *testing.T) {
		replacement := strings.Replace(
			mealJSON(plan.DayTuesday, plan.MealLunch, "Veggie Wrap"),
			`"calories": 420,`, `"calories": 700,`, 1)
		gen := &fakeGenerator{respond: func(context.Context, int, string, outbound.GenerationParams) (string, error) {
			return replacement, nil
		}}
		svc := newTestService(t, Config{CalorieDelta: 50}, gen, nil)

		_, err := svc.RegenerateMeal(context.Background(), plan.UserProfile{}, originalMeal(), "")

		require.Error(t, err)
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
		assert.Contains(t, err.Error(), "meal regeneration")
	})

	t.Run("SameName_Propagates", func(t *testing.T) {
		gen := &fakeGenerator{respond: func(context.Context, int, string, outbound.GenerationParams) (string, error) {
			return mealJSON(plan.DayTuesday, plan.MealLunch, "greek salad"), nil
		}}
		svc := newTestService(t, Config{}, gen, nil)

		_, err := svc.RegenerateMeal(context.Background(), plan.UserProfile{}, originalMeal(), "")

		require.Error(t, err)
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("SameDescription_Propagates", func(t *testing.T) {
		replacement := strings.Replace(
			mealJSON(plan.DayTuesday, plan.MealLunch, "Totally Different Name"),
			"A tasty meal.", "Crisp salad with feta.", 1)
		gen := &fakeGenerator{respond: func(context.Context, int, string, outbound.GenerationParams) (string, error) {
			return replacement, nil
		}}
		svc := newTestService(t, Config{}, gen, nil)

		_, err := svc.RegenerateMeal(context.Background(), plan.UserProfile{}, originalMeal(), "")

		require.Error(t, err)
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
		assert.Contains(t, err.Error(), "description")
	})

	t.Run("ServiceFailure_Propagates", func(t *testing.T) {
		gen := &fakeGenerator{respond: func(context.Context, int, string, outbound.GenerationParams) (string, error) {
			return "", errors.New("upstream is down")
		}}
		svc := newTestService(t, Config{}, gen, nil)

		_, err := svc.RegenerateMeal(context.Background(), plan.UserProfile{}, originalMeal(), "")

		assert.ErrorIs(t, err, ErrServiceUnavailable)
	})

	t.Run("MalformedOutput_Propagates", func(t *testing.T) {
		gen := &fakeGenerator{respond: func(context.Context, int, string, outbound.GenerationParams) (string, error) {
			return "sorry, I cannot help with that", nil
		}}
		svc := newTestService(t, Config{}, gen, nil)

		_, err := svc.RegenerateMeal(context.Background(), plan.UserProfile{}, originalMeal(), "")

		assert.ErrorIs(t, err, ErrMalformedResponse)
	})
}

func TestGeneratePlanProgress(t *testing.T) {
	t.Run("EmitsDayEventsInWeekOrder", func(t *testing.T) {
		gen := &fakeGenerator{respond: func(_ context.Context, n int, _ string, _ outbound.GenerationParams) (string, error) {
			return dayResponse(plan.Days()[n]), nil
		}}
		svc := newTestService(t, Config{Strategy: StrategyPerDay}, gen, nil)

		var events []inbound.ProgressEvent
		p, err := svc.GeneratePlanProgress(context.Background(), plan.UserProfile{}, testRequest(),
			func(ev inbound.ProgressEvent) { events = append(events, ev) })

		require.NoError(t, err)
		require.NoError(t, p.Validate())

		// started + 7 day pairs + completed.
		require.Len(t, events, 2+2*7)
		assert.Equal(t, inbound.StageStarted, events[0].Stage)
		for i, d := range plan.Days() {
			startEv := events[1+2*i]
			doneEv := events[2+2*i]
			assert.Equal(t, inbound.StageDayStarted, startEv.Stage)
			assert.Equal(t, d, startEv.Day)
			assert.Equal(t, inbound.StageDayCompleted, doneEv.Stage)
			assert.Equal(t, d, doneEv.Day)
			assert.Len(t, doneEv.Meals, plan.MealsPerDay)
		}
		final := events[len(events)-1]
		assert.Equal(t, inbound.StageCompleted, final.Stage)
		require.NotNil(t, final.Plan)
		assert.Equal(t, p.ID, final.Plan.ID)
	})

	t.Run("FailureDegradesAndReplaysDayEvents", func(t *testing.T) {
		gen := &fakeGenerator{respond: func(context.Context, int, string, outbound.GenerationParams) (string, error) {
			return "", errors.New("upstream is down")
		}}
		svc := newTestService(t, Config{Strategy: StrategyPerDay}, gen, nil)

		var events []inbound.ProgressEvent
		p, err := svc.GeneratePlanProgress(context.Background(), plan.UserProfile{}, testRequest(),
			func(ev inbound.ProgressEvent) { events = append(events, ev) })

		require.NoError(t, err)
		assert.Equal(t, plan.SourceFallback, p.Source)

		final := events[len(events)-1]
		require.Equal(t, inbound.StageCompleted, final.Stage)
		require.NotNil(t, final.Plan)
		assert.Equal(t, plan.SourceFallback, final.Plan.Source)

		// The replacement plan replays a full week of day events before
		// completing, each carrying that day's meals.
		replay := events[len(events)-1-2*7 : len(events)-1]
		for i, d := range plan.Days() {
			assert.Equal(t, inbound.StageDayStarted, replay[2*i].Stage)
			assert.Equal(t, d, replay[2*i].Day)
			assert.Equal(t, inbound.StageDayCompleted, replay[2*i+1].Stage)
			assert.Len(t, replay[2*i+1].Meals, plan.MealsPerDay)
		}
	})

	t.Run("CacheHit_ReplaysEventsWithoutModelCalls", func(t *testing.T) {
		gen := &fakeGenerator{respond: func(_ context.Context, n int, _ string, _ outbound.GenerationParams) (string, error) {
			if n >= 7 {
				return "", errors.New("model must not be called again")
			}
			return dayResponse(plan.Days()[n]), nil
		}}
		cache := newFakePlanCache()
		svc := newTestService(t, Config{Strategy: StrategyPerDay}, gen, cache)

		first, err := svc.GeneratePlanProgress(context.Background(), plan.UserProfile{}, testRequest(), nil)
		require.NoError(t, err)
		require.Equal(t, 1, cache.stores)

		var events []inbound.ProgressEvent
		second, err := svc.GeneratePlanProgress(context.Background(), plan.UserProfile{}, testRequest(),
			func(ev inbound.ProgressEvent) { events = append(events, ev) })

		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID, "second stream must come from the cache")
		assert.Equal(t, 7, gen.callCount())

		// The cached plan replays the full event sequence.
		require.Len(t, events, 2+2*7)
		assert.Equal(t, inbound.StageStarted, events[0].Stage)
		for i, d := range plan.Days() {
			assert.Equal(t, inbound.StageDayStarted, events[1+2*i].Stage)
			assert.Equal(t, d, events[1+2*i].Day)
			assert.Equal(t, inbound.StageDayCompleted, events[2+2*i].Stage)
			assert.Len(t, events[2+2*i].Meals, plan.MealsPerDay)
		}
		final := events[len(events)-1]
		assert.Equal(t, inbound.StageCompleted, final.Stage)
		require.NotNil(t, final.Plan)
		assert.Equal(t, first.ID, final.Plan.ID)
	})

	t.Run("FallbackStream_IsNeverCached", func(t *testing.T) {
		gen := &fakeGenerator{respond: func(context.Context, int, string, outbound.GenerationParams) (string, error) {
			return "", errors.New("upstream is down")
		}}
		cache := newFakePlanCache()
		svc := newTestService(t, Config{Strategy: StrategyPerDay}, gen, cache)

		p, err := svc.GeneratePlanProgress(context.Background(), plan.UserProfile{}, testRequest(), nil)
		require.NoError(t, err)
		assert.Equal(t, plan.SourceFallback, p.Source)
		assert.Zero(t, cache.stores)
	})

	t.Run("NilCallback_IsAllowed", func(t *testing.T) {
		gen := &fakeGenerator{respond: func(_ context.Context, n int, _ string, _ outbound.GenerationParams) (string, error) {
			return dayResponse(plan.Days()[n]), nil
		}}
		svc := newTestService(t, Config{Strategy: StrategyPerDay}, gen, nil)

		p, err := svc.GeneratePlanProgress(context.Background(), plan.UserProfile{}, testRequest(), nil)
		require.NoError(t, err)
		require.NoError(t, p.Validate())
	})
}

func TestFailureKind(t *testing.T) {
	assert.Equal(t, "timeout", failureKind(fmt.Errorf("wrapped: %w", ErrTimeout)))
	assert.Equal(t, "malformed_response", failureKind(fmt.Errorf("wrapped: %w", ErrMalformedResponse)))
	assert.Equal(t, "service_unavailable", failureKind(fmt.Errorf("wrapped: %w", ErrServiceUnavailable)))
	assert.Equal(t, "validation", failureKind(validationErr("bad shape", nil)))
	assert.Equal(t, "internal", failureKind(errors.New("programmer mistake")))
}

func TestCacheKeyIsInputSensitive(t *testing.T) {
	cfg := Config{Strategy: StrategySingleShot, Model: "primary"}
	base := cacheKey(plan.UserProfile{}, testRequest(), cfg)

	assert.Equal(t, base, cacheKey(plan.UserProfile{}, testRequest(), cfg))

	otherReq := testRequest()
	otherReq.Preferences = []string{"vegan"}
	assert.NotEqual(t, base, cacheKey(plan.UserProfile{}, otherReq, cfg))

	otherCfg := cfg
	otherCfg.Model = "cheap"
	assert.NotEqual(t, base, cacheKey(plan.UserProfile{}, testRequest(), otherCfg))
}

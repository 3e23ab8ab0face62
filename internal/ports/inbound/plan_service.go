// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"

	"github.com/platewise/v2/internal/domain/plan"
)

// PlanService defines the generation use cases exposed to driving adapters.
type PlanService interface {
	// GeneratePlan produces a complete weekly plan for the profile and
	// request. It never returns an error for expected failure modes:
	// when the model path cannot produce a valid plan the deterministic
	// fallback plan is returned instead.
	GeneratePlan(ctx context.Context, profile plan.UserProfile, req plan.PlanRequest) (*plan.DietPlan, error)

	// GeneratePlanProgress behaves like GeneratePlan but reports progress
	// through onProgress as each day completes. Day events are emitted in
	// week order. onProgress is called from the calling goroutine.
	GeneratePlanProgress(ctx context.Context, profile plan.UserProfile, req plan.PlanRequest, onProgress func(ProgressEvent)) (*plan.DietPlan, error)

	// RegenerateMeal produces a replacement for an existing meal with
	// calories within a bounded delta of the original and content that
	// differs from it. Unlike full-plan generation it has no safe static
	// substitute, so failures are reported to the caller.
	RegenerateMeal(ctx context.Context, profile plan.UserProfile, meal plan.Meal, requirement string) (*plan.Meal, error)
}

// ProgressStage identifies a point in progressive plan generation.
type ProgressStage string

const (
	StageStarted      ProgressStage = "started"
	StageDayStarted   ProgressStage = "day_started"
	StageDayCompleted ProgressStage = "day_completed"
	StageCompleted    ProgressStage = "completed"
)

// ProgressEvent is one step in progressive plan generation.
type ProgressEvent struct {
	Stage ProgressStage `json:"stage"`
	// Day is set for day_started and day_completed events.
	Day plan.Day `json:"day,omitempty"`
	// Meals carries the completed day's meals for day_completed events.
	Meals []plan.Meal `json:"meals,omitempty"`
	// Plan carries the finished plan for the completed event.
	Plan *plan.DietPlan `json:"plan,omitempty"`
}

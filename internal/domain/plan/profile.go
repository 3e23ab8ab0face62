package plan

import (
	"strings"
	"time"
)

// UserProfile is the caller-supplied profile a plan is generated for.
// All fields are optional; unset values are rendered as "Not specified"
// when the profile is turned into a prompt.
type UserProfile struct {
	Age           *int     `json:"age,omitempty"`
	WeightKg      *float64 `json:"weight_kg,omitempty"`
	HeightCm      *float64 `json:"height_cm,omitempty"`
	Gender        string   `json:"gender,omitempty"`
	Nationality   string   `json:"nationality,omitempty"`
	Goal          string   `json:"goal,omitempty"`
	ActivityLevel string   `json:"activity_level,omitempty"`
	Preferences   []string `json:"preferences,omitempty"`
}

// PlanRequest describes the plan the caller wants generated.
type PlanRequest struct {
	Name              string    `json:"name"`
	Preferences       []string  `json:"preferences,omitempty"`
	CustomRequirement string    `json:"custom_requirement,omitempty"`
	WeekStart         time.Time `json:"week_start"`
}

// CombinedPreferences merges profile and request preference tags,
// dropping blanks and duplicates while keeping first-seen order.
func (r PlanRequest) CombinedPreferences(profile UserProfile) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(profile.Preferences)+len(r.Preferences))
	for _, tag := range append(append([]string{}, profile.Preferences...), r.Preferences...) {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[strings.ToLower(tag)] {
			continue
		}
		seen[strings.ToLower(tag)] = true
		out = append(out, tag)
	}
	return out
}

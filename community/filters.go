package community

import (
	"fmt"
	"time"
)

// Deterministic rule criteria. The evaluator set is closed; unknown keys in
// stored configuration are skipped as a forward-compatible no-op rather than
// rejected.
type CriterionKey string

const (
	CriterionPostsInOneHour  CriterionKey = "postsInOneHour"
	CriterionShortPost       CriterionKey = "shortPost"
	CriterionTooManyHashtags CriterionKey = "tooManyHashtags"
)

type Criterion struct {
	Key       CriterionKey `json:"key" bson:"key"`
	Threshold int          `json:"threshold" bson:"threshold"`
	Enabled   bool         `json:"enabled" bson:"enabled"`
}

type Action string

const (
	ActionBlockPost   Action = "blockPost"
	ActionTimeoutUser Action = "timeoutUser"
)

func ParseAction(raw string) (Action, error) {
	switch Action(raw) {
	case ActionBlockPost, ActionTimeoutUser:
		return Action(raw), nil
	default:
		return "", fmt.Errorf("unknown filter action: %q", raw)
	}
}

type TimeoutDuration string

const (
	TimeoutOneHour TimeoutDuration = "1-hour"
	TimeoutOneDay  TimeoutDuration = "1-day"
	TimeoutOneWeek TimeoutDuration = "1-week"
)

// Duration converts the configured enum value to a concrete offset. Unknown
// values return an error so that callers can fail closed (no timeout applied)
// instead of guessing.
func (d TimeoutDuration) Duration() (time.Duration, error) {
	switch d {
	case TimeoutOneHour:
		return time.Hour, nil
	case TimeoutOneDay:
		return 24 * time.Hour, nil
	case TimeoutOneWeek:
		return 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown timeout duration: %q", string(d))
	}
}

type ActionConfig struct {
	TimeoutDuration TimeoutDuration `json:"timeoutDuration,omitempty" bson:"timeoutDuration,omitempty"`
}

// An administrator-configured, deterministically evaluated moderation rule.
// Name uniquely identifies the filter within a community.
type PresetFilter struct {
	Name         string       `json:"name" bson:"name"`
	Criteria     []Criterion  `json:"criteria" bson:"criteria"`
	Actions      []Action     `json:"actions" bson:"actions"`
	ActionConfig ActionConfig `json:"actionConfig,omitempty" bson:"actionConfig,omitempty"`
	Enabled      bool         `json:"enabled" bson:"enabled"`
}

func (f *PresetFilter) HasAction(a Action) bool {
	for _, act := range f.Actions {
		if act == a {
			return true
		}
	}
	return false
}

type PresetConfig struct {
	Options []PresetFilter `json:"options" bson:"options"`
	Enabled bool           `json:"enabled" bson:"enabled"`
}

// A natural-language rule whose violation is judged by an external
// classification model rather than deterministic code.
type GeneratedFilter struct {
	Title       string `json:"title" bson:"title"`
	Description string `json:"description" bson:"description"`
	Enabled     bool   `json:"enabled" bson:"enabled"`
}

type GeneratedConfig struct {
	Options []GeneratedFilter `json:"options" bson:"options"`
	Enabled bool              `json:"enabled" bson:"enabled"`
}

// EnabledOptions returns only the filters that should be sent to the
// classifier, preserving declaration order.
func (g *GeneratedConfig) EnabledOptions() []GeneratedFilter {
	var out []GeneratedFilter
	for _, f := range g.Options {
		if f.Enabled {
			out = append(out, f)
		}
	}
	return out
}

// Per-community moderation configuration.
type ModerationFilters struct {
	Presets          PresetConfig    `json:"presets" bson:"presets"`
	GeneratedFilters GeneratedConfig `json:"generatedFilters" bson:"generatedFilters"`
}

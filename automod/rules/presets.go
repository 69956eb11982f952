package rules

import (
	"context"
	"fmt"

	"github.com/Tammibriggs/we-conect-community/community"
)

// EvaluatePresets runs every enabled criterion of every enabled preset filter
// against the post, returning a mapping of filter name to the reason strings
// of its fired criteria.
//
// Filters with no fired criteria contribute no map entry at all; enforcement
// uses key presence as the "did this filter fire" check. Reason order within
// a filter matches criteria declaration order, so repeated evaluation of the
// same snapshot yields an identical mapping.
func EvaluatePresets(ctx context.Context, post *community.Post, filters []community.PresetFilter, history PostHistory) (map[string][]string, error) {
	violations := make(map[string][]string)

	for _, filter := range filters {
		if !filter.Enabled {
			continue
		}
		var reasons []string
		for _, criterion := range filter.Criteria {
			if !criterion.Enabled {
				continue
			}
			fn, ok := criterionFuncs[criterion.Key]
			if !ok {
				// unknown criterion keys are ignored, not an error
				continue
			}
			violated, err := fn(ctx, post, criterion.Threshold, history)
			if err != nil {
				return nil, fmt.Errorf("evaluating %q criterion of filter %q: %w", criterion.Key, filter.Name, err)
			}
			if violated {
				reasons = append(reasons, criterionReason(criterion.Key, criterion.Threshold))
			}
		}
		if len(reasons) > 0 {
			violations[filter.Name] = reasons
		}
	}
	return violations, nil
}

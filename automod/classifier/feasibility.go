package classifier

import (
	"context"
	"encoding/json"
	"fmt"
)

type Feasibility int

const (
	Feasible Feasibility = iota
	PartiallyFeasible
	Infeasible
)

func (f Feasibility) String() string {
	switch f {
	case Feasible:
		return "feasible"
	case PartiallyFeasible:
		return "partially-feasible"
	case Infeasible:
		return "infeasible"
	default:
		return "unknown"
	}
}

// Outcome of evaluating whether a proposed custom filter is enforceable by
// content classification alone. Exactly one of the Description or ErrMessage
// branches is populated, depending on Kind.
type FeasibilityResult struct {
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	PartialMatch []string `json:"partial_match,omitempty"`
	ErrMessage   string   `json:"error,omitempty"`
	Suggestion   string   `json:"suggestion,omitempty"`
}

func (r *FeasibilityResult) Kind() Feasibility {
	if r.ErrMessage != "" {
		return Infeasible
	}
	if len(r.PartialMatch) > 0 {
		return PartiallyFeasible
	}
	return Feasible
}

const feasibilityPreamble = `You evaluate whether a proposed community moderation filter can be enforced by analyzing only a post's text body and media.
Respond with only one JSON object. If the filter is enforceable (fully or partially), use:
{"title": "<title>", "description": "Block <how violations are identified>", "partial_match": ["<detectable parts, empty if fully enforceable>"]}
If it is not enforceable, use:
{"title": "<title>", "error": "<why not>", "suggestion": "<how to make it enforceable>"}`

// EvaluateFilter asks the model whether a filter described by the given title
// is enforceable, returning the parsed tagged result. Used when an
// administrator authors a new generated filter; not part of the per-post
// decision path.
func (a *Adapter) EvaluateFilter(ctx context.Context, filterTitle string) (*FeasibilityResult, error) {
	prompt := fmt.Sprintf("%s\n\n**Title**: %s", feasibilityPreamble, filterTitle)

	raw, err := a.Raw.GenerateContent(ctx, prompt, nil)
	if err != nil {
		return nil, fmt.Errorf("feasibility request: %w", err)
	}

	payload := ExtractJSONObject(raw)
	if payload == "" {
		return nil, newClassificationError("no JSON object in model output", raw, nil)
	}
	var result FeasibilityResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, newClassificationError("malformed feasibility object", raw, err)
	}
	if result.Title == "" {
		return nil, newClassificationError("feasibility result missing title", raw, nil)
	}
	// the two shapes are mutually exclusive
	if result.ErrMessage != "" && result.Description != "" {
		return nil, newClassificationError("feasibility result mixes shapes", raw, nil)
	}
	if result.ErrMessage == "" && result.Description == "" {
		return nil, newClassificationError("feasibility result matches neither shape", raw, nil)
	}
	return &result, nil
}

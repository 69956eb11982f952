package engine

import (
	"time"
)

// Mutable container for the enforcement side-effects accumulated while
// folding preset and classifier violations. Combination is commutative:
// rejection is a boolean OR and timeouts sum, so filter evaluation order
// never changes the final decision.
type Effects struct {
	// Flattened violation reason strings, in insertion order: preset reasons
	// first (filter declaration order), then classifier rule titles.
	Violations []string
	// Names of preset filters and generated rules that fired, for counters
	// and notifications.
	FiredFilters []string
	// True when any fired filter carries the blockPost action, or the
	// classifier reported at least one violated rule.
	Reject bool
	// Sum of the timeout durations of fired filters carrying timeoutUser.
	TimeoutTotal time.Duration
}

// AddViolations records a fired filter and its reason strings.
func (e *Effects) AddViolations(name string, reasons ...string) {
	e.FiredFilters = append(e.FiredFilters, name)
	e.Violations = append(e.Violations, reasons...)
}

// RejectPost marks the post for rejection.
func (e *Effects) RejectPost() {
	e.Reject = true
}

// TimeoutMember stacks another timeout duration onto the member's combined
// restriction. Repeated offenses escalate by summing, not by taking the max.
func (e *Effects) TimeoutMember(d time.Duration) {
	e.TimeoutTotal += d
}

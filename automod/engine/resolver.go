package engine

import (
	"log/slog"
	"time"

	"github.com/Tammibriggs/we-conect-community/automod/classifier"
	"github.com/Tammibriggs/we-conect-community/community"
)

// Result of enforcement resolution. Post and Member are updated copies; the
// caller commits them (the engine performs no storage writes).
type Outcome struct {
	Post         community.Post
	Member       community.Member
	Violations   []string
	FiredFilters []string
	Rejected     bool
	// set when a combined timeout was applied to the member
	TimeoutUntil *time.Time
}

// ViolationOccurred reports whether this evaluation produced any violation.
// A member may carry a prior restriction record into a clean submission, so
// restriction-state writes must gate on this, not on Member.Restriction.
func (o *Outcome) ViolationOccurred() bool {
	return len(o.Violations) > 0
}

// ResolveEnforcement combines preset and classifier violations into the
// post's disposition and the member's compounded restriction. Pure with
// respect to its inputs: post and member are taken and returned by value.
//
// Admins are never resolved against; the inputs come back unchanged with no
// violations.
func ResolveEnforcement(now time.Time, post community.Post, member community.Member, presetViolations map[string][]string, verdicts []classifier.RuleVerdict, filters []community.PresetFilter, logger *slog.Logger) Outcome {
	if member.Role == community.RoleAdmin {
		return Outcome{Post: post, Member: member}
	}
	if logger == nil {
		logger = slog.Default()
	}

	eff := &Effects{}
	foldPresetViolations(eff, logger, presetViolations, filters)
	foldClassifierVerdicts(eff, verdicts)
	return applyEffects(now, post, member, eff)
}

// Folds fired preset filters into effects, walking filters in declaration
// order so reason flattening is deterministic.
func foldPresetViolations(eff *Effects, logger *slog.Logger, presetViolations map[string][]string, filters []community.PresetFilter) {
	for _, filter := range filters {
		reasons, fired := presetViolations[filter.Name]
		if !fired {
			continue
		}
		eff.AddViolations(filter.Name, reasons...)
		if filter.HasAction(community.ActionBlockPost) {
			eff.RejectPost()
		}
		if filter.HasAction(community.ActionTimeoutUser) {
			d, err := filter.ActionConfig.TimeoutDuration.Duration()
			if err != nil {
				// fail closed: no timeout from a misconfigured filter
				logger.Warn("invalid timeout duration configured, skipping timeout", "filter", filter.Name, "err", err)
				continue
			}
			eff.TimeoutMember(d)
		}
	}
}

// Classifier violations are block-only: they reject the post and count as
// violations, but generated filters carry no timeout configuration.
func foldClassifierVerdicts(eff *Effects, verdicts []classifier.RuleVerdict) {
	for _, v := range verdicts {
		if !v.Violated {
			continue
		}
		eff.AddViolations(v.RuleTitle, v.RuleTitle)
		eff.RejectPost()
	}
}

func applyEffects(now time.Time, post community.Post, member community.Member, eff *Effects) Outcome {
	out := Outcome{
		Post:         post,
		Member:       member,
		Violations:   eff.Violations,
		FiredFilters: eff.FiredFilters,
	}
	if len(eff.Violations) == 0 {
		return out
	}

	if eff.Reject {
		out.Post.Status = community.PostStatusRejected
		out.Post.RejectionReasons = eff.Violations
		out.Rejected = true
	}

	restriction := community.Restriction{}
	if member.Restriction != nil {
		restriction = *member.Restriction
	}
	restriction.ViolationsCount++
	restriction.Violations = eff.Violations
	if eff.TimeoutTotal > 0 {
		// combined end time is now + sum of durations; timeouts stack rather
		// than replace, reflecting repeated-offense escalation
		until := now.Add(eff.TimeoutTotal)
		restriction.EndTime = &until
		out.TimeoutUntil = &until
	}
	out.Member.Restriction = &restriction
	return out
}

package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Tammibriggs/we-conect-community/automod/cachestore"
	"github.com/Tammibriggs/we-conect-community/automod/classifier"
	"github.com/Tammibriggs/we-conect-community/automod/countstore"
	"github.com/Tammibriggs/we-conect-community/automod/rules"
	"github.com/Tammibriggs/we-conect-community/community"
)

// Source of per-community moderation configuration. Implemented by the
// document store; the engine stays agnostic to how many communities exist.
type ConfigSource interface {
	GetModerationFilters(ctx context.Context, communityID string) (*community.ModerationFilters, error)
}

// Releases a temporarily stored media asset. Invoked when classification
// fails and the upload would otherwise be orphaned.
type MediaCleaner interface {
	Delete(ctx context.Context, ref *community.MediaRef) error
}

// Judges a post against a community's generated filters. Implemented by
// classifier.Adapter; stubbed in tests.
type PostClassifier interface {
	ClassifyPost(ctx context.Context, post *community.Post, filters []community.GeneratedFilter) ([]classifier.RuleVerdict, error)
}

const configCacheName = "modcfg"

// Runtime for evaluating incoming posts against a community's moderation
// configuration and computing enforcement. Invoked once per submission,
// before the post is persisted; the caller commits the returned state.
//
// Logger, Configs, and History must be set. Classifier, Cache, Counters,
// Media, and Notifier are optional.
type Engine struct {
	Logger     *slog.Logger
	Configs    ConfigSource
	History    rules.PostHistory
	Classifier PostClassifier
	Cache      cachestore.CacheStore
	Counters   countstore.CountStore
	Media      MediaCleaner
	Notifier   *SlackNotifier
}

// ProcessPost evaluates one incoming post and returns the mutated post and
// member state plus the violation list for user-facing messaging. A rejected
// post is a successful outcome, not an error; errors mean the submission
// could not be evaluated at all and must not be created.
func (eng *Engine) ProcessPost(ctx context.Context, post community.Post, member community.Member) (outcome *Outcome, err error) {
	// similar to an HTTP server, we want to recover any panics from rule execution
	defer func() {
		if r := recover(); r != nil {
			eng.Logger.Error("automod event execution exception", "err", r, "community", post.CommunityID, "author", post.Author)
			outcome = nil
			err = fmt.Errorf("automod execution panic: %v", r)
		}
	}()

	logger := eng.Logger.With("community", post.CommunityID, "author", post.Author)
	start := time.Now()
	defer func() {
		postProcessDuration.Observe(time.Since(start).Seconds())
	}()

	// admins bypass all moderation
	if member.Role == community.RoleAdmin {
		postProcessCount.WithLabelValues("bypassed").Inc()
		out := Outcome{Post: post, Member: member}
		return &out, nil
	}

	now := time.Now()
	// an expired restriction must not leak into this evaluation
	if member.Restriction.Expired(now) {
		member.Restriction = nil
	}

	cfg, err := eng.GetModerationFilters(ctx, post.CommunityID)
	if err != nil {
		postProcessCount.WithLabelValues("error").Inc()
		return nil, err
	}

	var presetViolations map[string][]string
	if cfg.Presets.Enabled {
		presetViolations, err = rules.EvaluatePresets(ctx, &post, cfg.Presets.Options, eng.History)
		if err != nil {
			postProcessCount.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("evaluating preset filters: %w", err)
		}
	}

	var verdicts []classifier.RuleVerdict
	if cfg.GeneratedFilters.Enabled {
		opts := cfg.GeneratedFilters.EnabledOptions()
		if len(opts) > 0 {
			if eng.Classifier == nil {
				logger.Warn("generated filters enabled but no classifier configured; skipping")
			} else {
				verdicts, err = eng.Classifier.ClassifyPost(ctx, &post, opts)
				if err != nil {
					// fatal for this submission: the post will not be created,
					// so release the now-orphaned media
					eng.cleanupMedia(ctx, logger, post.Media)
					postProcessCount.WithLabelValues("error").Inc()
					return nil, fmt.Errorf("classifying post: %w", err)
				}
			}
		}
	}

	out := ResolveEnforcement(now, post, member, presetViolations, verdicts, cfg.Presets.Options, logger)

	eng.persistCounters(ctx, logger, &out)
	postProcessCount.WithLabelValues(string(out.Post.Status)).Inc()
	for _, name := range out.FiredFilters {
		filterViolationCount.WithLabelValues(name).Inc()
	}
	if out.TimeoutUntil != nil {
		memberTimeoutCount.Inc()
	}

	eng.canonicalLogLine(logger, &out)

	if eng.Notifier != nil && (out.Rejected || out.TimeoutUntil != nil) {
		if err := eng.Notifier.SendEnforcement(ctx, &out); err != nil {
			logger.Error("sending enforcement notification", "err", err)
		}
	}
	return &out, nil
}

// GetModerationFilters loads a community's moderation configuration, using
// the cache store when one is configured. Admin mutations to the
// configuration should call PurgeConfigCache.
func (eng *Engine) GetModerationFilters(ctx context.Context, communityID string) (*community.ModerationFilters, error) {
	if eng.Cache != nil {
		cached, err := eng.Cache.Get(ctx, configCacheName, communityID)
		if err != nil {
			return nil, fmt.Errorf("checking moderation config cache: %w", err)
		}
		if cached != "" {
			var cfg community.ModerationFilters
			if err := json.Unmarshal([]byte(cached), &cfg); err != nil {
				return nil, fmt.Errorf("parsing cached moderation config: %w", err)
			}
			return &cfg, nil
		}
	}

	cfg, err := eng.Configs.GetModerationFilters(ctx, communityID)
	if err != nil {
		return nil, fmt.Errorf("fetching moderation config: %w", err)
	}

	if eng.Cache != nil {
		val, err := json.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("serializing moderation config: %w", err)
		}
		if err := eng.Cache.Set(ctx, configCacheName, communityID, string(val)); err != nil {
			eng.Logger.Error("writing moderation config cache", "err", err, "community", communityID)
		}
	}
	return cfg, nil
}

func (eng *Engine) PurgeConfigCache(ctx context.Context, communityID string) error {
	if eng.Cache == nil {
		return nil
	}
	return eng.Cache.Purge(ctx, configCacheName, communityID)
}

// counter bookkeeping is best-effort; a counter outage must not flip a valid
// moderation decision into a failed submission
func (eng *Engine) persistCounters(ctx context.Context, logger *slog.Logger, out *Outcome) {
	if eng.Counters == nil {
		return
	}
	if err := eng.Counters.Increment(ctx, "processed", out.Post.CommunityID); err != nil {
		logger.Error("incrementing processed counter", "err", err)
		return
	}
	if out.Rejected {
		if err := eng.Counters.Increment(ctx, "rejected", out.Post.CommunityID); err != nil {
			logger.Error("incrementing rejected counter", "err", err)
		}
	}
	for _, name := range out.FiredFilters {
		if err := eng.Counters.Increment(ctx, "violation", name); err != nil {
			logger.Error("incrementing violation counter", "err", err)
		}
	}
}

func (eng *Engine) cleanupMedia(ctx context.Context, logger *slog.Logger, ref *community.MediaRef) {
	if ref == nil || eng.Media == nil {
		return
	}
	if err := eng.Media.Delete(ctx, ref); err != nil {
		logger.Error("releasing orphaned media", "err", err, "filename", ref.Filename)
	}
}

func (eng *Engine) canonicalLogLine(logger *slog.Logger, out *Outcome) {
	// slog cannot render a nil *time.Time: the promoted value-receiver
	// MarshalText panics on the nil pointer
	var timeoutUntil any
	if out.TimeoutUntil != nil {
		timeoutUntil = *out.TimeoutUntil
	}
	logger.Info("automod post processed",
		"status", out.Post.Status,
		"violations", len(out.Violations),
		"firedFilters", out.FiredFilters,
		"timeoutUntil", timeoutUntil,
	)
}

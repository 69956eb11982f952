package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/Tammibriggs/we-conect-community/automod/cachestore"
	"github.com/Tammibriggs/we-conect-community/automod/classifier"
	"github.com/Tammibriggs/we-conect-community/automod/countstore"
	"github.com/Tammibriggs/we-conect-community/community"
)

// StaticConfigSource serves the same moderation configuration for every
// community. Intended for tests and local development.
type StaticConfigSource struct {
	Filters community.ModerationFilters
	Fetches int
}

func (s *StaticConfigSource) GetModerationFilters(ctx context.Context, communityID string) (*community.ModerationFilters, error) {
	s.Fetches++
	cfg := s.Filters
	return &cfg, nil
}

// MemPostHistory is a fixed-count post history lookup for tests.
type MemPostHistory struct {
	Counts map[string]int
	Err    error
}

func (h *MemPostHistory) CountPostsByAuthorSince(ctx context.Context, communityID, author string, since time.Time) (int, error) {
	if h.Err != nil {
		return 0, h.Err
	}
	return h.Counts[communityID+"/"+author], nil
}

// StubClassifier returns canned verdicts (or a canned error) without calling
// any external model.
type StubClassifier struct {
	Verdicts []classifier.RuleVerdict
	Err      error
	Calls    int
}

func (s *StubClassifier) ClassifyPost(ctx context.Context, post *community.Post, filters []community.GeneratedFilter) ([]classifier.RuleVerdict, error) {
	s.Calls++
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Verdicts, nil
}

// CapturingCleaner records media deletions for assertions.
type CapturingCleaner struct {
	Deleted []string
}

func (c *CapturingCleaner) Delete(ctx context.Context, ref *community.MediaRef) error {
	c.Deleted = append(c.Deleted, ref.Filename)
	return nil
}

// SpamFilterFixture is the original seed configuration: one preset filter
// with the posting-rate and short-post criteria.
func SpamFilterFixture() community.PresetFilter {
	return community.PresetFilter{
		Name:    "Spam Filter",
		Enabled: true,
		Criteria: []community.Criterion{
			{Key: community.CriterionPostsInOneHour, Threshold: 20, Enabled: true},
			{Key: community.CriterionShortPost, Threshold: 10, Enabled: true},
		},
		Actions:      []community.Action{community.ActionBlockPost},
		ActionConfig: community.ActionConfig{TimeoutDuration: community.TimeoutOneHour},
	}
}

func EngineTestFixture() (*Engine, *MemPostHistory, *StaticConfigSource) {
	history := &MemPostHistory{Counts: map[string]int{}}
	configs := &StaticConfigSource{
		Filters: community.ModerationFilters{
			Presets: community.PresetConfig{
				Enabled: true,
				Options: []community.PresetFilter{SpamFilterFixture()},
			},
		},
	}
	eng := &Engine{
		Logger:   slog.Default(),
		Configs:  configs,
		History:  history,
		Cache:    cachestore.NewMemCacheStore(10, time.Hour),
		Counters: countstore.NewMemCountStore(),
	}
	return eng, history, configs
}

package rules

import (
	"context"
	"fmt"
	"testing"

	"github.com/Tammibriggs/we-conect-community/community"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spamFilter() community.PresetFilter {
	return community.PresetFilter{
		Name:    "Spam Filter",
		Enabled: true,
		Criteria: []community.Criterion{
			{Key: community.CriterionPostsInOneHour, Threshold: 20, Enabled: true},
			{Key: community.CriterionShortPost, Threshold: 10, Enabled: true},
		},
		Actions: []community.Action{community.ActionBlockPost},
	}
}

func TestEvaluatePresetsBasics(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	hist := &memHistory{counts: map[string]int{"c1/u1": 21}}
	post := testPost("short")

	violations, err := EvaluatePresets(ctx, post, []community.PresetFilter{spamFilter()}, hist)
	require.NoError(t, err)
	require.Contains(t, violations, "Spam Filter")

	// both criteria fired, reasons in criteria declaration order
	assert.Equal([]string{
		"20 post in one hour",
		"Post with less than 10 characters",
	}, violations["Spam Filter"])
}

func TestEvaluatePresetsSkipsDisabled(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	hist := &memHistory{counts: map[string]int{"c1/u1": 21}}

	disabled := spamFilter()
	disabled.Enabled = false
	violations, err := EvaluatePresets(ctx, testPost("short"), []community.PresetFilter{disabled}, hist)
	assert.NoError(err)
	assert.Empty(violations)

	// disabled criterion is skipped even when it would fire
	f := spamFilter()
	f.Criteria[1].Enabled = false
	violations, err = EvaluatePresets(ctx, testPost("short but long enough here"), []community.PresetFilter{f}, hist)
	assert.NoError(err)
	assert.Equal([]string{"20 post in one hour"}, violations["Spam Filter"])
}

func TestEvaluatePresetsNoEntryWhenClean(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	hist := &memHistory{counts: map[string]int{}}

	violations, err := EvaluatePresets(ctx, testPost("a perfectly reasonable post"), []community.PresetFilter{spamFilter()}, hist)
	assert.NoError(err)

	// the key must be absent, not present with an empty list
	_, present := violations["Spam Filter"]
	assert.False(present)
	assert.Len(violations, 0)
}

func TestEvaluatePresetsUnknownCriterionIgnored(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	f := community.PresetFilter{
		Name:    "Future Filter",
		Enabled: true,
		Criteria: []community.Criterion{
			{Key: community.CriterionKey("sentimentScore"), Threshold: 5, Enabled: true},
			{Key: community.CriterionShortPost, Threshold: 10, Enabled: true},
		},
	}
	violations, err := EvaluatePresets(ctx, testPost("short"), []community.PresetFilter{f}, nil)
	assert.NoError(err)
	assert.Equal([]string{"Post with less than 10 characters"}, violations["Future Filter"])
}

func TestEvaluatePresetsIdempotent(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	hist := &memHistory{counts: map[string]int{"c1/u1": 25}}
	post := testPost("spam #a #b #c #d")

	filters := []community.PresetFilter{
		spamFilter(),
		{
			Name:    "Hashtag Filter",
			Enabled: true,
			Criteria: []community.Criterion{
				{Key: community.CriterionTooManyHashtags, Threshold: 3, Enabled: true},
			},
		},
	}

	first, err := EvaluatePresets(ctx, post, filters, hist)
	assert.NoError(err)
	second, err := EvaluatePresets(ctx, post, filters, hist)
	assert.NoError(err)
	assert.Equal(first, second)
}

func TestEvaluatePresetsHistoryFailure(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	// a database outage must fail the evaluation, not approve the post
	hist := &memHistory{err: fmt.Errorf("mongo: server selection timeout")}
	_, err := EvaluatePresets(ctx, testPost("some reasonable content"), []community.PresetFilter{spamFilter()}, hist)
	assert.Error(err)
}

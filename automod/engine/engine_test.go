package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tammibriggs/we-conect-community/automod/classifier"
	"github.com/Tammibriggs/we-conect-community/community"
)

func TestProcessPostClean(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	eng, _, _ := EngineTestFixture()
	post := community.Post{CommunityID: "c1", Author: "alice", Content: "a perfectly reasonable post", Status: community.PostStatusApproved}
	member := community.Member{UserID: "alice", Role: community.RoleMember}

	out, err := eng.ProcessPost(ctx, post, member)
	require.NoError(err)
	assert.Equal(community.PostStatusApproved, out.Post.Status)
	assert.False(out.Rejected)
	assert.Nil(out.Member.Restriction)
	assert.Empty(out.Violations)
}

func TestProcessPostCleanWithPriorRestriction(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	eng, _, _ := EngineTestFixture()
	// prior blockPost-only offenses left a restriction record with no endTime
	member := community.Member{
		UserID: "alice",
		Role:   community.RoleMember,
		Restriction: &community.Restriction{
			ViolationsCount: 2,
			Violations:      []string{"Post with less than 10 characters"},
		},
	}
	post := community.Post{CommunityID: "c1", Author: "alice", Content: "a perfectly reasonable post", Status: community.PostStatusApproved}

	out, err := eng.ProcessPost(ctx, post, member)
	require.NoError(err)
	// a clean submission is not a new offense: nothing to commit
	assert.False(out.ViolationOccurred())
	require.NotNil(out.Member.Restriction)
	assert.Equal(2, out.Member.Restriction.ViolationsCount)

	// an actual offense does report one
	post.Content = "hi"
	out, err = eng.ProcessPost(ctx, post, member)
	require.NoError(err)
	assert.True(out.ViolationOccurred())
	assert.Equal(3, out.Member.Restriction.ViolationsCount)
}

func TestProcessPostAdminBypass(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	eng, _, _ := EngineTestFixture()
	// content that would trip the short-post criterion for anyone else
	post := community.Post{CommunityID: "c1", Author: "root", Content: "hi", Status: community.PostStatusApproved}
	admin := community.Member{UserID: "root", Role: community.RoleAdmin}

	out, err := eng.ProcessPost(ctx, post, admin)
	require.NoError(err)
	assert.Equal(community.PostStatusApproved, out.Post.Status)
	assert.Empty(out.Violations)
}

func TestProcessPostPostingRate(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	eng, history, _ := EngineTestFixture()
	member := community.Member{UserID: "alice", Role: community.RoleMember}
	post := community.Post{CommunityID: "c1", Author: "alice", Content: "a perfectly reasonable post", Status: community.PostStatusApproved}

	// exactly at the threshold is allowed
	history.Counts["c1/alice"] = 20
	out, err := eng.ProcessPost(ctx, post, member)
	require.NoError(err)
	assert.False(out.Rejected)

	// one past the threshold is not
	history.Counts["c1/alice"] = 21
	out, err = eng.ProcessPost(ctx, post, member)
	require.NoError(err)
	assert.True(out.Rejected)
	assert.Equal([]string{"20 post in one hour"}, out.Violations)
	require.NotNil(out.Member.Restriction)
	assert.Equal(1, out.Member.Restriction.ViolationsCount)
}

func TestProcessPostHistoryOutage(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, history, _ := EngineTestFixture()
	history.Err = errors.New("connection refused")
	post := community.Post{CommunityID: "c1", Author: "alice", Content: "a perfectly reasonable post"}
	member := community.Member{UserID: "alice", Role: community.RoleMember}

	// a history outage must not silently approve
	out, err := eng.ProcessPost(ctx, post, member)
	assert.Error(err)
	assert.Nil(out)
}

func TestProcessPostDisabledConfig(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	eng, history, configs := EngineTestFixture()
	configs.Filters.Presets.Enabled = false
	history.Counts["c1/alice"] = 100

	post := community.Post{CommunityID: "c1", Author: "alice", Content: "hi", Status: community.PostStatusApproved}
	member := community.Member{UserID: "alice", Role: community.RoleMember}

	out, err := eng.ProcessPost(ctx, post, member)
	require.NoError(err)
	assert.False(out.Rejected)
	assert.Empty(out.Violations)
}

func TestProcessPostExpiredRestrictionCleared(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	eng, _, _ := EngineTestFixture()
	past := time.Now().Add(-time.Hour)
	member := community.Member{
		UserID: "alice",
		Role:   community.RoleMember,
		Restriction: &community.Restriction{
			ViolationsCount: 5,
			Violations:      []string{"old reason"},
			EndTime:         &past,
		},
	}
	post := community.Post{CommunityID: "c1", Author: "alice", Content: "a perfectly reasonable post", Status: community.PostStatusApproved}

	out, err := eng.ProcessPost(ctx, post, member)
	require.NoError(err)
	// the stale restriction does not survive a clean evaluation
	assert.Nil(out.Member.Restriction)

	// and a new offense starts counting from scratch
	post.Content = "hi"
	out, err = eng.ProcessPost(ctx, post, member)
	require.NoError(err)
	require.NotNil(out.Member.Restriction)
	assert.Equal(1, out.Member.Restriction.ViolationsCount)
}

func TestProcessPostCombinedTimeout(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	eng, _, configs := EngineTestFixture()
	configs.Filters.Presets.Options = []community.PresetFilter{
		timeoutFilter("Hourly", community.TimeoutOneHour),
		timeoutFilter("Daily", community.TimeoutOneDay),
	}

	post := community.Post{CommunityID: "c1", Author: "alice", Content: "hi", Status: community.PostStatusApproved}
	member := community.Member{UserID: "alice", Role: community.RoleMember}

	out, err := eng.ProcessPost(ctx, post, member)
	require.NoError(err)
	require.NotNil(out.TimeoutUntil)
	assert.WithinDuration(time.Now().Add(25*time.Hour), *out.TimeoutUntil, 5*time.Second)
}

func TestProcessPostClassifier(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	eng, _, configs := EngineTestFixture()
	stub := &StubClassifier{
		Verdicts: []classifier.RuleVerdict{{RuleTitle: "No Promo", Violated: true, Reasoning: "advertising"}},
	}
	eng.Classifier = stub
	configs.Filters.GeneratedFilters = community.GeneratedConfig{
		Enabled: true,
		Options: []community.GeneratedFilter{{Title: "No Promo", Description: "no advertising", Enabled: true}},
	}

	post := community.Post{CommunityID: "c1", Author: "alice", Content: "buy my incredible product today", Status: community.PostStatusApproved}
	member := community.Member{UserID: "alice", Role: community.RoleMember}

	out, err := eng.ProcessPost(ctx, post, member)
	require.NoError(err)
	assert.Equal(1, stub.Calls)
	assert.True(out.Rejected)
	assert.Equal([]string{"No Promo"}, out.Violations)
	// classifier violations never carry a timeout
	assert.Nil(out.TimeoutUntil)
}

func TestProcessPostClassifierSkippedWhenAllDisabled(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	eng, _, configs := EngineTestFixture()
	stub := &StubClassifier{}
	eng.Classifier = stub
	configs.Filters.GeneratedFilters = community.GeneratedConfig{
		Enabled: true,
		Options: []community.GeneratedFilter{{Title: "No Promo", Enabled: false}},
	}

	post := community.Post{CommunityID: "c1", Author: "alice", Content: "a perfectly reasonable post"}
	member := community.Member{UserID: "alice", Role: community.RoleMember}

	_, err := eng.ProcessPost(ctx, post, member)
	require.NoError(err)
	assert.Equal(0, stub.Calls)
}

func TestProcessPostClassifierFailure(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	eng, _, configs := EngineTestFixture()
	stub := &StubClassifier{
		Err: &classifier.ClassificationError{Reason: "no JSON array in model response"},
	}
	cleaner := &CapturingCleaner{}
	eng.Classifier = stub
	eng.Media = cleaner
	configs.Filters.GeneratedFilters = community.GeneratedConfig{
		Enabled: true,
		Options: []community.GeneratedFilter{{Title: "No Promo", Enabled: true}},
	}

	post := community.Post{
		CommunityID: "c1",
		Author:      "alice",
		Content:     "a perfectly reasonable post",
		Media:       &community.MediaRef{Filename: "upload-123.png", URL: "http://files.local/upload-123.png"},
	}
	member := community.Member{UserID: "alice", Role: community.RoleMember}

	out, err := eng.ProcessPost(ctx, post, member)
	require.Error(err)
	assert.Nil(out)

	var ce *classifier.ClassificationError
	assert.True(errors.As(err, &ce))
	// the orphaned upload was released
	assert.Equal([]string{"upload-123.png"}, cleaner.Deleted)
}

func TestGetModerationFiltersCached(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	eng, _, configs := EngineTestFixture()

	first, err := eng.GetModerationFilters(ctx, "c1")
	require.NoError(err)
	second, err := eng.GetModerationFilters(ctx, "c1")
	require.NoError(err)
	assert.Equal(first, second)
	assert.Equal(1, configs.Fetches)

	// purge forces a refetch, which is how admin config edits take effect
	require.NoError(eng.PurgeConfigCache(ctx, "c1"))
	_, err = eng.GetModerationFilters(ctx, "c1")
	require.NoError(err)
	assert.Equal(2, configs.Fetches)
}

func TestProcessPostPanicRecovery(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, _, _ := EngineTestFixture()
	eng.Configs = panicConfigSource{}

	post := community.Post{CommunityID: "c1", Author: "alice", Content: "hello"}
	member := community.Member{UserID: "alice", Role: community.RoleMember}

	out, err := eng.ProcessPost(ctx, post, member)
	assert.Error(err)
	assert.Nil(out)
}

type panicConfigSource struct{}

func (panicConfigSource) GetModerationFilters(ctx context.Context, communityID string) (*community.ModerationFilters, error) {
	panic("boom")
}

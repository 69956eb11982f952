package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/Tammibriggs/we-conect-community/community"
)

// Lookup capability for an author's recent posting activity. Implemented by
// the document store; injected so criterion evaluation owns no persistence.
type PostHistory interface {
	// CountPostsByAuthorSince returns how many posts the author has already
	// created in the community since the given instant. The post currently
	// under evaluation is not yet persisted, so it is never included.
	CountPostsByAuthorSince(ctx context.Context, communityID, author string, since time.Time) (int, error)
}

// Scores a single post against one criterion threshold. Returns whether the
// criterion is violated; errors are infrastructure failures (eg, the history
// query) and must propagate rather than silently approve.
type CriterionFunc func(ctx context.Context, post *community.Post, threshold int, history PostHistory) (bool, error)

// The closed evaluator set. Criterion keys not present here are skipped as a
// forward-compatible no-op.
var criterionFuncs = map[community.CriterionKey]CriterionFunc{
	community.CriterionPostsInOneHour:  postsInOneHourCriterion,
	community.CriterionShortPost:       shortPostCriterion,
	community.CriterionTooManyHashtags: tooManyHashtagsCriterion,
}

func postsInOneHourCriterion(ctx context.Context, post *community.Post, threshold int, history PostHistory) (bool, error) {
	if history == nil {
		return false, fmt.Errorf("postsInOneHour criterion requires a post history lookup")
	}
	oneHourAgo := time.Now().Add(-time.Hour)
	count, err := history.CountPostsByAuthorSince(ctx, post.CommunityID, post.Author, oneHourAgo)
	if err != nil {
		return false, fmt.Errorf("querying author post history: %w", err)
	}
	return count > threshold, nil
}

func shortPostCriterion(ctx context.Context, post *community.Post, threshold int, history PostHistory) (bool, error) {
	return len([]rune(post.Content)) < threshold, nil
}

func tooManyHashtagsCriterion(ctx context.Context, post *community.Post, threshold int, history PostHistory) (bool, error) {
	return len(ExtractHashtags(post.Content)) > threshold, nil
}

// Human-readable reason string for a fired criterion, as surfaced to the
// submitting user and folded into the member's violation record.
func criterionReason(key community.CriterionKey, threshold int) string {
	switch key {
	case community.CriterionPostsInOneHour:
		return fmt.Sprintf("%d post in one hour", threshold)
	case community.CriterionShortPost:
		return fmt.Sprintf("Post with less than %d characters", threshold)
	case community.CriterionTooManyHashtags:
		return fmt.Sprintf("Post with more than %d hashtags", threshold)
	default:
		return fmt.Sprintf("Violation of %s", string(key))
	}
}

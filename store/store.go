// Package store implements document persistence for communities, members,
// and posts on MongoDB. It backs both the HTTP handlers and the moderation
// engine's ConfigSource and PostHistory interfaces.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Tammibriggs/we-conect-community/community"
)

const (
	communitiesCollection = "communities"
	postsCollection       = "posts"
)

var ErrNotFound = errors.New("document not found")

type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}
	return &MongoStore{client: client, db: client.Database(dbName)}, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) GetCommunity(ctx context.Context, communityID string) (*community.Community, error) {
	var doc community.Community
	err := s.db.Collection(communitiesCollection).FindOne(ctx, bson.M{"_id": communityID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("community %s: %w", communityID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching community %s: %w", communityID, err)
	}
	return &doc, nil
}

// GetMember resolves a user's membership in a community. Returns ErrNotFound
// for both a missing community and a user who is not a member.
func (s *MongoStore) GetMember(ctx context.Context, communityID, userID string) (*community.Member, error) {
	comm, err := s.GetCommunity(ctx, communityID)
	if err != nil {
		return nil, err
	}
	m := comm.Membership(userID)
	if m == nil {
		return nil, fmt.Errorf("member %s in community %s: %w", userID, communityID, ErrNotFound)
	}
	return m, nil
}

// GetModerationFilters implements engine.ConfigSource.
func (s *MongoStore) GetModerationFilters(ctx context.Context, communityID string) (*community.ModerationFilters, error) {
	var doc struct {
		ModerationFilters community.ModerationFilters `bson:"moderationFilters"`
	}
	opts := options.FindOne().SetProjection(bson.M{"moderationFilters": 1})
	err := s.db.Collection(communitiesCollection).FindOne(ctx, bson.M{"_id": communityID}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("community %s: %w", communityID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching moderation config for %s: %w", communityID, err)
	}
	return &doc.ModerationFilters, nil
}

// CountPostsByAuthorSince implements rules.PostHistory. The current
// submission is not yet persisted, so the count covers prior posts only.
func (s *MongoStore) CountPostsByAuthorSince(ctx context.Context, communityID, author string, since time.Time) (int, error) {
	filter := bson.M{
		"communityId": communityID,
		"author":      author,
		"createdAt":   bson.M{"$gte": since},
	}
	n, err := s.db.Collection(postsCollection).CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("counting posts for %s in %s: %w", author, communityID, err)
	}
	return int(n), nil
}

// CreatePost persists a post with its final moderation status. Posts are
// written once, after the engine has run; there is no pending state.
func (s *MongoStore) CreatePost(ctx context.Context, post *community.Post) (string, error) {
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	res, err := s.db.Collection(postsCollection).InsertOne(ctx, post)
	if err != nil {
		return "", fmt.Errorf("inserting post: %w", err)
	}
	id := fmt.Sprintf("%v", res.InsertedID)
	return id, nil
}

func (s *MongoStore) GetPost(ctx context.Context, postID string) (*community.Post, error) {
	var doc community.Post
	err := s.db.Collection(postsCollection).FindOne(ctx, bson.M{"_id": postID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("post %s: %w", postID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching post %s: %w", postID, err)
	}
	return &doc, nil
}

// ApplyRestriction writes a member's compounded restriction state using a
// positional update, so concurrent submissions increment violationsCount
// without losing writes.
func (s *MongoStore) ApplyRestriction(ctx context.Context, communityID, userID string, r *community.Restriction) error {
	filter := bson.M{"_id": communityID, "members.userId": userID}
	set := bson.M{
		"members.$.restriction.violations": r.Violations,
	}
	if r.EndTime != nil {
		set["members.$.restriction.endTime"] = r.EndTime
	}
	update := bson.M{
		"$inc": bson.M{"members.$.restriction.violationsCount": 1},
		"$set": set,
	}
	res, err := s.db.Collection(communitiesCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("applying restriction for %s in %s: %w", userID, communityID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("member %s in community %s: %w", userID, communityID, ErrNotFound)
	}
	return nil
}

// ClearRestriction removes an expired restriction from a member document.
func (s *MongoStore) ClearRestriction(ctx context.Context, communityID, userID string) error {
	filter := bson.M{"_id": communityID, "members.userId": userID}
	update := bson.M{"$unset": bson.M{"members.$.restriction": ""}}
	if _, err := s.db.Collection(communitiesCollection).UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("clearing restriction for %s in %s: %w", userID, communityID, err)
	}
	return nil
}

// ToggleLike adds the user to the post's likes, or removes them when already
// present. Returns true when the post is liked after the call.
func (s *MongoStore) ToggleLike(ctx context.Context, postID, userID string) (bool, error) {
	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return false, err
	}
	liked := false
	for _, uid := range post.Likes {
		if uid == userID {
			liked = true
			break
		}
	}
	update := bson.M{"$push": bson.M{"likes": userID}}
	if liked {
		update = bson.M{"$pull": bson.M{"likes": userID}}
	}
	if _, err := s.db.Collection(postsCollection).UpdateOne(ctx, bson.M{"_id": postID}, update); err != nil {
		return false, fmt.Errorf("toggling like on post %s: %w", postID, err)
	}
	return !liked, nil
}

// SaveGeneratedFilter prepends a new generated filter to the community's
// options, so the most recently created rule lists first.
func (s *MongoStore) SaveGeneratedFilter(ctx context.Context, communityID string, filter community.GeneratedFilter) error {
	update := bson.M{
		"$push": bson.M{
			"moderationFilters.generatedFilters.options": bson.M{
				"$each":     []community.GeneratedFilter{filter},
				"$position": 0,
			},
		},
	}
	res, err := s.db.Collection(communitiesCollection).UpdateOne(ctx, bson.M{"_id": communityID}, update)
	if err != nil {
		return fmt.Errorf("saving generated filter in %s: %w", communityID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("community %s: %w", communityID, ErrNotFound)
	}
	return nil
}

func (s *MongoStore) DeleteGeneratedFilter(ctx context.Context, communityID, title string) error {
	update := bson.M{
		"$pull": bson.M{
			"moderationFilters.generatedFilters.options": bson.M{"title": title},
		},
	}
	res, err := s.db.Collection(communitiesCollection).UpdateOne(ctx, bson.M{"_id": communityID}, update)
	if err != nil {
		return fmt.Errorf("deleting generated filter %q in %s: %w", title, communityID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("community %s: %w", communityID, ErrNotFound)
	}
	return nil
}

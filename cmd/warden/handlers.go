package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Tammibriggs/we-conect-community/automod/classifier"
	"github.com/Tammibriggs/we-conect-community/community"
	"github.com/Tammibriggs/we-conect-community/store"
)

type createPostRequest struct {
	UserID  string              `json:"userId"`
	Content string              `json:"content"`
	Media   *community.MediaRef `json:"media,omitempty"`
}

// handleCreatePost runs the full submission flow: membership and restriction
// gates, moderation, then a single write of the post with its final status.
func (s *Server) handleCreatePost(c echo.Context) error {
	ctx := c.Request().Context()
	communityID := c.Param("communityID")

	var req createPostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.UserID == "" || (req.Content == "" && req.Media == nil) {
		return echo.NewHTTPError(http.StatusBadRequest, "userId and content or media are required")
	}

	member, err := s.store.GetMember(ctx, communityID, req.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusForbidden, "you are not a member of this community")
		}
		s.logger.Error("resolving membership", "err", err, "community", communityID)
		return echo.NewHTTPError(http.StatusInternalServerError, "unable to process post")
	}

	now := time.Now()
	if !member.CanAct(now) {
		return echo.NewHTTPError(http.StatusForbidden, "you are currently restricted from posting in this community")
	}
	if member.Restriction.Expired(now) {
		// clear the stale restriction before a fresh evaluation
		if err := s.store.ClearRestriction(ctx, communityID, req.UserID); err != nil {
			s.logger.Error("clearing expired restriction", "err", err, "community", communityID, "user", req.UserID)
			return echo.NewHTTPError(http.StatusInternalServerError, "unable to process post")
		}
		member.Restriction = nil
	}

	post := community.Post{
		CommunityID: communityID,
		Author:      req.UserID,
		Content:     req.Content,
		Media:       req.Media,
		Status:      community.PostStatusApproved,
		CreatedAt:   now,
	}

	out, err := s.engine.ProcessPost(ctx, post, *member)
	if err != nil {
		s.logger.Error("processing post", "err", err, "community", communityID, "author", req.UserID)
		return echo.NewHTTPError(http.StatusInternalServerError, "unable to process post")
	}

	// only a fresh offense touches restriction state; a member's prior
	// restriction record must not escalate on a clean post
	if out.ViolationOccurred() && out.Member.Restriction != nil {
		if err := s.store.ApplyRestriction(ctx, communityID, req.UserID, out.Member.Restriction); err != nil {
			s.logger.Error("applying restriction", "err", err, "community", communityID, "user", req.UserID)
			return echo.NewHTTPError(http.StatusInternalServerError, "unable to process post")
		}
	}

	if out.Rejected {
		// the rejected post is still recorded, with its reasons
		if _, err := s.store.CreatePost(ctx, &out.Post); err != nil {
			s.logger.Error("persisting rejected post", "err", err, "community", communityID)
			return echo.NewHTTPError(http.StatusInternalServerError, "unable to process post")
		}
		return echo.NewHTTPError(http.StatusForbidden, strings.Join(out.Violations, ","))
	}

	id, err := s.store.CreatePost(ctx, &out.Post)
	if err != nil {
		s.logger.Error("persisting post", "err", err, "community", communityID)
		return echo.NewHTTPError(http.StatusInternalServerError, "unable to process post")
	}
	out.Post.ID = id
	return c.JSON(http.StatusCreated, out.Post)
}

type toggleLikeRequest struct {
	PostID string `json:"postId"`
	UserID string `json:"userId"`
}

func (s *Server) handleToggleLike(c echo.Context) error {
	ctx := c.Request().Context()

	var req toggleLikeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.PostID == "" || req.UserID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "postId and userId are required")
	}

	post, err := s.store.GetPost(ctx, req.PostID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "post not found")
		}
		s.logger.Error("fetching post", "err", err, "post", req.PostID)
		return echo.NewHTTPError(http.StatusInternalServerError, "unable to toggle like")
	}

	member, err := s.store.GetMember(ctx, post.CommunityID, req.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusForbidden, "you are not a member of this community")
		}
		s.logger.Error("resolving membership", "err", err, "community", post.CommunityID)
		return echo.NewHTTPError(http.StatusInternalServerError, "unable to toggle like")
	}
	now := time.Now()
	if !member.CanAct(now) {
		return echo.NewHTTPError(http.StatusForbidden, "you are currently restricted from reacting in this community")
	}
	if member.Restriction.Expired(now) {
		// same stale-restriction reset as the posting path
		if err := s.store.ClearRestriction(ctx, post.CommunityID, req.UserID); err != nil {
			s.logger.Error("clearing expired restriction", "err", err, "community", post.CommunityID, "user", req.UserID)
			return echo.NewHTTPError(http.StatusInternalServerError, "unable to toggle like")
		}
	}

	liked, err := s.store.ToggleLike(ctx, req.PostID, req.UserID)
	if err != nil {
		s.logger.Error("toggling like", "err", err, "post", req.PostID)
		return echo.NewHTTPError(http.StatusInternalServerError, "unable to toggle like")
	}
	return c.JSON(http.StatusOK, map[string]any{"postId": req.PostID, "liked": liked})
}

// requireAdmin resolves the acting user's membership and rejects non-admins.
func (s *Server) requireAdmin(c echo.Context, communityID, userID string) (*community.Member, error) {
	if userID == "" {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "userId is required")
	}
	member, err := s.store.GetMember(c.Request().Context(), communityID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, echo.NewHTTPError(http.StatusForbidden, "you are not a member of this community")
		}
		s.logger.Error("resolving membership", "err", err, "community", communityID)
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "unable to resolve membership")
	}
	if member.Role != community.RoleAdmin {
		return nil, echo.NewHTTPError(http.StatusForbidden, "only community admins can manage moderation filters")
	}
	return member, nil
}

// handleEvaluateGeneratedFilter asks the classifier whether a proposed rule
// title is enforceable, before the admin commits it.
func (s *Server) handleEvaluateGeneratedFilter(c echo.Context) error {
	ctx := c.Request().Context()
	communityID := c.Param("communityID")

	if _, err := s.requireAdmin(c, communityID, c.QueryParam("userId")); err != nil {
		return err
	}
	title := c.QueryParam("title")
	if title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}
	if s.adapter == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "generated filters are not configured")
	}

	result, err := s.adapter.EvaluateFilter(ctx, title)
	if err != nil {
		var ce *classifier.ClassificationError
		if errors.As(err, &ce) {
			s.logger.Warn("filter feasibility evaluation unparsable", "err", err, "title", title)
			return echo.NewHTTPError(http.StatusBadGateway, "could not evaluate filter")
		}
		s.logger.Error("evaluating filter feasibility", "err", err, "title", title)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not evaluate filter")
	}
	return c.JSON(http.StatusOK, result)
}

type saveGeneratedFilterRequest struct {
	UserID      string `json:"userId"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (s *Server) handleSaveGeneratedFilter(c echo.Context) error {
	ctx := c.Request().Context()
	communityID := c.Param("communityID")

	var req saveGeneratedFilterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if _, err := s.requireAdmin(c, communityID, req.UserID); err != nil {
		return err
	}
	if req.Title == "" || req.Description == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title and description are required")
	}

	filter := community.GeneratedFilter{
		Title:       req.Title,
		Description: req.Description,
		Enabled:     true,
	}
	if err := s.store.SaveGeneratedFilter(ctx, communityID, filter); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "community not found")
		}
		s.logger.Error("saving generated filter", "err", err, "community", communityID)
		return echo.NewHTTPError(http.StatusInternalServerError, "unable to save filter")
	}
	// the cached moderation config is now stale
	if err := s.engine.PurgeConfigCache(ctx, communityID); err != nil {
		s.logger.Error("purging moderation config cache", "err", err, "community", communityID)
	}
	return c.JSON(http.StatusCreated, filter)
}

type deleteGeneratedFilterRequest struct {
	UserID string `json:"userId"`
	Title  string `json:"title"`
}

func (s *Server) handleDeleteGeneratedFilter(c echo.Context) error {
	ctx := c.Request().Context()
	communityID := c.Param("communityID")

	var req deleteGeneratedFilterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if _, err := s.requireAdmin(c, communityID, req.UserID); err != nil {
		return err
	}
	if req.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}

	if err := s.store.DeleteGeneratedFilter(ctx, communityID, req.Title); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "community not found")
		}
		s.logger.Error("deleting generated filter", "err", err, "community", communityID)
		return echo.NewHTTPError(http.StatusInternalServerError, "unable to delete filter")
	}
	if err := s.engine.PurgeConfigCache(ctx, communityID); err != nil {
		s.logger.Error("purging moderation config cache", "err", err, "community", communityID)
	}
	return c.NoContent(http.StatusNoContent)
}

package handler

import (
	"net/http"
	"strconv"

	feedService "driftline.app/backend/internal/modules/feed/service"
	"driftline.app/backend/pkg/apperror"
	"driftline.app/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type FeedHandler struct {
	feed     feedService.FeedService
	sessions *feedService.SessionManager
}

func NewFeedHandler(feed feedService.FeedService, sessions *feedService.SessionManager) *FeedHandler {
	return &FeedHandler{feed: feed, sessions: sessions}
}

// GetFeed serves the nested forest. Authenticated viewers go through
// their session so later reaction toggles act on the same snapshot;
// anonymous viewers get a plain read.
func (h *FeedHandler) GetFeed(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	viewerID := response.GetViewerID(c)
	if viewerID == nil {
		forest, err := h.feed.GetFeed(c.Request.Context(), nil, feedService.FeedFilter{Limit: limit})
		if err != nil {
			response.ResponseError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": forest})
		return
	}

	forest, err := h.sessions.Get(*viewerID).Refresh(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": forest})
}

func (h *FeedHandler) ToggleLike(c *gin.Context) {
	h.toggle(c, func(s *feedService.Session, postID uuid.UUID) error {
		return s.ToggleLike(c.Request.Context(), postID)
	})
}

func (h *FeedHandler) ToggleDislike(c *gin.Context) {
	h.toggle(c, func(s *feedService.Session, postID uuid.UUID) error {
		return s.ToggleDislike(c.Request.Context(), postID)
	})
}

func (h *FeedHandler) toggle(c *gin.Context, op func(*feedService.Session, uuid.UUID) error) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrInvalidInput)
		return
	}

	session := h.sessions.Get(userID)
	if len(session.Forest()) == 0 {
		if _, err := session.Refresh(c.Request.Context()); err != nil {
			response.ResponseError(c, err)
			return
		}
	}

	if err := op(session, postID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": session.Forest()})
}

func (h *FeedHandler) DeletePost(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrInvalidInput)
		return
	}

	if err := h.sessions.Get(userID).DeletePost(c.Request.Context(), postID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "post deleted"})
}

type castVoteRequest struct {
	OptionIDs []uuid.UUID `json:"option_ids" binding:"required,min=1"`
}

func (h *FeedHandler) CastVote(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	pollID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrInvalidInput)
		return
	}

	var req castVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.sessions.Get(userID).CastVote(c.Request.Context(), pollID, req.OptionIDs); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "vote recorded"})
}

package handler

import (
	"net/http"

	reactionService "driftline.app/backend/internal/modules/reaction/service"
	"driftline.app/backend/pkg/apperror"
	"driftline.app/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReactionHandler struct {
	service reactionService.ReactionService
}

func NewReactionHandler(service reactionService.ReactionService) *ReactionHandler {
	return &ReactionHandler{service: service}
}

// GetCounts serves the cached per-type reaction counts for one post.
func (h *ReactionHandler) GetCounts(c *gin.Context) {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrInvalidInput)
		return
	}

	counts, err := h.service.Counts(c.Request.Context(), postID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": counts})
}

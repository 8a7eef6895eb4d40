package handler

import (
	"net/http"

	threadService "driftline.app/backend/internal/modules/thread/service"
	"driftline.app/backend/pkg/apperror"
	"driftline.app/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ThreadHandler struct {
	service threadService.ThreadService
}

func NewThreadHandler(service threadService.ThreadService) *ThreadHandler {
	return &ThreadHandler{service: service}
}

// GetStack serves a thread's posts in sequence order, with thread totals
// attached for the "n/total" display.
func (h *ThreadHandler) GetStack(c *gin.Context) {
	threadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.ErrInvalidInput)
		return
	}

	posts, err := h.service.GetStack(c.Request.Context(), threadID, response.GetViewerID(c))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": posts})
}

package handler

import (
	"net/http"

	mediaService "driftline.app/backend/internal/modules/media/service"
	"driftline.app/backend/pkg/apperror"
	"driftline.app/backend/pkg/response"
	"github.com/gin-gonic/gin"
)

type MediaHandler struct {
	service mediaService.MediaService
}

func NewMediaHandler(service mediaService.MediaService) *MediaHandler {
	return &MediaHandler{service: service}
}

func (h *MediaHandler) Upload(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.ResponseError(c, apperror.ErrInvalidInput)
		return
	}

	media, err := h.service.Upload(c.Request.Context(), userID, file)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": media})
}

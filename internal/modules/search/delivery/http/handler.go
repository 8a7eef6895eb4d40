package handler

import (
	"net/http"
	"strconv"

	searchService "driftline.app/backend/internal/modules/search/service"
	"driftline.app/backend/pkg/apperror"
	"driftline.app/backend/pkg/response"
	"github.com/gin-gonic/gin"
)

type SearchHandler struct {
	service searchService.SearchService
}

func NewSearchHandler(service searchService.SearchService) *SearchHandler {
	return &SearchHandler{service: service}
}

func (h *SearchHandler) SearchPosts(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		response.ResponseError(c, apperror.ErrInvalidInput)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	hits, err := h.service.SearchPosts(query, limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": hits})
}

// GetSearchToken hands the client a tenant token for direct meilisearch
// queries, used by the app's search-as-you-type box.
func (h *SearchHandler) GetSearchToken(c *gin.Context) {
	token, err := h.service.GenerateSearchToken()
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/impulseml/impulseml-api/internal/meli"
	"github.com/impulseml/impulseml-api/internal/models"
	"github.com/impulseml/impulseml-api/internal/services"
)

type SearchController struct {
	searchService services.SearchService
}

func NewSearchController(searchService services.SearchService) *SearchController {
	return &SearchController{searchService: searchService}
}

// Search godoc
// @Summary Search marketplace products
// @Description Proxies a free-text query to the MercadoLibre search API. Uses the caller's stored credential when one exists; otherwise falls back to the public endpoint and flags the response as limited_data.
// @Tags Search
// @Accept json
// @Produce json
// @Param request body object{query=string,limit=int} true "Search query"
// @Success 200 {object} services.SearchResponse
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 500 {object} map[string]string "Missing identity or marketplace failure"
// @Security BearerAuth
// @Router /api/v1/search [post]
func (sc *SearchController) Search(c *gin.Context) {
	var req struct {
		Query string `json:"query" binding:"required"`
		Limit int    `json:"limit"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetUint("userID")
	if userID == 0 {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": models.ErrAuthenticationMissing,
			"query": req.Query,
		})
		return
	}

	response, err := sc.searchService.Search(c.Request.Context(), userID, req.Query, req.Limit)
	if err != nil {
		var apiErr *meli.APIError
		if errors.As(err, &apiErr) {
			log.WithFields(log.Fields{
				"user_id": userID,
				"query":   req.Query,
				"status":  apiErr.StatusCode,
			}).Error("Marketplace search failed")
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": models.ErrUpstreamRejection,
				"query": req.Query,
			})
			return
		}
		log.WithFields(log.Fields{
			"user_id": userID,
			"query":   req.Query,
			"error":   err.Error(),
		}).Error("Search failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": models.ErrInternalServer,
			"query": req.Query,
		})
		return
	}

	c.JSON(http.StatusOK, response)
}

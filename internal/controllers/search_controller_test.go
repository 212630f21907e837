package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/impulseml/impulseml-api/internal/meli"
	"github.com/impulseml/impulseml-api/internal/services"
)

type stubSearchService struct {
	response *services.SearchResponse
	err      error
}

func (s *stubSearchService) Search(ctx context.Context, userID uint, query string, limit int) (*services.SearchResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.response, nil
}

func newSearchRouter(svc services.SearchService, userID uint) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/v1/search", func(c *gin.Context) {
		if userID != 0 {
			c.Set("userID", userID)
		}
		c.Next()
	}, NewSearchController(svc).Search)
	return router
}

func postSearch(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSearchReturnsResults(t *testing.T) {
	svc := &stubSearchService{response: &services.SearchResponse{
		Query:        "yerba mate",
		TotalResults: 1,
		Results: []services.ProductResult{
			{ID: "MLU123", Title: "Yerba", Price: 250, Tags: []string{}},
		},
	}}
	router := newSearchRouter(svc, 42)

	w := postSearch(router, `{"query":"yerba mate"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"query":"yerba mate"`)
	assert.Contains(t, w.Body.String(), `"MLU123"`)
}

func TestSearchRejectsMissingQuery(t *testing.T) {
	router := newSearchRouter(&stubSearchService{}, 42)

	w := postSearch(router, `{"limit":5}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchFailsWithoutIdentity(t *testing.T) {
	router := newSearchRouter(&stubSearchService{}, 0)

	w := postSearch(router, `{"query":"yerba mate"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "AUTHENTICATION_MISSING")
	assert.Contains(t, w.Body.String(), `"query":"yerba mate"`)
}

func TestSearchSurfacesUpstreamFailure(t *testing.T) {
	svc := &stubSearchService{err: &meli.APIError{StatusCode: http.StatusBadGateway, Body: "upstream down"}}
	router := newSearchRouter(svc, 42)

	w := postSearch(router, `{"query":"yerba mate"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "UPSTREAM_REJECTION")
	assert.Contains(t, w.Body.String(), `"query":"yerba mate"`)
}

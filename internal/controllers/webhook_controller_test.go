package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWebhookRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/webhooks/meli", NewWebhookController().Receive)
	return router
}

func postWebhook(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/meli", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestWebhookAcknowledgesKnownTopic(t *testing.T) {
	router := newWebhookRouter()

	w := postWebhook(router, `{
		"topic": "orders",
		"resource": "/orders/123456",
		"user_id": 123456,
		"application_id": 789
	}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"received"`)
	assert.Contains(t, w.Body.String(), `"timestamp"`)
}

func TestWebhookAcknowledgesUnknownTopic(t *testing.T) {
	router := newWebhookRouter()

	w := postWebhook(router, `{"topic":"shipments","resource":"/shipments/1"}`)

	// Unknown topics must still be acknowledged so the marketplace keeps
	// the subscription alive
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"received"`)
}

func TestWebhookAcknowledgesMalformedPayload(t *testing.T) {
	router := newWebhookRouter()

	for _, body := range []string{`{not json`, ``, `[]`} {
		w := postWebhook(router, body)
		require.Equal(t, http.StatusOK, w.Code, "payload: %q", body)
		assert.Contains(t, w.Body.String(), `"status":"error"`)
	}
}

func TestWebhookRecoversFromPanic(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = nil // forces a panic inside the handler

	NewWebhookController().Receive(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"error"`)
}

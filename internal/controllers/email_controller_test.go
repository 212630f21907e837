package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/impulseml/impulseml-api/internal/services"
)

type stubMailer struct {
	err error
}

func (m *stubMailer) Send(ctx context.Context, from, to, subject, html string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return "send-id-1", nil
}

func newEmailRouter(mailer services.Mailer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := services.NewEmailService(mailer, "ImpulseML <noreply@impulseml.com>", testDashboardURL)
	router := gin.New()
	router.POST("/api/v1/notifications/email", NewEmailController(svc).SendNotification)
	return router
}

func postEmail(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/email", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSendNotificationDispatches(t *testing.T) {
	router := newEmailRouter(&stubMailer{})

	w := postEmail(router, `{"email":"ana@example.com","name":"Ana","type":"welcome"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"sent"`)
	assert.Contains(t, w.Body.String(), "send-id-1")
}

func TestSendNotificationRejectsUnknownType(t *testing.T) {
	router := newEmailRouter(&stubMailer{})

	w := postEmail(router, `{"email":"ana@example.com","name":"Ana","type":"marketing_blast"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown_email_type")
}

func TestSendNotificationValidatesPayload(t *testing.T) {
	router := newEmailRouter(&stubMailer{})

	// Missing required fields and malformed addresses are 400s
	for _, body := range []string{
		`{}`,
		`{"email":"not-an-email","name":"Ana","type":"welcome"}`,
		`{"email":"ana@example.com","type":"welcome"}`,
	} {
		w := postEmail(router, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "payload: %s", body)
	}
}

func TestSendNotificationSurfacesProviderFailure(t *testing.T) {
	router := newEmailRouter(&stubMailer{err: errors.New("provider down")})

	w := postEmail(router, `{"email":"ana@example.com","name":"Ana","type":"welcome"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "UPSTREAM_REJECTION")
}

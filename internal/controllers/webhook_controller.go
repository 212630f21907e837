package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/impulseml/impulseml-api/internal/models"
)

type WebhookController struct{}

func NewWebhookController() *WebhookController {
	return &WebhookController{}
}

// Receive godoc
// @Summary MercadoLibre webhook receiver
// @Description Accepts marketplace notifications. Always answers 200 so the marketplace never retries or disables the subscription; processing problems are logged, not surfaced.
// @Tags Webhooks
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Router /webhooks/meli [post]
func (wc *WebhookController) Receive(c *gin.Context) {
	// The marketplace disables subscriptions that answer non-200; whatever
	// goes wrong in here, the response stays 200.
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("Webhook handler panicked")
			c.JSON(http.StatusOK, gin.H{
				"status":    "error",
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
		}
	}()

	var notification models.WebhookNotification
	if err := c.ShouldBindJSON(&notification); err != nil {
		log.WithField("error", err.Error()).Warn("Webhook payload is not valid JSON")
		c.JSON(http.StatusOK, gin.H{
			"status":    "error",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	fields := log.Fields{
		"topic":       notification.Topic,
		"resource":    notification.Resource,
		"user_id":     notification.UserID,
		"application": notification.ApplicationID,
	}

	switch notification.Topic {
	case models.TopicOrders, models.TopicItems, models.TopicQuestions:
		log.WithFields(fields).Info("Webhook notification received")
	default:
		// Unknown topics are acknowledged too; the subscription outlives
		// whatever topics the marketplace adds later.
		log.WithFields(fields).Warn("Webhook notification with unknown topic")
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "received",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

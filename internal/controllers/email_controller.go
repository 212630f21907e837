package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/impulseml/impulseml-api/internal/models"
	"github.com/impulseml/impulseml-api/internal/services"
)

type EmailController struct {
	emailService services.EmailService
}

func NewEmailController(emailService services.EmailService) *EmailController {
	return &EmailController{emailService: emailService}
}

// SendNotification godoc
// @Summary Send a notification email
// @Description Renders one of the static templates (welcome, password_reset, subscription_confirm, subscription_cancel) and dispatches it
// @Tags Notifications
// @Accept json
// @Produce json
// @Param request body services.EmailRequest true "Notification payload"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string "Invalid request or unknown type"
// @Failure 500 {object} map[string]string "Email provider failure"
// @Security BearerAuth
// @Router /api/v1/notifications/email [post]
func (ec *EmailController) SendNotification(c *gin.Context) {
	var req services.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := ec.emailService.Send(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrUnknownEmailType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_email_type"})
			return
		}
		log.WithFields(log.Fields{
			"to":    req.Email,
			"type":  string(req.Type),
			"error": err.Error(),
		}).Error("Notification dispatch failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": models.ErrUpstreamRejection})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "sent",
		"send_id": id,
	})
}

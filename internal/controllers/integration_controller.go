package controllers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/impulseml/impulseml-api/internal/meli"
	"github.com/impulseml/impulseml-api/internal/models"
	"github.com/impulseml/impulseml-api/internal/services"
)

type IntegrationController struct {
	integrationService services.IntegrationService
	dashboardURL       string
}

func NewIntegrationController(integrationService services.IntegrationService, dashboardURL string) *IntegrationController {
	return &IntegrationController{
		integrationService: integrationService,
		dashboardURL:       dashboardURL,
	}
}

// Connect godoc
// @Summary Start MercadoLibre account connection
// @Description Redirects the caller to the MercadoLibre authorization page with a single-use state bound to their account
// @Tags Integrations
// @Produce json
// @Success 302 "Redirect to the marketplace authorization page"
// @Failure 401 {object} map[string]string "Missing caller identity"
// @Failure 500 {object} map[string]string "Marketplace application not configured"
// @Security BearerAuth
// @Router /api/v1/integrations/meli/connect [get]
func (ic *IntegrationController) Connect(c *gin.Context) {
	userID := c.GetUint("userID")

	authURL, err := ic.integrationService.BeginAuthorization(c.Request.Context(), userID)
	if err != nil {
		var confErr *services.ConfigurationError
		switch {
		case errors.As(err, &confErr):
			// No redirect on misconfiguration; the body names the missing key
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": models.ErrMissingConfiguration,
				"key":   confErr.Key,
			})
		case errors.Is(err, services.ErrAuthenticationMissing):
			c.JSON(http.StatusUnauthorized, gin.H{"error": models.ErrAuthenticationMissing})
		default:
			log.WithField("error", err.Error()).Error("Failed to start integration flow")
			c.JSON(http.StatusInternalServerError, gin.H{"error": models.ErrInternalServer})
		}
		return
	}

	c.Redirect(http.StatusFound, authURL)
}

// Callback godoc
// @Summary MercadoLibre authorization callback
// @Description Completes the connection flow and redirects the browser back to the dashboard
// @Tags Integrations
// @Produce json
// @Param code query string false "Authorization code"
// @Param state query string true "Anti-forgery state issued by the connect endpoint"
// @Param error query string false "Error code when the user denied authorization"
// @Success 302 "Redirect to the dashboard with the outcome in the query string"
// @Router /api/v1/integrations/meli/callback [get]
func (ic *IntegrationController) Callback(c *gin.Context) {
	if provErr := c.Query("error"); provErr != "" {
		log.WithField("provider_error", provErr).Warn("Marketplace denied authorization")
		ic.redirectError(c, "Autorización rechazada: "+provErr)
		return
	}

	integration, err := ic.integrationService.CompleteAuthorization(
		c.Request.Context(), c.Query("code"), c.Query("state"))
	if err != nil {
		ic.redirectError(c, callbackErrorMessage(err))
		return
	}

	redirect := ic.dashboardURL + "/dashboard?auth=success&meli_user=" + url.QueryEscape(integration.Nickname)
	c.Redirect(http.StatusFound, redirect)
}

// Status godoc
// @Summary Connection status
// @Description Reports whether the caller has a MercadoLibre account connected
// @Tags Integrations
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /api/v1/integrations/meli [get]
func (ic *IntegrationController) Status(c *gin.Context) {
	userID := c.GetUint("userID")

	integration, err := ic.integrationService.GetIntegration(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, gin.H{"connected": false})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": models.ErrInternalServer})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"connected":    true,
		"meli_user_id": integration.MeliUserID,
		"nickname":     integration.Nickname,
		"expires_at":   integration.ExpiresAt,
	})
}

// Disconnect godoc
// @Summary Disconnect MercadoLibre account
// @Description Removes the caller's stored marketplace credential
// @Tags Integrations
// @Produce json
// @Success 204 "Credential removed"
// @Security BearerAuth
// @Router /api/v1/integrations/meli [delete]
func (ic *IntegrationController) Disconnect(c *gin.Context) {
	userID := c.GetUint("userID")

	if err := ic.integrationService.Disconnect(userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": models.ErrInternalServer})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}

func (ic *IntegrationController) redirectError(c *gin.Context, message string) {
	c.Redirect(http.StatusFound,
		ic.dashboardURL+"/dashboard?auth=error&message="+url.QueryEscape(message))
}

// callbackErrorMessage maps a completion failure to the Spanish message shown
// by the dashboard after the redirect.
func callbackErrorMessage(err error) string {
	var apiErr *meli.APIError
	var persErr *services.PersistenceError

	switch {
	case errors.Is(err, services.ErrStateInvalid):
		return "Sesión de autorización inválida o expirada"
	case errors.Is(err, services.ErrAuthenticationMissing):
		return "No se pudo identificar al usuario"
	case errors.As(err, &persErr):
		return "Error al guardar las credenciales"
	case errors.As(err, &apiErr):
		return "Error al conectar con MercadoLibre"
	default:
		return "Error inesperado durante la conexión"
	}
}

package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/impulseml/impulseml-api/internal/models"
)

const testJWTSecret = "test-jwt-secret-key-32-characters"

func newTokenRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	db := setupTestDB(t)
	oauthService := NewOAuthService(db, testJWTSecret)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/oauth/token", oauthService.HandleToken)
	return router, db
}

// seedClient stores a client with a bcrypt-hashed secret owned by a fresh user.
func seedClient(t *testing.T, db *gorm.DB, clientID, secret, role string) uint {
	user := &models.User{
		Email: clientID + "@example.com",
		Name:  "Test User",
		Role:  role,
	}
	require.NoError(t, db.Create(user).Error)

	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	require.NoError(t, err)

	require.NoError(t, db.Create(&models.OAuthClient{
		ID:         clientID,
		Secret:     string(hashed),
		Domain:     "http://localhost:8080",
		Scopes:     "read write",
		GrantTypes: "client_credentials",
		UserID:     user.ID,
	}).Error)

	return user.ID
}

func postToken(router *gin.Engine, form string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/oauth/token", bytes.NewBufferString(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestClientCredentialsFlow(t *testing.T) {
	router, db := newTokenRouter(t)
	seedClient(t, db, "test_client", "test_secret", "admin")

	w := postToken(router, "grant_type=client_credentials&client_id=test_client&client_secret=test_secret")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Bearer", response["token_type"])

	// The access token is a JWT carrying uid and role claims
	accessToken, _ := response["access_token"].(string)
	require.NotEmpty(t, accessToken)

	token, err := jwt.Parse(accessToken, func(token *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)

	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "admin", claims["role"])
	assert.Equal(t, "test_client", claims["aud"])
	assert.NotEmpty(t, claims["uid"])
}

func TestClientCredentialsInvalidSecret(t *testing.T) {
	router, db := newTokenRouter(t)
	seedClient(t, db, "test_client", "correct_secret", "user")

	w := postToken(router, "grant_type=client_credentials&client_id=test_client&client_secret=wrong_secret")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_client")
}

func TestUnsupportedGrantType(t *testing.T) {
	router, _ := newTokenRouter(t)

	w := postToken(router, "grant_type=password&client_id=x&client_secret=y")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unsupported_grant_type")
}

func TestAuthorizationCodeGrant(t *testing.T) {
	router, db := newTokenRouter(t)
	userID := seedClient(t, db, "test_client", "test_secret", "user")

	require.NoError(t, db.Create(&models.OAuthCode{
		Code:      "test-code",
		ClientID:  "test_client",
		UserID:    strconv.FormatUint(uint64(userID), 10),
		Scopes:    "read",
		ExpiresAt: time.Now().Add(10 * time.Minute),
	}).Error)

	form := "grant_type=authorization_code&client_id=test_client&client_secret=test_secret&code=test-code"

	w := postToken(router, form)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "access_token")

	// Codes are single use: the replay must fail
	w = postToken(router, form)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_grant")
}

func TestAuthorizationCodeExpired(t *testing.T) {
	router, db := newTokenRouter(t)
	userID := seedClient(t, db, "test_client", "test_secret", "user")

	require.NoError(t, db.Create(&models.OAuthCode{
		Code:      "stale-code",
		ClientID:  "test_client",
		UserID:    strconv.FormatUint(uint64(userID), 10),
		ExpiresAt: time.Now().Add(-time.Minute),
	}).Error)

	w := postToken(router, "grant_type=authorization_code&client_id=test_client&client_secret=test_secret&code=stale-code")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "code_expired")
}

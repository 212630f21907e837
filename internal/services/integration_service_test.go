package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/impulseml/impulseml-api/internal/config"
	"github.com/impulseml/impulseml-api/internal/crypto"
	"github.com/impulseml/impulseml-api/internal/meli"
	"github.com/impulseml/impulseml-api/internal/models"
	"github.com/impulseml/impulseml-api/internal/statestore"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.User{}, &models.MeliIntegration{}, &models.Product{})
	require.NoError(t, err)

	return db
}

// newFakeMarketplace serves the marketplace endpoints the integration flow
// touches: token exchange/refresh and the profile fetch.
func newFakeMarketplace(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())

		grant := r.Form.Get("grant_type")
		if grant != "authorization_code" && grant != "refresh_token" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}

		access := "APP_USR-access"
		if grant == "refresh_token" {
			access = "APP_USR-refreshed"
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  access,
			"token_type":    "Bearer",
			"expires_in":    21600,
			"refresh_token": "TG-refresh",
			"user_id":       123456,
		})
	})

	mux.HandleFunc("/users/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":       123456,
			"nickname": "TESTSELLER",
			"email":    "seller@example.com",
			"site_id":  "MLU",
		})
	})

	return httptest.NewServer(mux)
}

func newTestMarketClient(srv *httptest.Server) *meli.Client {
	return meli.NewClient(meli.Config{
		AppID:       "app-id",
		AppSecret:   "app-secret",
		RedirectURL: "http://localhost:8080/api/v1/integrations/meli/callback",
		SiteID:      "MLU",
		AuthBaseURL: srv.URL,
		APIBaseURL:  srv.URL,
		HTTPClient:  srv.Client(),
		MaxRetries:  1,
	})
}

func newTestIntegrationService(t *testing.T, srv *httptest.Server) (IntegrationService, *gorm.DB, statestore.Store) {
	db := setupTestDB(t)
	states := statestore.NewMemoryStore()

	cipher, err := crypto.NewTokenCipher("test-cipher-key")
	require.NoError(t, err)

	cfg := &config.Config{
		MeliAppID:       "app-id",
		MeliAppSecret:   "app-secret",
		MeliRedirectURL: "http://localhost:8080/api/v1/integrations/meli/callback",
		MeliSiteID:      "MLU",
		DashboardURL:    "http://localhost:3000",
	}

	svc := NewIntegrationService(db, cfg, newTestMarketClient(srv), states, cipher)
	return svc, db, states
}

// stateFromAuthURL pulls the issued state out of the authorization redirect.
func stateFromAuthURL(t *testing.T, authURL string) string {
	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	state := parsed.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

func TestBeginAuthorizationBuildsMarketplaceURL(t *testing.T) {
	srv := newFakeMarketplace(t)
	defer srv.Close()

	svc, _, states := newTestIntegrationService(t, srv)

	authURL, err := svc.BeginAuthorization(context.Background(), 7)
	require.NoError(t, err)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)

	assert.Equal(t, "/authorization", parsed.Path)
	assert.Equal(t, "code", parsed.Query().Get("response_type"))
	assert.Equal(t, "app-id", parsed.Query().Get("client_id"))
	assert.Equal(t, "http://localhost:8080/api/v1/integrations/meli/callback", parsed.Query().Get("redirect_uri"))

	// The state is bound to the initiating user
	state := parsed.Query().Get("state")
	require.NotEmpty(t, state)
	userID, err := states.Consume(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, uint(7), userID)
}

func TestBeginAuthorizationRequiresConfiguration(t *testing.T) {
	srv := newFakeMarketplace(t)
	defer srv.Close()

	db := setupTestDB(t)
	cipher, err := crypto.NewTokenCipher("")
	require.NoError(t, err)

	cfg := &config.Config{MeliAppSecret: "app-secret"}
	svc := NewIntegrationService(db, cfg, newTestMarketClient(srv), statestore.NewMemoryStore(), cipher)

	_, err = svc.BeginAuthorization(context.Background(), 7)
	var confErr *ConfigurationError
	require.ErrorAs(t, err, &confErr)
	assert.Equal(t, "MELI_APP_ID", confErr.Key)

	cfg = &config.Config{MeliAppID: "app-id"}
	svc = NewIntegrationService(db, cfg, newTestMarketClient(srv), statestore.NewMemoryStore(), cipher)

	_, err = svc.BeginAuthorization(context.Background(), 7)
	require.ErrorAs(t, err, &confErr)
	assert.Equal(t, "MELI_APP_SECRET", confErr.Key)
}

func TestBeginAuthorizationRequiresIdentity(t *testing.T) {
	srv := newFakeMarketplace(t)
	defer srv.Close()

	svc, _, _ := newTestIntegrationService(t, srv)

	_, err := svc.BeginAuthorization(context.Background(), 0)
	assert.ErrorIs(t, err, ErrAuthenticationMissing)
}

func TestCompleteAuthorizationRejectsUnknownState(t *testing.T) {
	srv := newFakeMarketplace(t)
	defer srv.Close()

	svc, db, _ := newTestIntegrationService(t, srv)

	_, err := svc.CompleteAuthorization(context.Background(), "some-code", "never-issued")
	assert.ErrorIs(t, err, ErrStateInvalid)

	_, err = svc.CompleteAuthorization(context.Background(), "some-code", "")
	assert.ErrorIs(t, err, ErrStateInvalid)

	// Nothing persisted on a rejected callback
	var count int64
	db.Model(&models.MeliIntegration{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestCompleteAuthorizationPersistsCredential(t *testing.T) {
	srv := newFakeMarketplace(t)
	defer srv.Close()

	svc, db, _ := newTestIntegrationService(t, srv)

	authURL, err := svc.BeginAuthorization(context.Background(), 7)
	require.NoError(t, err)
	state := stateFromAuthURL(t, authURL)

	integration, err := svc.CompleteAuthorization(context.Background(), "auth-code", state)
	require.NoError(t, err)
	assert.Equal(t, uint(7), integration.UserID)
	assert.Equal(t, int64(123456), integration.MeliUserID)
	assert.Equal(t, "TESTSELLER", integration.Nickname)

	// Tokens are stored encrypted, not in the clear
	var stored models.MeliIntegration
	require.NoError(t, db.Where("user_id = ?", 7).First(&stored).Error)
	assert.NotEqual(t, "APP_USR-access", stored.AccessToken)
	assert.NotEqual(t, "TG-refresh", stored.RefreshToken)

	// But AccessToken hands back the usable plain-text value
	access, err := svc.AccessToken(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "APP_USR-access", access)
}

func TestCompleteAuthorizationStateIsSingleUse(t *testing.T) {
	srv := newFakeMarketplace(t)
	defer srv.Close()

	svc, _, _ := newTestIntegrationService(t, srv)

	authURL, err := svc.BeginAuthorization(context.Background(), 7)
	require.NoError(t, err)
	state := stateFromAuthURL(t, authURL)

	_, err = svc.CompleteAuthorization(context.Background(), "auth-code", state)
	require.NoError(t, err)

	// Replaying the same callback must be rejected
	_, err = svc.CompleteAuthorization(context.Background(), "auth-code", state)
	assert.ErrorIs(t, err, ErrStateInvalid)
}

func TestCompleteAuthorizationReplacesExistingCredential(t *testing.T) {
	srv := newFakeMarketplace(t)
	defer srv.Close()

	svc, db, _ := newTestIntegrationService(t, srv)

	for i := 0; i < 2; i++ {
		authURL, err := svc.BeginAuthorization(context.Background(), 7)
		require.NoError(t, err)
		_, err = svc.CompleteAuthorization(context.Background(), "auth-code", stateFromAuthURL(t, authURL))
		require.NoError(t, err)
	}

	// One credential per user, re-running the flow never duplicates it
	var count int64
	db.Model(&models.MeliIntegration{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestAccessTokenRefreshesExpiredCredential(t *testing.T) {
	srv := newFakeMarketplace(t)
	defer srv.Close()

	svc, db, _ := newTestIntegrationService(t, srv)

	cipher, err := crypto.NewTokenCipher("test-cipher-key")
	require.NoError(t, err)
	encAccess, err := cipher.Encrypt("APP_USR-stale")
	require.NoError(t, err)
	encRefresh, err := cipher.Encrypt("TG-refresh")
	require.NoError(t, err)

	require.NoError(t, db.Create(&models.MeliIntegration{
		UserID:       7,
		MeliUserID:   123456,
		Nickname:     "TESTSELLER",
		AccessToken:  encAccess,
		RefreshToken: encRefresh,
		ExpiresAt:    time.Now().Add(-time.Hour),
	}).Error)

	access, err := svc.AccessToken(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "APP_USR-refreshed", access)

	// The refreshed pair is persisted for the next call
	var stored models.MeliIntegration
	require.NoError(t, db.Where("user_id = ?", 7).First(&stored).Error)
	assert.True(t, stored.ExpiresAt.After(time.Now()))
}

func TestDisconnectRemovesCredential(t *testing.T) {
	srv := newFakeMarketplace(t)
	defer srv.Close()

	svc, db, _ := newTestIntegrationService(t, srv)

	require.NoError(t, db.Create(&models.MeliIntegration{
		UserID:      7,
		MeliUserID:  123456,
		Nickname:    "TESTSELLER",
		AccessToken: "enc",
		ExpiresAt:   time.Now().Add(time.Hour),
	}).Error)

	require.NoError(t, svc.Disconnect(7))

	var count int64
	db.Model(&models.MeliIntegration{}).Count(&count)
	assert.Equal(t, int64(0), count)

	// Disconnecting twice is fine
	assert.NoError(t, svc.Disconnect(7))
}

package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/impulseml/impulseml-api/internal/config"
	"github.com/impulseml/impulseml-api/internal/crypto"
	"github.com/impulseml/impulseml-api/internal/meli"
	"github.com/impulseml/impulseml-api/internal/models"
	"github.com/impulseml/impulseml-api/internal/statestore"
)

// refreshSkew refreshes a stored access token this long before its recorded
// expiry so an in-flight search doesn't race the marketplace clock.
const refreshSkew = time.Minute

// IntegrationService owns the MercadoLibre account-connection flow: it
// builds the authorization redirect, completes the callback (state check,
// code exchange, profile fetch, credential upsert), and hands out usable
// access tokens to the rest of the service.
type IntegrationService interface {
	// BeginAuthorization returns the marketplace authorization URL for the
	// given application user, with a fresh single-use state bound to them.
	BeginAuthorization(ctx context.Context, userID uint) (string, error)
	// CompleteAuthorization consumes the callback's code and state and
	// persists the credential pair. Returns the stored integration.
	CompleteAuthorization(ctx context.Context, code, state string) (*models.MeliIntegration, error)
	// GetIntegration returns the stored credential row for a user
	// (gorm.ErrRecordNotFound when the user never connected).
	GetIntegration(userID uint) (*models.MeliIntegration, error)
	// AccessToken returns a decrypted access token for the user, refreshing
	// and re-persisting the pair first when it is about to expire.
	AccessToken(ctx context.Context, userID uint) (string, error)
	// Disconnect removes the user's stored credential. Removing a credential
	// that does not exist is not an error.
	Disconnect(userID uint) error
}

type integrationService struct {
	db     *gorm.DB
	cfg    *config.Config
	market *meli.Client
	states statestore.Store
	cipher *crypto.TokenCipher
}

func NewIntegrationService(db *gorm.DB, cfg *config.Config, market *meli.Client, states statestore.Store, cipher *crypto.TokenCipher) IntegrationService {
	return &integrationService{
		db:     db,
		cfg:    cfg,
		market: market,
		states: states,
		cipher: cipher,
	}
}

func (s *integrationService) BeginAuthorization(ctx context.Context, userID uint) (string, error) {
	if s.cfg.MeliAppID == "" {
		return "", &ConfigurationError{Key: "MELI_APP_ID"}
	}
	if s.cfg.MeliAppSecret == "" {
		return "", &ConfigurationError{Key: "MELI_APP_SECRET"}
	}
	if userID == 0 {
		return "", ErrAuthenticationMissing
	}

	state := uuid.New().String()
	if err := s.states.Issue(ctx, state, userID, statestore.DefaultTTL); err != nil {
		return "", &PersistenceError{Op: "issue authorization state", Err: err}
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"state":   state,
	}).Info("Integration flow: awaiting marketplace authorization")

	return s.market.AuthorizationURL(state), nil
}

func (s *integrationService) CompleteAuthorization(ctx context.Context, code, state string) (*models.MeliIntegration, error) {
	if state == "" {
		return nil, ErrStateInvalid
	}

	userID, err := s.states.Consume(ctx, state)
	if err != nil {
		if err == statestore.ErrNotFound {
			log.WithField("state", state).Warn("Integration flow: rejected callback with unknown state")
			return nil, ErrStateInvalid
		}
		return nil, &PersistenceError{Op: "consume authorization state", Err: err}
	}
	if userID == 0 {
		return nil, ErrAuthenticationMissing
	}

	log.WithField("user_id", userID).Info("Integration flow: exchanging authorization code")
	token, err := s.market.ExchangeCode(ctx, code)
	if err != nil {
		log.WithFields(log.Fields{"user_id": userID, "error": err.Error()}).
			Error("Integration flow: token exchange failed")
		return nil, err
	}

	log.WithField("user_id", userID).Info("Integration flow: fetching marketplace profile")
	profile, err := s.market.Me(ctx, token.AccessToken)
	if err != nil {
		log.WithFields(log.Fields{"user_id": userID, "error": err.Error()}).
			Error("Integration flow: profile fetch failed")
		return nil, err
	}

	encAccess, err := s.cipher.Encrypt(token.AccessToken)
	if err != nil {
		return nil, &PersistenceError{Op: "encrypt access token", Err: err}
	}
	encRefresh, err := s.cipher.Encrypt(token.RefreshToken)
	if err != nil {
		return nil, &PersistenceError{Op: "encrypt refresh token", Err: err}
	}

	integration := &models.MeliIntegration{
		UserID:       userID,
		MeliUserID:   profile.ID,
		Nickname:     profile.Nickname,
		AccessToken:  encAccess,
		RefreshToken: encRefresh,
		ExpiresAt:    token.Expiry,
	}

	// One credential per user: a re-run of the flow replaces the stored
	// pair, it never duplicates the row.
	err = s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"meli_user_id", "nickname", "access_token", "refresh_token", "expires_at", "updated_at",
		}),
	}).Create(integration).Error
	if err != nil {
		log.WithFields(log.Fields{"user_id": userID, "error": err.Error()}).
			Error("Integration flow: credential persistence failed")
		return nil, &PersistenceError{Op: "upsert integration credential", Err: err}
	}

	log.WithFields(log.Fields{
		"user_id":      userID,
		"meli_user_id": profile.ID,
		"nickname":     profile.Nickname,
	}).Info("Integration flow: complete")

	return integration, nil
}

func (s *integrationService) GetIntegration(userID uint) (*models.MeliIntegration, error) {
	var integration models.MeliIntegration
	if err := s.db.Where("user_id = ?", userID).First(&integration).Error; err != nil {
		return nil, err
	}
	return &integration, nil
}

func (s *integrationService) Disconnect(userID uint) error {
	result := s.db.Where("user_id = ?", userID).Delete(&models.MeliIntegration{})
	if result.Error != nil {
		return &PersistenceError{Op: "delete integration credential", Err: result.Error}
	}
	log.WithFields(log.Fields{
		"user_id": userID,
		"removed": result.RowsAffected,
	}).Info("Integration credential removed")
	return nil
}

func (s *integrationService) AccessToken(ctx context.Context, userID uint) (string, error) {
	integration, err := s.GetIntegration(userID)
	if err != nil {
		return "", err
	}

	access, err := s.cipher.Decrypt(integration.AccessToken)
	if err != nil {
		return "", err
	}

	if time.Now().Add(refreshSkew).Before(integration.ExpiresAt) || integration.RefreshToken == "" {
		return access, nil
	}

	refresh, err := s.cipher.Decrypt(integration.RefreshToken)
	if err != nil {
		return "", err
	}

	log.WithField("user_id", userID).Info("Refreshing expired marketplace token")
	token, err := s.market.Refresh(ctx, refresh)
	if err != nil {
		return "", err
	}

	encAccess, err := s.cipher.Encrypt(token.AccessToken)
	if err != nil {
		return "", err
	}
	newRefresh := token.RefreshToken
	if newRefresh == "" {
		newRefresh = refresh // provider kept the old refresh token
	}
	encRefresh, err := s.cipher.Encrypt(newRefresh)
	if err != nil {
		return "", err
	}

	updates := map[string]interface{}{
		"access_token":  encAccess,
		"refresh_token": encRefresh,
		"expires_at":    token.Expiry,
	}
	if err := s.db.Model(&models.MeliIntegration{}).Where("user_id = ?", userID).Updates(updates).Error; err != nil {
		// The refreshed token is still valid for this request
		log.WithFields(log.Fields{"user_id": userID, "error": err.Error()}).
			Warn("Failed to persist refreshed marketplace token")
	}

	return token.AccessToken, nil
}

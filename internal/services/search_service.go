package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/impulseml/impulseml-api/internal/meli"
	"github.com/impulseml/impulseml-api/internal/models"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 50

	// How many results get sampled into the products table per search
	productSampleSize = 10
)

// ProductResult is the application-side product shape returned to the
// dashboard. Seller fields are only populated on authenticated searches.
type ProductResult struct {
	ID                 string          `json:"id"`
	Title              string          `json:"title"`
	Price              float64         `json:"price"`
	Currency           string          `json:"currency"`
	Thumbnail          string          `json:"thumbnail"`
	Permalink          string          `json:"permalink"`
	SellerID           *int64          `json:"seller_id"`
	SellerReputation   json.RawMessage `json:"seller_reputation"`
	CategoryID         string          `json:"category_id"`
	Condition          string          `json:"condition"`
	Shipping           json.RawMessage `json:"shipping,omitempty"`
	Installments       json.RawMessage `json:"installments,omitempty"`
	Tags               []string        `json:"tags"`
	AcceptsMercadopago bool            `json:"accepts_mercadopago"`
}

// SearchResponse is the envelope for POST /api/v1/search. LimitedData is set
// exactly when no stored marketplace credential was available for the caller.
type SearchResponse struct {
	Query        string          `json:"query"`
	TotalResults int             `json:"total_results"`
	Results      []ProductResult `json:"results"`
	LimitedData  bool            `json:"limited_data,omitempty"`
}

// SearchService proxies free-text queries to the marketplace search API.
type SearchService interface {
	Search(ctx context.Context, userID uint, query string, limit int) (*SearchResponse, error)
}

type searchService struct {
	db           *gorm.DB
	market       *meli.Client
	integrations IntegrationService
}

func NewSearchService(db *gorm.DB, market *meli.Client, integrations IntegrationService) SearchService {
	return &searchService{db: db, market: market, integrations: integrations}
}

func (s *searchService) Search(ctx context.Context, userID uint, query string, limit int) (*SearchResponse, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	// A stored credential selects the authenticated endpoint variant; no
	// credential falls back to the public one with fewer seller fields.
	accessToken := ""
	if _, err := s.integrations.GetIntegration(userID); err == nil {
		accessToken, err = s.integrations.AccessToken(ctx, userID)
		if err != nil {
			return nil, err
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	authenticated := accessToken != ""

	page, err := s.market.Search(ctx, query, limit, accessToken)
	if err != nil {
		return nil, err
	}

	response := &SearchResponse{
		Query:        query,
		TotalResults: page.Paging.Total,
		Results:      make([]ProductResult, 0, len(page.Results)),
		LimitedData:  !authenticated,
	}

	for _, item := range page.Results {
		result := ProductResult{
			ID:                 item.ID,
			Title:              item.Title,
			Price:              item.Price,
			Currency:           item.CurrencyID,
			Thumbnail:          item.Thumbnail,
			Permalink:          item.Permalink,
			CategoryID:         item.CategoryID,
			Condition:          item.Condition,
			Shipping:           item.Shipping,
			Installments:       item.Installments,
			Tags:               item.Tags,
			AcceptsMercadopago: item.AcceptsMercadopago,
		}
		if result.Tags == nil {
			result.Tags = []string{}
		}
		if authenticated && item.Seller != nil {
			sellerID := item.Seller.ID
			result.SellerID = &sellerID
			result.SellerReputation = item.Seller.SellerReputation
		}
		response.Results = append(response.Results, result)
	}

	s.sampleProducts(userID, response.Results)

	return response, nil
}

// sampleProducts best-effort upserts the first few results for later
// analysis. Failures are logged, never surfaced to the caller.
func (s *searchService) sampleProducts(userID uint, results []ProductResult) {
	now := time.Now().UTC()

	sample := results
	if len(sample) > productSampleSize {
		sample = sample[:productSampleSize]
	}

	for _, r := range sample {
		product := &models.Product{
			UserID:           userID,
			MeliID:           r.ID,
			Title:            r.Title,
			Price:            r.Price,
			Currency:         r.Currency,
			Category:         r.CategoryID,
			SellerReputation: string(r.SellerReputation),
			LastAnalyzed:     now,
		}

		err := s.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "meli_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"title", "price", "currency", "category", "seller_reputation", "last_analyzed", "updated_at",
			}),
		}).Create(product).Error
		if err != nil {
			log.WithFields(log.Fields{
				"user_id": userID,
				"meli_id": r.ID,
				"error":   err.Error(),
			}).Warn("Failed to store sampled product")
		}
	}
}

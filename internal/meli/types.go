package meli

import (
	"encoding/json"
	"fmt"
)

// UserProfile is the subset of /users/me this service consumes.
type UserProfile struct {
	ID        int64  `json:"id"`
	Nickname  string `json:"nickname"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	SiteID    string `json:"site_id"`
}

// Seller carries the seller block of a search item. Reputation is kept
// opaque; the service stores and forwards it without interpreting it.
type Seller struct {
	ID               int64           `json:"id"`
	SellerReputation json.RawMessage `json:"seller_reputation"`
}

// Item is one marketplace search result.
type Item struct {
	ID                 string          `json:"id"`
	Title              string          `json:"title"`
	Price              float64         `json:"price"`
	CurrencyID         string          `json:"currency_id"`
	Thumbnail          string          `json:"thumbnail"`
	Permalink          string          `json:"permalink"`
	CategoryID         string          `json:"category_id"`
	Condition          string          `json:"condition"`
	Seller             *Seller         `json:"seller,omitempty"`
	Shipping           json.RawMessage `json:"shipping,omitempty"`
	Installments       json.RawMessage `json:"installments,omitempty"`
	Tags               []string        `json:"tags"`
	AcceptsMercadopago bool            `json:"accepts_mercadopago"`
}

// SearchPage is the marketplace search envelope.
type SearchPage struct {
	Paging struct {
		Total int `json:"total"`
	} `json:"paging"`
	Results []Item `json:"results"`
}

// APIError is a non-2xx response from the marketplace, with the body
// captured for diagnostics.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mercadolibre: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Transient reports whether the failure is worth retrying. Rejections (4xx,
// including replayed authorization codes) are final.
func (e *APIError) Transient() bool {
	return e.StatusCode >= 500
}

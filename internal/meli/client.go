// Package meli is the outbound MercadoLibre client: authorization URL
// construction, authorization-code exchange, token refresh, profile fetch
// and product search. Transient failures (network errors, 5xx) are retried
// with exponential backoff; 4xx rejections are returned immediately.
package meli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const (
	defaultAuthBaseURL = "https://auth.mercadolibre.com.uy"
	defaultAPIBaseURL  = "https://api.mercadolibre.com"
	defaultMaxRetries  = 3
)

// Config wires a Client. AuthBaseURL and APIBaseURL exist so tests can point
// at an httptest server.
type Config struct {
	AppID       string
	AppSecret   string
	RedirectURL string
	SiteID      string

	AuthBaseURL string
	APIBaseURL  string

	HTTPClient *http.Client
	MaxRetries uint64
}

type Client struct {
	oauth      *oauth2.Config
	apiBaseURL string
	siteID     string
	http       *http.Client
	maxRetries uint64
}

func NewClient(cfg Config) *Client {
	authBase := cfg.AuthBaseURL
	if authBase == "" {
		authBase = defaultAuthBaseURL
	}
	apiBase := cfg.APIBaseURL
	if apiBase == "" {
		apiBase = defaultAPIBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = defaultMaxRetries
	}

	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.AppID,
			ClientSecret: cfg.AppSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:   authBase + "/authorization",
				TokenURL:  apiBase + "/oauth/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		apiBaseURL: apiBase,
		siteID:     cfg.SiteID,
		http:       httpClient,
		maxRetries: maxRetries,
	}
}

// AuthorizationURL builds the browser redirect target:
// …/authorization?response_type=code&client_id=…&redirect_uri=…&state=…
func (c *Client) AuthorizationURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// ExchangeCode swaps an authorization code for a token pair. The redirect
// URI sent here is byte-identical to the one in AuthorizationURL, which the
// token endpoint requires.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)

	var token *oauth2.Token
	err := c.withRetry(ctx, func() error {
		var err error
		token, err = c.oauth.Exchange(ctx, code)
		return classifyOAuthError(err)
	})
	if err != nil {
		return nil, err
	}
	return token, nil
}

// Refresh mints a new token pair from a stored refresh token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)

	stale := &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Now().Add(-time.Minute), // force the refresh grant
	}

	var token *oauth2.Token
	err := c.withRetry(ctx, func() error {
		var err error
		token, err = c.oauth.TokenSource(ctx, stale).Token()
		return classifyOAuthError(err)
	})
	if err != nil {
		return nil, err
	}
	return token, nil
}

// Me fetches the authenticated marketplace user's profile.
func (c *Client) Me(ctx context.Context, accessToken string) (*UserProfile, error) {
	var profile UserProfile
	if err := c.getJSON(ctx, c.apiBaseURL+"/users/me", accessToken, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Search queries the site search endpoint. An empty accessToken uses the
// public variant, which returns fewer seller fields.
func (c *Client) Search(ctx context.Context, query string, limit int, accessToken string) (*SearchPage, error) {
	u := fmt.Sprintf("%s/sites/%s/search?q=%s&limit=%s",
		c.apiBaseURL, c.siteID, url.QueryEscape(query), strconv.Itoa(limit))

	var page SearchPage
	if err := c.getJSON(ctx, u, accessToken, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// getJSON performs a GET with optional bearer auth and decodes the JSON
// response, retrying transient failures.
func (c *Client) getJSON(ctx context.Context, rawURL, accessToken string, out interface{}) error {
	return c.withRetry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		if accessToken != "" {
			req.Header.Set("Authorization", "Bearer "+accessToken)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return err // network errors are retryable
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(body)}
			if apiErr.Transient() {
				return apiErr
			}
			return backoff.Permanent(apiErr)
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("decoding mercadolibre response: %w", err))
		}
		return nil
	})
}

func (c *Client) withRetry(ctx context.Context, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxElapsedTime = 10 * time.Second

	return backoff.RetryNotify(op,
		backoff.WithContext(backoff.WithMaxRetries(bo, c.maxRetries), ctx),
		func(err error, wait time.Duration) {
			log.WithFields(log.Fields{"error": err.Error(), "wait": wait.String()}).
				Warn("Transient MercadoLibre failure, retrying")
		})
}

// classifyOAuthError converts x/oauth2 failures into the package error
// taxonomy: 4xx rejections become permanent APIErrors with the response body
// captured, 5xx stay retryable.
func classifyOAuthError(err error) error {
	if err == nil {
		return nil
	}

	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		status := 0
		if rerr.Response != nil {
			status = rerr.Response.StatusCode
		}
		apiErr := &APIError{StatusCode: status, Body: string(rerr.Body)}
		if apiErr.Transient() {
			return apiErr
		}
		return backoff.Permanent(apiErr)
	}

	// Anything else is a transport-level failure
	return err
}

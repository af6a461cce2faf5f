package paypal

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/lwas/economy/internal/pkg/env"
)

const (
	sandboxAPIBaseURL = "https://api-m.sandbox.paypal.com"
	liveAPIBaseURL    = "https://api-m.paypal.com"

	// Tokens are refreshed 60 seconds before provider-reported expiry.
	tokenExpirySlack = 60 * time.Second
)

// Client authenticates against the PayPal REST API with client credentials
// and caches the bearer token until shortly before expiry.
type Client struct {
	ClientID     string
	ClientSecret string
	WebhookID    string
	APIBaseURL   string

	HTTPClient *http.Client

	mu          sync.RWMutex
	token       string
	tokenExpiry time.Time
}

// NewClientFromEnv builds a client from the PAYPAL_* configuration surface.
// PAYPAL_MODE selects the sandbox or live base URL; PAYPAL_API_BASE_URL
// overrides it for tests.
func NewClientFromEnv() *Client {
	base := strings.TrimSpace(env.GetEnv("PAYPAL_API_BASE_URL", ""))
	if base == "" {
		if env.IsLiveMode() {
			base = liveAPIBaseURL
		} else {
			base = sandboxAPIBaseURL
		}
	}

	return &Client{
		ClientID:     strings.TrimSpace(env.GetEnv("PAYPAL_CLIENT_ID", "")),
		ClientSecret: strings.TrimSpace(env.GetEnv("PAYPAL_CLIENT_SECRET", "")),
		WebhookID:    strings.TrimSpace(env.GetEnv("PAYPAL_WEBHOOK_ID", "")),
		APIBaseURL:   strings.TrimRight(base, "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// AccessToken returns a valid bearer token, reusing the cached one while it
// has more than the slack window left.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	c.mu.RLock()
	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		token := c.token
		c.mu.RUnlock()
		return token, nil
	}
	c.mu.RUnlock()

	if c.ClientID == "" || c.ClientSecret == "" {
		return "", errors.New("PAYPAL_CLIENT_ID/PAYPAL_CLIENT_SECRET are not configured")
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIBaseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	basic := base64.StdEncoding.EncodeToString([]byte(c.ClientID + ":" + c.ClientSecret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("paypal token request failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
		TokenType   string `json:"token_type"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return "", errors.New("paypal token response missing access_token")
	}
	if out.ExpiresIn <= 0 {
		out.ExpiresIn = 3600
	}

	c.mu.Lock()
	c.token = out.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(out.ExpiresIn)*time.Second - tokenExpirySlack)
	c.mu.Unlock()

	return out.AccessToken, nil
}

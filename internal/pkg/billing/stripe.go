package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lwas/economy/internal/pkg/env"
)

const defaultStripeAPIBaseURL = "https://api.stripe.com"

// StripeClient calls the Stripe REST API with the account secret key.
type StripeClient struct {
	SecretKey  string
	APIBaseURL string

	HTTPClient *http.Client
}

func NewStripeClientFromEnv() *StripeClient {
	return &StripeClient{
		SecretKey:  strings.TrimSpace(env.GetEnv("STRIPE_SECRET_KEY", "")),
		APIBaseURL: strings.TrimSpace(env.GetEnv("STRIPE_API_BASE_URL", defaultStripeAPIBaseURL)),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// PortalSession is a customer billing portal session.
type PortalSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreatePortalSession creates a billing portal session for a provider customer
// id so the customer can manage their subscription.
func (c *StripeClient) CreatePortalSession(ctx context.Context, customerID, returnURL string) (*PortalSession, error) {
	if strings.TrimSpace(c.SecretKey) == "" {
		return nil, errors.New("STRIPE_SECRET_KEY is not configured")
	}
	if strings.TrimSpace(customerID) == "" {
		return nil, errors.New("customer id is required")
	}

	form := url.Values{}
	form.Set("customer", strings.TrimSpace(customerID))
	if strings.TrimSpace(returnURL) != "" {
		form.Set("return_url", strings.TrimSpace(returnURL))
	}

	endpoint := strings.TrimRight(c.APIBaseURL, "/") + "/v1/billing_portal/sessions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("portal session creation failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var out PortalSession
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.URL) == "" {
		return nil, errors.New("portal session response missing url")
	}
	return &out, nil
}

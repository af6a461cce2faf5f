package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lwas/economy/internal/pkg/billing"
)

// Transmission headers PayPal attaches to every webhook delivery.
const (
	headerTransmissionID   = "Paypal-Transmission-Id"
	headerTransmissionTime = "Paypal-Transmission-Time"
	headerTransmissionSig  = "Paypal-Transmission-Sig"
	headerCertURL          = "Paypal-Cert-Url"
	headerAuthAlgo         = "Paypal-Auth-Algo"
)

// WebhookVerifier validates deliveries through PayPal's
// verify-webhook-signature endpoint, so the PayPal route runs the same
// verify-then-dedup pipeline as Stripe instead of accepting events blind.
type WebhookVerifier struct {
	client *Client
}

func NewWebhookVerifier(client *Client) *WebhookVerifier {
	return &WebhookVerifier{client: client}
}

// Verify implements billing.Verifier.
func (v *WebhookVerifier) Verify(ctx context.Context, headers http.Header, body []byte, _ time.Time) error {
	transmissionID := strings.TrimSpace(headers.Get(headerTransmissionID))
	transmissionTime := strings.TrimSpace(headers.Get(headerTransmissionTime))
	transmissionSig := strings.TrimSpace(headers.Get(headerTransmissionSig))
	certURL := strings.TrimSpace(headers.Get(headerCertURL))
	authAlgo := strings.TrimSpace(headers.Get(headerAuthAlgo))

	if transmissionID == "" || transmissionSig == "" {
		return billing.ErrMissingSignatureHeader
	}
	if transmissionTime == "" || certURL == "" || authAlgo == "" {
		return billing.ErrMalformedSignatureHeader
	}
	if v.client.WebhookID == "" {
		return errors.New("PAYPAL_WEBHOOK_ID is not configured")
	}

	token, err := v.client.AccessToken(ctx)
	if err != nil {
		return fmt.Errorf("paypal auth for verification failed: %w", err)
	}

	payload, err := json.Marshal(map[string]interface{}{
		"transmission_id":   transmissionID,
		"transmission_time": transmissionTime,
		"transmission_sig":  transmissionSig,
		"cert_url":          certURL,
		"auth_algo":         authAlgo,
		"webhook_id":        v.client.WebhookID,
		"webhook_event":     json.RawMessage(body),
	})
	if err != nil {
		return err
	}

	endpoint := v.client.APIBaseURL + "/v1/notifications/verify-webhook-signature"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("paypal verification request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("paypal verification failed: status=%d body=%s", resp.StatusCode, string(respBody))
	}

	var out struct {
		VerificationStatus string `json:"verification_status"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return err
	}
	if out.VerificationStatus != "SUCCESS" {
		return billing.ErrSignatureMismatch
	}
	return nil
}

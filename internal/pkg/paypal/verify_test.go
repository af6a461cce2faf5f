package paypal

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lwas/economy/internal/pkg/billing"
)

func verificationServer(t *testing.T, status string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/oauth2/token":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"tok_1","token_type":"Bearer","expires_in":3600}`))
		case "/v1/notifications/verify-webhook-signature":
			assert.Equal(t, "Bearer tok_1", r.Header.Get("Authorization"))

			body, _ := io.ReadAll(r.Body)
			var req map[string]json.RawMessage
			assert.NoError(t, json.Unmarshal(body, &req))
			assert.Contains(t, req, "webhook_id")
			assert.Contains(t, req, "webhook_event")

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"verification_status":"` + status + `"}`))
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))
}

func paypalHeaders() http.Header {
	h := make(http.Header)
	h.Set("Paypal-Transmission-Id", "tx_1")
	h.Set("Paypal-Transmission-Time", "2026-08-29T10:00:00Z")
	h.Set("Paypal-Transmission-Sig", "sig")
	h.Set("Paypal-Cert-Url", "https://api.paypal.com/cert")
	h.Set("Paypal-Auth-Algo", "SHA256withRSA")
	return h
}

func TestVerifySuccess(t *testing.T) {
	srv := verificationServer(t, "SUCCESS")
	defer srv.Close()

	verifier := NewWebhookVerifier(newTestClient(srv.URL))
	err := verifier.Verify(context.Background(), paypalHeaders(), []byte(`{"id":"WH-1"}`), time.Now())
	assert.NoError(t, err)
}

func TestVerifyFailure(t *testing.T) {
	srv := verificationServer(t, "FAILURE")
	defer srv.Close()

	verifier := NewWebhookVerifier(newTestClient(srv.URL))
	err := verifier.Verify(context.Background(), paypalHeaders(), []byte(`{"id":"WH-1"}`), time.Now())
	assert.True(t, errors.Is(err, billing.ErrSignatureMismatch))
}

func TestVerifyMissingHeaders(t *testing.T) {
	verifier := NewWebhookVerifier(newTestClient("http://127.0.0.1:0"))

	err := verifier.Verify(context.Background(), make(http.Header), []byte(`{}`), time.Now())
	assert.True(t, errors.Is(err, billing.ErrMissingSignatureHeader))

	partial := make(http.Header)
	partial.Set("Paypal-Transmission-Id", "tx_1")
	partial.Set("Paypal-Transmission-Sig", "sig")
	err = verifier.Verify(context.Background(), partial, []byte(`{}`), time.Now())
	assert.True(t, errors.Is(err, billing.ErrMalformedSignatureHeader))
}

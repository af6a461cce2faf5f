package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"
)

func signStripePayload(secret string, ts int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifyStripeWebhookSignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"invoice.paid"}`)
	secret := "whsec_test"
	now := time.Unix(1700000000, 0)

	header := signStripePayload(secret, now.Unix(), payload)
	if err := VerifyStripeWebhookSignature(payload, header, secret, now); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}

	// Flipping any payload byte after signing must fail verification.
	tampered := append([]byte(nil), payload...)
	tampered[3] ^= 0x01
	if err := VerifyStripeWebhookSignature(tampered, header, secret, now); !errors.Is(err, ErrSignatureMismatch) {
		t.Fatalf("expected signature mismatch for tampered payload, got %v", err)
	}

	if err := VerifyStripeWebhookSignature(payload, header, "other-secret", now); !errors.Is(err, ErrSignatureMismatch) {
		t.Fatalf("expected signature mismatch for wrong secret, got %v", err)
	}
}

func TestVerifyStripeWebhookSignature_Freshness(t *testing.T) {
	payload := []byte(`{}`)
	secret := "whsec_test"
	now := time.Unix(1700000000, 0)

	// Exactly at the tolerance boundary is accepted.
	atBoundary := signStripePayload(secret, now.Unix()-300, payload)
	if err := VerifyStripeWebhookSignature(payload, atBoundary, secret, now); err != nil {
		t.Fatalf("expected 300s old timestamp to verify, got %v", err)
	}

	// One second past the boundary fails even with a correct hash.
	pastBoundary := signStripePayload(secret, now.Unix()-301, payload)
	if err := VerifyStripeWebhookSignature(payload, pastBoundary, secret, now); !errors.Is(err, ErrTimestampOutOfTolerance) {
		t.Fatalf("expected timestamp rejection, got %v", err)
	}

	// Future timestamps are bounded the same way.
	future := signStripePayload(secret, now.Unix()+301, payload)
	if err := VerifyStripeWebhookSignature(payload, future, secret, now); !errors.Is(err, ErrTimestampOutOfTolerance) {
		t.Fatalf("expected future timestamp rejection, got %v", err)
	}
}

func TestVerifyStripeWebhookSignature_HeaderErrors(t *testing.T) {
	payload := []byte(`{}`)
	secret := "whsec_test"
	now := time.Unix(1700000000, 0)

	if err := VerifyStripeWebhookSignature(payload, "", secret, now); !errors.Is(err, ErrMissingSignatureHeader) {
		t.Fatalf("expected missing header error, got %v", err)
	}

	malformed := []string{
		"t=123",                     // no v1
		"v1=deadbeef",               // no timestamp
		"t=abc,v1=deadbeef",         // non-numeric timestamp
		"t=123,v1=not-hex",          // bad hex
		"timestamp,signature=value", // no key=value pairs
	}
	for _, header := range malformed {
		if err := VerifyStripeWebhookSignature(payload, header, secret, now); !errors.Is(err, ErrMalformedSignatureHeader) {
			t.Fatalf("expected malformed header error for %q, got %v", header, err)
		}
	}
}

func TestVerifyStripeWebhookSignature_MultipleCandidates(t *testing.T) {
	payload := []byte(`{"id":"evt_2"}`)
	secret := "whsec_test"
	now := time.Unix(1700000000, 0)

	valid := signStripePayload(secret, now.Unix(), payload)
	// Stale-but-wrong candidate first, valid one second.
	header := fmt.Sprintf("t=%d,v1=%s,%s", now.Unix(), hex.EncodeToString(make([]byte, 32)), valid[len(fmt.Sprintf("t=%d,", now.Unix())):])
	if err := VerifyStripeWebhookSignature(payload, header, secret, now); err != nil {
		t.Fatalf("expected any matching v1 candidate to verify, got %v", err)
	}
}

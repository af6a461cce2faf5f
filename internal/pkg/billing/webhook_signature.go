package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

// SignatureTolerance is the replay/clock-skew window for webhook timestamps.
const SignatureTolerance = 300 * time.Second

var (
	ErrMissingSignatureHeader   = errors.New("signature header is required")
	ErrMalformedSignatureHeader = errors.New("malformed signature header")
	ErrTimestampOutOfTolerance  = errors.New("signature timestamp outside allowed window")
	ErrSignatureMismatch        = errors.New("signature mismatch")
)

// VerifyStripeWebhookSignature checks a Stripe-style signature header of the
// form "t=<unix>,v1=<hex>[,v1=<hex>...]" against the raw payload. The signed
// string is "<t>.<payload>" keyed with the webhook secret (HMAC-SHA256).
func VerifyStripeWebhookSignature(payload []byte, signatureHeader, secret string, now time.Time) error {
	header := strings.TrimSpace(signatureHeader)
	if header == "" {
		return ErrMissingSignatureHeader
	}
	if strings.TrimSpace(secret) == "" {
		return ErrSignatureMismatch
	}

	timestamp := ""
	var candidates [][]byte
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			return ErrMalformedSignatureHeader
		}
		switch kv[0] {
		case "t":
			timestamp = kv[1]
		case "v1":
			sig, err := hex.DecodeString(strings.ToLower(kv[1]))
			if err != nil {
				return ErrMalformedSignatureHeader
			}
			candidates = append(candidates, sig)
		}
	}
	if timestamp == "" || len(candidates) == 0 {
		return ErrMalformedSignatureHeader
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrMalformedSignatureHeader
	}
	skew := now.Unix() - ts
	if skew < 0 {
		skew = -skew
	}
	if time.Duration(skew)*time.Second > SignatureTolerance {
		return ErrTimestampOutOfTolerance
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, candidate := range candidates {
		if hmac.Equal(expected, candidate) {
			return nil
		}
	}
	return ErrSignatureMismatch
}

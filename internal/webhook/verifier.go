// Package webhook authenticates inbound payment-provider event payloads
// before they reach checkout reconciliation.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
)

// SignatureHeader is the provider's signature header name.
const SignatureHeader = "X-Payment-Signature"

// Verifier checks provider signatures of the form
//
//	t=<unix ts>,v1=<hex hmac-sha256 of "<ts>.<payload>">
//
// The HMAC is computed over the raw request bytes. Parsing and re-encoding
// the JSON before signing would break verification on whitespace or key
// ordering differences, so the raw payload must be passed through untouched.
type Verifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewVerifier creates a verifier for a shared secret. tolerance bounds how
// old a signed timestamp may be; zero disables the staleness check.
func NewVerifier(secret string, tolerance time.Duration) *Verifier {
	return &Verifier{
		secret:    []byte(secret),
		tolerance: tolerance,
		now:       time.Now,
	}
}

// Verify authenticates payload against header and returns the parsed event.
// Every failure wraps apperrors.ErrInvalidSignature; the HTTP boundary
// rejects those without invoking any state transition.
func (v *Verifier) Verify(payload []byte, header string) (*models.PaymentEvent, error) {
	ts, sigs, err := parseHeader(header)
	if err != nil {
		return nil, err
	}

	if v.tolerance > 0 {
		age := v.now().Sub(time.Unix(ts, 0))
		if age > v.tolerance || age < -v.tolerance {
			return nil, fmt.Errorf("%w: timestamp outside tolerance", apperrors.ErrInvalidSignature)
		}
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	matched := false
	for _, sig := range sigs {
		if hmac.Equal(expected, sig) {
			matched = true
			break
		}
	}
	if !matched {
		return nil, fmt.Errorf("%w: signature mismatch", apperrors.ErrInvalidSignature)
	}

	return parseEvent(payload)
}

func parseHeader(header string) (ts int64, sigs [][]byte, err error) {
	if header == "" {
		return 0, nil, fmt.Errorf("%w: missing signature header", apperrors.ErrInvalidSignature)
	}

	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err = strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("%w: malformed timestamp", apperrors.ErrInvalidSignature)
			}
		case "v1":
			sig, decErr := hex.DecodeString(kv[1])
			if decErr != nil {
				continue
			}
			sigs = append(sigs, sig)
		}
	}

	if ts == 0 || len(sigs) == 0 {
		return 0, nil, fmt.Errorf("%w: malformed signature header", apperrors.ErrInvalidSignature)
	}
	return ts, sigs, nil
}

// eventEnvelope mirrors the provider's wire format. The order id the
// gateway embedded at session creation comes back in the object metadata.
type eventEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID       string            `json:"id"`
			Metadata map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

func parseEvent(payload []byte) (*models.PaymentEvent, error) {
	var env eventEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("%w: unparseable payload", apperrors.ErrInvalidSignature)
	}

	return &models.PaymentEvent{
		ID:                env.ID,
		Type:              env.Type,
		OrderID:           env.Data.Object.Metadata["order_id"],
		ProviderSessionID: env.Data.Object.ID,
		ReceivedAt:        time.Now(),
	}, nil
}

// Sign produces a valid signature header for a payload at a timestamp.
// Used by the mock gateway and in tests; real events are signed by the
// provider.
func Sign(secret string, ts time.Time, payload []byte) string {
	unix := strconv.FormatInt(ts.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(unix))
	mac.Write([]byte("."))
	mac.Write(payload)
	return "t=" + unix + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}

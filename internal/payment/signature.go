package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// ErrMissingSecret is returned when the verifier is constructed without a
// shared secret. This is a deployment error and fatal at startup.
var ErrMissingSecret = errors.New("payment: signature secret is not configured")

// SignatureVerifier checks the gateway's payment confirmation signature.
// The shared secret is injected at construction; nothing in this package
// reads process environment.
type SignatureVerifier struct {
	secret []byte
}

// NewSignatureVerifier creates a verifier for the given shared secret.
func NewSignatureVerifier(secret string) (*SignatureVerifier, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &SignatureVerifier{secret: []byte(secret)}, nil
}

// Verify recomputes the HMAC-SHA256 over "<gatewayOrderID>|<gatewayPaymentID>"
// and compares it to the supplied hex signature in constant time. A mismatch
// is an expected outcome, not an error.
func (v *SignatureVerifier) Verify(gatewayOrderID, gatewayPaymentID, signature string) bool {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

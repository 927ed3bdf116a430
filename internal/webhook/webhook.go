// Package webhook verifies inbound provider webhook deliveries. A
// delivery is authenticated by an HMAC-SHA256 signature over the raw
// request body, keyed with the integration's shared secret. Rejected
// deliveries never reach the audit pipeline.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignatureHeader is the header GitHub sends the body signature in.
const SignatureHeader = "X-Hub-Signature-256"

const signaturePrefix = "sha256="

// Sign computes the hex HMAC-SHA256 signature of body under secret,
// including the scheme prefix. Used by tests and outbound simulation.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks the delivery signature against the shared
// secret in constant time. The "sha256=" prefix is required; a missing
// or malformed header never verifies.
func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" || !strings.HasPrefix(signature, signaturePrefix) {
		return false
	}
	got, err := hex.DecodeString(strings.TrimPrefix(signature, signaturePrefix))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

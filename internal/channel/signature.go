package channel

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Webhook payloads are signed with HMAC-SHA256 over the raw request body,
// hex-encoded, carried in the X-Webhook-Signature header.

const SignatureHeader = "X-Webhook-Signature"

// Sign computes the signature for a payload.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// ValidSignature compares in constant time.
func ValidSignature(secret string, payload []byte, signature string) bool {
	expected := Sign(secret, payload)
	return hmac.Equal([]byte(expected), []byte(signature))
}

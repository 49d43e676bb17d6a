// Package discordsig authenticates Discord interaction callbacks. Discord
// signs each request with Ed25519 over the signature timestamp concatenated
// with the raw request body, so verification must see the exact bytes as
// received; parsing and re-serializing the body first breaks it.
package discordsig

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
)

// ParseKey decodes the hex-encoded application public key from the Discord
// developer portal.
func ParseKey(hexKey string) (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("discord public key: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("discord public key: want %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

// Verify reports whether sigHex is a valid signature over timestamp‖body.
// An empty timestamp or signature never verifies.
func Verify(key ed25519.PublicKey, timestamp string, body []byte, sigHex string) bool {
	if len(key) != ed25519.PublicKeySize || timestamp == "" || sigHex == "" {
		return false
	}
	sig, err := hex.DecodeString(sigHex)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	msg := make([]byte, 0, len(timestamp)+len(body))
	msg = append(msg, timestamp...)
	msg = append(msg, body...)
	return ed25519.Verify(key, msg, sig)
}

package discordsig

import (
	"crypto/ed25519"
	"encoding/hex"
	"testing"
)

func signed(t *testing.T) (ed25519.PublicKey, string, []byte, string) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	timestamp := "1700000000"
	body := []byte(`{"type":1}`)
	sig := ed25519.Sign(priv, append([]byte(timestamp), body...))
	return pub, timestamp, body, hex.EncodeToString(sig)
}

func TestVerifyValidSignature(t *testing.T) {
	pub, ts, body, sig := signed(t)
	if !Verify(pub, ts, body, sig) {
		t.Fatalf("expected valid signature to verify")
	}
}

func TestVerifyRejectsMutations(t *testing.T) {
	pub, ts, body, sig := signed(t)

	tampered := append([]byte(nil), body...)
	tampered[0] ^= 0x01
	if Verify(pub, ts, tampered, sig) {
		t.Fatalf("mutated body must not verify")
	}

	if Verify(pub, "1700000001", body, sig) {
		t.Fatalf("mutated timestamp must not verify")
	}

	raw, _ := hex.DecodeString(sig)
	raw[0] ^= 0x01
	if Verify(pub, ts, body, hex.EncodeToString(raw)) {
		t.Fatalf("mutated signature must not verify")
	}
}

func TestVerifyRejectsMissingOrMalformedInputs(t *testing.T) {
	pub, ts, body, sig := signed(t)

	if Verify(pub, "", body, sig) {
		t.Fatalf("empty timestamp must not verify")
	}
	if Verify(pub, ts, body, "") {
		t.Fatalf("empty signature must not verify")
	}
	if Verify(pub, ts, body, "not-hex") {
		t.Fatalf("non-hex signature must not verify")
	}
	if Verify(pub, ts, body, "abcd") {
		t.Fatalf("short signature must not verify")
	}
	if Verify(nil, ts, body, sig) {
		t.Fatalf("missing key must not verify")
	}
}

func TestParseKey(t *testing.T) {
	pub, _, _, _ := signed(t)
	parsed, err := ParseKey(hex.EncodeToString(pub))
	if err != nil {
		t.Fatalf("parse key: %v", err)
	}
	if !parsed.Equal(pub) {
		t.Fatalf("parsed key differs from original")
	}

	if _, err := ParseKey("zz"); err == nil {
		t.Fatalf("expected error for non-hex key")
	}
	if _, err := ParseKey("abcd"); err == nil {
		t.Fatalf("expected error for short key")
	}
}

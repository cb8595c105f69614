package crypto

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, 32)
	aead, err := NewAESGCM(key)
	if err != nil {
		t.Fatalf("NewAESGCM failed: %v", err)
	}

	plaintext := []byte("AIzaSy-example-key")
	sealed, err := Encrypt(aead, plaintext)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	opened, err := Decrypt(aead, sealed)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Errorf("round trip mismatch: got %q", opened)
	}
}

func TestDecryptRejectsTampering(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, 32)
	aead, _ := NewAESGCM(key)

	sealed, err := Encrypt(aead, []byte("secret"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	sealed[len(sealed)-1] ^= 0xFF

	if _, err := Decrypt(aead, sealed); !errors.Is(err, ErrAuthenticationFailed) {
		t.Errorf("expected ErrAuthenticationFailed, got %v", err)
	}
}

func TestNewAESGCMRejectsBadKey(t *testing.T) {
	if _, err := NewAESGCM([]byte("short")); !errors.Is(err, ErrInvalidKeySize) {
		t.Errorf("expected ErrInvalidKeySize, got %v", err)
	}
}

func TestDecryptRejectsShortCiphertext(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, 32)
	aead, _ := NewAESGCM(key)
	if _, err := Decrypt(aead, []byte{0x01}); !errors.Is(err, ErrInvalidCiphertext) {
		t.Errorf("expected ErrInvalidCiphertext, got %v", err)
	}
}

package encryption

import (
	"bytes"
	"testing"
)

func TestDeriveContentKeyIsDeterministic(t *testing.T) {
	salt := []byte("stream-salt")
	k1 := DeriveContentKey([]byte("hunter2"), salt)
	k2 := DeriveContentKey([]byte("hunter2"), salt)
	if !bytes.Equal(k1, k2) {
		t.Fatal("expected deterministic derivation for the same passphrase and salt")
	}
	if len(k1) != 16 {
		t.Fatalf("expected a 16-byte AES-128 key, got %d bytes", len(k1))
	}
}

func TestDeriveContentKeyVariesWithSalt(t *testing.T) {
	k1 := DeriveContentKey([]byte("hunter2"), []byte("salt-a"))
	k2 := DeriveContentKey([]byte("hunter2"), []byte("salt-b"))
	if bytes.Equal(k1, k2) {
		t.Fatal("expected different salts to produce different keys")
	}
}

func TestEncryptDecryptSampleRoundTrip(t *testing.T) {
	key := DeriveContentKey([]byte("hunter2"), []byte("salt"))
	iv, err := GenerateIV()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	plaintext := []byte("a sample of media payload bytes, not block aligned")

	ciphertext, err := EncryptSample(key, iv, plaintext)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ciphertext)%16 != 0 {
		t.Fatalf("expected ciphertext to be block-aligned, got %d bytes", len(ciphertext))
	}
	if bytes.Equal(ciphertext, plaintext) {
		t.Fatal("expected ciphertext to differ from plaintext")
	}

	decrypted, err := DecryptSample(key, iv, ciphertext)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Fatalf("expected round-trip to recover plaintext, got %q", decrypted)
	}
}

func TestToManifestKeyRendersAES128(t *testing.T) {
	iv, _ := GenerateIV()
	info := KeyInfo{Key: DeriveContentKey([]byte("p"), []byte("s")), IV: iv, URI: "https://keys.example.com/k1"}
	mk := info.ToManifestKey()
	if mk.Method != "AES-128" {
		t.Fatalf("expected METHOD=AES-128, got %q", mk.Method)
	}
	if mk.URI != "https://keys.example.com/k1" {
		t.Fatalf("expected URI to round-trip, got %q", mk.URI)
	}
	if len(mk.IV) != len("0x")+32 {
		t.Fatalf("expected a 0x-prefixed 32 hex-digit IV, got %q", mk.IV)
	}
}

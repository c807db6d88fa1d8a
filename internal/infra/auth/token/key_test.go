package token

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
)

func TestDeriveSigningKeyLongPassphraseUsedVerbatim(t *testing.T) {
	passphrase := strings.Repeat("k", 40)
	key, err := DeriveSigningKey(passphrase, nil)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if !bytes.Equal(key.bytes(), []byte(passphrase)) {
		t.Fatalf("expected passphrase bytes to be used as-is")
	}
	if key.Degraded {
		t.Fatalf("expected non-degraded key")
	}
}

func TestDeriveSigningKeyStretchesShortPassphrase(t *testing.T) {
	key, err := DeriveSigningKey("short", nil)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	sum := sha256.Sum256([]byte("short"))
	if !bytes.Equal(key.bytes(), sum[:]) {
		t.Fatalf("expected sha256 stretched key")
	}
	if key.Len() != MinKeyBytes {
		t.Fatalf("expected %d bytes, got %d", MinKeyBytes, key.Len())
	}

	again, _ := DeriveSigningKey("short", nil)
	if !bytes.Equal(key.bytes(), again.bytes()) {
		t.Fatalf("expected deterministic derivation")
	}
}

func TestDeriveSigningKeyDegradedFallback(t *testing.T) {
	orig := stretch
	stretch = func([]byte) ([]byte, error) { return nil, errors.New("digest unavailable") }
	t.Cleanup(func() { stretch = orig })

	var buf bytes.Buffer
	logger := hclog.New(&hclog.LoggerOptions{Output: &buf, Level: hclog.Warn})
	key, err := DeriveSigningKey("abc", logger)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if !key.Degraded {
		t.Fatalf("expected degraded key")
	}
	if got := string(key.bytes()); got != strings.Repeat("abc", 11)[:MinKeyBytes] {
		t.Fatalf("unexpected fallback key %q", got)
	}
	if !strings.Contains(buf.String(), "byte repetition") {
		t.Fatalf("expected degraded-mode warning, got %q", buf.String())
	}
}

func TestDeriveSigningKeyEmpty(t *testing.T) {
	if _, err := DeriveSigningKey("", nil); !errors.Is(err, ErrEmptyPassphrase) {
		t.Fatalf("expected ErrEmptyPassphrase, got %v", err)
	}
}

package token

import (
	"crypto/sha256"
	"errors"

	"github.com/hashicorp/go-hclog"
)

// MinKeyBytes is the smallest HMAC key the codec accepts (256 bits).
const MinKeyBytes = 32

var ErrEmptyPassphrase = errors.New("signing passphrase is empty")

// SigningKey is process-wide HMAC key material. It is read-only after
// DeriveSigningKey returns and safe to share between goroutines.
type SigningKey struct {
	material []byte
	// Degraded is set when the key was produced by byte repetition instead of
	// hashing.
	Degraded bool
}

// stretch is swapped in tests to exercise the degraded path.
var stretch = func(passphrase []byte) ([]byte, error) {
	h := sha256.New()
	if _, err := h.Write(passphrase); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

// DeriveSigningKey turns a configured passphrase into key material.
// Passphrases of at least MinKeyBytes bytes are used as-is; shorter ones are
// stretched with SHA-256, falling back to cyclic repetition of the passphrase
// bytes if hashing fails.
func DeriveSigningKey(passphrase string, logger hclog.Logger) (SigningKey, error) {
	raw := []byte(passphrase)
	if len(raw) == 0 {
		return SigningKey{}, ErrEmptyPassphrase
	}
	if len(raw) >= MinKeyBytes {
		return SigningKey{material: raw}, nil
	}
	stretched, err := stretch(raw)
	if err == nil && len(stretched) >= MinKeyBytes {
		return SigningKey{material: stretched}, nil
	}
	if logger != nil {
		logger.Warn("signing key stretch failed, using byte repetition; tokens are weaker until the secret is lengthened", "error", err)
	}
	out := make([]byte, MinKeyBytes)
	for i := range out {
		out[i] = raw[i%len(raw)]
	}
	return SigningKey{material: out, Degraded: true}, nil
}

func (k SigningKey) Len() int {
	return len(k.material)
}

func (k SigningKey) bytes() []byte {
	return k.material
}

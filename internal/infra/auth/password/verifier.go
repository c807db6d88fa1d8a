package password

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"eventbooking/internal/domain"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"

	DefaultPermits = 4

	// MaxBcryptBytes is the longest input bcrypt accepts.
	MaxBcryptBytes = 72
)

var ErrUnsupportedAlgorithm = errors.New("unsupported password hashing algorithm")

// Argon2Params are the argon2id cost parameters embedded in every hash so that
// existing hashes verify after the defaults change.
type Argon2Params struct {
	Iterations uint32
	Memory     uint32
	Threads    uint8
	SaltLength uint32
	KeyLength  uint32
}

func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Iterations: 3,
		Memory:     64 * 1024,
		Threads:    1,
		SaltLength: 16,
		KeyLength:  32,
	}
}

type Config struct {
	Algorithm  string
	BcryptCost int
	Argon2     Argon2Params
	// Permits bounds concurrent hash computations; each costs real CPU and,
	// for argon2id, Memory KiB.
	Permits int
	Rand    io.Reader
}

// Verifier hashes new passwords with one algorithm and verifies hashes from
// any supported algorithm.
type Verifier struct {
	algorithm  string
	bcryptCost int
	argon2     Argon2Params
	permits    *semaphore.Weighted
	rand       io.Reader
	dummyHash  string
}

func NewVerifier(cfg Config) (*Verifier, error) {
	algorithm := strings.ToLower(strings.TrimSpace(cfg.Algorithm))
	if algorithm == "" {
		algorithm = AlgorithmBcrypt
	}
	if algorithm != AlgorithmBcrypt && algorithm != AlgorithmArgon2id {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, cfg.Algorithm)
	}
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range", cost)
	}
	params := cfg.Argon2
	if params == (Argon2Params{}) {
		params = DefaultArgon2Params()
	}
	permits := cfg.Permits
	if permits <= 0 {
		permits = DefaultPermits
	}
	random := cfg.Rand
	if random == nil {
		random = rand.Reader
	}
	v := &Verifier{
		algorithm:  algorithm,
		bcryptCost: cost,
		argon2:     params,
		permits:    semaphore.NewWeighted(int64(permits)),
		rand:       random,
	}
	dummy, err := v.Hash(context.Background(), "dummy-password-for-timing")
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	v.dummyHash = dummy
	return v, nil
}

func (v *Verifier) Algorithm() string {
	return v.algorithm
}

func (v *Verifier) Hash(ctx context.Context, plaintext string) (string, error) {
	if v.algorithm != AlgorithmArgon2id && len(plaintext) > MaxBcryptBytes {
		return "", domain.NewValidationError(fmt.Sprintf("password must be at most %d bytes", MaxBcryptBytes))
	}
	if err := v.permits.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("wait for hashing permit: %w", err)
	}
	defer v.permits.Release(1)

	switch v.algorithm {
	case AlgorithmArgon2id:
		return v.hashArgon2(plaintext)
	default:
		hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), v.bcryptCost)
		if err != nil {
			return "", fmt.Errorf("bcrypt: %w", err)
		}
		return string(hash), nil
	}
}

// Matches reports whether plaintext hashes to hash. It never fails: an empty
// or unrecognised hash, or a cancelled context, is a mismatch.
func (v *Verifier) Matches(ctx context.Context, plaintext, hash string) bool {
	if hash == "" {
		return false
	}
	if err := v.permits.Acquire(ctx, 1); err != nil {
		return false
	}
	defer v.permits.Release(1)

	switch {
	case isBcrypt(hash):
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
	case strings.HasPrefix(hash, argon2Prefix):
		return matchArgon2(plaintext, hash)
	default:
		return false
	}
}

// DummyMatch spends the same effort as a real comparison. Login calls it for
// unknown usernames so response timing does not reveal which names exist.
func (v *Verifier) DummyMatch(ctx context.Context, plaintext string) {
	_ = v.Matches(ctx, plaintext, v.dummyHash)
}

func isBcrypt(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}

const argon2Prefix = "$argon2id$"

func (v *Verifier) hashArgon2(plaintext string) (string, error) {
	p := v.argon2
	salt := make([]byte, p.SaltLength)
	if _, err := io.ReadFull(v.rand, salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	key := argon2.IDKey([]byte(plaintext), salt, p.Iterations, p.Memory, p.Threads, p.KeyLength)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Iterations, p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func matchArgon2(plaintext, encoded string) bool {
	// $argon2id$v=19$m=65536,t=3,p=1$<salt>$<key>
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return false
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}
	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false
	}
	if memory == 0 || iterations == 0 || threads == 0 {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(want) == 0 {
		return false
	}
	got := argon2.IDKey([]byte(plaintext), salt, iterations, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}

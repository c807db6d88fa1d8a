package token

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"eventbooking/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "0123456789abcdef0123456789abcdef-test"

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time {
	return f.t
}

func newTestCodec(t *testing.T, opts ...Option) (*Codec, *fakeClock) {
	t.Helper()
	key, err := DeriveSigningKey(testSecret, nil)
	if err != nil {
		t.Fatalf("derive key: %v", err)
	}
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	opts = append([]Option{WithClock(clock.Now), WithIssuer("event-booking")}, opts...)
	codec, err := NewCodec(key, time.Hour, opts...)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	return codec, clock
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	codec, _ := newTestCodec(t)
	tests := []struct {
		subject string
		role    domain.Role
	}{
		{subject: "alice", role: domain.RoleAdmin},
		{subject: "bob", role: domain.RoleUser},
		{subject: "carol"},
		{subject: "dave with spaces", role: domain.Role("AUDITOR")},
	}
	for _, tt := range tests {
		tok, err := codec.Issue(tt.subject, tt.role)
		if err != nil {
			t.Fatalf("issue %q: %v", tt.subject, err)
		}
		got, ok := codec.Verify(tok)
		if !ok {
			t.Fatalf("expected %q token to verify", tt.subject)
		}
		want := domain.TokenClaims{Subject: tt.subject, Role: tt.role}
		if got != want {
			t.Fatalf("expected %+v, got %+v", want, got)
		}
	}
}

func TestIssueRejectsEmptySubject(t *testing.T) {
	codec, _ := newTestCodec(t)
	if _, err := codec.Issue("  ", domain.RoleUser); err != ErrEmptySubject {
		t.Fatalf("expected ErrEmptySubject, got %v", err)
	}
}

func TestIssueDetailedTimes(t *testing.T) {
	codec, clock := newTestCodec(t)
	issued, err := codec.IssueDetailed("alice", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !issued.IssuedAt.Equal(clock.t) {
		t.Fatalf("expected issuedAt %s, got %s", clock.t, issued.IssuedAt)
	}
	if !issued.ExpiresAt.After(issued.IssuedAt) {
		t.Fatalf("expiresAt must follow issuedAt")
	}
	if issued.ExpiresAt.Sub(issued.IssuedAt) != time.Hour {
		t.Fatalf("expected 1h lifetime, got %s", issued.ExpiresAt.Sub(issued.IssuedAt))
	}
}

func TestRoleClaimsEncoded(t *testing.T) {
	codec, _ := newTestCodec(t)
	tok, err := codec.Issue("alice", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(tok, &claims); err != nil {
		t.Fatalf("parse unverified: %v", err)
	}
	if claims.Role != "ADMIN" {
		t.Fatalf("expected role claim ADMIN, got %q", claims.Role)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != "ADMIN" {
		t.Fatalf("expected roles [ADMIN], got %v", claims.Roles)
	}

	plain, err := codec.Issue("carol", "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	payload := strings.Split(plain, ".")[1]
	decoded, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if strings.Contains(string(decoded), "role") {
		t.Fatalf("expected no role claims, got %s", decoded)
	}
}

func TestVerifyExpiry(t *testing.T) {
	codec, clock := newTestCodec(t)
	tok, err := codec.Issue("alice", domain.RoleUser)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	start := clock.t

	clock.t = start.Add(time.Hour - time.Second)
	if _, ok := codec.Verify(tok); !ok {
		t.Fatalf("expected token valid just before expiry")
	}
	clock.t = start.Add(time.Hour)
	if _, ok := codec.Verify(tok); ok {
		t.Fatalf("expected token invalid exactly at expiry")
	}
	clock.t = start.Add(2 * time.Hour)
	if _, ok := codec.Verify(tok); ok {
		t.Fatalf("expected token invalid after expiry")
	}
}

func TestVerifyRejectsManuallyExpiredToken(t *testing.T) {
	codec, clock := newTestCodec(t)
	claims := Claims{
		Role: "ADMIN",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			Issuer:    "event-booking",
			IssuedAt:  jwt.NewNumericDate(clock.t.Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(clock.t.Add(-time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(codec.key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, ok := codec.Verify(tok); ok {
		t.Fatalf("expected expired token to be invalid")
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	codec, _ := newTestCodec(t)
	tok, err := codec.Issue("alice", domain.RoleUser)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	parts := strings.Split(tok, ".")

	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		t.Fatalf("decode signature: %v", err)
	}
	for i := range sig {
		altered := append([]byte(nil), sig...)
		altered[i] ^= 0x01
		forged := parts[0] + "." + parts[1] + "." + base64.RawURLEncoding.EncodeToString(altered)
		if _, ok := codec.Verify(forged); ok {
			t.Fatalf("expected altered signature byte %d to be rejected", i)
		}
	}

	escalated := base64.RawURLEncoding.EncodeToString([]byte(`{"role":"ADMIN","sub":"alice","exp":4102444800,"iat":1740830400,"iss":"event-booking"}`))
	if _, ok := codec.Verify(parts[0] + "." + escalated + "." + parts[2]); ok {
		t.Fatalf("expected altered payload to be rejected")
	}
}

func TestVerifyRejectsMalformedAndForeignTokens(t *testing.T) {
	codec, clock := newTestCodec(t)

	otherKey, err := DeriveSigningKey("a-completely-different-signing-secret", nil)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	other, err := NewCodec(otherKey, time.Hour, WithClock(clock.Now), WithIssuer("event-booking"))
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	foreign, err := other.Issue("alice", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "alice", Issuer: "event-booking"},
	}).SignedString(codec.key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			Issuer:    "event-booking",
			ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour)),
		},
	}).SignedString(codec.key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	for name, tok := range map[string]string{
		"empty":      "",
		"garbage":    "not-a-token",
		"two parts":  "abc.def",
		"bad base64": "a.b.c",
		"foreign":    foreign,
		"alg none":   unsigned,
		"no expiry":  noExpiry,
		"hs512":      hs512,
	} {
		if _, ok := codec.Verify(tok); ok {
			t.Fatalf("%s: expected invalid", name)
		}
	}
}

func TestNewCodecValidation(t *testing.T) {
	if _, err := NewCodec(SigningKey{material: []byte("short")}, time.Hour); err != ErrWeakKey {
		t.Fatalf("expected ErrWeakKey, got %v", err)
	}
	key, _ := DeriveSigningKey(testSecret, nil)
	if _, err := NewCodec(key, 0); err != ErrInvalidTTL {
		t.Fatalf("expected ErrInvalidTTL, got %v", err)
	}
}

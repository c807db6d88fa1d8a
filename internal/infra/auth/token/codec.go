package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"eventbooking/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultTTL = time.Hour

var (
	ErrEmptySubject = errors.New("token subject is required")
	ErrWeakKey      = fmt.Errorf("signing key must be at least %d bytes", MinKeyBytes)
	ErrInvalidTTL   = errors.New("token ttl must be positive")
)

// Claims is the token payload. Roles duplicates Role for clients that expect
// an array.
type Claims struct {
	Role  string   `json:"role,omitempty"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Codec issues and verifies HS256 tokens. It holds no mutable state.
type Codec struct {
	key    []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
	parser *jwt.Parser
}

type Option func(*Codec)

func WithIssuer(issuer string) Option {
	return func(c *Codec) {
		c.issuer = strings.TrimSpace(issuer)
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

func NewCodec(key SigningKey, ttl time.Duration, opts ...Option) (*Codec, error) {
	if key.Len() < MinKeyBytes {
		return nil, ErrWeakKey
	}
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}
	c := &Codec{
		key: key.bytes(),
		ttl: ttl,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(func() time.Time { return c.now() }),
	}
	if c.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(c.issuer))
	}
	c.parser = jwt.NewParser(parserOpts...)
	return c, nil
}

func (c *Codec) TTL() time.Duration {
	return c.ttl
}

func (c *Codec) Issue(subject string, role domain.Role) (string, error) {
	issued, err := c.IssueDetailed(subject, role)
	if err != nil {
		return "", err
	}
	return issued.Token, nil
}

// IssueDetailed signs a token for subject. An empty role omits the role
// claims entirely.
func (c *Codec) IssueDetailed(subject string, role domain.Role) (domain.IssuedToken, error) {
	if strings.TrimSpace(subject) == "" {
		return domain.IssuedToken{}, ErrEmptySubject
	}
	now := c.now().Truncate(jwt.TimePrecision)
	expiresAt := now.Add(c.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if role != "" {
		claims.Role = string(role)
		claims.Roles = []string{string(role)}
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return domain.IssuedToken{}, fmt.Errorf("sign token: %w", err)
	}
	return domain.IssuedToken{
		Token:     signed,
		Subject:   subject,
		Role:      role,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify reports whether raw is a token this codec issued that has not yet
// expired. Every failure yields the same false result.
func (c *Codec) Verify(raw string) (domain.TokenClaims, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.TokenClaims{}, false
	}
	var claims Claims
	parsed, err := c.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return c.key, nil
	})
	if err != nil || parsed == nil || !parsed.Valid {
		return domain.TokenClaims{}, false
	}
	if claims.ExpiresAt == nil || !c.now().Before(claims.ExpiresAt.Time) {
		return domain.TokenClaims{}, false
	}
	if claims.Subject == "" {
		return domain.TokenClaims{}, false
	}
	return domain.TokenClaims{
		Subject: claims.Subject,
		Role:    domain.Role(claims.Role),
	}, true
}

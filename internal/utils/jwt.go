package utils // package utils provides helper functions for token creation and hashing

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// Errors returned by TokenCodec.Verify. Expired tokens are reported
// separately so callers can choose a more specific message.
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims is the payload of both access and refresh tokens. The subject
// (sub) carries the principal id; name and email are informational.
type Claims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Token is a signed JWT together with its expiry.
type Token struct {
	Value     string    // the serialized JWT string
	ExpiresAt time.Time // the UTC expiration time
}

// TokenCodec signs and verifies HS256 tokens with a single secret and TTL.
// The access and refresh flows each use their own codec.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// CodecOption customizes a TokenCodec.
type CodecOption func(*TokenCodec)

// WithClock overrides the time source used for iat/exp and validation.
func WithClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) { c.now = now }
}

// NewTokenCodec builds a codec for the given secret and lifetime.
func NewTokenCodec(secret string, ttl time.Duration, opts ...CodecOption) *TokenCodec {
	c := &TokenCodec{secret: []byte(secret), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL reports the lifetime of tokens issued by the codec.
func (c *TokenCodec) TTL() time.Duration { return c.ttl }

// Issue signs claims with iat set to now and exp set to now+ttl. Any
// caller-provided IssuedAt/ExpiresAt values are overwritten.
func (c *TokenCodec) Issue(claims Claims) (Token, error) {
	if claims.Subject == "" {
		return Token{}, errors.New("token subject is required")
	}
	now := c.now().UTC()
	exp := now.Add(c.ttl)
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(exp)

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(c.secret)
	if err != nil {
		return Token{}, err
	}
	// exp is serialized with second precision
	return Token{Value: signed, ExpiresAt: exp.Truncate(time.Second)}, nil
}

// Verify checks the signature, algorithm and expiry of raw and returns its
// claims. Tokens without a subject are rejected.
func (c *TokenCodec) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !tok.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// Package auth contains the token codec, password hashing and the request
// context helpers used by the session and guard services.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind distinguishes access tokens from refresh tokens.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 240 * time.Hour
)

// Claims are the JWT claims carried by both token kinds. The account ID is
// the subject; ID (jti) is random so two tokens for the same account never
// collide.
type Claims struct {
	jwt.RegisteredClaims
	Kind Kind `json:"kind"`
}

type kindSettings struct {
	secret []byte
	ttl    time.Duration
}

// Codec issues and verifies HS256 tokens, with a separate key and lifetime
// per kind.
type Codec struct {
	kinds map[Kind]kindSettings
	now   func() time.Time
}

type Option func(*Codec)

// WithClock overrides time.Now for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// NewCodec builds a Codec. Secrets must be non-empty and distinct. A zero
// TTL selects the default for that kind.
func NewCodec(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, opts ...Option) (*Codec, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("token secrets must not be empty")
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("access and refresh token secrets must differ")
	}
	if accessTTL < 0 || refreshTTL < 0 {
		return nil, errors.New("token lifetimes must not be negative")
	}
	if accessTTL == 0 {
		accessTTL = DefaultAccessTokenTTL
	}
	if refreshTTL == 0 {
		refreshTTL = DefaultRefreshTokenTTL
	}

	c := &Codec{
		kinds: map[Kind]kindSettings{
			KindAccess:  {secret: []byte(accessSecret), ttl: accessTTL},
			KindRefresh: {secret: []byte(refreshSecret), ttl: refreshTTL},
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// TTL reports the lifetime of tokens of kind.
func (c *Codec) TTL(kind Kind) time.Duration {
	return c.kinds[kind].ttl
}

// Issue mints a token of kind for accountID.
func (c *Codec) Issue(kind Kind, accountID string) (string, time.Time, error) {
	s, ok := c.kinds[kind]
	if !ok {
		return "", time.Time{}, fmt.Errorf("unknown token kind %q", kind)
	}

	now := c.now()
	expiresAt := now.Add(s.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
		Kind: kind,
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify checks signature, expiry and kind, and returns the account ID.
// Errors are common.ErrInvalidSignature, common.ErrTokenExpired or
// common.ErrMalformedToken.
func (c *Codec) Verify(kind Kind, token string) (string, error) {
	s, ok := c.kinds[kind]
	if !ok {
		return "", common.ErrMalformedToken
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "", common.ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", common.ErrTokenExpired
	default:
		return "", common.ErrMalformedToken
	}

	if claims.Kind != kind || claims.Subject == "" {
		return "", common.ErrMalformedToken
	}
	return claims.Subject, nil
}

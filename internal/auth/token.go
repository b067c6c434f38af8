package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Reasons a bearer token is rejected. They are for logs only; callers see a
// single unauthenticated outcome.
const (
	ReasonMalformed = "malformed"
	ReasonSignature = "signature"
	ReasonExpired   = "expired"
	ReasonClaims    = "claims"
)

// TokenError is returned by Decode for every rejected token.
type TokenError struct {
	Reason string
	Err    error
}

func (e *TokenError) Error() string {
	return "invalid token: " + e.Reason
}

func (e *TokenError) Unwrap() error {
	return e.Err
}

// Claims is the payload of an access token.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenIssuer signs and verifies HS256 access tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer whose tokens live for ttl by default.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL returns the default token lifetime.
func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// Issue signs a token for subject with the default lifetime.
func (i *TokenIssuer) Issue(subject string) (string, time.Time, error) {
	return i.IssueWithTTL(subject, i.ttl)
}

// IssueWithTTL signs a token for subject that expires after ttl.
func (i *TokenIssuer) IssueWithTTL(subject string, ttl time.Duration) (string, time.Time, error) {
	now := i.now().UTC().Truncate(time.Second)
	expiresAt := now.Add(ttl)

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, expiresAt, nil
}

// Decode verifies tokenString and returns its claims. Any failure is a
// *TokenError.
func (i *TokenIssuer) Decode(tokenString string) (*Claims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, &TokenError{Reason: classify(err), Err: err}
	}
	if !token.Valid || claims.Subject == "" {
		return nil, &TokenError{Reason: ReasonClaims, Err: errors.New("missing subject")}
	}

	// NumericDate decodes into time.Local.
	out := &Claims{Subject: claims.Subject, ExpiresAt: claims.ExpiresAt.UTC()}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.UTC()
	}
	return out, nil
}

func classify(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ReasonExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ReasonSignature
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ReasonMalformed
	default:
		return ReasonClaims
	}
}

package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/facebookgo/clock"
	"github.com/golang-jwt/jwt/v5"
)

// Issuer is the iss claim on every token this service signs
const Issuer = "tearound"

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid bearer token")
)

type userClaims struct {
	jwt.RegisteredClaims
}

// TokenVerifier signs and checks HS256 bearer tokens whose subject is the user ID
type TokenVerifier struct {
	secret []byte
	clock  clock.Clock
}

// NewTokenVerifier creates a verifier. The secret must not be empty.
func NewTokenVerifier(secret string, clk clock.Clock) (*TokenVerifier, error) {
	if secret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if clk == nil {
		clk = clock.New()
	}
	return &TokenVerifier{secret: []byte(secret), clock: clk}, nil
}

// Issue returns a signed token for userID valid for ttl
func (v *TokenVerifier) Issue(userID string, ttl time.Duration) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", errors.New("user ID is required")
	}

	now := v.clock.Now()
	claims := userClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a token and returns the user ID it was issued for
func (v *TokenVerifier) Verify(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.clock.Now),
	)

	claims := &userClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if strings.TrimSpace(claims.Subject) == "" {
		return "", fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}

// BearerToken extracts the token from an Authorization header value
func BearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

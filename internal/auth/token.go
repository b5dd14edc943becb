package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultTokenTTL = 24 * time.Hour

// Claims carries the identity facts inside a signed session token.
// Verification is self-contained: nothing here requires a store lookup.
type Claims struct {
	Email    string `json:"email"`
	RoleID   string `json:"role_id"`
	RoleName Role   `json:"role_name"`
	jwt.RegisteredClaims
}

// UserID returns the subject identity id.
func (c *Claims) UserID() string { return c.Subject }

// IsAdministrator reports whether the claims carry the administrator role.
func (c *Claims) IsAdministrator() bool { return c.RoleName == RoleAdministrator }

// TokenService issues and verifies signed session tokens. The signing
// secret is injected at construction; rotating it makes previously issued
// tokens unverifiable, which the short TTL makes acceptable.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// TokenOption customizes a TokenService.
type TokenOption func(*TokenService)

// WithIssuer overrides the issuer claim.
func WithIssuer(issuer string) TokenOption {
	return func(s *TokenService) { s.issuer = issuer }
}

// WithTokenTTL overrides the fixed session lifetime.
func WithTokenTTL(ttl time.Duration) TokenOption {
	return func(s *TokenService) { s.ttl = ttl }
}

// NewTokenService constructs a token service with the given signing secret.
func NewTokenService(secret string, opts ...TokenOption) (*TokenService, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("signing secret is required")
	}
	s := &TokenService{
		secret: []byte(secret),
		issuer: "saletrack",
		ttl:    defaultTokenTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ttl <= 0 {
		return nil, errors.New("token ttl must be greater than zero")
	}
	return s, nil
}

// Issue signs an HS256 session token for the identity. Returns the token
// and its expiry.
func (s *TokenService) Issue(ident *Identity) (string, time.Time, error) {
	if ident == nil || strings.TrimSpace(ident.ID) == "" {
		return "", time.Time{}, errors.New("identity is required")
	}
	if !KnownRole(ident.RoleName) {
		return "", time.Time{}, errors.New("unknown role: " + string(ident.RoleName))
	}

	now := time.Now().UTC()
	expiresAt := now.Add(s.ttl)
	claims := Claims{
		Email:    ident.Email,
		RoleID:   ident.RoleID,
		RoleName: ident.RoleName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   ident.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseAndValidate verifies signature and expiry. ErrTokenExpired is kept
// distinct from ErrInvalidToken; both must be surfaced to callers as
// unauthenticated, never as a crash.
func (s *TokenService) ParseAndValidate(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if err := s.validateClaims(claims); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *TokenService) validateClaims(claims *Claims) error {
	if claims.Issuer != s.issuer {
		return errors.New("unexpected issuer")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return errors.New("subject missing")
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return errors.New("timestamps missing")
	}
	if !KnownRole(claims.RoleName) {
		return errors.New("unknown role")
	}
	// Allow a small clock skew of 5 seconds when validating issued-at.
	now := time.Now().UTC()
	if claims.IssuedAt.Time.After(now.Add(5 * time.Second)) {
		return errors.New("token issued in the future")
	}
	if claims.ExpiresAt.Time.Before(claims.IssuedAt.Time) {
		return errors.New("token expiry precedes issued-at")
	}
	return nil
}

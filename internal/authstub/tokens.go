package authstub

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Token types carried in the token_type claim.
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

// Claims are the JWT claims issued by the stub.
type Claims struct {
	TokenType string `json:"token_type"`
	UserID    string `json:"user_id"`
	Email     string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 tokens.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewIssuer constructs an Issuer. The refresh lifetime is a day or 24 access lifetimes, whichever is longer.
func NewIssuer(secret string, accessTTL time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("authstub: jwt secret is required")
	}
	if accessTTL <= 0 {
		accessTTL = 5 * time.Minute
	}
	refresh := 24 * accessTTL
	if refresh < 24*time.Hour {
		refresh = 24 * time.Hour
	}
	return &Issuer{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refresh, now: time.Now}, nil
}

// Pair issues an access and a refresh token for user.
func (i *Issuer) Pair(user User) (access, refresh string, err error) {
	if access, err = i.sign(user, TokenAccess, i.accessTTL); err != nil {
		return "", "", err
	}
	if refresh, err = i.sign(user, TokenRefresh, i.refreshTTL); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (i *Issuer) sign(user User, kind string, ttl time.Duration) (string, error) {
	now := i.now()
	claims := &Claims{
		TokenType: kind,
		UserID:    user.ID,
		Email:     user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("authstub: sign %s token: %w", kind, err)
	}
	return signed, nil
}

// Verify parses token and checks its signature, expiry and type.
func (i *Issuer) Verify(token, kind string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("authstub: invalid token")
	}
	if claims.TokenType != kind {
		return nil, fmt.Errorf("authstub: expected %s token, got %s", kind, claims.TokenType)
	}
	return claims, nil
}

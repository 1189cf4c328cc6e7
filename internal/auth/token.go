package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/frahmantamala/consent-management/internal"
)

// Claims carries the platform identity embedded in every access token:
// who the actor is, their primary role, any additional roles, and the
// elevated super-admin flag that gates the role registry.
type Claims struct {
	UserID          int64    `json:"user_id"`
	PrimaryRole     string   `json:"primary_role"`
	AdditionalRoles []string `json:"additional_roles,omitempty"`
	IsSuperAdmin    bool     `json:"is_super_admin"`
	jwt.RegisteredClaims
}

type TokenGenerator struct {
	Secret   []byte
	TokenTTL time.Duration
}

func NewTokenGenerator(secret string) *TokenGenerator {
	return &TokenGenerator{
		Secret:   []byte(secret),
		TokenTTL: 15 * time.Minute,
	}
}

// Generate creates a signed access token for the given identity.
func (g *TokenGenerator) Generate(userID int64, primaryRole string, additionalRoles []string, isSuperAdmin bool) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:          userID,
		PrimaryRole:     primaryRole,
		AdditionalRoles: additionalRoles,
		IsSuperAdmin:    isSuperAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(g.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   strconv.FormatInt(userID, 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(g.Secret)
}

// Validate verifies signature and expiry and returns the claims.
func (g *TokenGenerator) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return g.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, internal.ErrTokenExpired
		}
		return nil, internal.ErrInvalidToken
	}
	if !token.Valid {
		return nil, internal.ErrInvalidToken
	}
	return claims, nil
}

// PeekClaims decodes a token WITHOUT verifying its signature. The
// client has no signing key; it only reads claims to decide what to
// show (e.g. the super-admin gate). Authorization itself stays
// server-side.
func PeekClaims(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, internal.ErrInvalidToken
	}
	return claims, nil
}

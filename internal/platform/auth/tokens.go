package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token types carried in the token_type claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenIssuer signs access and refresh tokens with an HMAC key. It backs the
// built-in login and refresh endpoints in standalone mode.
type TokenIssuer struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenIssuer creates a TokenIssuer. The issuer string goes into the iss
// claim; TTLs control token lifetimes.
func NewTokenIssuer(secret []byte, issuer string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:     secret,
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssueAccessToken signs an access token for the user with the given roles.
func (i *TokenIssuer) IssueAccessToken(userID string, roles []string) (string, error) {
	return i.sign(userID, roles, TokenTypeAccess, i.accessTTL)
}

// IssueRefreshToken signs a refresh token for the user. Roles are not
// embedded: they are re-read from the store when the token is redeemed, so a
// role change takes effect at the next refresh.
func (i *TokenIssuer) IssueRefreshToken(userID string) (string, error) {
	return i.sign(userID, nil, TokenTypeRefresh, i.refreshTTL)
}

func (i *TokenIssuer) sign(userID string, roles []string, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Roles:     roles,
		TokenType: tokenType,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

// ParseRefreshToken validates a refresh token and returns the subject user ID.
// Access tokens are rejected so a leaked short-lived token cannot mint new
// credentials.
func (i *TokenIssuer) ParseRefreshToken(tokenStr string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithIssuer(i.issuer))
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid refresh token")
	}
	if claims.TokenType != TokenTypeRefresh {
		return "", fmt.Errorf("token is not a refresh token")
	}
	return claims.Subject, nil
}

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

var testSecret = []byte("test-signing-secret")

func newIssuer() *TokenIssuer {
	return NewTokenIssuer(testSecret, "clinicore", 30*time.Minute, 24*time.Hour)
}

func doAuth(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/patients", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, UserIDFromContext(c.Request().Context()))
	})
	return rec, h(c)
}

func TestJWTMiddleware_AcceptsAccessToken(t *testing.T) {
	issuer := newIssuer()
	token, err := issuer.IssueAccessToken("user-1", []string{"therapist"})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	mw := JWTMiddleware(JWTConfig{SigningKey: testSecret, Issuer: "clinicore"})
	rec, err := doAuth(t, mw, "Bearer "+token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Body.String() != "user-1" {
		t.Errorf("user id = %q, want user-1", rec.Body.String())
	}
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	mw := JWTMiddleware(JWTConfig{SigningKey: testSecret})
	_, err := doAuth(t, mw, "")
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestJWTMiddleware_MalformedHeader(t *testing.T) {
	mw := JWTMiddleware(JWTConfig{SigningKey: testSecret})
	_, err := doAuth(t, mw, "Basic abc123")
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestJWTMiddleware_WrongKey(t *testing.T) {
	other := NewTokenIssuer([]byte("other-secret"), "clinicore", time.Minute, time.Hour)
	token, _ := other.IssueAccessToken("user-1", nil)

	mw := JWTMiddleware(JWTConfig{SigningKey: testSecret})
	_, err := doAuth(t, mw, "Bearer "+token)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestJWTMiddleware_RejectsRefreshToken(t *testing.T) {
	issuer := newIssuer()
	token, _ := issuer.IssueRefreshToken("user-1")

	mw := JWTMiddleware(JWTConfig{SigningKey: testSecret, Issuer: "clinicore"})
	_, err := doAuth(t, mw, "Bearer "+token)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for refresh token on API route, got %v", err)
	}
}

func TestJWTMiddleware_ExpiredToken(t *testing.T) {
	expired := NewTokenIssuer(testSecret, "clinicore", -time.Minute, time.Hour)
	token, _ := expired.IssueAccessToken("user-1", nil)

	mw := JWTMiddleware(JWTConfig{SigningKey: testSecret, Issuer: "clinicore"})
	_, err := doAuth(t, mw, "Bearer "+token)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for expired token, got %v", err)
	}
}

func TestDevAuthMiddleware_GrantsAdmin(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/patients", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := DevAuthMiddleware()(func(c echo.Context) error {
		roles := RolesFromContext(c.Request().Context())
		if len(roles) != 1 || roles[0] != "admin" {
			t.Errorf("roles = %v, want [admin]", roles)
		}
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = rec
}

func TestParseRefreshToken_RoundTrip(t *testing.T) {
	issuer := newIssuer()
	token, err := issuer.IssueRefreshToken("user-42")
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}

	userID, err := issuer.ParseRefreshToken(token)
	if err != nil {
		t.Fatalf("parse refresh: %v", err)
	}
	if userID != "user-42" {
		t.Errorf("userID = %q, want user-42", userID)
	}
}

func TestParseRefreshToken_RejectsAccessToken(t *testing.T) {
	issuer := newIssuer()
	token, _ := issuer.IssueAccessToken("user-42", []string{"admin"})

	if _, err := issuer.ParseRefreshToken(token); err == nil {
		t.Error("expected error when redeeming an access token as refresh")
	}
}

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func signToken(t *testing.T, key []byte, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

func okHandler(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func TestJWTMiddlewareHMAC(t *testing.T) {
	key := []byte("test-secret")
	mw := JWTMiddleware(JWTConfig{SigningKey: key})

	tokenStr := signToken(t, key, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "nurse-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Roles: []string{"nurse"},
	})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var uid string
	var roles []string
	err := mw(func(c echo.Context) error {
		uid = UserIDFromContext(c.Request().Context())
		roles = RolesFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if uid != "nurse-1" || len(roles) != 1 || roles[0] != "nurse" {
		t.Errorf("context = %s/%v", uid, roles)
	}
}

func TestJWTMiddlewareRejections(t *testing.T) {
	key := []byte("test-secret")
	mw := JWTMiddleware(JWTConfig{SigningKey: key})
	e := echo.New()

	run := func(authHeader string) error {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if authHeader != "" {
			req.Header.Set("Authorization", authHeader)
		}
		rec := httptest.NewRecorder()
		return mw(okHandler)(e.NewContext(req, rec))
	}

	expired := signToken(t, key, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "x",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	wrongKey := signToken(t, []byte("other-secret"), Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"malformed header", "Token abc"},
		{"garbage token", "Bearer not.a.jwt"},
		{"expired token", "Bearer " + expired},
		{"wrong key", "Bearer " + wrongKey},
	}
	for _, tt := range tests {
		err := run(tt.header)
		he, ok := err.(*echo.HTTPError)
		if !ok || he.Code != http.StatusUnauthorized {
			t.Errorf("%s: got %v, want 401", tt.name, err)
		}
	}
}

func TestDevAuthMiddlewareDefaults(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var uid string
	var roles []string
	err := DevAuthMiddleware()(func(c echo.Context) error {
		uid = UserIDFromContext(c.Request().Context())
		roles = RolesFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})(c)
	if err != nil {
		t.Fatal(err)
	}
	if uid != "dev-user" || len(roles) != 1 || roles[0] != "admin" {
		t.Errorf("dev defaults = %s/%v", uid, roles)
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()

	run := func(userRoles []string, required ...string) error {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if userRoles != nil {
			req = req.WithContext(context.WithValue(req.Context(), UserRolesKey, userRoles))
		}
		rec := httptest.NewRecorder()
		return RequireRole(required...)(okHandler)(e.NewContext(req, rec))
	}

	if err := run([]string{"nurse"}, "nurse", "physician"); err != nil {
		t.Errorf("nurse rejected: %v", err)
	}
	// Admin passes every gate.
	if err := run([]string{"admin"}, "physician"); err != nil {
		t.Errorf("admin rejected: %v", err)
	}

	err := run([]string{"registrar"}, "physician")
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Errorf("registrar got %v, want 403", err)
	}

	err = run(nil, "physician")
	he, ok = err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Errorf("anonymous got %v, want 403", err)
	}
}

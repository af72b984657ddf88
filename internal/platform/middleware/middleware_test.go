package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func runChain(t *testing.T, mw echo.MiddlewareFunc, handler echo.HandlerFunc, req *http.Request) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := mw(handler)(c)
	return rec, err
}

func okHandler(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func TestRequestIDGeneratesWhenAbsent(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	var seen string
	rec, err := runChain(t, RequestID(), func(c echo.Context) error {
		seen, _ = c.Get(RequestIDKey).(string)
		return c.NoContent(http.StatusOK)
	}, req)
	if err != nil {
		t.Fatal(err)
	}
	if seen == "" {
		t.Error("no request id set on context")
	}
	if rec.Header().Get(echo.HeaderXRequestID) != seen {
		t.Error("response header does not match context id")
	}
}

func TestRequestIDHonorsInbound(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderXRequestID, "upstream-42")
	rec, err := runChain(t, RequestID(), okHandler, req)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Header().Get(echo.HeaderXRequestID) != "upstream-42" {
		t.Errorf("request id = %s, want upstream-42", rec.Header().Get(echo.HeaderXRequestID))
	}
}

func TestSecurityHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec, err := runChain(t, SecurityHeaders(), okHandler, req)
	if err != nil {
		t.Fatal(err)
	}
	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Cache-Control":          "no-store",
	} {
		if got := rec.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
}

func TestRateLimitRejectsBeyondBurst(t *testing.T) {
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2})

	e := echo.New()
	var lastErr error
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		lastErr = mw(okHandler)(c)
	}

	he, ok := lastErr.(*echo.HTTPError)
	if !ok || he.Code != http.StatusTooManyRequests {
		t.Errorf("third request = %v, want 429", lastErr)
	}
}

func TestRateLimitKeysPerClient(t *testing.T) {
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})

	e := echo.New()
	for i, addr := range []string{"10.0.0.1:1", "10.0.0.2:1"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if err := mw(okHandler)(c); err != nil {
			t.Errorf("client %d limited by another client's bucket: %v", i, err)
		}
	}
}

func TestRecoveryConvertsPanic(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := runChain(t, Recovery(zerolog.Nop()), func(echo.Context) error {
		panic("boom")
	}, req)

	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusInternalServerError {
		t.Errorf("panic produced %v, want 500", err)
	}
}

func TestLoggerPassesErrorThrough(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	want := errors.New("boom")
	_, err := runChain(t, Logger(zerolog.Nop()), func(echo.Context) error {
		return want
	}, req)
	if !errors.Is(err, want) {
		t.Errorf("err = %v, want original error", err)
	}
}

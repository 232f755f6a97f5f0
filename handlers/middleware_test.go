package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"mtgstone/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSecurityHeadersMiddleware(t *testing.T) {
	dummyHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	middleware := SecurityHeadersMiddleware(dummyHandler)

	req := httptest.NewRequest("GET", "/mtg-stone/users", nil)
	rr := httptest.NewRecorder()
	middleware.ServeHTTP(rr, req)

	expectedHeaders := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Referrer-Policy":         "strict-origin-when-cross-origin",
		"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
		"Cache-Control":           "no-store",
	}
	for key, expectedValue := range expectedHeaders {
		if value := rr.Header().Get(key); value != expectedValue {
			t.Errorf("Header %s: expected %s, got %s", key, expectedValue, value)
		}
	}

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status OK, got %v", rr.Code)
	}
}

func TestCORSMiddleware(t *testing.T) {
	called := false
	dummyHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})
	middleware := CORSMiddleware([]string{"http://localhost:3000"})(dummyHandler)

	req := httptest.NewRequest("OPTIONS", "/mtg-stone/log-in", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	middleware.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent || called {
		t.Errorf("Expected preflight to be answered directly, got %d (handler called: %v)", rr.Code, called)
	}
	if val := rr.Header().Get("Access-Control-Allow-Origin"); val != "http://localhost:3000" {
		t.Errorf("Expected Access-Control-Allow-Origin to be http://localhost:3000, got %s", val)
	}
	if val := rr.Header().Get("Access-Control-Allow-Credentials"); val != "true" {
		t.Errorf("Expected credentials to be allowed, got %q", val)
	}
	if val := rr.Header().Get("Access-Control-Allow-Methods"); val != "POST, GET, OPTIONS, DELETE" {
		t.Errorf("Unexpected Access-Control-Allow-Methods: %s", val)
	}

	req = httptest.NewRequest("GET", "/mtg-stone/users", nil)
	req.Header.Set("Origin", "http://evil.example")
	rr = httptest.NewRecorder()
	middleware.ServeHTTP(rr, req)

	if !called {
		t.Error("Expected a simple request to reach the handler")
	}
	if val := rr.Header().Get("Access-Control-Allow-Origin"); val != "" {
		t.Errorf("Unknown origin must not be allowed, got %s", val)
	}
}

func TestCORSMiddlewareWildcard(t *testing.T) {
	middleware := CORSMiddleware([]string{"*"})(http.NotFoundHandler())

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "http://anywhere.example")
	rr := httptest.NewRecorder()
	middleware.ServeHTTP(rr, req)

	// Credentials forbid a literal "*", so the origin is echoed.
	if val := rr.Header().Get("Access-Control-Allow-Origin"); val != "http://anywhere.example" {
		t.Errorf("Expected the origin to be echoed, got %q", val)
	}
}

func TestLoggingMiddleware(t *testing.T) {
	original := logger.Log
	t.Cleanup(func() { logger.Log = original })
	core, logs := observer.New(zapcore.InfoLevel)
	logger.Use(zap.New(core))

	var seen string
	handler := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/teapot", nil))

	id := rr.Header().Get("X-Request-ID")
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("Expected a uuid request id, got %q", id)
	}
	if seen != id {
		t.Errorf("Handler saw request id %q, response carries %q", seen, id)
	}

	entries := logs.FilterMessage("request").All()
	if len(entries) != 1 {
		t.Fatalf("Expected one access log entry, got %v", logs.All())
	}
	fields := entries[0].ContextMap()
	if fields["status"] != int64(http.StatusTeapot) || fields["path"] != "/teapot" || fields["request_id"] != id {
		t.Errorf("Unexpected access log fields %v", fields)
	}
	if fields["bytes"] != int64(len("short and stout")) {
		t.Errorf("Expected byte count in access log, got %v", fields["bytes"])
	}

	// A well-formed incoming id is kept.
	incoming := uuid.NewString()
	req := httptest.NewRequest("GET", "/teapot", nil)
	req.Header.Set("X-Request-ID", incoming)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Header().Get("X-Request-ID") != incoming {
		t.Errorf("Expected incoming request id %s to be kept, got %s", incoming, rr.Header().Get("X-Request-ID"))
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	original := logger.Log
	t.Cleanup(func() { logger.Log = original })
	core, logs := observer.New(zapcore.ErrorLevel)
	logger.Use(zap.New(core))

	handler := RecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	if rr.Code != http.StatusInternalServerError || rr.Body.String() != "Internal server error" {
		t.Errorf("Expected 500, got %d %q", rr.Code, rr.Body.String())
	}
	if logs.FilterMessage("handler panic").Len() != 1 {
		t.Errorf("Expected the panic to be logged, got %v", logs.All())
	}
}

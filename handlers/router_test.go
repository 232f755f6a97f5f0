package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"mtgstone/crypto"
)

func TestHello(t *testing.T) {
	srv := newTestServer(t, Options{})
	c := srv.client(t)

	expect(t, c.do("GET", "/", nil), http.StatusOK, "Hello, World!")

	c.header.Set("Accept-Language", "fr")
	expect(t, c.do("GET", "/", nil), http.StatusOK, "Bonjour, le monde !")
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, Options{})
	c := srv.client(t)

	w := c.do("GET", "/health", nil)
	expect(t, w, http.StatusOK, "")
	var health healthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Status != "ok" || health.Time.IsZero() {
		t.Errorf("unexpected health answer %+v", health)
	}

	srv.store.Close()
	w = c.do("GET", "/health", nil)
	expect(t, w, http.StatusServiceUnavailable, "")
}

func TestRouting(t *testing.T) {
	srv := newTestServer(t, Options{AllowedOrigins: []string{"http://localhost:3000"}})
	c := srv.client(t)

	expect(t, c.do("GET", "/mtg-stone/sign-up", nil), http.StatusMethodNotAllowed, "")
	expect(t, c.do("GET", "/mtg-stone/nope", nil), http.StatusNotFound, "")

	// Preflight for a POST-only route is answered by the CORS layer.
	c.header.Set("Origin", "http://localhost:3000")
	c.header.Set("Access-Control-Request-Method", "POST")
	w := c.do("OPTIONS", "/mtg-stone/log-in", nil)
	expect(t, w, http.StatusNoContent, "")
	if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Errorf("missing CORS headers on preflight: %v", w.Header())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected the request id on every response")
	}
}

func TestCSRFDisabled(t *testing.T) {
	srv := newTestServer(t, Options{})
	c := srv.client(t)

	expect(t, c.do("GET", "/mtg-stone/csrf-token", nil), http.StatusNotFound, "CSRF protection is disabled")
	expect(t, c.do("POST", "/mtg-stone/logout", nil), http.StatusOK, "")
}

func TestCSRFProtection(t *testing.T) {
	key, err := crypto.DeriveCSRFKey("test-secret")
	if err != nil {
		t.Fatalf("DeriveCSRFKey failed: %v", err)
	}
	srv := newTestServer(t, Options{CSRFKey: key})
	c := srv.client(t)

	expect(t, c.do("POST", "/mtg-stone/logout", nil), http.StatusForbidden, "Invalid CSRF token")

	w := c.do("GET", "/mtg-stone/csrf-token", nil)
	expect(t, w, http.StatusOK, "")
	var body csrfTokenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.CSRFToken == "" {
		t.Fatalf("expected a csrf token, got %q (%v)", w.Body.String(), err)
	}
	if w.Header().Get("X-CSRF-Token") != body.CSRFToken {
		t.Error("expected the token to be mirrored in X-CSRF-Token")
	}
	if _, ok := c.cookies[csrfCookieName]; !ok {
		t.Fatalf("expected the %s cookie to be set", csrfCookieName)
	}

	c.header.Set("X-CSRF-Token", body.CSRFToken)
	expect(t, c.do("POST", "/mtg-stone/logout", nil), http.StatusOK, "")

	// Safe methods never need a token.
	c.header.Del("X-CSRF-Token")
	expect(t, c.do("GET", "/mtg-stone/users", nil), http.StatusOK, "")
}

func TestOriginHosts(t *testing.T) {
	got := originHosts([]string{"http://localhost:3000", "https://mtg.example.com", "*", "::bad"})
	if len(got) != 2 || got[0] != "localhost:3000" || got[1] != "mtg.example.com" {
		t.Errorf("unexpected hosts %v", got)
	}
}

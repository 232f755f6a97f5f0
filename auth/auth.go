package auth

import (
	"net/http"
	"time"

	"mtgstone/crypto"

	"github.com/gorilla/sessions"
)

const (
	SessionName = "mtg-stone-session"
	markerKey   = "email"
)

// Manager keeps the session marker (the user's email) in a signed and
// encrypted cookie.
type Manager struct {
	store *sessions.CookieStore
}

type Options struct {
	MaxAge time.Duration
	Secure bool
}

func NewManager(secret string, opts Options) (*Manager, error) {
	authKey, encKey, err := crypto.DeriveSessionKeys(secret)
	if err != nil {
		return nil, err
	}

	store := sessions.NewCookieStore(authKey, encKey)
	// MaxAge also bounds how old a decoded cookie may be.
	store.MaxAge(int(opts.MaxAge / time.Second))
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = opts.Secure
	store.Options.SameSite = http.SameSiteLaxMode
	if opts.Secure {
		// Cross-site frontends need SameSite=None, which browsers only
		// accept together with Secure.
		store.Options.SameSite = http.SameSiteNoneMode
	}

	return &Manager{store: store}, nil
}

// Marker returns the email stored in the request's session, if any. A
// cookie that fails to decode counts as no session.
func (m *Manager) Marker(r *http.Request) (string, bool) {
	session, err := m.store.Get(r, SessionName)
	if err != nil {
		return "", false
	}
	email, ok := session.Values[markerKey].(string)
	if !ok || email == "" {
		return "", false
	}
	return email, true
}

func (m *Manager) SetMarker(w http.ResponseWriter, r *http.Request, email string) error {
	session, _ := m.store.Get(r, SessionName)
	session.Values[markerKey] = email
	return session.Save(r, w)
}

// Clear drops the marker and expires the cookie.
func (m *Manager) Clear(w http.ResponseWriter, r *http.Request) error {
	session, _ := m.store.Get(r, SessionName)
	delete(session.Values, markerKey)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

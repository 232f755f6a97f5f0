package handlers

import (
	"net/http"
	"net/url"
	"time"

	"mtgstone/logger"

	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
)

const (
	APIPrefix      = "/mtg-stone"
	csrfCookieName = "mtg-stone-csrf"
)

// Router wires every route and wraps the result in the middleware chain.
// The chain sits outside the mux so that 404, 405 and CORS preflight
// responses are logged and carry the same headers.
func (h *Handler) Router() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/", h.Hello).Methods(http.MethodGet)
	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	api := router.PathPrefix(APIPrefix).Subrouter()
	api.HandleFunc("/sign-up", h.SignUp).Methods(http.MethodPost)
	api.HandleFunc("/log-in", h.LogIn).Methods(http.MethodPost)
	api.HandleFunc("/logged-in", h.LoggedIn).Methods(http.MethodGet)
	api.HandleFunc("/logout", h.Logout).Methods(http.MethodPost)
	api.HandleFunc("/user/{id}", h.GetUser).Methods(http.MethodGet)
	api.HandleFunc("/users", h.ListUsers).Methods(http.MethodGet)
	api.HandleFunc("/delete-user/{id}", h.DeleteUser).Methods(http.MethodDelete)
	api.HandleFunc("/add-card-to-user", h.AddCardToUser).Methods(http.MethodPost)
	api.HandleFunc("/remove-card-from-user", h.RemoveCardFromUser).Methods(http.MethodDelete)
	api.HandleFunc("/all-cards", h.ListCards).Methods(http.MethodGet)
	api.HandleFunc("/csrf-token", h.CSRFToken).Methods(http.MethodGet)

	var handler http.Handler = router
	if h.csrfEnabled() {
		handler = h.csrfMiddleware(handler)
	}
	handler = CORSMiddleware(h.opts.AllowedOrigins)(handler)
	handler = SecurityHeadersMiddleware(handler)
	handler = RecoveryMiddleware(handler)
	return LoggingMiddleware(handler)
}

func (h *Handler) csrfEnabled() bool {
	return len(h.opts.CSRFKey) > 0
}

func (h *Handler) csrfMiddleware(next http.Handler) http.Handler {
	protect := csrf.Protect(h.opts.CSRFKey,
		csrf.CookieName(csrfCookieName),
		csrf.Path("/"),
		csrf.Secure(h.opts.SecureCookies),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.TrustedOrigins(originHosts(h.opts.AllowedOrigins)),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Warn("csrf check failed",
				"request_id", RequestID(r.Context()),
				"path", r.URL.Path,
				"reason", csrf.FailureReason(r),
			)
			message(w, r, http.StatusForbidden, "CSRFInvalid")
		})),
	)
	protected := protect(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Without TLS the Referer check has nothing to compare against.
		if r.TLS == nil && !h.opts.SecureCookies {
			r = csrf.PlaintextHTTPRequest(r)
		}
		protected.ServeHTTP(w, r)
	})
}

// originHosts turns "http://localhost:3000" into "localhost:3000".
func originHosts(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, o := range origins {
		u, err := url.Parse(o)
		if err != nil || u.Host == "" {
			continue
		}
		hosts = append(hosts, u.Host)
	}
	return hosts
}

type csrfTokenResponse struct {
	CSRFToken string `json:"csrf_token"`
}

func (h *Handler) CSRFToken(w http.ResponseWriter, r *http.Request) {
	if !h.csrfEnabled() {
		message(w, r, http.StatusNotFound, "CSRFDisabled")
		return
	}
	token := csrf.Token(r)
	w.Header().Set("X-CSRF-Token", token)
	writeJSON(w, http.StatusOK, csrfTokenResponse{CSRFToken: token})
}

type healthResponse struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		logger.Error("health check failed", "request_id", RequestID(r.Context()), "error", err)
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Time: time.Now().UTC()})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Time: time.Now().UTC()})
}

package handlers

import (
	"errors"
	"net/http"

	"mtgstone/auth"
	"mtgstone/crypto"
	"mtgstone/db"
	"mtgstone/i18n"
	"mtgstone/logger"
	"mtgstone/models"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

const maxBodyBytes = 1 << 20

// Handler serves every route. It holds no per-request state.
type Handler struct {
	store         *db.Store
	sessions      *auth.Manager
	validate      *validator.Validate
	opts          Options
	loginLimiter  *rateLimiter
	signupLimiter *rateLimiter
}

type Options struct {
	BcryptCost int
	// LoginMaxAttempts is the number of failed log-ins per IP before the IP
	// is blocked. 0 disables the limit.
	LoginMaxAttempts int
	// SignupMaxAttempts is the number of sign-ups per IP before the IP is
	// blocked. 0 disables the limit.
	SignupMaxAttempts int
	AllowedOrigins    []string
	// CSRFKey turns on CSRF protection when set. It must be 32 bytes.
	CSRFKey       []byte
	SecureCookies bool
}

func New(store *db.Store, sessions *auth.Manager, opts Options) *Handler {
	return &Handler{
		store:         store,
		sessions:      sessions,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		opts:          opts,
		loginLimiter:  newRateLimiter(opts.LoginMaxAttempts),
		signupLimiter: newRateLimiter(opts.SignupMaxAttempts),
	}
}

type signUpRequest struct {
	Username string `json:"username" validate:"required,max=80"`
	Email    string `json:"email" validate:"required,email,max=120"`
	Password string `json:"password" validate:"required"`
}

type logInRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type verifiedResponse struct {
	Message string `json:"message"`
	UserID  uint   `json:"user_id"`
}

func (h *Handler) Hello(w http.ResponseWriter, r *http.Request) {
	message(w, r, http.StatusOK, "HelloWorld")
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	ip := getClientIP(r)
	if !h.signupLimiter.Allow(ip) {
		message(w, r, http.StatusTooManyRequests, "TooManyAttempts")
		return
	}

	var req signUpRequest
	if !h.decode(w, r, &req) {
		return
	}

	hash, err := crypto.HashPassword(req.Password, h.opts.BcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		message(w, r, http.StatusBadRequest, "PasswordTooLong")
		return
	}
	if err != nil {
		fail(w, r, err)
		return
	}
	user, err := h.store.CreateUser(r.Context(), req.Username, req.Email, hash)
	if err != nil {
		fail(w, r, err)
		return
	}
	h.signupLimiter.Record(ip)

	if err := h.sessions.SetMarker(w, r, user.Email); err != nil {
		fail(w, r, err)
		return
	}
	logger.Info("user signed up", "request_id", RequestID(r.Context()), "user_id", user.ID)
	writeJSON(w, http.StatusOK, models.NewUserResponse(*user))
}

func (h *Handler) LogIn(w http.ResponseWriter, r *http.Request) {
	ip := getClientIP(r)
	if !h.loginLimiter.Allow(ip) {
		message(w, r, http.StatusTooManyRequests, "TooManyAttempts")
		return
	}

	var req logInRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.store.UserByEmail(r.Context(), req.Email)
	if errors.Is(err, db.ErrUserNotFound) {
		// Same bcrypt cost as a real comparison.
		crypto.CheckPasswordHash(req.Password, crypto.DummyHash)
		h.loginLimiter.Record(ip)
		message(w, r, http.StatusNotFound, "EmailNotFound")
		return
	}
	if err != nil {
		fail(w, r, err)
		return
	}

	if !crypto.CheckPasswordHash(req.Password, user.Password) {
		h.loginLimiter.Record(ip)
		message(w, r, http.StatusUnauthorized, "PasswordInvalid")
		return
	}
	h.loginLimiter.Reset(ip)

	if err := h.sessions.SetMarker(w, r, user.Email); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, verifiedResponse{
		Message: i18n.T(i18n.DetectLanguage(r), "UserVerified"),
		UserID:  user.ID,
	})
}

// LoggedIn resolves the session marker to a live user on every call.
func (h *Handler) LoggedIn(w http.ResponseWriter, r *http.Request) {
	lang := i18n.DetectLanguage(r)

	email, ok := h.sessions.Marker(r)
	if !ok {
		writeJSON(w, http.StatusOK, i18n.T(lang, "NotLoggedIn"))
		return
	}

	user, err := h.store.UserByEmail(r.Context(), email)
	if errors.Is(err, db.ErrUserNotFound) {
		writeJSON(w, http.StatusOK, i18n.T(lang, "SessionUserGone"))
		return
	}
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, verifiedResponse{Message: i18n.T(lang, "UserVerified"), UserID: user.ID})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Clear(w, r); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, i18n.T(i18n.DetectLanguage(r), "LoggedOut"))
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	user, err := h.store.UserByID(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewUserResponse(*user))
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewUserResponses(users))
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteUser(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	logger.Info("user deleted", "request_id", RequestID(r.Context()), "user_id", id)
	message(w, r, http.StatusOK, "UserDeleted")
}

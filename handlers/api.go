package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"mtgstone/db"
	"mtgstone/i18n"
	"mtgstone/logger"

	"github.com/gorilla/mux"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(msg))
}

// message writes a translated plain-text body.
func message(w http.ResponseWriter, r *http.Request, status int, key string) {
	writeText(w, status, i18n.T(i18n.DetectLanguage(r), key))
}

var storeErrors = []struct {
	err    error
	status int
	key    string
}{
	{db.ErrUsernameTaken, http.StatusConflict, "UsernameTaken"},
	{db.ErrEmailTaken, http.StatusConflict, "EmailTaken"},
	{db.ErrCardNameTaken, http.StatusConflict, "CardNameTaken"},
	{db.ErrAlreadyOwned, http.StatusConflict, "CardAlreadyOwned"},
	{db.ErrUserNotFound, http.StatusNotFound, "UserNotFound"},
	{db.ErrCardNotFound, http.StatusNotFound, "CardNotFound"},
	{db.ErrNotOwned, http.StatusNotFound, "CardNotOwned"},
	{db.ErrCardNameRequired, http.StatusBadRequest, "CardNameRequired"},
	{db.ErrTimeout, http.StatusServiceUnavailable, "RequestTimeout"},
}

// fail maps a store error onto its status code and message. Anything
// unknown is logged and answered with a 500.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	for _, e := range storeErrors {
		if errors.Is(err, e.err) {
			if e.status == http.StatusServiceUnavailable {
				logger.Warn("store timeout", "request_id", RequestID(r.Context()), "path", r.URL.Path, "error", err)
			}
			message(w, r, e.status, e.key)
			return
		}
	}
	logger.Error("request failed", "request_id", RequestID(r.Context()), "path", r.URL.Path, "error", err)
	message(w, r, http.StatusInternalServerError, "InternalServerError")
}

// decode reads a JSON body into dst and validates it. It writes the 400
// itself and reports whether the handler may go on.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		message(w, r, http.StatusBadRequest, "InvalidRequestBody")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeText(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil || id == 0 {
		message(w, r, http.StatusBadRequest, "InvalidUserID")
		return 0, false
	}
	return uint(id), true
}

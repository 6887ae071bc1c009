package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/BradenHooton/tripshare/internal/models"
	pkghttp "github.com/BradenHooton/tripshare/pkg/http"
)

// maxJSONBody caps JSON request bodies; uploads use multipart limits instead
const maxJSONBody = 1 << 20

// writeServiceError maps a service error class to a status and writes the
// message carried by the error
func writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrInvalidCredentials),
		errors.Is(err, models.ErrAccountLocked),
		errors.Is(err, models.ErrAccountInactive),
		errors.Is(err, models.ErrInvalidToken),
		errors.Is(err, models.ErrExpiredToken),
		errors.Is(err, models.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, models.ErrBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrStorage):
		// Provider failures are surfaced with their message
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteError(w, status, models.Message(err, http.StatusText(status)))
}

// decodeJSON reads a JSON body into dst and validates it. It writes the 400
// response itself and reports false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return false
	}

	if err := ValidateRequest(dst); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return false
	}
	return true
}

// uuidParam reads a UUID route parameter. It writes the 400 response itself
// and reports false when the value is not a UUID.
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		pkghttp.WriteBadRequest(w, "Validation failed (uuid is expected)")
		return "", false
	}
	return id.String(), true
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/BradenHooton/dscatalog/internal/models"
	pkghttp "github.com/BradenHooton/dscatalog/pkg/http"
	"github.com/go-chi/chi/v5"
)

// writeServiceError maps a service error onto the HTTP error response.
// Unrecognised errors become a generic 500 without leaking the cause.
func writeServiceError(w http.ResponseWriter, err error) {
	var notFound *models.EntityNotFoundError

	switch {
	case errors.As(err, &notFound):
		pkghttp.WriteNotFound(w, notFound.Error())
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Resource not found")
	case errors.Is(err, models.ErrInvalidOrExpiredToken):
		pkghttp.WriteError(w, http.StatusBadRequest, "invalid_token", "Invalid or expired token")
	case errors.Is(err, models.ErrInvalidFilter):
		pkghttp.WriteBadRequest(w, err.Error())
	case errors.Is(err, models.ErrIntegrityViolation):
		pkghttp.WriteError(w, http.StatusBadRequest, "integrity_violation", "Operation violates a data integrity constraint")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, err.Error())
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, "Resource already exists")
	case errors.Is(err, models.ErrEmailDeliveryFailed):
		pkghttp.WriteBadGateway(w, "Recovery email could not be delivered")
	case errors.Is(err, models.ErrNotAuthenticated), errors.Is(err, models.ErrUnauthorized):
		pkghttp.WriteUnauthorized(w, "Authentication required")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}

// pathID parses the positive int64 {id} URL parameter
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// decodeAndValidate reads a JSON body into req and runs the struct validators.
// It writes the error response itself and reports whether the handler may continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := pkghttp.DecodeJSON(w, r, req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return false
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteValidationError(w, "Validation failed", err.Error())
		return false
	}

	return true
}

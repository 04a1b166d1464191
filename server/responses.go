package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/jrsteele09/go-account-service/internal/errors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("failed to encode response")
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string, fields map[string]string) {
	writeJSON(w, status, errorResponse{Error: message, Fields: fields})
}

// writeServiceError maps a service error onto a status code. ErrNotFound is a
// 401 on authenticated requests, where it means the caller's account is gone.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *apperrors.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSONError(w, http.StatusBadRequest, apperrors.ErrValidation.Error(), ve.Fields)
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		writeJSONError(w, http.StatusBadRequest, apperrors.ErrInvalidCredentials.Error(), nil)
	case errors.Is(err, apperrors.ErrUnauthenticated):
		writeJSONError(w, http.StatusUnauthorized, apperrors.ErrUnauthenticated.Error(), nil)
	case errors.Is(err, apperrors.ErrNotFound):
		if _, authenticated := userFromContext(r.Context()); authenticated {
			writeJSONError(w, http.StatusUnauthorized, apperrors.ErrUnauthenticated.Error(), nil)
			return
		}
		writeJSONError(w, http.StatusNotFound, apperrors.ErrNotFound.Error(), nil)
	default:
		log.Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		writeJSONError(w, http.StatusInternalServerError, "internal server error", nil)
	}
}

// decodeJSON reads a size limited JSON body into v. Malformed bodies and
// mistyped fields come back as validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return apperrors.NewValidationError(typeErr.Field, fmt.Sprintf("%s has an invalid type", typeErr.Field))
	case errors.As(err, &maxErr):
		return apperrors.NewValidationError("body", fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit))
	case errors.Is(err, io.EOF):
		return apperrors.NewValidationError("body", "request body is required")
	default:
		return apperrors.NewValidationError("body", "request body must be a valid JSON object")
	}
}

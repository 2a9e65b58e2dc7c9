package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON / writeError so the API has one
// success shape per endpoint and exactly one error shape:
//
//	{"error": "missing_source", "message": "no Solidity code provided"}
//
// "error" is a stable machine-readable code; "message" is for humans.
// "field" is added when the problem is tied to one request field.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/contract-auditor/internal/apperror"
)

// maxBodyBytes caps request bodies. Inline contracts are the largest payload.
const maxBodyBytes = 2 << 20

// errEmptyBody is what decodeJSON returns for a request with no body at all.
var errEmptyBody = apperror.ValidationFailed("", "request body is required")

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// MessageResponse is used by endpoints that only acknowledge.
type MessageResponse struct {
	Message string `json:"message"`
}

// writeJSON sends a JSON response with the given status code.
// Headers and status must be set BEFORE the body is written.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// errorMapping is checked in order; the first sentinel found in the error
// chain wins. More specific kinds come before generic ones.
var errorMapping = []struct {
	target error
	status int
	code   string
}{
	{apperror.ErrDuplicateUser, http.StatusConflict, "duplicate_user"},
	{apperror.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{apperror.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{apperror.ErrInvalidToken, http.StatusUnauthorized, "invalid_token"},
	{apperror.ErrMissingContractName, http.StatusBadRequest, "missing_contract_name"},
	{apperror.ErrMissingSource, http.StatusBadRequest, "missing_source"},
	{apperror.ErrSourceFetchFailed, http.StatusBadRequest, "source_fetch_failed"},
	{apperror.ErrAnalysisService, http.StatusBadGateway, "analysis_failed"},
	{apperror.ErrPersistence, http.StatusInternalServerError, "persistence_error"},
	{apperror.ErrUpstreamFeed, http.StatusBadGateway, "upstream_feed_error"},
	{apperror.ErrValidation, http.StatusBadRequest, "validation_error"},
	{apperror.ErrNotFound, http.StatusNotFound, "not_found"},
}

// classify returns the HTTP status and error code for err.
// Anything that isn't an *apperror.AppError is a 500.
func classify(err error) (int, string) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, "internal_error"
	}
	for _, m := range errorMapping {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal_error"
}

// writeError maps a domain error to the appropriate HTTP status code and sends it.
//
// The service layer never knows about status codes; this is the one place
// where apperror kinds become HTTP. Server-side failures are logged with
// their full cause, but the client only ever sees AppError.Message. Raw
// error text can contain SQL, file paths or upstream responses.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, code := classify(err)

	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.String("error", err.Error()),
		)
	}

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		writeJSON(w, status, ErrorResponse{
			Error:   code,
			Message: "An internal error occurred",
		})
		return
	}

	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: appErr.Message,
		Field:   appErr.Field,
	})
}

// decodeJSON reads a single JSON object from the request body into dst.
// Unknown fields are allowed: the legacy front-end sends extras.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return apperror.ValidationFailed("", fmt.Sprintf("request body must be %d bytes or fewer", maxErr.Limit))
		case errors.Is(err, io.EOF):
			return errEmptyBody
		default:
			return apperror.ValidationFailed("", "request body must be valid JSON")
		}
	}
	if dec.More() {
		return apperror.ValidationFailed("", "request body must contain a single JSON object")
	}
	return nil
}

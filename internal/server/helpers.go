package server

import (
	"encoding/json"
	"errors"
	"image"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/cwbudde/psnr/internal/psnr"
	"github.com/cwbudde/psnr/internal/store"
)

// writeJSON encodes v with the given status
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, psnr.ErrDimensionMismatch),
		errors.Is(err, psnr.ErrChannelMismatch),
		errors.Is(err, psnr.ErrEmptyImage):
		return http.StatusUnprocessableEntity
	case isClientError(err),
		errors.Is(err, fs.ErrNotExist),
		errors.Is(err, image.ErrFormat):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs server-side failures and replies with the mapped status
func writeError(w http.ResponseWriter, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error(msg, "error", err)
	}
	http.Error(w, msg+": "+err.Error(), status)
}

// isClientError reports whether err came from caller input rather than the server
func isClientError(err error) bool {
	var verr *store.ValidationError
	return errors.As(err, &verr)
}

package app

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sgaunet/s3ingest/pkg/config"
	"github.com/sgaunet/s3ingest/pkg/dto"
	"github.com/sgaunet/s3ingest/pkg/ingest"
	"github.com/sgaunet/s3ingest/pkg/s3svc"
	"github.com/sgaunet/s3ingest/pkg/scanner"
)

var (
	// ErrBadRequest is returned for malformed query parameters or bodies.
	ErrBadRequest = errors.New("bad request")
)

type errorBody struct {
	Error string `json:"error"`
}

func (a *App) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.log.Error("Failed to encode response", slog.String("error", err.Error()))
	}
}

func (a *App) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		a.log.Error("Request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
	} else {
		a.log.Debug("Request rejected",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
	}
	a.writeJSON(w, status, errorBody{Error: err.Error()})
}

// statusFor maps the pipeline errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, config.ErrInvalidConfig),
		s3svc.IsConfigError(err):
		return http.StatusBadRequest
	case errors.Is(err, scanner.ErrNoScan), errors.Is(err, dto.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, scanner.ErrInvalidTransition),
		errors.Is(err, scanner.ErrScanInProgress),
		errors.Is(err, scanner.ErrBatchInProgress),
		errors.Is(err, scanner.ErrNotRunnable),
		errors.Is(err, scanner.ErrPaused):
		return http.StatusConflict
	case errors.Is(err, ingest.ErrInvalidPayload):
		return http.StatusUnprocessableEntity
	case errors.Is(err, scanner.ErrDiscovery),
		errors.Is(err, s3svc.ErrNetwork),
		errors.Is(err, s3svc.ErrList),
		errors.Is(err, s3svc.ErrFetch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

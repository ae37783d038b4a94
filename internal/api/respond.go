package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/zumatel/hlr-service-bff/internal/bfferrors"
	"github.com/zumatel/hlr-service-bff/internal/logger"
)

// errorBody is the JSON error envelope returned to API consumers.
type errorBody struct {
	StatusCode int    `json:"statusCode"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
	Timestamp  string `json:"timestamp"`
	Path       string `json:"path"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorw("Failed to encode response", "error", err.Error())
	}
}

// writeRaw forwards a downstream response body verbatim.
func (h *Handler) writeRaw(w http.ResponseWriter, status int, data json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logger.Errorw("Failed to write response", "error", err.Error())
	}
}

// writeError maps a typed error onto its HTTP status and the standard error
// envelope. Details are only exposed outside production. Anything that is not
// a typed error becomes an opaque 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	body := errorBody{
		StatusCode: http.StatusInternalServerError,
		Code:       bfferrors.KindInternal,
		Message:    "internal server error",
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Path:       r.URL.Path,
	}

	var typed *bfferrors.Error
	if errors.As(err, &typed) {
		body.StatusCode = typed.Status
		body.Code = typed.Kind
		body.Message = typed.Message
		if !h.cfg.IsProduction() {
			body.Details = typed.Details
		}
	}

	logger.Warnw("Request failed",
		"path", r.URL.Path,
		"status", body.StatusCode,
		"code", body.Code,
		"error", err.Error())

	h.writeJSON(w, body.StatusCode, body)
}

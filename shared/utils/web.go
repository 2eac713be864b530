package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	shared_errors "github.com/ledgerdesk/ledgerdesk/shared/errors"
	"github.com/ledgerdesk/ledgerdesk/shared/logger"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteErrorAndStatusCode renders typed errors with their own status.
// Anything else is an internal failure: it is logged and its text is not
// exposed to the caller.
func WriteErrorAndStatusCode(w http.ResponseWriter, err error) {
	var e *shared_errors.ErrorWithStatusCode
	if errors.As(err, &e) {
		code := e.Code
		if code == "" {
			code = strings.ToLower(strings.ReplaceAll(http.StatusText(e.StatusCode), " ", "_"))
		}
		WriteJSON(w, e.StatusCode, errorBody{Code: code, Message: e.Message})
		return
	}
	logger.Log.Error("internal error", "error", err)
	WriteJSON(w, http.StatusInternalServerError, errorBody{Code: "internal", Message: "Internal server error"})
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		logger.Log.Error("failed to encode response", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}

func DecodeValidate(r io.ReadCloser, body any) error {
	if err := json.NewDecoder(r).Decode(body); err != nil {
		logger.Log.Debug("invalid request body", "error", err)
		return &shared_errors.ErrorWithStatusCode{Message: "Body is invalid json", StatusCode: http.StatusBadRequest, Code: "validation_error"}
	}
	if err := validate.Struct(body); err != nil {
		logger.Log.Debug("request validation failed", "error", err)
		return &shared_errors.ErrorWithStatusCode{Message: "Required fields missing", StatusCode: http.StatusBadRequest, Code: "validation_error"}
	}
	return nil
}

// ParseSince reads an optional RFC3339 "since" query parameter used by
// polling clients.
func ParseSince(r *http.Request) (*time.Time, error) {
	raw := r.URL.Query().Get("since")
	if raw == "" {
		return nil, nil
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, &shared_errors.ErrorWithStatusCode{Message: "since must be an RFC3339 timestamp", StatusCode: http.StatusBadRequest, Code: "validation_error"}
	}
	return &ts, nil
}

// Package httputil translates service results and coded errors into HTTP
// responses so handlers never hand-roll status mapping.
package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "rosterbridge/pkg/domain-errors"
)

type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a coded error to a status and JSON body. Internal and
// external-authority details stay out of the response body.
func WriteError(w http.ResponseWriter, err error) {
	status := dErrors.HTTPStatus(err)
	resp := errorResponse{Error: string(dErrors.CodeInternal)}

	var coded *dErrors.Error
	if errors.As(err, &coded) {
		resp.Error = string(coded.Code)
		if coded.Code != dErrors.CodeInternal && coded.Code != dErrors.CodeExternal {
			resp.Description = coded.Message
		}
	}
	WriteJSON(w, status, resp)
}

// Decode parses the JSON request body into T. On failure it writes a 400
// response and returns ok=false; the handler just returns.
func Decode[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(r.Context(), "failed to decode request body", "error", err)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		var zero T
		return zero, false
	}
	return req, true
}

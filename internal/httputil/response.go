package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"labconnect/internal/apperr"
)

// RespondWithError writes an error response in JSON format
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, map[string]string{"error": message})
}

// RespondWithJSON writes a JSON response
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// RespondWithServiceError maps a service error onto the status code and body the client sees.
// Unexpected errors are logged and hidden behind a generic message.
func RespondWithServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	code := apperr.StatusCode(err)
	msg, known := apperr.Message(err)
	if !known {
		logger.ErrorContext(r.Context(), "internal error", "error", err, "path", r.URL.Path)
		RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	logger.InfoContext(r.Context(), "request rejected", "status", code, "reason", msg, "path", r.URL.Path)

	resp := errorResponse{Error: msg}
	if fields := apperr.Fields(err); len(fields) > 0 {
		resp.Fields = make(map[string]string, len(fields))
		for _, f := range fields {
			resp.Fields[f.Field] = f.Error
		}
	}
	RespondWithJSON(w, code, resp)
}

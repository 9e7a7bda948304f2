// Package api exposes the question-answering service over HTTP.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// errorBody is the JSON error envelope. The core never leaks internal
// failures through this boundary; messages stay human-readable.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, code, message string) {
	writeJSON(w, logger, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

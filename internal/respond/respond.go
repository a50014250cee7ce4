// Package respond writes JSON bodies for the REST handlers.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"

	apperrors "fonnect/internal/errors"
)

type errorBody struct {
	Error string `json:"error"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error answers with the status mapped from err. Server errors are logged and
// hidden behind a generic message.
func Error(w http.ResponseWriter, log *slog.Logger, err error) {
	status := apperrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Error("Request failed", "error", err)
		JSON(w, status, errorBody{Error: "Server error"})
		return
	}
	JSON(w, status, errorBody{Error: err.Error()})
}

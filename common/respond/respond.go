// Package respond centralizes JSON response writing for every NF's HTTP handlers,
// replacing the ad hoc fmt.Fprintf stubs the original server scaffolding used.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/fivegcore/emulator/common/apierror"
	"go.uber.org/zap"
)

// JSON encodes data as the response body with the given status code.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already written; nothing left to do but note it happened.
		return
	}
}

// errorBody is the wire shape for every failed NF response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Error logs and writes a typed API error as JSON, using its Kind to pick the
// status code from the taxonomy in the error-handling design.
func Error(w http.ResponseWriter, logger *zap.Logger, err error) {
	apiErr := apierror.As(err)
	if logger != nil {
		logger.Error("request failed",
			zap.String("kind", string(apiErr.Kind)),
			zap.String("message", apiErr.Message),
			zap.Error(apiErr.Cause),
		)
	}
	JSON(w, apiErr.StatusCode(), errorBody{
		Error:   string(apiErr.Kind),
		Message: apiErr.Message,
	})
}

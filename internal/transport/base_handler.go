package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/civiclink/grievance-management/internal"
	"github.com/civiclink/grievance-management/pkg/logger"
)

// BaseHandler provides common functionality for HTTP handlers. Every
// response body carries the success flag the dashboard expects.
type BaseHandler struct {
	Logger *slog.Logger
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes an error response in the {success:false, message}
// envelope.
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	h.Logger.Error("http error", "status", status, "message", message)
	WriteErrorEnvelope(w, status, message, nil)
}

// WriteAppError maps an AppError onto its status code and envelope,
// carrying field-level validation details when present.
func (h *BaseHandler) WriteAppError(w http.ResponseWriter, err error) {
	appErr, ok := internal.IsAppError(err)
	if !ok {
		h.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	var details []internal.ValidationError
	if appErr.Details != nil {
		if ve, ok := appErr.Details.(internal.ValidationErrors); ok {
			details = ve.Errors
		}
	}

	h.Logger.Warn("request failed",
		"status", appErr.StatusCode,
		"type", appErr.Type,
		"code", appErr.Code,
		"message", appErr.GetDetailedMessage())

	WriteErrorEnvelope(w, appErr.StatusCode, appErr.Message, details)
}

// WriteErrorEnvelope is the shared error shape used by handlers and
// middleware alike.
func WriteErrorEnvelope(w http.ResponseWriter, status int, message string, details []internal.ValidationError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	body := map[string]interface{}{
		"success": false,
		"message": message,
	}
	if len(details) > 0 {
		body["errors"] = details
	}

	_ = json.NewEncoder(w).Encode(body)
}

// ExtractTokenFromHeader extracts Bearer token from Authorization header
func (h *BaseHandler) ExtractTokenFromHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return ""
	}

	return authHeader[7:]
}

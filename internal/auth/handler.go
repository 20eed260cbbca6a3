package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/civiclink/grievance-management/internal"
	"github.com/civiclink/grievance-management/internal/transport"
	"github.com/civiclink/grievance-management/pkg/logger"
)

type ServiceAPI interface {
	Register(dto SignupDTO) (*Account, string, error)
	Login(dto LoginDTO) (*Account, string, error)
	ValidateAccessToken(tokenString string) (*Identity, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var dto SignupDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	account, token, err := h.Service.Register(dto)
	if err != nil {
		h.Logger.Error("Signup: registration failed", "error", err)

		switch err {
		case ErrUsernameTaken:
			h.WriteAppError(w, internal.ErrUsernameTaken)
		case ErrEmailTaken:
			h.WriteAppError(w, internal.ErrEmailTaken)
		default:
			if _, ok := internal.IsAppError(err); ok {
				h.WriteAppError(w, err)
			} else {
				h.WriteError(w, http.StatusInternalServerError, "Internal server error. Please try again later.")
			}
		}
		return
	}

	h.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "User registered successfully",
		"user":    account,
		"token":   token,
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	account, token, err := h.Service.Login(dto)
	if err != nil {
		switch err {
		case ErrInvalidCredentials:
			h.WriteError(w, http.StatusUnauthorized, "Invalid credentials")
		default:
			if _, ok := internal.IsAppError(err); ok {
				h.WriteAppError(w, err)
			} else {
				h.Logger.Error("Login: service error", "error", err)
				h.WriteError(w, http.StatusInternalServerError, "Internal server error")
			}
		}
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Login successful",
		"user":    account,
		"token":   token,
	})
}

// AuthMiddleware validates the bearer token and places the carried identity
// in the request context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.WriteError(w, http.StatusUnauthorized, "Access token required")
			return
		}

		identity, err := h.Service.ValidateAccessToken(token)
		if err != nil {
			h.Logger.Warn("auth middleware: token rejected", "error", err)

			switch err {
			case ErrUserInactive:
				h.WriteError(w, http.StatusForbidden, "User account is inactive")
			default:
				h.WriteError(w, http.StatusUnauthorized, "Invalid or expired token")
			}
			return
		}

		ctx := ContextWithIdentity(r.Context(), identity)
		ctx = logger.With(ctx, "user_id", identity.UserID, "class", identity.Class)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

package user

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/civiclink/grievance-management/internal"
	"github.com/civiclink/grievance-management/internal/auth"
	"github.com/civiclink/grievance-management/internal/transport"
	"github.com/civiclink/grievance-management/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	GetByID(id int64) (*User, error)
	UpdateProfile(id int64, dto UpdateProfileDTO) (*User, error)
	ListUsers() ([]*User, error)
	ListStaff() ([]*StaffMember, error)
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

// GetProfile handles GET /profile
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || identity == nil {
		h.WriteError(w, http.StatusUnauthorized, "Access token required")
		return
	}

	u, err := h.Service.GetByID(identity.UserID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    u,
	})
}

// UpdateProfile handles PUT /profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || identity == nil {
		h.WriteError(w, http.StatusUnauthorized, "Access token required")
		return
	}

	var dto UpdateProfileDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	u, err := h.Service.UpdateProfile(identity.UserID, dto)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Profile updated successfully",
		"user":    u,
	})
}

// ListUsers handles GET /users (admin only)
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.ListUsers()
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"users":   users,
		"total":   len(users),
	})
}

// GetUser handles GET /users/{id} (admin only)
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	u, err := h.Service.GetByID(id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    u,
	})
}

// ListStaff handles GET /admin/staff (admin only)
func (h *Handler) ListStaff(w http.ResponseWriter, r *http.Request) {
	roster, err := h.Service.ListStaff()
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"staff":   roster,
		"total":   len(roster),
	})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	if _, ok := internal.IsAppError(err); ok {
		h.WriteAppError(w, err)
		return
	}
	h.Logger.Error("user service error", "error", err)
	h.WriteError(w, http.StatusInternalServerError, "Internal server error")
}

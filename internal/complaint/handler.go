package complaint

import (
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/civiclink/grievance-management/internal"
	"github.com/civiclink/grievance-management/internal/auth"
	"github.com/civiclink/grievance-management/internal/transport"
	"github.com/civiclink/grievance-management/pkg/logger"
	"github.com/go-chi/chi"
)

// maxMultipartMemory bounds in-memory form parsing; larger parts spill to
// temp files.
const maxMultipartMemory = 32 << 20

type ServiceAPI interface {
	Submit(actor *auth.Identity, dto CreateComplaintDTO, files []*multipart.FileHeader) (*Complaint, error)
	ListForOwner(userID int64) ([]*Complaint, error)
	GetForOwner(id string, userID int64) (*Complaint, error)
	ListForAdmin(filter ListFilter) ([]*Complaint, error)
	ListForAssignee(staffID int64) ([]*Complaint, error)
	GetStats() (*Stats, error)
	Assign(actor *auth.Identity, id string, dto AssignDTO) (*Complaint, error)
	Escalate(actor *auth.Identity, id string) (*Complaint, error)
	SetPriority(actor *auth.Identity, id string, dto UpdatePriorityDTO) (*Complaint, error)
	UpdateStatus(actor *auth.Identity, id string, dto UpdateStatusDTO) (*Complaint, error)
	AddComment(actor *auth.Identity, id string, dto CommentDTO) (*Complaint, error)
	Lock(actor *auth.Identity, id string) (*Complaint, error)
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

// Create handles POST /complaints (multipart form).
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || identity == nil {
		h.WriteError(w, http.StatusUnauthorized, "Access token required")
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		h.WriteError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	dto := CreateComplaintDTO{
		Title:       r.FormValue("title"),
		Category:    r.FormValue("category"),
		Description: r.FormValue("description"),
		Priority:    r.FormValue("priority"),
		Anonymous:   r.FormValue("anonymous") == "true",
	}

	var files []*multipart.FileHeader
	if r.MultipartForm != nil {
		files = r.MultipartForm.File["attachments"]
	}

	c, err := h.Service.Submit(identity, dto, files)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"success":   true,
		"message":   "Complaint submitted successfully",
		"complaint": c,
	})
}

// ListMine handles GET /complaints.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || identity == nil {
		h.WriteError(w, http.StatusUnauthorized, "Access token required")
		return
	}

	complaints, err := h.Service.ListForOwner(identity.UserID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"complaints": complaints,
		"total":      len(complaints),
	})
}

// GetMine handles GET /complaints/{id}, scoped to the owner.
func (h *Handler) GetMine(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || identity == nil {
		h.WriteError(w, http.StatusUnauthorized, "Access token required")
		return
	}

	c, err := h.Service.GetForOwner(chi.URLParam(r, "id"), identity.UserID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"complaint": c,
	})
}

// AdminList handles GET /admin/complaints with optional filters and sort.
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		Status:   q.Get("status"),
		Category: q.Get("category"),
		Priority: q.Get("priority"),
		SortBy:   q.Get("sortBy"),
		SortDir:  q.Get("sortDir"),
	}
	if assigned := q.Get("assignedTo"); assigned != "" {
		id, err := strconv.ParseInt(assigned, 10, 64)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "Invalid assignedTo filter")
			return
		}
		filter.AssignedTo = id
	}

	complaints, err := h.Service.ListForAdmin(filter)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"complaints": complaints,
		"total":      len(complaints),
	})
}

// StaffList handles GET /staff/complaints, the caller's caseload.
func (h *Handler) StaffList(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || identity == nil {
		h.WriteError(w, http.StatusUnauthorized, "Access token required")
		return
	}

	complaints, err := h.Service.ListForAssignee(identity.UserID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"complaints": complaints,
		"total":      len(complaints),
	})
}

// Stats handles GET /admin/complaints/stats.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.GetStats()
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"stats":   stats,
	})
}

// Assign handles PUT /admin/complaints/{id}/assign.
func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "Complaint assigned successfully", func(identity *auth.Identity, id string) (*Complaint, error) {
		var dto AssignDTO
		if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
			return nil, internal.NewValidationError("Invalid request body", internal.ErrCodeValidationFailed)
		}
		return h.Service.Assign(identity, id, dto)
	})
}

// Escalate handles PUT /admin/complaints/{id}/escalate.
func (h *Handler) Escalate(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "Complaint escalated successfully", func(identity *auth.Identity, id string) (*Complaint, error) {
		return h.Service.Escalate(identity, id)
	})
}

// SetPriority handles PUT /admin/complaints/{id}/priority.
func (h *Handler) SetPriority(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "Priority updated successfully", func(identity *auth.Identity, id string) (*Complaint, error) {
		var dto UpdatePriorityDTO
		if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
			return nil, internal.NewValidationError("Invalid request body", internal.ErrCodeValidationFailed)
		}
		return h.Service.SetPriority(identity, id, dto)
	})
}

// UpdateStatus handles PUT /admin/complaints/{id}/status and its staff
// counterpart; the service enforces the assignment rules.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "Status updated successfully", func(identity *auth.Identity, id string) (*Complaint, error) {
		var dto UpdateStatusDTO
		if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
			return nil, internal.NewValidationError("Invalid request body", internal.ErrCodeValidationFailed)
		}
		return h.Service.UpdateStatus(identity, id, dto)
	})
}

// AddComment handles POST /staff/complaints/{id}/comments.
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || identity == nil {
		h.WriteError(w, http.StatusUnauthorized, "Access token required")
		return
	}

	var dto CommentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, err := h.Service.AddComment(identity, chi.URLParam(r, "id"), dto)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"success":   true,
		"message":   "Comment added successfully",
		"complaint": c,
	})
}

// Lock handles PUT /staff/complaints/{id}/lock.
func (h *Handler) Lock(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "Complaint locked successfully", func(identity *auth.Identity, id string) (*Complaint, error) {
		return h.Service.Lock(identity, id)
	})
}

func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, message string, op func(*auth.Identity, string) (*Complaint, error)) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || identity == nil {
		h.WriteError(w, http.StatusUnauthorized, "Access token required")
		return
	}

	c, err := op(identity, chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   message,
		"complaint": c,
	})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	if _, ok := internal.IsAppError(err); ok {
		h.WriteAppError(w, err)
		return
	}
	h.Logger.Error("complaint service error", "error", err)
	h.WriteError(w, http.StatusInternalServerError, "Internal server error")
}

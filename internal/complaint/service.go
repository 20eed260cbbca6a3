package complaint

import (
	"log/slog"
	"mime/multipart"
	"time"

	"github.com/civiclink/grievance-management/internal"
	"github.com/civiclink/grievance-management/internal/attachment"
	"github.com/civiclink/grievance-management/internal/auth"
	"github.com/civiclink/grievance-management/internal/metrics"
	"github.com/civiclink/grievance-management/internal/user"
)

// Repository defines the data access methods for complaints.
type Repository interface {
	Create(c *Complaint) error
	GetByID(id int64) (*Complaint, error)
	GetByReference(ref string) (*Complaint, error)
	ListByOwner(userID int64) ([]*Complaint, error)
	ListByAssignee(staffID int64) ([]*Complaint, error)
	List(filter ListFilter) ([]*Complaint, error)
	Update(c *Complaint) error
	SetOverdue(id int64, overdue bool) error
	AddComment(complaintID int64, comment *Comment) error
	Stats() (*Stats, error)
	CountOpenByAssignee(staffID int64) (int64, error)
}

// AttachmentStore persists uploaded files and returns their stored records.
type AttachmentStore interface {
	Store(files []*multipart.FileHeader) ([]attachment.Stored, error)
}

// StaffDirectory resolves accounts for assignment target checks.
type StaffDirectory interface {
	GetByID(id int64) (*user.User, error)
}

// Stats aggregates complaint counts for the admin dashboard.
type Stats struct {
	Total      int64            `json:"total"`
	ByStatus   map[string]int64 `json:"byStatus"`
	ByCategory map[string]int64 `json:"byCategory"`
	Overdue    int64            `json:"overdue"`
}

type Service struct {
	repo        Repository
	attachments AttachmentStore
	directory   StaffDirectory
	logger      *slog.Logger
}

func NewService(repo Repository, attachments AttachmentStore, directory StaffDirectory, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		attachments: attachments,
		directory:   directory,
		logger:      logger,
	}
}

// Submit files a new complaint for the acting identity. Attachments are
// only persisted once the form fields validate, so a rejected file type or
// bad field aborts the whole submission.
func (s *Service) Submit(actor *auth.Identity, dto CreateComplaintDTO, files []*multipart.FileHeader) (*Complaint, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	stored, err := s.attachments.Store(files)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	c := &Complaint{
		UserID:      actor.UserID,
		Title:       dto.Title,
		Category:    dto.Category,
		Description: dto.Description,
		Priority:    Priority(dto.Priority),
		Status:      StatusSubmitted,
		Anonymous:   dto.Anonymous,
		CreatedAt:   now,
		UpdatedAt:   now,
		Comments:    []Comment{},
	}
	for _, f := range stored {
		c.Attachments = append(c.Attachments, Attachment{
			Filename:   f.OriginalName,
			StoredName: f.StoredName,
			Path:       f.Path,
			MediaType:  f.MediaType,
			UploadedAt: f.UploadedAt,
		})
	}

	if err := s.repo.Create(c); err != nil {
		s.logger.Error("failed to create complaint", "error", err, "user_id", actor.UserID)
		return nil, err
	}

	s.logger.Info("complaint submitted",
		"complaint_id", c.ID,
		"reference", c.Reference,
		"user_id", actor.UserID,
		"category", c.Category,
		"priority", c.Priority,
		"attachments", len(c.Attachments))

	metrics.RecordComplaintSubmitted(c.Category, string(c.Priority))

	return c, nil
}

// ListForOwner returns the caller's own complaints, newest first, with
// derived fields computed against the current clock.
func (s *Service) ListForOwner(userID int64) ([]*Complaint, error) {
	complaints, err := s.repo.ListByOwner(userID)
	if err != nil {
		return nil, err
	}
	s.refreshDerived(complaints)
	return complaints, nil
}

// GetForOwner returns one complaint, scoped to its owner. A foreign id
// reads as not found rather than forbidden so ids cannot be probed.
func (s *Service) GetForOwner(id string, userID int64) (*Complaint, error) {
	c, err := s.get(id)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, internal.ErrComplaintNotFound
	}
	s.refreshDerived([]*Complaint{c})
	return c, nil
}

// ListForAdmin returns the filtered, sorted cross-citizen listing.
func (s *Service) ListForAdmin(filter ListFilter) ([]*Complaint, error) {
	complaints, err := s.repo.List(filter)
	if err != nil {
		return nil, err
	}
	s.refreshDerived(complaints)
	return complaints, nil
}

// ListForAssignee returns the staff member's current caseload.
func (s *Service) ListForAssignee(staffID int64) ([]*Complaint, error) {
	complaints, err := s.repo.ListByAssignee(staffID)
	if err != nil {
		return nil, err
	}
	s.refreshDerived(complaints)
	return complaints, nil
}

func (s *Service) GetStats() (*Stats, error) {
	return s.repo.Stats()
}

// Assign allocates a complaint to a staff/admin account and starts the
// resolution clock.
func (s *Service) Assign(actor *auth.Identity, id string, dto AssignDTO) (*Complaint, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, internal.ErrClassNotAllowed
	}

	target, err := s.directory.GetByID(dto.StaffID)
	if err != nil {
		return nil, internal.NewNotFoundError("Staff member not found", internal.ErrCodeUserNotFound)
	}
	if target.Class != auth.ClassStaff && target.Class != auth.ClassAdmin {
		return nil, internal.NewValidationError("Assignee must be a staff or admin account", internal.ErrCodeAssigneeNotStaff)
	}

	c, err := s.get(id)
	if err != nil {
		return nil, err
	}

	if err := c.Assign(dto.StaffID, time.Now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(c); err != nil {
		s.logger.Error("failed to persist assignment", "error", err, "complaint_id", c.ID)
		return nil, err
	}

	s.logger.Info("complaint assigned",
		"complaint_id", c.ID,
		"reference", c.Reference,
		"staff_id", dto.StaffID,
		"due_date", c.DueDate,
		"admin_id", actor.UserID)

	metrics.RecordAssignment()

	s.refreshDerived([]*Complaint{c})
	return c, nil
}

// Escalate forces a complaint to Escalated at High priority.
func (s *Service) Escalate(actor *auth.Identity, id string) (*Complaint, error) {
	if !actor.IsAdmin() {
		return nil, internal.ErrClassNotAllowed
	}

	c, err := s.get(id)
	if err != nil {
		return nil, err
	}

	if err := c.Escalate(time.Now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(c); err != nil {
		return nil, err
	}

	s.logger.Info("complaint escalated", "complaint_id", c.ID, "admin_id", actor.UserID)

	s.refreshDerived([]*Complaint{c})
	return c, nil
}

func (s *Service) SetPriority(actor *auth.Identity, id string, dto UpdatePriorityDTO) (*Complaint, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, internal.ErrClassNotAllowed
	}

	c, err := s.get(id)
	if err != nil {
		return nil, err
	}

	if err := c.SetPriority(Priority(dto.Priority), time.Now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(c); err != nil {
		return nil, err
	}

	s.logger.Info("complaint priority changed",
		"complaint_id", c.ID,
		"priority", dto.Priority,
		"admin_id", actor.UserID)

	s.refreshDerived([]*Complaint{c})
	return c, nil
}

// UpdateStatus moves a complaint through the lifecycle. Admins are
// unrestricted; staff may only move complaints currently assigned to them.
func (s *Service) UpdateStatus(actor *auth.Identity, id string, dto UpdateStatusDTO) (*Complaint, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	c, err := s.get(id)
	if err != nil {
		return nil, err
	}

	if err := s.requireAssignee(actor, c); err != nil {
		return nil, err
	}

	if err := c.ApplyStatus(Status(dto.Status), time.Now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(c); err != nil {
		return nil, err
	}

	s.logger.Info("complaint status changed",
		"complaint_id", c.ID,
		"status", dto.Status,
		"actor_id", actor.UserID,
		"actor_class", actor.Class)

	metrics.RecordStatusChange(dto.Status)

	s.refreshDerived([]*Complaint{c})
	return c, nil
}

// AddComment appends commentary. Staff must be the current assignee; admins
// may comment on anything unlocked.
func (s *Service) AddComment(actor *auth.Identity, id string, dto CommentDTO) (*Complaint, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	c, err := s.get(id)
	if err != nil {
		return nil, err
	}

	if err := s.requireAssignee(actor, c); err != nil {
		return nil, err
	}
	if c.IsLocked() {
		return nil, internal.ErrComplaintLocked
	}

	comment, err := NewComment(actor, dto.Text, time.Now())
	if err != nil {
		return nil, err
	}

	if err := s.repo.AddComment(c.ID, comment); err != nil {
		s.logger.Error("failed to append comment", "error", err, "complaint_id", c.ID)
		return nil, err
	}
	c.Comments = append(c.Comments, *comment)

	s.logger.Info("comment added", "complaint_id", c.ID, "author_id", actor.UserID)

	s.refreshDerived([]*Complaint{c})
	return c, nil
}

// Lock freezes a resolved complaint. The assignee confirms the lock; admins
// may lock any resolved complaint.
func (s *Service) Lock(actor *auth.Identity, id string) (*Complaint, error) {
	c, err := s.get(id)
	if err != nil {
		return nil, err
	}

	if err := s.requireAssignee(actor, c); err != nil {
		return nil, err
	}

	if err := c.Lock(time.Now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(c); err != nil {
		return nil, err
	}

	s.logger.Info("complaint locked", "complaint_id", c.ID, "actor_id", actor.UserID)

	s.refreshDerived([]*Complaint{c})
	return c, nil
}

// requireAssignee passes admins unconditionally and staff only when they
// hold the assignment.
func (s *Service) requireAssignee(actor *auth.Identity, c *Complaint) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.Class != auth.ClassStaff {
		return internal.ErrClassNotAllowed
	}
	if c.AssigneeID == nil || *c.AssigneeID != actor.UserID {
		s.logger.Warn("assignment check failed",
			"complaint_id", c.ID,
			"actor_id", actor.UserID)
		return internal.ErrNotAssignee
	}
	return nil
}

// get resolves either a numeric id or a human-readable reference like C017.
func (s *Service) get(id string) (*Complaint, error) {
	c, err := s.repo.GetByID(parseID(id))
	if err == nil {
		return c, nil
	}
	if ref, ok := normalizeReference(id); ok {
		if c, refErr := s.repo.GetByReference(ref); refErr == nil {
			return c, nil
		}
	}
	return nil, internal.ErrComplaintNotFound
}

// refreshDerived recomputes read-time fields and opportunistically writes
// back overdue flags that have gone stale. Write-back is best effort.
func (s *Service) refreshDerived(complaints []*Complaint) {
	now := time.Now()
	for _, c := range complaints {
		if stale := c.ComputeDerived(now); stale {
			if err := s.repo.SetOverdue(c.ID, c.IsOverdue); err != nil {
				s.logger.Warn("failed to persist overdue flag", "error", err, "complaint_id", c.ID)
			}
		}
	}
}

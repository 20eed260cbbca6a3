package complaint

import (
	"strings"
	"time"

	"github.com/civiclink/grievance-management/internal"
	"github.com/civiclink/grievance-management/internal/auth"
	complaintDatamodel "github.com/civiclink/grievance-management/internal/core/datamodel/complaint"
)

type Status string

const (
	StatusSubmitted   Status = "Submitted"
	StatusUnderReview Status = "Under Review"
	StatusInProgress  Status = "In Progress"
	StatusResolved    Status = "Resolved"
	StatusClosed      Status = "Closed"
	StatusEscalated   Status = "Escalated"
)

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

var Categories = []string{
	"Infrastructure",
	"Utilities",
	"Healthcare",
	"Education",
	"Transportation",
	"Environment",
	"Other",
}

// Resolution windows by priority, applied at assignment time.
var dueWindows = map[Priority]time.Duration{
	PriorityHigh:   3 * 24 * time.Hour,
	PriorityMedium: 7 * 24 * time.Hour,
	PriorityLow:    14 * 24 * time.Hour,
}

// EscalationThresholdDays is how long a complaint may sit unresolved before
// it is surfaced as escalation-eligible.
const EscalationThresholdDays = 5

func ValidStatus(s Status) bool {
	switch s {
	case StatusSubmitted, StatusUnderReview, StatusInProgress, StatusResolved, StatusClosed, StatusEscalated:
		return true
	}
	return false
}

func ValidPriority(p Priority) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

func ValidCategory(c string) bool {
	for _, cat := range Categories {
		if cat == c {
			return true
		}
	}
	return false
}

type Comment struct {
	ID          int64      `json:"id"`
	Text        string     `json:"text"`
	AuthorName  string     `json:"authorName"`
	AuthorClass auth.Class `json:"authorType"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type Attachment struct {
	ID         int64     `json:"id"`
	Filename   string    `json:"filename"`
	StoredName string    `json:"storedName"`
	Path       string    `json:"-"`
	MediaType  string    `json:"mimetype"`
	UploadedAt time.Time `json:"uploadDate"`
}

type Complaint struct {
	ID          int64      `json:"id"`
	Reference   string     `json:"complaintId"`
	UserID      int64      `json:"userId"`
	Title       string     `json:"title"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	Status      Status     `json:"status"`
	Anonymous   bool       `json:"anonymous"`
	AssigneeID  *int64     `json:"assignedTo,omitempty"`
	AssignedAt  *time.Time `json:"assignedAt,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	IsOverdue   bool       `json:"isOverdue"`
	ResolvedAt  *time.Time `json:"resolvedAt,omitempty"`
	LockedAt    *time.Time `json:"lockedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	Comments    []Comment    `json:"comments"`
	Attachments []Attachment `json:"attachments"`

	// Derived on read, never written by clients.
	DaysPending        int  `json:"daysPending"`
	DaysUntilDue       *int `json:"daysUntilDue,omitempty"`
	EscalationEligible bool `json:"escalationEligible"`
}

// IsLocked reports whether the record has been frozen after resolution.
func (c *Complaint) IsLocked() bool {
	return c.LockedAt != nil
}

// IsTerminal reports whether no further lifecycle movement is possible.
func (c *Complaint) IsTerminal() bool {
	return c.Status == StatusClosed || c.IsLocked()
}

func (c *Complaint) CanBeAssigned() bool {
	if c.IsTerminal() {
		return false
	}
	switch c.Status {
	case StatusSubmitted, StatusUnderReview, StatusEscalated:
		return true
	}
	return false
}

// Assign allocates the complaint to a staff member and derives the due date
// from the priority at this instant.
func (c *Complaint) Assign(staffID int64, now time.Time) error {
	if c.IsLocked() {
		return internal.ErrComplaintLocked
	}
	if !c.CanBeAssigned() {
		return internal.NewValidationError("Complaint cannot be assigned in its current status", internal.ErrCodeInvalidTransition)
	}

	due := now.Add(dueWindows[c.Priority])
	c.AssigneeID = &staffID
	c.AssignedAt = &now
	c.DueDate = &due
	c.Status = StatusInProgress
	c.UpdatedAt = now
	return nil
}

// ApplyStatus moves the complaint to a new status. Closed is terminal and
// Submitted is never a target; the actor-level rules live in the service.
func (c *Complaint) ApplyStatus(to Status, now time.Time) error {
	if c.IsLocked() {
		return internal.ErrComplaintLocked
	}
	if c.Status == StatusClosed {
		return internal.ErrInvalidTransition
	}
	if !ValidStatus(to) || to == StatusSubmitted {
		return internal.NewValidationError("Invalid status value", internal.ErrCodeInvalidStatus)
	}

	c.Status = to
	if to == StatusResolved && c.ResolvedAt == nil {
		c.ResolvedAt = &now
	}
	c.UpdatedAt = now
	return nil
}

// Escalate forces the complaint into the Escalated state at High priority.
func (c *Complaint) Escalate(now time.Time) error {
	if c.IsLocked() {
		return internal.ErrComplaintLocked
	}
	if c.Status == StatusClosed {
		return internal.ErrInvalidTransition
	}

	c.Priority = PriorityHigh
	c.Status = StatusEscalated
	c.UpdatedAt = now
	return nil
}

func (c *Complaint) SetPriority(p Priority, now time.Time) error {
	if c.IsLocked() {
		return internal.ErrComplaintLocked
	}
	if !ValidPriority(p) {
		return internal.NewValidationError("Invalid priority level", internal.ErrCodeInvalidPriority)
	}

	c.Priority = p
	c.UpdatedAt = now
	return nil
}

// Lock freezes a resolved complaint. One-way.
func (c *Complaint) Lock(now time.Time) error {
	if c.IsLocked() {
		return internal.ErrComplaintLocked
	}
	if c.Status != StatusResolved {
		return internal.NewValidationError("Only resolved complaints can be locked", internal.ErrCodeInvalidTransition)
	}

	c.LockedAt = &now
	c.UpdatedAt = now
	return nil
}

// NewComment builds a comment capturing the acting identity's handle and
// class at write time.
func NewComment(actor *auth.Identity, text string, now time.Time) (*Comment, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, internal.NewValidationError("Comment text is required", internal.ErrCodeInvalidComment)
	}
	return &Comment{
		Text:        trimmed,
		AuthorName:  actor.Username,
		AuthorClass: actor.Class,
		CreatedAt:   now,
	}, nil
}

// ComputeDerived fills the read-time fields from the wall clock. Returns
// true when the persisted overdue flag is stale and worth writing back.
func (c *Complaint) ComputeDerived(now time.Time) bool {
	c.DaysPending = int(now.Sub(c.CreatedAt).Hours() / 24)

	c.DaysUntilDue = nil
	if c.DueDate != nil {
		remaining := c.DueDate.Sub(now)
		days := int(remaining.Hours() / 24)
		if remaining > 0 && remaining%(24*time.Hour) != 0 {
			days++
		}
		c.DaysUntilDue = &days
	}

	overdue := c.DueDate != nil && c.DueDate.Before(now) &&
		c.Status != StatusResolved && c.Status != StatusClosed

	stale := overdue != c.IsOverdue
	c.IsOverdue = overdue

	c.EscalationEligible = c.Status == StatusEscalated ||
		(c.DaysPending > EscalationThresholdDays &&
			c.Status != StatusResolved && c.Status != StatusClosed)

	return stale
}

func ToDataModel(c *Complaint) *complaintDatamodel.Complaint {
	return &complaintDatamodel.Complaint{
		ID:          c.ID,
		Reference:   c.Reference,
		UserID:      c.UserID,
		Title:       c.Title,
		Category:    c.Category,
		Description: c.Description,
		Priority:    string(c.Priority),
		Status:      string(c.Status),
		Anonymous:   c.Anonymous,
		AssigneeID:  c.AssigneeID,
		AssignedAt:  c.AssignedAt,
		DueDate:     c.DueDate,
		IsOverdue:   c.IsOverdue,
		ResolvedAt:  c.ResolvedAt,
		LockedAt:    c.LockedAt,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func FromDataModel(row *complaintDatamodel.Complaint) *Complaint {
	c := &Complaint{
		ID:          row.ID,
		Reference:   row.Reference,
		UserID:      row.UserID,
		Title:       row.Title,
		Category:    row.Category,
		Description: row.Description,
		Priority:    Priority(row.Priority),
		Status:      Status(row.Status),
		Anonymous:   row.Anonymous,
		AssigneeID:  row.AssigneeID,
		AssignedAt:  row.AssignedAt,
		DueDate:     row.DueDate,
		IsOverdue:   row.IsOverdue,
		ResolvedAt:  row.ResolvedAt,
		LockedAt:    row.LockedAt,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
		Comments:    make([]Comment, 0, len(row.Comments)),
		Attachments: make([]Attachment, 0, len(row.Attachments)),
	}

	for _, cm := range row.Comments {
		c.Comments = append(c.Comments, Comment{
			ID:          cm.ID,
			Text:        cm.Text,
			AuthorName:  cm.AuthorName,
			AuthorClass: auth.Class(cm.AuthorClass),
			CreatedAt:   cm.CreatedAt,
		})
	}
	for _, at := range row.Attachments {
		c.Attachments = append(c.Attachments, Attachment{
			ID:         at.ID,
			Filename:   at.Filename,
			StoredName: at.StoredName,
			Path:       at.Path,
			MediaType:  at.MediaType,
			UploadedAt: at.UploadedAt,
		})
	}

	return c
}

func FromDataModelSlice(rows []*complaintDatamodel.Complaint) []*Complaint {
	result := make([]*Complaint, len(rows))
	for i, row := range rows {
		result[i] = FromDataModel(row)
	}
	return result
}

package complaint

import (
	"strings"

	"github.com/civiclink/grievance-management/internal"
)

const (
	TitleMinLen       = 5
	TitleMaxLen       = 200
	DescriptionMinLen = 20
	DescriptionMaxLen = 2000
)

// CreateComplaintDTO is built from multipart form values, so everything
// arrives as strings.
type CreateComplaintDTO struct {
	Title       string
	Category    string
	Description string
	Priority    string
	Anonymous   bool
}

func (d *CreateComplaintDTO) Normalize() {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	if d.Priority == "" {
		d.Priority = string(PriorityMedium)
	}
}

func (d CreateComplaintDTO) Validate() error {
	var errs []internal.ValidationError

	if len(d.Title) < TitleMinLen || len(d.Title) > TitleMaxLen {
		errs = append(errs, internal.ValidationError{
			Field:   "title",
			Message: "Title must be between 5 and 200 characters",
			Code:    string(internal.ErrCodeInvalidTitle),
		})
	}

	if !ValidCategory(d.Category) {
		errs = append(errs, internal.ValidationError{
			Field:   "category",
			Message: "Invalid category selected",
			Code:    string(internal.ErrCodeInvalidCategory),
		})
	}

	if len(d.Description) < DescriptionMinLen || len(d.Description) > DescriptionMaxLen {
		errs = append(errs, internal.ValidationError{
			Field:   "description",
			Message: "Description must be between 20 and 2000 characters",
			Code:    string(internal.ErrCodeInvalidDescription),
		})
	}

	if !ValidPriority(Priority(d.Priority)) {
		errs = append(errs, internal.ValidationError{
			Field:   "priority",
			Message: "Invalid priority level",
			Code:    string(internal.ErrCodeInvalidPriority),
		})
	}

	if len(errs) > 0 {
		return internal.NewValidationFieldErrors(errs)
	}
	return nil
}

type AssignDTO struct {
	StaffID int64 `json:"staffId"`
}

func (d AssignDTO) Validate() error {
	if d.StaffID <= 0 {
		return internal.NewValidationFieldError("staffId", "Staff ID is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

type UpdateStatusDTO struct {
	Status string `json:"status"`
}

func (d UpdateStatusDTO) Validate() error {
	if !ValidStatus(Status(d.Status)) || Status(d.Status) == StatusSubmitted {
		return internal.NewValidationFieldError("status", "Invalid status value", internal.ErrCodeInvalidStatus)
	}
	return nil
}

type UpdatePriorityDTO struct {
	Priority string `json:"priority"`
}

func (d UpdatePriorityDTO) Validate() error {
	if !ValidPriority(Priority(d.Priority)) {
		return internal.NewValidationFieldError("priority", "Invalid priority level", internal.ErrCodeInvalidPriority)
	}
	return nil
}

type CommentDTO struct {
	Text string `json:"text"`
}

func (d CommentDTO) Validate() error {
	if strings.TrimSpace(d.Text) == "" {
		return internal.NewValidationFieldError("text", "Comment text is required", internal.ErrCodeInvalidComment)
	}
	return nil
}

// ListFilter narrows the admin complaint listing.
type ListFilter struct {
	Status     string
	Category   string
	Priority   string
	AssignedTo int64
	SortBy     string
	SortDir    string
}

var sortableColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"priority":  "priority",
	"status":    "status",
	"dueDate":   "due_date",
}

// OrderClause maps the requested sort onto a safe column reference;
// anything unrecognized falls back to newest first.
func (f ListFilter) OrderClause() string {
	column, ok := sortableColumns[f.SortBy]
	if !ok {
		return "created_at DESC"
	}
	if strings.EqualFold(f.SortDir, "asc") {
		return column + " ASC"
	}
	return column + " DESC"
}

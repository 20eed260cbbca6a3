package postgres

import (
	"fmt"
	"time"

	"github.com/civiclink/grievance-management/internal"
	"github.com/civiclink/grievance-management/internal/complaint"
	complaintDatamodel "github.com/civiclink/grievance-management/internal/core/datamodel/complaint"
	"gorm.io/gorm"
)

// ComplaintRepository implements the complaint.Repository interface using GORM
type ComplaintRepository struct {
	db *gorm.DB
}

func NewComplaintRepository(db *gorm.DB) complaint.Repository {
	return &ComplaintRepository{db: db}
}

// Create inserts the complaint and its children in one transaction. The
// human-readable reference comes from an autoincrement row in
// complaint_refs, so concurrent submissions never collide.
func (r *ComplaintRepository) Create(c *complaint.Complaint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		ref := complaintDatamodel.Reference{CreatedAt: time.Now()}
		if err := tx.Create(&ref).Error; err != nil {
			return err
		}

		row := complaint.ToDataModel(c)
		row.Reference = fmt.Sprintf("C%03d", ref.ID)
		for _, at := range c.Attachments {
			row.Attachments = append(row.Attachments, complaintDatamodel.Attachment{
				Filename:   at.Filename,
				StoredName: at.StoredName,
				Path:       at.Path,
				MediaType:  at.MediaType,
				UploadedAt: at.UploadedAt,
			})
		}

		if err := tx.Create(row).Error; err != nil {
			return err
		}

		c.ID = row.ID
		c.Reference = row.Reference
		for i := range row.Attachments {
			c.Attachments[i].ID = row.Attachments[i].ID
		}
		return nil
	})
}

func (r *ComplaintRepository) GetByID(id int64) (*complaint.Complaint, error) {
	if id <= 0 {
		return nil, internal.ErrComplaintNotFound
	}
	return r.getOne("id = ?", id)
}

func (r *ComplaintRepository) GetByReference(ref string) (*complaint.Complaint, error) {
	return r.getOne("reference = ?", ref)
}

func (r *ComplaintRepository) getOne(query string, arg interface{}) (*complaint.Complaint, error) {
	var row complaintDatamodel.Complaint
	err := r.db.
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Attachments").
		Where(query, arg).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrComplaintNotFound
		}
		return nil, err
	}
	return complaint.FromDataModel(&row), nil
}

func (r *ComplaintRepository) ListByOwner(userID int64) ([]*complaint.Complaint, error) {
	return r.list(r.db.Where("user_id = ?", userID).Order("created_at DESC"))
}

func (r *ComplaintRepository) ListByAssignee(staffID int64) ([]*complaint.Complaint, error) {
	return r.list(r.db.Where("assignee_id = ?", staffID).Order("created_at DESC"))
}

func (r *ComplaintRepository) List(filter complaint.ListFilter) ([]*complaint.Complaint, error) {
	q := r.db
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Priority != "" {
		q = q.Where("priority = ?", filter.Priority)
	}
	if filter.AssignedTo > 0 {
		q = q.Where("assignee_id = ?", filter.AssignedTo)
	}
	return r.list(q.Order(filter.OrderClause()))
}

func (r *ComplaintRepository) list(q *gorm.DB) ([]*complaint.Complaint, error) {
	var rows []*complaintDatamodel.Complaint
	err := q.
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Attachments").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return complaint.FromDataModelSlice(rows), nil
}

// Update writes the mutable lifecycle columns back. Children are managed
// through AddComment and never rewritten here.
func (r *ComplaintRepository) Update(c *complaint.Complaint) error {
	updates := map[string]interface{}{
		"status":      string(c.Status),
		"priority":    string(c.Priority),
		"assignee_id": c.AssigneeID,
		"assigned_at": c.AssignedAt,
		"due_date":    c.DueDate,
		"is_overdue":  c.IsOverdue,
		"resolved_at": c.ResolvedAt,
		"locked_at":   c.LockedAt,
		"updated_at":  c.UpdatedAt,
	}

	result := r.db.Model(&complaintDatamodel.Complaint{}).
		Where("id = ?", c.ID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrComplaintNotFound
	}
	return nil
}

func (r *ComplaintRepository) SetOverdue(id int64, overdue bool) error {
	return r.db.Model(&complaintDatamodel.Complaint{}).
		Where("id = ?", id).
		Update("is_overdue", overdue).Error
}

func (r *ComplaintRepository) AddComment(complaintID int64, comment *complaint.Comment) error {
	row := complaintDatamodel.Comment{
		ComplaintID: complaintID,
		Text:        comment.Text,
		AuthorName:  comment.AuthorName,
		AuthorClass: string(comment.AuthorClass),
		CreatedAt:   comment.CreatedAt,
	}
	if err := r.db.Create(&row).Error; err != nil {
		return err
	}
	comment.ID = row.ID
	return nil
}

func (r *ComplaintRepository) Stats() (*complaint.Stats, error) {
	stats := &complaint.Stats{
		ByStatus:   make(map[string]int64),
		ByCategory: make(map[string]int64),
	}

	if err := r.db.Model(&complaintDatamodel.Complaint{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	type bucket struct {
		Key   string
		Count int64
	}

	var byStatus []bucket
	err := r.db.Model(&complaintDatamodel.Complaint{}).
		Select("status AS key, COUNT(*) AS count").
		Group("status").
		Scan(&byStatus).Error
	if err != nil {
		return nil, err
	}
	for _, b := range byStatus {
		stats.ByStatus[b.Key] = b.Count
	}

	var byCategory []bucket
	err = r.db.Model(&complaintDatamodel.Complaint{}).
		Select("category AS key, COUNT(*) AS count").
		Group("category").
		Scan(&byCategory).Error
	if err != nil {
		return nil, err
	}
	for _, b := range byCategory {
		stats.ByCategory[b.Key] = b.Count
	}

	err = r.db.Model(&complaintDatamodel.Complaint{}).
		Where("due_date IS NOT NULL AND due_date < ? AND status NOT IN ?",
			time.Now(), []string{string(complaint.StatusResolved), string(complaint.StatusClosed)}).
		Count(&stats.Overdue).Error
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// CountOpenByAssignee backs the staff roster's workload column.
func (r *ComplaintRepository) CountOpenByAssignee(staffID int64) (int64, error) {
	var count int64
	err := r.db.Model(&complaintDatamodel.Complaint{}).
		Where("assignee_id = ? AND status NOT IN ?",
			staffID, []string{string(complaint.StatusResolved), string(complaint.StatusClosed)}).
		Count(&count).Error
	return count, err
}

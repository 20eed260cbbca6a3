package complaint

import "time"

// Complaint is the persistence model for complaints. Comments and
// attachments live in child tables keyed by complaint id rather than as
// embedded arrays.
type Complaint struct {
	ID          int64      `gorm:"primaryKey"`
	Reference   string     `gorm:"column:reference;uniqueIndex;not null"`
	UserID      int64      `gorm:"column:user_id;not null;index"`
	Title       string     `gorm:"column:title;not null"`
	Category    string     `gorm:"column:category;not null"`
	Description string     `gorm:"column:description;not null"`
	Priority    string     `gorm:"column:priority;not null;default:Medium"`
	Status      string     `gorm:"column:status;not null;default:Submitted"`
	Anonymous   bool       `gorm:"column:anonymous;default:false"`
	AssigneeID  *int64     `gorm:"column:assignee_id;index"`
	AssignedAt  *time.Time `gorm:"column:assigned_at"`
	DueDate     *time.Time `gorm:"column:due_date"`
	IsOverdue   bool       `gorm:"column:is_overdue;default:false"`
	ResolvedAt  *time.Time `gorm:"column:resolved_at"`
	LockedAt    *time.Time `gorm:"column:locked_at"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`

	Comments    []Comment    `gorm:"foreignKey:ComplaintID"`
	Attachments []Attachment `gorm:"foreignKey:ComplaintID"`
}

func (Complaint) TableName() string {
	return "complaints"
}

type Comment struct {
	ID          int64     `gorm:"primaryKey"`
	ComplaintID int64     `gorm:"column:complaint_id;not null;index"`
	Text        string    `gorm:"column:text;not null"`
	AuthorName  string    `gorm:"column:author_name;not null"`
	AuthorClass string    `gorm:"column:author_class;not null"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (Comment) TableName() string {
	return "complaint_comments"
}

type Attachment struct {
	ID          int64     `gorm:"primaryKey"`
	ComplaintID int64     `gorm:"column:complaint_id;not null;index"`
	Filename    string    `gorm:"column:filename;not null"`
	StoredName  string    `gorm:"column:stored_name;uniqueIndex;not null"`
	Path        string    `gorm:"column:path;not null"`
	MediaType   string    `gorm:"column:media_type"`
	UploadedAt  time.Time `gorm:"column:uploaded_at"`
}

func (Attachment) TableName() string {
	return "complaint_attachments"
}

// Reference rows exist only to hand out monotonically increasing ids for
// human-readable complaint references. Inserting a row and reading back its
// autoincrement id is atomic, unlike counting existing complaints.
type Reference struct {
	ID        int64     `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (Reference) TableName() string {
	return "complaint_refs"
}

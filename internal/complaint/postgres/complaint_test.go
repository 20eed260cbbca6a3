package postgres

import (
	"testing"
	"time"

	"github.com/civiclink/grievance-management/internal"
	"github.com/civiclink/grievance-management/internal/auth"
	"github.com/civiclink/grievance-management/internal/complaint"
	complaintDatamodel "github.com/civiclink/grievance-management/internal/core/datamodel/complaint"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestComplaintRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "ComplaintRepository Suite")
}

var _ = Describe("ComplaintRepository", func() {
	var (
		db   *gorm.DB
		repo complaint.Repository
	)

	newComplaint := func(userID int64) *complaint.Complaint {
		now := time.Now()
		return &complaint.Complaint{
			UserID:      userID,
			Title:       "Streetlight out on Main",
			Category:    "Infrastructure",
			Description: "The light at Main and 4th has been dark for two weeks now.",
			Priority:    complaint.PriorityMedium,
			Status:      complaint.StatusSubmitted,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(
			&complaintDatamodel.Reference{},
			&complaintDatamodel.Complaint{},
			&complaintDatamodel.Comment{},
			&complaintDatamodel.Attachment{},
		)
		Expect(err).NotTo(HaveOccurred())

		repo = NewComplaintRepository(db)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	Describe("Create", func() {
		It("assigns sequential zero-padded references", func() {
			first := newComplaint(1)
			second := newComplaint(1)

			Expect(repo.Create(first)).To(Succeed())
			Expect(repo.Create(second)).To(Succeed())

			Expect(first.Reference).To(Equal("C001"))
			Expect(second.Reference).To(Equal("C002"))
		})

		It("persists attachments alongside the complaint", func() {
			c := newComplaint(1)
			c.Attachments = []complaint.Attachment{
				{Filename: "photo.jpg", StoredName: "uuid-1.jpg", Path: "uploads/uuid-1.jpg", MediaType: "image/jpeg", UploadedAt: time.Now()},
			}

			Expect(repo.Create(c)).To(Succeed())

			got, err := repo.GetByID(c.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Attachments).To(HaveLen(1))
			Expect(got.Attachments[0].StoredName).To(Equal("uuid-1.jpg"))
		})
	})

	Describe("GetByReference", func() {
		It("resolves the human-readable reference", func() {
			c := newComplaint(1)
			Expect(repo.Create(c)).To(Succeed())

			got, err := repo.GetByReference("C001")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(c.ID))
		})

		It("returns not found for unknown references", func() {
			_, err := repo.GetByReference("C999")
			Expect(err).To(MatchError(internal.ErrComplaintNotFound))
		})
	})

	Describe("Update", func() {
		It("writes lifecycle fields back", func() {
			c := newComplaint(1)
			Expect(repo.Create(c)).To(Succeed())

			Expect(c.Assign(7, time.Now())).To(Succeed())
			Expect(repo.Update(c)).To(Succeed())

			got, err := repo.GetByID(c.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(complaint.StatusInProgress))
			Expect(*got.AssigneeID).To(Equal(int64(7)))
			Expect(got.DueDate).NotTo(BeNil())
		})

		It("reports a missing row", func() {
			c := newComplaint(1)
			c.ID = 404
			Expect(repo.Update(c)).To(MatchError(internal.ErrComplaintNotFound))
		})
	})

	Describe("AddComment", func() {
		It("appends comments in order", func() {
			c := newComplaint(1)
			Expect(repo.Create(c)).To(Succeed())

			first := &complaint.Comment{Text: "first", AuthorName: "staff_jo", AuthorClass: auth.ClassStaff, CreatedAt: time.Now().Add(-time.Minute)}
			second := &complaint.Comment{Text: "second", AuthorName: "admin", AuthorClass: auth.ClassAdmin, CreatedAt: time.Now()}
			Expect(repo.AddComment(c.ID, first)).To(Succeed())
			Expect(repo.AddComment(c.ID, second)).To(Succeed())

			got, err := repo.GetByID(c.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Comments).To(HaveLen(2))
			Expect(got.Comments[0].Text).To(Equal("first"))
			Expect(got.Comments[1].AuthorClass).To(Equal(auth.ClassAdmin))
		})
	})

	Describe("List", func() {
		BeforeEach(func() {
			a := newComplaint(1)
			Expect(repo.Create(a)).To(Succeed())

			b := newComplaint(2)
			b.Category = "Utilities"
			Expect(repo.Create(b)).To(Succeed())
			Expect(b.Assign(7, time.Now())).To(Succeed())
			Expect(repo.Update(b)).To(Succeed())
		})

		It("filters by status", func() {
			got, err := repo.List(complaint.ListFilter{Status: "In Progress"})
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(1))
			Expect(got[0].Category).To(Equal("Utilities"))
		})

		It("filters by assignee", func() {
			got, err := repo.List(complaint.ListFilter{AssignedTo: 7})
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(1))
		})

		It("returns everything without filters", func() {
			got, err := repo.List(complaint.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(2))
		})
	})

	Describe("ListByOwner", func() {
		It("scopes to the owner", func() {
			Expect(repo.Create(newComplaint(1))).To(Succeed())
			Expect(repo.Create(newComplaint(2))).To(Succeed())

			got, err := repo.ListByOwner(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(1))
			Expect(got[0].UserID).To(Equal(int64(1)))
		})
	})

	Describe("Stats", func() {
		It("aggregates totals by status and category", func() {
			a := newComplaint(1)
			Expect(repo.Create(a)).To(Succeed())

			b := newComplaint(2)
			b.Category = "Utilities"
			Expect(repo.Create(b)).To(Succeed())
			Expect(b.Assign(7, time.Now())).To(Succeed())
			Expect(repo.Update(b)).To(Succeed())

			stats, err := repo.Stats()
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Total).To(Equal(int64(2)))
			Expect(stats.ByStatus["Submitted"]).To(Equal(int64(1)))
			Expect(stats.ByStatus["In Progress"]).To(Equal(int64(1)))
			Expect(stats.ByCategory["Utilities"]).To(Equal(int64(1)))
		})

		It("counts overdue open complaints", func() {
			c := newComplaint(1)
			Expect(repo.Create(c)).To(Succeed())
			past := time.Now().Add(-time.Hour)
			c.DueDate = &past
			c.Status = complaint.StatusInProgress
			Expect(repo.Update(c)).To(Succeed())

			stats, err := repo.Stats()
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Overdue).To(Equal(int64(1)))
		})
	})

	Describe("CountOpenByAssignee", func() {
		It("excludes resolved and closed work", func() {
			open := newComplaint(1)
			Expect(repo.Create(open)).To(Succeed())
			Expect(open.Assign(7, time.Now())).To(Succeed())
			Expect(repo.Update(open)).To(Succeed())

			done := newComplaint(2)
			Expect(repo.Create(done)).To(Succeed())
			Expect(done.Assign(7, time.Now())).To(Succeed())
			Expect(done.ApplyStatus(complaint.StatusResolved, time.Now())).To(Succeed())
			Expect(repo.Update(done)).To(Succeed())

			count, err := repo.CountOpenByAssignee(7)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(int64(1)))
		})
	})
})

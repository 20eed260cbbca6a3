package complaint

import (
	"log/slog"
	"mime/multipart"
	"time"

	"github.com/civiclink/grievance-management/internal"
	"github.com/civiclink/grievance-management/internal/attachment"
	"github.com/civiclink/grievance-management/internal/auth"
	"github.com/civiclink/grievance-management/internal/user"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

// Mock repository backed by a map
type mockComplaintRepo struct {
	complaints  map[int64]*Complaint
	nextID      int64
	overdueSets map[int64]bool
}

func newMockComplaintRepo() *mockComplaintRepo {
	return &mockComplaintRepo{
		complaints:  make(map[int64]*Complaint),
		nextID:      1,
		overdueSets: make(map[int64]bool),
	}
}

func (m *mockComplaintRepo) Create(c *Complaint) error {
	c.ID = m.nextID
	c.Reference = referenceFor(m.nextID)
	m.nextID++
	stored := *c
	m.complaints[c.ID] = &stored
	return nil
}

func referenceFor(id int64) string {
	refs := []string{"", "C001", "C002", "C003", "C004", "C005"}
	if int(id) < len(refs) {
		return refs[id]
	}
	return "C999"
}

func (m *mockComplaintRepo) GetByID(id int64) (*Complaint, error) {
	if c, ok := m.complaints[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, internal.ErrComplaintNotFound
}

func (m *mockComplaintRepo) GetByReference(ref string) (*Complaint, error) {
	for _, c := range m.complaints {
		if c.Reference == ref {
			copied := *c
			return &copied, nil
		}
	}
	return nil, internal.ErrComplaintNotFound
}

func (m *mockComplaintRepo) ListByOwner(userID int64) ([]*Complaint, error) {
	var out []*Complaint
	for _, c := range m.complaints {
		if c.UserID == userID {
			copied := *c
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *mockComplaintRepo) ListByAssignee(staffID int64) ([]*Complaint, error) {
	var out []*Complaint
	for _, c := range m.complaints {
		if c.AssigneeID != nil && *c.AssigneeID == staffID {
			copied := *c
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *mockComplaintRepo) List(filter ListFilter) ([]*Complaint, error) {
	var out []*Complaint
	for _, c := range m.complaints {
		if filter.Status != "" && string(c.Status) != filter.Status {
			continue
		}
		if filter.Category != "" && c.Category != filter.Category {
			continue
		}
		copied := *c
		out = append(out, &copied)
	}
	return out, nil
}

func (m *mockComplaintRepo) Update(c *Complaint) error {
	if _, ok := m.complaints[c.ID]; !ok {
		return internal.ErrComplaintNotFound
	}
	stored := *c
	m.complaints[c.ID] = &stored
	return nil
}

func (m *mockComplaintRepo) SetOverdue(id int64, overdue bool) error {
	m.overdueSets[id] = overdue
	if c, ok := m.complaints[id]; ok {
		c.IsOverdue = overdue
	}
	return nil
}

func (m *mockComplaintRepo) AddComment(complaintID int64, comment *Comment) error {
	c, ok := m.complaints[complaintID]
	if !ok {
		return internal.ErrComplaintNotFound
	}
	comment.ID = int64(len(c.Comments) + 1)
	c.Comments = append(c.Comments, *comment)
	return nil
}

func (m *mockComplaintRepo) Stats() (*Stats, error) {
	stats := &Stats{ByStatus: map[string]int64{}, ByCategory: map[string]int64{}}
	for _, c := range m.complaints {
		stats.Total++
		stats.ByStatus[string(c.Status)]++
		stats.ByCategory[c.Category]++
	}
	return stats, nil
}

func (m *mockComplaintRepo) CountOpenByAssignee(staffID int64) (int64, error) {
	var count int64
	for _, c := range m.complaints {
		if c.AssigneeID != nil && *c.AssigneeID == staffID &&
			c.Status != StatusResolved && c.Status != StatusClosed {
			count++
		}
	}
	return count, nil
}

type mockAttachmentStore struct {
	stored      []attachment.Stored
	storeCalled bool
}

func (m *mockAttachmentStore) Store(files []*multipart.FileHeader) ([]attachment.Stored, error) {
	m.storeCalled = true
	return m.stored, nil
}

type mockDirectory struct {
	users map[int64]*user.User
}

func (m *mockDirectory) GetByID(id int64) (*user.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, internal.ErrUserNotFound
}

var _ = ginkgo.Describe("ComplaintService", func() {
	var (
		service   *Service
		repo      *mockComplaintRepo
		store     *mockAttachmentStore
		directory *mockDirectory

		citizen *auth.Identity
		staff   *auth.Identity
		admin   *auth.Identity
	)

	ginkgo.BeforeEach(func() {
		repo = newMockComplaintRepo()
		store = &mockAttachmentStore{}
		directory = &mockDirectory{users: map[int64]*user.User{
			7:  {ID: 7, Username: "staff_jo", Class: auth.ClassStaff},
			8:  {ID: 8, Username: "other_staff", Class: auth.ClassStaff},
			42: {ID: 42, Username: "citizen_ana", Class: auth.ClassCitizen},
		}}
		service = NewService(repo, store, directory, slog.Default())

		citizen = &auth.Identity{UserID: 42, Username: "citizen_ana", Class: auth.ClassCitizen}
		staff = &auth.Identity{UserID: 7, Username: "staff_jo", Class: auth.ClassStaff}
		admin = &auth.Identity{UserID: 1, Username: "admin", Class: auth.ClassAdmin}
	})

	submit := func() *Complaint {
		c, err := service.Submit(citizen, CreateComplaintDTO{
			Title:       "Streetlight out on Main",
			Category:    "Infrastructure",
			Description: "The light at Main and 4th has been dark for two weeks now.",
			Priority:    "Medium",
		}, nil)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		return c
	}

	ginkgo.Describe("Submit", func() {
		ginkgo.It("creates the complaint in Submitted with a reference", func() {
			c := submit()

			gomega.Expect(c.Status).To(gomega.Equal(StatusSubmitted))
			gomega.Expect(c.Reference).To(gomega.Equal("C001"))
			gomega.Expect(c.UserID).To(gomega.Equal(int64(42)))
		})

		ginkgo.It("hands out sequential references", func() {
			gomega.Expect(submit().Reference).To(gomega.Equal("C001"))
			gomega.Expect(submit().Reference).To(gomega.Equal("C002"))
		})

		ginkgo.It("records stored attachments on the complaint", func() {
			store.stored = []attachment.Stored{
				{OriginalName: "photo.jpg", StoredName: "abc.jpg", MediaType: "image/jpeg"},
			}

			c := submit()
			gomega.Expect(c.Attachments).To(gomega.HaveLen(1))
			gomega.Expect(c.Attachments[0].Filename).To(gomega.Equal("photo.jpg"))
		})

		ginkgo.It("does not touch storage when the form fields are invalid", func() {
			_, err := service.Submit(citizen, CreateComplaintDTO{Title: "x"}, nil)

			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(store.storeCalled).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("GetForOwner", func() {
		ginkgo.It("finds the caller's complaint by numeric id", func() {
			c := submit()
			got, err := service.GetForOwner("1", c.UserID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(got.ID).To(gomega.Equal(c.ID))
		})

		ginkgo.It("finds the caller's complaint by reference, case-insensitively", func() {
			c := submit()
			got, err := service.GetForOwner("c001", c.UserID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(got.ID).To(gomega.Equal(c.ID))
		})

		ginkgo.It("reports a foreign complaint as not found, not forbidden", func() {
			submit()
			_, err := service.GetForOwner("1", 999)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrComplaintNotFound))
		})
	})

	ginkgo.Describe("Assign", func() {
		ginkgo.It("lets an admin assign to a staff member", func() {
			submit()

			c, err := service.Assign(admin, "1", AssignDTO{StaffID: 7})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(c.Status).To(gomega.Equal(StatusInProgress))
			gomega.Expect(*c.AssigneeID).To(gomega.Equal(int64(7)))
			gomega.Expect(c.DueDate).ToNot(gomega.BeNil())
		})

		ginkgo.It("refuses staff callers", func() {
			submit()
			_, err := service.Assign(staff, "1", AssignDTO{StaffID: 7})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrClassNotAllowed))
		})

		ginkgo.It("refuses a citizen assignment target", func() {
			submit()
			_, err := service.Assign(admin, "1", AssignDTO{StaffID: 42})
			gomega.Expect(err).To(gomega.HaveOccurred())
		})

		ginkgo.It("refuses an unknown assignment target", func() {
			submit()
			_, err := service.Assign(admin, "1", AssignDTO{StaffID: 500})
			gomega.Expect(err).To(gomega.HaveOccurred())
		})

		ginkgo.It("reports a missing complaint", func() {
			_, err := service.Assign(admin, "17", AssignDTO{StaffID: 7})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrComplaintNotFound))
		})
	})

	ginkgo.Describe("UpdateStatus", func() {
		ginkgo.BeforeEach(func() {
			submit()
			_, err := service.Assign(admin, "1", AssignDTO{StaffID: 7})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
		})

		ginkgo.It("lets the assignee move their complaint", func() {
			c, err := service.UpdateStatus(staff, "1", UpdateStatusDTO{Status: "Resolved"})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(c.Status).To(gomega.Equal(StatusResolved))
			gomega.Expect(c.ResolvedAt).ToNot(gomega.BeNil())
		})

		ginkgo.It("refuses staff who do not hold the assignment", func() {
			other := &auth.Identity{UserID: 8, Username: "other_staff", Class: auth.ClassStaff}

			_, err := service.UpdateStatus(other, "1", UpdateStatusDTO{Status: "Resolved"})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrNotAssignee))
		})

		ginkgo.It("lets admins move any complaint", func() {
			c, err := service.UpdateStatus(admin, "1", UpdateStatusDTO{Status: "Under Review"})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(c.Status).To(gomega.Equal(StatusUnderReview))
		})

		ginkgo.It("refuses citizens", func() {
			_, err := service.UpdateStatus(citizen, "1", UpdateStatusDTO{Status: "Resolved"})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrClassNotAllowed))
		})

		ginkgo.It("rejects Submitted as a target", func() {
			_, err := service.UpdateStatus(admin, "1", UpdateStatusDTO{Status: "Submitted"})
			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})

	ginkgo.Describe("Lock", func() {
		ginkgo.BeforeEach(func() {
			submit()
			_, err := service.Assign(admin, "1", AssignDTO{StaffID: 7})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
		})

		ginkgo.It("locks a resolved complaint and freezes it", func() {
			_, err := service.UpdateStatus(staff, "1", UpdateStatusDTO{Status: "Resolved"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			locked, err := service.Lock(staff, "1")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(locked.IsLocked()).To(gomega.BeTrue())

			_, err = service.UpdateStatus(admin, "1", UpdateStatusDTO{Status: "Closed"})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrComplaintLocked))
		})

		ginkgo.It("refuses to lock before resolution", func() {
			_, err := service.Lock(staff, "1")
			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})

	ginkgo.Describe("AddComment", func() {
		ginkgo.BeforeEach(func() {
			submit()
			_, err := service.Assign(admin, "1", AssignDTO{StaffID: 7})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
		})

		ginkgo.It("appends a comment stamped with the author's class", func() {
			c, err := service.AddComment(staff, "1", CommentDTO{Text: "crew dispatched"})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(c.Comments).To(gomega.HaveLen(1))
			gomega.Expect(c.Comments[0].AuthorClass).To(gomega.Equal(auth.ClassStaff))
		})

		ginkgo.It("refuses comments on a locked complaint, even from admins", func() {
			_, err := service.UpdateStatus(staff, "1", UpdateStatusDTO{Status: "Resolved"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			_, err = service.Lock(staff, "1")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.AddComment(admin, "1", CommentDTO{Text: "too late"})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrComplaintLocked))
		})

		ginkgo.It("refuses staff who do not hold the assignment", func() {
			other := &auth.Identity{UserID: 8, Username: "other_staff", Class: auth.ClassStaff}
			_, err := service.AddComment(other, "1", CommentDTO{Text: "drive-by"})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrNotAssignee))
		})
	})

	ginkgo.Describe("overdue write-back", func() {
		ginkgo.It("persists a newly stale overdue flag on read", func() {
			submit()
			_, err := service.Assign(admin, "1", AssignDTO{StaffID: 7})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			// push the stored due date into the past
			stored := repo.complaints[1]
			past := time.Now().Add(-time.Hour)
			stored.DueDate = &past

			list, err := service.ListForAssignee(7)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(list).To(gomega.HaveLen(1))
			gomega.Expect(list[0].IsOverdue).To(gomega.BeTrue())
			gomega.Expect(repo.overdueSets).To(gomega.HaveKeyWithValue(int64(1), true))
		})
	})
})

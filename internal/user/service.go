package user

import (
	"log/slog"

	"github.com/civiclink/grievance-management/internal"
	"github.com/civiclink/grievance-management/internal/auth"
)

// Repository defines the data access methods for accounts.
type Repository interface {
	GetByID(id int64) (*User, error)
	ListActive() ([]*User, error)
	ListByClass(classes ...auth.Class) ([]*User, error)
	UpdateProfile(id int64, username, email *string) (*User, error)
	UsernameExistsExcept(username string, id int64) (bool, error)
	EmailExistsExcept(email string, id int64) (bool, error)
}

// WorkloadCounter reports how many open complaints a staff member currently
// carries. Implemented by the complaint repository.
type WorkloadCounter interface {
	CountOpenByAssignee(staffID int64) (int64, error)
}

type Service struct {
	repo     Repository
	workload WorkloadCounter
	logger   *slog.Logger
}

func NewService(repo Repository, workload WorkloadCounter, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		workload: workload,
		logger:   logger,
	}
}

func (s *Service) GetByID(id int64) (*User, error) {
	u, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.ErrUserNotFound
	}
	return u, nil
}

func (s *Service) UpdateProfile(id int64, dto UpdateProfileDTO) (*User, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if dto.Empty() {
		return s.GetByID(id)
	}

	if dto.Username != nil {
		taken, err := s.repo.UsernameExistsExcept(*dto.Username, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, internal.ErrUsernameTaken
		}
	}

	if dto.Email != nil {
		taken, err := s.repo.EmailExistsExcept(*dto.Email, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, internal.ErrEmailTaken
		}
	}

	updated, err := s.repo.UpdateProfile(id, dto.Username, dto.Email)
	if err != nil {
		if err == ErrNotFound {
			return nil, internal.ErrUserNotFound
		}
		s.logger.Error("failed to update profile", "error", err, "user_id", id)
		return nil, err
	}

	s.logger.Info("profile updated", "user_id", id)
	return updated, nil
}

func (s *Service) ListUsers() ([]*User, error) {
	return s.repo.ListActive()
}

// ListStaff returns the staff/admin roster with each member's open
// assignment count, for allocation decisions.
func (s *Service) ListStaff() ([]*StaffMember, error) {
	staff, err := s.repo.ListByClass(auth.ClassStaff, auth.ClassAdmin)
	if err != nil {
		return nil, err
	}

	roster := make([]*StaffMember, 0, len(staff))
	for _, u := range staff {
		count, err := s.workload.CountOpenByAssignee(u.ID)
		if err != nil {
			s.logger.Error("failed to count workload", "error", err, "staff_id", u.ID)
			return nil, err
		}
		roster = append(roster, &StaffMember{User: *u, OpenAssignments: count})
	}

	return roster, nil
}

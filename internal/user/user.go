package user

import (
	"errors"
	"time"

	"github.com/civiclink/grievance-management/internal/auth"
	userDatamodel "github.com/civiclink/grievance-management/internal/core/datamodel/user"
)

type User struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	Class     auth.Class `json:"userType"`
	IsActive  bool       `json:"isActive"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// StaffMember is a roster entry with the member's live workload.
type StaffMember struct {
	User
	OpenAssignments int64 `json:"openAssignments"`
}

var ErrNotFound = errors.New("user not found")

func FromDataModel(row *userDatamodel.User) *User {
	return &User{
		ID:        row.ID,
		Username:  row.Username,
		Email:     row.Email,
		Role:      row.Role,
		Class:     auth.Class(row.UserClass),
		IsActive:  row.IsActive,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func FromDataModelSlice(rows []*userDatamodel.User) []*User {
	result := make([]*User, len(rows))
	for i, row := range rows {
		result[i] = FromDataModel(row)
	}
	return result
}

package user

import (
	"regexp"
	"strings"

	"github.com/civiclink/grievance-management/internal"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// UpdateProfileDTO carries optional profile edits. Role and class are not
// part of the shape; the client cannot touch them.
type UpdateProfileDTO struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
}

func (d *UpdateProfileDTO) Normalize() {
	if d.Username != nil {
		trimmed := strings.TrimSpace(*d.Username)
		d.Username = &trimmed
	}
	if d.Email != nil {
		lowered := strings.ToLower(strings.TrimSpace(*d.Email))
		d.Email = &lowered
	}
}

func (d UpdateProfileDTO) Validate() error {
	var errs []internal.ValidationError

	if d.Username != nil {
		if len(*d.Username) < 3 || len(*d.Username) > 30 {
			errs = append(errs, internal.ValidationError{
				Field:   "username",
				Message: "Username must be between 3 and 30 characters",
				Code:    string(internal.ErrCodeInvalidUsername),
			})
		} else if !usernamePattern.MatchString(*d.Username) {
			errs = append(errs, internal.ValidationError{
				Field:   "username",
				Message: "Username can only contain letters, numbers, and underscores",
				Code:    string(internal.ErrCodeInvalidUsername),
			})
		}
	}

	if d.Email != nil && !emailPattern.MatchString(*d.Email) {
		errs = append(errs, internal.ValidationError{
			Field:   "email",
			Message: "Please provide a valid email address",
			Code:    string(internal.ErrCodeInvalidEmail),
		})
	}

	if len(errs) > 0 {
		return internal.NewValidationFieldErrors(errs)
	}
	return nil
}

// Empty reports whether the DTO carries no edits at all.
func (d UpdateProfileDTO) Empty() bool {
	return d.Username == nil && d.Email == nil
}

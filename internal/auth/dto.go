package auth

import (
	"regexp"
	"strings"

	"github.com/civiclink/grievance-management/internal"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	lowerPattern    = regexp.MustCompile(`[a-z]`)
	upperPattern    = regexp.MustCompile(`[A-Z]`)
	digitPattern    = regexp.MustCompile(`[0-9]`)
)

// SignupDTO is the transport shape for registration requests.
type SignupDTO struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Normalize trims the handle and lower-cases the email before validation
// and storage.
func (d *SignupDTO) Normalize() {
	d.Username = strings.TrimSpace(d.Username)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
}

func (d SignupDTO) Validate() error {
	var errs []internal.ValidationError

	if len(d.Username) < 3 || len(d.Username) > 30 {
		errs = append(errs, internal.ValidationError{
			Field:   "username",
			Message: "Username must be between 3 and 30 characters",
			Code:    string(internal.ErrCodeInvalidUsername),
		})
	} else if !usernamePattern.MatchString(d.Username) {
		errs = append(errs, internal.ValidationError{
			Field:   "username",
			Message: "Username can only contain letters, numbers, and underscores",
			Code:    string(internal.ErrCodeInvalidUsername),
		})
	}

	if !emailPattern.MatchString(d.Email) {
		errs = append(errs, internal.ValidationError{
			Field:   "email",
			Message: "Please provide a valid email address",
			Code:    string(internal.ErrCodeInvalidEmail),
		})
	}

	if len(d.Password) < 6 {
		errs = append(errs, internal.ValidationError{
			Field:   "password",
			Message: "Password must be at least 6 characters long",
			Code:    string(internal.ErrCodeInvalidPassword),
		})
	} else if !lowerPattern.MatchString(d.Password) || !upperPattern.MatchString(d.Password) || !digitPattern.MatchString(d.Password) {
		errs = append(errs, internal.ValidationError{
			Field:   "password",
			Message: "Password must contain at least one lowercase letter, one uppercase letter, and one number",
			Code:    string(internal.ErrCodeInvalidPassword),
		})
	}

	if d.Role == "" {
		errs = append(errs, internal.ValidationError{
			Field:   "role",
			Message: "Role selection is required",
			Code:    string(internal.ErrCodeInvalidRole),
		})
	} else if !ValidRole(d.Role) {
		errs = append(errs, internal.ValidationError{
			Field:   "role",
			Message: "Invalid role selected",
			Code:    string(internal.ErrCodeInvalidRole),
		})
	}

	if len(errs) > 0 {
		return internal.NewValidationFieldErrors(errs)
	}
	return nil
}

// LoginDTO is the transport shape for login requests.
type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (d *LoginDTO) Normalize() {
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
}

func (d LoginDTO) Validate() error {
	var errs []internal.ValidationError

	if !emailPattern.MatchString(d.Email) {
		errs = append(errs, internal.ValidationError{
			Field:   "email",
			Message: "Please provide a valid email",
			Code:    string(internal.ErrCodeInvalidEmail),
		})
	}
	if d.Password == "" {
		errs = append(errs, internal.ValidationError{
			Field:   "password",
			Message: "Password is required",
			Code:    string(internal.ErrCodeInvalidPassword),
		})
	}

	if len(errs) > 0 {
		return internal.NewValidationFieldErrors(errs)
	}
	return nil
}

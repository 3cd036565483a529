package session

import (
	"regexp"
	"strings"

	"github.com/Purab2001/CourseHub-client/internal/apperror"
)

var (
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	uppercaseChar  = regexp.MustCompile(`[A-Z]`)
	specialChar    = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
	selectableRole = map[string]bool{"student": true, "instructor": true}
)

// ValidateRegistration checks the registration form locally. It runs
// before any provider call; a failure means no network traffic
// happened.
func ValidateRegistration(in RegisterInput) error {
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		return apperror.ValidationFailed("name", "Name is required")
	case len(name) < 2:
		return apperror.ValidationFailed("name", "Name must be at least 2 characters")
	}

	switch {
	case in.Email == "":
		return apperror.ValidationFailed("email", "Email is required")
	case !emailPattern.MatchString(in.Email):
		return apperror.ValidationFailed("email", "Please enter a valid email address")
	}

	if in.Password == "" {
		return apperror.ValidationFailed("password", "Password is required")
	}
	if len(in.Password) < 6 ||
		!uppercaseChar.MatchString(in.Password) ||
		!specialChar.MatchString(in.Password) {
		return apperror.ValidationFailed(
			"password",
			"Password must be at least 6 characters with uppercase letter and special character",
		)
	}

	switch {
	case in.ConfirmPassword == "":
		return apperror.ValidationFailed("confirmPassword", "Please confirm your password")
	case in.ConfirmPassword != in.Password:
		return apperror.ValidationFailed("confirmPassword", "Passwords do not match")
	}

	if in.Role != "" && !selectableRole[in.Role] {
		return apperror.ValidationFailed("role", "Role must be student or instructor")
	}

	return nil
}

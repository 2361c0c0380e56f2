// ABOUTME: Enrollment payload model and field-level validation rules
// ABOUTME: Pure rule-set gating account registration before submission

package enrollment

import (
	"fmt"
	"regexp"
	"strings"
)

// Role identifies the kind of account being enrolled.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// Roles lists every selectable role in display order.
var Roles = []Role{RoleStudent, RoleTeacher, RoleAdmin}

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// IdentifierLabel returns the human label for the role's required
// institutional identifier.
func (r Role) IdentifierLabel() string {
	if r == RoleStudent {
		return "student ID"
	}
	return "employee ID"
}

// Payload carries everything a registration needs. The institutional
// identifier is a single field keyed by Role: a student payload's
// Identifier is the student ID, a teacher's or admin's is the employee
// ID. There is no second identifier field to populate by mistake.
type Payload struct {
	Role       Role
	FirstName  string
	LastName   string
	Email      string
	Identifier string
	Password   string
	Confirm    string
}

// FieldError is a single validation failure, scoped to one field so the
// caller can render it next to the offending input.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// emailPattern accepts conventional address syntax; the identity
// service performs the authoritative check on registration.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// MinPasswordLength is the shortest password the service accepts.
const MinPasswordLength = 8

const minNameLength = 2

// Validate runs every rule and returns all failures. Rules are
// independent of each other, so the error set is stable for an
// unchanged payload. A nil result means the payload is well formed.
// Photo presence is deliberately not checked here; it depends on
// capture-session state and is gated by the flow controller.
func (p Payload) Validate() []FieldError {
	var errs []FieldError

	if !p.Role.Valid() {
		errs = append(errs, FieldError{"role", "select a role"})
	}
	if len(strings.TrimSpace(p.FirstName)) < minNameLength {
		errs = append(errs, FieldError{"firstName", "first name must be at least 2 characters"})
	}
	if len(strings.TrimSpace(p.LastName)) < minNameLength {
		errs = append(errs, FieldError{"lastName", "last name must be at least 2 characters"})
	}
	if !emailPattern.MatchString(p.Email) {
		errs = append(errs, FieldError{"email", "enter a valid email address"})
	}
	if strings.TrimSpace(p.Identifier) == "" {
		errs = append(errs, FieldError{identifierField(p.Role), p.Role.IdentifierLabel() + " is required"})
	}
	if len(p.Password) < MinPasswordLength {
		errs = append(errs, FieldError{"password", "password must be at least 8 characters"})
	}
	if p.Confirm != p.Password {
		errs = append(errs, FieldError{"confirmPassword", "passwords do not match"})
	}

	return errs
}

// ErrorFor returns the message for a single field, or "" when the field
// is clean. Used for per-field rendering during input.
func (p Payload) ErrorFor(field string) string {
	for _, e := range p.Validate() {
		if e.Field == field {
			return e.Message
		}
	}
	return ""
}

func identifierField(r Role) string {
	if r == RoleStudent {
		return "studentId"
	}
	return "employeeId"
}

// ValidEmail reports whether s has conventional address syntax. Shared
// with the forgot-password gate.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

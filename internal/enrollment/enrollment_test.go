// ABOUTME: Tests for enrollment payload validation
// ABOUTME: Covers per-field rules, role/identifier pairing, and idempotence

package enrollment

import (
	"reflect"
	"testing"
)

func validPayload() Payload {
	return Payload{
		Role:       RoleStudent,
		FirstName:  "Maya",
		LastName:   "Okafor",
		Email:      "maya.okafor@school.edu",
		Identifier: "S-2024-118",
		Password:   "Sunrise9!",
		Confirm:    "Sunrise9!",
	}
}

func fields(errs []FieldError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Field)
	}
	return out
}

func TestValidateOK(t *testing.T) {
	if errs := validPayload().Validate(); len(errs) != 0 {
		t.Errorf("valid payload produced errors: %v", errs)
	}
}

func TestValidateRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Payload)
		field  string
	}{
		{"short first name", func(p *Payload) { p.FirstName = "M" }, "firstName"},
		{"short last name", func(p *Payload) { p.LastName = " " }, "lastName"},
		{"bad email", func(p *Payload) { p.Email = "not-an-email" }, "email"},
		{"email missing domain dot", func(p *Payload) { p.Email = "a@b" }, "email"},
		{"missing student id", func(p *Payload) { p.Identifier = "" }, "studentId"},
		{"short password", func(p *Payload) { p.Password, p.Confirm = "Ab1!", "Ab1!" }, "password"},
		{"mismatched confirmation", func(p *Payload) { p.Confirm = "different9!" }, "confirmPassword"},
		{"unknown role", func(p *Payload) { p.Role = "guest" }, "role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPayload()
			tt.mutate(&p)
			errs := p.Validate()
			if len(errs) == 0 {
				t.Fatal("expected validation errors, got none")
			}
			found := false
			for _, e := range errs {
				if e.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on field %q, got %v", tt.field, fields(errs))
			}
		})
	}
}

func TestValidateIdentifierFollowsRole(t *testing.T) {
	// A missing identifier is reported against the field the role
	// requires; there is no second field to populate by mistake.
	p := validPayload()
	p.Identifier = ""

	p.Role = RoleStudent
	if got := p.ErrorFor("studentId"); got == "" {
		t.Error("student payload without identifier: expected studentId error")
	}
	if got := p.ErrorFor("employeeId"); got != "" {
		t.Errorf("student payload reported employeeId error: %q", got)
	}

	for _, role := range []Role{RoleTeacher, RoleAdmin} {
		p.Role = role
		if got := p.ErrorFor("employeeId"); got == "" {
			t.Errorf("%s payload without identifier: expected employeeId error", role)
		}
		if got := p.ErrorFor("studentId"); got != "" {
			t.Errorf("%s payload reported studentId error: %q", role, got)
		}
	}
}

func TestValidateConfirmAttachment(t *testing.T) {
	p := validPayload()
	p.Confirm = "Sunset9!!"
	errs := p.Validate()
	if len(errs) != 1 {
		t.Fatalf("expected exactly one error, got %v", errs)
	}
	if errs[0].Field != "confirmPassword" {
		t.Errorf("mismatch attached to %q, want confirmPassword", errs[0].Field)
	}
}

func TestValidateIdempotent(t *testing.T) {
	p := validPayload()
	p.FirstName = ""
	p.Email = "broken"
	first := p.Validate()
	second := p.Validate()
	if !reflect.DeepEqual(first, second) {
		t.Errorf("re-validation changed the error set:\nfirst:  %v\nsecond: %v", first, second)
	}
}

func TestValidEmail(t *testing.T) {
	good := []string{"a@b.com", "user@school.edu", "first.last+tag@sub.example.org"}
	bad := []string{"", "plain", "@missing.local", "no-at.example.com", "spaces in@addr.com", "a@b"}
	for _, e := range good {
		if !ValidEmail(e) {
			t.Errorf("ValidEmail(%q) = false, want true", e)
		}
	}
	for _, e := range bad {
		if ValidEmail(e) {
			t.Errorf("ValidEmail(%q) = true, want false", e)
		}
	}
}

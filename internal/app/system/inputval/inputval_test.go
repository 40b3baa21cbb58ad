package inputval

import (
	"errors"
	"testing"

	"github.com/dalemusser/stratasite/internal/app/system/apierr"
	"github.com/dalemusser/stratasite/internal/domain/models"
)

func TestIsValidPhone(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"9876543210", true},
		{"+1 (555) 010-0100", true},
		{"555.0100.12", true},
		{"123", false},
		{"", false},
		{"call me", false},
		{"1234567890123456", false},
	}
	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			if got := IsValidPhone(tt.phone); got != tt.want {
				t.Errorf("IsValidPhone(%q) = %v, want %v", tt.phone, got, tt.want)
			}
		})
	}
}

func TestIsValidObjectID(t *testing.T) {
	if !IsValidObjectID("64b7f0c2a1b2c3d4e5f60718") {
		t.Error("valid hex rejected")
	}
	for _, s := range []string{"", "xyz", "64b7f0c2a1b2c3d4e5f6071"} {
		if IsValidObjectID(s) {
			t.Errorf("IsValidObjectID(%q) = true", s)
		}
	}
}

func TestValidateReportsEveryField(t *testing.T) {
	in := models.ContactSubmission{
		Name:            "A",
		Email:           "not-an-email",
		Phone:           "123",
		InterestedField: "Basket weaving",
	}
	res := Validate(in)
	if !res.HasErrors() {
		t.Fatal("expected errors")
	}
	details := res.Details()
	for _, field := range []string{"name", "email", "phone", "interestedField"} {
		if details[field] == "" {
			t.Errorf("details[%q] missing; got %v", field, details)
		}
	}
	if _, ok := details["message"]; ok {
		t.Error("empty message should be accepted")
	}
	if got := details["name"]; got != "Name must be at least 2 characters." {
		t.Errorf("name message = %q", got)
	}

	var ae *apierr.Error
	if !errors.As(res.Err(), &ae) || ae.Code != apierr.CodeValidation {
		t.Errorf("Err() = %v, want VALIDATION_ERROR", res.Err())
	}
}

func TestValidatePasses(t *testing.T) {
	in := models.ContactSubmission{
		Name:            "Al",
		Email:           "a@b.com",
		Phone:           "9876543210",
		InterestedField: "Other",
	}
	if res := Validate(in); res.HasErrors() {
		t.Errorf("unexpected errors: %v", res.Details())
	}
}

func TestValidateNestedPaths(t *testing.T) {
	s := models.SiteSettings{
		SiteName: "Acme",
		Nav:      []models.NavItem{{Label: "", URL: "/x"}},
	}
	details := Validate(s).Details()
	if details["nav[0].label"] == "" {
		t.Errorf("details = %v, want nav[0].label", details)
	}
}

func TestValidateEmbeddedFieldsUseJSONNames(t *testing.T) {
	p := models.Page{Title: "About"}
	p.Status = "archived"
	details := Validate(p).Details()
	if details["status"] == "" {
		t.Errorf("details = %v, want status", details)
	}
}

func TestHumanize(t *testing.T) {
	if got := humanize("interestedField"); got != "Interested field" {
		t.Errorf("humanize = %q", got)
	}
}

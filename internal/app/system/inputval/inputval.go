// Package inputval provides input validation using go-playground/validator.
//
// Define an input struct with validate tags (and optional label tags for
// user-facing names), decode the request into it, and call Validate. Every
// failing field is reported, keyed by its JSON name, so API clients can show
// all problems at once.
//
// Example:
//
//	type contactInput struct {
//	    Name  string `json:"name" validate:"required,min=2,max=100" label:"Name"`
//	    Email string `json:"email" validate:"required,email" label:"Email"`
//	}
//
//	if res := inputval.Validate(in); res.HasErrors() {
//	    errs.Write(w, r, res.Err())
//	    return
//	}
package inputval

import (
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/dalemusser/stratasite/internal/app/system/apierr"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Result holds validation results with user-friendly messages.
type Result struct {
	Errors []FieldError
}

// FieldError represents a validation error for a single field.
type FieldError struct {
	Field   string // JSON path, e.g. "name" or "nav[0].label"
	Label   string
	Message string
}

// HasErrors returns true if there are any validation errors.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// First returns the first error message, or empty string if no errors.
func (r *Result) First() string {
	if len(r.Errors) > 0 {
		return r.Errors[0].Message
	}
	return ""
}

// Add appends an error produced outside struct tags (e.g. a lookup that
// found no matching record).
func (r *Result) Add(field, message string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Label: field, Message: message})
}

// Details returns field -> message, keeping the first message per field.
func (r *Result) Details() map[string]string {
	out := make(map[string]string, len(r.Errors))
	for _, e := range r.Errors {
		if _, ok := out[e.Field]; !ok {
			out[e.Field] = e.Message
		}
	}
	return out
}

// Err returns nil when valid, otherwise a VALIDATION_ERROR with Details.
func (r *Result) Err() error {
	if !r.HasErrors() {
		return nil
	}
	return apierr.Validation(r.Details())
}

var (
	customValidator *validator.Validate
	validatorOnce   sync.Once
)

func getValidator() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})

		// phone: digits with optional +, spaces, dashes, dots, parentheses
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return IsValidPhone(fl.Field().String())
		})

		// interest: one of models.InterestOptions
		_ = v.RegisterValidation("interest", func(fl validator.FieldLevel) bool {
			return models.IsInterestOption(fl.Field().String())
		})

		// objectid: valid MongoDB ObjectID hex string
		_ = v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
			return IsValidObjectID(fl.Field().String())
		})

		customValidator = v
	})
	return customValidator
}

// Validate validates a struct and returns every failing field.
func Validate(s any) *Result {
	result := &Result{}

	err := getValidator().Struct(s)
	if err == nil {
		return result
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		result.Add("_", "Input could not be validated.")
		return result
	}

	labels := getFieldLabels(s)
	for _, e := range verrs {
		path := fieldPath(e.Namespace())
		label := labels[e.Field()]
		if label == "" {
			label = humanize(e.Field())
		}
		result.Errors = append(result.Errors, FieldError{
			Field:   path,
			Label:   label,
			Message: formatMessage(label, e.Tag(), e.Param(), e.Kind()),
		})
	}
	return result
}

// fieldPath drops the root struct name and any Go-named segments that come
// from embedded structs. JSON names in this codebase start lower-case.
func fieldPath(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	kept := parts[:0]
	for _, p := range parts {
		if p != "" && unicode.IsUpper(rune(p[0])) {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, ".")
}

// getFieldLabels extracts the "label" tag from struct fields, keyed by JSON name.
func getFieldLabels(s any) map[string]string {
	labels := make(map[string]string)

	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return labels
	}

	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		fieldName, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if fieldName == "" || fieldName == "-" {
			fieldName = field.Name
		}
		if label := field.Tag.Get("label"); label != "" {
			labels[fieldName] = label
		}
	}
	return labels
}

// humanize turns "interestedField" into "Interested field".
func humanize(name string) string {
	var b strings.Builder
	for i, r := range name {
		if i == 0 {
			b.WriteRune(unicode.ToUpper(r))
			continue
		}
		if unicode.IsUpper(r) {
			b.WriteByte(' ')
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// formatMessage creates a user-friendly message for a validation rule.
func formatMessage(label, rule, param string, kind reflect.Kind) string {
	switch rule {
	case "required":
		return label + " is required."
	case "email":
		return "A valid email address is required."
	case "oneof":
		return label + " must be one of: " + strings.ReplaceAll(param, " ", ", ") + "."
	case "min":
		if kind == reflect.String {
			return label + " must be at least " + param + " characters."
		}
		return label + " must be at least " + param + "."
	case "max":
		if kind == reflect.String {
			return label + " must be at most " + param + " characters."
		}
		return label + " must be at most " + param + "."
	case "url", "http_url":
		return label + " must be a valid URL."
	case "phone":
		return label + " must be a valid phone number with 7 to 15 digits."
	case "interest":
		return label + " must be one of: " + strings.Join(models.InterestOptions, ", ") + "."
	case "objectid":
		return label + " is not a valid ID."
	default:
		return label + " is invalid."
	}
}

var phonePattern = regexp.MustCompile(`^\+?[0-9 ().\-]+$`)

// IsValidPhone accepts 7 to 15 digits with optional leading + and common separators.
func IsValidPhone(s string) bool {
	s = strings.TrimSpace(s)
	if !phonePattern.MatchString(s) {
		return false
	}
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 7 && digits <= 15
}

// IsValidObjectID checks if the given string is a valid MongoDB ObjectID hex.
func IsValidObjectID(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	_, err := primitive.ObjectIDFromHex(s)
	return err == nil
}

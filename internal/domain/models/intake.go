// internal/domain/models/intake.go
package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InterestOptions are the accepted values for ContactSubmission.InterestedField.
var InterestOptions = []string{
	"Web Development",
	"Mobile App Development",
	"Cloud Solutions",
	"AI & Machine Learning",
	"Digital Transformation",
	"Consulting",
	"Careers",
	"Other",
}

// IsInterestOption reports whether v is one of InterestOptions.
func IsInterestOption(v string) bool {
	for _, o := range InterestOptions {
		if o == v {
			return true
		}
	}
	return false
}

// Intake record statuses.
const (
	IntakeNew      = "new"
	IntakeRead     = "read"
	IntakeReviewed = "reviewed"
	IntakeArchived = "archived"
)

// ContactSubmission is a message sent through the contact form.
type ContactSubmission struct {
	Base `bson:",inline"`

	Name            string `bson:"name" json:"name" validate:"required,min=2,max=100"`
	Email           string `bson:"email" json:"email" validate:"required,email,max=254"`
	Phone           string `bson:"phone" json:"phone" validate:"required,phone"`
	InterestedField string `bson:"interested_field" json:"interestedField" validate:"required,interest"`
	Message         string `bson:"message,omitempty" json:"message" validate:"max=5000"`
	Status          string `bson:"status" json:"status" validate:"omitempty,oneof=new read archived"`
	IPAddress       string `bson:"ip_address,omitempty" json:"ipAddress,omitempty"`
	UserAgent       string `bson:"user_agent,omitempty" json:"userAgent,omitempty"`
}

// Resume is a job application with an uploaded CV.
type Resume struct {
	Base `bson:",inline"`

	FullName     string              `bson:"full_name" json:"fullName" validate:"required,min=2,max=100"`
	Number       string              `bson:"number" json:"number" validate:"required,phone"`
	Email        string              `bson:"email,omitempty" json:"email,omitempty" validate:"omitempty,email,max=254"`
	JobID        *primitive.ObjectID `bson:"job_id,omitempty" json:"jobId,omitempty"`
	ResumeUpload primitive.ObjectID  `bson:"resume_upload" json:"resumeUpload"`
	Status       string              `bson:"status" json:"status" validate:"omitempty,oneof=new reviewed archived"`
	IPAddress    string              `bson:"ip_address,omitempty" json:"ipAddress,omitempty"`
}

// Newsletter subscription statuses.
const (
	NewsletterSubscribed   = "subscribed"
	NewsletterUnsubscribed = "unsubscribed"
)

// ErrAlreadySubscribed is returned when an active subscriber signs up again.
var ErrAlreadySubscribed = errors.New("email is already subscribed")

// NewsletterSubscriber is one email address on the mailing list. Records are
// never deleted; unsubscribing flips Status.
type NewsletterSubscriber struct {
	Base `bson:",inline"`

	Email          string     `bson:"email" json:"email" validate:"required,email,max=254"`
	Name           string     `bson:"name,omitempty" json:"name,omitempty" validate:"max=100"`
	Source         string     `bson:"source,omitempty" json:"source,omitempty" validate:"max=100"`
	Status         string     `bson:"status" json:"status" validate:"omitempty,oneof=subscribed unsubscribed"`
	SubscribedAt   time.Time  `bson:"subscribed_at" json:"subscribedAt"`
	UnsubscribedAt *time.Time `bson:"unsubscribed_at,omitempty" json:"unsubscribedAt,omitempty"`
}

// internal/domain/models/content.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Job statuses.
const (
	JobActive = "active"
	JobClosed = "closed"
)

// Job is a careers listing.
type Job struct {
	Base `bson:",inline"`

	Title          string              `bson:"title" json:"title" validate:"required,max=200"`
	Department     string              `bson:"department,omitempty" json:"department,omitempty" validate:"max=100"`
	Location       string              `bson:"location,omitempty" json:"location,omitempty" validate:"max=100"`
	EmploymentType string              `bson:"employment_type,omitempty" json:"employmentType,omitempty" validate:"omitempty,oneof=full-time part-time contract internship"`
	Description    string              `bson:"description,omitempty" json:"description,omitempty"`
	Requirements   []string            `bson:"requirements,omitempty" json:"requirements,omitempty"`
	Status         string              `bson:"status" json:"status" validate:"required,oneof=active closed"`
	PostedDate     time.Time           `bson:"posted_date" json:"postedDate"`
	Order          int                 `bson:"order" json:"order"`
	Image          *primitive.ObjectID `bson:"image,omitempty" json:"image,omitempty"`
}

// Project is a portfolio case study.
type Project struct {
	Base       `bson:",inline"`
	Publishing `bson:",inline"`

	Title         string               `bson:"title" json:"title" validate:"required,max=200"`
	Slug          string               `bson:"slug" json:"slug"`
	Summary       string               `bson:"summary,omitempty" json:"summary,omitempty" validate:"max=1000"`
	Body          string               `bson:"body,omitempty" json:"body,omitempty"`
	Client        string               `bson:"client,omitempty" json:"client,omitempty" validate:"max=200"`
	Category      string               `bson:"category,omitempty" json:"category,omitempty" validate:"max=100"`
	FeaturedImage *primitive.ObjectID  `bson:"featured_image,omitempty" json:"featuredImage,omitempty"`
	Gallery       []primitive.ObjectID `bson:"gallery,omitempty" json:"gallery,omitempty"`
	Services      []primitive.ObjectID `bson:"services,omitempty" json:"services,omitempty"`
	Order         int                  `bson:"order" json:"order"`
}

func (p *Project) SlugFields() (string, *string, bool) { return p.Title, &p.Slug, true }

// Resource is a downloadable or readable asset (whitepaper, guide, article).
type Resource struct {
	Base       `bson:",inline"`
	Publishing `bson:",inline"`

	Title        string              `bson:"title" json:"title" validate:"required,max=200"`
	Slug         string              `bson:"slug" json:"slug"`
	Excerpt      string              `bson:"excerpt,omitempty" json:"excerpt,omitempty" validate:"max=1000"`
	Body         string              `bson:"body,omitempty" json:"body,omitempty"`
	Category     string              `bson:"category,omitempty" json:"category,omitempty" validate:"max=100"`
	ResourceType string              `bson:"resource_type,omitempty" json:"resourceType,omitempty" validate:"omitempty,oneof=article guide whitepaper case-study video"`
	CoverImage   *primitive.ObjectID `bson:"cover_image,omitempty" json:"coverImage,omitempty"`
	File         *primitive.ObjectID `bson:"file,omitempty" json:"file,omitempty"`
	Order        int                 `bson:"order" json:"order"`
}

func (r *Resource) SlugFields() (string, *string, bool) { return r.Title, &r.Slug, true }

// Service is an offering shown on the services pages.
type Service struct {
	Base `bson:",inline"`

	Title       string              `bson:"title" json:"title" validate:"required,max=200"`
	Slug        string              `bson:"slug" json:"slug"`
	Summary     string              `bson:"summary,omitempty" json:"summary,omitempty" validate:"max=1000"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	Icon        *primitive.ObjectID `bson:"icon,omitempty" json:"icon,omitempty"`
	Image       *primitive.ObjectID `bson:"image,omitempty" json:"image,omitempty"`
	Active      bool                `bson:"active" json:"active"`
	Order       int                 `bson:"order" json:"order"`
}

func (s *Service) SlugFields() (string, *string, bool) { return s.Title, &s.Slug, false }

type Partner struct {
	Base `bson:",inline"`

	Name    string              `bson:"name" json:"name" validate:"required,max=200"`
	Logo    *primitive.ObjectID `bson:"logo,omitempty" json:"logo,omitempty"`
	Website string              `bson:"website,omitempty" json:"website,omitempty" validate:"omitempty,url"`
	Active  bool                `bson:"active" json:"active"`
	Order   int                 `bson:"order" json:"order"`
}

type Testimonial struct {
	Base `bson:",inline"`

	Author  string              `bson:"author" json:"author" validate:"required,max=200"`
	Role    string              `bson:"role,omitempty" json:"role,omitempty" validate:"max=200"`
	Company string              `bson:"company,omitempty" json:"company,omitempty" validate:"max=200"`
	Quote   string              `bson:"quote" json:"quote" validate:"required,max=2000"`
	Avatar  *primitive.ObjectID `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Rating  int                 `bson:"rating,omitempty" json:"rating,omitempty" validate:"min=0,max=5"`
	Active  bool                `bson:"active" json:"active"`
	Order   int                 `bson:"order" json:"order"`
}

type Award struct {
	Base `bson:",inline"`

	Title       string              `bson:"title" json:"title" validate:"required,max=200"`
	Issuer      string              `bson:"issuer,omitempty" json:"issuer,omitempty" validate:"max=200"`
	Year        int                 `bson:"year,omitempty" json:"year,omitempty" validate:"omitempty,min=1900,max=2200"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	Image       *primitive.ObjectID `bson:"image,omitempty" json:"image,omitempty"`
	Active      bool                `bson:"active" json:"active"`
	Order       int                 `bson:"order" json:"order"`
}

// Solution groups services into an industry or problem offering.
type Solution struct {
	Base `bson:",inline"`

	Title       string               `bson:"title" json:"title" validate:"required,max=200"`
	Slug        string               `bson:"slug" json:"slug"`
	Summary     string               `bson:"summary,omitempty" json:"summary,omitempty" validate:"max=1000"`
	Description string               `bson:"description,omitempty" json:"description,omitempty"`
	Icon        *primitive.ObjectID  `bson:"icon,omitempty" json:"icon,omitempty"`
	Image       *primitive.ObjectID  `bson:"image,omitempty" json:"image,omitempty"`
	Services    []primitive.ObjectID `bson:"services,omitempty" json:"services,omitempty"`
	Active      bool                 `bson:"active" json:"active"`
	Order       int                  `bson:"order" json:"order"`
}

func (s *Solution) SlugFields() (string, *string, bool) { return s.Title, &s.Slug, false }

// Stat is a headline number ("250+ projects delivered").
type Stat struct {
	Base `bson:",inline"`

	Label  string              `bson:"label" json:"label" validate:"required,max=100"`
	Value  string              `bson:"value" json:"value" validate:"required,max=50"`
	Suffix string              `bson:"suffix,omitempty" json:"suffix,omitempty" validate:"max=20"`
	Icon   *primitive.ObjectID `bson:"icon,omitempty" json:"icon,omitempty"`
	Active bool                `bson:"active" json:"active"`
	Order  int                 `bson:"order" json:"order"`
}

// TimelineEntry is one milestone in the company history.
type TimelineEntry struct {
	Base `bson:",inline"`

	Year        string              `bson:"year" json:"year" validate:"required,max=20"`
	Title       string              `bson:"title" json:"title" validate:"required,max=200"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	Image       *primitive.ObjectID `bson:"image,omitempty" json:"image,omitempty"`
	Active      bool                `bson:"active" json:"active"`
	Order       int                 `bson:"order" json:"order"`
}

// PopularSearch is a suggested search term shown in the site search box.
type PopularSearch struct {
	Base `bson:",inline"`

	Term   string `bson:"term" json:"term" validate:"required,max=100"`
	URL    string `bson:"url,omitempty" json:"url,omitempty" validate:"max=500"`
	Active bool   `bson:"active" json:"active"`
	Order  int    `bson:"order" json:"order"`
}

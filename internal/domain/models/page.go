// internal/domain/models/page.go
package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Page is a routable site page built from an ordered list of sections.
type Page struct {
	Base       `bson:",inline"`
	Publishing `bson:",inline"`

	Title    string   `bson:"title" json:"title" validate:"required,max=200"`
	Slug     string   `bson:"slug" json:"slug" validate:"omitempty,max=200"`
	Sections Sections `bson:"sections" json:"sections"`
	SEO      SEO      `bson:"seo" json:"seo"`
}

// SEO holds per-document search metadata.
type SEO struct {
	MetaTitle       string              `bson:"meta_title,omitempty" json:"metaTitle,omitempty" validate:"max=200"`
	MetaDescription string              `bson:"meta_description,omitempty" json:"metaDescription,omitempty" validate:"max=500"`
	OGImage         *primitive.ObjectID `bson:"og_image,omitempty" json:"ogImage,omitempty"`
	NoIndex         bool                `bson:"no_index,omitempty" json:"noIndex,omitempty"`
}

func (p *Page) SlugFields() (string, *string, bool) { return p.Title, &p.Slug, false }

// Seeded page slugs.
const (
	PageSlugHome    = "home"
	PageSlugAbout   = "about"
	PageSlugContact = "contact"
	PageSlugCareers = "careers"
)

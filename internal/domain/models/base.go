// internal/domain/models/base.go
package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Base carries the identity and audit timestamps shared by every stored document.
// It is embedded inline so the fields sit at the top level in both BSON and JSON.
type Base struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Meta returns the embedded Base so generic stores can stamp IDs and times.
func (b *Base) Meta() *Base { return b }

// Document is implemented by every collection entity through its embedded Base.
type Document interface {
	Meta() *Base
}

// Stamp assigns an ID on first save and refreshes UpdatedAt.
// CreatedAt is only set when it is still zero.
func Stamp(d Document, now time.Time) {
	m := d.Meta()
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
}

// PublishStatus is the draft/published lifecycle used by Page, Project, and Resource.
type PublishStatus string

const (
	StatusDraft     PublishStatus = "draft"
	StatusPublished PublishStatus = "published"
)

// ErrUnpublish is returned when a save tries to move a published document back to draft.
var ErrUnpublish = errors.New("a published document cannot move back to draft")

// Publishing is embedded by documents with a draft/published lifecycle.
type Publishing struct {
	Status      PublishStatus `bson:"status" json:"status" validate:"omitempty,oneof=draft published"`
	PublishedAt *time.Time    `bson:"published_at,omitempty" json:"publishedAt,omitempty"`
}

// PublishState exposes the embedded Publishing block.
func (p *Publishing) PublishState() *Publishing { return p }

// Publishable is implemented by documents embedding Publishing.
type Publishable interface {
	PublishState() *Publishing
}

// Transition applies the status rules for a save. prev is the stored state
// (nil on create). PublishedAt is stamped the first time the document becomes
// published and is carried forward unchanged on every later save.
func (p *Publishing) Transition(prev *Publishing, now time.Time) error {
	if p.Status == "" {
		p.Status = StatusDraft
		if prev != nil && prev.Status != "" {
			p.Status = prev.Status
		}
	}
	if prev != nil && prev.Status == StatusPublished && p.Status == StatusDraft {
		return ErrUnpublish
	}

	switch {
	case prev != nil && prev.PublishedAt != nil:
		p.PublishedAt = prev.PublishedAt
	case prev != nil:
		// stored document never published; ignore a client supplied date
		p.PublishedAt = nil
	}
	if p.Status == StatusPublished && p.PublishedAt == nil {
		t := now
		p.PublishedAt = &t
	}
	if p.Status != StatusPublished && prev == nil {
		p.PublishedAt = nil
	}
	return nil
}

// Sluggable is implemented by documents that carry a URL slug.
// auto reports whether the slug is always re-derived when the title changes
// (Project, Resource) or only filled in when blank (Page, Service, Solution).
type Sluggable interface {
	SlugFields() (title string, slug *string, auto bool)
}

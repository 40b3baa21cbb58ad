// internal/domain/models/sitesettings.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SiteSettingsID is the fixed _id of the one settings document.
const SiteSettingsID = "site"

// SiteSettings holds site-wide configuration edited by admins.
type SiteSettings struct {
	ID string `bson:"_id" json:"id"`

	SiteName  string              `bson:"site_name" json:"siteName" validate:"required,max=100"`
	Tagline   string              `bson:"tagline,omitempty" json:"tagline,omitempty" validate:"max=200"`
	Logo      *primitive.ObjectID `bson:"logo,omitempty" json:"logo,omitempty"`
	Favicon   *primitive.ObjectID `bson:"favicon,omitempty" json:"favicon,omitempty"`
	Nav       []NavItem           `bson:"nav" json:"nav" validate:"dive"`
	Footer    Footer              `bson:"footer" json:"footer"`
	Contact   ContactInfo         `bson:"contact" json:"contact"`
	SEO       SEO                 `bson:"seo" json:"seo"`
	Analytics Analytics           `bson:"analytics" json:"analytics"`

	UpdatedAt     *time.Time `bson:"updated_at,omitempty" json:"updatedAt,omitempty"`
	UpdatedByName string     `bson:"updated_by_name,omitempty" json:"updatedByName,omitempty"`
}

type NavItem struct {
	Label    string    `bson:"label" json:"label" validate:"required,max=100"`
	URL      string    `bson:"url" json:"url" validate:"required,max=500"`
	Children []NavItem `bson:"children,omitempty" json:"children,omitempty" validate:"dive"`
}

type Footer struct {
	About     string         `bson:"about,omitempty" json:"about,omitempty"`
	Columns   []FooterColumn `bson:"columns,omitempty" json:"columns,omitempty"`
	Socials   []SocialLink   `bson:"socials,omitempty" json:"socials,omitempty"`
	Copyright string         `bson:"copyright,omitempty" json:"copyright,omitempty"`
}

type FooterColumn struct {
	Heading string    `bson:"heading" json:"heading"`
	Links   []NavItem `bson:"links,omitempty" json:"links,omitempty"`
}

type SocialLink struct {
	Platform string  `bson:"platform" json:"platform"`
	URL      string  `bson:"url" json:"url"`
	Icon     IconRef `bson:"icon" json:"icon"`
}

type ContactInfo struct {
	Email       string `bson:"email,omitempty" json:"email,omitempty" validate:"omitempty,email"`
	Phone       string `bson:"phone,omitempty" json:"phone,omitempty"`
	Address     string `bson:"address,omitempty" json:"address,omitempty"`
	NotifyEmail string `bson:"notify_email,omitempty" json:"notifyEmail,omitempty" validate:"omitempty,email"`
	HREmail     string `bson:"hr_email,omitempty" json:"hrEmail,omitempty" validate:"omitempty,email"`
}

type Analytics struct {
	GoogleTagID     string `bson:"google_tag_id,omitempty" json:"googleTagId,omitempty"`
	PlausibleDomain string `bson:"plausible_domain,omitempty" json:"plausibleDomain,omitempty"`
}

// DefaultSiteSettings is inserted the first time settings are read.
func DefaultSiteSettings() SiteSettings {
	return SiteSettings{
		ID:       SiteSettingsID,
		SiteName: "Strata",
		Nav: []NavItem{
			{Label: "Services", URL: "/services"},
			{Label: "Projects", URL: "/projects"},
			{Label: "Resources", URL: "/resources"},
			{Label: "Careers", URL: "/careers"},
			{Label: "Contact", URL: "/contact"},
		},
		Footer: Footer{Copyright: "All rights reserved."},
	}
}

// IconRef is a social icon. It points at a Media record or, for values
// entered as free text, holds a literal URL. Exactly one side is set.
type IconRef struct {
	MediaID *primitive.ObjectID
	URL     string
}

// ParseIconRef treats a 24-char hex string as a media ID and anything else
// as a literal URL.
func ParseIconRef(s string) IconRef {
	if s == "" {
		return IconRef{}
	}
	if oid, err := primitive.ObjectIDFromHex(s); err == nil {
		return IconRef{MediaID: &oid}
	}
	return IconRef{URL: s}
}

// IsZero reports whether neither side is set.
func (r IconRef) IsZero() bool { return r.MediaID == nil && r.URL == "" }

func (r IconRef) MarshalBSONValue() (bsontype.Type, []byte, error) {
	switch {
	case r.MediaID != nil:
		return bson.MarshalValue(*r.MediaID)
	case r.URL != "":
		return bson.MarshalValue(r.URL)
	default:
		return bsontype.Null, nil, nil
	}
}

func (r *IconRef) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.ObjectID:
		oid := rv.ObjectID()
		*r = IconRef{MediaID: &oid}
	case bsontype.String:
		*r = ParseIconRef(rv.StringValue())
	case bsontype.Null, bsontype.Undefined:
		*r = IconRef{}
	default:
		return fmt.Errorf("icon: unsupported BSON type %s", t)
	}
	return nil
}

type iconJSON struct {
	MediaID string `json:"mediaId,omitempty"`
	URL     string `json:"url,omitempty"`
}

func (r IconRef) MarshalJSON() ([]byte, error) {
	if r.IsZero() {
		return []byte("null"), nil
	}
	out := iconJSON{URL: r.URL}
	if r.MediaID != nil {
		out.MediaID = r.MediaID.Hex()
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts either a bare string or {"mediaId", "url"}.
func (r *IconRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = IconRef{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = ParseIconRef(s)
		return nil
	}
	var in iconJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.MediaID != "" {
		oid, err := primitive.ObjectIDFromHex(in.MediaID)
		if err != nil {
			return fmt.Errorf("icon mediaId: %w", err)
		}
		*r = IconRef{MediaID: &oid}
		return nil
	}
	*r = IconRef{URL: in.URL}
	return nil
}

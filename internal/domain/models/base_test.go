package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPublishingTransition(t *testing.T) {
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(48 * time.Hour)

	// create as draft
	p := Publishing{}
	if err := p.Transition(nil, t1); err != nil {
		t.Fatal(err)
	}
	if p.Status != StatusDraft || p.PublishedAt != nil {
		t.Errorf("new draft = %+v", p)
	}

	// publish
	prev := p
	p.Status = StatusPublished
	if err := p.Transition(&prev, t1); err != nil {
		t.Fatal(err)
	}
	if p.PublishedAt == nil || !p.PublishedAt.Equal(t1) {
		t.Fatalf("publishedAt = %v, want %v", p.PublishedAt, t1)
	}

	// a later save cannot move or clear publishedAt
	prev = p
	next := Publishing{Status: StatusPublished, PublishedAt: &t2}
	if err := next.Transition(&prev, t2); err != nil {
		t.Fatal(err)
	}
	if !next.PublishedAt.Equal(t1) {
		t.Errorf("publishedAt overwritten: %v", next.PublishedAt)
	}
	cleared := Publishing{Status: StatusPublished}
	if err := cleared.Transition(&prev, t2); err != nil {
		t.Fatal(err)
	}
	if cleared.PublishedAt == nil || !cleared.PublishedAt.Equal(t1) {
		t.Errorf("publishedAt cleared: %v", cleared.PublishedAt)
	}

	// empty status keeps the stored one
	keep := Publishing{}
	if err := keep.Transition(&prev, t2); err != nil {
		t.Fatal(err)
	}
	if keep.Status != StatusPublished {
		t.Errorf("status = %q, want published", keep.Status)
	}

	// no going back
	back := Publishing{Status: StatusDraft}
	if err := back.Transition(&prev, t2); !errors.Is(err, ErrUnpublish) {
		t.Errorf("err = %v, want ErrUnpublish", err)
	}
}

func TestStamp(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	j := &Job{}
	Stamp(j, now)
	if j.ID.IsZero() || !j.CreatedAt.Equal(now) || !j.UpdatedAt.Equal(now) {
		t.Fatalf("stamp = %+v", j.Base)
	}
	id := j.ID
	later := now.Add(time.Hour)
	Stamp(j, later)
	if j.ID != id || !j.CreatedAt.Equal(now) || !j.UpdatedAt.Equal(later) {
		t.Errorf("restamp = %+v", j.Base)
	}
}

func TestIconRefDecoding(t *testing.T) {
	oid := primitive.NewObjectID()
	tests := []struct {
		name      string
		stored    any
		wantMedia bool
		wantURL   string
	}{
		{"object id", oid, true, ""},
		{"hex string", oid.Hex(), true, ""},
		{"literal url", "https://cdn.example.com/x.svg", false, "https://cdn.example.com/x.svg"},
		{"icon name", "linkedin", false, "linkedin"},
		{"null", nil, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, _ := bson.Marshal(bson.M{"platform": "x", "icon": tt.stored})
			var s SocialLink
			if err := bson.Unmarshal(raw, &s); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if (s.Icon.MediaID != nil) != tt.wantMedia {
				t.Errorf("MediaID = %v, wantMedia %v", s.Icon.MediaID, tt.wantMedia)
			}
			if tt.wantMedia && *s.Icon.MediaID != oid {
				t.Errorf("MediaID = %v, want %v", s.Icon.MediaID, oid)
			}
			if s.Icon.URL != tt.wantURL {
				t.Errorf("URL = %q, want %q", s.Icon.URL, tt.wantURL)
			}
		})
	}
}

func TestIconRefEncodesMediaAsObjectID(t *testing.T) {
	oid := primitive.NewObjectID()
	raw, err := bson.Marshal(SocialLink{Platform: "x", Icon: IconRef{MediaID: &oid}})
	if err != nil {
		t.Fatal(err)
	}
	if got := bson.Raw(raw).Lookup("icon").Type; got != bsontype.ObjectID {
		t.Errorf("icon stored as %s, want objectID", got)
	}

	var r IconRef
	if err := json.Unmarshal([]byte(`{"mediaId":"`+oid.Hex()+`"}`), &r); err != nil {
		t.Fatal(err)
	}
	if r.MediaID == nil || *r.MediaID != oid {
		t.Errorf("json object form = %+v", r)
	}
	if err := json.Unmarshal([]byte(`"https://x.test/i.png"`), &r); err != nil {
		t.Fatal(err)
	}
	if r.URL != "https://x.test/i.png" || r.MediaID != nil {
		t.Errorf("json string form = %+v", r)
	}
}

package storeutil

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		limit, page         int64
		wantLimit, wantPage int64
	}{
		{0, 0, DefaultLimit, 1},
		{500, 2, MaxLimit, 2},
		{25, -3, 25, 1},
	}
	for _, tt := range tests {
		l, p := Clamp(tt.limit, tt.page)
		if l != tt.wantLimit || p != tt.wantPage {
			t.Errorf("Clamp(%d, %d) = (%d, %d), want (%d, %d)", tt.limit, tt.page, l, p, tt.wantLimit, tt.wantPage)
		}
	}
}

func TestPaginate(t *testing.T) {
	opts := Paginate(10, 3)
	if *opts.Limit != 10 || *opts.Skip != 20 {
		t.Errorf("Paginate(10, 3) limit=%d skip=%d, want 10/20", *opts.Limit, *opts.Skip)
	}
}

func TestNewPageInfo(t *testing.T) {
	tests := []struct {
		name               string
		total, limit, page int64
		wantPages          int64
		wantNext, wantPrev bool
	}{
		{"empty", 0, 10, 1, 0, false, false},
		{"exact", 20, 10, 1, 2, true, false},
		{"partial last", 21, 10, 3, 3, false, true},
		{"beyond end", 5, 10, 4, 1, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewPageInfo(tt.total, tt.limit, tt.page)
			if got.TotalPages != tt.wantPages {
				t.Errorf("TotalPages = %d, want %d", got.TotalPages, tt.wantPages)
			}
			if got.HasNextPage != tt.wantNext || got.HasPrevPage != tt.wantPrev {
				t.Errorf("next/prev = %v/%v, want %v/%v", got.HasNextPage, got.HasPrevPage, tt.wantNext, tt.wantPrev)
			}
			if got.TotalDocs != tt.total {
				t.Errorf("TotalDocs = %d, want %d", got.TotalDocs, tt.total)
			}
		})
	}
}

func TestPlain(t *testing.T) {
	id := primitive.NewObjectID()
	in := bson.M{
		"_id": id,
		"seo": bson.D{{Key: "meta_title", Value: "x"}},
		"sections": bson.A{
			bson.M{"block_type": "heroSection"},
			bson.D{{Key: "block_type", Value: "faqSection"}},
		},
	}
	out := PlainDoc(in)

	if out["_id"] != id {
		t.Errorf("_id = %v, want %v", out["_id"], id)
	}
	seo, ok := out["seo"].(map[string]any)
	if !ok || seo["meta_title"] != "x" {
		t.Errorf("seo = %#v", out["seo"])
	}
	secs, ok := out["sections"].([]any)
	if !ok || len(secs) != 2 {
		t.Fatalf("sections = %#v", out["sections"])
	}
	for i, s := range secs {
		if _, ok := s.(map[string]any); !ok {
			t.Errorf("sections[%d] is %T, want map[string]any", i, s)
		}
	}
	if ids := ObjectIDs([]map[string]any{out}); len(ids) != 1 || ids[0] != id {
		t.Errorf("ObjectIDs = %v", ids)
	}
}

func TestPlainDateTime(t *testing.T) {
	when := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	out := PlainDoc(bson.M{"posted_date": primitive.NewDateTimeFromTime(when)})
	got, ok := out["posted_date"].(time.Time)
	if !ok {
		t.Fatalf("posted_date is %T, want time.Time", out["posted_date"])
	}
	if !got.Equal(when) {
		t.Errorf("posted_date = %v, want %v", got, when)
	}
}

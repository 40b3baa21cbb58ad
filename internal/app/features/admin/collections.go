package admin

import (
	"net/http"

	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"github.com/dalemusser/stratasite/internal/app/system/sectioncheck"
	"github.com/dalemusser/stratasite/internal/domain/schema"
)

// FieldMeta describes one field to the admin UI.
type FieldMeta struct {
	Name     string      `json:"name"`
	Kind     string      `json:"kind"`
	Target   string      `json:"target,omitempty"`
	Required bool        `json:"required,omitempty"`
	Enum     []string    `json:"enum,omitempty"`
	Fields   []FieldMeta `json:"fields,omitempty"`
}

// CollectionMeta describes one collection to the admin UI.
type CollectionMeta struct {
	Name        string      `json:"name"`
	Label       string      `json:"label"`
	Type        string      `json:"type"`
	HasSlug     bool        `json:"hasSlug"`
	Public      bool        `json:"public"`
	DefaultSort string      `json:"defaultSort,omitempty"`
	Fields      []FieldMeta `json:"fields"`
	List        []string    `json:"listFields"`
	Filter      []string    `json:"filterFields"`
	Hidden      []string    `json:"hiddenFields,omitempty"`
	Actions     []string    `json:"actions,omitempty"`
}

// BlockMeta describes one section variant, including its JSON schema.
type BlockMeta struct {
	BlockType string         `json:"blockType"`
	Label     string         `json:"label"`
	Fields    []FieldMeta    `json:"fields"`
	Schema    map[string]any `json:"schema"`
}

// Metadata is the GET /collections response.
type Metadata struct {
	Collections []CollectionMeta `json:"collections"`
	Blocks      []BlockMeta      `json:"blocks"`
	Settings    []FieldMeta      `json:"settings"`
}

var kindNames = map[schema.Kind]string{
	schema.KindID:         "id",
	schema.KindString:     "string",
	schema.KindText:       "text",
	schema.KindInt:        "int",
	schema.KindFloat:      "float",
	schema.KindBool:       "bool",
	schema.KindTime:       "datetime",
	schema.KindStringList: "stringList",
	schema.KindRef:        "ref",
	schema.KindRefList:    "refList",
	schema.KindObject:     "object",
	schema.KindObjectList: "objectList",
	schema.KindSections:   "sections",
	schema.KindIcon:       "icon",
}

func fieldMeta(fields []schema.Field) []FieldMeta {
	out := make([]FieldMeta, 0, len(fields))
	for _, f := range fields {
		out = append(out, FieldMeta{
			Name:     f.Name,
			Kind:     kindNames[f.Kind],
			Target:   f.Target,
			Required: f.Required,
			Enum:     f.Enum,
			Fields:   fieldMeta(f.Fields),
		})
	}
	return out
}

// BuildMetadata derives the admin metadata from the registry.
func BuildMetadata() Metadata {
	md := Metadata{
		Collections: make([]CollectionMeta, 0, len(schema.Collections)),
		Blocks:      make([]BlockMeta, 0, len(schema.Blocks)),
		Settings:    fieldMeta(schema.Settings.Fields),
	}
	for _, c := range schema.Collections {
		md.Collections = append(md.Collections, CollectionMeta{
			Name:        c.Name,
			Label:       c.Label,
			Type:        c.Type,
			HasSlug:     c.HasSlug,
			Public:      c.Public,
			DefaultSort: c.DefaultSort,
			Fields:      fieldMeta(c.Fields),
			List:        c.Admin.List,
			Filter:      c.Admin.Filter,
			Hidden:      c.Admin.Hidden,
			Actions:     c.Actions,
		})
	}
	for i := range schema.Blocks {
		b := &schema.Blocks[i]
		md.Blocks = append(md.Blocks, BlockMeta{
			BlockType: string(b.Type),
			Label:     b.Label,
			Fields:    fieldMeta(b.Fields),
			Schema:    sectioncheck.BlockSchema(b),
		})
	}
	return md
}

// Collections handles GET /admin/api/collections.
func (h *Handler) Collections(w http.ResponseWriter, r *http.Request) {
	jsonutil.OK(w, BuildMetadata())
}

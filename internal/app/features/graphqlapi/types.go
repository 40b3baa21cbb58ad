package graphqlapi

import (
	"strconv"

	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/stratasite/internal/domain/schema"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
)

// JSON carries arbitrary values, used for the raw fields of unmapped sections.
var JSON = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "JSON",
	Description: "Arbitrary JSON value.",
	Serialize:   func(v interface{}) interface{} { return v },
	ParseValue:  func(v interface{}) interface{} { return v },
	ParseLiteral: func(v ast.Value) interface{} {
		return literal(v)
	},
})

// FilterValue is the operand of equals and in: a string, number, or boolean,
// coerced to the field's stored type by the query layer.
var FilterValue = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "FilterValue",
	Description: "String, number or boolean filter operand.",
	Serialize:   func(v interface{}) interface{} { return v },
	ParseValue:  func(v interface{}) interface{} { return v },
	ParseLiteral: func(v ast.Value) interface{} {
		switch v.(type) {
		case *ast.StringValue, *ast.IntValue, *ast.FloatValue, *ast.BooleanValue:
			return literal(v)
		}
		return nil
	},
})

func literal(v ast.Value) interface{} {
	switch t := v.(type) {
	case *ast.StringValue:
		return t.Value
	case *ast.EnumValue:
		return t.Value
	case *ast.BooleanValue:
		return t.Value
	case *ast.IntValue:
		if n, err := strconv.ParseInt(t.Value, 10, 64); err == nil {
			return n
		}
		return nil
	case *ast.FloatValue:
		if f, err := strconv.ParseFloat(t.Value, 64); err == nil {
			return f
		}
		return nil
	case *ast.ListValue:
		out := make([]interface{}, 0, len(t.Values))
		for _, x := range t.Values {
			out = append(out, literal(x))
		}
		return out
	case *ast.ObjectValue:
		out := make(map[string]interface{}, len(t.Fields))
		for _, f := range t.Fields {
			out[f.Name.Value] = literal(f.Value)
		}
		return out
	}
	return nil
}

// fieldFilter is the operator set accepted for every filterable field.
var fieldFilter = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "FieldFilter",
	Fields: graphql.InputObjectConfigFieldMap{
		"equals":   &graphql.InputObjectFieldConfig{Type: FilterValue},
		"contains": &graphql.InputObjectFieldConfig{Type: graphql.String},
		"in":       &graphql.InputObjectFieldConfig{Type: graphql.NewList(FilterValue)},
	},
})

// builder turns the schema registry into GraphQL types. Every named type is
// created once and shared, since graphql-go rejects duplicate names.
type builder struct {
	objects map[string]*graphql.Object
	lists   map[string]*graphql.Object
	section *graphql.Union
	icon    *graphql.Object
}

func newBuilder() *builder {
	b := &builder{
		objects: map[string]*graphql.Object{},
		lists:   map[string]*graphql.Object{},
	}
	b.section = b.sectionUnion()
	return b
}

// collection returns the object type for a collection name.
func (b *builder) collection(name string) *graphql.Object {
	if name == schema.SiteSettings {
		return b.object(schema.Settings.Type, schema.Settings.Fields)
	}
	c, ok := schema.Lookup(name)
	if !ok {
		return nil
	}
	return b.object(c.Type, c.Fields)
}

// object returns the named object type, building its fields lazily so that
// mutually referencing collections resolve.
func (b *builder) object(name string, fields []schema.Field) *graphql.Object {
	if o, ok := b.objects[name]; ok {
		return o
	}
	o := graphql.NewObject(graphql.ObjectConfig{
		Name: name,
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return b.fields(fields)
		}),
	})
	b.objects[name] = o
	return o
}

func (b *builder) fields(fields []schema.Field) graphql.Fields {
	out := graphql.Fields{}
	for _, f := range fields {
		if t := b.output(f); t != nil {
			out[f.Name] = &graphql.Field{Type: t}
		}
	}
	return out
}

func (b *builder) output(f schema.Field) graphql.Output {
	switch f.Kind {
	case schema.KindID:
		return graphql.ID
	case schema.KindString, schema.KindText:
		return graphql.String
	case schema.KindInt:
		return graphql.Int
	case schema.KindFloat:
		return graphql.Float
	case schema.KindBool:
		return graphql.Boolean
	case schema.KindTime:
		return graphql.DateTime
	case schema.KindStringList:
		return graphql.NewList(graphql.String)
	case schema.KindRef:
		if o := b.collection(f.Target); o != nil {
			return o
		}
	case schema.KindRefList:
		if o := b.collection(f.Target); o != nil {
			return graphql.NewList(o)
		}
	case schema.KindObject:
		return b.object(f.Object, f.Fields)
	case schema.KindObjectList:
		return graphql.NewList(b.object(f.Object, f.Fields))
	case schema.KindSections:
		return graphql.NewList(b.section)
	case schema.KindIcon:
		return b.iconRef()
	}
	return nil
}

// iconRef is a media reference or a literal URL.
func (b *builder) iconRef() *graphql.Object {
	if b.icon != nil {
		return b.icon
	}
	media := b.collection(schema.Media)
	b.icon = graphql.NewObject(graphql.ObjectConfig{
		Name: "IconRef",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"url":     &graphql.Field{Type: graphql.String},
				"mediaId": &graphql.Field{Type: graphql.ID},
				"media":   &graphql.Field{Type: media},
			}
		}),
	})
	return b.icon
}

func sectionHeader() []schema.Field {
	return []schema.Field{
		{Name: "blockType", Key: "block_type", Kind: schema.KindString},
		{Name: "id", Key: "id", Kind: schema.KindString},
		{Name: "blockName", Key: "block_name", Kind: schema.KindString},
	}
}

// sectionUnion declares one member per block type plus the generic
// fallback for tags the registry does not know.
func (b *builder) sectionUnion() *graphql.Union {
	members := make([]*graphql.Object, 0, len(schema.Blocks)+1)
	byType := make(map[models.BlockType]*graphql.Object, len(schema.Blocks))
	for _, blk := range schema.Blocks {
		o := b.object(blk.Object, append(sectionHeader(), blk.Fields...))
		members = append(members, o)
		byType[blk.Type] = o
	}

	generic := graphql.NewObject(graphql.ObjectConfig{
		Name: schema.GenericObject,
		Fields: graphql.Fields{
			"blockType": &graphql.Field{Type: graphql.String},
			"id":        &graphql.Field{Type: graphql.String},
			"blockName": &graphql.Field{Type: graphql.String},
			"fields":    &graphql.Field{Type: JSON},
		},
	})
	b.objects[schema.GenericObject] = generic
	members = append(members, generic)

	return graphql.NewUnion(graphql.UnionConfig{
		Name:  "Section",
		Types: members,
		ResolveType: func(p graphql.ResolveTypeParams) *graphql.Object {
			m, _ := p.Value.(map[string]interface{})
			tag, _ := m["blockType"].(string)
			if bt, ok := models.ResolveBlockType(tag); ok {
				if o, ok := byType[bt]; ok {
					if _, raw := m["fields"]; !raw {
						return o
					}
				}
			}
			return generic
		},
	})
}

// list returns the paginated envelope type for a collection.
func (b *builder) list(c *schema.Collection) *graphql.Object {
	name := c.Type + "List"
	if o, ok := b.lists[name]; ok {
		return o
	}
	o := graphql.NewObject(graphql.ObjectConfig{
		Name: name,
		Fields: graphql.Fields{
			"docs":        &graphql.Field{Type: graphql.NewList(b.collection(c.Name))},
			"totalDocs":   &graphql.Field{Type: graphql.Int},
			"limit":       &graphql.Field{Type: graphql.Int},
			"page":        &graphql.Field{Type: graphql.Int},
			"totalPages":  &graphql.Field{Type: graphql.Int},
			"hasNextPage": &graphql.Field{Type: graphql.Boolean},
			"hasPrevPage": &graphql.Field{Type: graphql.Boolean},
		},
	})
	b.lists[name] = o
	return o
}

// where returns the filter input for a collection: one FieldFilter per
// filterable field.
func (b *builder) where(c *schema.Collection) *graphql.InputObject {
	fields := graphql.InputObjectConfigFieldMap{}
	for _, f := range c.Fields {
		switch {
		case f.Kind.Scalar(), f.Kind == schema.KindStringList, f.Kind == schema.KindRefList:
			fields[f.Name] = &graphql.InputObjectFieldConfig{Type: fieldFilter}
		}
	}
	return graphql.NewInputObject(graphql.InputObjectConfig{
		Name:   c.Type + "Where",
		Fields: fields,
	})
}

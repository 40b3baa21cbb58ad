// Package schema describes every content collection and section block type
// declaratively: field names on the wire, storage keys, field kinds, and
// reference targets. The GraphQL schema, query filters, reference expansion,
// advisory section checks, and the admin binding are all derived from it.
package schema

import (
	"sort"
	"strings"

	"github.com/dalemusser/stratasite/internal/domain/models"
)

// Kind classifies a field.
type Kind int

const (
	KindID Kind = iota
	KindString
	KindText // long text or sanitized HTML
	KindInt
	KindFloat
	KindBool
	KindTime
	KindStringList
	KindRef
	KindRefList
	KindObject
	KindObjectList
	KindSections
	KindIcon // media reference or literal URL
)

// Scalar reports whether values of k can be filtered with equals/in.
func (k Kind) Scalar() bool {
	switch k {
	case KindID, KindString, KindText, KindInt, KindFloat, KindBool, KindTime, KindRef:
		return true
	}
	return false
}

// Field is one declared field.
type Field struct {
	Name     string // wire name (GraphQL, JSON)
	Key      string // storage key
	Kind     Kind
	Target   string   // collection for KindRef/KindRefList/KindIcon
	Fields   []Field  // members for KindObject/KindObjectList
	Enum     []string // allowed values, advisory
	Required bool
	Object   string // GraphQL type name for KindObject/KindObjectList
}

// Views selects which fields an admin screen shows.
type Views struct {
	List   []string
	Filter []string
	Hidden []string // never shown or editable in the admin (e.g. ip addresses on edit)
}

// Collection describes one stored collection.
type Collection struct {
	Name        string // MongoDB collection
	Type        string // GraphQL object type
	Plural      string // GraphQL list query field
	Label       string
	Public      bool   // exposed on the public GraphQL API
	HasSlug     bool   // get-by-slug supported
	DefaultSort string // wire field, "-" prefix for descending
	Fields      []Field
	Admin       Views
	Actions     []string // custom admin actions
}

// Field looks up a top-level field by wire name.
func (c *Collection) Field(name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Block describes one section variant.
type Block struct {
	Type   models.BlockType
	Object string // GraphQL object type
	Label  string
	Fields []Field
}

// RefPath is one declared reference location inside a document.
// Segments are storage keys; arrays met along the way are walked element by
// element. When Block is set, the first segment is the sections array and only
// elements whose block_type equals Block are visited.
type RefPath struct {
	Segments []string
	Target   string
	List     bool
	Icon     bool
	Block    models.BlockType
}

// String renders the path with storage keys, e.g. "sections[heroSection].background_image".
func (p RefPath) String() string {
	if p.Block == "" {
		return strings.Join(p.Segments, ".")
	}
	return p.Segments[0] + "[" + string(p.Block) + "]." + strings.Join(p.Segments[1:], ".")
}

// RefPaths derives every reference path a collection declares, including the
// per-block-type paths under its sections field.
func (c *Collection) RefPaths() []RefPath {
	var out []RefPath
	for _, f := range c.Fields {
		if f.Kind == KindSections {
			for _, b := range Blocks {
				for _, p := range refPaths(b.Fields, nil) {
					p.Segments = append([]string{f.Key}, p.Segments...)
					p.Block = b.Type
					out = append(out, p)
				}
			}
			continue
		}
		out = append(out, refPaths([]Field{f}, nil)...)
	}
	return out
}

func refPaths(fields []Field, prefix []string) []RefPath {
	var out []RefPath
	for _, f := range fields {
		segs := append(append([]string{}, prefix...), f.Key)
		switch f.Kind {
		case KindRef:
			out = append(out, RefPath{Segments: segs, Target: f.Target})
		case KindRefList:
			out = append(out, RefPath{Segments: segs, Target: f.Target, List: true})
		case KindIcon:
			out = append(out, RefPath{Segments: segs, Target: f.Target, Icon: true})
		case KindObject, KindObjectList:
			out = append(out, refPaths(f.Fields, segs)...)
		}
	}
	return out
}

var byName map[string]*Collection

func init() {
	byName = make(map[string]*Collection, len(Collections))
	for _, c := range Collections {
		byName[c.Name] = c
	}
}

// Lookup returns a collection by MongoDB name.
func Lookup(name string) (*Collection, bool) {
	c, ok := byName[name]
	return c, ok
}

// BlockFor returns the declaration for bt.
func BlockFor(bt models.BlockType) (*Block, bool) {
	for i := range Blocks {
		if Blocks[i].Type == bt {
			return &Blocks[i], true
		}
	}
	return nil, false
}

// Names returns all collection names sorted.
func Names() []string {
	out := make([]string, 0, len(byName))
	for n := range byName {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

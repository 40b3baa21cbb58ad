package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.uber.org/zap"
)

// Discriminator keys in storage and on the wire.
const (
	blockTypeKey     = "block_type"
	blockTypeJSONKey = "blockType"
)

// Sections is the ordered section list of a page. It encodes each element
// with its discriminator and decodes by dispatching on it.
type Sections []Section

// TagOf returns the discriminator a section is written with.
func TagOf(s Section) string {
	if g, ok := s.(*GenericSection); ok {
		return g.Tag
	}
	return string(s.BlockType())
}

// ---- BSON ----

// MarshalBSONValue writes the list as an array of documents.
func (s Sections) MarshalBSONValue() (bsontype.Type, []byte, error) {
	arr := bson.A{}
	for i, sec := range s {
		if sec == nil {
			continue
		}
		d, err := sectionToBSON(sec)
		if err != nil {
			return 0, nil, fmt.Errorf("section %d: %w", i, err)
		}
		arr = append(arr, d)
	}
	return bson.MarshalValue(arr)
}

// UnmarshalBSONValue reads an array of section documents. Elements that are
// not documents are skipped. A section whose fields do not fit its block type
// is kept as a GenericSection so one bad block cannot hide the whole page.
func (s *Sections) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	if t == bsontype.Null || t == bsontype.Undefined {
		*s = nil
		return nil
	}
	rv := bson.RawValue{Type: t, Value: data}
	arr, ok := rv.ArrayOK()
	if !ok {
		return fmt.Errorf("sections: expected array, got %s", t)
	}
	vals, err := arr.Values()
	if err != nil {
		return err
	}
	out := make(Sections, 0, len(vals))
	for i, v := range vals {
		raw, ok := v.DocumentOK()
		if !ok {
			continue
		}
		sec, err := sectionFromBSON(raw)
		if err != nil {
			return fmt.Errorf("section %d: %w", i, err)
		}
		out = append(out, sec)
	}
	*s = out
	return nil
}

func sectionToBSON(sec Section) (bson.D, error) {
	d := bson.D{{Key: blockTypeKey, Value: TagOf(sec)}}
	m := sec.meta()

	if g, ok := sec.(*GenericSection); ok {
		if m.ID != "" {
			d = append(d, bson.E{Key: "id", Value: m.ID})
		}
		if m.BlockName != "" {
			d = append(d, bson.E{Key: "block_name", Value: m.BlockName})
		}
		for _, k := range sortedKeys(g.Fields) {
			d = append(d, bson.E{Key: k, Value: g.Fields[k]})
		}
		return d, nil
	}

	raw, err := bson.Marshal(sec)
	if err != nil {
		return nil, err
	}
	var body bson.D
	if err := bson.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	d = append(d, body...)
	for _, k := range sortedKeys(m.Extra) {
		d = append(d, bson.E{Key: k, Value: m.Extra[k]})
	}
	return d, nil
}

func sectionFromBSON(raw bson.Raw) (Section, error) {
	tag, _ := raw.Lookup(blockTypeKey).StringValueOK()

	var all bson.M
	if err := bson.Unmarshal(raw, &all); err != nil {
		return nil, err
	}
	delete(all, blockTypeKey)

	bt, known := ResolveBlockType(tag)
	if !known {
		return newGeneric(tag, all), nil
	}

	sec := NewSection(bt)
	if err := bson.Unmarshal(raw, sec); err != nil {
		zap.L().Warn("section does not match its block type; kept as generic",
			zap.String("block_type", tag), zap.Error(err))
		return newGeneric(tag, all), nil
	}
	declared := declaredKeys(reflect.TypeOf(sec).Elem(), "bson")
	extra := map[string]any{}
	for k, v := range all {
		if !declared[k] {
			extra[k] = v
		}
	}
	if len(extra) > 0 {
		sec.meta().Extra = extra
	}
	return sec, nil
}

func newGeneric(tag string, fields map[string]any) *GenericSection {
	g := &GenericSection{Tag: tag, Fields: map[string]any{}}
	for k, v := range fields {
		switch k {
		case "id":
			g.ID, _ = v.(string)
		case "block_name", "blockName":
			g.BlockName, _ = v.(string)
		case blockTypeKey, blockTypeJSONKey:
		default:
			g.Fields[k] = v
		}
	}
	return g
}

// ---- JSON ----

// MarshalJSON writes each section as an object carrying "blockType".
func (s Sections) MarshalJSON() ([]byte, error) {
	out := make([]map[string]any, 0, len(s))
	for _, sec := range s {
		if sec == nil {
			continue
		}
		obj := map[string]any{}
		if g, ok := sec.(*GenericSection); ok {
			for k, v := range g.Fields {
				obj[k] = v
			}
			if g.ID != "" {
				obj["id"] = g.ID
			}
			if g.BlockName != "" {
				obj["blockName"] = g.BlockName
			}
		} else {
			b, err := json.Marshal(sec)
			if err != nil {
				return nil, err
			}
			if err := json.Unmarshal(b, &obj); err != nil {
				return nil, err
			}
			for k, v := range sec.meta().Extra {
				if _, taken := obj[k]; !taken {
					obj[k] = v
				}
			}
		}
		obj[blockTypeJSONKey] = TagOf(sec)
		out = append(out, obj)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes by "blockType". Unknown or missing tags, and sections
// whose fields do not fit their type, produce a GenericSection; callers that
// write decide whether to accept them.
func (s *Sections) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = nil
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("sections: %w", err)
	}
	out := make(Sections, 0, len(items))
	for i, item := range items {
		var all map[string]any
		if err := json.Unmarshal(item, &all); err != nil {
			return fmt.Errorf("section %d: %w", i, err)
		}
		tag, _ := all[blockTypeJSONKey].(string)
		delete(all, blockTypeJSONKey)

		bt, known := ResolveBlockType(tag)
		if !known {
			out = append(out, newGeneric(tag, all))
			continue
		}
		sec := NewSection(bt)
		if err := json.Unmarshal(item, sec); err != nil {
			zap.L().Warn("section does not match its block type; kept as generic",
				zap.Int("index", i), zap.String("block_type", tag), zap.Error(err))
			out = append(out, newGeneric(tag, all))
			continue
		}
		declared := declaredKeys(reflect.TypeOf(sec).Elem(), "json")
		extra := map[string]any{}
		for k, v := range all {
			if !declared[k] {
				extra[k] = v
			}
		}
		if len(extra) > 0 {
			sec.meta().Extra = extra
		}
		out = append(out, sec)
	}
	*s = out
	return nil
}

// ---- helpers ----

var keyCache sync.Map // "tag|type" -> map[string]bool

// declaredKeys lists the top-level keys a struct type encodes under the given
// struct tag, following inline and anonymous embedded structs.
func declaredKeys(t reflect.Type, tag string) map[string]bool {
	cacheKey := tag + "|" + t.String()
	if v, ok := keyCache.Load(cacheKey); ok {
		return v.(map[string]bool)
	}
	keys := map[string]bool{}
	collectKeys(t, tag, keys)
	keyCache.Store(cacheKey, keys)
	return keys
}

func collectKeys(t reflect.Type, tag string, keys map[string]bool) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, opts, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name == "-" {
			continue
		}
		if f.Anonymous && f.Type.Kind() == reflect.Struct && (name == "" || strings.Contains(opts, "inline")) {
			collectKeys(f.Type, tag, keys)
			continue
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
			if tag == "bson" {
				name = strings.ToLower(name)
			}
		}
		keys[name] = true
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

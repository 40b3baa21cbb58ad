package schema

import (
	"time"

	"github.com/dalemusser/stratasite/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ToWire renames a stored document's keys to wire names following the
// declared fields. Input must be plain (map[string]any / []any, as produced by
// storeutil.Plain). Reference fields hold either an expanded document (map),
// nil for a dangling reference, or an unexpanded ObjectID which becomes
// {"id": hex}. Undeclared keys are dropped.
func (c *Collection) ToWire(doc map[string]any) map[string]any {
	if doc == nil {
		return nil
	}
	return fieldsToWire(c.Fields, doc)
}

func fieldsToWire(fields []Field, doc map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		v, ok := doc[f.Key]
		if !ok {
			continue
		}
		out[f.Name] = valueToWire(f, v)
	}
	return out
}

func valueToWire(f Field, v any) any {
	if v == nil {
		return nil
	}
	switch f.Kind {
	case KindID:
		if oid, ok := v.(primitive.ObjectID); ok {
			return oid.Hex()
		}
		return v
	case KindTime:
		if dt, ok := v.(primitive.DateTime); ok {
			return dt.Time().UTC()
		}
		return v
	case KindRef:
		return refToWire(f.Target, v)
	case KindRefList:
		items, ok := v.([]any)
		if !ok {
			return nil
		}
		out := make([]any, len(items))
		for i, it := range items {
			out[i] = refToWire(f.Target, it)
		}
		return out
	case KindIcon:
		return iconToWire(f.Target, v)
	case KindObject:
		m, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		return fieldsToWire(f.Fields, m)
	case KindObjectList:
		items, ok := v.([]any)
		if !ok {
			return nil
		}
		out := make([]any, 0, len(items))
		for _, it := range items {
			if m, ok := it.(map[string]any); ok {
				out = append(out, fieldsToWire(f.Fields, m))
			}
		}
		return out
	case KindSections:
		items, ok := v.([]any)
		if !ok {
			return nil
		}
		out := make([]any, 0, len(items))
		for _, it := range items {
			if m, ok := it.(map[string]any); ok {
				out = append(out, SectionToWire(m))
			}
		}
		return out
	}
	return v
}

func refToWire(target string, v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case map[string]any:
		if c, ok := Lookup(target); ok {
			return c.ToWire(t)
		}
		return t
	case primitive.ObjectID:
		return map[string]any{"id": t.Hex()}
	}
	return nil
}

// iconToWire renders an IconRef as {url, mediaId, media}.
func iconToWire(target string, v any) any {
	switch t := v.(type) {
	case string:
		return map[string]any{"url": t}
	case primitive.ObjectID:
		return map[string]any{"mediaId": t.Hex()}
	case map[string]any:
		media := refToWire(target, t)
		out := map[string]any{"media": media}
		if m, ok := media.(map[string]any); ok {
			out["url"] = m["url"]
			out["mediaId"] = m["id"]
		}
		return out
	}
	return nil
}

// SectionToWire converts one stored section element. Known block types use
// their declared fields; anything else becomes the generic shape with the
// raw remaining fields under "fields".
func SectionToWire(m map[string]any) map[string]any {
	tag, _ := m["block_type"].(string)
	out := map[string]any{"blockType": tag}
	if id, ok := m["id"].(string); ok && id != "" {
		out["id"] = id
	}
	if name, ok := m["block_name"].(string); ok && name != "" {
		out["blockName"] = name
	}

	bt, known := models.ResolveBlockType(tag)
	if b, ok := BlockFor(bt); known && ok {
		for k, v := range fieldsToWire(b.Fields, m) {
			out[k] = v
		}
		return out
	}

	rest := make(map[string]any, len(m))
	for k, v := range m {
		switch k {
		case "block_type", "id", "block_name":
			continue
		}
		rest[k] = jsonSafe(v)
	}
	out["fields"] = rest
	return out
}

// jsonSafe turns BSON-specific scalars into JSON-friendly values.
func jsonSafe(v any) any {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time().UTC().Format(time.RFC3339)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[k] = jsonSafe(x)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = jsonSafe(x)
		}
		return out
	}
	return v
}

// Package sectioncheck checks page sections against JSON schemas generated
// from the block declarations. Shape mismatches are advisory: they come back
// as warnings and never block a save. Only a missing or unknown blockType is
// an error.
package sectioncheck

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dalemusser/stratasite/internal/app/system/apierr"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/stratasite/internal/domain/schema"
	"github.com/xeipuuv/gojsonschema"
)

// Warning is one advisory mismatch.
type Warning struct {
	Path      string `json:"path"`
	BlockType string `json:"blockType"`
	Message   string `json:"message"`
}

const idPattern = "^[0-9a-fA-F]{24}$"

var (
	once     sync.Once
	compiled map[models.BlockType]*gojsonschema.Schema
	buildErr error
)

func load() (map[models.BlockType]*gojsonschema.Schema, error) {
	once.Do(func() {
		compiled = make(map[models.BlockType]*gojsonschema.Schema, len(schema.Blocks))
		for i := range schema.Blocks {
			b := &schema.Blocks[i]
			s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(BlockSchema(b)))
			if err != nil {
				buildErr = fmt.Errorf("compile %s schema: %w", b.Type, err)
				return
			}
			compiled[b.Type] = s
		}
	})
	return compiled, buildErr
}

// BlockSchema returns the JSON schema for one block in wire field names.
func BlockSchema(b *schema.Block) map[string]any {
	s := objectSchema(b.Fields)
	props := s["properties"].(map[string]any)
	props["blockType"] = map[string]any{"const": string(b.Type)}
	props["id"] = nullable(map[string]any{"type": "string"})
	props["blockName"] = nullable(map[string]any{"type": "string"})
	s["$schema"] = "http://json-schema.org/draft-07/schema#"
	s["title"] = b.Object
	return s
}

func objectSchema(fields []schema.Field) map[string]any {
	props := make(map[string]any, len(fields))
	var req []string
	for _, f := range fields {
		fs := fieldSchema(f)
		if f.Required {
			req = append(req, f.Name)
		} else {
			fs = nullable(fs)
		}
		props[f.Name] = fs
	}
	s := map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": true,
	}
	if len(req) > 0 {
		sort.Strings(req)
		s["required"] = req
	}
	return s
}

func fieldSchema(f schema.Field) map[string]any {
	var s map[string]any
	switch f.Kind {
	case schema.KindInt:
		s = map[string]any{"type": "integer"}
	case schema.KindFloat:
		s = map[string]any{"type": "number"}
	case schema.KindBool:
		s = map[string]any{"type": "boolean"}
	case schema.KindTime:
		s = map[string]any{"type": "string", "format": "date-time"}
	case schema.KindStringList:
		s = map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
	case schema.KindRef, schema.KindID:
		s = map[string]any{"type": "string", "pattern": idPattern}
	case schema.KindRefList:
		s = map[string]any{"type": "array", "items": map[string]any{"type": "string", "pattern": idPattern}}
	case schema.KindObject:
		s = objectSchema(f.Fields)
	case schema.KindObjectList:
		s = map[string]any{"type": "array", "items": objectSchema(f.Fields)}
	case schema.KindIcon:
		s = map[string]any{"type": "string"}
	default:
		s = map[string]any{"type": "string"}
	}
	if len(f.Enum) > 0 {
		vals := make([]any, len(f.Enum))
		for i, v := range f.Enum {
			vals[i] = v
		}
		s["enum"] = vals
	}
	return s
}

// nullable lets a non-required field be sent as null.
func nullable(s map[string]any) map[string]any {
	return map[string]any{"anyOf": []any{s, map[string]any{"type": "null"}}}
}

// Check validates sections as decoded from a JSON request body. It returns a
// VALIDATION_ERROR when an element is not an object or its blockType is
// missing or outside the enumeration; every other mismatch is a warning.
func Check(sections []any) ([]Warning, error) {
	schemas, err := load()
	if err != nil {
		return nil, err
	}

	details := map[string]string{}
	var warnings []Warning
	for i, el := range sections {
		path := fmt.Sprintf("sections[%d]", i)
		m, ok := el.(map[string]any)
		if !ok {
			details[path] = "must be an object"
			continue
		}
		tag, _ := m["blockType"].(string)
		if tag == "" {
			details[path+".blockType"] = "is required"
			continue
		}
		bt, known := models.ResolveBlockType(tag)
		if !known {
			details[path+".blockType"] = fmt.Sprintf("unknown block type %q", tag)
			continue
		}

		res, err := schemas[bt].Validate(gojsonschema.NewGoLoader(m))
		if err != nil {
			warnings = append(warnings, Warning{Path: path, BlockType: tag, Message: err.Error()})
			continue
		}
		for _, e := range res.Errors() {
			warnings = append(warnings, Warning{
				Path:      fieldPath(path, e),
				BlockType: tag,
				Message:   e.Description(),
			})
		}
	}

	if len(details) > 0 {
		return nil, apierr.Validation(details)
	}
	return warnings, nil
}

func fieldPath(prefix string, e gojsonschema.ResultError) string {
	field := e.Field()
	if field == gojsonschema.STRING_ROOT_SCHEMA_PROPERTY {
		field = ""
	}
	if p, ok := e.Details()["property"].(string); ok && e.Type() == "required" && !strings.HasSuffix(field, p) {
		field = strings.TrimPrefix(field+"."+p, ".")
	}
	if field == "" {
		return prefix
	}
	return prefix + "." + field
}

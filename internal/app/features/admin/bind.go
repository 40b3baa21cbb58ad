package admin

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/stratasite/internal/app/system/apierr"
	"github.com/dalemusser/stratasite/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratasite/internal/app/system/inputval"
	"github.com/dalemusser/stratasite/internal/app/system/sectioncheck"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/stratasite/internal/domain/schema"
)

// readOnly fields are managed by the store and ignored in request bodies.
var readOnly = []string{"id", "createdAt", "updatedAt", "publishedAt"}

// mergePatch applies an RFC 7386 merge patch to target in place: null
// removes a key, objects merge recursively, everything else replaces.
func mergePatch(target, patch map[string]any) map[string]any {
	if target == nil {
		target = map[string]any{}
	}
	for k, v := range patch {
		if v == nil {
			delete(target, k)
			continue
		}
		pm, ok := v.(map[string]any)
		if !ok {
			target[k] = v
			continue
		}
		tm, _ := target[k].(map[string]any)
		target[k] = mergePatch(tm, pm)
	}
	return target
}

// toMap renders a typed document in its JSON (wire) form.
func toMap(doc models.Document) (map[string]any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// binding is the outcome of preparing a request body for save.
type binding struct {
	doc      models.Document
	warnings []sectioncheck.Warning
}

// bind cleans body, checks it against the collection, and decodes it into a
// new typed document. base is the stored document's wire form for a patch
// and nil for a create.
func bind(c *schema.Collection, body, base map[string]any) (*binding, error) {
	for _, k := range readOnly {
		delete(body, k)
	}
	for _, k := range c.Admin.Hidden {
		delete(body, k)
	}

	details := map[string]string{}
	for k := range body {
		if _, ok := c.Field(k); !ok {
			details[k] = fmt.Sprintf("unknown field %q", k)
		}
	}
	if len(details) > 0 {
		return nil, apierr.Validation(details)
	}

	merged := body
	if base != nil {
		merged = mergePatch(base, body)
	}
	sanitize(merged)

	var out binding
	if raw, ok := merged["sections"]; ok && raw != nil {
		sections, ok := raw.([]any)
		if !ok {
			return nil, apierr.Field("sections", "must be a list")
		}
		w, err := sectioncheck.Check(sections)
		if err != nil {
			return nil, err
		}
		out.warnings = w
	}

	for _, f := range c.Fields {
		v, present := merged[f.Name]
		if f.Required && (!present || empty(v)) {
			details[f.Name] = "is required"
			continue
		}
		if s, ok := v.(string); ok && len(f.Enum) > 0 && s != "" && !contains(f.Enum, s) {
			details[f.Name] = "must be one of " + strings.Join(f.Enum, ", ")
		}
	}
	if len(details) > 0 {
		return nil, apierr.Validation(details)
	}

	doc := c.New()
	if doc == nil {
		return nil, apierr.Internal(fmt.Errorf("collection %s has no document type", c.Name))
	}
	raw, err := json.Marshal(merged)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, decodeErr(err)
	}
	if res := inputval.Validate(doc); res.HasErrors() {
		return nil, res.Err()
	}
	out.doc = doc
	return &out, nil
}

// sanitize cleans the HTML bodies of documents and rich text sections.
func sanitize(m map[string]any) {
	if s, ok := m["body"].(string); ok {
		m["body"] = htmlsanitize.Sanitize(s)
	}
	sections, _ := m["sections"].([]any)
	for _, el := range sections {
		sec, ok := el.(map[string]any)
		if !ok {
			continue
		}
		if s, ok := sec["body"].(string); ok {
			sec["body"] = htmlsanitize.Sanitize(s)
		}
	}
}

func decodeErr(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return apierr.Field(typeErr.Field, fmt.Sprintf("must be a %s", typeErr.Type.String()))
	}
	return apierr.Wrap(apierr.CodeValidation, "Document does not match the collection", err)
}

func empty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	}
	return false
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// strip removes hidden fields from an outgoing document.
func strip(c *schema.Collection, doc map[string]any) map[string]any {
	for _, k := range c.Admin.Hidden {
		delete(doc, k)
	}
	return doc
}

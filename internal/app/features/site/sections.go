package site

import (
	"context"
	"html/template"

	"github.com/dalemusser/stratasite/internal/app/system/contentquery"
	"github.com/dalemusser/stratasite/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratasite/internal/app/system/refexpand"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/stratasite/internal/domain/schema"
	"go.uber.org/zap"
)

// Section is one page section ready for its partial. Data is the wire
// section. Items holds the visible entries of the section's reference list,
// or the active jobs for a job list set to show all of them. Form sections
// also carry the CSRF token and the path to return to after posting.
type Section struct {
	BlockType string
	Data      map[string]any
	HTML      template.HTML
	Items     []map[string]any

	CSRFToken string
	Return    string
}

// sections prepares a page's sections in order. Unknown block types are
// skipped.
func (h *Handler) sections(ctx context.Context, page map[string]any) []Section {
	raw, _ := page["sections"].([]any)
	out := make([]Section, 0, len(raw))
	for i, el := range raw {
		m, ok := el.(map[string]any)
		if !ok {
			continue
		}
		tag, _ := m["blockType"].(string)
		bt, known := models.ResolveBlockType(tag)
		if !known {
			h.logger.Debug("skipping section with unknown block type",
				zap.Int("index", i), zap.String("blockType", tag))
			continue
		}

		sec := Section{BlockType: string(bt), Data: m}
		if body, ok := m["body"].(string); ok {
			sec.HTML = htmlsanitize.PrepareForDisplay(body)
		}
		if b, ok := schema.BlockFor(bt); ok {
			sec.Items = visibleItems(b, m)
		}
		if bt == models.BlockJobList && m["showAllActive"] == true {
			sec.Items = h.activeJobs(ctx)
		}
		out = append(out, sec)
	}
	return out
}

// visibleItems returns the expanded entries of the block's first reference
// list, dropping dangling references and entries the public may not see.
func visibleItems(b *schema.Block, sec map[string]any) []map[string]any {
	for _, f := range b.Fields {
		if f.Kind != schema.KindRefList {
			continue
		}
		target, _ := schema.Lookup(f.Target)
		refs, _ := sec[f.Name].([]any)
		items := make([]map[string]any, 0, len(refs))
		for _, ref := range refs {
			doc, ok := ref.(map[string]any)
			if !ok || !shown(target, doc) {
				continue
			}
			items = append(items, doc)
		}
		return items
	}
	return nil
}

// shown reports whether an expanded reference is public. A reference that
// did not resolve comes back as {id} only and is dropped.
func shown(c *schema.Collection, doc map[string]any) bool {
	if len(doc) <= 1 {
		return false
	}
	return refexpand.Public(c, doc)
}

func (h *Handler) activeJobs(ctx context.Context) []map[string]any {
	res, err := h.reader.List(ctx, mustCollection(schema.Jobs), contentquery.Params{
		Where:  contentquery.Where{"status": {Equals: "active", HasEquals: true}},
		Limit:  100,
		Expand: true,
	})
	if err != nil {
		h.logger.Warn("failed to load active jobs", zap.Error(err))
		return nil
	}
	return res.Docs
}

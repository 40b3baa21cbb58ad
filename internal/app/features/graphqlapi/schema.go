package graphqlapi

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/stratasite/internal/app/system/adminauth"
	"github.com/dalemusser/stratasite/internal/app/system/apierr"
	"github.com/dalemusser/stratasite/internal/app/system/contentquery"
	"github.com/dalemusser/stratasite/internal/app/system/refexpand"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/stratasite/internal/domain/schema"
	"github.com/graphql-go/graphql"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// Reader is the query layer. contentquery.Query satisfies it.
type Reader interface {
	List(ctx context.Context, c *schema.Collection, p contentquery.Params) (*contentquery.Result, error)
	Get(ctx context.Context, c *schema.Collection, id string, scope bson.M, expand bool) (map[string]any, error)
	GetBySlug(ctx context.Context, c *schema.Collection, slug string, scope bson.M, expand bool) (map[string]any, error)
	SiteSettings(ctx context.Context, s *models.SiteSettings, expand bool) (map[string]any, error)
}

// SettingsReader loads the settings singleton. settingsstore.Store satisfies it.
type SettingsReader interface {
	Get(ctx context.Context) (*models.SiteSettings, error)
}

// resolverError is what resolvers hand back to graphql-go: the client-safe
// message plus extensions.code.
type resolverError struct {
	ae *apierr.Error
}

func (e *resolverError) Error() string { return e.ae.Message }

func (e *resolverError) Extensions() map[string]interface{} { return e.ae.Extensions() }

type resolvers struct {
	reader   Reader
	settings SettingsReader
	logger   *zap.Logger
}

func (rs *resolvers) fail(op string, err error) error {
	ae := apierr.From(err)
	if ae.Status() >= 500 {
		rs.logger.Error("graphql resolver failed", zap.String("field", op), zap.Error(err))
	}
	return &resolverError{ae: ae}
}

// scope hides drafts unless the request carries admin claims.
func scope(ctx context.Context, c *schema.Collection) bson.M {
	if _, ok := adminauth.FromContext(ctx); ok {
		return nil
	}
	return contentquery.PublishedOnly(c)
}

// readContext applies the same rule to documents reached through references.
func readContext(ctx context.Context) context.Context {
	if _, ok := adminauth.FromContext(ctx); ok {
		return ctx
	}
	return refexpand.WithVisibility(ctx, refexpand.Public)
}

// NewSchema builds the read-only schema: a list and a singular field per
// public collection plus the SiteSettings singleton.
func NewSchema(reader Reader, settings SettingsReader, logger *zap.Logger) (graphql.Schema, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	rs := &resolvers{reader: reader, settings: settings, logger: logger}
	b := newBuilder()

	fields := graphql.Fields{}
	for _, c := range schema.Collections {
		if !c.Public {
			continue
		}
		fields[c.Plural] = rs.listField(b, c)
		fields[c.Type] = rs.oneField(b, c)
	}
	fields[schema.Settings.Type] = &graphql.Field{
		Type:    b.collection(schema.SiteSettings),
		Resolve: rs.siteSettings,
	}

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{Name: "Query", Fields: fields}),
		Types: []graphql.Type{b.section},
	})
}

func (rs *resolvers) listField(b *builder, c *schema.Collection) *graphql.Field {
	return &graphql.Field{
		Type: b.list(c),
		Args: graphql.FieldConfigArgument{
			"where": &graphql.ArgumentConfig{Type: b.where(c)},
			"limit": &graphql.ArgumentConfig{Type: graphql.Int},
			"page":  &graphql.ArgumentConfig{Type: graphql.Int},
			"sort":  &graphql.ArgumentConfig{Type: graphql.String},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			raw, _ := p.Args["where"].(map[string]interface{})
			where, err := contentquery.WhereFromMap(raw)
			if err != nil {
				return nil, rs.fail(c.Plural, err)
			}
			params := contentquery.Params{
				Where:  where,
				Sort:   stringArg(p.Args, "sort"),
				Scope:  scope(p.Context, c),
				Expand: true,
			}
			if n, ok := p.Args["limit"].(int); ok {
				params.Limit = int64(n)
			}
			if n, ok := p.Args["page"].(int); ok {
				params.Page = int64(n)
			}

			res, err := rs.reader.List(readContext(p.Context), c, params)
			if err != nil {
				return nil, rs.fail(c.Plural, err)
			}
			return map[string]interface{}{
				"docs":        res.Docs,
				"totalDocs":   res.TotalDocs,
				"limit":       res.Limit,
				"page":        res.Page,
				"totalPages":  res.TotalPages,
				"hasNextPage": res.HasNextPage,
				"hasPrevPage": res.HasPrevPage,
			}, nil
		},
	}
}

func (rs *resolvers) oneField(b *builder, c *schema.Collection) *graphql.Field {
	args := graphql.FieldConfigArgument{
		"id": &graphql.ArgumentConfig{Type: graphql.ID},
	}
	if c.HasSlug {
		args["slug"] = &graphql.ArgumentConfig{Type: graphql.String}
	}
	return &graphql.Field{
		Type: b.collection(c.Name),
		Args: args,
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			var (
				doc map[string]any
				err error
			)
			switch id, slug := stringArg(p.Args, "id"), stringArg(p.Args, "slug"); {
			case id != "":
				doc, err = rs.reader.Get(readContext(p.Context), c, id, scope(p.Context, c), true)
			case slug != "":
				doc, err = rs.reader.GetBySlug(readContext(p.Context), c, slug, scope(p.Context, c), true)
			default:
				err = apierr.Field("id", "id or slug is required")
			}
			if err != nil {
				return nil, rs.fail(c.Type, err)
			}
			if doc == nil {
				return nil, nil
			}
			return doc, nil
		},
	}
}

func (rs *resolvers) siteSettings(p graphql.ResolveParams) (interface{}, error) {
	if rs.settings == nil {
		return nil, rs.fail("SiteSettings", errors.New("site settings are not configured"))
	}
	s, err := rs.settings.Get(p.Context)
	if err != nil {
		return nil, rs.fail("SiteSettings", fmt.Errorf("load site settings: %w", err))
	}
	doc, err := rs.reader.SiteSettings(p.Context, s, true)
	if err != nil {
		return nil, rs.fail("SiteSettings", err)
	}
	return doc, nil
}

func stringArg(args map[string]interface{}, name string) string {
	s, _ := args[name].(string)
	return s
}

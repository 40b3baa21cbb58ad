// Package validators creates the content collections and attaches
// $jsonSchema validators derived from the schema registry.
package validators

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dalemusser/stratasite/internal/domain/schema"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Server error codes that EnsureAll tolerates.
const (
	codeNamespaceExists = 48
	codeCommandNotFound = 59
	codeNotImplemented  = 115
)

// EnsureAll creates every registered collection plus site_settings and
// sets its validator. Servers without collMod support (some DocumentDB
// versions) keep the collections unvalidated. Failures for individual
// collections are joined into one error.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	existing, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		// Fall through to create and rely on NamespaceExists.
		zap.L().Warn("list collections failed", zap.Error(err))
		existing = nil
	}

	var errs []error
	ensure := func(name string, validator bson.M) {
		if !slices.Contains(existing, name) {
			if err := createCollection(ctx, db, name); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
		}
		if validator == nil {
			return
		}
		if err := setValidator(ctx, db, name, validator); err != nil {
			if unsupported(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", name))
				return
			}
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	for _, c := range schema.Collections {
		ensure(c.Name, collectionSchema(c))
	}
	ensure(schema.SiteSettings, nil)
	return errors.Join(errs...)
}

// collectionExists reports whether name is already present.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

// createCollection creates name, treating a concurrent create as success.
func createCollection(ctx context.Context, db *mongo.Database, name string) error {
	err := db.CreateCollection(ctx, name)
	switch {
	case err == nil:
		zap.L().Info("created collection", zap.String("collection", name))
		return nil
	case matches(err, []int32{codeNamespaceExists}, "already exists", "namespace exists"):
		return nil
	default:
		return err
	}
}

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	return db.RunCommand(ctx, cmd).Err()
}

// unsupported reports whether err means the server cannot run collMod
// validators at all.
func unsupported(err error) bool {
	return matches(err, []int32{codeCommandNotFound, codeNotImplemented},
		"no such command", "not implemented", "not supported")
}

// matches reports whether err carries one of codes or, failing that, one
// of the phrases in its message.
func matches(err error, codes []int32, phrases ...string) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && slices.Contains(codes, ce.Code) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, p := range phrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// collectionSchema derives a $jsonSchema from the registry: required
// top-level fields must be present with the right BSON type, and publish
// status and required enums must hold an allowed value. Returns nil when
// there is nothing to enforce.
func collectionSchema(c *schema.Collection) bson.M {
	required := bson.A{}
	props := bson.M{}
	for _, f := range c.Fields {
		publishStatus := f.Name == "status" && hasField(c, "publishedAt")
		if !f.Required && !publishStatus {
			continue
		}
		prop := bson.M{}
		if t := bsonType(f.Kind); t != "" {
			prop["bsonType"] = t
		}
		if len(f.Enum) > 0 {
			enum := bson.A{}
			for _, v := range f.Enum {
				enum = append(enum, v)
			}
			prop["enum"] = enum
		}
		if f.Kind == schema.KindString && f.Required && len(f.Enum) == 0 {
			prop["minLength"] = 1
		}
		required = append(required, f.Key)
		props[f.Key] = prop
	}
	if len(required) == 0 {
		return nil
	}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType":   "object",
			"required":   required,
			"properties": props,
		},
	}
}

func hasField(c *schema.Collection, name string) bool {
	_, ok := c.Field(name)
	return ok
}

func bsonType(k schema.Kind) string {
	switch k {
	case schema.KindString, schema.KindText:
		return "string"
	case schema.KindRef, schema.KindID:
		return "objectId"
	case schema.KindBool:
		return "bool"
	case schema.KindTime:
		return "date"
	}
	return ""
}

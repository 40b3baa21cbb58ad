// internal/app/store/settings/settingsstore.go
package settingsstore

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/stratasite/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store provides access to the site_settings collection.
// The site has exactly one settings document, stored under a fixed _id.
type Store struct {
	c *mongo.Collection
}

// New creates a new settings store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("site_settings")}
}

func byID() bson.M { return bson.M{"_id": models.SiteSettingsID} }

// Get returns the site settings, inserting the defaults on first access.
// The insert is a single upsert on the fixed _id, so concurrent first reads
// converge on one document.
func (s *Store) Get(ctx context.Context) (*models.SiteSettings, error) {
	defaults, err := bson.Marshal(models.DefaultSiteSettings())
	if err != nil {
		return nil, err
	}
	var onInsert bson.M
	if err := bson.Unmarshal(defaults, &onInsert); err != nil {
		return nil, err
	}
	delete(onInsert, "_id")

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var settings models.SiteSettings
	err = s.c.FindOneAndUpdate(ctx, byID(), bson.M{"$setOnInsert": onInsert}, opts).Decode(&settings)
	if mongo.IsDuplicateKeyError(err) {
		// lost the insert race; the winner's document is there now
		err = s.c.FindOne(ctx, byID()).Decode(&settings)
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// Save replaces the settings document.
func (s *Store) Save(ctx context.Context, settings models.SiteSettings) error {
	now := time.Now().UTC()
	settings.ID = models.SiteSettingsID
	settings.UpdatedAt = &now

	_, err := s.c.ReplaceOne(ctx, byID(), settings, options.Replace().SetUpsert(true))
	return err
}

// Exists checks if settings have been stored.
func (s *Store) Exists(ctx context.Context) (bool, error) {
	count, err := s.c.CountDocuments(ctx, byID())
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MigrateIcons rewrites social icons stored as 24-char hex strings into
// ObjectIDs. It reports how many icons changed.
func (s *Store) MigrateIcons(ctx context.Context) (int, error) {
	var raw struct {
		Footer struct {
			Socials []struct {
				Icon any `bson:"icon"`
			} `bson:"socials"`
		} `bson:"footer"`
	}
	err := s.c.FindOne(ctx, byID()).Decode(&raw)
	if err == mongo.ErrNoDocuments {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	set := bson.M{}
	for i, social := range raw.Footer.Socials {
		str, ok := social.Icon.(string)
		if !ok {
			continue
		}
		if ref := models.ParseIconRef(str); ref.MediaID != nil {
			set[fmt.Sprintf("footer.socials.%d.icon", i)] = *ref.MediaID
		}
	}
	if len(set) == 0 {
		return 0, nil
	}
	set["updated_at"] = time.Now().UTC()
	if _, err := s.c.UpdateOne(ctx, byID(), bson.M{"$set": set}); err != nil {
		return 0, err
	}
	return len(set) - 1, nil
}

// internal/app/system/seeding/seeding.go
package seeding

import (
	"context"

	pagestore "github.com/dalemusser/stratasite/internal/app/store/pages"
	settingsstore "github.com/dalemusser/stratasite/internal/app/store/settings"
	"github.com/dalemusser/stratasite/internal/app/system/txn"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// SeedAll seeds default data if not already present. On a replica set the
// settings and pages land together or not at all.
func SeedAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	return txn.Run(ctx, db, logger, func(ctx context.Context) error {
		if err := seedSettings(ctx, db, logger); err != nil {
			return err
		}
		return seedPages(ctx, db, logger)
	})
}

// seedSettings creates the settings document with defaults.
func seedSettings(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	store := settingsstore.New(db)
	existed, err := store.Exists(ctx)
	if err != nil {
		return err
	}
	if existed {
		return nil
	}
	if _, err := store.Get(ctx); err != nil {
		logger.Error("failed to seed site settings", zap.Error(err))
		return err
	}
	logger.Info("seeded default site settings")
	return nil
}

// DefaultPages returns the pages created on an empty database.
func DefaultPages() []models.Page {
	pages := []models.Page{
		{
			Slug:  models.PageSlugHome,
			Title: "Home",
			Sections: models.Sections{
				&models.HeroSection{
					Heading:    "Technology that moves your business forward",
					Subheading: "We design, build, and run digital products for ambitious teams.",
					CTALabel:   "Talk to us",
					CTALink:    "/contact",
				},
				&models.ServiceGridSection{Heading: "What we do"},
				&models.NewsletterSection{
					Heading: "Stay in the loop",
					Intro:   "Occasional updates on our work and insights.",
					Source:  "home",
				},
			},
		},
		{
			Slug:  models.PageSlugAbout,
			Title: "About",
			Sections: models.Sections{
				&models.RichTextSection{
					Heading: "About us",
					Body:    "<p>This page can be customized by an administrator.</p>",
				},
				&models.TimelineSection{Heading: "Our story"},
			},
		},
		{
			Slug:  models.PageSlugContact,
			Title: "Contact",
			Sections: models.Sections{
				&models.ContactFormSection{
					Heading:         "Get in touch",
					Intro:           "Tell us about your project and we will get back to you shortly.",
					InterestOptions: models.InterestOptions,
				},
			},
		},
		{
			Slug:  models.PageSlugCareers,
			Title: "Careers",
			Sections: models.Sections{
				&models.JobListSection{
					Heading:       "Open positions",
					Intro:         "Join a team that ships.",
					ShowAllActive: true,
				},
			},
		},
	}
	for i := range pages {
		pages[i].Status = models.StatusPublished
	}
	return pages
}

// seedPages creates default pages if they don't exist.
func seedPages(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	store := pagestore.New(db)

	for _, page := range DefaultPages() {
		created, err := store.InsertIfMissing(ctx, page)
		if err != nil {
			logger.Error("failed to seed page",
				zap.String("slug", page.Slug),
				zap.Error(err))
			return err
		}
		if created {
			logger.Info("seeded default page", zap.String("slug", page.Slug))
		}
	}

	return nil
}

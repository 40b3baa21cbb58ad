// internal/app/store/intake/intakestore.go
package intakestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/stratasite/internal/app/system/normalize"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store persists contact submissions, resumes, and newsletter subscribers.
type Store struct {
	contacts   *mongo.Collection
	resumes    *mongo.Collection
	newsletter *mongo.Collection
	now        func() time.Time
}

// New creates a new intake store.
func New(db *mongo.Database) *Store {
	return &Store{
		contacts:   db.Collection("contact_submissions"),
		resumes:    db.Collection("resumes"),
		newsletter: db.Collection("newsletter"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CreateContact inserts a new submission with status "new".
func (s *Store) CreateContact(ctx context.Context, c *models.ContactSubmission) error {
	c.Status = models.IntakeNew
	models.Stamp(c, s.now())
	_, err := s.contacts.InsertOne(ctx, c)
	return err
}

// CreateResume inserts a new application with status "new".
func (s *Store) CreateResume(ctx context.Context, r *models.Resume) error {
	r.Status = models.IntakeNew
	models.Stamp(r, s.now())
	_, err := s.resumes.InsertOne(ctx, r)
	return err
}

// Subscribe adds email to the newsletter. An unsubscribed address is flipped
// back on the same record and resubscribed reports true. An address that is
// already subscribed returns models.ErrAlreadySubscribed.
func (s *Store) Subscribe(ctx context.Context, email, name, source string) (sub *models.NewsletterSubscriber, resubscribed bool, err error) {
	email = normalize.Email(email)
	now := s.now()

	var existing models.NewsletterSubscriber
	err = s.newsletter.FindOne(ctx, bson.M{"email": email}).Decode(&existing)
	switch {
	case err == nil:
		return s.resubscribe(ctx, &existing, name, source, now)
	case !errors.Is(err, mongo.ErrNoDocuments):
		return nil, false, err
	}

	sub = &models.NewsletterSubscriber{
		Email:        email,
		Name:         normalize.Name(name),
		Source:       source,
		Status:       models.NewsletterSubscribed,
		SubscribedAt: now,
	}
	models.Stamp(sub, now)
	if _, err := s.newsletter.InsertOne(ctx, sub); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// lost a race with a concurrent signup for the same address
			return nil, false, models.ErrAlreadySubscribed
		}
		return nil, false, err
	}
	return sub, false, nil
}

func (s *Store) resubscribe(ctx context.Context, existing *models.NewsletterSubscriber, name, source string, now time.Time) (*models.NewsletterSubscriber, bool, error) {
	if existing.Status == models.NewsletterSubscribed {
		return existing, false, models.ErrAlreadySubscribed
	}

	set := bson.M{
		"status":        models.NewsletterSubscribed,
		"subscribed_at": now,
		"updated_at":    now,
	}
	if n := normalize.Name(name); n != "" {
		set["name"] = n
	}
	if source != "" {
		set["source"] = source
	}

	var out models.NewsletterSubscriber
	err := s.newsletter.FindOneAndUpdate(ctx,
		bson.M{"_id": existing.ID, "status": models.NewsletterUnsubscribed},
		bson.M{"$set": set, "$unset": bson.M{"unsubscribed_at": ""}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return existing, false, models.ErrAlreadySubscribed
	}
	if err != nil {
		return nil, false, err
	}
	return &out, true, nil
}

// Unsubscribe marks email unsubscribed. Unsubscribing twice succeeds and
// keeps the first unsubscribedAt. Returns mongo.ErrNoDocuments for an
// unknown address.
func (s *Store) Unsubscribe(ctx context.Context, email string) (*models.NewsletterSubscriber, error) {
	email = normalize.Email(email)
	now := s.now()

	var out models.NewsletterSubscriber
	err := s.newsletter.FindOneAndUpdate(ctx,
		bson.M{"email": email, "status": models.NewsletterSubscribed},
		bson.M{"$set": bson.M{
			"status":          models.NewsletterUnsubscribed,
			"unsubscribed_at": now,
			"updated_at":      now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if err == nil {
		return &out, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	if err := s.newsletter.FindOne(ctx, bson.M{"email": email}).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// internal/app/store/ratelimit/lockout.go
package ratelimit

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Attempt tracks failed admin login attempts for one email.
type Attempt struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Key          string             `bson:"key"`           // normalized email
	AttemptCount int                `bson:"attempt_count"` // failures in the current window
	WindowStart  time.Time          `bson:"window_start"`
	LockedUntil  *time.Time         `bson:"locked_until"`
	LastAttempt  time.Time          `bson:"last_attempt"` // TTL cleanup
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

// LockoutCollection holds Attempt records.
const LockoutCollection = "login_attempts"

// Lockout locks an account out after repeated failed logins.
type Lockout struct {
	c               *mongo.Collection
	maxAttempts     int
	windowDuration  time.Duration
	lockoutDuration time.Duration
}

// NewLockout creates a Lockout with the given configuration.
func NewLockout(db *mongo.Database, maxAttempts int, window, lockout time.Duration) *Lockout {
	return &Lockout{
		c:               db.Collection(LockoutCollection),
		maxAttempts:     maxAttempts,
		windowDuration:  window,
		lockoutDuration: lockout,
	}
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// CheckAllowed reports whether key may attempt a login.
// remaining is -1 while locked.
func (s *Lockout) CheckAllowed(ctx context.Context, key string) (allowed bool, remaining int, lockedUntil *time.Time) {
	key = normalizeKey(key)
	now := time.Now()

	var attempt Attempt
	err := s.c.FindOne(ctx, bson.M{"key": key}).Decode(&attempt)
	if err != nil {
		// no record, or a lookup failure: fail open
		return true, s.maxAttempts, nil
	}

	if attempt.LockedUntil != nil && now.Before(*attempt.LockedUntil) {
		return false, -1, attempt.LockedUntil
	}
	if now.After(attempt.WindowStart.Add(s.windowDuration)) {
		return true, s.maxAttempts, nil
	}

	remaining = s.maxAttempts - attempt.AttemptCount
	if remaining <= 0 {
		return false, 0, nil
	}
	return true, remaining, nil
}

// RecordFailure counts a failed login and locks the key once the limit is hit.
func (s *Lockout) RecordFailure(ctx context.Context, key string) (lockedOut bool, lockedUntil *time.Time) {
	key = normalizeKey(key)
	now := time.Now()

	var attempt Attempt
	err := s.c.FindOne(ctx, bson.M{"key": key}).Decode(&attempt)
	switch {
	case err == mongo.ErrNoDocuments:
		attempt = Attempt{Key: key, WindowStart: now, CreatedAt: now}
	case err != nil:
		return false, nil
	}

	if now.After(attempt.WindowStart.Add(s.windowDuration)) {
		attempt.AttemptCount = 0
		attempt.WindowStart = now
		attempt.LockedUntil = nil
	}
	attempt.AttemptCount++
	attempt.LastAttempt = now
	attempt.UpdatedAt = now

	if attempt.AttemptCount >= s.maxAttempts {
		t := now.Add(s.lockoutDuration)
		attempt.LockedUntil = &t
		lockedOut, lockedUntil = true, &t
	}

	_, _ = s.c.UpdateOne(ctx,
		bson.M{"key": key},
		bson.M{
			"$set": bson.M{
				"attempt_count": attempt.AttemptCount,
				"window_start":  attempt.WindowStart,
				"locked_until":  attempt.LockedUntil,
				"last_attempt":  attempt.LastAttempt,
				"updated_at":    attempt.UpdatedAt,
			},
			"$setOnInsert": bson.M{"created_at": attempt.CreatedAt},
		},
		options.Update().SetUpsert(true),
	)
	return lockedOut, lockedUntil
}

// ClearOnSuccess resets the counter after a successful login.
func (s *Lockout) ClearOnSuccess(ctx context.Context, key string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"key": normalizeKey(key)})
	return err
}

// GetAttempt returns the current record for key, or nil.
func (s *Lockout) GetAttempt(ctx context.Context, key string) (*Attempt, error) {
	var attempt Attempt
	err := s.c.FindOne(ctx, bson.M{"key": normalizeKey(key)}).Decode(&attempt)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

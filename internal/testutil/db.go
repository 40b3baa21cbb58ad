// Package testutil holds shared fixtures for package tests: a throwaway
// MongoDB database per test, an in-memory object store and template boot.
package testutil

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/stratasite/internal/app/system/indexes"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// DefaultMongoURI is used unless STRATASITE_TEST_MONGO_URI is set.
	DefaultMongoURI = "mongodb://localhost:27017"
	dbPrefix        = "sitetest_"
	// MongoDB caps database names at 63 bytes.
	maxDBName = 63
)

var (
	clientOnce sync.Once
	client     *mongo.Client
	clientErr  error
)

func mongoURI() string {
	if v := strings.TrimSpace(os.Getenv("STRATASITE_TEST_MONGO_URI")); v != "" {
		return v
	}
	return DefaultMongoURI
}

func sharedClient() (*mongo.Client, error) {
	clientOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		opts := options.Client().
			ApplyURI(mongoURI()).
			SetMaxPoolSize(100).
			SetServerSelectionTimeout(5 * time.Second)
		client, clientErr = mongo.Connect(ctx, opts)
		if clientErr == nil {
			clientErr = client.Ping(ctx, nil)
		}
	})
	return client, clientErr
}

// SetupTestDB returns an empty database named after the running test with
// production indexes in place. The test is skipped when MongoDB is not
// reachable, and the database is dropped on cleanup.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	c, err := sharedClient()
	if err != nil {
		t.Skipf("MongoDB not available at %s: %v", mongoURI(), err)
	}

	db := c.Database(DBName(t.Name()))
	ctx, cancel := TestContext()
	defer cancel()
	if err := db.Drop(ctx); err != nil {
		t.Fatalf("drop %s: %v", db.Name(), err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.Drop(ctx); err != nil {
			t.Logf("drop %s on cleanup: %v", db.Name(), err)
		}
	})
	return db
}

// DBName maps a test name onto a valid, bounded database name.
func DBName(testName string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, testName)
	name = dbPrefix + name
	if len(name) > maxDBName {
		name = name[:maxDBName]
	}
	return name
}

// TestContext returns a context with a reasonable timeout for test operations.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// Insert writes docs into coll and fails the test on error.
func Insert(t *testing.T, db *mongo.Database, coll string, docs ...any) {
	t.Helper()
	if len(docs) == 0 {
		return
	}
	ctx, cancel := TestContext()
	defer cancel()
	if _, err := db.Collection(coll).InsertMany(ctx, docs); err != nil {
		t.Fatalf("insert into %s: %v", coll, err)
	}
}

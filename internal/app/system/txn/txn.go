// Package txn runs multi-document writes inside a MongoDB transaction when
// the deployment supports one, and directly when it does not.
//
// Standalone mongod (the usual development setup) rejects transactions;
// replica sets and Atlas accept them. Callers write fn once and get
// atomicity where it is available:
//
//	err := txn.Run(ctx, db, log, func(ctx context.Context) error {
//	    if err := settings.Save(ctx, s); err != nil {
//	        return err
//	    }
//	    return pages.Save(ctx, p)
//	})
//
// fn may run twice (once in the aborted transaction, once without), so it
// must be idempotent.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Func is the unit of work. ctx is a mongo.SessionContext inside a
// transaction and the caller's context otherwise.
type Func func(ctx context.Context) error

// Run executes fn in a transaction, falling back to a plain call when the
// server cannot start one. log may be nil.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn Func) error {
	if log == nil {
		log = zap.NewNop()
	}

	session, err := db.Client().StartSession()
	if err != nil {
		log.Warn("no session available, running without transaction", zap.Error(err))
		return fn(ctx)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if IsNotSupported(err) {
		log.Debug("transactions not supported, running without transaction", zap.Error(err))
		return fn(ctx)
	}
	return err
}

// notSupportedCodes are server codes meaning "no transactions here":
// 20 IllegalOperation (standalone), 51 (DocumentDB), 263 OperationNotSupportedInTransaction.
var notSupportedCodes = []int{20, 51, 263}

// IsNotSupported reports whether err says the deployment cannot run
// multi-document transactions.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var se mongo.ServerError
	if errors.As(err, &se) {
		for _, code := range notSupportedCodes {
			if se.HasErrorCode(code) {
				return true
			}
		}
	}

	// Some proxies only carry the message. Two hits keep ordinary errors
	// that merely mention a session from matching.
	msg := strings.ToLower(err.Error())
	hits := 0
	for _, kw := range []string{"transaction", "replica set", "session", "not supported", "illegal operation"} {
		if strings.Contains(msg, kw) {
			hits++
		}
	}
	return hits >= 2
}

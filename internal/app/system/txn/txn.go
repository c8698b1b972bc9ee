// Package txn runs multi-document MongoDB writes in a transaction when the
// deployment supports one.
//
// A standalone mongod has no transactions; there fn runs once more
// without a session so single-node development setups keep working.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Func receives the session context inside a transaction or the caller's
// context when running without one.
type Func func(ctx context.Context) error

// Run executes fn inside a transaction, retrying it without one when the
// server reports transactions as unsupported. log may be nil.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn Func) error {
	if log == nil {
		log = zap.NewNop()
	}

	sess, err := db.Client().StartSession()
	if err != nil {
		log.Warn("mongo session unavailable; writing without transaction", zap.Error(err))
		return fn(ctx)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		log.Warn("transactions unsupported; writing without transaction", zap.Error(err))
		return fn(ctx)
	}
	return err
}

// notSupportedCodes are server codes for "no transactions here":
// 20 IllegalOperation (standalone), 51, and 263 OperationNotSupportedInTransaction.
var notSupportedCodes = map[int32]bool{20: true, 51: true, 263: true}

// IsNotSupported reports whether err means the deployment cannot run
// multi-document transactions.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && notSupportedCodes[ce.Code] {
		return true
	}

	msg := strings.ToLower(err.Error())
	hits := 0
	for _, kw := range []string{"transaction", "replica set", "session", "not supported", "illegal operation"} {
		if strings.Contains(msg, kw) {
			hits++
		}
	}
	return hits >= 2
}

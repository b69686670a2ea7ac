// internal/app/store/users/fetcher.go
package userstore

import (
	"context"

	"github.com/dalemusser/threadhub/internal/app/system/auth"
	"github.com/dalemusser/threadhub/internal/app/system/status"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fetcher implements auth.UserFetcher so each request sees fresh user
// data: deleted or disabled accounts drop out of their sessions
// immediately.
type Fetcher struct {
	store *Store
}

// NewFetcher creates a session-user fetcher backed by the users
// collection.
func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{store: New(db)}
}

// FetchSessionUser loads the session user by hex ID. ok=false when the
// ID is malformed, the user is gone, or the account is not active.
func (f *Fetcher) FetchSessionUser(ctx context.Context, userID string) (auth.SessionUser, bool, error) {
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return auth.SessionUser{}, false, nil
	}
	u, err := f.store.GetByID(ctx, id)
	if err == ErrNotFound {
		return auth.SessionUser{}, false, nil
	}
	if err != nil {
		return auth.SessionUser{}, false, err
	}
	if u.Status != status.Active {
		return auth.SessionUser{}, false, nil
	}
	return auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.FullName,
		Email: u.Email,
	}, true, nil
}

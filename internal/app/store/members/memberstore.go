// internal/app/store/members/memberstore.go
package memberstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/threadhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrDuplicateMember = errors.New("user is already a member of this workspace")
	ErrNotFound        = errors.New("member not found")

	errBadRole  = errors.New(`role must be "admin" or "member"`)
	errBadLevel = errors.New(`notification level must be "all", "mentions", or "none"`)
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("members")}
}

// Add creates a membership. New members default to notification level
// "all" and unmuted.
func (s *Store) Add(ctx context.Context, workspaceID, userID primitive.ObjectID, role string) (models.Member, error) {
	if !models.IsValidRole(role) {
		return models.Member{}, errBadRole
	}

	m := models.Member{
		ID:                primitive.NewObjectID(),
		WorkspaceID:       workspaceID,
		UserID:            userID,
		Role:              role,
		NotificationLevel: models.NotifyAll,
		CreatedAt:         time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Member{}, ErrDuplicateMember
		}
		return models.Member{}, err
	}
	return m, nil
}

// Get returns the membership for (workspace, user).
func (s *Store) Get(ctx context.Context, workspaceID, userID primitive.ObjectID) (models.Member, error) {
	var m models.Member
	err := s.c.FindOne(ctx, bson.M{"workspace_id": workspaceID, "user_id": userID}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Member{}, ErrNotFound
	}
	if err != nil {
		return models.Member{}, err
	}
	return m, nil
}

// SetRole updates a member's role.
func (s *Store) SetRole(ctx context.Context, workspaceID, userID primitive.ObjectID, role string) error {
	if !models.IsValidRole(role) {
		return errBadRole
	}
	return s.updateOne(ctx, workspaceID, userID, bson.M{"role": role})
}

// SetNotificationLevel updates a member's notification preference.
func (s *Store) SetNotificationLevel(ctx context.Context, workspaceID, userID primitive.ObjectID, level string) error {
	if !models.IsValidNotificationLevel(level) {
		return errBadLevel
	}
	return s.updateOne(ctx, workspaceID, userID, bson.M{"notification_level": level})
}

// SetMuted updates a member's muted flag.
func (s *Store) SetMuted(ctx context.Context, workspaceID, userID primitive.ObjectID, muted bool) error {
	return s.updateOne(ctx, workspaceID, userID, bson.M{"muted": muted})
}

func (s *Store) updateOne(ctx context.Context, workspaceID, userID primitive.ObjectID, set bson.M) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"workspace_id": workspaceID, "user_id": userID},
		bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Remove deletes the membership for (workspace, user).
func (s *Store) Remove(ctx context.Context, workspaceID, userID primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"workspace_id": workspaceID, "user_id": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByWorkspace returns all members of a workspace.
func (s *Store) ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID) ([]models.Member, error) {
	cur, err := s.c.Find(ctx, bson.M{"workspace_id": workspaceID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var members []models.Member
	if err := cur.All(ctx, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// CountByWorkspace returns the member count for a workspace.
func (s *Store) CountByWorkspace(ctx context.Context, workspaceID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"workspace_id": workspaceID})
}

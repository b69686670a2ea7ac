// internal/app/store/workspaces/workspacestore.go
package workspacestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/threadhub/internal/app/system/status"
	"github.com/dalemusser/threadhub/internal/app/system/txn"
	"github.com/dalemusser/threadhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	db      *mongo.Database
	c       *mongo.Collection
	members *mongo.Collection
}

var ErrNotFound = errors.New("workspace not found")

func New(db *mongo.Database) *Store {
	return &Store{
		db:      db,
		c:       db.Collection("workspaces"),
		members: db.Collection("members"),
	}
}

// Create inserts a new workspace and, in the same transaction, the
// creator's Member row with role admin.
func (s *Store) Create(ctx context.Context, name string, createdBy primitive.ObjectID) (models.Workspace, error) {
	now := time.Now().UTC()
	ws := models.Workspace{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		CreatedBy: createdBy,
		Status:    status.Active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	creator := models.Member{
		ID:                primitive.NewObjectID(),
		WorkspaceID:       ws.ID,
		UserID:            createdBy,
		Role:              models.RoleAdmin,
		NotificationLevel: models.NotifyAll,
		CreatedAt:         now,
	}

	err := txn.WithTransaction(ctx, s.db.Client(), func(ctx context.Context) error {
		if _, err := s.c.InsertOne(ctx, ws); err != nil {
			return err
		}
		_, err := s.members.InsertOne(ctx, creator)
		return err
	})
	if err != nil {
		return models.Workspace{}, err
	}
	return ws, nil
}

// GetByID retrieves a workspace by its ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Workspace, error) {
	var ws models.Workspace
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&ws)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Workspace{}, ErrNotFound
	}
	if err != nil {
		return models.Workspace{}, err
	}
	return ws, nil
}

// Rename updates the workspace display name.
func (s *Store) Rename(ctx context.Context, id primitive.ObjectID, name string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"name":       name,
		"name_ci":    text.Fold(name),
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a workspace and cascades to everything it owns:
// members, channels, conversations, messages, direct messages, and
// notifications, all in one transaction.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	return txn.WithTransaction(ctx, s.db.Client(), func(ctx context.Context) error {
		for _, coll := range []string{"members", "channels", "conversations", "messages", "direct_messages", "notifications"} {
			if _, err := s.db.Collection(coll).DeleteMany(ctx, bson.M{"workspace_id": id}); err != nil {
				return err
			}
		}
		res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ListForUser returns the workspaces the user is a member of, newest
// first.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Workspace, error) {
	cur, err := s.members.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var m models.Member
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		ids = append(ids, m.WorkspaceID)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	wcur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer wcur.Close(ctx)

	var out []models.Workspace
	if err := wcur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

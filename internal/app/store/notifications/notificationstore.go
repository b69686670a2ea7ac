// internal/app/store/notifications/notificationstore.go
package notificationstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/threadhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrNotFound = errors.New("notification not found")

// RecentLimit caps how many notifications a listing returns.
const RecentLimit = 50

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("notifications")}
}

// ListRecent returns the user's newest notifications across all
// workspaces, capped at RecentLimit.
func (s *Store) ListRecent(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(RecentLimit)
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var notifs []models.Notification
	if err := cur.All(ctx, &notifs); err != nil {
		return nil, err
	}
	return notifs, nil
}

// MarkRead sets the read timestamp on one notification. Only the
// recipient can mark it, and marking an already-read notification keeps
// the original timestamp.
func (s *Store) MarkRead(ctx context.Context, id, userID primitive.ObjectID) error {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID, "read_at": nil},
		bson.M{"$set": bson.M{"read_at": now}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// Already-read falls through the filter. Re-check existence so
		// only a wrong owner or a bogus id surfaces as not-found.
		n, err := s.c.CountDocuments(ctx, bson.M{"_id": id, "user_id": userID})
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
	}
	return nil
}

// MarkAllRead marks every unread notification the user has in a
// workspace. Idempotent.
func (s *Store) MarkAllRead(ctx context.Context, userID, workspaceID primitive.ObjectID) error {
	now := time.Now().UTC()
	_, err := s.c.UpdateMany(ctx,
		bson.M{"user_id": userID, "workspace_id": workspaceID, "read_at": nil},
		bson.M{"$set": bson.M{"read_at": now}})
	return err
}

// CountUnread returns the user's unread notification count per
// workspace.
func (s *Store) CountUnread(ctx context.Context, userID primitive.ObjectID) (map[primitive.ObjectID]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID, "read_at": nil}}},
		{{Key: "$group", Value: bson.M{"_id": "$workspace_id", "count": bson.M{"$sum": 1}}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	counts := make(map[primitive.ObjectID]int64)
	for cur.Next(ctx) {
		var row struct {
			WorkspaceID primitive.ObjectID `bson:"_id"`
			Count       int64              `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		counts[row.WorkspaceID] = row.Count
	}
	return counts, cur.Err()
}

// CountUnreadInWorkspace returns the user's unread count for one
// workspace.
func (s *Store) CountUnreadInWorkspace(ctx context.Context, userID, workspaceID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"user_id":      userID,
		"workspace_id": workspaceID,
		"read_at":      nil,
	})
}

// DeleteReadBefore removes notifications that were read before the
// cutoff. Unread notifications are never pruned.
func (s *Store) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{
		"read_at": bson.M{"$ne": nil, "$lt": cutoff},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

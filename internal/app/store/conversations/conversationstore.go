// internal/app/store/conversations/conversationstore.go
package conversationstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"github.com/dalemusser/threadhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrNotFound = errors.New("conversation not found")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("conversations")}
}

// GetOrCreate returns actorID's conversation with otherID in a
// workspace, creating it if none exists. Both participants resolve to
// the same document because the pair is stored in canonical order and
// the insert races through the unique index: a concurrent duplicate
// falls back to a lookup of the winner's document. On create the
// actor's read cursor starts at creation time; the other side stays
// unset until they read.
func (s *Store) GetOrCreate(ctx context.Context, workspaceID, actorID, otherID primitive.ObjectID) (models.Conversation, error) {
	if actorID == otherID {
		return models.Conversation{}, apperr.ErrCannotMessageSelf
	}
	a, b := models.SortPair(actorID, otherID)

	filter := bson.M{"workspace_id": workspaceID, "user_a": a, "user_b": b}
	var conv models.Conversation
	err := s.c.FindOne(ctx, filter).Decode(&conv)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Conversation{}, err
	}

	now := time.Now().UTC()
	conv = models.Conversation{
		ID:          primitive.NewObjectID(),
		WorkspaceID: workspaceID,
		UserA:       a,
		UserB:       b,
		CreatedAt:   now,
	}
	if actorID == a {
		conv.LastReadA = &now
	} else {
		conv.LastReadB = &now
	}
	if _, err := s.c.InsertOne(ctx, conv); err != nil {
		if wafflemongo.IsDup(err) {
			// Lost the race; the other insert won.
			if err := s.c.FindOne(ctx, filter).Decode(&conv); err != nil {
				return models.Conversation{}, err
			}
			return conv, nil
		}
		return models.Conversation{}, err
	}
	return conv, nil
}

// GetByID returns a conversation by id.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Conversation, error) {
	var conv models.Conversation
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&conv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Conversation{}, ErrNotFound
	}
	if err != nil {
		return models.Conversation{}, err
	}
	return conv, nil
}

// MarkRead advances userID's read cursor to at, never backward, and
// returns the effective cursor. A stale or repeated call leaves the
// cursor where it is and reports the value that beat it, so retries and
// out-of-order delivery cannot rewind it.
func (s *Store) MarkRead(ctx context.Context, id, userID primitive.ObjectID, at time.Time) (time.Time, error) {
	conv, err := s.GetByID(ctx, id)
	if err != nil {
		return time.Time{}, err
	}
	if !conv.HasParticipant(userID) {
		return time.Time{}, apperr.ErrNotAuthorized
	}

	field := "last_read_a"
	if userID == conv.UserB {
		field = "last_read_b"
	}
	// Filter on the cursor so a concurrent later mark wins.
	filter := bson.M{
		"_id": id,
		"$or": []bson.M{
			{field: bson.M{"$lt": at}},
			{field: bson.M{"$exists": false}},
			{field: nil},
		},
	}
	res, err := s.c.UpdateOne(ctx, filter, bson.M{"$set": bson.M{field: at}})
	if err != nil {
		return time.Time{}, err
	}
	if res.MatchedCount == 1 {
		return at, nil
	}
	conv, err = s.GetByID(ctx, id)
	if err != nil {
		return time.Time{}, err
	}
	if cur := conv.LastReadFor(userID); cur != nil {
		return *cur, nil
	}
	return at, nil
}

// ListForUser returns every conversation the user participates in within
// a workspace, newest first.
func (s *Store) ListForUser(ctx context.Context, workspaceID, userID primitive.ObjectID) ([]models.Conversation, error) {
	filter := bson.M{
		"workspace_id": workspaceID,
		"$or":          []bson.M{{"user_a": userID}, {"user_b": userID}},
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var convs []models.Conversation
	if err := cur.All(ctx, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

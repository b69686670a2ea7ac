// internal/app/store/channels/channelstore.go
package channelstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/threadhub/internal/app/system/normalize"
	"github.com/dalemusser/threadhub/internal/app/system/txn"
	"github.com/dalemusser/threadhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	db *mongo.Database
	c  *mongo.Collection
}

var (
	ErrDuplicateName = errors.New("a channel with this name already exists in the workspace")
	ErrNotFound      = errors.New("channel not found")
	ErrEmptyName     = errors.New("channel name is required")
)

func New(db *mongo.Database) *Store {
	return &Store{db: db, c: db.Collection("channels")}
}

// Create adds a channel to a workspace. Names are unique per workspace,
// case-insensitively.
func (s *Store) Create(ctx context.Context, workspaceID primitive.ObjectID, name, topic string, createdBy primitive.ObjectID) (models.Channel, error) {
	name = normalize.ChannelName(name)
	if name == "" {
		return models.Channel{}, ErrEmptyName
	}

	ch := models.Channel{
		ID:          primitive.NewObjectID(),
		WorkspaceID: workspaceID,
		Name:        name,
		NameCI:      text.Fold(name),
		Topic:       normalize.Name(topic),
		CreatedBy:   createdBy,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, ch); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Channel{}, ErrDuplicateName
		}
		return models.Channel{}, err
	}
	return ch, nil
}

// GetByID returns a channel by id.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Channel, error) {
	var ch models.Channel
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&ch)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Channel{}, ErrNotFound
	}
	if err != nil {
		return models.Channel{}, err
	}
	return ch, nil
}

// Update changes a channel's name and/or topic. Empty name keeps the
// current one.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, name, topic string) error {
	set := bson.M{"topic": normalize.Name(topic)}
	if name = normalize.ChannelName(name); name != "" {
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateName
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a channel along with its messages and any notifications
// that point into it.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	return txn.WithTransaction(ctx, s.db.Client(), func(sc context.Context) error {
		res, err := s.c.DeleteOne(sc, bson.M{"_id": id})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return ErrNotFound
		}
		if _, err := s.db.Collection("messages").DeleteMany(sc, bson.M{"channel_id": id}); err != nil {
			return err
		}
		_, err = s.db.Collection("notifications").DeleteMany(sc, bson.M{"channel_id": id})
		return err
	})
}

// ListByWorkspace returns a workspace's channels sorted by name.
func (s *Store) ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID) ([]models.Channel, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"workspace_id": workspaceID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var channels []models.Channel
	if err := cur.All(ctx, &channels); err != nil {
		return nil, err
	}
	return channels, nil
}

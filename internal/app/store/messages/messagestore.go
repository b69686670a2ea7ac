// internal/app/store/messages/messagestore.go
package messagestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"github.com/dalemusser/threadhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/threadhub/internal/app/system/paging"
	"github.com/dalemusser/threadhub/internal/app/system/richtext"
	"github.com/dalemusser/threadhub/internal/app/system/txn"
	"github.com/dalemusser/threadhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	db *mongo.Database
	c  *mongo.Collection
}

var ErrNotFound = errors.New("message not found")

func New(db *mongo.Database) *Store {
	return &Store{db: db, c: db.Collection("messages")}
}

// Send posts a message to a channel. The body is sanitized before
// storage, and mention notifications for eligible members are written
// in the same transaction as the message, so a send either lands with
// all of its notifications or not at all.
//
// The caller is expected to have already verified channel membership.
func (s *Store) Send(ctx context.Context, workspaceID, channelID, authorID primitive.ObjectID, body, imageID string) (models.Message, error) {
	body = htmlsanitize.Sanitize(body)
	if strings.TrimSpace(richtext.PlainText(body)) == "" && imageID == "" {
		return models.Message{}, apperr.ErrEmptyMessage
	}

	msg := models.Message{
		ID:          primitive.NewObjectID(),
		WorkspaceID: workspaceID,
		ChannelID:   channelID,
		AuthorID:    authorID,
		Body:        body,
		ImageID:     imageID,
		CreatedAt:   time.Now().UTC(),
	}

	notifs, err := s.mentionNotifications(ctx, msg)
	if err != nil {
		return models.Message{}, err
	}

	err = txn.WithTransaction(ctx, s.db.Client(), func(sc context.Context) error {
		if _, err := s.c.InsertOne(sc, msg); err != nil {
			return err
		}
		if len(notifs) == 0 {
			return nil
		}
		docs := make([]interface{}, len(notifs))
		for i := range notifs {
			docs[i] = notifs[i]
		}
		_, err := s.db.Collection("notifications").InsertMany(sc, docs)
		return err
	})
	if err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// mentionNotifications builds the notification documents a message's
// mentions produce. Only mentioned users who are members of the
// workspace, are not the author, and whose preferences admit mention
// notifications get one.
func (s *Store) mentionNotifications(ctx context.Context, msg models.Message) ([]models.Notification, error) {
	mentioned := richtext.MentionUserIDs(msg.Body)
	if len(mentioned) == 0 {
		return nil, nil
	}

	cur, err := s.db.Collection("members").Find(ctx, bson.M{
		"workspace_id": msg.WorkspaceID,
		"user_id":      bson.M{"$in": mentioned},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var members []models.Member
	if err := cur.All(ctx, &members); err != nil {
		return nil, err
	}

	preview := richtext.Preview(msg.Body, models.PreviewMaxLen)
	var notifs []models.Notification
	for _, m := range members {
		if m.UserID == msg.AuthorID || !m.WantsNotification(models.NotificationTypeMention) {
			continue
		}
		notifs = append(notifs, models.Notification{
			ID:          primitive.NewObjectID(),
			UserID:      m.UserID,
			WorkspaceID: msg.WorkspaceID,
			Type:        models.NotificationTypeMention,
			FromUserID:  msg.AuthorID,
			ChannelID:   &msg.ChannelID,
			MessageID:   &msg.ID,
			Preview:     preview,
			CreatedAt:   msg.CreatedAt,
		})
	}
	return notifs, nil
}

// GetByID returns a message by id.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Message, error) {
	var msg models.Message
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&msg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Message{}, ErrNotFound
	}
	if err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// Edit replaces a message's body. Only the author may edit, and an
// edit cannot empty out a text-only message. Edits do not re-run
// mention fan-out.
func (s *Store) Edit(ctx context.Context, id, actorID primitive.ObjectID, body string) (models.Message, error) {
	msg, err := s.GetByID(ctx, id)
	if err != nil {
		return models.Message{}, err
	}
	if msg.AuthorID != actorID {
		return models.Message{}, apperr.ErrNotAuthorized
	}

	body = htmlsanitize.Sanitize(body)
	if strings.TrimSpace(richtext.PlainText(body)) == "" && msg.ImageID == "" {
		return models.Message{}, apperr.ErrEmptyMessage
	}

	now := time.Now().UTC()
	if _, err := s.c.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"body": body, "updated_at": now}}); err != nil {
		return models.Message{}, err
	}
	msg.Body = body
	msg.UpdatedAt = &now
	return msg, nil
}

// Delete removes a message. Authors delete their own; admins delete
// any. Notifications that point at the message are removed in the same
// transaction so no alert survives its subject.
func (s *Store) Delete(ctx context.Context, id, actorID primitive.ObjectID, actorIsAdmin bool) error {
	msg, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if msg.AuthorID != actorID && !actorIsAdmin {
		return apperr.ErrNotAuthorized
	}

	return txn.WithTransaction(ctx, s.db.Client(), func(sc context.Context) error {
		if _, err := s.c.DeleteOne(sc, bson.M{"_id": id}); err != nil {
			return err
		}
		_, err := s.db.Collection("notifications").DeleteMany(sc, bson.M{"message_id": id})
		return err
	})
}

// ToggleReaction toggles (emoji, actor) on a message and returns the
// updated message. Malformed stored reactions are dropped in passing.
func (s *Store) ToggleReaction(ctx context.Context, id, actorID primitive.ObjectID, emoji string) (models.Message, error) {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		return models.Message{}, apperr.ErrValidation
	}

	msg, err := s.GetByID(ctx, id)
	if err != nil {
		return models.Message{}, err
	}
	msg.Reactions = models.ToggleReaction(msg.Reactions, emoji, actorID)
	if _, err := s.c.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"reactions": msg.Reactions}}); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// List returns a channel's messages oldest first.
func (s *Store) List(ctx context.Context, channelID primitive.ObjectID) ([]models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"channel_id": channelID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var msgs []models.Message
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// ListPage returns one page of a channel's messages, newest first.
// Pass a zero before to start at the newest; pass the last id of the
// previous page to continue. hasMore reports whether older messages
// remain.
func (s *Store) ListPage(ctx context.Context, channelID primitive.ObjectID, before primitive.ObjectID) (msgs []models.Message, hasMore bool, err error) {
	filter := bson.M{"channel_id": channelID}
	if !before.IsZero() {
		filter["_id"] = bson.M{"$lt": before}
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetLimit(paging.LimitPlusOne())

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, false, err
	}
	defer cur.Close(ctx)

	if err := cur.All(ctx, &msgs); err != nil {
		return nil, false, err
	}
	hasMore = paging.TrimPage(&msgs).HasMore
	return msgs, hasMore, nil
}

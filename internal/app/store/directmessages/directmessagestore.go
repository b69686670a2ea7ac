// internal/app/store/directmessages/directmessagestore.go
package directmessagestore

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

var ErrNotFound = errors.New("direct message not found")

// imagePreview stands in for the body preview when a direct message
// carries only an image.
const imagePreview = "Sent an image"

func New(db *mongo.Database) *Store {
	return &Store{db: db, c: db.Collection("direct_messages")}
}

// Send posts a direct message into a conversation. In one transaction
// it inserts the message, notifies the other participant (if their
// preferences admit DM notifications), and advances the sender's own
// read cursor so a sender never shows unread for their own message.
//
// The caller is expected to have already verified the sender is a
// participant of conv.
func (s *Store) Send(ctx context.Context, conv models.Conversation, authorID primitive.ObjectID, body, imageID string) (models.DirectMessage, error) {
	body = htmlsanitize.Sanitize(body)
	if strings.TrimSpace(richtext.PlainText(body)) == "" && imageID == "" {
		return models.DirectMessage{}, apperr.ErrEmptyMessage
	}

	dm := models.DirectMessage{
		ID:             primitive.NewObjectID(),
		WorkspaceID:    conv.WorkspaceID,
		ConversationID: conv.ID,
		AuthorID:       authorID,
		Body:           body,
		ImageID:        imageID,
		CreatedAt:      time.Now().UTC(),
	}

	notif, err := s.recipientNotification(ctx, conv, dm)
	if err != nil {
		return models.DirectMessage{}, err
	}

	cursorField := "last_read_a"
	if authorID == conv.UserB {
		cursorField = "last_read_b"
	}

	err = txn.WithTransaction(ctx, s.db.Client(), func(sc context.Context) error {
		if _, err := s.c.InsertOne(sc, dm); err != nil {
			return err
		}
		// Forward-only: a concurrent later mark must not be rewound.
		cursorFilter := bson.M{
			"_id": conv.ID,
			"$or": []bson.M{
				{cursorField: bson.M{"$lt": dm.CreatedAt}},
				{cursorField: bson.M{"$exists": false}},
				{cursorField: nil},
			},
		}
		if _, err := s.db.Collection("conversations").UpdateOne(sc, cursorFilter,
			bson.M{"$set": bson.M{cursorField: dm.CreatedAt}}); err != nil {
			return err
		}
		if notif == nil {
			return nil
		}
		_, err := s.db.Collection("notifications").InsertOne(sc, *notif)
		return err
	})
	if err != nil {
		return models.DirectMessage{}, err
	}
	return dm, nil
}

// recipientNotification builds the DM notification for the participant
// opposite the author, or nil when their preferences suppress it.
func (s *Store) recipientNotification(ctx context.Context, conv models.Conversation, dm models.DirectMessage) (*models.Notification, error) {
	recipient := conv.Other(dm.AuthorID)

	var member models.Member
	err := s.db.Collection("members").FindOne(ctx, bson.M{
		"workspace_id": conv.WorkspaceID,
		"user_id":      recipient,
	}).Decode(&member)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Recipient left the workspace; the message still lands.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !member.WantsNotification(models.NotificationTypeDM) {
		return nil, nil
	}

	preview := richtext.Preview(dm.Body, models.PreviewMaxLen)
	if preview == "" && dm.ImageID != "" {
		preview = imagePreview
	}
	return &models.Notification{
		ID:              primitive.NewObjectID(),
		UserID:          recipient,
		WorkspaceID:     conv.WorkspaceID,
		Type:            models.NotificationTypeDM,
		FromUserID:      dm.AuthorID,
		ConversationID:  &conv.ID,
		DirectMessageID: &dm.ID,
		Preview:         preview,
		CreatedAt:       dm.CreatedAt,
	}, nil
}

// GetByID returns a direct message by id.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.DirectMessage, error) {
	var dm models.DirectMessage
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&dm)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.DirectMessage{}, ErrNotFound
	}
	if err != nil {
		return models.DirectMessage{}, err
	}
	return dm, nil
}

// Edit replaces a direct message's body. Author only; cannot empty out
// a text-only message.
func (s *Store) Edit(ctx context.Context, id, actorID primitive.ObjectID, body string) (models.DirectMessage, error) {
	dm, err := s.GetByID(ctx, id)
	if err != nil {
		return models.DirectMessage{}, err
	}
	if dm.AuthorID != actorID {
		return models.DirectMessage{}, apperr.ErrNotAuthorized
	}

	body = htmlsanitize.Sanitize(body)
	if strings.TrimSpace(richtext.PlainText(body)) == "" && dm.ImageID == "" {
		return models.DirectMessage{}, apperr.ErrEmptyMessage
	}

	now := time.Now().UTC()
	if _, err := s.c.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"body": body, "updated_at": now}}); err != nil {
		return models.DirectMessage{}, err
	}
	dm.Body = body
	dm.UpdatedAt = &now
	return dm, nil
}

// Delete removes a direct message along with its notification. Author
// only; there is no admin override inside a private conversation.
func (s *Store) Delete(ctx context.Context, id, actorID primitive.ObjectID) error {
	dm, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if dm.AuthorID != actorID {
		return apperr.ErrNotAuthorized
	}

	return txn.WithTransaction(ctx, s.db.Client(), func(sc context.Context) error {
		if _, err := s.c.DeleteOne(sc, bson.M{"_id": id}); err != nil {
			return err
		}
		_, err := s.db.Collection("notifications").DeleteMany(sc, bson.M{"direct_message_id": id})
		return err
	})
}

// ToggleReaction toggles (emoji, actor) on a direct message and returns
// the updated message.
func (s *Store) ToggleReaction(ctx context.Context, id, actorID primitive.ObjectID, emoji string) (models.DirectMessage, error) {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		return models.DirectMessage{}, apperr.ErrValidation
	}

	dm, err := s.GetByID(ctx, id)
	if err != nil {
		return models.DirectMessage{}, err
	}
	dm.Reactions = models.ToggleReaction(dm.Reactions, emoji, actorID)
	if _, err := s.c.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"reactions": dm.Reactions}}); err != nil {
		return models.DirectMessage{}, err
	}
	return dm, nil
}

// List returns a conversation's messages oldest first.
func (s *Store) List(ctx context.Context, conversationID primitive.ObjectID) ([]models.DirectMessage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"conversation_id": conversationID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var dms []models.DirectMessage
	if err := cur.All(ctx, &dms); err != nil {
		return nil, err
	}
	return dms, nil
}

// ListPage returns one page of a conversation's messages, newest first,
// with before-id keyset continuation.
func (s *Store) ListPage(ctx context.Context, conversationID primitive.ObjectID, before primitive.ObjectID) (dms []models.DirectMessage, hasMore bool, err error) {
	filter := bson.M{"conversation_id": conversationID}
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

	if err := cur.All(ctx, &dms); err != nil {
		return nil, false, err
	}
	hasMore = paging.TrimPage(&dms).HasMore
	return dms, hasMore, nil
}

// CountUnreadFor returns how many messages in the conversation arrived
// after userID's read cursor, not counting their own.
func (s *Store) CountUnreadFor(ctx context.Context, conv models.Conversation, userID primitive.ObjectID) (int64, error) {
	filter := bson.M{
		"conversation_id": conv.ID,
		"author_id":       bson.M{"$ne": userID},
	}
	if last := conv.LastReadFor(userID); last != nil {
		filter["created_at"] = bson.M{"$gt": *last}
	}
	return s.c.CountDocuments(ctx, filter)
}

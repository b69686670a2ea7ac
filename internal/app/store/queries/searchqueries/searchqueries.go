// Package searchqueries provides read-only recency-window search over
// channel messages and direct messages.
package searchqueries

import (
	"context"
	"strings"

	"github.com/dalemusser/threadhub/internal/app/system/richtext"
	"github.com/dalemusser/threadhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MaxResults caps how many matches of each kind one search returns.
const MaxResults = 20

// Results holds one search's matches, each kind in recency order
// (newest first).
type Results struct {
	Messages       []models.Message       `json:"messages"`
	DirectMessages []models.DirectMessage `json:"direct_messages"`
}

// SearchMessagesAndDMs scans the most recent messages of a workspace
// for a case-insensitive substring of their visible text. It is bounded
// on purpose: only a recency window of documents per kind is examined
// (scaled off the requested limit), so old history falls out of reach
// rather than growing the scan. Direct messages are restricted to
// conversations the searching user participates in.
//
// An empty or whitespace-only query returns empty results. The caller
// is expected to have already verified workspace membership.
func SearchMessagesAndDMs(
	ctx context.Context,
	db *mongo.Database,
	workspaceID, userID primitive.ObjectID,
	query string,
	limit int,
) (Results, error) {
	var res Results

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return res, nil
	}
	if limit <= 0 || limit > MaxResults {
		limit = MaxResults
	}
	window := scanWindow(limit)

	msgs, err := recentMessages(ctx, db, workspaceID, window)
	if err != nil {
		return res, err
	}
	for _, m := range msgs {
		if len(res.Messages) == limit {
			break
		}
		if matches(m.Body, query) {
			res.Messages = append(res.Messages, m)
		}
	}

	convIDs, err := participantConversationIDs(ctx, db, workspaceID, userID)
	if err != nil {
		return res, err
	}
	if len(convIDs) == 0 {
		return res, nil
	}

	dms, err := recentDirectMessages(ctx, db, convIDs, window)
	if err != nil {
		return res, err
	}
	for _, dm := range dms {
		if len(res.DirectMessages) == limit {
			break
		}
		if matches(dm.Body, query) {
			res.DirectMessages = append(res.DirectMessages, dm)
		}
	}
	return res, nil
}

// scanWindow sizes the per-kind recency window: 60 documents per
// requested result, clamped to [50, 600].
func scanWindow(limit int) int64 {
	w := limit * 60
	if w < 50 {
		w = 50
	}
	if w > 600 {
		w = 600
	}
	return int64(w)
}

func matches(body, query string) bool {
	return strings.Contains(strings.ToLower(richtext.PlainText(body)), query)
}

func recentMessages(ctx context.Context, db *mongo.Database, workspaceID primitive.ObjectID, window int64) ([]models.Message, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(window)
	cur, err := db.Collection("messages").Find(ctx, bson.M{"workspace_id": workspaceID}, opts)
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

func recentDirectMessages(ctx context.Context, db *mongo.Database, convIDs []primitive.ObjectID, window int64) ([]models.DirectMessage, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(window)
	cur, err := db.Collection("direct_messages").Find(ctx,
		bson.M{"conversation_id": bson.M{"$in": convIDs}}, opts)
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

func participantConversationIDs(ctx context.Context, db *mongo.Database, workspaceID, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	filter := bson.M{
		"workspace_id": workspaceID,
		"$or":          []bson.M{{"user_a": userID}, {"user_b": userID}},
	}
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cur, err := db.Collection("conversations").Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.ID)
	}
	return ids, cur.Err()
}

// Package guard resolves caller membership before any state change.
//
// Every mutating operation calls the narrowest applicable guard before
// its first write; the guards fail loudly with apperr sentinels. Read
// paths do NOT call these — a reader who lacks access gets an empty
// result from the query itself, never an authorization error (see
// apperr's package comment for why).
package guard

import (
	"context"
	"errors"

	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"github.com/dalemusser/threadhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// RequireMember returns the caller's Member row in the workspace, or
// ErrNotAuthenticated / ErrNotAuthorized.
func RequireMember(ctx context.Context, db *mongo.Database, userID, workspaceID primitive.ObjectID) (models.Member, error) {
	if userID.IsZero() {
		return models.Member{}, apperr.ErrNotAuthenticated
	}

	var m models.Member
	err := db.Collection("members").FindOne(ctx, bson.M{
		"workspace_id": workspaceID,
		"user_id":      userID,
	}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Member{}, apperr.ErrNotAuthorized
	}
	if err != nil {
		return models.Member{}, err
	}
	return m, nil
}

// RequireAdmin is RequireMember plus an admin-role check.
func RequireAdmin(ctx context.Context, db *mongo.Database, userID, workspaceID primitive.ObjectID) (models.Member, error) {
	m, err := RequireMember(ctx, db, userID, workspaceID)
	if err != nil {
		return models.Member{}, err
	}
	if !m.IsAdmin() {
		return models.Member{}, apperr.ErrNotAuthorized
	}
	return m, nil
}

// RequireChannelMember resolves the channel, then requires membership
// in the channel's workspace. Returns both so callers don't re-fetch.
func RequireChannelMember(ctx context.Context, db *mongo.Database, userID, channelID primitive.ObjectID) (models.Member, models.Channel, error) {
	if userID.IsZero() {
		return models.Member{}, models.Channel{}, apperr.ErrNotAuthenticated
	}

	var ch models.Channel
	err := db.Collection("channels").FindOne(ctx, bson.M{"_id": channelID}).Decode(&ch)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Member{}, models.Channel{}, apperr.ErrNotFound
	}
	if err != nil {
		return models.Member{}, models.Channel{}, err
	}

	m, err := RequireMember(ctx, db, userID, ch.WorkspaceID)
	if err != nil {
		return models.Member{}, models.Channel{}, err
	}
	return m, ch, nil
}

// RequireConversationParticipant resolves the conversation, requires
// workspace membership, and additionally requires the caller to be one
// of the two participants.
func RequireConversationParticipant(ctx context.Context, db *mongo.Database, userID, conversationID primitive.ObjectID) (models.Member, models.Conversation, error) {
	if userID.IsZero() {
		return models.Member{}, models.Conversation{}, apperr.ErrNotAuthenticated
	}

	var conv models.Conversation
	err := db.Collection("conversations").FindOne(ctx, bson.M{"_id": conversationID}).Decode(&conv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Member{}, models.Conversation{}, apperr.ErrNotFound
	}
	if err != nil {
		return models.Member{}, models.Conversation{}, err
	}

	if !conv.HasParticipant(userID) {
		return models.Member{}, models.Conversation{}, apperr.ErrNotAuthorized
	}

	m, err := RequireMember(ctx, db, userID, conv.WorkspaceID)
	if err != nil {
		return models.Member{}, models.Conversation{}, err
	}
	return m, conv, nil
}

// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	// helper: ensure collection exists (with truthful logging) and then validator (if provided)
	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			// DocumentDB or other deployments may not support collMod/validators.
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	// Core collections this app uses
	ensure("users", usersSchema())
	ensure("workspaces", workspacesSchema())
	ensure("members", membersSchema())
	ensure("channels", channelsSchema())

	// Messaging collections
	ensure("messages", messagesSchema())
	ensure("conversations", conversationsSchema())
	ensure("direct_messages", directMessagesSchema())
	ensure("notifications", notificationsSchema())

	// These don't strictly need validators; we still ensure the collections exist.
	ensure("oauth_states", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"full_name", "email"},
			"properties": bson.M{
				"full_name":    bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"full_name_ci": bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"email":        bson.M{"bsonType": "string", "minLength": 3},
				"auth_method":  bson.M{"enum": bson.A{"internal", "google"}},
				"status":       bson.M{"enum": bson.A{"active", "disabled"}},
			},
		},
	}
}

func workspacesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci", "created_by", "status"},
			"properties": bson.M{
				"name":       bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"name_ci":    bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"created_by": bson.M{"bsonType": "objectId"},
				"status":     bson.M{"enum": bson.A{"active"}},
			},
		},
	}
}

func membersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"workspace_id", "user_id", "role"},
			"properties": bson.M{
				"workspace_id":       bson.M{"bsonType": "objectId"},
				"user_id":            bson.M{"bsonType": "objectId"},
				"role":               bson.M{"enum": bson.A{"admin", "member"}},
				"notification_level": bson.M{"enum": bson.A{"all", "mentions", "none"}},
				"muted":              bson.M{"bsonType": "bool"},
				"created_at":         bson.M{"bsonType": "date"},
			},
		},
	}
}

func channelsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"workspace_id", "name", "name_ci", "created_by"},
			"properties": bson.M{
				"workspace_id": bson.M{"bsonType": "objectId"},
				"name":         bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"name_ci":      bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"topic":        bson.M{"bsonType": "string"},
				"created_by":   bson.M{"bsonType": "objectId"},
			},
		},
	}
}

func messagesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"workspace_id", "channel_id", "author_id", "created_at"},
			"properties": bson.M{
				"workspace_id": bson.M{"bsonType": "objectId"},
				"channel_id":   bson.M{"bsonType": "objectId"},
				"author_id":    bson.M{"bsonType": "objectId"},
				"body":         bson.M{"bsonType": "string"},
				"image_id":     bson.M{"bsonType": "string"},
				"reactions":    bson.M{"bsonType": "array"},
				"created_at":   bson.M{"bsonType": "date"},
				"updated_at":   bson.M{"bsonType": "date"},
			},
		},
	}
}

func conversationsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"workspace_id", "user_a", "user_b", "created_at"},
			"properties": bson.M{
				"workspace_id": bson.M{"bsonType": "objectId"},
				"user_a":       bson.M{"bsonType": "objectId"},
				"user_b":       bson.M{"bsonType": "objectId"},
				"last_read_a":  bson.M{"bsonType": "date"},
				"last_read_b":  bson.M{"bsonType": "date"},
				"created_at":   bson.M{"bsonType": "date"},
			},
		},
	}
}

func directMessagesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"workspace_id", "conversation_id", "author_id", "created_at"},
			"properties": bson.M{
				"workspace_id":    bson.M{"bsonType": "objectId"},
				"conversation_id": bson.M{"bsonType": "objectId"},
				"author_id":       bson.M{"bsonType": "objectId"},
				"body":            bson.M{"bsonType": "string"},
				"image_id":        bson.M{"bsonType": "string"},
				"reactions":       bson.M{"bsonType": "array"},
				"created_at":      bson.M{"bsonType": "date"},
				"updated_at":      bson.M{"bsonType": "date"},
			},
		},
	}
}

func notificationsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"user_id", "workspace_id", "type", "from_user_id", "created_at"},
			"properties": bson.M{
				"user_id":           bson.M{"bsonType": "objectId"},
				"workspace_id":      bson.M{"bsonType": "objectId"},
				"type":              bson.M{"enum": bson.A{"mention", "dm"}},
				"from_user_id":      bson.M{"bsonType": "objectId"},
				"channel_id":        bson.M{"bsonType": "objectId"},
				"message_id":        bson.M{"bsonType": "objectId"},
				"conversation_id":   bson.M{"bsonType": "objectId"},
				"direct_message_id": bson.M{"bsonType": "objectId"},
				"preview":           bson.M{"bsonType": "string"},
				"created_at":        bson.M{"bsonType": "date"},
				"read_at":           bson.M{"bsonType": bson.A{"date", "null"}},
			},
		},
	}
}

// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
Errors are aggregated so any problem is visible and startup can fail
fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureWorkspaces(ctx, db); err != nil {
		problems = append(problems, "workspaces: "+err.Error())
	}
	if err := ensureMembers(ctx, db); err != nil {
		problems = append(problems, "members: "+err.Error())
	}
	if err := ensureChannels(ctx, db); err != nil {
		problems = append(problems, "channels: "+err.Error())
	}
	if err := ensureConversations(ctx, db); err != nil {
		problems = append(problems, "conversations: "+err.Error())
	}
	if err := ensureMessages(ctx, db); err != nil {
		problems = append(problems, "messages: "+err.Error())
	}
	if err := ensureDirectMessages(ctx, db); err != nil {
		problems = append(problems, "direct_messages: "+err.Error())
	}
	if err := ensureNotifications(ctx, db); err != nil {
		problems = append(problems, "notifications: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("users"), []mongo.IndexModel{
		// Email must be unique across all users.
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
		},
	})
}

func ensureWorkspaces(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("workspaces"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("idx_ws_nameci"),
		},
	})
}

func ensureMembers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("members"), []mongo.IndexModel{
		// Uniqueness: exactly one membership per (workspace, user) —
		// role and preferences are scalars; update the doc to change them.
		{
			Keys:    bson.D{{Key: "workspace_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_members_ws_user"),
		},
		// Fast: list a user's workspaces.
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "workspace_id", Value: 1}},
			Options: options.Index().SetName("idx_members_user_ws"),
		},
	})
}

func ensureChannels(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("channels"), []mongo.IndexModel{
		// Channel names unique per workspace, case-insensitive.
		{
			Keys:    bson.D{{Key: "workspace_id", Value: 1}, {Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_channels_ws_nameci"),
		},
	})
}

func ensureConversations(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("conversations"), []mongo.IndexModel{
		// The canonical pair is the conversation's identity: exactly one
		// document per (workspace, user_a, user_b) with user_a < user_b.
		// This unique index is what makes concurrent get-or-create calls
		// from both participants converge on a single row.
		{
			Keys: bson.D{
				{Key: "workspace_id", Value: 1},
				{Key: "user_a", Value: 1},
				{Key: "user_b", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("uniq_conv_ws_pair"),
		},
		// Fast: list a user's conversations from either side.
		{
			Keys:    bson.D{{Key: "workspace_id", Value: 1}, {Key: "user_a", Value: 1}},
			Options: options.Index().SetName("idx_conv_ws_usera"),
		},
		{
			Keys:    bson.D{{Key: "workspace_id", Value: 1}, {Key: "user_b", Value: 1}},
			Options: options.Index().SetName("idx_conv_ws_userb"),
		},
	})
}

func ensureMessages(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("messages"), []mongo.IndexModel{
		// Channel history, both ascending loads and descending pages.
		{
			Keys:    bson.D{{Key: "channel_id", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_msgs_channel_id"),
		},
		// Recency-windowed search scans per workspace.
		{
			Keys:    bson.D{{Key: "workspace_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_msgs_ws_createdat"),
		},
	})
}

func ensureDirectMessages(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("direct_messages"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "conversation_id", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_dms_conv_id"),
		},
		{
			Keys:    bson.D{{Key: "workspace_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_dms_ws_createdat"),
		},
	})
}

func ensureNotifications(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("notifications"), []mongo.IndexModel{
		// Unread counts: (user, workspace, read_at) so the
		// read_at-absent count is index-only.
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "workspace_id", Value: 1},
				{Key: "read_at", Value: 1},
			},
			Options: options.Index().SetName("idx_notif_user_ws_readat"),
		},
		// Recency lists per user.
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_notif_user_createdat"),
		},
		// Cascade deletes by source message.
		{
			Keys:    bson.D{{Key: "message_id", Value: 1}},
			Options: options.Index().SetName("idx_notif_message"),
		},
		{
			Keys:    bson.D{{Key: "direct_message_id", Value: 1}},
			Options: options.Index().SetName("idx_notif_dm"),
		},
	})
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	av := a != nil && *a
	bv := b != nil && *b
	return av == bv
}

// Mongo/DocDB sometimes returns IndexOptionsConflict when an index with
// the same keys already exists under a different name.
func isOptionsConflictErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "IndexOptionsConflict")
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			if m.Options.Unique != nil {
				desiredUnique = m.Options.Unique
			}
		}
		desiredSig := keySig(m.Keys.(bson.D))
		start := time.Now()

		existing := map[string]existingIndex{} // sig -> index
		cur, err := coll.Indexes().List(ctx)
		if err == nil {
			for cur.Next(ctx) {
				var idx existingIndex
				if derr := cur.Decode(&idx); derr != nil {
					continue
				}
				existing[keySig(idx.Key)] = idx
			}
			cur.Close(ctx)
		}

		if ex, ok := existing[desiredSig]; ok {
			if sameBoolPtr(desiredUnique, ex.Unique) {
				zap.L().Debug("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", desiredSig))
				continue
			}
			// Options mismatch (e.g., upgrading to unique). Drop & recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isOptionsConflictErr(err) {
				// Same keys under a different name; leave it in place.
				zap.L().Warn("index options conflict; keeping existing",
					zap.String("collection", coll.Name()),
					zap.String("keys", desiredSig))
				continue
			}
			errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
			continue
		}

		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig),
			zap.Bool("unique", desiredUnique != nil && *desiredUnique),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

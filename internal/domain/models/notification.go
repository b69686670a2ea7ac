// internal/domain/models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification type values.
const (
	NotificationTypeDM      = "dm"
	NotificationTypeMention = "mention"
)

// PreviewMaxLen is the maximum length of a notification preview.
const PreviewMaxLen = 140

// Notification is one alert delivered to one member. Immutable except
// for ReadAt, which transitions once from nil to set; marking an
// already-read notification again is a no-op.
//
// Exactly one of (ChannelID, MessageID) or (ConversationID,
// DirectMessageID) is populated, matching Type.
type Notification struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"user_id" json:"user_id"` // the recipient
	WorkspaceID primitive.ObjectID `bson:"workspace_id" json:"workspace_id"`
	Type        string             `bson:"type" json:"type"` // "dm" | "mention"
	FromUserID  primitive.ObjectID `bson:"from_user_id" json:"from_user_id"`

	ChannelID       *primitive.ObjectID `bson:"channel_id,omitempty" json:"channel_id,omitempty"`
	MessageID       *primitive.ObjectID `bson:"message_id,omitempty" json:"message_id,omitempty"`
	ConversationID  *primitive.ObjectID `bson:"conversation_id,omitempty" json:"conversation_id,omitempty"`
	DirectMessageID *primitive.ObjectID `bson:"direct_message_id,omitempty" json:"direct_message_id,omitempty"`

	Preview string `bson:"preview,omitempty" json:"preview,omitempty"` // plain text, at most PreviewMaxLen chars

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	ReadAt    *time.Time `bson:"read_at,omitempty" json:"read_at,omitempty"`
}

// IsRead reports whether the notification has been read.
func (n Notification) IsRead() bool { return n.ReadAt != nil }

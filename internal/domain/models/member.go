// internal/domain/models/member.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Member role values.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Notification level values for a member.
const (
	NotifyAll      = "all"      // every eligible notification is delivered
	NotifyMentions = "mentions" // only @-mention notifications
	NotifyNone     = "none"     // nothing is delivered
)

// Member is the authoritative join between users and workspaces.
// Exactly one document per (workspace_id, user_id); role is a scalar
// ("admin"|"member"). Notification fan-out consults Muted and
// NotificationLevel before emitting a record for this member.
type Member struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkspaceID primitive.ObjectID `bson:"workspace_id" json:"workspace_id"`
	UserID      primitive.ObjectID `bson:"user_id" json:"user_id"`
	Role        string             `bson:"role" json:"role"` // "admin" | "member"

	Muted             bool   `bson:"muted" json:"muted"`
	NotificationLevel string `bson:"notification_level" json:"notification_level"` // "all" | "mentions" | "none"

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// IsAdmin reports whether the member holds the admin role.
func (m Member) IsAdmin() bool { return m.Role == RoleAdmin }

// WantsNotification reports whether a notification of the given type
// should be delivered to this member. Muted members and members with
// level "none" receive nothing; level "mentions" receives mention
// notifications only.
func (m Member) WantsNotification(notifType string) bool {
	if m.Muted {
		return false
	}
	switch m.NotificationLevel {
	case NotifyNone:
		return false
	case NotifyMentions:
		return notifType == NotificationTypeMention
	default:
		return true
	}
}

// IsValidRole reports whether role is one of the member role values.
func IsValidRole(role string) bool {
	return role == RoleAdmin || role == RoleMember
}

// IsValidNotificationLevel reports whether level is a known setting.
func IsValidNotificationLevel(level string) bool {
	return level == NotifyAll || level == NotifyMentions || level == NotifyNone
}

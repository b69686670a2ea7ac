// internal/domain/models/message.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reaction is one (emoji, user) pair on a message. The stored list has
// no schema-level uniqueness; the toggle operation enforces at most one
// entry per (emoji, user_id) pair.
type Reaction struct {
	Emoji  string             `bson:"emoji" json:"emoji"`
	UserID primitive.ObjectID `bson:"user_id" json:"user_id"`
}

// Valid reports whether the reaction has both an emoji and a user.
// Malformed entries are skipped on read and dropped on toggle.
func (r Reaction) Valid() bool {
	return r.Emoji != "" && !r.UserID.IsZero()
}

// Message is a channel-scoped message. Body is sanitized HTML; ImageID
// is an opaque blob-storage path. At least one of the two must be
// present.
type Message struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkspaceID primitive.ObjectID `bson:"workspace_id" json:"workspace_id"`
	ChannelID   primitive.ObjectID `bson:"channel_id" json:"channel_id"`
	AuthorID    primitive.ObjectID `bson:"author_id" json:"author_id"`

	Body    string `bson:"body,omitempty" json:"body,omitempty"`
	ImageID string `bson:"image_id,omitempty" json:"image_id,omitempty"`

	Reactions []Reaction `bson:"reactions,omitempty" json:"reactions,omitempty"`

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt *time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// DirectMessage is a conversation-scoped message with the same content
// rules as Message.
type DirectMessage struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkspaceID    primitive.ObjectID `bson:"workspace_id" json:"workspace_id"`
	ConversationID primitive.ObjectID `bson:"conversation_id" json:"conversation_id"`
	AuthorID       primitive.ObjectID `bson:"author_id" json:"author_id"`

	Body    string `bson:"body,omitempty" json:"body,omitempty"`
	ImageID string `bson:"image_id,omitempty" json:"image_id,omitempty"`

	Reactions []Reaction `bson:"reactions,omitempty" json:"reactions,omitempty"`

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt *time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// ToggleReaction returns the reaction list after toggling (emoji, user).
// Malformed entries are dropped first. If the pair is present it is
// removed (un-react); otherwise it is appended (react). Calling twice
// with the same arguments restores the original set of pairs, and the
// operation never touches entries keyed by other users, so concurrent
// toggles from different actors commute.
func ToggleReaction(reactions []Reaction, emoji string, userID primitive.ObjectID) []Reaction {
	out := make([]Reaction, 0, len(reactions)+1)
	removed := false
	for _, r := range reactions {
		if !r.Valid() {
			continue
		}
		if r.Emoji == emoji && r.UserID == userID {
			removed = true
			continue
		}
		out = append(out, r)
	}
	if !removed {
		out = append(out, Reaction{Emoji: emoji, UserID: userID})
	}
	return out
}

// ReactionSummary is the read-side aggregation of a message's raw
// reaction list: one row per emoji, sorted by count descending with
// ties keeping first-seen order. Never persisted.
type ReactionSummary struct {
	Emoji   string `json:"emoji"`
	Count   int    `json:"count"`
	Reacted bool   `json:"reacted"` // true when the querying user is in the group
}

// SummarizeReactions groups raw reactions by emoji for the given
// viewer. Malformed entries are ignored. Order is count descending;
// equal counts keep the order emojis first appeared in the list.
func SummarizeReactions(reactions []Reaction, viewer primitive.ObjectID) []ReactionSummary {
	var order []string
	counts := make(map[string]int)
	reacted := make(map[string]bool)

	for _, r := range reactions {
		if !r.Valid() {
			continue
		}
		if _, seen := counts[r.Emoji]; !seen {
			order = append(order, r.Emoji)
		}
		counts[r.Emoji]++
		if r.UserID == viewer {
			reacted[r.Emoji] = true
		}
	}

	out := make([]ReactionSummary, 0, len(order))
	for _, emoji := range order {
		out = append(out, ReactionSummary{
			Emoji:   emoji,
			Count:   counts[emoji],
			Reacted: reacted[emoji],
		})
	}

	// Stable sort keeps discovery order within equal counts.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Count > out[j-1].Count; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

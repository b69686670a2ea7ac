// internal/domain/models/conversation.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation is a 1:1 direct-message thread between two workspace
// members. The participant pair is stored in canonical order
// (UserA.Hex() < UserB.Hex()), so lookup and creation hit the same
// document regardless of which participant initiates. The pair is
// immutable after creation.
//
// LastReadA/LastReadB are per-side read cursors: the latest timestamp
// each participant is known to have observed. A nil cursor means that
// side has never read. Cursors only move forward.
type Conversation struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkspaceID primitive.ObjectID `bson:"workspace_id" json:"workspace_id"`
	UserA       primitive.ObjectID `bson:"user_a" json:"user_a"`
	UserB       primitive.ObjectID `bson:"user_b" json:"user_b"`

	LastReadA *time.Time `bson:"last_read_a,omitempty" json:"last_read_a,omitempty"`
	LastReadB *time.Time `bson:"last_read_b,omitempty" json:"last_read_b,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// HasParticipant reports whether userID is one of the two participants.
func (c Conversation) HasParticipant(userID primitive.ObjectID) bool {
	return c.UserA == userID || c.UserB == userID
}

// Other returns the participant opposite userID. The caller must have
// verified participation first.
func (c Conversation) Other(userID primitive.ObjectID) primitive.ObjectID {
	if c.UserA == userID {
		return c.UserB
	}
	return c.UserA
}

// LastReadFor returns the read cursor for userID's side, or nil if that
// side has never read (or userID is not a participant).
func (c Conversation) LastReadFor(userID primitive.ObjectID) *time.Time {
	switch userID {
	case c.UserA:
		return c.LastReadA
	case c.UserB:
		return c.LastReadB
	}
	return nil
}

// SortPair returns the two user IDs in canonical order: lexicographic
// over the hex representation. Every lookup and insert must use this
// same ordering so the unique index on (workspace_id, user_a, user_b)
// makes conversation creation idempotent.
func SortPair(x, y primitive.ObjectID) (a, b primitive.ObjectID) {
	if x.Hex() <= y.Hex() {
		return x, y
	}
	return y, x
}

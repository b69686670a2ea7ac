// internal/domain/models/workspace.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Workspace is the top-level tenant container in ThreadHub. Channels,
// conversations, messages, and notifications all carry a workspace_id
// and are isolated per workspace.
type Workspace struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	Name   string `bson:"name" json:"name"`
	NameCI string `bson:"name_ci" json:"name_ci"` // Case-insensitive for search

	CreatedBy primitive.ObjectID `bson:"created_by" json:"created_by"`

	// Status: "active" or "disabled"
	Status string `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

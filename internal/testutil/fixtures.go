package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/threadhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates an active test user.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      email,
		AuthMethod: "internal",
		Status:     "active",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateWorkspace creates a test workspace owned by createdBy. It does
// not create the owner's membership; use CreateMember for that.
func (f *Fixtures) CreateWorkspace(ctx context.Context, name string, createdBy primitive.ObjectID) models.Workspace {
	f.t.Helper()

	now := time.Now().UTC()
	ws := models.Workspace{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		CreatedBy: createdBy,
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("workspaces").InsertOne(ctx, ws); err != nil {
		f.t.Fatalf("failed to create test workspace: %v", err)
	}
	return ws
}

// CreateMember creates a membership with notification level "all" and
// unmuted.
func (f *Fixtures) CreateMember(ctx context.Context, workspaceID, userID primitive.ObjectID, role string) models.Member {
	f.t.Helper()

	m := models.Member{
		ID:                primitive.NewObjectID(),
		WorkspaceID:       workspaceID,
		UserID:            userID,
		Role:              role,
		NotificationLevel: models.NotifyAll,
		CreatedAt:         time.Now().UTC(),
	}
	if _, err := f.db.Collection("members").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test member: %v", err)
	}
	return m
}

// CreateChannel creates a test channel.
func (f *Fixtures) CreateChannel(ctx context.Context, workspaceID primitive.ObjectID, name string, createdBy primitive.ObjectID) models.Channel {
	f.t.Helper()

	ch := models.Channel{
		ID:          primitive.NewObjectID(),
		WorkspaceID: workspaceID,
		Name:        name,
		NameCI:      text.Fold(name),
		CreatedBy:   createdBy,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := f.db.Collection("channels").InsertOne(ctx, ch); err != nil {
		f.t.Fatalf("failed to create test channel: %v", err)
	}
	return ch
}

// CreateConversation creates a conversation between two users, storing
// the pair in canonical order.
func (f *Fixtures) CreateConversation(ctx context.Context, workspaceID, x, y primitive.ObjectID) models.Conversation {
	f.t.Helper()

	a, b := models.SortPair(x, y)
	conv := models.Conversation{
		ID:          primitive.NewObjectID(),
		WorkspaceID: workspaceID,
		UserA:       a,
		UserB:       b,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := f.db.Collection("conversations").InsertOne(ctx, conv); err != nil {
		f.t.Fatalf("failed to create test conversation: %v", err)
	}
	return conv
}

// MentionSpan returns the wire-format mention markup for a user.
func MentionSpan(userID primitive.ObjectID, name string) string {
	return `<span data-mention-user-id="` + userID.Hex() + `">@` + name + `</span>`
}

package guard_test

import (
	"errors"
	"testing"

	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"github.com/dalemusser/threadhub/internal/app/system/guard"
	"github.com/dalemusser/threadhub/internal/domain/models"
	"github.com/dalemusser/threadhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRequireMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := fx.CreateUser(ctx, "Alice", "alice@example.com")
	ws := fx.CreateWorkspace(ctx, "Acme", user.ID)
	fx.CreateMember(ctx, ws.ID, user.ID, models.RoleMember)

	m, err := guard.RequireMember(ctx, db, user.ID, ws.ID)
	if err != nil {
		t.Fatalf("RequireMember failed: %v", err)
	}
	if m.UserID != user.ID {
		t.Errorf("UserID: got %s, want %s", m.UserID.Hex(), user.ID.Hex())
	}

	if _, err := guard.RequireMember(ctx, db, primitive.NewObjectID(), ws.ID); !errors.Is(err, apperr.ErrNotAuthorized) {
		t.Errorf("non-member: expected ErrNotAuthorized, got %v", err)
	}
	if _, err := guard.RequireMember(ctx, db, primitive.NilObjectID, ws.ID); !errors.Is(err, apperr.ErrNotAuthenticated) {
		t.Errorf("anonymous: expected ErrNotAuthenticated, got %v", err)
	}
}

func TestRequireAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateUser(ctx, "Alice", "alice@example.com")
	plain := fx.CreateUser(ctx, "Bob", "bob@example.com")
	ws := fx.CreateWorkspace(ctx, "Acme", admin.ID)
	fx.CreateMember(ctx, ws.ID, admin.ID, models.RoleAdmin)
	fx.CreateMember(ctx, ws.ID, plain.ID, models.RoleMember)

	if _, err := guard.RequireAdmin(ctx, db, admin.ID, ws.ID); err != nil {
		t.Fatalf("RequireAdmin failed for admin: %v", err)
	}
	if _, err := guard.RequireAdmin(ctx, db, plain.ID, ws.ID); !errors.Is(err, apperr.ErrNotAuthorized) {
		t.Errorf("plain member: expected ErrNotAuthorized, got %v", err)
	}
}

func TestRequireChannelMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := fx.CreateUser(ctx, "Alice", "alice@example.com")
	outsider := fx.CreateUser(ctx, "Eve", "eve@example.com")
	ws := fx.CreateWorkspace(ctx, "Acme", user.ID)
	fx.CreateMember(ctx, ws.ID, user.ID, models.RoleMember)
	ch := fx.CreateChannel(ctx, ws.ID, "general", user.ID)

	_, got, err := guard.RequireChannelMember(ctx, db, user.ID, ch.ID)
	if err != nil {
		t.Fatalf("RequireChannelMember failed: %v", err)
	}
	if got.ID != ch.ID {
		t.Errorf("channel: got %s, want %s", got.ID.Hex(), ch.ID.Hex())
	}

	if _, _, err := guard.RequireChannelMember(ctx, db, outsider.ID, ch.ID); !errors.Is(err, apperr.ErrNotAuthorized) {
		t.Errorf("outsider: expected ErrNotAuthorized, got %v", err)
	}
	if _, _, err := guard.RequireChannelMember(ctx, db, user.ID, primitive.NewObjectID()); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing channel: expected ErrNotFound, got %v", err)
	}
}

func TestRequireConversationParticipant(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	alice := fx.CreateUser(ctx, "Alice", "alice@example.com")
	bob := fx.CreateUser(ctx, "Bob", "bob@example.com")
	carol := fx.CreateUser(ctx, "Carol", "carol@example.com")
	ws := fx.CreateWorkspace(ctx, "Acme", alice.ID)
	for _, u := range []primitive.ObjectID{alice.ID, bob.ID, carol.ID} {
		fx.CreateMember(ctx, ws.ID, u, models.RoleMember)
	}
	conv := fx.CreateConversation(ctx, ws.ID, alice.ID, bob.ID)

	_, got, err := guard.RequireConversationParticipant(ctx, db, alice.ID, conv.ID)
	if err != nil {
		t.Fatalf("RequireConversationParticipant failed: %v", err)
	}
	if got.ID != conv.ID {
		t.Errorf("conversation: got %s, want %s", got.ID.Hex(), conv.ID.Hex())
	}

	// A workspace member who is not a participant is still refused.
	if _, _, err := guard.RequireConversationParticipant(ctx, db, carol.ID, conv.ID); !errors.Is(err, apperr.ErrNotAuthorized) {
		t.Errorf("non-participant: expected ErrNotAuthorized, got %v", err)
	}
}

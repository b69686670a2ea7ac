package memberstore_test

import (
	"errors"
	"testing"

	memberstore "github.com/dalemusser/threadhub/internal/app/store/members"
	"github.com/dalemusser/threadhub/internal/app/system/indexes"
	"github.com/dalemusser/threadhub/internal/domain/models"
	"github.com/dalemusser/threadhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Add_DefaultsAndDuplicates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	workspaceID := primitive.NewObjectID()
	userID := primitive.NewObjectID()

	m, err := store.Add(ctx, workspaceID, userID, models.RoleMember)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if m.NotificationLevel != models.NotifyAll {
		t.Errorf("NotificationLevel: got %q, want %q", m.NotificationLevel, models.NotifyAll)
	}
	if m.Muted {
		t.Error("expected new members to be unmuted")
	}

	// Requires the unique (workspace_id, user_id) index.
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("failed to ensure indexes: %v", err)
	}
	if _, err := store.Add(ctx, workspaceID, userID, models.RoleAdmin); !errors.Is(err, memberstore.ErrDuplicateMember) {
		t.Errorf("expected ErrDuplicateMember, got %v", err)
	}
}

func TestStore_Add_RejectsUnknownRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Add(ctx, primitive.NewObjectID(), primitive.NewObjectID(), "owner"); err == nil {
		t.Error("expected an error for an unknown role")
	}
}

func TestStore_Settings(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	workspaceID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	if _, err := store.Add(ctx, workspaceID, userID, models.RoleMember); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := store.SetNotificationLevel(ctx, workspaceID, userID, models.NotifyMentions); err != nil {
		t.Fatalf("SetNotificationLevel failed: %v", err)
	}
	if err := store.SetNotificationLevel(ctx, workspaceID, userID, "loud"); err == nil {
		t.Error("expected an error for an unknown level")
	}
	if err := store.SetMuted(ctx, workspaceID, userID, true); err != nil {
		t.Fatalf("SetMuted failed: %v", err)
	}
	if err := store.SetRole(ctx, workspaceID, userID, models.RoleAdmin); err != nil {
		t.Fatalf("SetRole failed: %v", err)
	}

	m, err := store.Get(ctx, workspaceID, userID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if m.NotificationLevel != models.NotifyMentions || !m.Muted || m.Role != models.RoleAdmin {
		t.Errorf("unexpected member state: %+v", m)
	}
	// A muted member wants nothing, whatever the level says.
	if m.WantsNotification(models.NotificationTypeMention) {
		t.Error("muted member must not want notifications")
	}
}

func TestStore_Remove(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	workspaceID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	if _, err := store.Add(ctx, workspaceID, userID, models.RoleMember); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := store.Remove(ctx, workspaceID, userID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := store.Get(ctx, workspaceID, userID); !errors.Is(err, memberstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := store.Remove(ctx, workspaceID, userID); !errors.Is(err, memberstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound on repeat remove, got %v", err)
	}
}

package messagestore_test

import (
	"errors"
	"testing"

	messagestore "github.com/dalemusser/threadhub/internal/app/store/messages"
	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"github.com/dalemusser/threadhub/internal/domain/models"
	"github.com/dalemusser/threadhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Send_EmptyMessageRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := messagestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cases := []struct {
		name string
		body string
	}{
		{"blank", ""},
		{"whitespace", "   \n\t "},
		{"markup only", "<p>   </p>"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := store.Send(ctx, primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID(), tc.body, "")
			if !errors.Is(err, apperr.ErrEmptyMessage) {
				t.Errorf("expected ErrEmptyMessage, got %v", err)
			}
		})
	}
}

func TestStore_Send_ImageOnlyAllowed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := messagestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	msg, err := store.Send(ctx, primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID(), "", "uploads/abc.png")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if msg.ImageID != "uploads/abc.png" {
		t.Errorf("ImageID: got %q", msg.ImageID)
	}
}

func TestStore_Send_SanitizesBody(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := messagestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	msg, err := store.Send(ctx, primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID(),
		`<p>hello</p><script>alert(1)</script>`, "")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if msg.Body != "<p>hello</p>" {
		t.Errorf("Body: got %q, want %q", msg.Body, "<p>hello</p>")
	}
}

func TestStore_Send_MentionFanOutHonorsPreferences(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := messagestore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := fx.CreateUser(ctx, "Alice Author", "alice@example.com")
	ws := fx.CreateWorkspace(ctx, "Acme", author.ID)
	ch := fx.CreateChannel(ctx, ws.ID, "general", author.ID)

	fx.CreateMember(ctx, ws.ID, author.ID, models.RoleAdmin)

	// Bob wants everything, Carol is muted, Dave only wants mentions,
	// Erin wants nothing, and Frank is not a workspace member at all.
	bob := fx.CreateUser(ctx, "Bob", "bob@example.com")
	fx.CreateMember(ctx, ws.ID, bob.ID, models.RoleMember)

	carol := fx.CreateUser(ctx, "Carol", "carol@example.com")
	cm := fx.CreateMember(ctx, ws.ID, carol.ID, models.RoleMember)
	if _, err := db.Collection("members").UpdateOne(ctx,
		bson.M{"_id": cm.ID}, bson.M{"$set": bson.M{"muted": true}}); err != nil {
		t.Fatalf("failed to mute carol: %v", err)
	}

	dave := fx.CreateUser(ctx, "Dave", "dave@example.com")
	dm := fx.CreateMember(ctx, ws.ID, dave.ID, models.RoleMember)
	if _, err := db.Collection("members").UpdateOne(ctx,
		bson.M{"_id": dm.ID}, bson.M{"$set": bson.M{"notification_level": models.NotifyMentions}}); err != nil {
		t.Fatalf("failed to set dave's level: %v", err)
	}

	erin := fx.CreateUser(ctx, "Erin", "erin@example.com")
	em := fx.CreateMember(ctx, ws.ID, erin.ID, models.RoleMember)
	if _, err := db.Collection("members").UpdateOne(ctx,
		bson.M{"_id": em.ID}, bson.M{"$set": bson.M{"notification_level": models.NotifyNone}}); err != nil {
		t.Fatalf("failed to set erin's level: %v", err)
	}

	frank := fx.CreateUser(ctx, "Frank", "frank@example.com")

	body := "<p>ping " +
		testutil.MentionSpan(author.ID, "Alice") +
		testutil.MentionSpan(bob.ID, "Bob") +
		testutil.MentionSpan(carol.ID, "Carol") +
		testutil.MentionSpan(dave.ID, "Dave") +
		testutil.MentionSpan(erin.ID, "Erin") +
		testutil.MentionSpan(frank.ID, "Frank") +
		"</p>"

	msg, err := store.Send(ctx, ws.ID, ch.ID, author.ID, body, "")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	cur, err := db.Collection("notifications").Find(ctx, bson.M{"message_id": msg.ID})
	if err != nil {
		t.Fatalf("failed to read notifications: %v", err)
	}
	var notifs []models.Notification
	if err := cur.All(ctx, &notifs); err != nil {
		t.Fatalf("failed to decode notifications: %v", err)
	}

	got := make(map[primitive.ObjectID]models.Notification)
	for _, n := range notifs {
		got[n.UserID] = n
	}
	// Bob and Dave get one; the author, muted Carol, level-none Erin,
	// and non-member Frank do not.
	if len(got) != 2 {
		t.Fatalf("notifications: got %d, want 2 (%v)", len(got), got)
	}
	for _, want := range []primitive.ObjectID{bob.ID, dave.ID} {
		n, ok := got[want]
		if !ok {
			t.Errorf("missing notification for %s", want.Hex())
			continue
		}
		if n.Type != models.NotificationTypeMention {
			t.Errorf("Type: got %q, want %q", n.Type, models.NotificationTypeMention)
		}
		if n.FromUserID != author.ID {
			t.Errorf("FromUserID: got %s, want %s", n.FromUserID.Hex(), author.ID.Hex())
		}
		if n.Preview == "" {
			t.Error("expected a non-empty preview")
		}
	}
}

func TestStore_Edit_AuthorOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := messagestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := primitive.NewObjectID()
	msg, err := store.Send(ctx, primitive.NewObjectID(), primitive.NewObjectID(), author, "<p>before</p>", "")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if _, err := store.Edit(ctx, msg.ID, primitive.NewObjectID(), "<p>hijacked</p>"); !errors.Is(err, apperr.ErrNotAuthorized) {
		t.Errorf("expected ErrNotAuthorized, got %v", err)
	}

	edited, err := store.Edit(ctx, msg.ID, author, "<p>after</p>")
	if err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if edited.Body != "<p>after</p>" {
		t.Errorf("Body: got %q", edited.Body)
	}
	if edited.UpdatedAt == nil {
		t.Error("expected UpdatedAt to be set")
	}
}

func TestStore_Delete_RemovesNotifications(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := messagestore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := fx.CreateUser(ctx, "Alice", "alice@example.com")
	ws := fx.CreateWorkspace(ctx, "Acme", author.ID)
	ch := fx.CreateChannel(ctx, ws.ID, "general", author.ID)
	bob := fx.CreateUser(ctx, "Bob", "bob@example.com")
	fx.CreateMember(ctx, ws.ID, bob.ID, models.RoleMember)

	msg, err := store.Send(ctx, ws.ID, ch.ID, author.ID,
		"<p>"+testutil.MentionSpan(bob.ID, "Bob")+"</p>", "")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	// A stranger cannot delete.
	if err := store.Delete(ctx, msg.ID, primitive.NewObjectID(), false); !errors.Is(err, apperr.ErrNotAuthorized) {
		t.Errorf("expected ErrNotAuthorized, got %v", err)
	}
	// An admin who is not the author can.
	if err := store.Delete(ctx, msg.ID, primitive.NewObjectID(), true); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := store.GetByID(ctx, msg.ID); !errors.Is(err, messagestore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	n, err := db.Collection("notifications").CountDocuments(ctx, bson.M{"message_id": msg.ID})
	if err != nil {
		t.Fatalf("failed to count notifications: %v", err)
	}
	if n != 0 {
		t.Errorf("orphaned notifications: got %d, want 0", n)
	}
}

func TestStore_ToggleReaction(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := messagestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := primitive.NewObjectID()
	msg, err := store.Send(ctx, primitive.NewObjectID(), primitive.NewObjectID(), author, "<p>hi</p>", "")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	reactor := primitive.NewObjectID()
	msg, err = store.ToggleReaction(ctx, msg.ID, reactor, "👍")
	if err != nil {
		t.Fatalf("ToggleReaction failed: %v", err)
	}
	if len(msg.Reactions) != 1 {
		t.Fatalf("reactions after first toggle: got %d, want 1", len(msg.Reactions))
	}

	// Same pair toggles off; a different user's toggle stays.
	if _, err := store.ToggleReaction(ctx, msg.ID, author, "👍"); err != nil {
		t.Fatalf("ToggleReaction failed: %v", err)
	}
	msg, err = store.ToggleReaction(ctx, msg.ID, reactor, "👍")
	if err != nil {
		t.Fatalf("ToggleReaction failed: %v", err)
	}
	if len(msg.Reactions) != 1 {
		t.Fatalf("reactions: got %d, want 1", len(msg.Reactions))
	}
	if msg.Reactions[0].UserID != author {
		t.Errorf("surviving reaction belongs to %s, want %s", msg.Reactions[0].UserID.Hex(), author.Hex())
	}
}

func TestStore_ListPage_DescendingKeyset(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := messagestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	workspaceID := primitive.NewObjectID()
	channelID := primitive.NewObjectID()
	author := primitive.NewObjectID()

	var last models.Message
	for i := 0; i < 55; i++ {
		var err error
		last, err = store.Send(ctx, workspaceID, channelID, author, "<p>msg</p>", "")
		if err != nil {
			t.Fatalf("Send failed: %v", err)
		}
	}

	page1, hasMore, err := store.ListPage(ctx, channelID, primitive.NilObjectID)
	if err != nil {
		t.Fatalf("ListPage failed: %v", err)
	}
	if len(page1) != 50 {
		t.Fatalf("page 1: got %d rows, want 50", len(page1))
	}
	if !hasMore {
		t.Error("expected hasMore on page 1")
	}
	if page1[0].ID != last.ID {
		t.Error("expected page 1 to start at the newest message")
	}

	page2, hasMore, err := store.ListPage(ctx, channelID, page1[len(page1)-1].ID)
	if err != nil {
		t.Fatalf("ListPage (page 2) failed: %v", err)
	}
	if len(page2) != 5 {
		t.Fatalf("page 2: got %d rows, want 5", len(page2))
	}
	if hasMore {
		t.Error("did not expect hasMore on the final page")
	}
}

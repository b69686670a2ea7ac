package models_test

import (
	"testing"

	"github.com/dalemusser/threadhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestToggleReaction(t *testing.T) {
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()

	var reactions []models.Reaction

	reactions = models.ToggleReaction(reactions, "👍", alice)
	if len(reactions) != 1 {
		t.Fatalf("after add: got %d, want 1", len(reactions))
	}

	// A second user's reaction to the same emoji coexists.
	reactions = models.ToggleReaction(reactions, "👍", bob)
	if len(reactions) != 2 {
		t.Fatalf("after bob adds: got %d, want 2", len(reactions))
	}

	// Toggling again removes only alice's entry.
	reactions = models.ToggleReaction(reactions, "👍", alice)
	if len(reactions) != 1 {
		t.Fatalf("after alice removes: got %d, want 1", len(reactions))
	}
	if reactions[0].UserID != bob {
		t.Errorf("surviving reaction belongs to %s, want %s", reactions[0].UserID.Hex(), bob.Hex())
	}
}

func TestToggleReaction_DropsMalformedEntries(t *testing.T) {
	alice := primitive.NewObjectID()
	reactions := []models.Reaction{
		{Emoji: "", UserID: alice},
		{Emoji: "🎉", UserID: primitive.NilObjectID},
		{Emoji: "🎉", UserID: alice},
	}

	reactions = models.ToggleReaction(reactions, "👍", alice)
	if len(reactions) != 2 {
		t.Fatalf("got %d reactions, want 2", len(reactions))
	}
	for _, r := range reactions {
		if !r.Valid() {
			t.Errorf("malformed reaction survived: %+v", r)
		}
	}
}

func TestSummarizeReactions(t *testing.T) {
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()
	carol := primitive.NewObjectID()

	reactions := []models.Reaction{
		{Emoji: "👍", UserID: alice},
		{Emoji: "🎉", UserID: bob},
		{Emoji: "🎉", UserID: carol},
		{Emoji: "👀", UserID: carol},
		{Emoji: "", UserID: alice}, // malformed, ignored
	}

	summary := models.SummarizeReactions(reactions, alice)
	if len(summary) != 3 {
		t.Fatalf("rows: got %d, want 3", len(summary))
	}
	if summary[0].Emoji != "🎉" || summary[0].Count != 2 {
		t.Errorf("top row: got %+v", summary[0])
	}
	// Equal counts keep first-seen order: 👍 appeared before 👀.
	if summary[1].Emoji != "👍" || summary[2].Emoji != "👀" {
		t.Errorf("tie order: got %q then %q", summary[1].Emoji, summary[2].Emoji)
	}
	if !summary[1].Reacted {
		t.Error("expected the viewer's 👍 row to be flagged as reacted")
	}
	if summary[0].Reacted {
		t.Error("viewer did not react with 🎉")
	}
}

func TestMember_WantsNotification(t *testing.T) {
	cases := []struct {
		name      string
		member    models.Member
		notifType string
		want      bool
	}{
		{"all level gets dm", models.Member{NotificationLevel: models.NotifyAll}, models.NotificationTypeDM, true},
		{"all level gets mention", models.Member{NotificationLevel: models.NotifyAll}, models.NotificationTypeMention, true},
		{"mentions level drops dm", models.Member{NotificationLevel: models.NotifyMentions}, models.NotificationTypeDM, false},
		{"mentions level gets mention", models.Member{NotificationLevel: models.NotifyMentions}, models.NotificationTypeMention, true},
		{"none level drops mention", models.Member{NotificationLevel: models.NotifyNone}, models.NotificationTypeMention, false},
		{"muted overrides level", models.Member{Muted: true, NotificationLevel: models.NotifyAll}, models.NotificationTypeMention, false},
		{"empty level behaves like all", models.Member{}, models.NotificationTypeDM, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.member.WantsNotification(tc.notifType); got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSortPair_Canonical(t *testing.T) {
	x := primitive.NewObjectID()
	y := primitive.NewObjectID()

	a1, b1 := models.SortPair(x, y)
	a2, b2 := models.SortPair(y, x)
	if a1 != a2 || b1 != b2 {
		t.Error("expected the same canonical pair regardless of argument order")
	}
	if a1.Hex() > b1.Hex() {
		t.Errorf("pair not ordered: %s > %s", a1.Hex(), b1.Hex())
	}
}

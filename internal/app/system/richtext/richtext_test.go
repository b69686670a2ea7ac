package richtext_test

import (
	"strings"
	"testing"

	"github.com/dalemusser/threadhub/internal/app/system/richtext"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMentionUserIDs_None(t *testing.T) {
	if ids := richtext.MentionUserIDs("<p>no mentions here</p>"); ids != nil {
		t.Errorf("expected nil, got %v", ids)
	}
}

func TestMentionUserIDs_Single(t *testing.T) {
	want := primitive.NewObjectID()
	body := `<span data-mention-user-id="` + want.Hex() + `">@Bob</span> hi`

	ids := richtext.MentionUserIDs(body)
	if len(ids) != 1 || ids[0] != want {
		t.Errorf("got %v, want [%s]", ids, want.Hex())
	}
}

func TestMentionUserIDs_DuplicatesCollapse(t *testing.T) {
	u := primitive.NewObjectID()
	span := `<span data-mention-user-id="` + u.Hex() + `">@Bob</span>`
	body := span + " and again " + span

	ids := richtext.MentionUserIDs(body)
	if len(ids) != 1 {
		t.Errorf("expected duplicates to collapse, got %v", ids)
	}
}

func TestMentionUserIDs_MultiplePreserveOrder(t *testing.T) {
	u1 := primitive.NewObjectID()
	u2 := primitive.NewObjectID()
	body := `<span data-mention-user-id="` + u1.Hex() + `">@A</span>` +
		`<span data-mention-user-id="` + u2.Hex() + `">@B</span>`

	ids := richtext.MentionUserIDs(body)
	if len(ids) != 2 || ids[0] != u1 || ids[1] != u2 {
		t.Errorf("got %v, want [%s %s]", ids, u1.Hex(), u2.Hex())
	}
}

func TestMentionUserIDs_MalformedIDSkipped(t *testing.T) {
	body := `<span data-mention-user-id="not-a-hex-id">@X</span>`
	if ids := richtext.MentionUserIDs(body); ids != nil {
		t.Errorf("expected malformed id skipped, got %v", ids)
	}
}

func TestMentionUserIDs_FreeTextAtIsNotAMention(t *testing.T) {
	if ids := richtext.MentionUserIDs("<p>email @bob about it</p>"); ids != nil {
		t.Errorf("free-text @name must not extract, got %v", ids)
	}
}

func TestPlainText_StripsMarkup(t *testing.T) {
	u := primitive.NewObjectID()
	body := `<span data-mention-user-id="` + u.Hex() + `">@Bob</span> hi`
	if got := richtext.PlainText(body); got != "@Bob hi" {
		t.Errorf("PlainText = %q, want %q", got, "@Bob hi")
	}
}

func TestPlainText_CollapsesWhitespace(t *testing.T) {
	got := richtext.PlainText("<p>  hello \n\t world  </p>")
	if got != "hello world" {
		t.Errorf("PlainText = %q, want %q", got, "hello world")
	}
}

func TestPlainText_UnescapesEntities(t *testing.T) {
	got := richtext.PlainText("<p>fish &amp; chips</p>")
	if got != "fish & chips" {
		t.Errorf("PlainText = %q, want %q", got, "fish & chips")
	}
}

func TestPreview_ShortUnchanged(t *testing.T) {
	if got := richtext.Preview("<p>short</p>", 140); got != "short" {
		t.Errorf("Preview = %q, want %q", got, "short")
	}
}

func TestPreview_Truncates(t *testing.T) {
	long := strings.Repeat("a", 300)
	got := richtext.Preview("<p>"+long+"</p>", 140)
	if len([]rune(got)) != 140 {
		t.Errorf("expected 140 runes, got %d", len([]rune(got)))
	}
}

func TestPreview_RuneSafeTruncation(t *testing.T) {
	long := strings.Repeat("é", 200)
	got := richtext.Preview(long, 140)
	if len([]rune(got)) != 140 {
		t.Errorf("expected 140 runes, got %d", len([]rune(got)))
	}
	if strings.ContainsRune(got, '�') {
		t.Error("truncation split a rune")
	}
}

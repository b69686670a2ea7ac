package chat_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/threadhub/internal/app/features/chat"
	uierrors "github.com/dalemusser/threadhub/internal/app/features/errors"
	"github.com/dalemusser/threadhub/internal/domain/models"
	"github.com/dalemusser/threadhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) (*chat.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	return chat.NewHandler(db, uierrors.NewErrorLogger(logger), logger), testutil.NewFixtures(t, db)
}

func channelRequest(method, target, body string, user testutil.TestUser, channelID primitive.ObjectID) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	req = testutil.WithUser(req, user)
	return testutil.WithChiURLParam(req, "channelID", channelID.Hex())
}

func TestHandleSend_CreatesMessage(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	alice := fx.CreateUser(ctx, "Alice", "alice@example.com")
	ws := fx.CreateWorkspace(ctx, "Acme", alice.ID)
	fx.CreateMember(ctx, ws.ID, alice.ID, models.RoleAdmin)
	ch := fx.CreateChannel(ctx, ws.ID, "general", alice.ID)

	req := channelRequest("POST", "/", `{"body":"<p>hello</p>"}`,
		testutil.UserFor(alice.ID, alice.FullName, alice.Email), ch.ID)
	rec := httptest.NewRecorder()

	h.HandleSend(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var msg models.Message
	if err := json.NewDecoder(rec.Body).Decode(&msg); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if msg.ChannelID != ch.ID {
		t.Errorf("channel_id: got %s, want %s", msg.ChannelID.Hex(), ch.ID.Hex())
	}
	if msg.AuthorID != alice.ID {
		t.Errorf("author_id: got %s, want %s", msg.AuthorID.Hex(), alice.ID.Hex())
	}
}

func TestHandleSend_NonMember_Forbidden(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	alice := fx.CreateUser(ctx, "Alice", "alice@example.com")
	mallory := fx.CreateUser(ctx, "Mallory", "mallory@example.com")
	ws := fx.CreateWorkspace(ctx, "Acme", alice.ID)
	fx.CreateMember(ctx, ws.ID, alice.ID, models.RoleAdmin)
	ch := fx.CreateChannel(ctx, ws.ID, "general", alice.ID)

	req := channelRequest("POST", "/", `{"body":"<p>hi</p>"}`,
		testutil.UserFor(mallory.ID, mallory.FullName, mallory.Email), ch.ID)
	rec := httptest.NewRecorder()

	h.HandleSend(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestHandleSend_EmptyBody_Rejected(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	alice := fx.CreateUser(ctx, "Alice", "alice@example.com")
	ws := fx.CreateWorkspace(ctx, "Acme", alice.ID)
	fx.CreateMember(ctx, ws.ID, alice.ID, models.RoleAdmin)
	ch := fx.CreateChannel(ctx, ws.ID, "general", alice.ID)

	req := channelRequest("POST", "/", `{"body":"<p>   </p>"}`,
		testutil.UserFor(alice.ID, alice.FullName, alice.Email), ch.ID)
	rec := httptest.NewRecorder()

	h.HandleSend(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
}

func TestServeList_ReturnsMessagesOldestFirst(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	alice := fx.CreateUser(ctx, "Alice", "alice@example.com")
	ws := fx.CreateWorkspace(ctx, "Acme", alice.ID)
	fx.CreateMember(ctx, ws.ID, alice.ID, models.RoleAdmin)
	ch := fx.CreateChannel(ctx, ws.ID, "general", alice.ID)

	user := testutil.UserFor(alice.ID, alice.FullName, alice.Email)
	for _, body := range []string{`{"body":"<p>one</p>"}`, `{"body":"<p>two</p>"}`, `{"body":"<p>three</p>"}`} {
		rec := httptest.NewRecorder()
		h.HandleSend(rec, channelRequest("POST", "/", body, user, ch.ID))
		if rec.Code != http.StatusCreated {
			t.Fatalf("send failed: %d %s", rec.Code, rec.Body.String())
		}
	}

	rec := httptest.NewRecorder()
	h.ServeList(rec, channelRequest("GET", "/", "", user, ch.ID))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	var page struct {
		Messages []models.Message `json:"messages"`
		HasMore  bool             `json:"has_more"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&page); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(page.Messages) != 3 {
		t.Fatalf("messages: got %d, want 3", len(page.Messages))
	}
	if page.HasMore {
		t.Error("has_more: got true, want false")
	}
	if !strings.Contains(page.Messages[0].Body, "one") {
		t.Errorf("first message: got %q, want the oldest", page.Messages[0].Body)
	}
}

func TestServeList_AllReturnsFullHistory(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	alice := fx.CreateUser(ctx, "Alice", "alice@example.com")
	ws := fx.CreateWorkspace(ctx, "Acme", alice.ID)
	fx.CreateMember(ctx, ws.ID, alice.ID, models.RoleAdmin)
	ch := fx.CreateChannel(ctx, ws.ID, "general", alice.ID)

	user := testutil.UserFor(alice.ID, alice.FullName, alice.Email)
	for _, body := range []string{`{"body":"<p>one</p>"}`, `{"body":"<p>two</p>"}`, `{"body":"<p>three</p>"}`} {
		rec := httptest.NewRecorder()
		h.HandleSend(rec, channelRequest("POST", "/", body, user, ch.ID))
		if rec.Code != http.StatusCreated {
			t.Fatalf("send failed: %d %s", rec.Code, rec.Body.String())
		}
	}

	rec := httptest.NewRecorder()
	h.ServeList(rec, channelRequest("GET", "/?all=1", "", user, ch.ID))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	var page struct {
		Messages []models.Message `json:"messages"`
		HasMore  bool             `json:"has_more"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&page); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(page.Messages) != 3 {
		t.Fatalf("messages: got %d, want 3", len(page.Messages))
	}
	if page.HasMore {
		t.Error("has_more: got true, want false")
	}
	if !strings.Contains(page.Messages[0].Body, "one") || !strings.Contains(page.Messages[2].Body, "three") {
		t.Errorf("unexpected order: %q ... %q", page.Messages[0].Body, page.Messages[2].Body)
	}
}

package dms_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/threadhub/internal/app/features/dms"
	uierrors "github.com/dalemusser/threadhub/internal/app/features/errors"
	"github.com/dalemusser/threadhub/internal/domain/models"
	"github.com/dalemusser/threadhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type scene struct {
	h     *dms.Handler
	fx    *testutil.Fixtures
	ws    models.Workspace
	alice models.User
	bob   models.User
}

func setup(t *testing.T) scene {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := zap.NewNop()
	fx := testutil.NewFixtures(t, db)
	alice := fx.CreateUser(ctx, "Alice", "alice@example.com")
	bob := fx.CreateUser(ctx, "Bob", "bob@example.com")
	ws := fx.CreateWorkspace(ctx, "Acme", alice.ID)
	fx.CreateMember(ctx, ws.ID, alice.ID, models.RoleAdmin)
	fx.CreateMember(ctx, ws.ID, bob.ID, models.RoleMember)

	return scene{
		h:     dms.NewHandler(db, uierrors.NewErrorLogger(logger), logger),
		fx:    fx,
		ws:    ws,
		alice: alice,
		bob:   bob,
	}
}

func (s scene) user(u models.User) testutil.TestUser {
	return testutil.UserFor(u.ID, u.FullName, u.Email)
}

func openRequest(user testutil.TestUser, workspaceID primitive.ObjectID, otherID primitive.ObjectID) *http.Request {
	body := `{"user_id":"` + otherID.Hex() + `"}`
	req := httptest.NewRequest("POST", "/", strings.NewReader(body))
	req = testutil.WithUser(req, user)
	return testutil.WithChiURLParam(req, "id", workspaceID.Hex())
}

func TestHandleOpen_Idempotent(t *testing.T) {
	s := setup(t)

	rec := httptest.NewRecorder()
	s.h.HandleOpen(rec, openRequest(s.user(s.alice), s.ws.ID, s.bob.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("first open: got %d (body %s)", rec.Code, rec.Body.String())
	}
	var first models.Conversation
	if err := json.NewDecoder(rec.Body).Decode(&first); err != nil {
		t.Fatalf("decode first: %v", err)
	}

	// Opening from the other side lands on the same conversation.
	rec = httptest.NewRecorder()
	s.h.HandleOpen(rec, openRequest(s.user(s.bob), s.ws.ID, s.alice.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("second open: got %d", rec.Code)
	}
	var second models.Conversation
	if err := json.NewDecoder(rec.Body).Decode(&second); err != nil {
		t.Fatalf("decode second: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("conversations differ: %s vs %s", first.ID.Hex(), second.ID.Hex())
	}
}

func TestHandleOpen_Self_Rejected(t *testing.T) {
	s := setup(t)

	rec := httptest.NewRecorder()
	s.h.HandleOpen(rec, openRequest(s.user(s.alice), s.ws.ID, s.alice.ID))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
}

func TestHandleOpen_NonMemberPeer_NotFound(t *testing.T) {
	s := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	outsider := s.fx.CreateUser(ctx, "Oscar", "oscar@example.com")

	rec := httptest.NewRecorder()
	s.h.HandleOpen(rec, openRequest(s.user(s.alice), s.ws.ID, outsider.ID))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestServeList_ShowsUnreadCount(t *testing.T) {
	s := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	conv := s.fx.CreateConversation(ctx, s.ws.ID, s.alice.ID, s.bob.ID)

	// Alice sends; Bob has one unread.
	body := `{"body":"<p>ping</p>"}`
	req := httptest.NewRequest("POST", "/", strings.NewReader(body))
	req = testutil.WithUser(req, s.user(s.alice))
	req = testutil.WithChiURLParam(req, "conversationID", conv.ID.Hex())
	rec := httptest.NewRecorder()
	s.h.HandleSend(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("send: got %d (body %s)", rec.Code, rec.Body.String())
	}

	listReq := httptest.NewRequest("GET", "/", nil)
	listReq = testutil.WithUser(listReq, s.user(s.bob))
	listReq = testutil.WithChiURLParam(listReq, "id", s.ws.ID.Hex())
	rec = httptest.NewRecorder()
	s.h.ServeList(rec, listReq)

	if rec.Code != http.StatusOK {
		t.Fatalf("list: got %d", rec.Code)
	}
	var views []struct {
		models.Conversation
		OtherUserName string `json:"other_user_name"`
		UnreadCount   int64  `json:"unread_count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&views); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("conversations: got %d, want 1", len(views))
	}
	if views[0].UnreadCount != 1 {
		t.Errorf("unread_count: got %d, want 1", views[0].UnreadCount)
	}
	if views[0].OtherUserName != "Alice" {
		t.Errorf("other_user_name: got %q, want Alice", views[0].OtherUserName)
	}
}

func TestHandleMarkRead_ClearsUnread(t *testing.T) {
	s := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	conv := s.fx.CreateConversation(ctx, s.ws.ID, s.alice.ID, s.bob.ID)

	sendReq := httptest.NewRequest("POST", "/", strings.NewReader(`{"body":"<p>ping</p>"}`))
	sendReq = testutil.WithUser(sendReq, s.user(s.alice))
	sendReq = testutil.WithChiURLParam(sendReq, "conversationID", conv.ID.Hex())
	rec := httptest.NewRecorder()
	s.h.HandleSend(rec, sendReq)
	if rec.Code != http.StatusCreated {
		t.Fatalf("send: got %d", rec.Code)
	}

	markReq := httptest.NewRequest("POST", "/", nil)
	markReq = testutil.WithUser(markReq, s.user(s.bob))
	markReq = testutil.WithChiURLParam(markReq, "conversationID", conv.ID.Hex())
	rec = httptest.NewRecorder()
	s.h.HandleMarkRead(rec, markReq)
	if rec.Code != http.StatusOK {
		t.Fatalf("mark read: got %d", rec.Code)
	}
	var marked struct {
		LastRead time.Time `json:"last_read"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&marked); err != nil {
		t.Fatalf("decode mark read: %v", err)
	}
	if marked.LastRead.IsZero() {
		t.Error("expected the effective read cursor in the response")
	}

	listReq := httptest.NewRequest("GET", "/", nil)
	listReq = testutil.WithUser(listReq, s.user(s.bob))
	listReq = testutil.WithChiURLParam(listReq, "id", s.ws.ID.Hex())
	rec = httptest.NewRecorder()
	s.h.ServeList(rec, listReq)

	var views []struct {
		UnreadCount int64 `json:"unread_count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&views); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(views) != 1 || views[0].UnreadCount != 0 {
		t.Errorf("expected one conversation with zero unread, got %+v", views)
	}
}

func TestServeMessages_NonParticipant_Forbidden(t *testing.T) {
	s := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	carol := s.fx.CreateUser(ctx, "Carol", "carol@example.com")
	s.fx.CreateMember(ctx, s.ws.ID, carol.ID, models.RoleMember)
	conv := s.fx.CreateConversation(ctx, s.ws.ID, s.alice.ID, s.bob.ID)

	req := httptest.NewRequest("GET", "/", nil)
	req = testutil.WithUser(req, s.user(carol))
	req = testutil.WithChiURLParam(req, "conversationID", conv.ID.Hex())
	rec := httptest.NewRecorder()
	s.h.ServeMessages(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestServeMessages_AllReturnsFullHistory(t *testing.T) {
	s := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	conv := s.fx.CreateConversation(ctx, s.ws.ID, s.alice.ID, s.bob.ID)

	for _, body := range []string{`{"body":"<p>first</p>"}`, `{"body":"<p>second</p>"}`} {
		sendReq := httptest.NewRequest("POST", "/", strings.NewReader(body))
		sendReq = testutil.WithUser(sendReq, s.user(s.alice))
		sendReq = testutil.WithChiURLParam(sendReq, "conversationID", conv.ID.Hex())
		rec := httptest.NewRecorder()
		s.h.HandleSend(rec, sendReq)
		if rec.Code != http.StatusCreated {
			t.Fatalf("send failed: %d %s", rec.Code, rec.Body.String())
		}
	}

	req := httptest.NewRequest("GET", "/?all=1", nil)
	req = testutil.WithUser(req, s.user(s.bob))
	req = testutil.WithChiURLParam(req, "conversationID", conv.ID.Hex())
	rec := httptest.NewRecorder()
	s.h.ServeMessages(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	var page struct {
		Messages []models.DirectMessage `json:"messages"`
		HasMore  bool                   `json:"has_more"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Messages) != 2 {
		t.Fatalf("messages: got %d, want 2", len(page.Messages))
	}
	if !strings.Contains(page.Messages[0].Body, "first") {
		t.Errorf("first message: got %q, want the oldest", page.Messages[0].Body)
	}
}

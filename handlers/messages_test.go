package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chatfeed/middleware"
	"chatfeed/models"
	"chatfeed/store"
)

type handlerFixture struct {
	store   *store.Store
	handler *MessageHandler
	alice   *models.Member
	bob     *models.Member
	channel *models.Channel
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	alice, err := s.CreateMember("alice", "Alice", "password1", "")
	require.NoError(t, err)
	bob, err := s.CreateMember("bob", "Bob", "password2", "")
	require.NoError(t, err)
	channel, err := s.CreateChannel("general", alice.ID)
	require.NoError(t, err)

	return &handlerFixture{
		store:   s,
		handler: NewMessageHandler(s, NewHub(zap.NewNop()), zap.NewNop()),
		alice:   alice,
		bob:     bob,
		channel: channel,
	}
}

func (f *handlerFixture) post(t *testing.T, member, body string) *models.Message {
	t.Helper()
	msg, err := f.store.CreateMessage(member, models.CreateMessageRequest{
		ChannelID: &f.channel.ID,
		Body:      body,
	})
	require.NoError(t, err)
	return msg
}

// authedRequest builds a request carrying an authenticated member, the
// way the auth middleware hands it to a handler.
func authedRequest(method, target, memberID string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	return req.WithContext(middleware.SetMemberID(req.Context(), memberID))
}

func TestGetPageRequiresScope(t *testing.T) {
	f := newHandlerFixture(t)

	w := httptest.NewRecorder()
	f.handler.GetPage(w, httptest.NewRequest("GET", "/api/messages", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetPagePaginates(t *testing.T) {
	f := newHandlerFixture(t)
	for i := 0; i < 3; i++ {
		f.post(t, f.alice.ID, "msg")
	}

	w := httptest.NewRecorder()
	f.handler.GetPage(w, httptest.NewRequest("GET", "/api/messages?channel_id="+f.channel.ID+"&limit=2", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var page PageResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&page))
	assert.Len(t, page.Messages, 2)
	assert.False(t, page.Exhausted)
	require.NotNil(t, page.NextCursor)

	w = httptest.NewRecorder()
	f.handler.GetPage(w, httptest.NewRequest("GET",
		"/api/messages?channel_id="+f.channel.ID+"&limit=2&cursor="+*page.NextCursor, nil))
	require.Equal(t, http.StatusOK, w.Code)

	var rest PageResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&rest))
	assert.Len(t, rest.Messages, 1)
	assert.True(t, rest.Exhausted)
}

func TestCreateRejectsEmptyDocument(t *testing.T) {
	f := newHandlerFixture(t)

	w := httptest.NewRecorder()
	req := authedRequest("POST", "/api/messages", f.alice.ID, models.CreateMessageRequest{
		ChannelID: &f.channel.ID,
		Body:      `{"ops":[{"insert":"\n"}]}`,
	})
	f.handler.Create(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateAllowsImageOnlyMessage(t *testing.T) {
	f := newHandlerFixture(t)
	image := "storage-1"

	w := httptest.NewRecorder()
	req := authedRequest("POST", "/api/messages", f.alice.ID, models.CreateMessageRequest{
		ChannelID: &f.channel.ID,
		Body:      "",
		Image:     &image,
	})
	f.handler.Create(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var msg models.Message
	require.NoError(t, json.NewDecoder(w.Body).Decode(&msg))
	require.NotNil(t, msg.Image)
	assert.Equal(t, image, *msg.Image)
}

func TestCreateRejectsAmbiguousScope(t *testing.T) {
	f := newHandlerFixture(t)
	conv, err := f.store.GetOrCreateConversation(f.alice.ID, f.bob.ID)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := authedRequest("POST", "/api/messages", f.alice.ID, models.CreateMessageRequest{
		ChannelID:      &f.channel.ID,
		ConversationID: &conv.ID,
		Body:           "both",
	})
	f.handler.Create(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateOwnershipEnforced(t *testing.T) {
	f := newHandlerFixture(t)
	msg := f.post(t, f.alice.ID, "original")

	w := httptest.NewRecorder()
	req := authedRequest("PUT", "/api/messages/"+msg.ID, f.bob.ID, models.UpdateMessageRequest{Body: "hijacked"})
	req.SetPathValue("id", msg.ID)
	f.handler.Update(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	req = authedRequest("PUT", "/api/messages/"+msg.ID, f.alice.ID, models.UpdateMessageRequest{Body: "fixed"})
	req.SetPathValue("id", msg.ID)
	f.handler.Update(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	got, err := f.store.GetMessage(msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "fixed", got.Body)
	assert.NotNil(t, got.UpdatedAt)
}

func TestDeleteOwnershipEnforced(t *testing.T) {
	f := newHandlerFixture(t)
	msg := f.post(t, f.alice.ID, "doomed")

	w := httptest.NewRecorder()
	req := authedRequest("DELETE", "/api/messages/"+msg.ID, f.bob.ID, nil)
	req.SetPathValue("id", msg.ID)
	f.handler.Delete(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	req = authedRequest("DELETE", "/api/messages/"+msg.ID, f.alice.ID, nil)
	req.SetPathValue("id", msg.ID)
	f.handler.Delete(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	_, err := f.store.GetMessage(msg.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetThreadNotFound(t *testing.T) {
	f := newHandlerFixture(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/messages/missing/thread", nil)
	req.SetPathValue("id", "missing")
	f.handler.GetThread(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestParseCursor(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)

	got := parseCursor(now.Format(time.RFC3339Nano))
	require.NotNil(t, got)
	assert.True(t, got.Equal(now))

	assert.Nil(t, parseCursor(""))
	assert.Nil(t, parseCursor("not-a-time"))
}

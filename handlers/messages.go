package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"chatfeed/document"
	"chatfeed/metrics"
	"chatfeed/middleware"
	"chatfeed/models"
	"chatfeed/store"
)

const defaultPageSize = 20

type MessageHandler struct {
	store *store.Store
	hub   *Hub
	log   *zap.Logger
}

func NewMessageHandler(s *store.Store, hub *Hub, log *zap.Logger) *MessageHandler {
	return &MessageHandler{store: s, hub: hub, log: log}
}

// PageResponse is one backward pagination step over a feed.
type PageResponse struct {
	Messages   []models.FeedMessage `json:"messages"`
	NextCursor *string              `json:"next_cursor,omitempty"`
	Exhausted  bool                 `json:"exhausted"`
}

// GetPage serves a cursor-bounded page of a channel, conversation or
// thread feed, newest first.
func (h *MessageHandler) GetPage(w http.ResponseWriter, r *http.Request) {
	q := store.Query{}
	if v := r.URL.Query().Get("channel_id"); v != "" {
		q.ChannelID = &v
	}
	if v := r.URL.Query().Get("conversation_id"); v != "" {
		q.ConversationID = &v
	}
	if v := r.URL.Query().Get("parent_id"); v != "" {
		q.ParentID = &v
	}
	if q.ChannelID == nil && q.ConversationID == nil && q.ParentID == nil {
		http.Error(w, "A channel, conversation or parent ID is required", http.StatusBadRequest)
		return
	}

	limit := defaultPageSize
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	cursor := parseCursor(r.URL.Query().Get("cursor"))

	page, err := h.store.QueryPage(q, cursor, limit)
	if err != nil {
		h.log.Error("query page failed", zap.Error(err))
		http.Error(w, "Failed to fetch messages", http.StatusInternalServerError)
		return
	}
	metrics.PagesServed.Inc()

	resp := PageResponse{Messages: page.Messages, Exhausted: page.Exhausted}
	if resp.Messages == nil {
		resp.Messages = []models.FeedMessage{}
	}
	if page.NextCursor != nil {
		c := page.NextCursor.Format(time.RFC3339Nano)
		resp.NextCursor = &c
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// GetThread serves a thread root with joined author, reactions and
// replies. A deleted root is a 404; the client renders its placeholder.
func (h *MessageHandler) GetThread(w http.ResponseWriter, r *http.Request) {
	root, err := h.store.GetFeedMessage(r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Message not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to fetch thread", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(root)
}

func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	memberID := middleware.GetMemberID(r)

	var req models.CreateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if document.IsEmpty(req.Body) && req.Image == nil {
		http.Error(w, "Message body is required", http.StatusBadRequest)
		return
	}

	msg, err := h.store.CreateMessage(memberID, req)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Parent message not found", http.StatusNotFound)
		return
	}
	if errors.Is(err, store.ErrBadScope) {
		http.Error(w, "Exactly one of channel or conversation is required", http.StatusBadRequest)
		return
	}
	if err != nil {
		metrics.MutationsFailed.WithLabelValues("create").Inc()
		h.log.Error("create message failed", zap.Error(err))
		http.Error(w, "Failed to send message", http.StatusInternalServerError)
		return
	}
	metrics.MessagesCreated.Inc()

	h.hub.Broadcast(models.WSMessage{
		Type:    models.WSTypeMessageCreated,
		Payload: eventPayload(msg),
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(msg)
}

func (h *MessageHandler) Update(w http.ResponseWriter, r *http.Request) {
	memberID := middleware.GetMemberID(r)
	messageID := r.PathValue("id")

	var req models.UpdateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if document.IsEmpty(req.Body) {
		http.Error(w, "Message body is required", http.StatusBadRequest)
		return
	}

	msg, err := h.store.GetMessage(messageID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Message not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to update message", http.StatusInternalServerError)
		return
	}
	if msg.MemberID != memberID {
		http.Error(w, "You can only edit your own messages", http.StatusForbidden)
		return
	}

	if err := h.store.UpdateMessage(messageID, req.Body); err != nil {
		metrics.MutationsFailed.WithLabelValues("update").Inc()
		h.log.Error("update message failed", zap.Error(err))
		http.Error(w, "Failed to update message", http.StatusInternalServerError)
		return
	}

	h.hub.Broadcast(models.WSMessage{
		Type:    models.WSTypeMessageUpdated,
		Payload: eventPayload(msg),
	})

	w.WriteHeader(http.StatusNoContent)
}

func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	memberID := middleware.GetMemberID(r)
	messageID := r.PathValue("id")

	msg, err := h.store.GetMessage(messageID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Message not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to delete message", http.StatusInternalServerError)
		return
	}
	if msg.MemberID != memberID {
		http.Error(w, "You can only delete your own messages", http.StatusForbidden)
		return
	}

	if err := h.store.DeleteMessage(messageID); err != nil {
		metrics.MutationsFailed.WithLabelValues("delete").Inc()
		h.log.Error("delete message failed", zap.Error(err))
		http.Error(w, "Failed to delete message", http.StatusInternalServerError)
		return
	}

	h.hub.Broadcast(models.WSMessage{
		Type:    models.WSTypeMessageDeleted,
		Payload: eventPayload(msg),
	})

	w.WriteHeader(http.StatusNoContent)
}

func eventPayload(msg *models.Message) models.MessageEventPayload {
	return models.MessageEventPayload{
		MessageID:      msg.ID,
		ChannelID:      msg.ChannelID,
		ConversationID: msg.ConversationID,
		ParentID:       msg.ParentID,
	}
}

// parseCursor accepts the timestamp formats clients are known to send.
func parseCursor(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.999999Z07:00",
		"2006-01-02T15:04:05Z",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, raw); err == nil {
			return &t
		}
	}
	return nil
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"chatfeed/metrics"
	"chatfeed/middleware"
	"chatfeed/models"
	"chatfeed/store"
)

type ReactionHandler struct {
	store *store.Store
	hub   *Hub
	log   *zap.Logger
}

func NewReactionHandler(s *store.Store, hub *Hub, log *zap.Logger) *ReactionHandler {
	return &ReactionHandler{store: s, hub: hub, log: log}
}

// Toggle adds the caller's reaction when absent and removes it when
// present. The store serializes the flip per (message, member, value).
func (h *ReactionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	memberID := middleware.GetMemberID(r)

	var req models.ToggleReactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.MessageID == "" || req.Value == "" {
		http.Error(w, "Message ID and value are required", http.StatusBadRequest)
		return
	}

	added, err := h.store.ToggleReaction(req.MessageID, memberID, req.Value)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Message not found", http.StatusNotFound)
		return
	}
	if err != nil {
		metrics.MutationsFailed.WithLabelValues("toggle_reaction").Inc()
		h.log.Error("toggle reaction failed", zap.Error(err))
		http.Error(w, "Failed to toggle reaction", http.StatusInternalServerError)
		return
	}

	msg, err := h.store.GetMessage(req.MessageID)
	if err == nil {
		h.hub.Broadcast(models.WSMessage{
			Type:    models.WSTypeReactionUpdate,
			Payload: eventPayload(msg),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"added": added})
}

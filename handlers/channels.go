package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"chatfeed/middleware"
	"chatfeed/models"
	"chatfeed/store"
)

type ChannelHandler struct {
	store *store.Store
	log   *zap.Logger
}

func NewChannelHandler(s *store.Store, log *zap.Logger) *ChannelHandler {
	return &ChannelHandler{store: s, log: log}
}

func (h *ChannelHandler) List(w http.ResponseWriter, r *http.Request) {
	channels, err := h.store.ListChannels()
	if err != nil {
		http.Error(w, "Failed to list channels", http.StatusInternalServerError)
		return
	}
	if channels == nil {
		channels = []models.Channel{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(channels)
}

func (h *ChannelHandler) Create(w http.ResponseWriter, r *http.Request) {
	memberID := middleware.GetMemberID(r)

	var req models.CreateChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "Channel name is required", http.StatusBadRequest)
		return
	}

	channel, err := h.store.CreateChannel(req.Name, memberID)
	if err != nil {
		h.log.Error("create channel failed", zap.Error(err))
		http.Error(w, "Failed to create channel", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(channel)
}

func (h *ChannelHandler) Get(w http.ResponseWriter, r *http.Request) {
	channel, err := h.store.GetChannel(r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Channel not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to get channel", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(channel)
}

// CreateConversation opens (or returns) the direct conversation between
// the caller and another member.
func (h *ChannelHandler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	memberID := middleware.GetMemberID(r)

	var req models.CreateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.MemberID == "" || req.MemberID == memberID {
		http.Error(w, "A different member ID is required", http.StatusBadRequest)
		return
	}

	if _, err := h.store.GetMemberByID(req.MemberID); err != nil {
		http.Error(w, "Member not found", http.StatusNotFound)
		return
	}

	conv, err := h.store.GetOrCreateConversation(memberID, req.MemberID)
	if err != nil {
		h.log.Error("create conversation failed", zap.Error(err))
		http.Error(w, "Failed to create conversation", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(conv)
}

func (h *ChannelHandler) Members(w http.ResponseWriter, r *http.Request) {
	members, err := h.store.ListMembers()
	if err != nil {
		http.Error(w, "Failed to list members", http.StatusInternalServerError)
		return
	}
	if members == nil {
		members = []models.MemberSummary{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(members)
}

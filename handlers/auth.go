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

type AuthHandler struct {
	store *store.Store
	log   *zap.Logger
}

func NewAuthHandler(s *store.Store, log *zap.Logger) *AuthHandler {
	return &AuthHandler{store: s, log: log}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Password == "" || req.DisplayName == "" {
		http.Error(w, "Username, display name, and password are required", http.StatusBadRequest)
		return
	}
	if len(req.Password) < 6 {
		http.Error(w, "Password must be at least 6 characters", http.StatusBadRequest)
		return
	}

	if existing, _ := h.store.GetMemberByUsername(req.Username); existing != nil {
		http.Error(w, "Username already taken", http.StatusConflict)
		return
	}

	member, err := h.store.CreateMember(req.Username, req.DisplayName, req.Password, models.RoleMember)
	if err != nil {
		h.log.Error("create member failed", zap.Error(err))
		http.Error(w, "Failed to create member", http.StatusInternalServerError)
		return
	}

	h.respondWithToken(w, member)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	member, err := h.store.GetMemberByUsername(req.Username)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !h.store.ValidatePassword(member, req.Password)) {
		http.Error(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}
	if err != nil {
		http.Error(w, "Login failed", http.StatusInternalServerError)
		return
	}

	h.respondWithToken(w, member)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	memberID := middleware.GetMemberID(r)
	member, err := h.store.GetMemberByID(memberID)
	if err != nil {
		http.Error(w, "Member not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(member.ToSummary())
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, member *models.Member) {
	token, err := middleware.GenerateToken(member.ID)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.AuthResponse{
		Token:  token,
		Member: member.ToSummary(),
	})
}

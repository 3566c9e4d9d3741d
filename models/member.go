package models

import "time"

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type Member struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Image        string    `json:"image,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type MemberSummary struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Image       string `json:"image,omitempty"`
	Role        string `json:"role"`
}

func (m *Member) ToSummary() MemberSummary {
	return MemberSummary{
		ID:          m.ID,
		DisplayName: m.DisplayName,
		Image:       m.Image,
		Role:        m.Role,
	}
}

type RegisterRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token  string        `json:"token"`
	Member MemberSummary `json:"member"`
}

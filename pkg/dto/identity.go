package dto

import "github.com/google/uuid"

type RegisterRequest struct {
	ExternalID string    `json:"external_id" binding:"required"`
	Name       string    `json:"name" binding:"required"`
	Embedding  []float32 `json:"embedding" binding:"required"`
	Email      string    `json:"email"`
	Password   string    `json:"password"`
	Role       string    `json:"role"`
}

type IdentityResponse struct {
	ID         uuid.UUID `json:"id"`
	ExternalID string    `json:"external_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	Role       string    `json:"role"`
	CreatedAt  string    `json:"created_at"`
}

type IdentityListResponse struct {
	Identities []IdentityResponse `json:"identities"`
	Total      int                `json:"total"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string           `json:"token"`
	User  IdentityResponse `json:"user"`
}

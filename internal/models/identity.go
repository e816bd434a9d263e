package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Identity is one enrolled person. ExternalID is the caller-supplied,
// globally unique identifier; ID is the surrogate key assigned by the store.
// The embedding is immutable once set.
type Identity struct {
	ID           uuid.UUID `json:"id" db:"id"`
	ExternalID   string    `json:"external_id" db:"external_id"`
	Name         string    `json:"name" db:"name"`
	Embedding    []float32 `json:"-" db:"embedding"`
	Email        string    `json:"email,omitempty" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// NeighborMatch is the top-1 nearest-neighbor result for a query vector,
// distance measured as Euclidean (L2).
type NeighborMatch struct {
	ID         uuid.UUID
	ExternalID string
	Name       string
	Distance   float64
}

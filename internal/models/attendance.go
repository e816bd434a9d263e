package models

import (
	"time"

	"github.com/google/uuid"
)

// UnknownExternalID is recorded when an attempt matched nothing.
const UnknownExternalID = "unknown"

// AttendanceRecord is one immutable entry per attendance attempt,
// accepted or rejected. Records are append-only; the core never updates
// or deletes them.
type AttendanceRecord struct {
	ID uuid.UUID `json:"id" db:"id"`
	// ClaimedExternalID is the identifier the attempt was attributed to,
	// or "unknown" when no identity was resolved.
	ClaimedExternalID string `json:"claimed_external_id" db:"claimed_external_id"`
	// MatchedIdentityID is a weak reference to the matched identity.
	// If the identity is later deleted the reference dangles and reads
	// resolve the name to absent, never to an error.
	MatchedIdentityID *uuid.UUID `json:"matched_identity_id,omitempty" db:"matched_identity_id"`
	// Distance is the L2 distance to the nearest enrolled vector,
	// recorded even when the attempt was rejected.
	Distance      float64   `json:"distance" db:"distance"`
	LivenessScore float64   `json:"liveness_score" db:"liveness_score"`
	SnapshotKey   string    `json:"snapshot_key,omitempty" db:"snapshot_key"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`

	// MatchedName is joined in on reads; empty when unmatched or when
	// the referenced identity no longer exists.
	MatchedName string `json:"matched_name,omitempty" db:"-"`
}

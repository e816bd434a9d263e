package dto

import "github.com/google/uuid"

type MarkAttendanceRequest struct {
	Embedding []float32 `json:"embedding" binding:"required"`
	// Pointer so a missing score is distinguishable from 0.
	LivenessScore *float64 `json:"liveness_score" binding:"required"`
	// Snapshot is an optional base64-encoded capture image, stored as an
	// opaque blob alongside the audit record.
	Snapshot string `json:"snapshot,omitempty"`
}

type MarkAttendanceResponse struct {
	RecordID      uuid.UUID `json:"record_id"`
	ExternalID    string    `json:"external_id"`
	Name          string    `json:"name"`
	Distance      float64   `json:"distance"`
	Confidence    float64   `json:"confidence"`
	LivenessScore float64   `json:"liveness_score"`
}

type AttendanceRecordResponse struct {
	ID                uuid.UUID  `json:"id"`
	ClaimedExternalID string     `json:"claimed_external_id"`
	MatchedIdentityID *uuid.UUID `json:"matched_identity_id,omitempty"`
	MatchedName       string     `json:"matched_name,omitempty"`
	Distance          float64    `json:"distance"`
	LivenessScore     float64    `json:"liveness_score"`
	SnapshotURL       string     `json:"snapshot_url,omitempty"`
	CreatedAt         string     `json:"created_at"`
}

type AttendanceListResponse struct {
	Records []AttendanceRecordResponse `json:"records"`
	Total   int                        `json:"total"`
}

// AttendanceEvent is published to NATS and broadcast over WebSocket for
// every attendance decision.
type AttendanceEvent struct {
	Type          string    `json:"type"` // attendance_accepted, attendance_unmatched
	Outcome       string    `json:"outcome"`
	RecordID      uuid.UUID `json:"record_id,omitempty"`
	ExternalID    string    `json:"external_id,omitempty"`
	Name          string    `json:"name,omitempty"`
	Distance      float64   `json:"distance"`
	Confidence    float64   `json:"confidence,omitempty"`
	LivenessScore float64   `json:"liveness_score"`
	CreatedAt     string    `json:"created_at"`
}

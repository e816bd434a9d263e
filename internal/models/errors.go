package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions that carry no extra context.
var (
	ErrNoEnrolledIdentities = errors.New("no enrolled identities")
	ErrIdentityNotFound     = errors.New("identity not found")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrStorageUnavailable   = errors.New("storage unavailable")
	ErrTimeout              = errors.New("operation timed out")
)

// InvalidInputError is a malformed request: surfaced to the caller,
// never retried, never audited.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Reason
}

// DuplicateExternalIDError is returned both by the proactive
// registration pre-check and by the storage unique constraint backstop;
// callers cannot tell which path produced it.
type DuplicateExternalIDError struct {
	ExternalID   string
	ExistingName string
}

func (e *DuplicateExternalIDError) Error() string {
	return fmt.Sprintf("external id %q already registered to %s", e.ExternalID, e.ExistingName)
}

// DuplicateBiometricError means the presented vector is closer than the
// duplicate-enrollment threshold to an already enrolled face.
// Similarity is 1 - distance (not the attendance confidence formula).
type DuplicateBiometricError struct {
	ExistingExternalID string
	ExistingName       string
	Similarity         float64
}

func (e *DuplicateBiometricError) Error() string {
	return fmt.Sprintf("face already registered to %s (%s), similarity %.2f",
		e.ExistingName, e.ExistingExternalID, e.Similarity)
}

// LivenessRejectedError is an expected attendance outcome, not a system
// failure.
type LivenessRejectedError struct {
	Score     float64
	Threshold float64
}

func (e *LivenessRejectedError) Error() string {
	return fmt.Sprintf("liveness check failed: score %.2f below threshold %.2f", e.Score, e.Threshold)
}

// NoMatchError is an expected attendance outcome: the nearest enrolled
// vector was farther than the distance threshold.
type NoMatchError struct {
	Distance  float64
	Threshold float64
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no matching identity: distance %.3f above threshold %.3f", e.Distance, e.Threshold)
}

// IsRejection reports whether err is an expected attendance rejection
// rather than a genuine failure.
func IsRejection(err error) bool {
	var lr *LivenessRejectedError
	var nm *NoMatchError
	return errors.As(err, &lr) || errors.As(err, &nm)
}

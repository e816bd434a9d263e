// Package attendance implements the identity matching core: the
// registration guard, the attendance decision engine and the read
// surface over the append-only attendance ledger.
package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/faceid/internal/config"
	"github.com/your-org/faceid/internal/match"
	"github.com/your-org/faceid/internal/models"
	"github.com/your-org/faceid/internal/observability"
)

// IdentityStore is the durable set of enrolled identities plus the
// nearest-neighbor query the external similarity index provides.
// FindByExternalID and NearestNeighbor return nil, nil when nothing is
// found.
type IdentityStore interface {
	InsertIdentity(ctx context.Context, ident *models.Identity) error
	FindByExternalID(ctx context.Context, externalID string) (*models.Identity, error)
	NearestNeighbor(ctx context.Context, embedding []float32) (*models.NeighborMatch, error)
}

// Ledger is the append-only attendance audit log.
type Ledger interface {
	AppendAttendance(ctx context.Context, rec *models.AttendanceRecord) error
	ListRecentAttendance(ctx context.Context, limit int) ([]models.AttendanceRecord, error)
	ListAttendanceByDateRange(ctx context.Context, from, to time.Time) ([]models.AttendanceRecord, error)
}

// Service holds no mutable state of its own; every decision re-queries
// the store, so fresh enrollments match immediately and deletions stop
// matching immediately.
type Service struct {
	store  IdentityStore
	ledger Ledger
	policy match.Policy

	duplicateThreshold float64
	dimensions         int
}

func NewService(store IdentityStore, ledger Ledger, cfg config.MatchingConfig) *Service {
	return &Service{
		store:  store,
		ledger: ledger,
		policy: match.Policy{
			DistanceThreshold: cfg.DistanceThreshold,
			LivenessThreshold: cfg.LivenessThreshold,
		},
		duplicateThreshold: cfg.DuplicateThreshold,
		dimensions:         cfg.Dimensions,
	}
}

type RegisterParams struct {
	ExternalID   string
	Name         string
	Embedding    []float32
	Email        string
	PasswordHash string
	Role         string
}

// Register enforces identity uniqueness on both axes: unique external
// id and no enrolled face closer than the duplicate threshold.
//
// The external-id pre-check only exists for a friendly error message;
// the storage unique constraint is the source of truth, so two
// concurrent registrations with the same id resolve to exactly one
// insert and one DuplicateExternalIDError. A concurrent biometric
// duplicate (same face, different id) can still slip through the
// nearest-neighbor check: without an index-level exclusion constraint
// that remains best-effort.
func (s *Service) Register(ctx context.Context, p RegisterParams) (*models.Identity, error) {
	if p.ExternalID == "" {
		return nil, s.registerInvalid("external id must be a non-empty string")
	}
	if p.Name == "" {
		return nil, s.registerInvalid("name must be a non-empty string")
	}
	if len(p.Embedding) != s.dimensions {
		return nil, s.registerInvalid(fmt.Sprintf("embedding must have %d dimensions", s.dimensions))
	}
	if p.Role == "" {
		p.Role = models.RoleUser
	}
	if p.Role != models.RoleAdmin && p.Role != models.RoleUser {
		return nil, s.registerInvalid("role must be admin or user")
	}

	existing, err := s.store.FindByExternalID(ctx, p.ExternalID)
	if err != nil {
		observability.Registrations.WithLabelValues("error").Inc()
		return nil, err
	}
	if existing != nil {
		observability.Registrations.WithLabelValues("duplicate_id").Inc()
		return nil, &models.DuplicateExternalIDError{
			ExternalID:   p.ExternalID,
			ExistingName: existing.Name,
		}
	}

	neighbor, err := s.nearestNeighbor(ctx, p.Embedding)
	if err != nil {
		observability.Registrations.WithLabelValues("error").Inc()
		return nil, err
	}
	if neighbor != nil && neighbor.Distance < s.duplicateThreshold {
		observability.Registrations.WithLabelValues("duplicate_face").Inc()
		return nil, &models.DuplicateBiometricError{
			ExistingExternalID: neighbor.ExternalID,
			ExistingName:       neighbor.Name,
			Similarity:         1 - neighbor.Distance,
		}
	}

	ident := &models.Identity{
		ExternalID:   p.ExternalID,
		Name:         p.Name,
		Embedding:    p.Embedding,
		Email:        p.Email,
		PasswordHash: p.PasswordHash,
		Role:         p.Role,
	}
	if err := s.store.InsertIdentity(ctx, ident); err != nil {
		observability.Registrations.WithLabelValues("error").Inc()
		return nil, err
	}

	observability.Registrations.WithLabelValues("created").Inc()
	return ident, nil
}

func (s *Service) registerInvalid(reason string) error {
	observability.Registrations.WithLabelValues("invalid").Inc()
	return &models.InvalidInputError{Reason: reason}
}

type MarkParams struct {
	Embedding     []float32
	LivenessScore float64
	// SnapshotKey, when set, is stored on the resulting record. The
	// caller uploads the blob separately; the engine treats it as opaque.
	SnapshotKey string
}

// MarkResult is the successful attendance outcome.
type MarkResult struct {
	RecordID      uuid.UUID
	ExternalID    string
	Name          string
	Distance      float64
	Confidence    float64
	LivenessScore float64
}

// Mark runs one attendance attempt. Liveness is checked before the
// similarity query: a failing score returns LivenessRejectedError
// without touching the index and without an audit row — no biometric
// comparison happened, so there is nothing to audit. Validation
// failures likewise write nothing. Every attempt that reaches a real
// comparison writes exactly one record, accepted or not.
func (s *Service) Mark(ctx context.Context, p MarkParams) (*MarkResult, error) {
	if len(p.Embedding) != s.dimensions {
		return nil, &models.InvalidInputError{
			Reason: fmt.Sprintf("embedding must have %d dimensions", s.dimensions),
		}
	}
	if p.LivenessScore < 0 || p.LivenessScore > 1 {
		return nil, &models.InvalidInputError{Reason: "liveness score must be between 0 and 1"}
	}

	if p.LivenessScore < s.policy.LivenessThreshold {
		observability.AttendanceDecisions.WithLabelValues(match.RejectLiveness.String()).Inc()
		return nil, &models.LivenessRejectedError{
			Score:     p.LivenessScore,
			Threshold: s.policy.LivenessThreshold,
		}
	}

	neighbor, err := s.nearestNeighbor(ctx, p.Embedding)
	if err != nil {
		return nil, err
	}
	if neighbor == nil {
		return nil, models.ErrNoEnrolledIdentities
	}

	decision := s.policy.Decide(neighbor.Distance, p.LivenessScore)

	switch decision.Outcome {
	case match.Accept:
		rec := &models.AttendanceRecord{
			ClaimedExternalID: neighbor.ExternalID,
			MatchedIdentityID: &neighbor.ID,
			Distance:          neighbor.Distance,
			LivenessScore:     p.LivenessScore,
			SnapshotKey:       p.SnapshotKey,
		}
		if err := s.ledger.AppendAttendance(ctx, rec); err != nil {
			return nil, err
		}
		observability.AttendanceDecisions.WithLabelValues(match.Accept.String()).Inc()
		return &MarkResult{
			RecordID:      rec.ID,
			ExternalID:    neighbor.ExternalID,
			Name:          neighbor.Name,
			Distance:      neighbor.Distance,
			Confidence:    decision.Confidence,
			LivenessScore: p.LivenessScore,
		}, nil

	default: // match.RejectDistance
		// The rejection is audited with the real distance to the
		// nearest candidate, attributed to nobody.
		rec := &models.AttendanceRecord{
			ClaimedExternalID: models.UnknownExternalID,
			Distance:          neighbor.Distance,
			LivenessScore:     p.LivenessScore,
			SnapshotKey:       p.SnapshotKey,
		}
		if err := s.ledger.AppendAttendance(ctx, rec); err != nil {
			return nil, err
		}
		observability.AttendanceDecisions.WithLabelValues(match.RejectDistance.String()).Inc()
		return nil, &models.NoMatchError{
			Distance:  neighbor.Distance,
			Threshold: s.policy.DistanceThreshold,
		}
	}
}

func (s *Service) nearestNeighbor(ctx context.Context, embedding []float32) (*models.NeighborMatch, error) {
	start := time.Now()
	neighbor, err := s.store.NearestNeighbor(ctx, embedding)
	observability.NeighborQueryDuration.Observe(time.Since(start).Seconds())
	return neighbor, err
}

// Recent returns the latest ledger entries, newest first, with matched
// names joined in.
func (s *Service) Recent(ctx context.Context, limit int) ([]models.AttendanceRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}
	return s.ledger.ListRecentAttendance(ctx, limit)
}

// Export returns records between two calendar days, both inclusive:
// [startDate 00:00:00, endDate 23:59:59] UTC, newest first. Empty
// startDate means the beginning of time; empty endDate means today.
func (s *Service) Export(ctx context.Context, startDate, endDate string) ([]models.AttendanceRecord, error) {
	const layout = "2006-01-02"

	from := time.Time{}
	if startDate != "" {
		day, err := time.Parse(layout, startDate)
		if err != nil {
			return nil, &models.InvalidInputError{Reason: "start_date must be YYYY-MM-DD"}
		}
		from = day
	}

	to := time.Now().UTC()
	if endDate != "" {
		day, err := time.Parse(layout, endDate)
		if err != nil {
			return nil, &models.InvalidInputError{Reason: "end_date must be YYYY-MM-DD"}
		}
		to = day.Add(24*time.Hour - time.Second)
	}

	if to.Before(from) {
		return nil, &models.InvalidInputError{Reason: "end_date precedes start_date"}
	}

	return s.ledger.ListAttendanceByDateRange(ctx, from, to)
}

// DistanceThreshold exposes the configured accept threshold for
// reporting alongside rejections.
func (s *Service) DistanceThreshold() float64 {
	return s.policy.DistanceThreshold
}

// LivenessThreshold exposes the configured liveness floor.
func (s *Service) LivenessThreshold() float64 {
	return s.policy.LivenessThreshold
}

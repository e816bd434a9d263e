package storage

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/faceid/internal/models"
)

// MemoryStore is an in-memory implementation of the identity store and
// attendance ledger with brute-force L2 nearest-neighbor search. It
// backs unit tests of thresholds and decision logic without a pgvector
// instance, and mirrors the Postgres store's semantics: unique
// external_id enforced at insert, append-only ledger, weak matched
// references.
type MemoryStore struct {
	mu         sync.Mutex
	identities map[uuid.UUID]*models.Identity
	records    []*models.AttendanceRecord

	// NeighborQueries counts NearestNeighbor calls; tests use it to
	// assert that liveness failures skip the similarity query.
	NeighborQueries int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{identities: make(map[uuid.UUID]*models.Identity)}
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// --- Identities ---

func (s *MemoryStore) InsertIdentity(ctx context.Context, ident *models.Identity) error {
	if err := ctx.Err(); err != nil {
		return models.ErrTimeout
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.identities {
		if existing.ExternalID == ident.ExternalID {
			return &models.DuplicateExternalIDError{
				ExternalID:   ident.ExternalID,
				ExistingName: existing.Name,
			}
		}
	}

	if ident.ID == uuid.Nil {
		ident.ID = uuid.New()
	}
	if ident.Role == "" {
		ident.Role = models.RoleUser
	}
	ident.CreatedAt = time.Now()

	stored := *ident
	stored.Embedding = append([]float32(nil), ident.Embedding...)
	s.identities[ident.ID] = &stored
	return nil
}

func (s *MemoryStore) FindByExternalID(ctx context.Context, externalID string) (*models.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.ErrTimeout
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ident := range s.identities {
		if ident.ExternalID == externalID {
			clone := *ident
			return &clone, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (*models.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.ErrTimeout
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ident := range s.identities {
		if ident.Email != "" && ident.Email == email {
			clone := *ident
			return &clone, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) GetIdentity(ctx context.Context, id uuid.UUID) (*models.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.ErrTimeout
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ident, ok := s.identities[id]
	if !ok {
		return nil, nil
	}
	clone := *ident
	return &clone, nil
}

func (s *MemoryStore) ListIdentities(ctx context.Context) ([]models.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.ErrTimeout
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	idents := make([]models.Identity, 0, len(s.identities))
	for _, ident := range s.identities {
		idents = append(idents, *ident)
	}
	sort.Slice(idents, func(i, j int) bool {
		return idents[i].CreatedAt.After(idents[j].CreatedAt)
	})
	return idents, nil
}

func (s *MemoryStore) DeleteIdentity(ctx context.Context, id uuid.UUID) (*models.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.ErrTimeout
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ident, ok := s.identities[id]
	if !ok {
		return nil, models.ErrIdentityNotFound
	}
	delete(s.identities, id)
	clone := *ident
	return &clone, nil
}

// NearestNeighbor scans all enrolled vectors and returns the closest by
// L2 distance, nil when nothing is enrolled. Ties resolve to the lowest
// identity UUID so results are deterministic.
func (s *MemoryStore) NearestNeighbor(ctx context.Context, embedding []float32) (*models.NeighborMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.ErrTimeout
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.NeighborQueries++

	var best *models.NeighborMatch
	for _, ident := range s.identities {
		d := l2Distance(embedding, ident.Embedding)
		if best == nil || d < best.Distance ||
			(d == best.Distance && ident.ID.String() < best.ID.String()) {
			best = &models.NeighborMatch{
				ID:         ident.ID,
				ExternalID: ident.ExternalID,
				Name:       ident.Name,
				Distance:   d,
			}
		}
	}
	return best, nil
}

func l2Distance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// --- Attendance ledger ---

func (s *MemoryStore) AppendAttendance(ctx context.Context, rec *models.AttendanceRecord) error {
	if err := ctx.Err(); err != nil {
		return models.ErrTimeout
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.CreatedAt = time.Now()

	stored := *rec
	s.records = append(s.records, &stored)
	return nil
}

func (s *MemoryStore) GetAttendanceRecord(ctx context.Context, id uuid.UUID) (*models.AttendanceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.ErrTimeout
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.records {
		if rec.ID == id {
			return s.resolveRecord(rec), nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) ListRecentAttendance(ctx context.Context, limit int) ([]models.AttendanceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.ErrTimeout
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 100
	}

	recs := make([]models.AttendanceRecord, 0, len(s.records))
	for i := len(s.records) - 1; i >= 0 && len(recs) < limit; i-- {
		recs = append(recs, *s.resolveRecord(s.records[i]))
	}
	return recs, nil
}

func (s *MemoryStore) ListAttendanceByDateRange(ctx context.Context, from, to time.Time) ([]models.AttendanceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.ErrTimeout
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var recs []models.AttendanceRecord
	for i := len(s.records) - 1; i >= 0; i-- {
		rec := s.records[i]
		if rec.CreatedAt.Before(from) || rec.CreatedAt.After(to) {
			continue
		}
		recs = append(recs, *s.resolveRecord(rec))
	}
	return recs, nil
}

// resolveRecord joins in the matched identity's name, leaving it empty
// when the reference dangles.
func (s *MemoryStore) resolveRecord(rec *models.AttendanceRecord) *models.AttendanceRecord {
	clone := *rec
	clone.MatchedName = ""
	if rec.MatchedIdentityID != nil {
		if ident, ok := s.identities[*rec.MatchedIdentityID]; ok {
			clone.MatchedName = ident.Name
		}
	}
	return &clone
}

// RecordCount reports the ledger size; used by tests.
func (s *MemoryStore) RecordCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

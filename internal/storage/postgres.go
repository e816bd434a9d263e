package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/your-org/faceid/internal/config"
	"github.com/your-org/faceid/internal/models"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// wrapErr translates context cancellation into the timeout error kind so
// callers can distinguish an aborted call from a storage failure. A
// cancelled call never leaves a partial write behind: every statement
// here is a single insert or read.
func wrapErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, models.ErrTimeout)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// --- Identities ---

// InsertIdentity creates the identity row. The unique constraint on
// external_id is the authoritative duplicate check: a concurrent
// registration that slipped past the proactive lookup fails here and is
// reported as the same DuplicateExternalIDError kind.
func (s *PostgresStore) InsertIdentity(ctx context.Context, ident *models.Identity) error {
	if ident.ID == uuid.Nil {
		ident.ID = uuid.New()
	}
	if ident.Role == "" {
		ident.Role = models.RoleUser
	}

	err := s.pool.QueryRow(ctx,
		`INSERT INTO identities (id, external_id, name, embedding, email, password_hash, role)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at`,
		ident.ID, ident.ExternalID, ident.Name, pgvector.NewVector(ident.Embedding),
		ident.Email, ident.PasswordHash, ident.Role,
	).Scan(&ident.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return &models.DuplicateExternalIDError{ExternalID: ident.ExternalID}
		}
		return wrapErr("insert identity", err)
	}
	return nil
}

func (s *PostgresStore) FindByExternalID(ctx context.Context, externalID string) (*models.Identity, error) {
	ident := &models.Identity{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, external_id, name, email, role, created_at FROM identities WHERE external_id = $1`,
		externalID,
	).Scan(&ident.ID, &ident.ExternalID, &ident.Name, &ident.Email, &ident.Role, &ident.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("find identity by external id", err)
	}
	return ident, nil
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.Identity, error) {
	ident := &models.Identity{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, external_id, name, email, password_hash, role, created_at
		 FROM identities WHERE email = $1`,
		email,
	).Scan(&ident.ID, &ident.ExternalID, &ident.Name, &ident.Email,
		&ident.PasswordHash, &ident.Role, &ident.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("find identity by email", err)
	}
	return ident, nil
}

func (s *PostgresStore) GetIdentity(ctx context.Context, id uuid.UUID) (*models.Identity, error) {
	ident := &models.Identity{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, external_id, name, email, role, created_at FROM identities WHERE id = $1`, id,
	).Scan(&ident.ID, &ident.ExternalID, &ident.Name, &ident.Email, &ident.Role, &ident.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get identity", err)
	}
	return ident, nil
}

func (s *PostgresStore) ListIdentities(ctx context.Context) ([]models.Identity, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, external_id, name, email, role, created_at FROM identities ORDER BY created_at DESC`)
	if err != nil {
		return nil, wrapErr("list identities", err)
	}
	defer rows.Close()

	var idents []models.Identity
	for rows.Next() {
		var ident models.Identity
		if err := rows.Scan(&ident.ID, &ident.ExternalID, &ident.Name,
			&ident.Email, &ident.Role, &ident.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		idents = append(idents, ident)
	}
	return idents, rows.Err()
}

// DeleteIdentity removes an enrolled identity. Attendance records keep
// their matched_identity_id; the reference simply stops resolving.
func (s *PostgresStore) DeleteIdentity(ctx context.Context, id uuid.UUID) (*models.Identity, error) {
	ident := &models.Identity{ID: id}
	err := s.pool.QueryRow(ctx,
		`DELETE FROM identities WHERE id = $1 RETURNING external_id, name`, id,
	).Scan(&ident.ExternalID, &ident.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrIdentityNotFound
		}
		return nil, wrapErr("delete identity", err)
	}
	return ident, nil
}

// NearestNeighbor returns the single closest enrolled vector by L2
// distance, or nil when nothing is enrolled. Ties are broken by the
// index, deterministically for a given dataset.
func (s *PostgresStore) NearestNeighbor(ctx context.Context, embedding []float32) (*models.NeighborMatch, error) {
	m := &models.NeighborMatch{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, external_id, name, embedding <-> $1 AS distance
		 FROM identities ORDER BY distance LIMIT 1`,
		pgvector.NewVector(embedding),
	).Scan(&m.ID, &m.ExternalID, &m.Name, &m.Distance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("nearest neighbor", err)
	}
	return m, nil
}

// --- Attendance ledger ---

func (s *PostgresStore) AppendAttendance(ctx context.Context, rec *models.AttendanceRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO attendance (id, claimed_external_id, matched_identity_id, distance, liveness_score, snapshot_key)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`,
		rec.ID, rec.ClaimedExternalID, rec.MatchedIdentityID,
		rec.Distance, rec.LivenessScore, rec.SnapshotKey,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return wrapErr("append attendance", err)
	}
	return nil
}

func (s *PostgresStore) GetAttendanceRecord(ctx context.Context, id uuid.UUID) (*models.AttendanceRecord, error) {
	rec := &models.AttendanceRecord{}
	var name *string
	err := s.pool.QueryRow(ctx,
		`SELECT a.id, a.claimed_external_id, a.matched_identity_id, a.distance,
		        a.liveness_score, a.snapshot_key, a.created_at, i.name
		 FROM attendance a
		 LEFT JOIN identities i ON i.id = a.matched_identity_id
		 WHERE a.id = $1`, id,
	).Scan(&rec.ID, &rec.ClaimedExternalID, &rec.MatchedIdentityID, &rec.Distance,
		&rec.LivenessScore, &rec.SnapshotKey, &rec.CreatedAt, &name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get attendance record", err)
	}
	if name != nil {
		rec.MatchedName = *name
	}
	return rec, nil
}

func (s *PostgresStore) ListRecentAttendance(ctx context.Context, limit int) ([]models.AttendanceRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT a.id, a.claimed_external_id, a.matched_identity_id, a.distance,
		        a.liveness_score, a.snapshot_key, a.created_at, i.name
		 FROM attendance a
		 LEFT JOIN identities i ON i.id = a.matched_identity_id
		 ORDER BY a.created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, wrapErr("list attendance", err)
	}
	defer rows.Close()

	return scanAttendanceRows(rows)
}

// ListAttendanceByDateRange returns records with created_at in [from, to]
// inclusive, newest first. Callers expand calendar dates into the
// boundary instants.
func (s *PostgresStore) ListAttendanceByDateRange(ctx context.Context, from, to time.Time) ([]models.AttendanceRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT a.id, a.claimed_external_id, a.matched_identity_id, a.distance,
		        a.liveness_score, a.snapshot_key, a.created_at, i.name
		 FROM attendance a
		 LEFT JOIN identities i ON i.id = a.matched_identity_id
		 WHERE a.created_at >= $1 AND a.created_at <= $2
		 ORDER BY a.created_at DESC`, from, to)
	if err != nil {
		return nil, wrapErr("list attendance by date range", err)
	}
	defer rows.Close()

	return scanAttendanceRows(rows)
}

func scanAttendanceRows(rows pgx.Rows) ([]models.AttendanceRecord, error) {
	var recs []models.AttendanceRecord
	for rows.Next() {
		var rec models.AttendanceRecord
		var name *string
		if err := rows.Scan(&rec.ID, &rec.ClaimedExternalID, &rec.MatchedIdentityID,
			&rec.Distance, &rec.LivenessScore, &rec.SnapshotKey, &rec.CreatedAt, &name); err != nil {
			return nil, fmt.Errorf("scan attendance record: %w", err)
		}
		if name != nil {
			rec.MatchedName = *name
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

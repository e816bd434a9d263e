package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/faceid/internal/attendance"
	"github.com/your-org/faceid/internal/match"
	"github.com/your-org/faceid/internal/models"
	"github.com/your-org/faceid/pkg/dto"
)

// LedgerReader resolves single attendance records for the snapshot
// endpoint.
type LedgerReader interface {
	GetAttendanceRecord(ctx context.Context, id uuid.UUID) (*models.AttendanceRecord, error)
}

// SnapshotStore holds capture images as opaque blobs.
type SnapshotStore interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
	GetObject(ctx context.Context, key string) ([]byte, error)
}

// DecisionPublisher fans attendance decisions out to the event bus.
type DecisionPublisher interface {
	PublishDecision(ctx context.Context, outcome string, data interface{}) error
}

type AttendanceHandler struct {
	svc     *attendance.Service
	records LedgerReader
	// Optional collaborators; nil disables the feature.
	Snapshots SnapshotStore
	Publisher DecisionPublisher
}

func NewAttendanceHandler(svc *attendance.Service, records LedgerReader) *AttendanceHandler {
	return &AttendanceHandler{svc: svc, records: records}
}

func (h *AttendanceHandler) Mark(c *gin.Context) {
	var req dto.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "embedding and liveness_score are required",
		})
		return
	}

	var snapshot []byte
	var snapshotKey string
	if req.Snapshot != "" && h.Snapshots != nil {
		data, err := base64.StdEncoding.DecodeString(req.Snapshot)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "snapshot must be base64"})
			return
		}
		snapshot = data
		snapshotKey = "attendance/" + uuid.New().String() + ".jpg"
	}

	res, err := h.svc.Mark(c.Request.Context(), attendance.MarkParams{
		Embedding:     req.Embedding,
		LivenessScore: *req.LivenessScore,
		SnapshotKey:   snapshotKey,
	})

	var noMatch *models.NoMatchError
	switch {
	case err == nil:
		h.storeSnapshot(c.Request.Context(), snapshotKey, snapshot)
		h.publish(c.Request.Context(), &dto.AttendanceEvent{
			Type:          "attendance_accepted",
			Outcome:       match.Accept.String(),
			RecordID:      res.RecordID,
			ExternalID:    res.ExternalID,
			Name:          res.Name,
			Distance:      res.Distance,
			Confidence:    res.Confidence,
			LivenessScore: res.LivenessScore,
			CreatedAt:     time.Now().Format(time.RFC3339),
		})
		slog.Info("attendance accepted",
			"external_id", res.ExternalID, "distance", res.Distance, "liveness", res.LivenessScore)

		c.JSON(http.StatusOK, dto.MarkAttendanceResponse{
			RecordID:      res.RecordID,
			ExternalID:    res.ExternalID,
			Name:          res.Name,
			Distance:      res.Distance,
			Confidence:    res.Confidence,
			LivenessScore: res.LivenessScore,
		})

	case errors.As(err, &noMatch):
		// Rejection was audited; the snapshot and live feed still apply.
		h.storeSnapshot(c.Request.Context(), snapshotKey, snapshot)
		h.publish(c.Request.Context(), &dto.AttendanceEvent{
			Type:          "attendance_unmatched",
			Outcome:       match.RejectDistance.String(),
			Distance:      noMatch.Distance,
			LivenessScore: *req.LivenessScore,
			CreatedAt:     time.Now().Format(time.RFC3339),
		})
		writeError(c, err)

	default:
		writeError(c, err)
	}
}

func (h *AttendanceHandler) storeSnapshot(ctx context.Context, key string, data []byte) {
	if key == "" || len(data) == 0 {
		return
	}
	if err := h.Snapshots.PutObject(ctx, key, data, "image/jpeg"); err != nil {
		slog.Error("store attendance snapshot", "key", key, "error", err)
	}
}

func (h *AttendanceHandler) publish(ctx context.Context, evt *dto.AttendanceEvent) {
	if h.Publisher == nil {
		return
	}
	if err := h.Publisher.PublishDecision(ctx, evt.Outcome, evt); err != nil {
		slog.Error("publish attendance event", "outcome", evt.Outcome, "error", err)
	}
}

func (h *AttendanceHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	recs, err := h.svc.Recent(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, recordListResponse(recs))
}

func (h *AttendanceHandler) Export(c *gin.Context) {
	recs, err := h.svc.Export(c.Request.Context(),
		c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		writeError(c, err)
		return
	}

	slog.Info("attendance exported", "records", len(recs))
	c.JSON(http.StatusOK, recordListResponse(recs))
}

// Snapshot serves the stored capture image for a ledger entry.
func (h *AttendanceHandler) Snapshot(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record id"})
		return
	}

	rec, err := h.records.GetAttendanceRecord(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if rec == nil || rec.SnapshotKey == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "snapshot not found"})
		return
	}
	if h.Snapshots == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "snapshot storage not configured"})
		return
	}

	data, err := h.Snapshots.GetObject(c.Request.Context(), rec.SnapshotKey)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "snapshot not found"})
		return
	}

	c.Data(http.StatusOK, "image/jpeg", data)
}

func recordListResponse(recs []models.AttendanceRecord) dto.AttendanceListResponse {
	resp := make([]dto.AttendanceRecordResponse, 0, len(recs))
	for _, rec := range recs {
		r := dto.AttendanceRecordResponse{
			ID:                rec.ID,
			ClaimedExternalID: rec.ClaimedExternalID,
			MatchedIdentityID: rec.MatchedIdentityID,
			MatchedName:       rec.MatchedName,
			Distance:          rec.Distance,
			LivenessScore:     rec.LivenessScore,
			CreatedAt:         rec.CreatedAt.Format(time.RFC3339),
		}
		if rec.SnapshotKey != "" {
			r.SnapshotURL = "/v1/attendance/" + rec.ID.String() + "/snapshot"
		}
		resp = append(resp, r)
	}
	return dto.AttendanceListResponse{Records: resp, Total: len(resp)}
}

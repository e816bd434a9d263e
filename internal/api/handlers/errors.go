package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/faceid/internal/models"
)

// writeError maps the domain error taxonomy onto HTTP. Rejections and
// conflicts keep their operator context (distance, threshold, existing
// identity); infrastructure failures hide detail behind a 5xx.
func writeError(c *gin.Context, err error) {
	var invalid *models.InvalidInputError
	var dupID *models.DuplicateExternalIDError
	var dupFace *models.DuplicateBiometricError
	var liveness *models.LivenessRejectedError
	var noMatch *models.NoMatchError

	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": invalid.Reason})

	case errors.As(err, &dupID):
		c.JSON(http.StatusConflict, gin.H{
			"error":         "external id already taken",
			"external_id":   dupID.ExternalID,
			"existing_name": dupID.ExistingName,
		})

	case errors.As(err, &dupFace):
		c.JSON(http.StatusConflict, gin.H{
			"error":                "face already registered",
			"existing_external_id": dupFace.ExistingExternalID,
			"existing_name":        dupFace.ExistingName,
			"similarity":           dupFace.Similarity,
		})

	case errors.As(err, &liveness):
		c.JSON(http.StatusForbidden, gin.H{
			"error":          "liveness check failed",
			"liveness_score": liveness.Score,
			"threshold":      liveness.Threshold,
		})

	case errors.As(err, &noMatch):
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "no matching identity found",
			"distance":  noMatch.Distance,
			"threshold": noMatch.Threshold,
		})

	case errors.Is(err, models.ErrNoEnrolledIdentities):
		c.JSON(http.StatusNotFound, gin.H{"error": "no enrolled identities"})

	case errors.Is(err, models.ErrIdentityNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "identity not found"})

	case errors.Is(err, models.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})

	case errors.Is(err, models.ErrTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "operation timed out"})

	default:
		slog.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/faceid/internal/models"
	"github.com/your-org/faceid/pkg/dto"
)

// IdentityDirectory is the admin read/delete surface over enrolled
// identities.
type IdentityDirectory interface {
	ListIdentities(ctx context.Context) ([]models.Identity, error)
	GetIdentity(ctx context.Context, id uuid.UUID) (*models.Identity, error)
	DeleteIdentity(ctx context.Context, id uuid.UUID) (*models.Identity, error)
}

type PeopleHandler struct {
	directory IdentityDirectory
}

func NewPeopleHandler(directory IdentityDirectory) *PeopleHandler {
	return &PeopleHandler{directory: directory}
}

func (h *PeopleHandler) List(c *gin.Context) {
	idents, err := h.directory.ListIdentities(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]dto.IdentityResponse, 0, len(idents))
	for i := range idents {
		resp = append(resp, identityResponse(&idents[i]))
	}
	c.JSON(http.StatusOK, dto.IdentityListResponse{Identities: resp, Total: len(resp)})
}

func (h *PeopleHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identity id"})
		return
	}

	ident, err := h.directory.GetIdentity(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if ident == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "identity not found"})
		return
	}

	c.JSON(http.StatusOK, identityResponse(ident))
}

// Delete removes an enrolled identity. Ledger entries that referenced
// it keep their weak id and read back with the name absent.
func (h *PeopleHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identity id"})
		return
	}

	deleted, err := h.directory.DeleteIdentity(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	slog.Info("identity deleted", "external_id", deleted.ExternalID, "name", deleted.Name)

	c.JSON(http.StatusOK, gin.H{
		"message": "identity deleted",
		"deleted": gin.H{
			"external_id": deleted.ExternalID,
			"name":        deleted.Name,
		},
	})
}

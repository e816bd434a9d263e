package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/faceid/internal/attendance"
	"github.com/your-org/faceid/internal/auth"
	"github.com/your-org/faceid/pkg/dto"
)

type RegisterHandler struct {
	svc *attendance.Service
}

func NewRegisterHandler(svc *attendance.Service) *RegisterHandler {
	return &RegisterHandler{svc: svc}
}

func (h *RegisterHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "external_id, name and embedding are required",
		})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	ident, err := h.svc.Register(c.Request.Context(), attendance.RegisterParams{
		ExternalID:   req.ExternalID,
		Name:         req.Name,
		Embedding:    req.Embedding,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	slog.Info("identity registered",
		"external_id", ident.ExternalID, "name", ident.Name, "role", ident.Role)

	c.JSON(http.StatusCreated, gin.H{
		"message": "identity registered",
		"person":  identityResponse(ident),
	})
}

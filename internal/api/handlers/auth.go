package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/faceid/internal/auth"
	"github.com/your-org/faceid/internal/models"
	"github.com/your-org/faceid/pkg/dto"
)

type AuthHandler struct {
	svc *auth.Service
}

func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	token, ident, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.LoginResponse{
		Token: token,
		User:  identityResponse(ident),
	})
}

// Verify echoes the authenticated claims; reaching it at all means the
// token passed the middleware.
func (h *AuthHandler) Verify(c *gin.Context) {
	claims := auth.ClaimsFrom(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"identity_id": claims.IdentityID,
		"external_id": claims.ExternalID,
		"email":       claims.Email,
		"role":        claims.Role,
	})
}

func identityResponse(ident *models.Identity) dto.IdentityResponse {
	return dto.IdentityResponse{
		ID:         ident.ID,
		ExternalID: ident.ExternalID,
		Name:       ident.Name,
		Email:      ident.Email,
		Role:       ident.Role,
		CreatedAt:  ident.CreatedAt.Format(time.RFC3339),
	}
}

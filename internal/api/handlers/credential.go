package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sahana-h/job-parser/internal/api/middleware"
	"github.com/sahana-h/job-parser/internal/services"
	"golang.org/x/oauth2"
)

// CredentialHandler handles mailbox credential requests
type CredentialHandler struct {
	credentialService *services.CredentialService
}

// NewCredentialHandler creates a new CredentialHandler instance
func NewCredentialHandler(credentialService *services.CredentialService) *CredentialHandler {
	return &CredentialHandler{credentialService: credentialService}
}

// StoreCredentialRequest carries an OAuth token bundle obtained through the
// provider's consent flow. The server encrypts it at rest; it is never
// returned by any endpoint.
type StoreCredentialRequest struct {
	AccessToken  string   `json:"access_token" binding:"required"`
	RefreshToken string   `json:"refresh_token"`
	TokenType    string   `json:"token_type"`
	Expiry       int64    `json:"expiry"` // unix seconds
	Scopes       []string `json:"scopes"`
}

// StoreCredential stores or replaces the user's mailbox credential
// POST /api/credential
func (h *CredentialHandler) StoreCredential(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		respondUnauthenticated(c)
		return
	}

	var req StoreCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request body",
				"details": err.Error(),
			},
		})
		return
	}

	token := &oauth2.Token{
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		TokenType:    req.TokenType,
	}
	if req.Expiry > 0 {
		token.Expiry = time.Unix(req.Expiry, 0)
	}

	if err := h.credentialService.Set(userID, token, req.Scopes); err != nil {
		respondInternalError(c, "Failed to store credential")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Credential stored",
	})
}

// GetCredential returns the stored credential's metadata, never its contents
// GET /api/credential
func (h *CredentialHandler) GetCredential(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		respondUnauthenticated(c)
		return
	}

	credential, err := h.credentialService.Get(userID)
	if err != nil {
		if errors.Is(err, services.ErrCredentialMissing) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "No mail credential stored",
				},
			})
			return
		}
		respondInternalError(c, "Failed to load credential")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"provider":   credential.Provider,
			"scope":      credential.Scope,
			"expiry":     credential.Expiry.Unix(),
			"invalid":    credential.Invalid,
			"updated_at": credential.UpdatedAt.Unix(),
		},
	})
}

// DeleteCredential removes the user's stored credential
// DELETE /api/credential
func (h *CredentialHandler) DeleteCredential(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		respondUnauthenticated(c)
		return
	}

	if err := h.credentialService.Clear(userID); err != nil {
		if errors.Is(err, services.ErrCredentialMissing) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "No mail credential stored",
				},
			})
			return
		}
		respondInternalError(c, "Failed to delete credential")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Credential removed",
	})
}

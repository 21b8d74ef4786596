package handler

import (
	"errors"
	"net/http"

	"user_admin/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ResetHandler handles password reset requests
type ResetHandler struct {
	service service.PasswordResetService
	logger  *zap.Logger
}

// NewResetHandler creates a new ResetHandler
func NewResetHandler(s service.PasswordResetService, logger *zap.Logger) *ResetHandler {
	return &ResetHandler{service: s, logger: logger}
}

func (h *ResetHandler) RequestReset(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	err := h.service.RequestReset(c.Request.Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrMailDelivery):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send reset email"})
		default:
			h.logger.Error("reset request failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process reset request"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Reset email sent successfully"})
}

func (h *ResetHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"newPassword" binding:"required,min=6"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	err := h.service.ResetPassword(c.Request.Context(), req.Token, req.NewPassword)
	if err != nil {
		if errors.Is(err, service.ErrResetTokenInvalid) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("password reset failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}

// RegisterResetRoutes registers password reset routes. Both are public: the
// caller proves control of the email account, not an existing session.
func (h *ResetHandler) RegisterResetRoutes(rg *gin.RouterGroup) {
	rg.POST("/reset-password-request", h.RequestReset)
	rg.POST("/reset-password", h.ResetPassword)
}

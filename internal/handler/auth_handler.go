package handler

import (
	"errors"
	"net/http"

	"user_admin/internal/middleware"
	"user_admin/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	service service.AuthService
	logger  *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(s service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{service: s, logger: logger}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	token, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": service.ErrInvalidCredentials.Error()})
			return
		}
		h.logger.Error("login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to login"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// CurrentUser returns the identity and role of the authenticated caller
func (h *AuthHandler) CurrentUser(c *gin.Context) {
	username, err := getAuthUsername(c)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}

	user, err := h.service.CurrentUser(c.Request.Context(), username)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("failed to load current user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load current user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"username": user.Username, "role": user.Role})
}

// RegisterAuthRoutes registers auth routes
func (h *AuthHandler) RegisterAuthRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.POST("/login", h.Login)
	rg.GET("/user", authMW, h.CurrentUser)
}

// Helper to get the authenticated username from context
func getAuthUsername(c *gin.Context) (string, error) {
	usernameVal, exists := c.Get(middleware.AuthUserKey)
	if !exists {
		return "", errors.New("username not found in context")
	}
	username, ok := usernameVal.(string)
	if !ok {
		return "", errors.New("invalid username type in context")
	}
	return username, nil
}

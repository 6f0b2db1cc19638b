package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pos_tracker_backend/internal/models"
	"pos_tracker_backend/internal/services"
	"pos_tracker_backend/pkg/utils"
)

// AuthHandler holds the authentication service.
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as services.AuthService) *AuthHandler {
	return &AuthHandler{authService: as}
}

// LoginUser handles user login.
func (h *AuthHandler) LoginUser(c *gin.Context) {
	var req models.Credentials
	if !bindJSON(c, &req, "LoginUser") {
		return
	}

	authResp, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		utils.LogError(err, "LoginUser: Error from authService.Login")
		if errors.Is(err, services.ErrInvalidCredentials) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid username or password.", err.Error()))
		} else {
			respondInternal(c, "Failed to login.")
		}
		return
	}
	c.JSON(http.StatusOK, authResp)
}

// GetCurrentUser retrieves the profile of the currently authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID := currentUserID(c)
	if userID == nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated.", "Missing user ID in context"))
		return
	}

	user, err := h.authService.GetUserProfile(c.Request.Context(), *userID)
	if err != nil {
		utils.LogError(err, "GetCurrentUser: Error from authService.GetUserProfile for userID "+utils.Int64ToStr(*userID))
		if errors.Is(err, services.ErrUserNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "User profile not found.", err.Error()))
		} else {
			respondInternal(c, "Failed to retrieve user profile.")
		}
		return
	}
	c.JSON(http.StatusOK, user)
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pos_tracker_backend/internal/services"
	"pos_tracker_backend/pkg/utils"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// parseIDParam reads a positive int64 path parameter, answering 400 itself on failure.
func parseIDParam(c *gin.Context, name, label string) (int64, bool) {
	idStr := c.Param(name)
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid "+label+" ID format.", "id: "+idStr))
		return 0, false
	}
	return id, true
}

func pagination(c *gin.Context) (int, int) {
	page := utils.StrToPositiveInt(c.Query("page"), 1)
	pageSize := utils.StrToPositiveInt(c.Query("page_size"), defaultPageSize)
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// currentUserID returns the authenticated user's id, or nil outside AuthMiddleware.
func currentUserID(c *gin.Context) *int64 {
	raw, exists := c.Get("userID")
	if !exists {
		return nil
	}
	id, ok := raw.(int64)
	if !ok {
		return nil
	}
	return &id
}

// bindJSON binds the request body and answers 400 on failure.
func bindJSON(c *gin.Context, dest interface{}, op string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		utils.LogError(err, op+": Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return false
	}
	return true
}

// respondValidation answers 400 with field messages when err carries a ValidationError.
func respondValidation(c *gin.Context, err error) bool {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		utils.RespondFieldErrors(c, verr.Message, verr.Fields)
		return true
	}
	if errors.Is(err, services.ErrValidation) {
		utils.RespondValidationFailed(c, err.Error())
		return true
	}
	return false
}

func respondInternal(c *gin.Context, message string) {
	utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, message, "Internal error"))
}

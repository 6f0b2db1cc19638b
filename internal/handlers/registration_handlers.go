package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pos_tracker_backend/internal/models"
	"pos_tracker_backend/internal/services"
	"pos_tracker_backend/pkg/utils"
)

// RegistrationHandler drives the customer registration wizard.
// Drafts are keyed by the session id carried in the access token.
type RegistrationHandler struct {
	registrationService services.RegistrationService
}

func NewRegistrationHandler(rs services.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrationService: rs}
}

func wizardSession(c *gin.Context) (string, bool) {
	if raw, exists := c.Get("sessionID"); exists {
		if sid, ok := raw.(string); ok && sid != "" {
			return sid, true
		}
	}
	if userID := currentUserID(c); userID != nil {
		return "user:" + utils.Int64ToStr(*userID), true
	}
	utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "No session for the registration wizard.", "Missing session ID in context"))
	return "", false
}

func parseStep(c *gin.Context) (int, bool) {
	step, err := strconv.Atoi(c.Param("step"))
	if err != nil || step < 1 || step > 4 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Unknown registration step.", "step: "+c.Param("step")))
		return 0, false
	}
	return step, true
}

func respondOutcome(c *gin.Context, outcome *services.Outcome) {
	if outcome.Success {
		c.JSON(http.StatusOK, outcome)
		return
	}
	c.JSON(http.StatusBadRequest, outcome)
}

// GetStep returns what the session has stored for a step; step 4 returns the whole draft.
func (h *RegistrationHandler) GetStep(c *gin.Context) {
	sessionID, ok := wizardSession(c)
	if !ok {
		return
	}
	step, ok := parseStep(c)
	if !ok {
		return
	}

	data, err := h.registrationService.LoadStep(c.Request.Context(), sessionID, step)
	if err != nil {
		utils.LogError(err, "GetStep: Error from registrationService.LoadStep")
		if errors.Is(err, services.ErrInvalidStep) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Unknown registration step.", err.Error()))
			return
		}
		respondInternal(c, "Failed to load registration step.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"step": step, "data": data})
}

// SubmitStep validates and stores one wizard step. Step 4 finalizes the registration.
func (h *RegistrationHandler) SubmitStep(c *gin.Context) {
	sessionID, ok := wizardSession(c)
	if !ok {
		return
	}
	step, ok := parseStep(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var (
		outcome *services.Outcome
		err     error
	)
	switch step {
	case 1:
		var req services.Step1Request
		if !bindJSON(c, &req, "SubmitStep1") {
			return
		}
		outcome, err = h.registrationService.SubmitStep1(ctx, sessionID, req, currentUserID(c))
	case 2:
		var req models.Step2Data
		if !bindJSON(c, &req, "SubmitStep2") {
			return
		}
		outcome, err = h.registrationService.SubmitStep2(ctx, sessionID, req)
	case 3:
		var req models.Step3Data
		if !bindJSON(c, &req, "SubmitStep3") {
			return
		}
		outcome, err = h.registrationService.SubmitStep3(ctx, sessionID, req)
	case 4:
		var req services.FinalizeRequest
		if !bindJSON(c, &req, "FinalizeRegistration") {
			return
		}
		outcome, err = h.registrationService.Finalize(ctx, sessionID, req, currentUserID(c))
	}
	if err != nil {
		utils.LogError(err, "SubmitStep: Error from registrationService for step "+c.Param("step"))
		c.JSON(http.StatusInternalServerError, services.Outcome{
			Success:     false,
			Message:     "Error saving registration. Please try again.",
			MessageType: services.MessageError,
			NextStep:    step,
		})
		return
	}
	respondOutcome(c, outcome)
}

// ResetWizard discards the session's draft.
func (h *RegistrationHandler) ResetWizard(c *gin.Context) {
	sessionID, ok := wizardSession(c)
	if !ok {
		return
	}
	if err := h.registrationService.Reset(c.Request.Context(), sessionID); err != nil {
		utils.LogError(err, "ResetWizard: Error from registrationService.Reset")
		respondInternal(c, "Failed to reset registration.")
		return
	}
	c.Status(http.StatusNoContent)
}

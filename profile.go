package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lg/fittrack-api/internal/nutrition"
)

// getProfile returns the authenticated user's profile with derived targets.
// GET /api/profile.
func (h *Handler) getProfile(c *gin.Context) {
	userID := c.GetInt("user_id")

	p, err := h.store.Profile(c, userID)
	if errors.Is(err, nutrition.ErrProfileNotFound) {
		apiError(c, http.StatusNotFound, "profile not found")
		return
	}
	if err != nil {
		h.log.Errorw("fetch profile", "user_id", userID, "error", err)
		apiError(c, http.StatusInternalServerError, "failed to fetch profile")
		return
	}

	c.JSON(http.StatusOK, profileResponse{Profile: p, Targets: nutrition.ComputeTargets(p)})
}

// getTargets returns only the derived energy targets.
// GET /api/profile/targets.
func (h *Handler) getTargets(c *gin.Context) {
	userID := c.GetInt("user_id")

	p, err := h.store.Profile(c, userID)
	if errors.Is(err, nutrition.ErrProfileNotFound) {
		apiError(c, http.StatusNotFound, "profile not found")
		return
	}
	if err != nil {
		h.log.Errorw("fetch profile", "user_id", userID, "error", err)
		apiError(c, http.StatusInternalServerError, "failed to fetch profile")
		return
	}

	c.JSON(http.StatusOK, nutrition.ComputeTargets(p))
}

// validateProfilePatch rejects values the calculator cannot use. Returns an
// empty string when body is acceptable.
func validateProfilePatch(body patchProfileRequest) string {
	if body.Sex == nil && body.HeightCM == nil && body.WeightKG == nil &&
		body.AgeYears == nil && body.ActivityLevel == nil && body.TargetWeightKG == nil {
		return "no fields to update"
	}
	if body.Sex != nil && !nutrition.ValidSex(*body.Sex) {
		return "sex must be one of: male, female"
	}
	if body.ActivityLevel != nil && !nutrition.ValidActivityLevel(*body.ActivityLevel) {
		return "activity_level must be one of: sedentary, light, moderate, active, very-active"
	}
	if body.HeightCM != nil && (*body.HeightCM <= 0 || *body.HeightCM > 300) {
		return "height_cm must be between 0 and 300"
	}
	if body.WeightKG != nil && (*body.WeightKG <= 0 || *body.WeightKG > 700) {
		return "weight_kg must be between 0 and 700"
	}
	if body.TargetWeightKG != nil && (*body.TargetWeightKG <= 0 || *body.TargetWeightKG > 700) {
		return "target_weight_kg must be between 0 and 700"
	}
	if body.AgeYears != nil && (*body.AgeYears <= 0 || *body.AgeYears > 130) {
		return "age_years must be between 1 and 130"
	}
	return ""
}

// patchProfile updates only the provided profile fields and recomputes BMI,
// BMR and the daily calorie goal. Used for onboarding and later edits.
// PATCH /api/profile.
func (h *Handler) patchProfile(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body patchProfileRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validateProfilePatch(body); msg != "" {
		apiError(c, http.StatusBadRequest, msg)
		return
	}

	p, err := h.store.updateProfile(c, userID, body)
	if errors.Is(err, nutrition.ErrProfileNotFound) {
		apiError(c, http.StatusNotFound, "profile not found")
		return
	}
	if err != nil {
		h.log.Errorw("update profile", "user_id", userID, "error", err)
		apiError(c, http.StatusInternalServerError, "failed to update profile")
		return
	}

	c.JSON(http.StatusOK, profileResponse{Profile: p, Targets: nutrition.ComputeTargets(p)})
}

package main

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"lg/fittrack-api/internal/nutrition"
)

// validateIntake normalizes body in place and returns an error message, or
// "" when the entry is acceptable. Calories and macros must be non-negative.
func validateIntake(body *createIntakeRequest) string {
	body.Name = strings.TrimSpace(body.Name)
	body.Meal = strings.ToLower(strings.TrimSpace(body.Meal))
	if body.Name == "" {
		return "name is required"
	}
	if body.Meal == "" {
		body.Meal = "other"
	}
	if !nutrition.Meals[body.Meal] {
		return "meal must be one of: breakfast, lunch, dinner, other"
	}
	if body.Calories < 0 || body.CarbsG < 0 || body.ProteinG < 0 || body.FatG < 0 {
		return "calories and macros must not be negative"
	}
	return ""
}

// validateExercise normalizes body in place and returns an error message, or
// "" when the entry is acceptable.
func validateExercise(body *createExerciseRequest) string {
	body.Name = strings.TrimSpace(body.Name)
	body.Category = strings.ToLower(strings.TrimSpace(body.Category))
	if body.Name == "" {
		return "name is required"
	}
	if body.Category == "" {
		body.Category = "other"
	}
	if body.DurationMin < 0 {
		return "duration_min must not be negative"
	}
	if body.CaloriesBurned < 0 {
		return "calories_burned must not be negative"
	}
	return ""
}

/* ─── Food intake ────────────────────────────────────────────────────── */

// createIntake logs a food entry and notifies the user's open dashboards.
// POST /api/food-intake.
func (h *Handler) createIntake(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body createIntakeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validateIntake(&body); msg != "" {
		apiError(c, http.StatusBadRequest, msg)
		return
	}

	entry, err := h.store.insertIntake(c, userID, body)
	if err != nil {
		h.log.Errorw("insert food intake", "user_id", userID, "error", err)
		apiError(c, http.StatusInternalServerError, "failed to create entry")
		return
	}

	h.hub.publish(userID, event{Kind: eventIntakeCreated, Entry: entry})
	c.JSON(http.StatusCreated, entry)
}

// listIntake returns the food entries for one day.
// GET /api/food-intake?date=YYYY-MM-DD (defaults to today).
func (h *Handler) listIntake(c *gin.Context) {
	userID := c.GetInt("user_id")

	start, err := h.parseDay(c.Query("date"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	entries, err := h.store.IntakeBetween(c, userID, start, start.AddDate(0, 0, 1))
	if err != nil {
		h.log.Errorw("list food intake", "user_id", userID, "error", err)
		apiError(c, http.StatusInternalServerError, "failed to fetch entries")
		return
	}
	// Ensure entries is an empty array (not null) in JSON
	if entries == nil {
		entries = []nutrition.FoodIntakeEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

// deleteIntake removes a food entry. Returns 204 on success.
// DELETE /api/food-intake/:id.
func (h *Handler) deleteIntake(c *gin.Context) {
	h.deleteLogged(c, "food_intake")
}

/* ─── Exercise ───────────────────────────────────────────────────────── */

// createExercise logs an exercise entry.
// POST /api/exercise.
func (h *Handler) createExercise(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body createExerciseRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validateExercise(&body); msg != "" {
		apiError(c, http.StatusBadRequest, msg)
		return
	}

	entry, err := h.store.insertExercise(c, userID, body)
	if err != nil {
		h.log.Errorw("insert exercise", "user_id", userID, "error", err)
		apiError(c, http.StatusInternalServerError, "failed to create entry")
		return
	}

	h.hub.publish(userID, event{Kind: eventExerciseCreated, Entry: entry})
	c.JSON(http.StatusCreated, gin.H{
		"entry":               entry,
		"calories_per_minute": entry.CaloriesPerMinute(),
	})
}

// listExercise returns the exercise entries for one day.
// GET /api/exercise?date=YYYY-MM-DD (defaults to today).
func (h *Handler) listExercise(c *gin.Context) {
	userID := c.GetInt("user_id")

	start, err := h.parseDay(c.Query("date"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	entries, err := h.store.ExerciseBetween(c, userID, start, start.AddDate(0, 0, 1))
	if err != nil {
		h.log.Errorw("list exercise", "user_id", userID, "error", err)
		apiError(c, http.StatusInternalServerError, "failed to fetch entries")
		return
	}
	if entries == nil {
		entries = []nutrition.ExerciseEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

// deleteExercise removes an exercise entry. Returns 204 on success.
// DELETE /api/exercise/:id.
func (h *Handler) deleteExercise(c *gin.Context) {
	h.deleteLogged(c, "exercise_log")
}

// deleteLogged deletes the :id row of table owned by the caller.
func (h *Handler) deleteLogged(c *gin.Context, table string) {
	userID := c.GetInt("user_id")
	id := c.Param("id")
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		apiError(c, http.StatusBadRequest, "invalid id")
		return
	}

	deleted, err := h.store.deleteEntry(c, table, userID, id)
	if err != nil {
		h.log.Errorw("delete entry", "table", table, "id", id, "user_id", userID, "error", err)
		apiError(c, http.StatusInternalServerError, "failed to delete entry")
		return
	}
	if !deleted {
		apiError(c, http.StatusNotFound, "entry not found")
		return
	}

	h.hub.publish(userID, event{Kind: eventEntryDeleted, Table: table, ID: id})
	c.Status(http.StatusNoContent)
}

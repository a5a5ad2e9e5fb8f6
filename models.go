package main

import (
	"time"

	"lg/fittrack-api/internal/nutrition"
)

/* ─── Domain structs ─────────────────────────────────────────────────── */

// user maps to the users table. Password is hidden from JSON responses.
type user struct {
	ID        int        `json:"id" db:"id"`
	Username  string     `json:"username" db:"username"`
	Email     string     `json:"email" db:"email"`
	Password  string     `json:"-" db:"password"`
	CreatedAt *time.Time `json:"created_at" db:"created_at"`
}

// weightEntry maps to weight_log. One row per user per date.
type weightEntry struct {
	ID        int                `json:"id" db:"id"`
	UserID    int                `json:"user_id" db:"user_id"`
	Date      nutrition.DateOnly `json:"date" db:"date"`
	WeightKG  float64            `json:"weight_kg" db:"weight_kg"`
	CreatedAt *time.Time         `json:"created_at" db:"created_at"`
}

// chatMessage maps to chat_messages. Role is "user" or "assistant".
type chatMessage struct {
	ID        string    `json:"id" db:"id"`
	UserID    int       `json:"user_id" db:"user_id"`
	Role      string    `json:"role" db:"role"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// profileResponse is the shape of GET/PATCH /api/profile.
type profileResponse struct {
	nutrition.Profile
	Targets nutrition.Targets `json:"targets"`
}

// dashboardResponse is the response shape for GET /api/dashboard.
type dashboardResponse struct {
	Profile profileResponse         `json:"profile"`
	Today   *nutrition.DailySummary `json:"today"`
	Week    nutrition.WeeklySummary `json:"week"`
}

/* ─── Request bodies ─────────────────────────────────────────────────── */

// registerRequest is the request body for POST /api/register.
type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// createIntakeRequest is the request body for POST /api/food-intake.
type createIntakeRequest struct {
	Name     string  `json:"name"`
	Meal     string  `json:"meal"`
	Calories float64 `json:"calories"`
	CarbsG   float64 `json:"carbs_g"`
	ProteinG float64 `json:"protein_g"`
	FatG     float64 `json:"fat_g"`
}

// createExerciseRequest is the request body for POST /api/exercise.
type createExerciseRequest struct {
	Category       string  `json:"category"`
	Name           string  `json:"name"`
	DurationMin    float64 `json:"duration_min"`
	CaloriesBurned float64 `json:"calories_burned"`
}

// patchProfileRequest is the request body for PATCH /api/profile.
// Only non-nil fields get written to the database.
type patchProfileRequest struct {
	Sex            *string  `json:"sex"`
	HeightCM       *float64 `json:"height_cm"`
	WeightKG       *float64 `json:"weight_kg"`
	AgeYears       *int     `json:"age_years"`
	ActivityLevel  *string  `json:"activity_level"`
	TargetWeightKG *float64 `json:"target_weight_kg"`
}

// coachRequest is the request body for POST /api/coach/messages.
type coachRequest struct {
	Message string `json:"message"`
}

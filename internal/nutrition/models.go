package nutrition

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// DateOnly wraps time.Time to serialize as "YYYY-MM-DD" in JSON.
type DateOnly struct{ time.Time }

func (d DateOnly) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Time.Format("2006-01-02") + `"`), nil
}

func (d *DateOnly) UnmarshalJSON(b []byte) error {
	t, err := time.Parse(`"2006-01-02"`, string(b))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// ScanDate implements pgtype.DateScanner so pgx can scan PostgreSQL date
// columns into DateOnly. NULL zeroes the time.
func (d *DateOnly) ScanDate(v pgtype.Date) error {
	if !v.Valid {
		d.Time = time.Time{}
		return nil
	}
	d.Time = v.Time
	return nil
}

/* ─── Enumerations ───────────────────────────────────────────────────── */

const (
	SexMale   = "male"
	SexFemale = "female"
)

// Meals is the set of allowed meal categories for a food intake entry.
var Meals = map[string]bool{
	"breakfast": true,
	"lunch":     true,
	"dinner":    true,
	"other":     true,
}

/* ─── Domain structs ─────────────────────────────────────────────────── */

// Profile maps to the profiles table. A freshly registered user has a row
// with zero values until onboarding fills it in. BMI, BMR and
// DailyCalorieGoal are derived and rewritten on every profile change.
type Profile struct {
	UserID           int        `json:"user_id"            db:"user_id"`
	Sex              string     `json:"sex"                db:"sex"`
	HeightCM         float64    `json:"height_cm"          db:"height_cm"`
	WeightKG         float64    `json:"weight_kg"          db:"weight_kg"`
	AgeYears         int        `json:"age_years"          db:"age_years"`
	ActivityLevel    string     `json:"activity_level"     db:"activity_level"`
	TargetWeightKG   float64    `json:"target_weight_kg"   db:"target_weight_kg"`
	BMI              float64    `json:"bmi"                db:"bmi"`
	BMR              float64    `json:"bmr"                db:"bmr"`
	DailyCalorieGoal int        `json:"daily_calorie_goal" db:"daily_calorie_goal"`
	UpdatedAt        *time.Time `json:"updated_at"         db:"updated_at"`
}

// FoodIntakeEntry maps to food_intake. LoggedAt is assigned by the database.
type FoodIntakeEntry struct {
	ID       int64     `json:"id"        db:"id"`
	UserID   int       `json:"user_id"   db:"user_id"`
	Name     string    `json:"name"      db:"name"`
	Meal     string    `json:"meal"      db:"meal"`
	Calories float64   `json:"calories"  db:"calories"`
	CarbsG   float64   `json:"carbs_g"   db:"carbs_g"`
	ProteinG float64   `json:"protein_g" db:"protein_g"`
	FatG     float64   `json:"fat_g"     db:"fat_g"`
	LoggedAt time.Time `json:"logged_at" db:"logged_at"`
}

// ExerciseEntry maps to exercise_log. LoggedAt is assigned by the database.
type ExerciseEntry struct {
	ID             int64     `json:"id"              db:"id"`
	UserID         int       `json:"user_id"         db:"user_id"`
	Category       string    `json:"category"        db:"category"`
	Name           string    `json:"name"            db:"name"`
	DurationMin    float64   `json:"duration_min"    db:"duration_min"`
	CaloriesBurned float64   `json:"calories_burned" db:"calories_burned"`
	LoggedAt       time.Time `json:"logged_at"       db:"logged_at"`
}

// CaloriesPerMinute is the burn rate for the entry, 0 when duration is unset.
func (e ExerciseEntry) CaloriesPerMinute() float64 {
	return CaloriesPerMinute(e.CaloriesBurned, e.DurationMin)
}

// DailySummary is derived, never persisted.
type DailySummary struct {
	Date           DateOnly          `json:"date"`
	CaloriesIn     float64           `json:"calories_in"`
	CaloriesBurned float64           `json:"calories_burned"`
	BMR            float64           `json:"bmr"`
	TDEE           float64           `json:"tdee"`
	NetBalance     float64           `json:"net_balance"`
	ProteinG       float64           `json:"protein_g"`
	CarbsG         float64           `json:"carbs_g"`
	FatG           float64           `json:"fat_g"`
	Intake         []FoodIntakeEntry `json:"intake"`
	Exercise       []ExerciseEntry   `json:"exercise"`
}

// WeeklySummary holds seven consecutive days in chronological order.
type WeeklySummary []DailySummary

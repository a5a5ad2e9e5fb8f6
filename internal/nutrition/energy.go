package nutrition

import (
	"math"
	"strings"
)

// activityMultipliers maps activity level strings to their TDEE multiplier.
// Also used for input validation on profile updates.
var activityMultipliers = map[string]float64{
	"sedentary":   1.2,
	"light":       1.375,
	"moderate":    1.55,
	"active":      1.725,
	"very-active": 1.9,
}

const (
	defaultActivityMultiplier = 1.2

	// kcalPerKG is the energy content of one kilogram of body fat.
	kcalPerKG = 7700.0

	// weeksToGoal scales the weekly rate down once the remaining gap is small
	// enough to close in fewer weeks than the cap allows.
	weeksToGoal = 12.0

	// restingFloorFactor bounds a loss plan at resting plus light activity.
	restingFloorFactor = 1.2
)

// NormalizeActivityLevel lower-cases the level and accepts "very_active" as
// a spelling of "very-active".
func NormalizeActivityLevel(level string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(level)), "_", "-")
}

// ValidActivityLevel reports whether level is one of the known levels.
func ValidActivityLevel(level string) bool {
	_, ok := activityMultipliers[NormalizeActivityLevel(level)]
	return ok
}

// ValidSex reports whether sex is one the BMR formula knows.
func ValidSex(sex string) bool {
	s := strings.ToLower(strings.TrimSpace(sex))
	return s == SexMale || s == SexFemale
}

// CalculateBMR computes Basal Metabolic Rate in kcal/day with the
// Mifflin-St Jeor equation. Returns 0 for non-positive inputs or an unknown sex.
func CalculateBMR(sex string, weightKG, heightCM float64, ageYears int) float64 {
	if weightKG <= 0 || heightCM <= 0 || ageYears <= 0 {
		return 0
	}
	if math.IsNaN(weightKG) || math.IsNaN(heightCM) {
		return 0
	}

	bmr := 10*weightKG + 6.25*heightCM - 5*float64(ageYears)
	switch strings.ToLower(strings.TrimSpace(sex)) {
	case SexMale:
		return bmr + 5
	case SexFemale:
		return bmr - 161
	default:
		return 0
	}
}

// CalculateTDEE scales bmr by the activity multiplier. Unknown levels fall
// back to sedentary.
func CalculateTDEE(bmr float64, activityLevel string) float64 {
	if bmr <= 0 {
		return 0
	}
	mult, ok := activityMultipliers[NormalizeActivityLevel(activityLevel)]
	if !ok {
		mult = defaultActivityMultiplier
	}
	return bmr * mult
}

// WeeklyRate returns the planned weight change in kg/week: negative for loss,
// positive for gain, 0 for maintenance or invalid input.
func WeeklyRate(currentKG, targetKG float64) float64 {
	if currentKG <= 0 || targetKG <= 0 || currentKG == targetKG {
		return 0
	}

	gap := math.Abs(currentKG - targetKG)
	if currentKG > targetKG {
		rate := math.Min(currentKG*0.01, 1.0)
		return -math.Min(rate, gap/weeksToGoal)
	}
	rate := math.Min(currentKG*0.005, 0.5)
	return math.Min(rate, gap/weeksToGoal)
}

// CalculateDailyCalorieGoal turns TDEE into a daily calorie target that moves
// current weight toward target weight at WeeklyRate. A loss plan never goes
// below bmr × 1.2. A non-positive target means no goal is set, which is
// treated as maintenance.
func CalculateDailyCalorieGoal(currentKG, targetKG, bmr, tdee float64) int {
	if tdee <= 0 || currentKG <= 0 {
		return 0
	}
	if targetKG <= 0 || currentKG == targetKG {
		return int(math.Round(tdee))
	}

	dailyDelta := WeeklyRate(currentKG, targetKG) * kcalPerKG / 7
	goal := tdee + dailyDelta
	if currentKG > targetKG {
		if floor := bmr * restingFloorFactor; goal < floor {
			goal = floor
		}
	}
	return int(math.Round(goal))
}

// Macros holds gram targets for each macronutrient.
type Macros struct {
	ProteinG int `json:"protein_g"`
	FatG     int `json:"fat_g"`
	CarbsG   int `json:"carbs_g"`
}

// MacroGoals splits a calorie goal 30/25/45 across protein, fat and carbs.
func MacroGoals(calories int) Macros {
	if calories <= 0 {
		return Macros{}
	}
	kcal := float64(calories)
	return Macros{
		ProteinG: int(math.Round(kcal * 0.30 / 4)),
		FatG:     int(math.Round(kcal * 0.25 / 9)),
		CarbsG:   int(math.Round(kcal * 0.45 / 4)),
	}
}

// CalculateBMI expects height in centimeters and weight in kilograms.
// Returns 0 when either is non-positive.
func CalculateBMI(weightKG, heightCM float64) float64 {
	if weightKG <= 0 || heightCM <= 0 {
		return 0
	}
	h := heightCM / 100.0
	return weightKG / (h * h)
}

func BMICategory(bmi float64) string {
	switch {
	case bmi <= 0:
		return ""
	case bmi < 18.5:
		return "Underweight"
	case bmi < 25.0:
		return "Normal weight"
	case bmi < 30.0:
		return "Overweight"
	default:
		return "Obese"
	}
}

// CaloriesPerMinute divides calories by minutes, returning 0 for a zero or
// negative duration.
func CaloriesPerMinute(calories, minutes float64) float64 {
	if minutes <= 0 {
		return 0
	}
	return calories / minutes
}

// Targets bundles every value derived from a profile.
type Targets struct {
	BMI              float64 `json:"bmi"`
	BMICategory      string  `json:"bmi_category"`
	BMR              float64 `json:"bmr"`
	TDEE             float64 `json:"tdee"`
	WeeklyRateKG     float64 `json:"weekly_rate_kg"`
	DailyCalorieGoal int     `json:"daily_calorie_goal"`
	Macros           Macros  `json:"macros"`
}

// ComputeTargets derives BMI, BMR, TDEE, weekly rate, calorie goal and macro
// goals from p.
func ComputeTargets(p Profile) Targets {
	bmr := CalculateBMR(p.Sex, p.WeightKG, p.HeightCM, p.AgeYears)
	tdee := CalculateTDEE(bmr, p.ActivityLevel)
	goal := CalculateDailyCalorieGoal(p.WeightKG, p.TargetWeightKG, bmr, tdee)
	bmi := CalculateBMI(p.WeightKG, p.HeightCM)
	return Targets{
		BMI:              round2(bmi),
		BMICategory:      BMICategory(bmi),
		BMR:              bmr,
		TDEE:             tdee,
		WeeklyRateKG:     round2(WeeklyRate(p.WeightKG, p.TargetWeightKG)),
		DailyCalorieGoal: goal,
		Macros:           MacroGoals(goal),
	}
}

// ApplyDerived rewrites the derived fields on p.
func ApplyDerived(p *Profile) {
	t := ComputeTargets(*p)
	p.BMI = t.BMI
	p.BMR = t.BMR
	p.DailyCalorieGoal = t.DailyCalorieGoal
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

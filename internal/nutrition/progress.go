package nutrition

import (
	"context"
	"fmt"
	"slices"
	"time"
)

// ProgressDay is one logged day in a progress report. Days with no entries
// are omitted; the client fills gaps.
type ProgressDay struct {
	Date           DateOnly `json:"date"`
	CalorieGoal    int      `json:"calorie_goal"`
	CaloriesIn     float64  `json:"calories_in"`
	CaloriesBurned float64  `json:"calories_burned"`
	NetCalories    float64  `json:"net_calories"`
	CaloriesLeft   float64  `json:"calories_left"`
	ProteinG       float64  `json:"protein_g"`
	CarbsG         float64  `json:"carbs_g"`
	FatG           float64  `json:"fat_g"`
}

// ProgressStats aggregates a progress report. A day is on goal when intake
// minus exercise stays within the calorie goal.
type ProgressStats struct {
	DaysTracked         int     `json:"days_tracked"`
	DaysOnGoal          int     `json:"days_on_goal"`
	AvgCaloriesIn       float64 `json:"avg_calories_in"`
	AvgCaloriesBurned   float64 `json:"avg_calories_burned"`
	AvgNetCalories      float64 `json:"avg_net_calories"`
	TotalCaloriesLeft   float64 `json:"total_calories_left"`
	EstimatedChangeKG   float64 `json:"estimated_change_kg"`
	CurrentCalorieGoal  int     `json:"current_calorie_goal"`
	CurrentTDEE         float64 `json:"current_tdee"`
}

// Progress is the response shape for a date-range report.
type Progress struct {
	Days  []ProgressDay `json:"days"`
	Stats ProgressStats `json:"stats"`
}

// Progress buckets every entry in [first day, last day] by local calendar day
// and computes per-day totals plus range averages.
func (a *Aggregator) Progress(ctx context.Context, userID int, first, last time.Time) (Progress, error) {
	start := a.DayStart(first)
	end := a.DayStart(last).AddDate(0, 0, 1)
	if !start.Before(end) {
		return Progress{}, fmt.Errorf("start %s is after end %s", start.Format("2006-01-02"), last.Format("2006-01-02"))
	}

	profile, err := a.src.Profile(ctx, userID)
	if err != nil {
		return Progress{}, err
	}
	intake, err := a.src.IntakeBetween(ctx, userID, start, end)
	if err != nil {
		return Progress{}, fmt.Errorf("fetch food intake: %w", err)
	}
	exercise, err := a.src.ExerciseBetween(ctx, userID, start, end)
	if err != nil {
		return Progress{}, fmt.Errorf("fetch exercise: %w", err)
	}

	goal := profile.DailyCalorieGoal
	byDay := map[time.Time]*ProgressDay{}
	var order []time.Time
	dayFor := func(t time.Time) *ProgressDay {
		key := a.DayStart(t)
		d, ok := byDay[key]
		if !ok {
			d = &ProgressDay{Date: DateOnly{key}, CalorieGoal: goal}
			byDay[key] = d
			order = append(order, key)
		}
		return d
	}
	for _, e := range intake {
		d := dayFor(e.LoggedAt)
		d.CaloriesIn += nonNegative(e.Calories)
		d.ProteinG += nonNegative(e.ProteinG)
		d.CarbsG += nonNegative(e.CarbsG)
		d.FatG += nonNegative(e.FatG)
	}
	for _, e := range exercise {
		dayFor(e.LoggedAt).CaloriesBurned += nonNegative(e.CaloriesBurned)
	}

	slices.SortFunc(order, func(x, y time.Time) int { return x.Compare(y) })

	bmr := CalculateBMR(profile.Sex, profile.WeightKG, profile.HeightCM, profile.AgeYears)
	tdee := CalculateTDEE(bmr, profile.ActivityLevel)

	p := Progress{Days: make([]ProgressDay, 0, len(order))}
	var balance float64
	for _, key := range order {
		d := byDay[key]
		d.NetCalories = d.CaloriesIn - d.CaloriesBurned
		d.CaloriesLeft = float64(goal) - d.NetCalories
		p.Days = append(p.Days, *d)

		p.Stats.DaysTracked++
		if d.NetCalories <= float64(goal) {
			p.Stats.DaysOnGoal++
		}
		p.Stats.AvgCaloriesIn += d.CaloriesIn
		p.Stats.AvgCaloriesBurned += d.CaloriesBurned
		p.Stats.AvgNetCalories += d.NetCalories
		p.Stats.TotalCaloriesLeft += d.CaloriesLeft
		if tdee > 0 {
			balance += d.NetCalories - tdee
		}
	}

	// Convert totals to averages.
	if n := float64(p.Stats.DaysTracked); n > 0 {
		p.Stats.AvgCaloriesIn /= n
		p.Stats.AvgCaloriesBurned /= n
		p.Stats.AvgNetCalories /= n
	}
	p.Stats.EstimatedChangeKG = round2(balance / kcalPerKG)
	p.Stats.CurrentCalorieGoal = goal
	p.Stats.CurrentTDEE = tdee
	return p, nil
}

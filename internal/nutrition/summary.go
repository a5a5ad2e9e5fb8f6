package nutrition

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrProfileNotFound is returned when a summary is requested for a user
// without a profile row.
var ErrProfileNotFound = errors.New("profile not found")

// Source is the data access the aggregator needs. Ranges are half-open:
// start <= logged_at < end.
type Source interface {
	Profile(ctx context.Context, userID int) (Profile, error)
	IntakeBetween(ctx context.Context, userID int, start, end time.Time) ([]FoodIntakeEntry, error)
	ExerciseBetween(ctx context.Context, userID int, start, end time.Time) ([]ExerciseEntry, error)
}

// Aggregator combines logged entries with the energy calculator into daily
// and weekly summaries. Day boundaries are midnight in loc.
type Aggregator struct {
	src Source
	loc *time.Location
}

func NewAggregator(src Source, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.Local
	}
	return &Aggregator{src: src, loc: loc}
}

// DayStart returns local midnight of the day containing t.
func (a *Aggregator) DayStart(t time.Time) time.Time {
	t = t.In(a.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, a.loc)
}

// Daily builds the summary for the calendar day containing day.
func (a *Aggregator) Daily(ctx context.Context, userID int, day time.Time) (DailySummary, error) {
	start := a.DayStart(day)
	// AddDate keeps DST days correct where Add(24h) would not.
	end := start.AddDate(0, 0, 1)

	profile, err := a.src.Profile(ctx, userID)
	if err != nil {
		return DailySummary{}, err
	}

	intake, err := a.src.IntakeBetween(ctx, userID, start, end)
	if err != nil {
		return DailySummary{}, fmt.Errorf("fetch food intake: %w", err)
	}
	exercise, err := a.src.ExerciseBetween(ctx, userID, start, end)
	if err != nil {
		return DailySummary{}, fmt.Errorf("fetch exercise: %w", err)
	}

	s := DailySummary{
		Date:     DateOnly{start},
		Intake:   intake,
		Exercise: exercise,
	}
	if s.Intake == nil {
		s.Intake = []FoodIntakeEntry{}
	}
	if s.Exercise == nil {
		s.Exercise = []ExerciseEntry{}
	}

	for _, e := range intake {
		s.CaloriesIn += nonNegative(e.Calories)
		s.ProteinG += nonNegative(e.ProteinG)
		s.CarbsG += nonNegative(e.CarbsG)
		s.FatG += nonNegative(e.FatG)
	}
	for _, e := range exercise {
		s.CaloriesBurned += nonNegative(e.CaloriesBurned)
	}

	s.BMR = CalculateBMR(profile.Sex, profile.WeightKG, profile.HeightCM, profile.AgeYears)
	s.TDEE = CalculateTDEE(s.BMR, profile.ActivityLevel)
	s.NetBalance = s.CaloriesIn - s.CaloriesBurned - s.TDEE
	return s, nil
}

// Weekly runs Daily for seven consecutive days starting at start. The first
// failing day aborts the whole call with that day's error.
func (a *Aggregator) Weekly(ctx context.Context, userID int, start time.Time) (WeeklySummary, error) {
	first := a.DayStart(start)
	week := make(WeeklySummary, 0, 7)
	for i := 0; i < 7; i++ {
		day, err := a.Daily(ctx, userID, first.AddDate(0, 0, i))
		if err != nil {
			return nil, err
		}
		week = append(week, day)
	}
	return week, nil
}

// WeekStart returns local midnight of the Monday on or before t.
func (a *Aggregator) WeekStart(t time.Time) time.Time {
	day := a.DayStart(t)
	weekday := int(day.Weekday()) // 0=Sun
	if weekday == 0 {
		weekday = 7
	}
	return day.AddDate(0, 0, -(weekday - 1))
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

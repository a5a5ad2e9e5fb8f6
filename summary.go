package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"lg/fittrack-api/internal/nutrition"
)

// summaryError maps aggregator failures to a response.
func (h *Handler) summaryError(c *gin.Context, userID int, err error) {
	if errors.Is(err, nutrition.ErrProfileNotFound) {
		apiError(c, http.StatusNotFound, "profile not found")
		return
	}
	h.log.Errorw("build summary", "user_id", userID, "path", c.FullPath(), "error", err)
	apiError(c, http.StatusInternalServerError, err.Error())
}

// getDailySummary returns intake, exercise and energy balance for one day.
// GET /api/summary/daily?date=YYYY-MM-DD (defaults to today).
func (h *Handler) getDailySummary(c *gin.Context) {
	userID := c.GetInt("user_id")

	day, err := h.parseDay(c.Query("date"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	s, err := h.summaries.Daily(c, userID, day)
	if err != nil {
		h.summaryError(c, userID, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// getWeeklySummary returns seven daily summaries starting at start.
// GET /api/summary/weekly?start=YYYY-MM-DD (defaults to the current Monday).
func (h *Handler) getWeeklySummary(c *gin.Context) {
	userID := c.GetInt("user_id")

	var start time.Time
	if s := c.Query("start"); s != "" {
		t, err := time.ParseInLocation("2006-01-02", s, h.loc)
		if err != nil {
			apiError(c, http.StatusBadRequest, "invalid start, expected YYYY-MM-DD")
			return
		}
		start = t
	} else {
		start = h.summaries.WeekStart(time.Now())
	}

	week, err := h.summaries.Weekly(c, userID, start)
	if err != nil {
		h.summaryError(c, userID, err)
		return
	}
	c.JSON(http.StatusOK, week)
}

// getDashboard returns the profile with targets and the current week,
// fetched concurrently. Today's summary is picked out of the week.
// GET /api/dashboard.
func (h *Handler) getDashboard(c *gin.Context) {
	userID := c.GetInt("user_id")
	now := time.Now()

	var (
		profile nutrition.Profile
		week    nutrition.WeeklySummary
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		var err error
		profile, err = h.store.Profile(ctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		week, err = h.summaries.Weekly(ctx, userID, h.summaries.WeekStart(now))
		return err
	})
	if err := g.Wait(); err != nil {
		h.summaryError(c, userID, err)
		return
	}

	resp := dashboardResponse{
		Profile: profileResponse{Profile: profile, Targets: nutrition.ComputeTargets(profile)},
		Week:    week,
	}
	today := h.summaries.DayStart(now)
	for i := range week {
		if week[i].Date.Time.Equal(today) {
			resp.Today = &week[i]
			break
		}
	}
	c.JSON(http.StatusOK, resp)
}

// getProgress returns per-day totals and aggregate stats for a date range.
// GET /api/stats/progress?start=YYYY-MM-DD&end=YYYY-MM-DD. Both params required.
// Only days with logged entries are returned.
func (h *Handler) getProgress(c *gin.Context) {
	userID := c.GetInt("user_id")
	start := c.Query("start")
	end := c.Query("end")

	if start == "" || end == "" {
		apiError(c, http.StatusBadRequest, "start and end query params are required")
		return
	}
	first, err := time.ParseInLocation("2006-01-02", start, h.loc)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid start, expected YYYY-MM-DD")
		return
	}
	last, err := time.ParseInLocation("2006-01-02", end, h.loc)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid end, expected YYYY-MM-DD")
		return
	}
	if first.After(last) {
		apiError(c, http.StatusBadRequest, "start must not be after end")
		return
	}

	p, err := h.summaries.Progress(c, userID, first, last)
	if err != nil {
		h.summaryError(c, userID, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// getEarliestLogDate returns the first date the user logged food or exercise.
// GET /api/stats/earliest-date. Returns {"date": null} if nothing is logged.
func (h *Handler) getEarliestLogDate(c *gin.Context) {
	userID := c.GetInt("user_id")

	earliest, err := h.store.earliestLogTime(c, userID)
	if err != nil {
		h.log.Errorw("fetch earliest date", "user_id", userID, "error", err)
		apiError(c, http.StatusInternalServerError, "failed to fetch earliest date")
		return
	}
	if earliest == nil {
		c.JSON(http.StatusOK, gin.H{"date": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": earliest.In(h.loc).Format("2006-01-02")})
}

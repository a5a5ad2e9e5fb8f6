package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"lg/fittrack-api/internal/nutrition"
)

const (
	coachHistoryLimit = 20
	maxCoachMessage   = 2000
)

const coachSystemPrompt = `You are a friendly nutrition and fitness coach inside a calorie tracking app.
Answer briefly and practically. Use metric units. Do not give medical diagnoses.

The user's current data:
%s`

// buildCoachPrompt renders the profile, its targets and today's totals into
// the system prompt. today may be nil.
func buildCoachPrompt(p nutrition.Profile, t nutrition.Targets, today *nutrition.DailySummary) string {
	var b strings.Builder
	if p.Sex != "" {
		fmt.Fprintf(&b, "- Sex: %s\n", p.Sex)
	}
	if p.AgeYears > 0 {
		fmt.Fprintf(&b, "- Age: %d years\n", p.AgeYears)
	}
	if p.WeightKG > 0 {
		fmt.Fprintf(&b, "- Weight: %.1f kg\n", p.WeightKG)
	}
	if p.HeightCM > 0 {
		fmt.Fprintf(&b, "- Height: %.0f cm\n", p.HeightCM)
	}
	if p.TargetWeightKG > 0 {
		fmt.Fprintf(&b, "- Target weight: %.1f kg\n", p.TargetWeightKG)
	}
	if p.ActivityLevel != "" {
		fmt.Fprintf(&b, "- Activity level: %s\n", p.ActivityLevel)
	}
	if t.BMR > 0 {
		fmt.Fprintf(&b, "- BMR: %.0f kcal, TDEE: %.0f kcal\n", t.BMR, t.TDEE)
		fmt.Fprintf(&b, "- Daily calorie goal: %d kcal (protein %dg, carbs %dg, fat %dg)\n",
			t.DailyCalorieGoal, t.Macros.ProteinG, t.Macros.CarbsG, t.Macros.FatG)
	}
	if today != nil {
		fmt.Fprintf(&b, "- Today so far: %.0f kcal eaten, %.0f kcal burned, balance vs TDEE %.0f kcal\n",
			today.CaloriesIn, today.CaloriesBurned, today.NetBalance)
	}
	if b.Len() == 0 {
		b.WriteString("- No profile data yet. Encourage the user to complete their profile.\n")
	}
	return fmt.Sprintf(coachSystemPrompt, b.String())
}

// coachReply sends the system prompt, prior history and the new message to
// the model and returns its answer.
func (h *Handler) coachReply(ctx context.Context, system string, history []chatMessage, message string) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	for _, m := range history {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: message})

	reply, err := h.ai.complete(ctx, msgs, false)
	if err != nil {
		return "", err
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", errors.New("empty reply")
	}
	return reply, nil
}

// getCoachMessages returns the recent conversation, oldest first.
// GET /api/coach/messages.
func (h *Handler) getCoachMessages(c *gin.Context) {
	userID := c.GetInt("user_id")

	msgs, err := h.store.chatHistory(c, userID, coachHistoryLimit)
	if err != nil {
		h.log.Errorw("fetch coach messages", "user_id", userID, "error", err)
		apiError(c, http.StatusInternalServerError, "failed to fetch messages")
		return
	}
	if msgs == nil {
		msgs = []chatMessage{}
	}
	c.JSON(http.StatusOK, msgs)
}

// postCoachMessage asks the coach a question and stores both sides of the
// exchange. POST /api/coach/messages. Body: { "message": "..." }.
func (h *Handler) postCoachMessage(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body coachRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	body.Message = strings.TrimSpace(body.Message)
	if body.Message == "" {
		apiError(c, http.StatusBadRequest, "message is required")
		return
	}
	if utf8.RuneCountInString(body.Message) > maxCoachMessage {
		apiError(c, http.StatusBadRequest, fmt.Sprintf("message must be at most %d characters", maxCoachMessage))
		return
	}

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

	// Today's totals are context only; the coach still answers without them.
	var today *nutrition.DailySummary
	if s, err := h.summaries.Daily(c, userID, time.Now()); err == nil {
		today = &s
	} else {
		h.log.Warnw("coach: daily summary unavailable", "user_id", userID, "error", err)
	}

	history, err := h.store.chatHistory(c, userID, coachHistoryLimit)
	if err != nil {
		h.log.Errorw("fetch coach messages", "user_id", userID, "error", err)
		apiError(c, http.StatusInternalServerError, "failed to fetch messages")
		return
	}

	system := buildCoachPrompt(p, nutrition.ComputeTargets(p), today)
	reply, err := h.coachReply(c.Request.Context(), system, history, body.Message)
	if err != nil {
		h.log.Errorw("coach: openai request", "user_id", userID, "error", err)
		apiError(c, http.StatusBadGateway, "coach is unavailable")
		return
	}

	question, err := h.store.insertChatMessage(c, chatMessage{
		ID: uuid.NewString(), UserID: userID, Role: openai.ChatMessageRoleUser, Content: body.Message,
	})
	if err != nil {
		h.log.Errorw("store coach message", "user_id", userID, "error", err)
		apiError(c, http.StatusInternalServerError, "failed to store message")
		return
	}
	answer, err := h.store.insertChatMessage(c, chatMessage{
		ID: uuid.NewString(), UserID: userID, Role: openai.ChatMessageRoleAssistant, Content: reply,
	})
	if err != nil {
		h.log.Errorw("store coach message", "user_id", userID, "error", err)
		apiError(c, http.StatusInternalServerError, "failed to store message")
		return
	}

	c.JSON(http.StatusCreated, []chatMessage{question, answer})
}

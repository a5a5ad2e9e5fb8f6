package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	openai "github.com/sashabaranov/go-openai"
)

/* ─── Request / Response types ───────────────────────────────────────── */

// suggestRequest is the request body for POST /api/suggest.
type suggestRequest struct {
	Description string `json:"description"`
	Type        string `json:"type"`
}

// suggestionResponse is the structured nutrition data returned by the AI.
// For exercise entries the macros are zero and Calories is the burn.
// Confidence is 1-5 indicating how accurate the estimate is.
type suggestionResponse struct {
	ItemName    string  `json:"item_name"`
	Qty         float64 `json:"qty"`
	Uom         string  `json:"uom"`
	Calories    int     `json:"calories"`
	ProteinG    float64 `json:"protein_g"`
	CarbsG      float64 `json:"carbs_g"`
	FatG        float64 `json:"fat_g"`
	DurationMin float64 `json:"duration_min,omitempty"`
	Confidence  int     `json:"confidence"`
}

/* ─── Prompts ────────────────────────────────────────────────────────── */

const foodSystemPrompt = `You are a nutrition assistant. Parse the food description and return a JSON object with:
- "item_name" (string, cleaned up title case)
- "qty" (number)
- "uom" (one of: each, g, ml, serving)
- "calories" (integer, total for the full quantity)
- "protein_g" (number, total for the full quantity)
- "carbs_g" (number, total for the full quantity)
- "fat_g" (number, total for the full quantity)
- "confidence" (integer 1-5: 5=exact known nutritional data, 4=very close estimate, 3=reasonable estimate, 2=rough guess, 1=very uncertain)

Always provide your best estimate, even for unfamiliar or vague items. Only return {"error": "unrecognized"} if the input is not food at all.
Return only valid JSON, no explanation.`

const exerciseRules = `Parse the exercise description and estimate calories burned. Return a JSON object with:
- "item_name" (string, cleaned up title case)
- "qty" (number, duration or distance)
- "uom" (one of: minutes, km, each)
- "duration_min" (number, estimated duration in minutes)
- "calories" (integer, estimated calories burned)
- "protein_g", "carbs_g", "fat_g" (always 0)
- "confidence" (integer 1-5: 5=well-studied exercise with known MET values, 1=very uncertain)

Always provide your best estimate, even for unusual activities. Only return {"error": "unrecognized"} if the input is not an exercise at all.
Return only valid JSON, no explanation.`

// exercisePromptTemplate takes sex, age, weight in kg and height in cm.
const exercisePromptTemplate = `You are a fitness calorie-burn estimator. The user is:
- Sex: %s
- Age: %d years
- Weight: %.1f kg
- Height: %.0f cm

` + exerciseRules

const exercisePromptFallback = `You are a fitness calorie-burn estimator. No body stats are available, use averages for an adult.

` + exerciseRules

/* ─── Handler ────────────────────────────────────────────────────────── */

// suggestEntry handles POST /api/suggest.
// Accepts a food or exercise description, asks the model to parse it into
// structured data, and returns the suggestion for the client to confirm.
func (h *Handler) suggestEntry(c *gin.Context) {
	var req suggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Description) == "" {
		apiError(c, http.StatusBadRequest, "description is required")
		return
	}

	systemPrompt := foodSystemPrompt
	if req.Type == "exercise" {
		systemPrompt = h.buildExercisePrompt(c)
	}

	content, err := h.ai.complete(c.Request.Context(), []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: req.Description},
	}, true)
	if err != nil {
		h.log.Errorw("suggest: openai request", "error", err)
		apiError(c, http.StatusInternalServerError, "openai request failed")
		return
	}

	// Check if the model flagged the input as unrecognized
	var errorResp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(content), &errorResp); err != nil {
		h.log.Errorw("suggest: parse response", "error", err)
		apiError(c, http.StatusInternalServerError, "openai request failed")
		return
	}
	if errorResp.Error == "unrecognized" {
		c.JSON(http.StatusOK, gin.H{"error": "unrecognized"})
		return
	}

	var suggestion suggestionResponse
	if err := json.Unmarshal([]byte(content), &suggestion); err != nil {
		h.log.Errorw("suggest: parse suggestion", "error", err)
		apiError(c, http.StatusInternalServerError, "openai request failed")
		return
	}

	// At minimum we need a name and a calorie figure
	if suggestion.ItemName == "" || suggestion.Calories <= 0 {
		c.JSON(http.StatusOK, gin.H{"error": "unrecognized"})
		return
	}

	c.JSON(http.StatusOK, suggestion)
}

// buildExercisePrompt personalizes the exercise prompt with the user's body
// stats. Falls back to a generic prompt when the profile is incomplete.
func (h *Handler) buildExercisePrompt(c *gin.Context) string {
	if h.store == nil {
		return exercisePromptFallback
	}
	p, err := h.store.Profile(c, c.GetInt("user_id"))
	if err != nil {
		return exercisePromptFallback
	}
	if p.Sex == "" || p.AgeYears <= 0 || p.WeightKG <= 0 || p.HeightCM <= 0 {
		return exercisePromptFallback
	}
	return fmt.Sprintf(exercisePromptTemplate, p.Sex, p.AgeYears, p.WeightKG, p.HeightCM)
}

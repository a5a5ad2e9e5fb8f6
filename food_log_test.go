package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"lg/fittrack-api/internal/logger"
)

// doJSON sends a request with a JSON body through router.
func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestValidateIntake(t *testing.T) {
	tests := []struct {
		name    string
		body    createIntakeRequest
		wantErr bool
		meal    string
	}{
		{"valid", createIntakeRequest{Name: "Oats", Meal: "breakfast", Calories: 300}, false, "breakfast"},
		{"meal defaults to other", createIntakeRequest{Name: "Apple", Calories: 95}, false, "other"},
		{"meal is case-insensitive", createIntakeRequest{Name: "Soup", Meal: " Dinner ", Calories: 200}, false, "dinner"},
		{"zero calories allowed", createIntakeRequest{Name: "Tea", Meal: "other"}, false, "other"},
		{"blank name", createIntakeRequest{Name: "  ", Calories: 10}, true, ""},
		{"unknown meal", createIntakeRequest{Name: "Cake", Meal: "brunch", Calories: 400}, true, ""},
		{"negative calories", createIntakeRequest{Name: "Cake", Calories: -1}, true, ""},
		{"negative macro", createIntakeRequest{Name: "Cake", Calories: 100, FatG: -2}, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := tt.body
			msg := validateIntake(&body)
			if (msg != "") != tt.wantErr {
				t.Fatalf("validateIntake() = %q, wantErr %v", msg, tt.wantErr)
			}
			if !tt.wantErr && body.Meal != tt.meal {
				t.Errorf("expected meal %q, got %q", tt.meal, body.Meal)
			}
		})
	}
}

func TestValidateExercise(t *testing.T) {
	tests := []struct {
		name    string
		body    createExerciseRequest
		wantErr bool
	}{
		{"valid", createExerciseRequest{Name: "Run", Category: "cardio", DurationMin: 30, CaloriesBurned: 300}, false},
		{"category defaults", createExerciseRequest{Name: "Walk", DurationMin: 20}, false},
		{"blank name", createExerciseRequest{Name: "", DurationMin: 20}, true},
		{"negative duration", createExerciseRequest{Name: "Run", DurationMin: -5}, true},
		{"negative burn", createExerciseRequest{Name: "Run", CaloriesBurned: -100}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := tt.body
			msg := validateExercise(&body)
			if (msg != "") != tt.wantErr {
				t.Fatalf("validateExercise() = %q, wantErr %v", msg, tt.wantErr)
			}
			if !tt.wantErr && body.Category == "" {
				t.Error("expected category to be defaulted")
			}
		})
	}
}

// Requests rejected before reaching the database need no store.
func TestFoodLogHandlers_RejectBadInput(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &Handler{log: logger.NewNop()}
	router := gin.New()
	withUser := func(c *gin.Context) {
		c.Set("user_id", 1)
		c.Next()
	}
	router.POST("/api/food-intake", withUser, h.createIntake)
	router.POST("/api/exercise", withUser, h.createExercise)
	router.DELETE("/api/food-intake/:id", withUser, h.deleteIntake)
	router.DELETE("/api/exercise/:id", withUser, h.deleteExercise)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"intake malformed", "POST", "/api/food-intake", `{"name":`},
		{"intake negative calories", "POST", "/api/food-intake", `{"name":"Cake","calories":-5}`},
		{"intake bad meal", "POST", "/api/food-intake", `{"name":"Cake","meal":"tea-time","calories":5}`},
		{"exercise missing name", "POST", "/api/exercise", `{"duration_min":10}`},
		{"exercise negative burn", "POST", "/api/exercise", `{"name":"Run","calories_burned":-1}`},
		{"delete intake non-numeric id", "DELETE", "/api/food-intake/abc", ``},
		{"delete exercise non-numeric id", "DELETE", "/api/exercise/1;drop", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(router, tt.method, tt.path, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

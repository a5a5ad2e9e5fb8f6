package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"lg/fittrack-api/internal/logger"
)

// newMockOpenAI starts a fake chat completions server and returns it with a
// function to set the next response.
func newMockOpenAI() (*httptest.Server, func(int, any)) {
	var mockStatus int
	var mockBody any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(mockStatus)
		json.NewEncoder(w).Encode(mockBody)
	}))

	setMock := func(status int, body any) {
		mockStatus = status
		mockBody = body
	}
	return server, setMock
}

// setupSuggestTest creates a Gin engine wired to a mock OpenAI server.
// No DB needed: exercise prompts fall back to the generic variant.
func setupSuggestTest() (*gin.Engine, *httptest.Server, func(int, any)) {
	mockOpenAI, setMock := newMockOpenAI()

	gin.SetMode(gin.TestMode)
	h := Handler{
		ai:  newAIClient("test-key", "gpt-4o-mini", mockOpenAI.URL),
		log: logger.NewNop(),
	}
	router := gin.New()
	// Skip auth middleware for tests and set a dummy user_id
	router.POST("/api/suggest", func(c *gin.Context) {
		c.Set("user_id", 1)
		c.Next()
	}, h.suggestEntry)

	return router, mockOpenAI, setMock
}

// doSuggestRequest sends a POST to the suggest endpoint with the given body.
func doSuggestRequest(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/suggest", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// openAIChatResponse wraps a content string in the chat completions
// response shape (choices[0].message.content).
func openAIChatResponse(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
			},
		},
	}
}

func TestSuggest_FoodSuccess(t *testing.T) {
	router, mockServer, setMock := setupSuggestTest()
	defer mockServer.Close()

	suggestion := `{"item_name":"Scrambled Eggs","qty":2,"uom":"each","calories":180,"protein_g":14,"carbs_g":2,"fat_g":12,"confidence":4}`
	setMock(http.StatusOK, openAIChatResponse(suggestion))

	w := doSuggestRequest(router, `{"description":"2 eggs scrambled","type":"food"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp suggestionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.ItemName != "Scrambled Eggs" {
		t.Errorf("expected item_name 'Scrambled Eggs', got '%s'", resp.ItemName)
	}
	if resp.Calories != 180 {
		t.Errorf("expected calories 180, got %d", resp.Calories)
	}
	if resp.ProteinG != 14 {
		t.Errorf("expected protein_g 14, got %v", resp.ProteinG)
	}
}

func TestSuggest_ExerciseSuccess(t *testing.T) {
	router, mockServer, setMock := setupSuggestTest()
	defer mockServer.Close()

	suggestion := `{"item_name":"Jogging","qty":30,"uom":"minutes","duration_min":30,"calories":250,"protein_g":0,"carbs_g":0,"fat_g":0,"confidence":3}`
	setMock(http.StatusOK, openAIChatResponse(suggestion))

	w := doSuggestRequest(router, `{"description":"30 minute jog","type":"exercise"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp suggestionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.ItemName != "Jogging" {
		t.Errorf("expected item_name 'Jogging', got '%s'", resp.ItemName)
	}
	if resp.DurationMin != 30 {
		t.Errorf("expected duration_min 30, got %v", resp.DurationMin)
	}
}

func TestSuggest_Unrecognized(t *testing.T) {
	router, mockServer, setMock := setupSuggestTest()
	defer mockServer.Close()

	setMock(http.StatusOK, openAIChatResponse(`{"error":"unrecognized"}`))

	w := doSuggestRequest(router, `{"description":"asdfghjkl","type":"food"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["error"] != "unrecognized" {
		t.Errorf("expected error 'unrecognized', got '%s'", resp["error"])
	}
}

func TestSuggest_ZeroCaloriesIsUnrecognized(t *testing.T) {
	router, mockServer, setMock := setupSuggestTest()
	defer mockServer.Close()

	setMock(http.StatusOK, openAIChatResponse(`{"item_name":"Water","qty":1,"uom":"each","calories":0}`))

	w := doSuggestRequest(router, `{"description":"glass of water","type":"food"}`)

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["error"] != "unrecognized" {
		t.Errorf("expected error 'unrecognized', got %v", resp["error"])
	}
}

func TestSuggest_OpenAIError500(t *testing.T) {
	router, mockServer, setMock := setupSuggestTest()
	defer mockServer.Close()

	setMock(http.StatusInternalServerError, map[string]any{
		"error": map[string]any{"message": "server error", "type": "server_error"},
	})

	w := doSuggestRequest(router, `{"description":"banana","type":"food"}`)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["error"] != "openai request failed" {
		t.Errorf("expected error 'openai request failed', got '%s'", resp["error"])
	}
}

func TestSuggest_NoAPIKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := Handler{ai: newAIClient("", "gpt-4o-mini", ""), log: logger.NewNop()}
	router := gin.New()
	router.POST("/api/suggest", h.suggestEntry)

	w := doSuggestRequest(router, `{"description":"banana","type":"food"}`)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSuggest_EmptyDescription(t *testing.T) {
	router, mockServer, _ := setupSuggestTest()
	defer mockServer.Close()

	w := doSuggestRequest(router, `{"description":"  ","type":"food"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSuggest_MalformedJSON(t *testing.T) {
	router, mockServer, setMock := setupSuggestTest()
	defer mockServer.Close()

	// The model returns something that isn't valid JSON
	setMock(http.StatusOK, openAIChatResponse(`not valid json at all`))

	w := doSuggestRequest(router, `{"description":"banana","type":"food"}`)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", w.Code, w.Body.String())
	}
}

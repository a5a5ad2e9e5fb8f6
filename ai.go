package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const aiRequestTimeout = 30 * time.Second

var errAIDisabled = errors.New("OPENAI_API_KEY not set")

// aiClient wraps the OpenAI chat completions API for the suggest and coach
// endpoints.
type aiClient struct {
	client *openai.Client
	model  string
}

// newAIClient returns a client for model. baseURL overrides the API host
// (tests point it at an httptest server). With an empty apiKey the client
// is created but every call fails with errAIDisabled.
func newAIClient(apiKey, model, baseURL string) *aiClient {
	if apiKey == "" {
		return &aiClient{model: model}
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/") + "/v1"
	}
	cfg.HTTPClient = &http.Client{Timeout: aiRequestTimeout}
	return &aiClient{client: openai.NewClientWithConfig(cfg), model: model}
}

// complete sends msgs and returns the content of the first choice. jsonMode
// asks the model for a single JSON object.
func (a *aiClient) complete(ctx context.Context, msgs []openai.ChatCompletionMessage, jsonMode bool) (string, error) {
	if a == nil || a.client == nil {
		return "", errAIDisabled
	}

	req := openai.ChatCompletionRequest{
		Model:    a.model,
		Messages: msgs,
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	} else {
		req.Temperature = 0.7
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

type openAIChatRequest struct {
	Model       string              `json:"model"`
	Messages    []openAIChatMessage `json:"messages"`
	Temperature float64             `json:"temperature,omitempty"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
}

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// OpenAIJudge satisfies JudgeOracle against the OpenAI chat completions
// API. The judging task and acceptance criteria ride in the system
// message; the contest prompt is the user message.
type OpenAIJudge struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewOpenAIJudge(apiKey, model string) *OpenAIJudge {
	return &OpenAIJudge{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultOpenAIBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (j *OpenAIJudge) Evaluate(ctx context.Context, judgment Judgment) (string, error) {
	if strings.TrimSpace(j.apiKey) == "" {
		return "", errors.New("OpenAI API key is not configured")
	}

	systemPrompt := fmt.Sprintf("You are a contest judge.\nTask: %s\nYour reply must satisfy these acceptance criteria:\n%s",
		judgment.Task, judgment.Criteria)

	reqBody := openAIChatRequest{
		Model: j.model,
		Messages: []openAIChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: judgment.Prompt},
		},
		Temperature: 0.2,
		MaxTokens:   200,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to build judge request")
	}

	reqCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, j.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build judge request")
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(j.apiKey))
	req.Header.Set("Content-Type", "application/json")

	trace := uuid.NewString()
	log.Printf("judge call trace=%s task=%q", trace, judgment.Task)

	resp, err := j.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach judge backend")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read judge response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("judge request failed (%d)", resp.StatusCode)
	}

	var parsed openAIChatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse judge response")
	}
	if parsed.Error != nil && parsed.Error.Message != "" {
		return "", fmt.Errorf("judge backend error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("judge returned no choices")
	}

	log.Printf("judge reply trace=%s bytes=%d", trace, len(parsed.Choices[0].Message.Content))
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

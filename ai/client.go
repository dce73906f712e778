package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/evalx/evalx-backend/models"
)

// Client - HTTP-клиент AI-сервиса оценивания.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
	}
}

type apiError struct {
	Detail string `json:"detail"`
}

func (c *Client) postJSON(ctx context.Context, path string, payload interface{}, out interface{}) error {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("AI API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Detail != "" {
			return fmt.Errorf("AI API returned %d: %s", resp.StatusCode, apiErr.Detail)
		}
		return fmt.Errorf("AI API returned status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse AI response: %w", err)
	}
	return nil
}

func (c *Client) EvaluateDeck(ctx context.Context, deckURL string) (*models.DeckEvaluation, error) {
	payload := map[string]string{"model": c.model, "deck_url": deckURL}
	var result models.DeckEvaluation
	if err := c.postJSON(ctx, "/evaluate/deck", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) EvaluateRepo(ctx context.Context, repoURL, videoURL string) (*models.RepoEvaluation, error) {
	payload := map[string]string{"model": c.model, "repo_url": repoURL, "video_url": videoURL}
	var result models.RepoEvaluation
	if err := c.postJSON(ctx, "/evaluate/repo", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GenerateQuestions(ctx context.Context, reportURL string) ([]string, error) {
	payload := map[string]string{"model": c.model, "report_url": reportURL}
	var result struct {
		Questions []string `json:"questions"`
	}
	if err := c.postJSON(ctx, "/interview/questions", payload, &result); err != nil {
		return nil, err
	}
	if len(result.Questions) == 0 {
		return nil, fmt.Errorf("AI API returned no interview questions")
	}
	return result.Questions, nil
}

func (c *Client) ScoreAnswer(ctx context.Context, question string, audio io.Reader, filename string) (*AnswerEvaluation, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("question", question); err != nil {
		return nil, fmt.Errorf("failed to write multipart field: %w", err)
	}
	if err := mw.WriteField("model", c.model); err != nil {
		return nil, fmt.Errorf("failed to write multipart field: %w", err)
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart file: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return nil, fmt.Errorf("failed to copy audio into request: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/interview/score-answer", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("AI API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Detail != "" {
			return nil, fmt.Errorf("AI API returned %d: %s", resp.StatusCode, apiErr.Detail)
		}
		return nil, fmt.Errorf("AI API returned status %d", resp.StatusCode)
	}

	var result AnswerEvaluation
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}
	return &result, nil
}

func (c *Client) DraftEvent(ctx context.Context, details string) (*models.EventDraft, error) {
	payload := map[string]string{"model": c.model, "event_details": details}
	var result struct {
		Event models.EventDraft `json:"event"`
	}
	if err := c.postJSON(ctx, "/events/draft", payload, &result); err != nil {
		return nil, err
	}
	return &result.Event, nil
}

func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, string, error) {
	jsonBody, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tts", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("AI API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("AI API returned status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	return body, contentType, nil
}

package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// LLM generates an answer from a system instruction and a conversation.
type LLM interface {
	Complete(ctx context.Context, systemPrompt string, turns []Turn) (string, error)
}

// Turn is one message of the conversation sent to the model.
type Turn struct {
	Role string // "user" or "model"
	Text string
}

// GeminiClient calls the Gemini generateContent API over HTTP.
type GeminiClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client

	mu          sync.Mutex
	lastRequest time.Time
}

func NewGeminiClient(apiKey, model string) *GeminiClient {
	return &GeminiClient{
		apiKey:  apiKey,
		baseURL: defaultGeminiBaseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent        `json:"contents"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *GeminiClient) Complete(ctx context.Context, systemPrompt string, turns []Turn) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	if c.apiKey == "" {
		return "", fmt.Errorf("gemini: API key not configured")
	}
	if len(turns) == 0 {
		return "", fmt.Errorf("gemini: empty conversation")
	}

	// Rate limiting
	c.mu.Lock()
	elapsed := time.Since(c.lastRequest)
	if elapsed < 100*time.Millisecond {
		time.Sleep(100*time.Millisecond - elapsed)
	}
	c.lastRequest = time.Now()
	c.mu.Unlock()

	contents := make([]geminiContent, 0, len(turns))
	for _, turn := range turns {
		contents = append(contents, geminiContent{
			Role:  turn.Role,
			Parts: []geminiPart{{Text: turn.Text}},
		})
	}

	reqBody := geminiRequest{
		Contents: contents,
		SystemInstruction: &geminiContent{
			Parts: []geminiPart{{Text: systemPrompt}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     0.3,
			MaxOutputTokens: 2048,
		},
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	// Retry loop for rate limits and transient failures.
	maxRetries := 3
	var lastErr error

	for i := 0; i <= maxRetries; i++ {
		if i > 0 {
			select {
			case <-time.After(time.Duration(1<<uint(i-1)) * time.Second):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return "", fmt.Errorf("gemini: failed to marshal request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
		if err != nil {
			return "", fmt.Errorf("gemini: failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("gemini: request failed: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("gemini: failed to read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("gemini: rate limit exceeded (429)")
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("gemini: API request failed with status %d: %s", resp.StatusCode, string(body))
		}

		var parsed geminiResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return "", fmt.Errorf("gemini: failed to parse response: %w", err)
		}
		if parsed.Error != nil {
			return "", fmt.Errorf("gemini: API error: %s", parsed.Error.Message)
		}
		if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
			return "", fmt.Errorf("gemini: no completion returned")
		}

		var result strings.Builder
		for _, part := range parsed.Candidates[0].Content.Parts {
			result.WriteString(part.Text)
		}
		return strings.TrimSpace(result.String()), nil
	}

	return "", fmt.Errorf("gemini: max retries exceeded: %w", lastErr)
}

package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/tuanphamdev/meeting-scribe/pkg/config"
)

// SummaryOptions controls which sections the model is asked to produce
type SummaryOptions struct {
	IncludeTopics      bool
	IncludeDecisions   bool
	IncludeActionItems bool
	Temperature        float64
}

// DefaultSummaryOptions asks for every section at the configured temperature
func DefaultSummaryOptions(temperature float64) SummaryOptions {
	return SummaryOptions{
		IncludeTopics:      true,
		IncludeDecisions:   true,
		IncludeActionItems: true,
		Temperature:        temperature,
	}
}

// Summarizer is the single LLM capability the orchestrator consumes:
// rendered transcript text in, raw model text out.
type Summarizer interface {
	GenerateSummary(ctx context.Context, transcript string, opts SummaryOptions) (string, error)
}

// LLMClient is a minimal client for an OpenAI-compatible chat completions API
type LLMClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewLLMClient creates a summarization model client using values from the
// provided config. Pass a nil config to fall back to environment variables.
func NewLLMClient(cfg *config.LLMConfig) *LLMClient {
	var apiKey string
	if cfg != nil {
		apiKey = cfg.APIKey
	}
	if apiKey == "" {
		apiKey = os.Getenv("LLM_API_KEY")
	}

	var base string
	if cfg != nil && cfg.BaseURL != "" {
		base = cfg.BaseURL
	} else {
		base = os.Getenv("LLM_API_URL")
		if base == "" {
			base = "https://api.groq.com"
		}
	}

	model := "llama-3.1-70b-versatile"
	if cfg != nil && cfg.Model != "" {
		model = cfg.Model
	}

	return &LLMClient{
		apiKey:  apiKey,
		baseURL: base,
		model:   model,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// ChatRequest is the shape for chat completion requests
type ChatRequest struct {
	Model       string      `json:"model,omitempty"`
	Messages    interface{} `json:"messages,omitempty"`
	Temperature float64     `json:"temperature,omitempty"`
	MaxTokens   int         `json:"max_tokens,omitempty"`
}

// ChatResponse is a minimal response shape
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GenerateSummary sends the rendered transcript to the model and returns the
// assistant content. The reply is expected to contain one JSON object; the
// caller parses it.
func (g *LLMClient) GenerateSummary(ctx context.Context, transcript string, opts SummaryOptions) (string, error) {
	reqBody := ChatRequest{
		Model:       g.model,
		Messages:    []map[string]string{{"role": "user", "content": buildPrompt(transcript, opts)}},
		Temperature: opts.Temperature,
		MaxTokens:   2000,
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	endpoint := g.baseURL + "/openai/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("model API returned status %d", resp.StatusCode)
	}

	var cr ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", err
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("empty response from model API")
	}
	return cr.Choices[0].Message.Content, nil
}

// buildPrompt renders the instruction block for one summarization call
func buildPrompt(transcript string, opts SummaryOptions) string {
	var sb strings.Builder
	sb.WriteString("You are a meeting assistant. Analyze the following meeting transcript ")
	sb.WriteString("and respond with exactly one JSON object with these fields:\n")
	sb.WriteString(`- "summary": a concise prose summary of the discussion` + "\n")
	if opts.IncludeTopics {
		sb.WriteString(`- "keyTopics": an array of topic strings` + "\n")
	}
	if opts.IncludeDecisions {
		sb.WriteString(`- "decisions": an array of decision strings` + "\n")
	}
	if opts.IncludeActionItems {
		sb.WriteString(`- "actionItems": an array of {"description", "assignedTo"} objects` + "\n")
	}
	sb.WriteString("Do not include any text outside the JSON object.\n\nTranscript:\n")
	sb.WriteString(transcript)
	return sb.String()
}

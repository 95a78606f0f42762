package summarizer

import (
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/tuanphamdev/meeting-scribe/errors"
	"github.com/tuanphamdev/meeting-scribe/internal/domain/entities"
)

// SummaryResult is the structured payload the language model is asked to
// produce for one summarization window
type SummaryResult struct {
	Summary     string                      `json:"summary"`
	KeyTopics   []string                    `json:"keyTopics"`
	Decisions   []string                    `json:"decisions"`
	ActionItems []entities.SummaryActionItem `json:"actionItems"`
}

// Parser handles parsing and validation of language model responses
type Parser struct{}

// NewParser creates a new Parser instance
func NewParser() *Parser {
	return &Parser{}
}

// ParseSummaryResponse parses the model's reply into a SummaryResult. Models
// routinely wrap the JSON in prose or markdown fences, so the outermost
// object is extracted before unmarshalling.
func (p *Parser) ParseSummaryResponse(raw string) (*SummaryResult, error) {
	jsonString := extractJSONObject(raw)
	if jsonString == "" {
		return nil, apperrors.ErrSummaryParseFailed(fmt.Errorf("no JSON object in response"))
	}

	var result SummaryResult
	if err := json.Unmarshal([]byte(jsonString), &result); err != nil {
		return nil, apperrors.ErrSummaryParseFailed(fmt.Errorf("failed to parse JSON response: %w", err))
	}

	if strings.TrimSpace(result.Summary) == "" {
		return nil, apperrors.ErrSummaryParseFailed(fmt.Errorf("missing summary in response"))
	}

	// Topic and decision lists can be empty for short windows, just make
	// sure they are initialized
	if result.KeyTopics == nil {
		result.KeyTopics = make([]string, 0)
	}
	if result.Decisions == nil {
		result.Decisions = make([]string, 0)
	}
	if result.ActionItems == nil {
		result.ActionItems = make([]entities.SummaryActionItem, 0)
	}

	return &result, nil
}

// extractJSONObject returns the substring from the first '{' through the
// last '}', which tolerates both markdown fences and leading commentary
func extractJSONObject(content string) string {
	start := strings.IndexByte(content, '{')
	end := strings.LastIndexByte(content, '}')
	if start < 0 || end <= start {
		return ""
	}
	return content[start : end+1]
}

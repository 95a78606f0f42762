package summarizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/tuanphamdev/meeting-scribe/errors"
)

func TestParseSummaryResponse_PlainJSON(t *testing.T) {
	parser := NewParser()

	result, err := parser.ParseSummaryResponse(`{"summary":"We discussed the Q3 roadmap.","keyTopics":["roadmap"],"decisions":["Ship in September"],"actionItems":[{"description":"Draft the spec","assigned_to":"Alice"}]}`)
	require.NoError(t, err)

	assert.Equal(t, "We discussed the Q3 roadmap.", result.Summary)
	assert.Equal(t, []string{"roadmap"}, result.KeyTopics)
	assert.Equal(t, []string{"Ship in September"}, result.Decisions)
	require.Len(t, result.ActionItems, 1)
	assert.Equal(t, "Alice", result.ActionItems[0].AssignedTo)
}

func TestParseSummaryResponse_WrappedInMarkdownFence(t *testing.T) {
	parser := NewParser()

	raw := "Here is the summary you asked for:\n```json\n{\"summary\":\"Short recap.\"}\n```\nLet me know if you need more."
	result, err := parser.ParseSummaryResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, "Short recap.", result.Summary)
}

func TestParseSummaryResponse_InitializesEmptyLists(t *testing.T) {
	parser := NewParser()

	result, err := parser.ParseSummaryResponse(`{"summary":"Recap only."}`)
	require.NoError(t, err)
	assert.NotNil(t, result.KeyTopics)
	assert.NotNil(t, result.Decisions)
	assert.NotNil(t, result.ActionItems)
	assert.Empty(t, result.KeyTopics)
}

func TestParseSummaryResponse_NoJSONObject(t *testing.T) {
	parser := NewParser()

	_, err := parser.ParseSummaryResponse("the model returned only prose")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrorCode_SUMMARY_PARSE_FAILED))
}

func TestParseSummaryResponse_InvalidJSON(t *testing.T) {
	parser := NewParser()

	_, err := parser.ParseSummaryResponse(`{"summary": "unterminated`)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrorCode_SUMMARY_PARSE_FAILED))
}

func TestParseSummaryResponse_MissingSummaryField(t *testing.T) {
	parser := NewParser()

	_, err := parser.ParseSummaryResponse(`{"keyTopics":["roadmap"]}`)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrorCode_SUMMARY_PARSE_FAILED))
}

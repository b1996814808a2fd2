package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTextVerdict(t *testing.T) {
	verdict, err := parseTextVerdict(`{"ai_probability": 0.85, "reasoning": "Formulaic structure."}`)
	require.NoError(t, err)
	assert.Equal(t, 0.85, verdict.Probability)
	assert.Equal(t, "Formulaic structure.", verdict.Reasoning)
}

func TestParseTextVerdictMarkdownFence(t *testing.T) {
	response := "```json\n{\"ai_probability\": 0.3, \"reasoning\": \"Varied voice.\"}\n```"
	verdict, err := parseTextVerdict(response)
	require.NoError(t, err)
	assert.Equal(t, 0.3, verdict.Probability)
}

func TestParseTextVerdictSurroundingProse(t *testing.T) {
	response := `Here is my assessment: {"ai_probability": 0.6, "reasoning": "Mixed signals."} Let me know if you need more.`
	verdict, err := parseTextVerdict(response)
	require.NoError(t, err)
	assert.Equal(t, 0.6, verdict.Probability)
}

func TestParseTextVerdictMissingProbability(t *testing.T) {
	_, err := parseTextVerdict(`{"reasoning": "No score here."}`)
	assert.Error(t, err)
}

func TestParseTextVerdictNotJSON(t *testing.T) {
	_, err := parseTextVerdict("The text looks human-written to me.")
	assert.Error(t, err)
}

package assist

import (
	"testing"

	"researchhub/internal/models"

	"github.com/stretchr/testify/require"
)

func TestBuildChatPromptIncludesHistoryAndRules(t *testing.T) {
	history := []models.ChatMessage{
		{Role: "user", Content: "What is a transformer?"},
		{Role: "assistant", Content: "A sequence model built on attention."},
	}
	prompt := BuildChatPrompt("How does it scale?", history)
	require.Contains(t, prompt, "User: What is a transformer?")
	require.Contains(t, prompt, "Assistant: A sequence model")
	require.Contains(t, prompt, "Question: How does it scale?")
	require.Contains(t, prompt, "[P1]")
}

func TestBuildChatPromptNoHistory(t *testing.T) {
	prompt := BuildChatPrompt("hello", nil)
	require.NotContains(t, prompt, "Conversation so far")
	require.Contains(t, prompt, "Question: hello")
}

func TestBuildToolPromptOperations(t *testing.T) {
	papers := []models.Paper{{Title: "T1", Abstract: "A1", Authors: []string{"X"}}}

	op, prompt, err := BuildToolPrompt(ToolSummarize, papers)
	require.NoError(t, err)
	require.Equal(t, "tool_summarize", op)
	require.Contains(t, prompt, "[P1] T1")

	op, _, err = BuildToolPrompt(ToolLiteratureReview, papers)
	require.NoError(t, err)
	require.Equal(t, "tool_literature_review", op)

	_, _, err = BuildToolPrompt("translate", papers)
	require.Error(t, err)

	_, _, err = BuildToolPrompt(ToolInsights, nil)
	require.Error(t, err)
}

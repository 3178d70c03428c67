package assist

import (
	"fmt"
	"strings"

	"researchhub/internal/models"
	"researchhub/internal/util"
)

const (
	ToolSummarize        = "summarize"
	ToolInsights         = "insights"
	ToolLiteratureReview = "literature_review"
)

// BuildChatPrompt assembles the workspace chat prompt: recent history first,
// then the grounding rules and the question. Paper context travels separately
// in the provider request.
func BuildChatPrompt(question string, history []models.ChatMessage) string {
	b := strings.Builder{}
	if len(history) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, m := range history {
			b.WriteString(strings.ToUpper(m.Role[:1]) + m.Role[1:] + ": " + util.DisplaySnippet(m.Content, 600) + "\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("Question: " + question + "\n\n")
	b.WriteString("Answer using ONLY the provided papers as evidence.\n")
	b.WriteString("Reference papers as [P1], [P2], etc. matching the context order.\n")
	b.WriteString("If the papers do not cover the question, say what is missing instead of guessing.\n")
	return b.String()
}

// PaperContext renders one paper as a context snippet for chat and review prompts.
func PaperContext(idx int, p models.Paper) string {
	line := fmt.Sprintf("[P%d] %s", idx+1, util.DisplaySnippet(p.Title, 160))
	if len(p.Authors) > 0 {
		line += " (" + strings.Join(p.Authors, ", ") + ")"
	}
	if abs := util.DisplaySnippet(p.Abstract, 800); abs != "" {
		line += ": " + abs
	}
	return line
}

// BuildToolPrompt returns the LLM operation name and prompt for one of the
// paper tools. Unknown tools are an error, not a silent default.
func BuildToolPrompt(tool string, papers []models.Paper) (operation, prompt string, err error) {
	if len(papers) == 0 {
		return "", "", fmt.Errorf("no papers selected")
	}
	listing := strings.Builder{}
	for i, p := range papers {
		listing.WriteString(PaperContext(i, p) + "\n")
	}

	switch strings.ToLower(strings.TrimSpace(tool)) {
	case ToolSummarize:
		return "tool_summarize", "Summarize each of the following papers in two or three sentences. " +
			"Keep each summary faithful to the abstract; do not invent results.\n\nPapers:\n" + listing.String(), nil
	case ToolInsights:
		return "tool_insights", "Identify the key insights, shared themes, and open questions across the following papers. " +
			"Return a short bulleted list referencing papers as [P#].\n\nPapers:\n" + listing.String(), nil
	case ToolLiteratureReview:
		return "tool_literature_review", "Write a short literature review connecting the following papers. " +
			"Structure it with an introduction, themed paragraphs citing papers as [P#], and a closing paragraph on gaps.\n\nPapers:\n" + listing.String(), nil
	default:
		return "", "", fmt.Errorf("unsupported tool: %s", tool)
	}
}

// BuildReviewSectionPrompt drafts one topic section of a workspace review.
func BuildReviewSectionPrompt(topic string) string {
	return "Draft a literature review section for the topic: " + topic + "\n" +
		"Ground every claim in the provided papers, cited as [P#]."
}

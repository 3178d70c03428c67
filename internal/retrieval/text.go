package retrieval

import (
	"strings"

	"researchhub/internal/models"
	"researchhub/internal/util"
)

// ComposeText builds the canonical embedding input for a paper:
// title, abstract, then an "Authors: ..." line, space-joined. The same
// composition must be used at index and refresh time so stored vectors
// stay comparable.
func ComposeText(p models.Paper) string {
	parts := make([]string, 0, 3)
	if t := strings.TrimSpace(p.Title); t != "" {
		parts = append(parts, t)
	}
	if a := strings.TrimSpace(p.Abstract); a != "" {
		parts = append(parts, a)
	}
	if len(p.Authors) > 0 {
		parts = append(parts, "Authors: "+strings.Join(p.Authors, ", "))
	}
	return util.SanitizeText(strings.Join(parts, " "))
}

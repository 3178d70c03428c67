package api

import (
	"testing"

	"researchhub/internal/models"
	"researchhub/internal/vector"

	"github.com/stretchr/testify/require"
)

func TestOrderByMatchesFollowsRankedOrder(t *testing.T) {
	// Fetched papers arrive in recency order; the prompt context must
	// follow similarity order instead.
	papers := []models.Paper{
		{PaperID: "p3", Title: "newest"},
		{PaperID: "p1", Title: "best"},
		{PaperID: "p2", Title: "middle"},
	}
	matches := []vector.Match{
		{PaperID: "p1", Score: 0.9},
		{PaperID: "p2", Score: 0.5},
		{PaperID: "p3", Score: 0.1},
	}

	got := orderByMatches(papers, matches)
	require.Len(t, got, 3)
	require.Equal(t, "p1", got[0].PaperID)
	require.Equal(t, "p2", got[1].PaperID)
	require.Equal(t, "p3", got[2].PaperID)
}

func TestOrderByMatchesSkipsMissingPapers(t *testing.T) {
	papers := []models.Paper{{PaperID: "p1"}}
	matches := []vector.Match{
		{PaperID: "deleted", Score: 0.8},
		{PaperID: "p1", Score: 0.6},
	}

	got := orderByMatches(papers, matches)
	require.Len(t, got, 1)
	require.Equal(t, "p1", got[0].PaperID)
}

package retrieval

import (
	"testing"

	"researchhub/internal/models"

	"github.com/stretchr/testify/require"
)

func TestComposeTextFullPaper(t *testing.T) {
	p := models.Paper{
		Title:    "Attention Is All You Need",
		Abstract: "We propose the Transformer.",
		Authors:  []string{"Vaswani", "Shazeer"},
	}
	require.Equal(t,
		"Attention Is All You Need We propose the Transformer. Authors: Vaswani, Shazeer",
		ComposeText(p))
}

func TestComposeTextOmitsMissingParts(t *testing.T) {
	require.Equal(t, "Only Title", ComposeText(models.Paper{Title: "Only Title"}))
	require.Equal(t, "T Authors: A", ComposeText(models.Paper{Title: "T", Authors: []string{"A"}}))
	require.Equal(t, "", ComposeText(models.Paper{}))
}

func TestComposeTextStripsControlCharacters(t *testing.T) {
	p := models.Paper{Title: "Bad\x00Title"}
	require.Equal(t, "BadTitle", ComposeText(p))
}

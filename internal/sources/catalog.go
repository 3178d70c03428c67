package sources

import (
	"context"
	"fmt"
	"strings"

	"researchhub/internal/models"
)

// Catalog fans a query out to the configured external paper sources.
type Catalog struct {
	arxiv  *ArxivClient
	pubmed *PubMedClient
}

func NewCatalog() *Catalog {
	return &Catalog{arxiv: NewArxivClient(), pubmed: NewPubMedClient()}
}

// Search queries one source, or both when source is "all" or empty.
// Partial failures are tolerated when the other source returns results.
func (c *Catalog) Search(ctx context.Context, query, source string, maxResults int) ([]models.PaperMeta, error) {
	switch strings.ToLower(strings.TrimSpace(source)) {
	case "arxiv":
		return c.arxiv.Search(ctx, query, maxResults)
	case "pubmed":
		return c.pubmed.Search(ctx, query, maxResults)
	case "", "all":
		ax, axErr := c.arxiv.Search(ctx, query, maxResults)
		pm, pmErr := c.pubmed.Search(ctx, query, maxResults)
		if axErr != nil && pmErr != nil {
			return nil, fmt.Errorf("all sources failed: arxiv: %v; pubmed: %v", axErr, pmErr)
		}
		merged := make([]models.PaperMeta, 0, len(ax)+len(pm))
		seen := make(map[string]struct{}, len(ax)+len(pm))
		for _, m := range append(ax, pm...) {
			key := m.Source + ":" + m.ExternalID
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, m)
		}
		return merged, nil
	default:
		return nil, fmt.Errorf("unsupported source: %s", source)
	}
}

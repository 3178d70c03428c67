package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"researchhub/internal/models"
	"researchhub/internal/util"

	"golang.org/x/time/rate"
)

// PubMedClient uses the NCBI E-utilities (esearch + esummary). NCBI caps
// unauthenticated clients at three requests per second.
type PubMedClient struct {
	baseURL string
	httpc   *http.Client
	limiter *rate.Limiter
}

func NewPubMedClient() *PubMedClient {
	return &PubMedClient{
		baseURL: "https://eutils.ncbi.nlm.nih.gov/entrez/eutils",
		httpc:   &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Every(334*time.Millisecond), 1),
	}
}

func newPubMedClientForTest(baseURL string) *PubMedClient {
	return &PubMedClient{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 5 * time.Second},
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
}

func (c *PubMedClient) Search(ctx context.Context, query string, maxResults int) ([]models.PaperMeta, error) {
	if maxResults <= 0 {
		maxResults = 10
	}
	ids, err := c.searchIDs(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []models.PaperMeta{}, nil
	}
	return c.summaries(ctx, ids)
}

func (c *PubMedClient) searchIDs(ctx context.Context, query string, maxResults int) ([]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("pubmed rate wait: %w", err)
	}
	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("term", query)
	q.Set("retmode", "json")
	q.Set("retmax", fmt.Sprintf("%d", maxResults))

	body, err := c.get(ctx, "/esearch.fcgi?"+q.Encode())
	if err != nil {
		return nil, err
	}
	var parsed struct {
		ESearchResult struct {
			IDList []string `json:"idlist"`
		} `json:"esearchresult"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode pubmed search: %w", err)
	}
	return parsed.ESearchResult.IDList, nil
}

func (c *PubMedClient) summaries(ctx context.Context, ids []string) ([]models.PaperMeta, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("pubmed rate wait: %w", err)
	}
	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("id", strings.Join(ids, ","))
	q.Set("retmode", "json")

	body, err := c.get(ctx, "/esummary.fcgi?"+q.Encode())
	if err != nil {
		return nil, err
	}
	// The result object mixes a "uids" list with one heterogeneous entry
	// per id, so decode in two steps.
	var parsed struct {
		Result map[string]json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode pubmed summary: %w", err)
	}

	out := make([]models.PaperMeta, 0, len(ids))
	for _, id := range ids {
		raw, ok := parsed.Result[id]
		if !ok {
			continue
		}
		var item struct {
			Title   string `json:"title"`
			PubDate string `json:"pubdate"`
			Authors []struct {
				Name string `json:"name"`
			} `json:"authors"`
		}
		if err := json.Unmarshal(raw, &item); err != nil {
			continue
		}
		if strings.TrimSpace(item.Title) == "" {
			continue
		}
		meta := models.PaperMeta{
			Title:      util.SanitizeText(collapseSpace(item.Title)),
			Source:     "pubmed",
			ExternalID: id,
			URL:        "https://pubmed.ncbi.nlm.nih.gov/" + id + "/",
			Published:  strings.TrimSpace(item.PubDate),
		}
		for _, a := range item.Authors {
			if name := strings.TrimSpace(a.Name); name != "" {
				meta.Authors = append(meta.Authors, name)
			}
		}
		out = append(out, meta)
	}
	return out, nil
}

func (c *PubMedClient) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build pubmed request: %w", err)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pubmed request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read pubmed response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("pubmed error %d", resp.StatusCode)
	}
	return body, nil
}

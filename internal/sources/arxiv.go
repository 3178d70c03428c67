package sources

import (
	"context"
	"encoding/xml"
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

// ArxivClient queries the arXiv Atom API. arXiv asks clients to stay under
// one request every three seconds, enforced here with a shared limiter.
type ArxivClient struct {
	baseURL string
	httpc   *http.Client
	limiter *rate.Limiter
}

func NewArxivClient() *ArxivClient {
	return &ArxivClient{
		baseURL: "http://export.arxiv.org/api/query",
		httpc:   &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Every(3*time.Second), 1),
	}
}

func newArxivClientForTest(baseURL string) *ArxivClient {
	return &ArxivClient{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 5 * time.Second},
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
}

type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string `xml:"id"`
	Title     string `xml:"title"`
	Summary   string `xml:"summary"`
	Published string `xml:"published"`
	Authors   []struct {
		Name string `xml:"name"`
	} `xml:"author"`
	Links []struct {
		Href  string `xml:"href,attr"`
		Rel   string `xml:"rel,attr"`
		Title string `xml:"title,attr"`
	} `xml:"link"`
}

func (c *ArxivClient) Search(ctx context.Context, query string, maxResults int) ([]models.PaperMeta, error) {
	if maxResults <= 0 {
		maxResults = 10
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("arxiv rate wait: %w", err)
	}

	q := url.Values{}
	q.Set("search_query", "all:"+query)
	q.Set("start", "0")
	q.Set("max_results", fmt.Sprintf("%d", maxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build arxiv request: %w", err)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arxiv request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read arxiv response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("arxiv error %d: %s", resp.StatusCode, strings.TrimSpace(string(body[:min(len(body), 200)])))
	}

	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("decode arxiv feed: %w", err)
	}

	out := make([]models.PaperMeta, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		meta := models.PaperMeta{
			Title:      util.SanitizeText(collapseSpace(e.Title)),
			Abstract:   util.SanitizeText(collapseSpace(e.Summary)),
			Source:     "arxiv",
			ExternalID: arxivIDFromURL(e.ID),
			URL:        strings.TrimSpace(e.ID),
			Published:  strings.TrimSpace(e.Published),
		}
		for _, a := range e.Authors {
			if name := strings.TrimSpace(a.Name); name != "" {
				meta.Authors = append(meta.Authors, name)
			}
		}
		for _, l := range e.Links {
			if l.Title == "pdf" || strings.HasSuffix(l.Href, ".pdf") {
				meta.PDFURL = l.Href
				break
			}
		}
		if meta.Title == "" || meta.ExternalID == "" {
			continue
		}
		out = append(out, meta)
	}
	return out, nil
}

func arxivIDFromURL(id string) string {
	id = strings.TrimSpace(id)
	for _, prefix := range []string{"http://arxiv.org/abs/", "https://arxiv.org/abs/"} {
		if strings.HasPrefix(id, prefix) {
			return strings.TrimPrefix(id, prefix)
		}
	}
	return id
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

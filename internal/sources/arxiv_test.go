package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

const arxivFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/1706.03762v7</id>
    <title>Attention Is All
      You Need</title>
    <summary>The dominant sequence transduction models are based on RNNs.</summary>
    <published>2017-06-12T17:57:34Z</published>
    <author><name>Ashish Vaswani</name></author>
    <author><name>Noam Shazeer</name></author>
    <link href="http://arxiv.org/abs/1706.03762v7" rel="alternate" type="text/html"/>
    <link title="pdf" href="http://arxiv.org/pdf/1706.03762v7" rel="related" type="application/pdf"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/</id>
    <title></title>
  </entry>
</feed>`

func TestArxivSearchParsesFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "all:attention", r.URL.Query().Get("search_query"))
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(arxivFixture))
	}))
	defer srv.Close()

	c := newArxivClientForTest(srv.URL)
	got, err := c.Search(context.Background(), "attention", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)

	m := got[0]
	require.Equal(t, "Attention Is All You Need", m.Title)
	require.Equal(t, "1706.03762v7", m.ExternalID)
	require.Equal(t, "arxiv", m.Source)
	require.Equal(t, []string{"Ashish Vaswani", "Noam Shazeer"}, m.Authors)
	require.Equal(t, "http://arxiv.org/pdf/1706.03762v7", m.PDFURL)
	require.Contains(t, m.Abstract, "sequence transduction")
}

func TestArxivSearchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newArxivClientForTest(srv.URL)
	_, err := c.Search(context.Background(), "attention", 5)
	require.Error(t, err)
}

package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPubMedSearchTwoStepFlow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/esearch.fcgi"):
			require.Equal(t, "pubmed", r.URL.Query().Get("db"))
			_, _ = w.Write([]byte(`{"esearchresult":{"idlist":["11111","22222"]}}`))
		case strings.HasPrefix(r.URL.Path, "/esummary.fcgi"):
			require.Equal(t, "11111,22222", r.URL.Query().Get("id"))
			_, _ = w.Write([]byte(`{"result":{
				"uids":["11111","22222"],
				"11111":{"title":"CRISPR screening in vivo","pubdate":"2020 Mar","authors":[{"name":"Doudna J"}]},
				"22222":{"title":"","pubdate":"2021"}
			}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := newPubMedClientForTest(srv.URL)
	got, err := c.Search(context.Background(), "crispr", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)

	m := got[0]
	require.Equal(t, "CRISPR screening in vivo", m.Title)
	require.Equal(t, "11111", m.ExternalID)
	require.Equal(t, "pubmed", m.Source)
	require.Equal(t, []string{"Doudna J"}, m.Authors)
	require.Equal(t, "https://pubmed.ncbi.nlm.nih.gov/11111/", m.URL)
}

func TestPubMedSearchNoHits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"esearchresult":{"idlist":[]}}`))
	}))
	defer srv.Close()

	c := newPubMedClientForTest(srv.URL)
	got, err := c.Search(context.Background(), "nothing", 5)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestCatalogRejectsUnknownSource(t *testing.T) {
	c := &Catalog{}
	_, err := c.Search(context.Background(), "q", "scholar", 5)
	require.Error(t, err)
}

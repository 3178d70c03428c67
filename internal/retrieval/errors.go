package retrieval

import "errors"

var (
	// ErrEmbeddingUnavailable means no embedding provider could serve the query.
	// Read paths surface this to the caller; write paths log and move on.
	ErrEmbeddingUnavailable = errors.New("embedding providers unavailable")

	// ErrNotIndexed means the paper has no stored embedding yet.
	ErrNotIndexed = errors.New("paper not yet indexed")
)

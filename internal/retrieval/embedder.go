package retrieval

import (
	"context"
	"fmt"
	"sync"
	"time"

	"researchhub/internal/config"
	"researchhub/internal/providers"
	"researchhub/internal/vector"

	"github.com/go-logr/logr"
)

// Embedder turns text into unit-norm query vectors. Provider construction is
// deferred until the first call and happens exactly once per process;
// concurrent first callers block on the same init.
type Embedder struct {
	cfg config.Config
	log logr.Logger

	once    sync.Once
	mgr     *providers.Manager
	initErr error
}

func NewEmbedder(cfg config.Config, log logr.Logger) *Embedder {
	return &Embedder{cfg: cfg, log: log}
}

func (e *Embedder) manager() (*providers.Manager, error) {
	e.once.Do(func() {
		e.mgr, e.initErr = providers.NewManager(e.cfg)
		if e.initErr == nil {
			e.log.Info("embedding providers initialized", "providers", e.cfg.EmbedProviders, "dim", e.cfg.EmbedDim)
		}
	})
	if e.initErr != nil {
		return nil, fmt.Errorf("init embedding providers: %w", e.initErr)
	}
	return e.mgr, nil
}

// EmbedQuery embeds one text and normalizes the result. Providers are tried
// in preferred order; the call is bounded by the configured embed timeout.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	mgr, err := e.manager()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}

	timeout := time.Duration(e.cfg.EmbedTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var lastErr error
	for _, idx := range mgr.PreferredEmbedOrder() {
		p, ref := mgr.EmbedProviderByIndex(idx)
		vecs, _, err := p.Embed(ctx, providers.EmbedRequest{
			Operation: "query_embed",
			Inputs:    []string{text},
			Dimension: e.cfg.EmbedDim,
		})
		if err != nil {
			lastErr = err
			e.log.Info("embed provider failed, trying next", "provider", ref.Name, "error", err.Error())
			continue
		}
		if len(vecs) == 0 || len(vecs[0]) == 0 {
			lastErr = fmt.Errorf("provider %s returned empty vector", ref.Name)
			continue
		}
		return vector.Normalize(vecs[0]), nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no embedding providers configured")
	}
	return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, lastErr)
}

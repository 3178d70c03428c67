package retrieval

import (
	"context"
	"fmt"
	"math"

	"researchhub/internal/models"
	"researchhub/internal/vector"

	"github.com/go-logr/logr"
)

// QueryEmbedder is satisfied by *Embedder.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// CandidateSource supplies stored paper vectors for ranking. The candidate
// set comes in full and is ranked in memory, so swapping in an ANN-backed
// source only changes this interface's implementation.
type CandidateSource interface {
	CandidatesByOwner(ctx context.Context, ownerID string) ([]vector.Candidate, error)
	CandidatesByWorkspace(ctx context.Context, ownerID, workspaceID string) ([]vector.Candidate, error)
	CandidatesExcluding(ctx context.Context, ownerID, excludedPaperID string) ([]vector.Candidate, error)
	GetByPaper(ctx context.Context, paperID string) ([]float32, bool, error)
	Upsert(ctx context.Context, paperID string, vec []float32, modelName string) error
}

type Service struct {
	embedder  QueryEmbedder
	source    CandidateSource
	log       logr.Logger
	modelName string
	topK      int
	minScore  float64
}

func NewService(embedder QueryEmbedder, source CandidateSource, log logr.Logger, modelName string, topK int, minScore float64) *Service {
	if topK <= 0 {
		topK = 10
	}
	return &Service{
		embedder:  embedder,
		source:    source,
		log:       log,
		modelName: modelName,
		topK:      topK,
		minScore:  minScore,
	}
}

// GlobalSearch ranks every indexed paper the owner has against the query.
// It is the only operation that honors the configured minimum score;
// workspace search and related ranking return every compatible candidate so
// a small library is never silently truncated.
func (s *Service) GlobalSearch(ctx context.Context, ownerID, query string, topK int) ([]vector.Match, error) {
	vec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	candidates, err := s.source.CandidatesByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load search candidates: %w", err)
	}
	return vector.Rank(s.log, vec, candidates, s.effectiveTopK(topK), s.minScore), nil
}

// WorkspaceSearch restricts candidates to papers linked into the workspace.
// An empty result is returned as-is; any fallback policy belongs to callers.
func (s *Service) WorkspaceSearch(ctx context.Context, ownerID, workspaceID, query string, topK int) ([]vector.Match, error) {
	vec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	candidates, err := s.source.CandidatesByWorkspace(ctx, ownerID, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("load workspace candidates: %w", err)
	}
	return vector.Rank(s.log, vec, candidates, s.effectiveTopK(topK), math.Inf(-1)), nil
}

// Related uses the stored vector of the source paper as the query. The source
// itself is excluded from the candidate set, not filtered afterwards.
func (s *Service) Related(ctx context.Context, ownerID, paperID string, topK int) ([]vector.Match, error) {
	vec, ok, err := s.source.GetByPaper(ctx, paperID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotIndexed
	}
	candidates, err := s.source.CandidatesExcluding(ctx, ownerID, paperID)
	if err != nil {
		return nil, fmt.Errorf("load related candidates: %w", err)
	}
	return vector.Rank(s.log, vec, candidates, s.effectiveTopK(topK), math.Inf(-1)), nil
}

// RefreshEmbedding recomputes and stores the paper's vector. Idempotent:
// the same metadata always produces the same stored embedding.
func (s *Service) RefreshEmbedding(ctx context.Context, p models.Paper) error {
	text := ComposeText(p)
	if text == "" {
		return fmt.Errorf("paper %s has no embeddable text", p.PaperID)
	}
	vec, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return err
	}
	if err := s.source.Upsert(ctx, p.PaperID, vec, s.modelName); err != nil {
		return fmt.Errorf("store embedding: %w", err)
	}
	return nil
}

func (s *Service) effectiveTopK(topK int) int {
	if topK <= 0 {
		return s.topK
	}
	return topK
}

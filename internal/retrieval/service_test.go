package retrieval

import (
	"context"
	"errors"
	"testing"

	"researchhub/internal/config"
	"researchhub/internal/models"
	"researchhub/internal/vector"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vec, nil
}

type memorySource struct {
	owner     map[string][]vector.Candidate
	workspace map[string][]vector.Candidate
	vectors   map[string][]float32
	upserts   map[string][]float32
}

func newMemorySource() *memorySource {
	return &memorySource{
		owner:     map[string][]vector.Candidate{},
		workspace: map[string][]vector.Candidate{},
		vectors:   map[string][]float32{},
		upserts:   map[string][]float32{},
	}
}

func (m *memorySource) CandidatesByOwner(_ context.Context, ownerID string) ([]vector.Candidate, error) {
	return m.owner[ownerID], nil
}

func (m *memorySource) CandidatesByWorkspace(_ context.Context, _, workspaceID string) ([]vector.Candidate, error) {
	return m.workspace[workspaceID], nil
}

func (m *memorySource) CandidatesExcluding(_ context.Context, ownerID, excluded string) ([]vector.Candidate, error) {
	out := make([]vector.Candidate, 0)
	for _, c := range m.owner[ownerID] {
		if c.PaperID != excluded {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memorySource) GetByPaper(_ context.Context, paperID string) ([]float32, bool, error) {
	v, ok := m.vectors[paperID]
	return v, ok, nil
}

func (m *memorySource) Upsert(_ context.Context, paperID string, vec []float32, _ string) error {
	m.upserts[paperID] = vec
	return nil
}

func TestGlobalSearchRanksOwnerPapers(t *testing.T) {
	src := newMemorySource()
	src.owner["u1"] = []vector.Candidate{
		{PaperID: "p1", Title: "far", Vector: []float32{0, 1}},
		{PaperID: "p2", Title: "near", Vector: []float32{1, 0}},
	}
	svc := NewService(&fakeEmbedder{vec: []float32{1, 0}}, src, logr.Discard(), "test-model", 10, 0)

	got, err := svc.GlobalSearch(context.Background(), "u1", "anything", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "p2", got[0].PaperID)
	require.InDelta(t, 1.0, got[0].Score, 1e-6)
	require.Equal(t, "p1", got[1].PaperID)
}

func TestGlobalSearchDefaultsReturnEveryOwnedPaper(t *testing.T) {
	src := newMemorySource()
	src.owner["u1"] = []vector.Candidate{
		{PaperID: "p1", Title: "exact", Vector: []float32{1, 0}},
		{PaperID: "p2", Title: "weak", Vector: []float32{0.3, 0.9539392}},
		{PaperID: "p3", Title: "weaker", Vector: []float32{0.1, 0.9949874}},
	}
	cfg := config.Load()
	svc := NewService(&fakeEmbedder{vec: []float32{1, 0}}, src, logr.Discard(), "m", cfg.SearchTopK, cfg.SearchMinScore)

	got, err := svc.GlobalSearch(context.Background(), "u1", "q", 5)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "p1", got[0].PaperID)
	require.Equal(t, "p2", got[1].PaperID)
	require.Equal(t, "p3", got[2].PaperID)
}

func TestGlobalSearchEmbedFailureSurfaces(t *testing.T) {
	svc := NewService(&fakeEmbedder{err: ErrEmbeddingUnavailable}, newMemorySource(), logr.Discard(), "m", 10, 0)
	_, err := svc.GlobalSearch(context.Background(), "u1", "q", 0)
	require.ErrorIs(t, err, ErrEmbeddingUnavailable)
}

func TestWorkspaceSearchEmptyIsNotAnError(t *testing.T) {
	svc := NewService(&fakeEmbedder{vec: []float32{1, 0}}, newMemorySource(), logr.Discard(), "m", 10, 0)
	got, err := svc.WorkspaceSearch(context.Background(), "u1", "ws1", "q", 0)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestRelatedExcludesSourcePaper(t *testing.T) {
	src := newMemorySource()
	src.vectors["p1"] = []float32{1, 0}
	src.owner["u1"] = []vector.Candidate{
		{PaperID: "p1", Title: "self", Vector: []float32{1, 0}},
		{PaperID: "p2", Title: "other", Vector: []float32{0.9, 0.4359}},
	}
	svc := NewService(&fakeEmbedder{}, src, logr.Discard(), "m", 10, 0)

	got, err := svc.Related(context.Background(), "u1", "p1", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "p2", got[0].PaperID)
}

func TestRelatedNotIndexed(t *testing.T) {
	svc := NewService(&fakeEmbedder{}, newMemorySource(), logr.Discard(), "m", 10, 0)
	_, err := svc.Related(context.Background(), "u1", "missing", 0)
	require.ErrorIs(t, err, ErrNotIndexed)
}

func TestRefreshEmbeddingStoresVector(t *testing.T) {
	src := newMemorySource()
	svc := NewService(&fakeEmbedder{vec: []float32{0.6, 0.8}}, src, logr.Discard(), "m", 10, 0)

	err := svc.RefreshEmbedding(context.Background(), models.Paper{PaperID: "p1", Title: "T"})
	require.NoError(t, err)
	require.Equal(t, []float32{0.6, 0.8}, src.upserts["p1"])
}

func TestRefreshEmbeddingRejectsEmptyText(t *testing.T) {
	svc := NewService(&fakeEmbedder{vec: []float32{1}}, newMemorySource(), logr.Discard(), "m", 10, 0)
	err := svc.RefreshEmbedding(context.Background(), models.Paper{PaperID: "p1"})
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrEmbeddingUnavailable))
}

func TestServiceMinScoreFiltersMatches(t *testing.T) {
	src := newMemorySource()
	src.owner["u1"] = []vector.Candidate{
		{PaperID: "low", Vector: []float32{0, 1}},
		{PaperID: "high", Vector: []float32{1, 0}},
	}
	svc := NewService(&fakeEmbedder{vec: []float32{1, 0}}, src, logr.Discard(), "m", 10, 0.5)

	got, err := svc.GlobalSearch(context.Background(), "u1", "q", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "high", got[0].PaperID)
}

// The min score applies to global search only. Workspace and related
// rankings keep every compatible candidate, however dissimilar.
func TestWorkspaceSearchIgnoresMinScore(t *testing.T) {
	src := newMemorySource()
	src.workspace["ws1"] = []vector.Candidate{
		{PaperID: "weak", Vector: []float32{0, 1}},
		{PaperID: "opposed", Vector: []float32{-1, 0}},
	}
	svc := NewService(&fakeEmbedder{vec: []float32{1, 0}}, src, logr.Discard(), "m", 10, 0.5)

	got, err := svc.WorkspaceSearch(context.Background(), "u1", "ws1", "q", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "weak", got[0].PaperID)
	require.Equal(t, "opposed", got[1].PaperID)
}

func TestRelatedIgnoresMinScore(t *testing.T) {
	src := newMemorySource()
	src.vectors["p1"] = []float32{1, 0}
	src.owner["u1"] = []vector.Candidate{
		{PaperID: "p1", Title: "self", Vector: []float32{1, 0}},
		{PaperID: "p2", Title: "distant", Vector: []float32{0, 1}},
	}
	svc := NewService(&fakeEmbedder{}, src, logr.Discard(), "m", 10, 0.5)

	got, err := svc.Related(context.Background(), "u1", "p1", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "p2", got[0].PaperID)
}

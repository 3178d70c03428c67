package vector

import (
	"math"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"
)

func TestRankOrdersByScoreDescending(t *testing.T) {
	query := []float32{1, 0}
	candidates := []Candidate{
		{PaperID: "far", Vector: []float32{0, 1}},
		{PaperID: "near", Vector: []float32{1, 0}},
		{PaperID: "mid", Vector: []float32{0.7071, 0.7071}},
	}
	got := Rank(logr.Discard(), query, candidates, 10, -1)
	require.Len(t, got, 3)
	require.Equal(t, "near", got[0].PaperID)
	require.Equal(t, "mid", got[1].PaperID)
	require.Equal(t, "far", got[2].PaperID)
	require.InDelta(t, 1.0, got[0].Score, 1e-6)
}

func TestRankTiesKeepInputOrder(t *testing.T) {
	query := []float32{1, 0}
	candidates := []Candidate{
		{PaperID: "a", Vector: []float32{1, 0}},
		{PaperID: "b", Vector: []float32{1, 0}},
		{PaperID: "c", Vector: []float32{1, 0}},
	}
	got := Rank(logr.Discard(), query, candidates, 10, 0)
	require.Equal(t, []string{"a", "b", "c"}, []string{got[0].PaperID, got[1].PaperID, got[2].PaperID})
}

func TestRankAppliesTopKAndMinScore(t *testing.T) {
	query := []float32{1, 0}
	candidates := []Candidate{
		{PaperID: "high", Vector: []float32{1, 0}},
		{PaperID: "mid", Vector: []float32{0.7071, 0.7071}},
		{PaperID: "low", Vector: []float32{0.1, 0.9949}},
	}
	got := Rank(logr.Discard(), query, candidates, 10, 0.5)
	require.Len(t, got, 2)

	got = Rank(logr.Discard(), query, candidates, 1, 0)
	require.Len(t, got, 1)
	require.Equal(t, "high", got[0].PaperID)
}

func TestRankSkipsDimensionMismatch(t *testing.T) {
	query := []float32{1, 0, 0}
	candidates := []Candidate{
		{PaperID: "bad", Vector: []float32{1, 0}},
		{PaperID: "good", Vector: []float32{1, 0, 0}},
	}
	got := Rank(logr.Discard(), query, candidates, 10, 0)
	require.Len(t, got, 1)
	require.Equal(t, "good", got[0].PaperID)
}

func TestRankEmptyCandidates(t *testing.T) {
	got := Rank(logr.Discard(), []float32{1, 0}, nil, 5, 0)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestNormalizeProducesUnitNorm(t *testing.T) {
	v := Normalize([]float32{3, 4})
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	require.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)

	// Normalizing twice must not change an already unit vector.
	again := Normalize(append([]float32(nil), v...))
	for i := range v {
		require.InDelta(t, v[i], again[i], 1e-6)
	}
}

func TestNormalizeZeroVectorUnchanged(t *testing.T) {
	v := Normalize([]float32{0, 0, 0})
	require.Equal(t, []float32{0, 0, 0}, v)
}

func TestLiteralRoundTrip(t *testing.T) {
	in := []float32{0.25, -1.5, 0}
	out, err := ParseLiteral(ToLiteral(in))
	require.NoError(t, err)
	require.Len(t, out, 3)
	for i := range in {
		require.InDelta(t, in[i], out[i], 1e-5)
	}
}

func TestParseLiteralRejectsGarbage(t *testing.T) {
	_, err := ParseLiteral("0.1,0.2")
	require.Error(t, err)
	_, err = ParseLiteral("[0.1,abc]")
	require.Error(t, err)
}

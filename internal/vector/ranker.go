package vector

import (
	"math"
	"sort"

	"github.com/go-logr/logr"
)

// Candidate is one stored paper vector considered during ranking.
type Candidate struct {
	PaperID string
	Title   string
	Vector  []float32
}

type Match struct {
	PaperID string  `json:"paper_id"`
	Title   string  `json:"title"`
	Score   float64 `json:"score"`
}

// Rank scores candidates against the query vector by dot product and returns
// the top matches in descending score order. Both sides are expected to be
// unit-normalized, so the dot product equals cosine similarity. Candidates
// whose dimension differs from the query are skipped, not fatal: a partially
// re-embedded library should still serve results from the compatible rows.
// Ties keep candidate input order.
func Rank(log logr.Logger, query []float32, candidates []Candidate, topK int, minScore float64) []Match {
	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		if len(c.Vector) != len(query) {
			log.Info("skipping candidate with mismatched embedding dimension",
				"paper_id", c.PaperID, "want", len(query), "got", len(c.Vector))
			continue
		}
		score := Dot(query, c.Vector)
		if score < minScore {
			continue
		}
		matches = append(matches, Match{PaperID: c.PaperID, Title: c.Title, Score: score})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}

func Dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Normalize scales v to unit L2 norm in place and returns it.
// Zero vectors are returned unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := float32(1.0 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
	return v
}

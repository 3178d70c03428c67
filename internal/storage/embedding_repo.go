package storage

import (
	"context"
	"errors"
	"fmt"

	"researchhub/internal/vector"

	"github.com/jackc/pgx/v5"
)

// EmbeddingRepo stores one embedding row per paper.
type EmbeddingRepo struct {
	db *DB
}

func NewEmbeddingRepo(db *DB) *EmbeddingRepo {
	return &EmbeddingRepo{db: db}
}

func (r *EmbeddingRepo) Upsert(ctx context.Context, paperID string, vec []float32, modelName string) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO embeddings (paper_id, embedding, model_name)
VALUES ($1, $2::vector, $3)
ON CONFLICT (paper_id)
DO UPDATE SET
  embedding = EXCLUDED.embedding,
  model_name = EXCLUDED.model_name,
  updated_at = NOW()`, paperID, vector.ToLiteral(vec), modelName)
	if err != nil {
		return fmt.Errorf("upsert embedding: %w", err)
	}
	return nil
}

func (r *EmbeddingRepo) GetByPaper(ctx context.Context, paperID string) ([]float32, bool, error) {
	var lit string
	err := r.db.Pool.QueryRow(ctx, `
SELECT embedding::text FROM embeddings WHERE paper_id=$1`, paperID).Scan(&lit)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get embedding: %w", err)
	}
	vec, err := vector.ParseLiteral(lit)
	if err != nil {
		return nil, false, fmt.Errorf("decode embedding for paper %s: %w", paperID, err)
	}
	return vec, true, nil
}

func (r *EmbeddingRepo) CandidatesByOwner(ctx context.Context, ownerID string) ([]vector.Candidate, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT p.paper_id::text, p.title, e.embedding::text
FROM embeddings e
JOIN papers p ON p.paper_id = e.paper_id
WHERE p.owner_id=$1
ORDER BY p.created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query owner candidates: %w", err)
	}
	return scanCandidates(rows)
}

func (r *EmbeddingRepo) CandidatesByWorkspace(ctx context.Context, ownerID, workspaceID string) ([]vector.Candidate, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT p.paper_id::text, p.title, e.embedding::text
FROM embeddings e
JOIN papers p ON p.paper_id = e.paper_id
JOIN workspace_papers wp ON wp.paper_id = p.paper_id
WHERE p.owner_id=$1 AND wp.workspace_id=$2
ORDER BY wp.added_at DESC`, ownerID, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("query workspace candidates: %w", err)
	}
	return scanCandidates(rows)
}

// CandidatesExcluding leaves out the given paper so related-paper lookups
// never return their own source.
func (r *EmbeddingRepo) CandidatesExcluding(ctx context.Context, ownerID, excludedPaperID string) ([]vector.Candidate, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT p.paper_id::text, p.title, e.embedding::text
FROM embeddings e
JOIN papers p ON p.paper_id = e.paper_id
WHERE p.owner_id=$1 AND p.paper_id <> $2
ORDER BY p.created_at DESC`, ownerID, excludedPaperID)
	if err != nil {
		return nil, fmt.Errorf("query candidates excluding paper: %w", err)
	}
	return scanCandidates(rows)
}

func scanCandidates(rows pgx.Rows) ([]vector.Candidate, error) {
	defer rows.Close()
	out := make([]vector.Candidate, 0)
	for rows.Next() {
		var (
			c   vector.Candidate
			lit string
		)
		if err := rows.Scan(&c.PaperID, &c.Title, &lit); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		vec, err := vector.ParseLiteral(lit)
		if err != nil {
			return nil, fmt.Errorf("decode candidate embedding for paper %s: %w", c.PaperID, err)
		}
		c.Vector = vec
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return out, nil
}

package storage

import (
	"context"
	"errors"
	"fmt"

	"researchhub/internal/models"

	"github.com/jackc/pgx/v5"
)

type PaperRepo struct {
	db *DB
}

func NewPaperRepo(db *DB) *PaperRepo {
	return &PaperRepo{db: db}
}

const paperColumns = `paper_id::text, owner_id::text, title, authors, COALESCE(abstract,''),
       source, external_id, COALESCE(url,''), COALESCE(pdf_url,''), COALESCE(published,''),
       COALESCE(full_text,''), COALESCE(ai_summary,''), created_at, updated_at`

func (r *PaperRepo) Create(ctx context.Context, p models.Paper) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO papers (paper_id, owner_id, title, authors, abstract, source, external_id, url, pdf_url, published, full_text, ai_summary)
VALUES ($1, $2, $3, $4, NULLIF($5,''), $6, $7, NULLIF($8,''), NULLIF($9,''), NULLIF($10,''), NULLIF($11,''), NULLIF($12,''))`,
		p.PaperID, p.OwnerID, p.Title, p.Authors, p.Abstract, p.Source, p.ExternalID, p.URL, p.PDFURL, p.Published, p.FullText, p.AISummary,
	)
	if err != nil {
		return fmt.Errorf("insert paper: %w", err)
	}
	return nil
}

// UpdateMetadata refreshes catalog fields on a re-import of the same external paper.
func (r *PaperRepo) UpdateMetadata(ctx context.Context, p models.Paper) error {
	_, err := r.db.Pool.Exec(ctx, `
UPDATE papers SET
  title = $3,
  authors = $4,
  abstract = COALESCE(NULLIF($5,''), abstract),
  url = COALESCE(NULLIF($6,''), url),
  pdf_url = COALESCE(NULLIF($7,''), pdf_url),
  published = COALESCE(NULLIF($8,''), published),
  updated_at = NOW()
WHERE owner_id=$1 AND paper_id=$2`,
		p.OwnerID, p.PaperID, p.Title, p.Authors, p.Abstract, p.URL, p.PDFURL, p.Published)
	if err != nil {
		return fmt.Errorf("update paper metadata: %w", err)
	}
	return nil
}

func (r *PaperRepo) SetAISummary(ctx context.Context, paperID, summary string) error {
	_, err := r.db.Pool.Exec(ctx, `
UPDATE papers SET ai_summary=NULLIF($2,''), updated_at=NOW() WHERE paper_id=$1`, paperID, summary)
	if err != nil {
		return fmt.Errorf("set paper summary: %w", err)
	}
	return nil
}

func (r *PaperRepo) GetByID(ctx context.Context, ownerID, paperID string) (models.Paper, bool, error) {
	var p models.Paper
	err := r.db.Pool.QueryRow(ctx, `
SELECT `+paperColumns+`
FROM papers
WHERE owner_id=$1 AND paper_id=$2`, ownerID, paperID).
		Scan(&p.PaperID, &p.OwnerID, &p.Title, &p.Authors, &p.Abstract, &p.Source, &p.ExternalID,
			&p.URL, &p.PDFURL, &p.Published, &p.FullText, &p.AISummary, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Paper{}, false, nil
	}
	if err != nil {
		return models.Paper{}, false, fmt.Errorf("get paper by id: %w", err)
	}
	return p, true, nil
}

func (r *PaperRepo) FindByExternalID(ctx context.Context, ownerID, source, externalID string) (models.Paper, bool, error) {
	var p models.Paper
	err := r.db.Pool.QueryRow(ctx, `
SELECT `+paperColumns+`
FROM papers
WHERE owner_id=$1 AND source=$2 AND external_id=$3`, ownerID, source, externalID).
		Scan(&p.PaperID, &p.OwnerID, &p.Title, &p.Authors, &p.Abstract, &p.Source, &p.ExternalID,
			&p.URL, &p.PDFURL, &p.Published, &p.FullText, &p.AISummary, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Paper{}, false, nil
	}
	if err != nil {
		return models.Paper{}, false, fmt.Errorf("find paper by external id: %w", err)
	}
	return p, true, nil
}

func (r *PaperRepo) ListByOwner(ctx context.Context, ownerID string) ([]models.Paper, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT `+paperColumns+`
FROM papers
WHERE owner_id=$1
ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list papers: %w", err)
	}
	return scanPapers(rows)
}

func (r *PaperRepo) ListByWorkspace(ctx context.Context, ownerID, workspaceID string) ([]models.Paper, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT `+paperColumns+`
FROM papers p
JOIN workspace_papers wp ON wp.paper_id = p.paper_id
WHERE p.owner_id=$1 AND wp.workspace_id=$2
ORDER BY wp.added_at DESC`, ownerID, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list workspace papers: %w", err)
	}
	return scanPapers(rows)
}

func (r *PaperRepo) ListByIDs(ctx context.Context, ownerID string, paperIDs []string) ([]models.Paper, error) {
	if len(paperIDs) == 0 {
		return []models.Paper{}, nil
	}
	rows, err := r.db.Pool.Query(ctx, `
SELECT `+paperColumns+`
FROM papers
WHERE owner_id=$1 AND paper_id = ANY($2)
ORDER BY created_at DESC`, ownerID, paperIDs)
	if err != nil {
		return nil, fmt.Errorf("list papers by ids: %w", err)
	}
	return scanPapers(rows)
}

func (r *PaperRepo) Delete(ctx context.Context, ownerID, paperID string) error {
	tag, err := r.db.Pool.Exec(ctx, `
DELETE FROM papers WHERE owner_id=$1 AND paper_id=$2`, ownerID, paperID)
	if err != nil {
		return fmt.Errorf("delete paper: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanPapers(rows pgx.Rows) ([]models.Paper, error) {
	defer rows.Close()
	out := make([]models.Paper, 0)
	for rows.Next() {
		var p models.Paper
		if err := rows.Scan(&p.PaperID, &p.OwnerID, &p.Title, &p.Authors, &p.Abstract, &p.Source, &p.ExternalID,
			&p.URL, &p.PDFURL, &p.Published, &p.FullText, &p.AISummary, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan paper: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate papers: %w", err)
	}
	return out, nil
}

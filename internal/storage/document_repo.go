package storage

import (
	"context"
	"errors"
	"fmt"

	"researchhub/internal/models"

	"github.com/jackc/pgx/v5"
)

type DocumentRepo struct {
	db *DB
}

func NewDocumentRepo(db *DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) Insert(ctx context.Context, d models.Document) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO documents (document_id, owner_id, title, kind, content, paper_id)
VALUES ($1, $2, $3, $4, NULLIF($5,''), NULLIF($6,'')::uuid)`,
		d.DocumentID, d.OwnerID, d.Title, d.Kind, d.Content, d.PaperID)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepo) Get(ctx context.Context, ownerID, documentID string) (models.Document, bool, error) {
	var d models.Document
	err := r.db.Pool.QueryRow(ctx, `
SELECT document_id::text, owner_id::text, title, kind, COALESCE(content,''), COALESCE(paper_id::text,''), created_at
FROM documents
WHERE owner_id=$1 AND document_id=$2`, ownerID, documentID).
		Scan(&d.DocumentID, &d.OwnerID, &d.Title, &d.Kind, &d.Content, &d.PaperID, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Document{}, false, nil
	}
	if err != nil {
		return models.Document{}, false, fmt.Errorf("get document: %w", err)
	}
	return d, true, nil
}

// ListByOwner omits content to keep listings light.
func (r *DocumentRepo) ListByOwner(ctx context.Context, ownerID string) ([]models.Document, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT document_id::text, owner_id::text, title, kind, COALESCE(paper_id::text,''), created_at
FROM documents
WHERE owner_id=$1
ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := make([]models.Document, 0)
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.DocumentID, &d.OwnerID, &d.Title, &d.Kind, &d.PaperID, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

func (r *DocumentRepo) Delete(ctx context.Context, ownerID, documentID string) error {
	tag, err := r.db.Pool.Exec(ctx, `
DELETE FROM documents WHERE owner_id=$1 AND document_id=$2`, ownerID, documentID)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

package storage

import (
	"context"
	"fmt"
)

type ReviewRepo struct {
	db *DB
}

func NewReviewRepo(db *DB) *ReviewRepo {
	return &ReviewRepo{db: db}
}

func (r *ReviewRepo) CreateRun(ctx context.Context, reviewRunID, workspaceID string) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO review_runs (review_run_id, workspace_id, status)
VALUES ($1, $2, 'pending')`, reviewRunID, workspaceID)
	if err != nil {
		return fmt.Errorf("create review run: %w", err)
	}
	return nil
}

func (r *ReviewRepo) UpdateRunStatus(ctx context.Context, reviewRunID, status, documentID string) error {
	_, err := r.db.Pool.Exec(ctx, `
UPDATE review_runs SET status=$2, document_id=NULLIF($3,'')::uuid, updated_at=NOW()
WHERE review_run_id=$1`, reviewRunID, status, documentID)
	if err != nil {
		return fmt.Errorf("update review run: %w", err)
	}
	return nil
}

func (r *ReviewRepo) GetRun(ctx context.Context, reviewRunID string) (status, documentID string, err error) {
	if err := r.db.Pool.QueryRow(ctx, `
SELECT status, COALESCE(document_id::text,'') FROM review_runs WHERE review_run_id=$1`, reviewRunID).
		Scan(&status, &documentID); err != nil {
		return "", "", fmt.Errorf("get review run: %w", err)
	}
	return status, documentID, nil
}

package storage

import (
	"context"
	"errors"
	"fmt"

	"researchhub/internal/models"

	"github.com/jackc/pgx/v5"
)

type WorkspaceRepo struct {
	db *DB
}

func NewWorkspaceRepo(db *DB) *WorkspaceRepo {
	return &WorkspaceRepo{db: db}
}

func (r *WorkspaceRepo) Create(ctx context.Context, ws models.Workspace) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO workspaces (workspace_id, owner_id, name, description)
VALUES ($1, $2, $3, NULLIF($4,''))`, ws.WorkspaceID, ws.OwnerID, ws.Name, ws.Description)
	if err != nil {
		return fmt.Errorf("insert workspace: %w", err)
	}
	return nil
}

func (r *WorkspaceRepo) Get(ctx context.Context, ownerID, workspaceID string) (models.Workspace, bool, error) {
	var ws models.Workspace
	err := r.db.Pool.QueryRow(ctx, `
SELECT workspace_id::text, owner_id::text, name, COALESCE(description,''), created_at
FROM workspaces
WHERE owner_id=$1 AND workspace_id=$2`, ownerID, workspaceID).
		Scan(&ws.WorkspaceID, &ws.OwnerID, &ws.Name, &ws.Description, &ws.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Workspace{}, false, nil
	}
	if err != nil {
		return models.Workspace{}, false, fmt.Errorf("get workspace: %w", err)
	}
	return ws, true, nil
}

func (r *WorkspaceRepo) ListByOwner(ctx context.Context, ownerID string) ([]models.Workspace, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT w.workspace_id::text, w.owner_id::text, w.name, COALESCE(w.description,''),
       COUNT(wp.paper_id)::int, w.created_at
FROM workspaces w
LEFT JOIN workspace_papers wp ON wp.workspace_id = w.workspace_id
WHERE w.owner_id=$1
GROUP BY w.workspace_id
ORDER BY w.created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	defer rows.Close()

	out := make([]models.Workspace, 0)
	for rows.Next() {
		var ws models.Workspace
		if err := rows.Scan(&ws.WorkspaceID, &ws.OwnerID, &ws.Name, &ws.Description, &ws.PaperCount, &ws.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan workspace: %w", err)
		}
		out = append(out, ws)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workspaces: %w", err)
	}
	return out, nil
}

func (r *WorkspaceRepo) Update(ctx context.Context, ownerID, workspaceID, name, description string) error {
	tag, err := r.db.Pool.Exec(ctx, `
UPDATE workspaces SET name=$3, description=NULLIF($4,'')
WHERE owner_id=$1 AND workspace_id=$2`, ownerID, workspaceID, name, description)
	if err != nil {
		return fmt.Errorf("update workspace: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *WorkspaceRepo) Delete(ctx context.Context, ownerID, workspaceID string) error {
	tag, err := r.db.Pool.Exec(ctx, `
DELETE FROM workspaces WHERE owner_id=$1 AND workspace_id=$2`, ownerID, workspaceID)
	if err != nil {
		return fmt.Errorf("delete workspace: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *WorkspaceRepo) AddPaper(ctx context.Context, workspaceID, paperID string) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO workspace_papers (workspace_id, paper_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING`, workspaceID, paperID)
	if err != nil {
		return fmt.Errorf("add workspace paper: %w", err)
	}
	return nil
}

func (r *WorkspaceRepo) RemovePaper(ctx context.Context, workspaceID, paperID string) error {
	_, err := r.db.Pool.Exec(ctx, `
DELETE FROM workspace_papers WHERE workspace_id=$1 AND paper_id=$2`, workspaceID, paperID)
	if err != nil {
		return fmt.Errorf("remove workspace paper: %w", err)
	}
	return nil
}

package storage

import (
	"context"
	"fmt"

	"researchhub/internal/models"
)

type StatsRepo struct {
	db *DB
}

func NewStatsRepo(db *DB) *StatsRepo {
	return &StatsRepo{db: db}
}

func (r *StatsRepo) ForOwner(ctx context.Context, ownerID string) (models.DashboardStats, error) {
	var s models.DashboardStats
	err := r.db.Pool.QueryRow(ctx, `
SELECT
  (SELECT COUNT(*) FROM papers WHERE owner_id=$1),
  (SELECT COUNT(*) FROM embeddings e JOIN papers p ON p.paper_id = e.paper_id WHERE p.owner_id=$1),
  (SELECT COUNT(*) FROM workspaces WHERE owner_id=$1),
  (SELECT COUNT(*) FROM documents WHERE owner_id=$1),
  (SELECT COUNT(*) FROM chat_messages WHERE owner_id=$1)`, ownerID).
		Scan(&s.Papers, &s.EmbeddedPapers, &s.Workspaces, &s.Documents, &s.ChatMessages)
	if err != nil {
		return models.DashboardStats{}, fmt.Errorf("query dashboard stats: %w", err)
	}
	return s, nil
}

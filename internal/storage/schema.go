package storage

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,
	`CREATE TABLE IF NOT EXISTS users (
  user_id uuid PRIMARY KEY,
  email text NOT NULL UNIQUE,
  username text NOT NULL,
  hashed_password text NOT NULL,
  created_at timestamptz NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS workspaces (
  workspace_id uuid PRIMARY KEY,
  owner_id uuid NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
  name text NOT NULL,
  description text,
  created_at timestamptz NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS papers (
  paper_id uuid PRIMARY KEY,
  owner_id uuid NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
  title text NOT NULL,
  authors text[] NOT NULL DEFAULT '{}',
  abstract text,
  source text NOT NULL,
  external_id text NOT NULL DEFAULT '',
  url text,
  pdf_url text,
  published text,
  full_text text,
  ai_summary text,
  created_at timestamptz NOT NULL DEFAULT NOW(),
  updated_at timestamptz NOT NULL DEFAULT NOW()
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS papers_owner_source_external
  ON papers(owner_id, source, external_id) WHERE external_id <> ''`,
	`CREATE TABLE IF NOT EXISTS workspace_papers (
  workspace_id uuid NOT NULL REFERENCES workspaces(workspace_id) ON DELETE CASCADE,
  paper_id uuid NOT NULL REFERENCES papers(paper_id) ON DELETE CASCADE,
  added_at timestamptz NOT NULL DEFAULT NOW(),
  PRIMARY KEY (workspace_id, paper_id)
)`,
	`CREATE TABLE IF NOT EXISTS embeddings (
  paper_id uuid PRIMARY KEY REFERENCES papers(paper_id) ON DELETE CASCADE,
  embedding vector NOT NULL,
  model_name text NOT NULL,
  created_at timestamptz NOT NULL DEFAULT NOW(),
  updated_at timestamptz NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS chat_messages (
  message_id uuid PRIMARY KEY,
  workspace_id uuid NOT NULL REFERENCES workspaces(workspace_id) ON DELETE CASCADE,
  owner_id uuid NOT NULL,
  role text NOT NULL,
  content text NOT NULL,
  created_at timestamptz NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS documents (
  document_id uuid PRIMARY KEY,
  owner_id uuid NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
  title text NOT NULL,
  kind text NOT NULL,
  content text,
  paper_id uuid REFERENCES papers(paper_id) ON DELETE SET NULL,
  created_at timestamptz NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS review_runs (
  review_run_id uuid PRIMARY KEY,
  workspace_id uuid NOT NULL REFERENCES workspaces(workspace_id) ON DELETE CASCADE,
  status text NOT NULL,
  document_id uuid,
  created_at timestamptz NOT NULL DEFAULT NOW(),
  updated_at timestamptz NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS llm_calls (
  call_id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
  operation text NOT NULL,
  workspace_id uuid,
  paper_id text,
  provider_name text,
  model text,
  request_id text,
  status text NOT NULL,
  error_type text,
  created_at timestamptz NOT NULL DEFAULT NOW()
)`,
}

// Migrate applies the idempotent DDL. Safe to run at every startup.
func Migrate(ctx context.Context, db *DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

package models

import "time"

type User struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

type Workspace struct {
	WorkspaceID string    `json:"workspace_id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	PaperCount  int       `json:"paper_count,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Paper struct {
	PaperID    string    `json:"paper_id"`
	OwnerID    string    `json:"owner_id"`
	Title      string    `json:"title"`
	Authors    []string  `json:"authors,omitempty"`
	Abstract   string    `json:"abstract,omitempty"`
	Source     string    `json:"source"`
	ExternalID string    `json:"external_id,omitempty"`
	URL        string    `json:"url,omitempty"`
	PDFURL     string    `json:"pdf_url,omitempty"`
	Published  string    `json:"published,omitempty"`
	FullText   string    `json:"full_text,omitempty"`
	AISummary  string    `json:"ai_summary,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PaperMeta is a search hit from an external catalog before import.
type PaperMeta struct {
	Title      string   `json:"title"`
	Authors    []string `json:"authors,omitempty"`
	Abstract   string   `json:"abstract,omitempty"`
	Source     string   `json:"source"`
	ExternalID string   `json:"external_id"`
	URL        string   `json:"url,omitempty"`
	PDFURL     string   `json:"pdf_url,omitempty"`
	Published  string   `json:"published,omitempty"`
}

type ChatMessage struct {
	MessageID   string    `json:"message_id"`
	WorkspaceID string    `json:"workspace_id"`
	OwnerID     string    `json:"owner_id"`
	Role        string    `json:"role"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}

type Document struct {
	DocumentID string    `json:"document_id"`
	OwnerID    string    `json:"owner_id"`
	Title      string    `json:"title"`
	Kind       string    `json:"kind"`
	Content    string    `json:"content,omitempty"`
	PaperID    string    `json:"paper_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type DashboardStats struct {
	Papers         int `json:"papers"`
	EmbeddedPapers int `json:"embedded_papers"`
	Workspaces     int `json:"workspaces"`
	Documents      int `json:"documents"`
	ChatMessages   int `json:"chat_messages"`
}

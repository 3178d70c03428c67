package activities

type EmbedPaperInput struct {
	Operation     string `json:"operation"`
	OwnerID       string `json:"owner_id"`
	PaperID       string `json:"paper_id"`
	ProviderIndex int    `json:"provider_index"`
}

type EmbedPaperOutput struct {
	Vector       []float32 `json:"vector"`
	ProviderName string    `json:"provider_name"`
	Model        string    `json:"model"`
}

type UpsertEmbeddingInput struct {
	PaperID string    `json:"paper_id"`
	Vector  []float32 `json:"vector"`
	Model   string    `json:"model"`
}

type EmbedQueryInput struct {
	Operation     string `json:"operation"`
	Text          string `json:"text"`
	ProviderIndex int    `json:"provider_index"`
}

type EmbedQueryOutput struct {
	Vector       []float32 `json:"vector"`
	ProviderName string    `json:"provider_name"`
	Model        string    `json:"model"`
}

type ListOwnerPapersInput struct {
	OwnerID string `json:"owner_id"`
}

type OwnerPaper struct {
	PaperID string `json:"paper_id"`
	Title   string `json:"title"`
}

type ListOwnerPapersOutput struct {
	Papers []OwnerPaper `json:"papers"`
}

type SearchWorkspaceInput struct {
	OwnerID     string    `json:"owner_id"`
	WorkspaceID string    `json:"workspace_id"`
	QueryVec    []float32 `json:"query_vec"`
	TopK        int       `json:"top_k"`
}

type WorkspaceMatch struct {
	PaperID string  `json:"paper_id"`
	Title   string  `json:"title"`
	Score   float64 `json:"score"`
}

type SearchWorkspaceOutput struct {
	Results []WorkspaceMatch `json:"results"`
}

type ListPapersByIDsInput struct {
	OwnerID  string   `json:"owner_id"`
	PaperIDs []string `json:"paper_ids"`
}

type ReviewPaper struct {
	PaperID  string   `json:"paper_id"`
	Title    string   `json:"title"`
	Authors  []string `json:"authors,omitempty"`
	Abstract string   `json:"abstract,omitempty"`
}

type ListPapersByIDsOutput struct {
	Papers []ReviewPaper `json:"papers"`
}

type LLMGenerateInput struct {
	Operation     string   `json:"operation"`
	WorkspaceID   string   `json:"workspace_id"`
	PaperID       string   `json:"paper_id"`
	Prompt        string   `json:"prompt"`
	Context       []string `json:"context"`
	ProviderIndex int      `json:"provider_index"`
}

type LLMGenerateOutput struct {
	Text         string `json:"text"`
	ProviderName string `json:"provider_name"`
	Model        string `json:"model"`
}

type LogLLMCallInput struct {
	CallID       string `json:"call_id"`
	Operation    string `json:"operation"`
	WorkspaceID  string `json:"workspace_id"`
	PaperID      string `json:"paper_id"`
	ProviderName string `json:"provider_name"`
	Model        string `json:"model"`
	RequestID    string `json:"request_id"`
	Status       string `json:"status"`
	ErrorType    string `json:"error_type"`
}

type SaveReviewDocumentInput struct {
	OwnerID     string `json:"owner_id"`
	WorkspaceID string `json:"workspace_id"`
	ReviewRunID string `json:"review_run_id"`
	Title       string `json:"title"`
	Markdown    string `json:"markdown"`
}

type SaveReviewDocumentOutput struct {
	DocumentID string `json:"document_id"`
	OutPath    string `json:"out_path"`
}

type UpdateReviewRunInput struct {
	ReviewRunID string `json:"review_run_id"`
	Status      string `json:"status"`
	DocumentID  string `json:"document_id"`
}

type WriteRunManifestInput struct {
	OwnerID  string         `json:"owner_id"`
	RunID    string         `json:"run_id"`
	Manifest map[string]any `json:"manifest"`
}

type WriteRunManifestOutput struct {
	Path string `json:"path"`
}

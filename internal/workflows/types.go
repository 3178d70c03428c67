package workflows

type EmbedPaperInput struct {
	OwnerID         string `json:"owner_id"`
	PaperID         string `json:"paper_id"`
	EmbedProviders  int    `json:"embed_providers"`
	CooldownSeconds int    `json:"cooldown_seconds"`
}

type ReembedLibraryInput struct {
	OwnerID               string `json:"owner_id"`
	MaxConcurrentChildren int    `json:"max_concurrent_children"`
	EmbedProviders        int    `json:"embed_providers"`
	CooldownSeconds       int    `json:"cooldown_seconds"`
}

type ReembedProgress struct {
	OwnerID  string            `json:"owner_id"`
	Total    int               `json:"total"`
	Done     int               `json:"done"`
	Failed   int               `json:"failed"`
	PerPaper map[string]string `json:"per_paper_status"`
}

type ReviewBuildInput struct {
	ReviewRunID     string   `json:"review_run_id"`
	WorkspaceID     string   `json:"workspace_id"`
	OwnerID         string   `json:"owner_id"`
	Topics          []string `json:"topics"`
	RetrievalTopK   int      `json:"retrieval_top_k,omitempty"`
	EmbedProviders  int      `json:"embed_providers"`
	LLMProviders    int      `json:"llm_providers"`
	CooldownSeconds int      `json:"cooldown_seconds"`
}

type ReviewProgress struct {
	ReviewRunID string            `json:"review_run_id"`
	WorkspaceID string            `json:"workspace_id"`
	TotalTopics int               `json:"total_topics"`
	DoneTopics  int               `json:"done_topics"`
	TopicStatus map[string]string `json:"topic_status"`
}

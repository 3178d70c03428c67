package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"researchhub/internal/config"
	"researchhub/internal/providers"
	"researchhub/internal/retrieval"
	"researchhub/internal/sources"
	"researchhub/internal/storage"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	tclient "go.temporal.io/sdk/client"
)

type Server struct {
	cfg              config.Config
	log              logr.Logger
	db               *storage.DB
	userRepo         *storage.UserRepo
	workspaceRepo    *storage.WorkspaceRepo
	paperRepo        *storage.PaperRepo
	embeddingRepo    *storage.EmbeddingRepo
	conversationRepo *storage.ConversationRepo
	documentRepo     *storage.DocumentRepo
	reviewRepo       *storage.ReviewRepo
	statsRepo        *storage.StatsRepo
	llmAuditRepo     *storage.LLMAuditRepo
	retrieval        *retrieval.Service
	catalog          *sources.Catalog
	providers        *providers.Manager
	temporal         tclient.Client
}

func NewServer(cfg config.Config, log logr.Logger) *Server {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := storage.NewDB(ctx, cfg.PostgresURL)
	if err != nil {
		panic(err)
	}
	pm, err := providers.NewManager(cfg)
	if err != nil {
		panic(err)
	}
	tc, err := tclient.Dial(tclient.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		panic(err)
	}
	embeddingRepo := storage.NewEmbeddingRepo(db)
	embedder := retrieval.NewEmbedder(cfg, log)
	return &Server{
		cfg:              cfg,
		log:              log,
		db:               db,
		userRepo:         storage.NewUserRepo(db),
		workspaceRepo:    storage.NewWorkspaceRepo(db),
		paperRepo:        storage.NewPaperRepo(db),
		embeddingRepo:    embeddingRepo,
		conversationRepo: storage.NewConversationRepo(db),
		documentRepo:     storage.NewDocumentRepo(db),
		reviewRepo:       storage.NewReviewRepo(db),
		statsRepo:        storage.NewStatsRepo(db),
		llmAuditRepo:     storage.NewLLMAuditRepo(db),
		retrieval:        retrieval.NewService(embedder, embeddingRepo, log, cfg.EmbedModel, cfg.SearchTopK, cfg.SearchMinScore),
		catalog:          sources.NewCatalog(),
		providers:        pm,
		temporal:         tc,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/users", s.handleUsers)
	mux.HandleFunc("/papers", s.handlePapers)
	mux.HandleFunc("/papers/", s.handlePapersScoped)
	mux.HandleFunc("/workspaces", s.handleWorkspaces)
	mux.HandleFunc("/workspaces/", s.handleWorkspacesScoped)
	mux.HandleFunc("/chat/", s.handleChatScoped)
	mux.HandleFunc("/upload/", s.handleUploadScoped)
	mux.HandleFunc("/dashboard/stats", s.handleDashboardStats)
	mux.HandleFunc("/library/reembed", s.handleReembed)
	return withCORS(mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// requestUserID reads the identity supplied by the fronting auth layer.
func requestUserID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.Header.Get("X-User-ID"))
	if id == "" {
		return "", fmt.Errorf("missing user identity")
	}
	return id, nil
}

// generateLLM prefers groq when configured, then walks the remaining
// providers in preferred order until one returns text.
func (s *Server) generateLLM(ctx context.Context, operation, prompt string, contexts []string) (providers.GenerateResponse, providers.ProviderInfo, error) {
	var (
		resp providers.GenerateResponse
		info providers.ProviderInfo
		err  error
	)
	if groqProvider, groqRef, ok := s.providers.FindLLMProviderByName("groq"); ok {
		resp, info, err = groqProvider.Generate(ctx, providers.GenerateRequest{
			Operation: operation,
			Prompt:    prompt,
			Context:   contexts,
		})
		if err == nil && strings.TrimSpace(resp.Text) != "" {
			info.Name = groqRef.Name
			return resp, info, nil
		}
	}
	for _, idx := range s.providers.PreferredLLMOrder() {
		p, _ := s.providers.LLMProviderByIndex(idx)
		resp, info, err = p.Generate(ctx, providers.GenerateRequest{
			Operation: operation,
			Prompt:    prompt,
			Context:   contexts,
		})
		if err == nil && strings.TrimSpace(resp.Text) != "" {
			return resp, info, nil
		}
	}
	if err == nil {
		err = fmt.Errorf("llm providers returned no text")
	}
	return resp, info, err
}

// auditLLMCall records the outcome of a synchronous LLM call. Audit failures
// are logged, never surfaced to the request.
func (s *Server) auditLLMCall(ctx context.Context, operation, workspaceID, paperID string, info providers.ProviderInfo, callErr error) {
	status := "ok"
	errType := ""
	if callErr != nil {
		status = "failed"
		errType = string(providers.ClassifyError(callErr))
	}
	if err := s.llmAuditRepo.Insert(ctx, storage.LLMCallRecord{
		CallID:       uuid.NewString(),
		Operation:    operation,
		WorkspaceID:  workspaceID,
		PaperID:      paperID,
		ProviderName: info.Name,
		Model:        info.Model,
		RequestID:    operation + "-" + uuid.NewString(),
		Status:       status,
		ErrorType:    errType,
	}); err != nil {
		s.log.Error(err, "audit llm call", "operation", operation)
	}
}

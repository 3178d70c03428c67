package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"researchhub/internal/assist"
	"researchhub/internal/models"
	"researchhub/internal/retrieval"
	"researchhub/internal/workflows"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	tclient "go.temporal.io/sdk/client"
)

func (s *Server) handlePapers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	ownerID, err := requestUserID(r)
	if err != nil {
		writeErr(w, http.StatusUnauthorized, err)
		return
	}
	var papers []models.Paper
	if workspaceID := strings.TrimSpace(r.URL.Query().Get("workspace_id")); workspaceID != "" {
		papers, err = s.paperRepo.ListByWorkspace(r.Context(), ownerID, workspaceID)
	} else {
		papers, err = s.paperRepo.ListByOwner(r.Context(), ownerID)
	}
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"papers": papers})
}

func (s *Server) handlePapersScoped(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/papers/"), "/"), "/")
	if len(parts) < 1 || parts[0] == "" {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}

	if len(parts) == 1 {
		switch parts[0] {
		case "search":
			s.handlePaperSearch(w, r)
			return
		case "import":
			s.handlePaperImport(w, r)
			return
		case "semantic-search":
			s.handleSemanticSearch(w, r)
			return
		case "ai-tools":
			s.handleAITools(w, r)
			return
		default:
			s.handlePaperByID(w, r, parts[0])
			return
		}
	}
	if len(parts) == 2 && parts[1] == "related" {
		s.handleRelated(w, r, parts[0])
		return
	}
	writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
}

// handlePaperSearch federates the query across the external catalogs.
func (s *Server) handlePaperSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	if _, err := requestUserID(r); err != nil {
		writeErr(w, http.StatusUnauthorized, err)
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("query is required"))
		return
	}
	source := r.URL.Query().Get("source")
	maxResults := queryInt(r, "max_results", 20)

	results, err := s.catalog.Search(r.Context(), query, source, maxResults)
	if err != nil {
		if strings.Contains(err.Error(), "unsupported source") {
			writeErr(w, http.StatusBadRequest, err)
			return
		}
		writeErr(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results, "count": len(results)})
}

// handlePaperImport saves a catalog hit into the library. Re-importing the
// same external id refreshes the stored metadata and its embedding instead of
// creating a duplicate row.
func (s *Server) handlePaperImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	ownerID, err := requestUserID(r)
	if err != nil {
		writeErr(w, http.StatusUnauthorized, err)
		return
	}
	var req struct {
		models.PaperMeta
		WorkspaceID string `json:"workspace_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Source = strings.ToLower(strings.TrimSpace(req.Source))
	if req.Title == "" || req.Source == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("title and source are required"))
		return
	}

	if req.ExternalID != "" {
		existing, found, err := s.paperRepo.FindByExternalID(r.Context(), ownerID, req.Source, req.ExternalID)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		if found {
			updated := existing
			updated.Title = req.Title
			updated.Authors = req.Authors
			updated.Abstract = req.Abstract
			updated.URL = req.URL
			updated.PDFURL = req.PDFURL
			updated.Published = req.Published
			if err := s.paperRepo.UpdateMetadata(r.Context(), updated); err != nil {
				writeErr(w, http.StatusInternalServerError, err)
				return
			}
			if metadataChanged(existing, updated) {
				if err := s.retrieval.RefreshEmbedding(r.Context(), updated); err != nil {
					s.log.Error(err, "refresh embedding on reimport", "paper_id", existing.PaperID)
				}
			}
			s.linkWorkspace(r, ownerID, req.WorkspaceID, existing.PaperID)
			writeJSON(w, http.StatusOK, map[string]any{"paper_id": existing.PaperID, "imported": false})
			return
		}
	}

	p := models.Paper{
		PaperID:    uuid.NewString(),
		OwnerID:    ownerID,
		Title:      req.Title,
		Authors:    req.Authors,
		Abstract:   req.Abstract,
		Source:     req.Source,
		ExternalID: req.ExternalID,
		URL:        req.URL,
		PDFURL:     req.PDFURL,
		Published:  req.Published,
	}
	if err := s.paperRepo.Create(r.Context(), p); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	s.startEmbedWorkflow(r.Context(), ownerID, p.PaperID)
	s.linkWorkspace(r, ownerID, req.WorkspaceID, p.PaperID)
	writeJSON(w, http.StatusCreated, map[string]any{"paper_id": p.PaperID, "imported": true})
}

func (s *Server) handlePaperByID(w http.ResponseWriter, r *http.Request, paperID string) {
	ownerID, err := requestUserID(r)
	if err != nil {
		writeErr(w, http.StatusUnauthorized, err)
		return
	}
	switch r.Method {
	case http.MethodGet:
		p, found, err := s.paperRepo.GetByID(r.Context(), ownerID, paperID)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		if !found {
			writeErr(w, http.StatusNotFound, fmt.Errorf("paper not found"))
			return
		}
		writeJSON(w, http.StatusOK, p)
	case http.MethodDelete:
		if err := s.paperRepo.Delete(r.Context(), ownerID, paperID); err != nil {
			writeErr(w, http.StatusNotFound, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
	default:
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
	}
}

// handleSemanticSearch ranks the whole library against the query. A library
// with nothing indexed yet returns an empty result, not an error; an
// unavailable embedding backend is a gateway failure.
func (s *Server) handleSemanticSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	ownerID, err := requestUserID(r)
	if err != nil {
		writeErr(w, http.StatusUnauthorized, err)
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("query is required"))
		return
	}
	topK := queryInt(r, "top_k", 0)

	matches, err := s.retrieval.GlobalSearch(r.Context(), ownerID, query, topK)
	if err != nil {
		if errors.Is(err, retrieval.ErrEmbeddingUnavailable) {
			writeErr(w, http.StatusBadGateway, err)
			return
		}
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": query, "matches": matches})
}

// handleRelated returns the nearest neighbors of a stored paper. A paper
// without a stored vector gets an explicit indexed=false response so the
// caller can distinguish "nothing similar" from "not yet searchable".
func (s *Server) handleRelated(w http.ResponseWriter, r *http.Request, paperID string) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	ownerID, err := requestUserID(r)
	if err != nil {
		writeErr(w, http.StatusUnauthorized, err)
		return
	}
	if _, found, err := s.paperRepo.GetByID(r.Context(), ownerID, paperID); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	} else if !found {
		writeErr(w, http.StatusNotFound, fmt.Errorf("paper not found"))
		return
	}

	topK := queryInt(r, "top_k", 0)
	matches, err := s.retrieval.Related(r.Context(), ownerID, paperID, topK)
	if err != nil {
		if errors.Is(err, retrieval.ErrNotIndexed) {
			writeJSON(w, http.StatusOK, map[string]any{"indexed": false, "related": []any{}})
			return
		}
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"indexed": true, "related": matches})
}

func (s *Server) handleAITools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	ownerID, err := requestUserID(r)
	if err != nil {
		writeErr(w, http.StatusUnauthorized, err)
		return
	}
	var req struct {
		Tool     string   `json:"tool"`
		PaperIDs []string `json:"paper_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	papers, err := s.paperRepo.ListByIDs(r.Context(), ownerID, req.PaperIDs)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	operation, prompt, err := assist.BuildToolPrompt(req.Tool, papers)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	resp, info, genErr := s.generateLLM(r.Context(), operation, prompt, nil)
	s.auditLLMCall(r.Context(), operation, "", firstPaperID(papers), info, genErr)
	if genErr != nil {
		writeErr(w, http.StatusBadGateway, fmt.Errorf("generation failed: %w", genErr))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tool":        req.Tool,
		"result":      strings.TrimSpace(resp.Text),
		"paper_count": len(papers),
		"provider":    info.Name,
		"model":       info.Model,
	})
}

func (s *Server) startEmbedWorkflow(ctx context.Context, ownerID, paperID string) {
	_, err := s.temporal.ExecuteWorkflow(ctx, tclient.StartWorkflowOptions{
		ID:                    "embed-" + paperID,
		TaskQueue:             s.cfg.TemporalTaskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
	}, workflows.EmbedPaperWorkflow, workflows.EmbedPaperInput{
		OwnerID:         ownerID,
		PaperID:         paperID,
		EmbedProviders:  s.providers.EmbedCount(),
		CooldownSeconds: s.cfg.ProviderCooldownSecs,
	})
	if err != nil {
		// Write paths never fail on indexing problems; the paper is saved
		// and can be re-indexed through /library/reembed.
		s.log.Error(err, "start embed workflow", "paper_id", paperID)
	}
}

// linkWorkspace attaches the paper when a workspace id accompanies the
// import. Link failures are logged; the import already succeeded.
func (s *Server) linkWorkspace(r *http.Request, ownerID, workspaceID, paperID string) {
	if strings.TrimSpace(workspaceID) == "" {
		return
	}
	_, found, err := s.workspaceRepo.Get(r.Context(), ownerID, workspaceID)
	if err != nil || !found {
		s.log.Info("skip workspace link", "workspace_id", workspaceID, "found", found)
		return
	}
	if err := s.workspaceRepo.AddPaper(r.Context(), workspaceID, paperID); err != nil {
		s.log.Error(err, "link workspace paper", "workspace_id", workspaceID, "paper_id", paperID)
	}
}

func metadataChanged(a, b models.Paper) bool {
	return a.Title != b.Title || a.Abstract != b.Abstract || !equalStrings(a.Authors, b.Authors)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func firstPaperID(papers []models.Paper) string {
	if len(papers) == 1 {
		return papers[0].PaperID
	}
	return ""
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

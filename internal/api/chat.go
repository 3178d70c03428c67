package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"researchhub/internal/assist"
	"researchhub/internal/models"
	"researchhub/internal/util"
	"researchhub/internal/vector"

	"github.com/google/uuid"
)

func (s *Server) handleChatScoped(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/chat/"), "/"), "/")
	if len(parts) == 1 && parts[0] == "message" {
		s.handleChatMessage(w, r)
		return
	}
	if len(parts) == 2 && parts[1] == "history" {
		s.handleChatHistory(w, r, parts[0])
		return
	}
	writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
}

// handleChatMessage answers a question grounded in the workspace's papers.
// Context comes from semantic search over the workspace; when the search
// returns nothing (or embedding is down) every workspace paper is offered
// unranked so the chat still has evidence to cite.
func (s *Server) handleChatMessage(w http.ResponseWriter, r *http.Request) {
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
		WorkspaceID string `json:"workspace_id"`
		Message     string `json:"message"`
		TopK        int    `json:"top_k"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	req.WorkspaceID = strings.TrimSpace(req.WorkspaceID)
	req.Message = strings.TrimSpace(req.Message)
	if req.WorkspaceID == "" || req.Message == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("workspace_id and message are required"))
		return
	}
	if _, found, err := s.workspaceRepo.Get(r.Context(), ownerID, req.WorkspaceID); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	} else if !found {
		writeErr(w, http.StatusNotFound, fmt.Errorf("workspace not found"))
		return
	}

	history, err := s.conversationRepo.ListRecent(r.Context(), ownerID, req.WorkspaceID, s.cfg.ChatHistoryLimit)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	var contextPapers []models.Paper
	matches, searchErr := s.retrieval.WorkspaceSearch(r.Context(), ownerID, req.WorkspaceID, req.Message, req.TopK)
	if searchErr != nil {
		s.log.Error(searchErr, "workspace search for chat", "workspace_id", req.WorkspaceID)
	}
	if len(matches) > 0 {
		contextPapers, err = s.paperRepo.ListByIDs(r.Context(), ownerID, matchIDs(matches))
		contextPapers = orderByMatches(contextPapers, matches)
	} else {
		contextPapers, err = s.paperRepo.ListByWorkspace(r.Context(), ownerID, req.WorkspaceID)
	}
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	contexts := make([]string, 0, len(contextPapers))
	for i, p := range contextPapers {
		snippet := assist.PaperContext(i, p)
		if p.FullText != "" {
			if ev := util.DisplayEvidenceSnippet(p.FullText, req.Message, 420); ev != "" {
				snippet += "\nEvidence: " + ev
			}
		}
		contexts = append(contexts, snippet)
	}
	prompt := assist.BuildChatPrompt(req.Message, history)

	resp, info, genErr := s.generateLLM(r.Context(), "workspace_chat", prompt, contexts)
	s.auditLLMCall(r.Context(), "workspace_chat", req.WorkspaceID, "", info, genErr)
	if genErr != nil {
		writeErr(w, http.StatusBadGateway, fmt.Errorf("generation failed: %w", genErr))
		return
	}
	reply := strings.TrimSpace(resp.Text)

	userTurn := models.ChatMessage{
		MessageID:   uuid.NewString(),
		WorkspaceID: req.WorkspaceID,
		OwnerID:     ownerID,
		Role:        "user",
		Content:     req.Message,
	}
	assistantTurn := models.ChatMessage{
		MessageID:   uuid.NewString(),
		WorkspaceID: req.WorkspaceID,
		OwnerID:     ownerID,
		Role:        "assistant",
		Content:     reply,
	}
	if err := s.conversationRepo.Insert(r.Context(), userTurn); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if err := s.conversationRepo.Insert(r.Context(), assistantTurn); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"reply":          reply,
		"context_papers": contextPaperRefs(contextPapers, matches),
		"ranked":         len(matches) > 0,
		"provider":       info.Name,
		"model":          info.Model,
	})
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request, workspaceID string) {
	ownerID, err := requestUserID(r)
	if err != nil {
		writeErr(w, http.StatusUnauthorized, err)
		return
	}
	if _, found, err := s.workspaceRepo.Get(r.Context(), ownerID, workspaceID); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	} else if !found {
		writeErr(w, http.StatusNotFound, fmt.Errorf("workspace not found"))
		return
	}
	switch r.Method {
	case http.MethodGet:
		limit := queryInt(r, "limit", 50)
		messages, err := s.conversationRepo.ListRecent(r.Context(), ownerID, workspaceID, limit)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
	case http.MethodDelete:
		if err := s.conversationRepo.DeleteByWorkspace(r.Context(), ownerID, workspaceID); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"cleared": true})
	default:
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
	}
}

func matchIDs(matches []vector.Match) []string {
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.PaperID)
	}
	return ids
}

// orderByMatches re-sorts fetched papers into ranked order so the [P#]
// numbering the model sees follows descending similarity.
func orderByMatches(papers []models.Paper, matches []vector.Match) []models.Paper {
	byID := make(map[string]models.Paper, len(papers))
	for _, p := range papers {
		byID[p.PaperID] = p
	}
	out := make([]models.Paper, 0, len(papers))
	for _, m := range matches {
		if p, ok := byID[m.PaperID]; ok {
			out = append(out, p)
		}
	}
	return out
}

type chatPaperRef struct {
	Ref     string  `json:"ref"`
	PaperID string  `json:"paper_id"`
	Title   string  `json:"title"`
	Score   float64 `json:"score,omitempty"`
}

func contextPaperRefs(papers []models.Paper, matches []vector.Match) []chatPaperRef {
	scores := make(map[string]float64, len(matches))
	for _, m := range matches {
		scores[m.PaperID] = m.Score
	}
	refs := make([]chatPaperRef, 0, len(papers))
	for i, p := range papers {
		refs = append(refs, chatPaperRef{
			Ref:     fmt.Sprintf("P%d", i+1),
			PaperID: p.PaperID,
			Title:   p.Title,
			Score:   scores[p.PaperID],
		})
	}
	return refs
}

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"researchhub/internal/models"
	"researchhub/internal/workflows"

	"github.com/google/uuid"
	tclient "go.temporal.io/sdk/client"
)

func (s *Server) handleWorkspaces(w http.ResponseWriter, r *http.Request) {
	ownerID, err := requestUserID(r)
	if err != nil {
		writeErr(w, http.StatusUnauthorized, err)
		return
	}
	switch r.Method {
	case http.MethodGet:
		workspaces, err := s.workspaceRepo.ListByOwner(r.Context(), ownerID)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"workspaces": workspaces})
	case http.MethodPost:
		var req struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("name is required"))
			return
		}
		ws := models.Workspace{
			WorkspaceID: uuid.NewString(),
			OwnerID:     ownerID,
			Name:        req.Name,
			Description: strings.TrimSpace(req.Description),
		}
		if err := s.workspaceRepo.Create(r.Context(), ws); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"workspace_id": ws.WorkspaceID, "name": ws.Name})
	default:
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
	}
}

func (s *Server) handleWorkspacesScoped(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/workspaces/"), "/"), "/")
	if len(parts) < 1 || parts[0] == "" {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	ownerID, err := requestUserID(r)
	if err != nil {
		writeErr(w, http.StatusUnauthorized, err)
		return
	}
	workspaceID := parts[0]

	if len(parts) == 1 {
		s.handleWorkspaceByID(w, r, ownerID, workspaceID)
		return
	}
	switch parts[1] {
	case "papers":
		switch {
		case len(parts) == 2 && r.Method == http.MethodPost:
			s.handleWorkspaceAddPaper(w, r, ownerID, workspaceID)
		case len(parts) == 3 && r.Method == http.MethodDelete:
			s.handleWorkspaceRemovePaper(w, r, ownerID, workspaceID, parts[2])
		default:
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		}
	case "review":
		switch {
		case len(parts) == 2 && r.Method == http.MethodPost:
			s.handleReviewStart(w, r, ownerID, workspaceID)
		case len(parts) == 3 && r.Method == http.MethodGet:
			s.handleReviewStatus(w, r, parts[2])
		default:
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		}
	default:
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
	}
}

func (s *Server) handleWorkspaceByID(w http.ResponseWriter, r *http.Request, ownerID, workspaceID string) {
	switch r.Method {
	case http.MethodGet:
		ws, found, err := s.workspaceRepo.Get(r.Context(), ownerID, workspaceID)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		if !found {
			writeErr(w, http.StatusNotFound, fmt.Errorf("workspace not found"))
			return
		}
		writeJSON(w, http.StatusOK, ws)
	case http.MethodPut:
		var req struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("name is required"))
			return
		}
		if err := s.workspaceRepo.Update(r.Context(), ownerID, workspaceID, req.Name, strings.TrimSpace(req.Description)); err != nil {
			writeErr(w, http.StatusNotFound, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"updated": true})
	case http.MethodDelete:
		if err := s.workspaceRepo.Delete(r.Context(), ownerID, workspaceID); err != nil {
			writeErr(w, http.StatusNotFound, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
	default:
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
	}
}

func (s *Server) handleWorkspaceAddPaper(w http.ResponseWriter, r *http.Request, ownerID, workspaceID string) {
	var req struct {
		PaperID string `json:"paper_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	if _, found, err := s.workspaceRepo.Get(r.Context(), ownerID, workspaceID); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	} else if !found {
		writeErr(w, http.StatusNotFound, fmt.Errorf("workspace not found"))
		return
	}
	if _, found, err := s.paperRepo.GetByID(r.Context(), ownerID, req.PaperID); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	} else if !found {
		writeErr(w, http.StatusNotFound, fmt.Errorf("paper not found"))
		return
	}
	if err := s.workspaceRepo.AddPaper(r.Context(), workspaceID, req.PaperID); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"added": true})
}

func (s *Server) handleWorkspaceRemovePaper(w http.ResponseWriter, r *http.Request, ownerID, workspaceID, paperID string) {
	if _, found, err := s.workspaceRepo.Get(r.Context(), ownerID, workspaceID); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	} else if !found {
		writeErr(w, http.StatusNotFound, fmt.Errorf("workspace not found"))
		return
	}
	if err := s.workspaceRepo.RemovePaper(r.Context(), workspaceID, paperID); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"removed": true})
}

func (s *Server) handleReviewStart(w http.ResponseWriter, r *http.Request, ownerID, workspaceID string) {
	var req struct {
		Topics []string `json:"topics"`
		TopK   int      `json:"top_k"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	topics := make([]string, 0, len(req.Topics))
	for _, t := range req.Topics {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	if len(topics) == 0 {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("at least one topic is required"))
		return
	}
	if _, found, err := s.workspaceRepo.Get(r.Context(), ownerID, workspaceID); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	} else if !found {
		writeErr(w, http.StatusNotFound, fmt.Errorf("workspace not found"))
		return
	}

	runID := uuid.NewString()
	if err := s.reviewRepo.CreateRun(r.Context(), runID, workspaceID); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	we, err := s.temporal.ExecuteWorkflow(r.Context(), tclient.StartWorkflowOptions{
		ID:        "review-" + runID,
		TaskQueue: s.cfg.TemporalTaskQueue,
	}, workflows.ReviewBuildWorkflow, workflows.ReviewBuildInput{
		ReviewRunID:     runID,
		WorkspaceID:     workspaceID,
		OwnerID:         ownerID,
		Topics:          topics,
		RetrievalTopK:   req.TopK,
		EmbedProviders:  s.providers.EmbedCount(),
		LLMProviders:    s.providers.LLMCount(),
		CooldownSeconds: s.cfg.ProviderCooldownSecs,
	})
	if err != nil {
		writeErr(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"review_run_id": runID, "workflow_id": we.GetID(), "run_id": we.GetRunID()})
}

func (s *Server) handleReviewStatus(w http.ResponseWriter, r *http.Request, runID string) {
	var prog workflows.ReviewProgress
	resp, err := s.temporal.QueryWorkflow(r.Context(), "review-"+runID, "", workflows.QueryGetReviewProgress)
	if err != nil {
		// Closed workflows cannot be queried; fall back to the stored run.
		status, documentID, dbErr := s.reviewRepo.GetRun(r.Context(), runID)
		if dbErr != nil {
			writeErr(w, http.StatusNotFound, dbErr)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"review_run_id": runID, "status": status, "document_id": documentID})
		return
	}
	if err := resp.Get(&prog); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, prog)
}

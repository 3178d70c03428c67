package api

import (
	"fmt"
	"net/http"

	"researchhub/internal/workflows"

	enumspb "go.temporal.io/api/enums/v1"
	tclient "go.temporal.io/sdk/client"
)

func (s *Server) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	ownerID, err := requestUserID(r)
	if err != nil {
		writeErr(w, http.StatusUnauthorized, err)
		return
	}
	stats, err := s.statsRepo.ForOwner(r.Context(), ownerID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleReembed starts (POST) or inspects (GET) the library-wide re-embed.
func (s *Server) handleReembed(w http.ResponseWriter, r *http.Request) {
	ownerID, err := requestUserID(r)
	if err != nil {
		writeErr(w, http.StatusUnauthorized, err)
		return
	}
	switch r.Method {
	case http.MethodPost:
		we, err := s.temporal.ExecuteWorkflow(r.Context(), tclient.StartWorkflowOptions{
			ID:                                       "reembed-" + ownerID,
			TaskQueue:                                s.cfg.TemporalTaskQueue,
			WorkflowIDReusePolicy:                    enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
			WorkflowExecutionErrorWhenAlreadyStarted: true,
		}, workflows.ReembedLibraryWorkflow, workflows.ReembedLibraryInput{
			OwnerID:               ownerID,
			MaxConcurrentChildren: s.cfg.ReembedMaxChildren,
			EmbedProviders:        s.providers.EmbedCount(),
			CooldownSeconds:       s.cfg.ProviderCooldownSecs,
		})
		if err != nil {
			writeErr(w, http.StatusConflict, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{"workflow_id": we.GetID(), "run_id": we.GetRunID()})
	case http.MethodGet:
		var prog workflows.ReembedProgress
		resp, err := s.temporal.QueryWorkflow(r.Context(), "reembed-"+ownerID, "", workflows.QueryGetReembedProgress)
		if err != nil {
			writeErr(w, http.StatusNotFound, err)
			return
		}
		if err := resp.Get(&prog); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, prog)
	default:
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
	}
}

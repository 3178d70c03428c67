package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"researchhub/internal/assist"
	"researchhub/internal/ingest"
	"researchhub/internal/models"
	"researchhub/internal/util"

	"github.com/google/uuid"
)

func (s *Server) handleUploadScoped(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/upload/"), "/"), "/")
	switch {
	case len(parts) == 1 && parts[0] == "pdf":
		s.handleUploadPDF(w, r)
	case len(parts) == 1 && parts[0] == "notes":
		s.handleUploadNotes(w, r)
	case len(parts) == 1 && parts[0] == "documents":
		s.handleDocuments(w, r)
	case len(parts) == 2 && parts[0] == "documents":
		s.handleDocumentByID(w, r, parts[1])
	default:
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
	}
}

// handleUploadPDF ingests a PDF into the library: text extraction, a paper
// row with heuristic metadata, a document row holding the full text, a
// best-effort AI summary and a background embed.
func (s *Server) handleUploadPDF(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	ownerID, err := requestUserID(r)
	if err != nil {
		writeErr(w, http.StatusUnauthorized, err)
		return
	}
	if err := r.ParseMultipartForm(128 << 20); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("parse multipart: %w", err))
		return
	}

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		if single, ok := firstSingleFile(r.MultipartForm.File); ok {
			files = append(files, single)
		}
	}
	if len(files) == 0 || !strings.HasSuffix(strings.ToLower(files[0].Filename), ".pdf") {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("no files provided"))
		return
	}
	fh := files[0]

	uploadDir := filepath.Join(s.cfg.DataRoot, "uploads", ownerID)
	if err := util.EnsureDir(uploadDir); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	savedPath, err := saveUploadedFile(uploadDir, fh)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	text, err := ingest.ExtractText(savedPath, s.cfg.UploadMaxPages)
	if err != nil {
		if errors.Is(err, util.ErrNoExtractableText) {
			writeErr(w, http.StatusBadRequest, err)
			return
		}
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	heuristicTitle, authors := ingest.HeuristicTitleAndAuthors(text)
	if title == "" {
		title = heuristicTitle
	}
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(fh.Filename), filepath.Ext(fh.Filename))
	}

	p := models.Paper{
		PaperID:  uuid.NewString(),
		OwnerID:  ownerID,
		Title:    title,
		Authors:  authors,
		Abstract: util.DisplaySnippet(text, 1200),
		Source:   "upload",
		FullText: text,
	}
	if err := s.paperRepo.Create(r.Context(), p); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	docID := uuid.NewString()
	if err := s.documentRepo.Insert(r.Context(), models.Document{
		DocumentID: docID,
		OwnerID:    ownerID,
		Title:      title,
		Kind:       "pdf",
		Content:    text,
		PaperID:    p.PaperID,
	}); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	summary := s.summarizeUpload(r, p)
	s.startEmbedWorkflow(r.Context(), ownerID, p.PaperID)

	writeJSON(w, http.StatusCreated, map[string]any{
		"paper_id":    p.PaperID,
		"document_id": docID,
		"title":       title,
		"ai_summary":  summary,
	})
}

// summarizeUpload asks an LLM for a short summary of the new paper. Failures
// leave the summary empty; the upload itself already succeeded.
func (s *Server) summarizeUpload(r *http.Request, p models.Paper) string {
	operation, prompt, err := assist.BuildToolPrompt(assist.ToolSummarize, []models.Paper{p})
	if err != nil {
		return ""
	}
	resp, info, genErr := s.generateLLM(r.Context(), operation, prompt, nil)
	s.auditLLMCall(r.Context(), operation, "", p.PaperID, info, genErr)
	if genErr != nil {
		s.log.Error(genErr, "summarize upload", "paper_id", p.PaperID)
		return ""
	}
	summary := strings.TrimSpace(resp.Text)
	if summary == "" {
		return ""
	}
	if err := s.paperRepo.SetAISummary(r.Context(), p.PaperID, summary); err != nil {
		s.log.Error(err, "store ai summary", "paper_id", p.PaperID)
	}
	return summary
}

func (s *Server) handleUploadNotes(w http.ResponseWriter, r *http.Request) {
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
		Title   string `json:"title"`
		Content string `json:"content"`
		PaperID string `json:"paper_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Content = strings.TrimSpace(req.Content)
	if req.Title == "" || req.Content == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("title and content are required"))
		return
	}
	docID := uuid.NewString()
	if err := s.documentRepo.Insert(r.Context(), models.Document{
		DocumentID: docID,
		OwnerID:    ownerID,
		Title:      req.Title,
		Kind:       "note",
		Content:    req.Content,
		PaperID:    strings.TrimSpace(req.PaperID),
	}); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"document_id": docID, "title": req.Title})
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	ownerID, err := requestUserID(r)
	if err != nil {
		writeErr(w, http.StatusUnauthorized, err)
		return
	}
	docs, err := s.documentRepo.ListByOwner(r.Context(), ownerID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) handleDocumentByID(w http.ResponseWriter, r *http.Request, documentID string) {
	ownerID, err := requestUserID(r)
	if err != nil {
		writeErr(w, http.StatusUnauthorized, err)
		return
	}
	switch r.Method {
	case http.MethodGet:
		doc, found, err := s.documentRepo.Get(r.Context(), ownerID, documentID)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		if !found {
			writeErr(w, http.StatusNotFound, fmt.Errorf("document not found"))
			return
		}
		writeJSON(w, http.StatusOK, doc)
	case http.MethodDelete:
		if err := s.documentRepo.Delete(r.Context(), ownerID, documentID); err != nil {
			writeErr(w, http.StatusNotFound, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
	default:
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
	}
}

func saveUploadedFile(dstDir string, fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(dstDir, "upload-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
	}()

	if _, err := io.Copy(tmp, src); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	finalPath := filepath.Join(dstDir, filepath.Base(fh.Filename))
	if err := os.Rename(tmp.Name(), finalPath); err != nil {
		return "", fmt.Errorf("atomic move upload: %w", err)
	}
	return finalPath, nil
}

func firstSingleFile(m map[string][]*multipart.FileHeader) (*multipart.FileHeader, bool) {
	for _, v := range m {
		if len(v) > 0 {
			return v[0], true
		}
	}
	return nil, false
}

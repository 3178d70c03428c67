package activities

import (
	"context"
	"fmt"
	"math"
	"path/filepath"

	"researchhub/internal/config"
	"researchhub/internal/models"
	"researchhub/internal/providers"
	"researchhub/internal/retrieval"
	"researchhub/internal/storage"
	"researchhub/internal/util"
	"researchhub/internal/vector"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
)

type Activities struct {
	cfg           config.Config
	log           logr.Logger
	paperRepo     *storage.PaperRepo
	embeddingRepo *storage.EmbeddingRepo
	documentRepo  *storage.DocumentRepo
	reviewRepo    *storage.ReviewRepo
	llmAuditRepo  *storage.LLMAuditRepo
	providers     *providers.Manager
}

func New(cfg config.Config, db *storage.DB, log logr.Logger) (*Activities, error) {
	pm, err := providers.NewManager(cfg)
	if err != nil {
		return nil, err
	}
	return &Activities{
		cfg:           cfg,
		log:           log,
		paperRepo:     storage.NewPaperRepo(db),
		embeddingRepo: storage.NewEmbeddingRepo(db),
		documentRepo:  storage.NewDocumentRepo(db),
		reviewRepo:    storage.NewReviewRepo(db),
		llmAuditRepo:  storage.NewLLMAuditRepo(db),
		providers:     pm,
	}, nil
}

// EmbedPaperActivity loads the paper, composes its embedding text and embeds
// it with the selected provider. The vector is normalized before it leaves
// the activity so every stored embedding is unit-norm.
func (a *Activities) EmbedPaperActivity(ctx context.Context, in EmbedPaperInput) (EmbedPaperOutput, error) {
	p, ok, err := a.paperRepo.GetByID(ctx, in.OwnerID, in.PaperID)
	if err != nil {
		return EmbedPaperOutput{}, err
	}
	if !ok {
		return EmbedPaperOutput{}, fmt.Errorf("paper %s not found", in.PaperID)
	}
	text := retrieval.ComposeText(p)
	if text == "" {
		return EmbedPaperOutput{}, fmt.Errorf("paper %s has no embeddable text", in.PaperID)
	}

	provider, _ := a.providers.EmbedProviderByIndex(in.ProviderIndex)
	vecs, info, err := provider.Embed(ctx, providers.EmbedRequest{
		Operation: in.Operation,
		Inputs:    []string{text},
		Dimension: a.cfg.EmbedDim,
	})
	if err != nil {
		return EmbedPaperOutput{}, err
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return EmbedPaperOutput{}, fmt.Errorf("embedding provider returned empty vectors")
	}
	return EmbedPaperOutput{
		Vector:       vector.Normalize(vecs[0]),
		ProviderName: info.Name,
		Model:        info.Model,
	}, nil
}

func (a *Activities) UpsertEmbeddingActivity(ctx context.Context, in UpsertEmbeddingInput) error {
	model := in.Model
	if model == "" {
		model = a.cfg.EmbedModel
	}
	return a.embeddingRepo.Upsert(ctx, in.PaperID, in.Vector, model)
}

func (a *Activities) EmbedQueryActivity(ctx context.Context, in EmbedQueryInput) (EmbedQueryOutput, error) {
	provider, _ := a.providers.EmbedProviderByIndex(in.ProviderIndex)
	vecs, info, err := provider.Embed(ctx, providers.EmbedRequest{
		Operation: in.Operation,
		Inputs:    []string{in.Text},
		Dimension: a.cfg.EmbedDim,
	})
	if err != nil {
		return EmbedQueryOutput{}, err
	}
	if len(vecs) == 0 {
		return EmbedQueryOutput{}, fmt.Errorf("embedding provider returned empty vectors")
	}
	return EmbedQueryOutput{Vector: vector.Normalize(vecs[0]), ProviderName: info.Name, Model: info.Model}, nil
}

func (a *Activities) ListOwnerPapersActivity(ctx context.Context, in ListOwnerPapersInput) (ListOwnerPapersOutput, error) {
	papers, err := a.paperRepo.ListByOwner(ctx, in.OwnerID)
	if err != nil {
		return ListOwnerPapersOutput{}, err
	}
	out := ListOwnerPapersOutput{Papers: make([]OwnerPaper, 0, len(papers))}
	for _, p := range papers {
		out.Papers = append(out.Papers, OwnerPaper{PaperID: p.PaperID, Title: p.Title})
	}
	return out, nil
}

func (a *Activities) SearchWorkspaceActivity(ctx context.Context, in SearchWorkspaceInput) (SearchWorkspaceOutput, error) {
	candidates, err := a.embeddingRepo.CandidatesByWorkspace(ctx, in.OwnerID, in.WorkspaceID)
	if err != nil {
		return SearchWorkspaceOutput{}, err
	}
	topK := in.TopK
	if topK <= 0 {
		topK = a.cfg.SearchTopK
	}
	// Workspace ranking is unthresholded, matching the retrieval service.
	matches := vector.Rank(a.log, in.QueryVec, candidates, topK, math.Inf(-1))
	out := SearchWorkspaceOutput{Results: make([]WorkspaceMatch, 0, len(matches))}
	for _, m := range matches {
		out.Results = append(out.Results, WorkspaceMatch{PaperID: m.PaperID, Title: m.Title, Score: m.Score})
	}
	return out, nil
}

func (a *Activities) ListPapersByIDsActivity(ctx context.Context, in ListPapersByIDsInput) (ListPapersByIDsOutput, error) {
	papers, err := a.paperRepo.ListByIDs(ctx, in.OwnerID, in.PaperIDs)
	if err != nil {
		return ListPapersByIDsOutput{}, err
	}
	out := ListPapersByIDsOutput{Papers: make([]ReviewPaper, 0, len(papers))}
	for _, p := range papers {
		out.Papers = append(out.Papers, ReviewPaper{
			PaperID:  p.PaperID,
			Title:    p.Title,
			Authors:  p.Authors,
			Abstract: p.Abstract,
		})
	}
	return out, nil
}

func (a *Activities) LLMGenerateActivity(ctx context.Context, in LLMGenerateInput) (LLMGenerateOutput, error) {
	provider, ref := a.providers.LLMProviderByIndex(in.ProviderIndex)
	resp, info, err := provider.Generate(ctx, providers.GenerateRequest{
		Operation: in.Operation,
		Prompt:    in.Prompt,
		Context:   in.Context,
	})
	if err != nil {
		return LLMGenerateOutput{}, fmt.Errorf("llm generate via %s failed: %w", ref.Raw, err)
	}
	return LLMGenerateOutput{
		Text:         resp.Text,
		ProviderName: info.Name,
		Model:        info.Model,
	}, nil
}

func (a *Activities) LogLLMCallActivity(ctx context.Context, in LogLLMCallInput) error {
	return a.llmAuditRepo.Insert(ctx, storage.LLMCallRecord{
		CallID:       in.CallID,
		Operation:    in.Operation,
		WorkspaceID:  in.WorkspaceID,
		PaperID:      in.PaperID,
		ProviderName: in.ProviderName,
		Model:        in.Model,
		RequestID:    in.RequestID,
		Status:       in.Status,
		ErrorType:    in.ErrorType,
	})
}

// SaveReviewDocumentActivity stores the review as a document row and also
// writes the markdown under the data root for direct download.
func (a *Activities) SaveReviewDocumentActivity(ctx context.Context, in SaveReviewDocumentInput) (SaveReviewDocumentOutput, error) {
	docID := uuid.NewString()
	if err := a.documentRepo.Insert(ctx, models.Document{
		DocumentID: docID,
		OwnerID:    in.OwnerID,
		Title:      in.Title,
		Kind:       "review",
		Content:    in.Markdown,
	}); err != nil {
		return SaveReviewDocumentOutput{}, err
	}
	outPath := filepath.Join(a.cfg.DataRoot, "reviews", in.WorkspaceID, in.ReviewRunID+".md")
	if err := util.WriteTextAtomic(outPath, in.Markdown); err != nil {
		return SaveReviewDocumentOutput{}, err
	}
	return SaveReviewDocumentOutput{DocumentID: docID, OutPath: outPath}, nil
}

func (a *Activities) UpdateReviewRunActivity(ctx context.Context, in UpdateReviewRunInput) error {
	return a.reviewRepo.UpdateRunStatus(ctx, in.ReviewRunID, in.Status, in.DocumentID)
}

func (a *Activities) WriteRunManifestActivity(ctx context.Context, in WriteRunManifestInput) (WriteRunManifestOutput, error) {
	_ = ctx
	path := filepath.Join(a.cfg.DataRoot, "runs", in.OwnerID, in.RunID, "manifest.json")
	if err := util.WriteJSONAtomic(path, in.Manifest); err != nil {
		return WriteRunManifestOutput{}, err
	}
	return WriteRunManifestOutput{Path: path}, nil
}

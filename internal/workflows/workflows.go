package workflows

import (
	"fmt"
	"strings"
	"time"

	"researchhub/internal/activities"
	"researchhub/internal/assist"
	"researchhub/internal/providers"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	QueryGetReembedProgress = "GetReembedProgress"
	QueryGetReviewProgress  = "GetReviewProgress"
)

type providerState struct {
	disabledUntil map[int]time.Time
	retries       map[string]int
}

func newProviderState() providerState {
	return providerState{disabledUntil: map[int]time.Time{}, retries: map[string]int{}}
}

// EmbedPaperWorkflow indexes one paper: embed with provider failover, then
// store the vector. Started fire-and-forget from import and upload paths.
func EmbedPaperWorkflow(ctx workflow.Context, input EmbedPaperInput) (string, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    20 * time.Second,
			MaximumAttempts:    2,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	cooldown := durationOrDefault(input.CooldownSeconds, 900)
	providerCount := defaultCount(input.EmbedProviders)
	state := newProviderState()

	embedOut, err := callEmbedPaperWithFailover(ctx, &state, providerCount, cooldown, activities.EmbedPaperInput{
		Operation: "paper_embed",
		OwnerID:   input.OwnerID,
		PaperID:   input.PaperID,
	})
	if err != nil {
		return "failed", err
	}
	if err := workflow.ExecuteActivity(ctx, "UpsertEmbeddingActivity", activities.UpsertEmbeddingInput{
		PaperID: input.PaperID,
		Vector:  embedOut.Vector,
		Model:   embedOut.Model,
	}).Get(ctx, nil); err != nil {
		return "failed", err
	}
	return "indexed", nil
}

// ReembedLibraryWorkflow re-indexes every paper the owner has, in bounded
// batches of child workflows. Used after an embedding model change.
func ReembedLibraryWorkflow(ctx workflow.Context, input ReembedLibraryInput) (string, error) {
	progress := ReembedProgress{OwnerID: input.OwnerID, PerPaper: map[string]string{}}
	if err := workflow.SetQueryHandler(ctx, QueryGetReembedProgress, func() (ReembedProgress, error) {
		return progress, nil
	}); err != nil {
		return "", err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    20 * time.Second,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var listOut activities.ListOwnerPapersOutput
	if err := workflow.ExecuteActivity(ctx, "ListOwnerPapersActivity", activities.ListOwnerPapersInput{OwnerID: input.OwnerID}).Get(ctx, &listOut); err != nil {
		return "", err
	}
	progress.Total = len(listOut.Papers)

	maxChildren := input.MaxConcurrentChildren
	if maxChildren <= 0 {
		maxChildren = 3
	}

	for i := 0; i < len(listOut.Papers); i += maxChildren {
		end := i + maxChildren
		if end > len(listOut.Papers) {
			end = len(listOut.Papers)
		}
		futures := make([]workflow.ChildWorkflowFuture, 0, end-i)
		ids := make([]string, 0, end-i)
		for _, p := range listOut.Papers[i:end] {
			progress.PerPaper[p.PaperID] = "embedding"
			cwo := workflow.ChildWorkflowOptions{WorkflowID: "embed-" + p.PaperID}
			childCtx := workflow.WithChildOptions(ctx, cwo)
			f := workflow.ExecuteChildWorkflow(childCtx, EmbedPaperWorkflow, EmbedPaperInput{
				OwnerID:         input.OwnerID,
				PaperID:         p.PaperID,
				EmbedProviders:  input.EmbedProviders,
				CooldownSeconds: input.CooldownSeconds,
			})
			futures = append(futures, f)
			ids = append(ids, p.PaperID)
		}
		for idx, f := range futures {
			var childStatus string
			if err := f.Get(ctx, &childStatus); err != nil {
				progress.Failed++
				progress.PerPaper[ids[idx]] = "failed"
				continue
			}
			progress.Done++
			progress.PerPaper[ids[idx]] = childStatus
		}
	}

	info := workflow.GetInfo(ctx)
	var manifestOut activities.WriteRunManifestOutput
	_ = workflow.ExecuteActivity(ctx, "WriteRunManifestActivity", activities.WriteRunManifestInput{
		OwnerID: input.OwnerID,
		RunID:   info.WorkflowExecution.RunID,
		Manifest: map[string]any{
			"owner_id":         input.OwnerID,
			"total":            progress.Total,
			"done":             progress.Done,
			"failed":           progress.Failed,
			"per_paper_status": progress.PerPaper,
			"generated_at":     workflow.Now(ctx),
		},
	}).Get(ctx, &manifestOut)

	return "completed", nil
}

// ReviewBuildWorkflow drafts a literature review for a workspace: per topic,
// embed the topic, retrieve the closest workspace papers, and generate a
// section grounded in them. The finished markdown is saved as a document.
func ReviewBuildWorkflow(ctx workflow.Context, input ReviewBuildInput) (string, error) {
	progress := ReviewProgress{
		ReviewRunID: input.ReviewRunID,
		WorkspaceID: input.WorkspaceID,
		TotalTopics: len(input.Topics),
		TopicStatus: map[string]string{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetReviewProgress, func() (ReviewProgress, error) {
		return progress, nil
	}); err != nil {
		return "", err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    2,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)
	_ = workflow.ExecuteActivity(ctx, "UpdateReviewRunActivity", activities.UpdateReviewRunInput{ReviewRunID: input.ReviewRunID, Status: "running"}).Get(ctx, nil)

	embedProviders := defaultCount(input.EmbedProviders)
	llmProviders := defaultCount(input.LLMProviders)
	cooldown := durationOrDefault(input.CooldownSeconds, 900)
	topK := input.RetrievalTopK
	if topK <= 0 {
		topK = 8
	}
	embedState := newProviderState()
	llmState := newProviderState()

	report := strings.Builder{}
	report.WriteString("# Literature Review\n\n")

	for _, topic := range input.Topics {
		progress.TopicStatus[topic] = "retrieving"
		eq, err := callEmbedQueryWithFailover(ctx, &embedState, embedProviders, cooldown, activities.EmbedQueryInput{Operation: "review_topic_embed", Text: topic})
		if err != nil {
			progress.TopicStatus[topic] = "failed"
			continue
		}
		var retrieved activities.SearchWorkspaceOutput
		if err := workflow.ExecuteActivity(ctx, "SearchWorkspaceActivity", activities.SearchWorkspaceInput{
			OwnerID:     input.OwnerID,
			WorkspaceID: input.WorkspaceID,
			QueryVec:    eq.Vector,
			TopK:        topK,
		}).Get(ctx, &retrieved); err != nil {
			progress.TopicStatus[topic] = "failed"
			continue
		}

		ids := make([]string, 0, len(retrieved.Results))
		for _, m := range retrieved.Results {
			ids = append(ids, m.PaperID)
		}
		var papers activities.ListPapersByIDsOutput
		if len(ids) > 0 {
			if err := workflow.ExecuteActivity(ctx, "ListPapersByIDsActivity", activities.ListPapersByIDsInput{
				OwnerID:  input.OwnerID,
				PaperIDs: ids,
			}).Get(ctx, &papers); err != nil {
				progress.TopicStatus[topic] = "failed"
				continue
			}
		}
		progress.TopicStatus[topic] = "drafting"

		contextWindow := toPaperContext(papers.Papers)
		section, _, sectionErr := callLLMWithFailover(ctx, &llmState, llmProviders, cooldown, activities.LLMGenerateInput{
			Operation:   "review_section",
			WorkspaceID: input.WorkspaceID,
			Prompt:      assist.BuildReviewSectionPrompt(topic),
			Context:     contextWindow,
		})

		report.WriteString("## " + topic + "\n\n")
		if sectionErr != nil || strings.TrimSpace(section.Text) == "" {
			report.WriteString("No generated section text.\n\n")
		} else {
			report.WriteString(section.Text + "\n\n")
		}
		report.WriteString("### Papers\n")
		for _, m := range retrieved.Results {
			report.WriteString("- " + m.Title + " score=" + formatScore(m.Score) + "\n")
		}
		report.WriteString("\n")
		progress.TopicStatus[topic] = "done"
		progress.DoneTopics++
	}

	var saved activities.SaveReviewDocumentOutput
	if err := workflow.ExecuteActivity(ctx, "SaveReviewDocumentActivity", activities.SaveReviewDocumentInput{
		OwnerID:     input.OwnerID,
		WorkspaceID: input.WorkspaceID,
		ReviewRunID: input.ReviewRunID,
		Title:       "Literature Review " + input.ReviewRunID,
		Markdown:    report.String(),
	}).Get(ctx, &saved); err != nil {
		_ = workflow.ExecuteActivity(ctx, "UpdateReviewRunActivity", activities.UpdateReviewRunInput{ReviewRunID: input.ReviewRunID, Status: "failed"}).Get(ctx, nil)
		return "", err
	}
	_ = workflow.ExecuteActivity(ctx, "UpdateReviewRunActivity", activities.UpdateReviewRunInput{ReviewRunID: input.ReviewRunID, Status: "completed", DocumentID: saved.DocumentID}).Get(ctx, nil)
	return saved.DocumentID, nil
}

func callEmbedPaperWithFailover(ctx workflow.Context, state *providerState, providerCount int, cooldown time.Duration, input activities.EmbedPaperInput) (activities.EmbedPaperOutput, error) {
	var lastErr error
	for attempt := 0; attempt < providerCount*4; attempt++ {
		idx := attempt % providerCount
		if isProviderDisabled(ctx, state, idx) {
			continue
		}
		input.ProviderIndex = idx
		var out activities.EmbedPaperOutput
		err := workflow.ExecuteActivity(ctx, "EmbedPaperActivity", input).Get(ctx, &out)
		if err == nil {
			_ = workflow.ExecuteActivity(ctx, "LogLLMCallActivity", activities.LogLLMCallInput{
				Operation: input.Operation, PaperID: input.PaperID, ProviderName: out.ProviderName,
				Model: out.Model, RequestID: fmt.Sprintf("%s-%d", input.Operation, attempt), Status: "ok",
			}).Get(ctx, nil)
			return out, nil
		}
		lastErr = err
		errType := providers.ClassifyError(err)
		_ = workflow.ExecuteActivity(ctx, "LogLLMCallActivity", activities.LogLLMCallInput{
			Operation: input.Operation, PaperID: input.PaperID, ProviderName: fmt.Sprintf("provider-%d", idx),
			RequestID: fmt.Sprintf("%s-%d", input.Operation, attempt), Status: "failed", ErrorType: string(errType),
		}).Get(ctx, nil)
		key := fmt.Sprintf("embed-%d", idx)
		state.retries[key]++
		switch errType {
		case providers.ErrorQuota:
			disableProviderUntil(ctx, state, idx, cooldown)
		case providers.ErrorRate:
			if state.retries[key] <= 2 {
				workflow.Sleep(ctx, time.Duration(state.retries[key]*2)*time.Second)
				attempt--
			} else {
				disableProviderUntil(ctx, state, idx, 2*time.Minute)
			}
		case providers.ErrorTransient:
			if state.retries[key] <= 2 {
				workflow.Sleep(ctx, time.Duration(state.retries[key])*time.Second)
				attempt--
			}
		default:
			disableProviderUntil(ctx, state, idx, time.Minute)
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("all embed providers exhausted")
	}
	return activities.EmbedPaperOutput{}, lastErr
}

func callEmbedQueryWithFailover(ctx workflow.Context, state *providerState, providerCount int, cooldown time.Duration, input activities.EmbedQueryInput) (activities.EmbedQueryOutput, error) {
	var lastErr error
	for attempt := 0; attempt < providerCount*4; attempt++ {
		idx := attempt % providerCount
		if isProviderDisabled(ctx, state, idx) {
			continue
		}
		input.ProviderIndex = idx
		var out activities.EmbedQueryOutput
		err := workflow.ExecuteActivity(ctx, "EmbedQueryActivity", input).Get(ctx, &out)
		if err == nil {
			return out, nil
		}
		lastErr = err
		errType := providers.ClassifyError(err)
		key := fmt.Sprintf("eq-%d", idx)
		state.retries[key]++
		switch errType {
		case providers.ErrorQuota:
			disableProviderUntil(ctx, state, idx, cooldown)
		case providers.ErrorRate, providers.ErrorTransient:
			if state.retries[key] <= 2 {
				workflow.Sleep(ctx, time.Duration(state.retries[key])*time.Second)
				attempt--
			} else {
				disableProviderUntil(ctx, state, idx, 2*time.Minute)
			}
		default:
			disableProviderUntil(ctx, state, idx, time.Minute)
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("all embed query providers exhausted")
	}
	return activities.EmbedQueryOutput{}, lastErr
}

func callLLMWithFailover(ctx workflow.Context, state *providerState, providerCount int, cooldown time.Duration, input activities.LLMGenerateInput) (activities.LLMGenerateOutput, string, error) {
	var lastErr error
	for attempt := 0; attempt < providerCount*4; attempt++ {
		idx := attempt % providerCount
		if isProviderDisabled(ctx, state, idx) {
			continue
		}
		input.ProviderIndex = idx
		var out activities.LLMGenerateOutput
		err := workflow.ExecuteActivity(ctx, "LLMGenerateActivity", input).Get(ctx, &out)
		if err == nil {
			_ = workflow.ExecuteActivity(ctx, "LogLLMCallActivity", activities.LogLLMCallInput{
				Operation: input.Operation, WorkspaceID: input.WorkspaceID, PaperID: input.PaperID,
				ProviderName: out.ProviderName, Model: out.Model,
				RequestID: fmt.Sprintf("%s-%d", input.Operation, attempt), Status: "ok",
			}).Get(ctx, nil)
			return out, "", nil
		}
		lastErr = err
		errType := providers.ClassifyError(err)
		_ = workflow.ExecuteActivity(ctx, "LogLLMCallActivity", activities.LogLLMCallInput{
			Operation: input.Operation, WorkspaceID: input.WorkspaceID, PaperID: input.PaperID,
			ProviderName: fmt.Sprintf("provider-%d", idx),
			RequestID:    fmt.Sprintf("%s-%d", input.Operation, attempt), Status: "failed", ErrorType: string(errType),
		}).Get(ctx, nil)
		key := fmt.Sprintf("llm-%s-%d", input.Operation, idx)
		state.retries[key]++
		switch errType {
		case providers.ErrorQuota:
			disableProviderUntil(ctx, state, idx, cooldown)
		case providers.ErrorRate:
			if state.retries[key] <= 2 {
				workflow.Sleep(ctx, time.Duration(state.retries[key]*2)*time.Second)
				attempt--
			} else {
				disableProviderUntil(ctx, state, idx, 2*time.Minute)
			}
		case providers.ErrorTransient:
			if state.retries[key] <= 2 {
				workflow.Sleep(ctx, time.Duration(state.retries[key])*time.Second)
				attempt--
			}
		case providers.ErrorContext:
			return activities.LLMGenerateOutput{}, string(providers.ErrorContext), err
		default:
			disableProviderUntil(ctx, state, idx, time.Minute)
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("all llm providers exhausted")
	}
	return activities.LLMGenerateOutput{}, string(providers.ClassifyError(lastErr)), lastErr
}

func isProviderDisabled(ctx workflow.Context, state *providerState, idx int) bool {
	until, ok := state.disabledUntil[idx]
	if !ok {
		return false
	}
	return workflow.Now(ctx).Before(until)
}

func disableProviderUntil(ctx workflow.Context, state *providerState, idx int, d time.Duration) {
	state.disabledUntil[idx] = workflow.Now(ctx).Add(d)
}

func toPaperContext(papers []activities.ReviewPaper) []string {
	out := make([]string, 0, len(papers))
	for i, p := range papers {
		line := fmt.Sprintf("[P%d] %s", i+1, p.Title)
		if len(p.Authors) > 0 {
			line += " (" + strings.Join(p.Authors, ", ") + ")"
		}
		if strings.TrimSpace(p.Abstract) != "" {
			line += ": " + p.Abstract
		}
		out = append(out, line)
	}
	return out
}

func formatScore(v float64) string {
	return fmt.Sprintf("%.4f", v)
}

func durationOrDefault(seconds int, fallback int) time.Duration {
	if seconds <= 0 {
		seconds = fallback
	}
	return time.Duration(seconds) * time.Second
}

func defaultCount(n int) int {
	if n <= 0 {
		return 1
	}
	return n
}

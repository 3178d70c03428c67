package workflows

import (
	"context"
	"errors"
	"strings"
	"testing"

	"researchhub/internal/activities"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"
)

func registerReviewActivities(env *testsuite.TestWorkflowEnvironment) {
	registerActivityName(env, "UpdateReviewRunActivity", func(context.Context, activities.UpdateReviewRunInput) error { return nil })
	registerActivityName(env, "EmbedQueryActivity", func(context.Context, activities.EmbedQueryInput) (activities.EmbedQueryOutput, error) {
		return activities.EmbedQueryOutput{}, nil
	})
	registerActivityName(env, "SearchWorkspaceActivity", func(context.Context, activities.SearchWorkspaceInput) (activities.SearchWorkspaceOutput, error) {
		return activities.SearchWorkspaceOutput{}, nil
	})
	registerActivityName(env, "ListPapersByIDsActivity", func(context.Context, activities.ListPapersByIDsInput) (activities.ListPapersByIDsOutput, error) {
		return activities.ListPapersByIDsOutput{}, nil
	})
	registerActivityName(env, "LLMGenerateActivity", func(context.Context, activities.LLMGenerateInput) (activities.LLMGenerateOutput, error) {
		return activities.LLMGenerateOutput{}, nil
	})
	registerActivityName(env, "LogLLMCallActivity", func(context.Context, activities.LogLLMCallInput) error { return nil })
	registerActivityName(env, "SaveReviewDocumentActivity", func(context.Context, activities.SaveReviewDocumentInput) (activities.SaveReviewDocumentOutput, error) {
		return activities.SaveReviewDocumentOutput{}, nil
	})
}

func TestReviewBuildWorkflowSuccess(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(ReviewBuildWorkflow)
	registerReviewActivities(env)

	env.OnActivity("UpdateReviewRunActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("EmbedQueryActivity", mock.Anything, mock.Anything).Return(activities.EmbedQueryOutput{
		Vector: []float32{1, 0}, ProviderName: "mock", Model: "mock-embed",
	}, nil)
	env.OnActivity("SearchWorkspaceActivity", mock.Anything, mock.Anything).Return(activities.SearchWorkspaceOutput{
		Results: []activities.WorkspaceMatch{{PaperID: "p1", Title: "Attention Is All You Need", Score: 0.91}},
	}, nil)
	env.OnActivity("ListPapersByIDsActivity", mock.Anything, activities.ListPapersByIDsInput{OwnerID: "u1", PaperIDs: []string{"p1"}}).Return(activities.ListPapersByIDsOutput{
		Papers: []activities.ReviewPaper{{PaperID: "p1", Title: "Attention Is All You Need", Authors: []string{"Vaswani"}, Abstract: "transformers"}},
	}, nil)
	var savedMarkdown string
	env.OnActivity("LLMGenerateActivity", mock.Anything, mock.Anything).Return(activities.LLMGenerateOutput{
		Text: "Section text citing [P1].", ProviderName: "mock", Model: "mock-llm",
	}, nil)
	env.OnActivity("LogLLMCallActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("SaveReviewDocumentActivity", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		savedMarkdown = args.Get(1).(activities.SaveReviewDocumentInput).Markdown
	}).Return(activities.SaveReviewDocumentOutput{DocumentID: "doc1", OutPath: "/tmp/r.md"}, nil)

	env.ExecuteWorkflow(ReviewBuildWorkflow, ReviewBuildInput{
		ReviewRunID: "run1", WorkspaceID: "ws1", OwnerID: "u1",
		Topics: []string{"attention mechanisms"}, EmbedProviders: 1, LLMProviders: 1, CooldownSeconds: 10,
	})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var docID string
	require.NoError(t, env.GetWorkflowResult(&docID))
	require.Equal(t, "doc1", docID)
	require.True(t, strings.Contains(savedMarkdown, "## attention mechanisms"))
	require.True(t, strings.Contains(savedMarkdown, "Section text citing [P1]."))
	require.True(t, strings.Contains(savedMarkdown, "Attention Is All You Need"))

	qr, err := env.QueryWorkflow(QueryGetReviewProgress)
	require.NoError(t, err)
	var progress ReviewProgress
	require.NoError(t, qr.Get(&progress))
	require.Equal(t, 1, progress.TotalTopics)
	require.Equal(t, 1, progress.DoneTopics)
	require.Equal(t, "done", progress.TopicStatus["attention mechanisms"])
}

func TestReviewBuildWorkflowTopicEmbedFailureMarksTopicFailed(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(ReviewBuildWorkflow)
	registerReviewActivities(env)

	env.OnActivity("UpdateReviewRunActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("EmbedQueryActivity", mock.Anything, mock.Anything).Return(activities.EmbedQueryOutput{}, errors.New("quota exceeded"))
	env.OnActivity("LogLLMCallActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("SaveReviewDocumentActivity", mock.Anything, mock.Anything).Return(activities.SaveReviewDocumentOutput{DocumentID: "doc1"}, nil)

	env.ExecuteWorkflow(ReviewBuildWorkflow, ReviewBuildInput{
		ReviewRunID: "run1", WorkspaceID: "ws1", OwnerID: "u1",
		Topics: []string{"graph neural networks"}, EmbedProviders: 1, LLMProviders: 1, CooldownSeconds: 10,
	})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	qr, err := env.QueryWorkflow(QueryGetReviewProgress)
	require.NoError(t, err)
	var progress ReviewProgress
	require.NoError(t, qr.Get(&progress))
	require.Equal(t, 0, progress.DoneTopics)
	require.Equal(t, "failed", progress.TopicStatus["graph neural networks"])
}

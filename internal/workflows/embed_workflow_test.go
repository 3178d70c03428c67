package workflows

import (
	"context"
	"errors"
	"testing"

	"researchhub/internal/activities"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"
)

func registerActivityName[T any](env *testsuite.TestWorkflowEnvironment, name string, fn T) {
	env.RegisterActivityWithOptions(fn, activity.RegisterOptions{Name: name})
}

func TestEmbedPaperWorkflowSuccess(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(EmbedPaperWorkflow)
	registerActivityName(env, "EmbedPaperActivity", func(context.Context, activities.EmbedPaperInput) (activities.EmbedPaperOutput, error) {
		return activities.EmbedPaperOutput{}, nil
	})
	registerActivityName(env, "UpsertEmbeddingActivity", func(context.Context, activities.UpsertEmbeddingInput) error { return nil })
	registerActivityName(env, "LogLLMCallActivity", func(context.Context, activities.LogLLMCallInput) error { return nil })

	env.OnActivity("EmbedPaperActivity", mock.Anything, mock.Anything).Return(activities.EmbedPaperOutput{
		Vector:       []float32{0.6, 0.8},
		ProviderName: "mock",
		Model:        "mock-embed",
	}, nil)
	env.OnActivity("UpsertEmbeddingActivity", mock.Anything, activities.UpsertEmbeddingInput{
		PaperID: "p1",
		Vector:  []float32{0.6, 0.8},
		Model:   "mock-embed",
	}).Return(nil)
	env.OnActivity("LogLLMCallActivity", mock.Anything, mock.Anything).Return(nil)

	env.ExecuteWorkflow(EmbedPaperWorkflow, EmbedPaperInput{OwnerID: "u1", PaperID: "p1", EmbedProviders: 1, CooldownSeconds: 10})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "indexed", out)
}

func TestEmbedPaperWorkflowFailsAfterProviderExhaustion(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(EmbedPaperWorkflow)
	registerActivityName(env, "EmbedPaperActivity", func(context.Context, activities.EmbedPaperInput) (activities.EmbedPaperOutput, error) {
		return activities.EmbedPaperOutput{}, nil
	})
	registerActivityName(env, "UpsertEmbeddingActivity", func(context.Context, activities.UpsertEmbeddingInput) error { return nil })
	registerActivityName(env, "LogLLMCallActivity", func(context.Context, activities.LogLLMCallInput) error { return nil })

	env.OnActivity("EmbedPaperActivity", mock.Anything, mock.Anything).Return(activities.EmbedPaperOutput{}, errors.New("quota exceeded"))
	env.OnActivity("LogLLMCallActivity", mock.Anything, mock.Anything).Return(nil)

	env.ExecuteWorkflow(EmbedPaperWorkflow, EmbedPaperInput{OwnerID: "u1", PaperID: "p1", EmbedProviders: 1, CooldownSeconds: 10})
	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
}

func TestReembedLibraryWorkflowCountsChildren(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(ReembedLibraryWorkflow)
	env.RegisterWorkflow(EmbedPaperWorkflow)
	registerActivityName(env, "ListOwnerPapersActivity", func(context.Context, activities.ListOwnerPapersInput) (activities.ListOwnerPapersOutput, error) {
		return activities.ListOwnerPapersOutput{}, nil
	})
	registerActivityName(env, "EmbedPaperActivity", func(context.Context, activities.EmbedPaperInput) (activities.EmbedPaperOutput, error) {
		return activities.EmbedPaperOutput{}, nil
	})
	registerActivityName(env, "UpsertEmbeddingActivity", func(context.Context, activities.UpsertEmbeddingInput) error { return nil })
	registerActivityName(env, "LogLLMCallActivity", func(context.Context, activities.LogLLMCallInput) error { return nil })
	registerActivityName(env, "WriteRunManifestActivity", func(context.Context, activities.WriteRunManifestInput) (activities.WriteRunManifestOutput, error) {
		return activities.WriteRunManifestOutput{}, nil
	})

	env.OnActivity("ListOwnerPapersActivity", mock.Anything, activities.ListOwnerPapersInput{OwnerID: "u1"}).Return(activities.ListOwnerPapersOutput{
		Papers: []activities.OwnerPaper{
			{PaperID: "p1", Title: "one"},
			{PaperID: "p2", Title: "two"},
			{PaperID: "p3", Title: "three"},
		},
	}, nil)
	env.OnActivity("EmbedPaperActivity", mock.Anything, mock.Anything).Return(activities.EmbedPaperOutput{
		Vector: []float32{1, 0}, ProviderName: "mock", Model: "mock-embed",
	}, nil)
	env.OnActivity("UpsertEmbeddingActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("LogLLMCallActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("WriteRunManifestActivity", mock.Anything, mock.Anything).Return(activities.WriteRunManifestOutput{Path: "/tmp/m.json"}, nil)

	env.ExecuteWorkflow(ReembedLibraryWorkflow, ReembedLibraryInput{OwnerID: "u1", MaxConcurrentChildren: 2, EmbedProviders: 1, CooldownSeconds: 10})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "completed", out)

	qr, err := env.QueryWorkflow(QueryGetReembedProgress)
	require.NoError(t, err)
	var progress ReembedProgress
	require.NoError(t, qr.Get(&progress))
	require.Equal(t, 3, progress.Total)
	require.Equal(t, 3, progress.Done)
	require.Equal(t, 0, progress.Failed)
	require.Equal(t, "indexed", progress.PerPaper["p2"])
}

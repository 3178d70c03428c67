package activities

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker, a *Activities) {
	w.RegisterActivity(a.EmbedPaperActivity)
	w.RegisterActivity(a.UpsertEmbeddingActivity)
	w.RegisterActivity(a.EmbedQueryActivity)
	w.RegisterActivity(a.ListOwnerPapersActivity)
	w.RegisterActivity(a.SearchWorkspaceActivity)
	w.RegisterActivity(a.ListPapersByIDsActivity)
	w.RegisterActivity(a.LLMGenerateActivity)
	w.RegisterActivity(a.LogLLMCallActivity)
	w.RegisterActivity(a.SaveReviewDocumentActivity)
	w.RegisterActivity(a.UpdateReviewRunActivity)
	w.RegisterActivity(a.WriteRunManifestActivity)
}

package workflows

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker) {
	w.RegisterWorkflow(EmbedPaperWorkflow)
	w.RegisterWorkflow(ReembedLibraryWorkflow)
	w.RegisterWorkflow(ReviewBuildWorkflow)
}

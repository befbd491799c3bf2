package workflows

import "go.temporal.io/sdk/worker"

// Register registers every workflow on the worker.
func Register(w worker.Worker) {
	w.RegisterWorkflow(ScriptIngestWorkflow)
	w.RegisterWorkflow(SceneAnalysisWorkflow)
	w.RegisterWorkflow(SceneRetryWorkflow)
}

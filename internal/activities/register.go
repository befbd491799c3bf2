package activities

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker, a *Activities) {
	w.RegisterActivity(a.ExtractDocumentTextActivity)
	w.RegisterActivity(a.CompleteExtractionActivity)
	w.RegisterActivity(a.FailExtractionActivity)
	w.RegisterActivity(a.ParseScenesActivity)
	w.RegisterActivity(a.ListScenesActivity)
	w.RegisterActivity(a.BeginSceneActivity)
	w.RegisterActivity(a.AnalyzeSceneActivity)
	w.RegisterActivity(a.CompleteSceneActivity)
	w.RegisterActivity(a.SkipSceneActivity)
	w.RegisterActivity(a.RecordSceneFailureActivity)
	w.RegisterActivity(a.CheckBalanceActivity)
	w.RegisterActivity(a.ChargeSceneActivity)
	w.RegisterActivity(a.UpdateProjectStatusActivity)
	w.RegisterActivity(a.LogAnalysisCallActivity)
	w.RegisterActivity(a.WriteProjectSummaryActivity)
}

package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"sceneflow/internal/activities"
	"sceneflow/internal/models"
)

// ScriptIngestWorkflow is one extraction-queue job: it pulls text out of a
// heavy upload and parses it into the project's scene list. Temporal requeues
// the extraction activity with exponential backoff (1s base, factor 2, 3
// attempts); after the third failure the job row is marked failed for
// pollers. Extraction produces nothing but text, so requeued attempts are
// idempotent.
func ScriptIngestWorkflow(ctx workflow.Context, input ScriptIngestInput) (string, error) {
	extractCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2,
			MaximumAttempts:    3,
		},
	})
	// Persistence steps get their own short retries. Parsing runs under the
	// same options: the activity marks parse errors non-retryable itself, so
	// only its scene-row writes are requeued here.
	storeCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2,
			MaximumAttempts:    3,
		},
	})

	_ = workflow.ExecuteActivity(storeCtx, "UpdateProjectStatusActivity", activities.UpdateProjectStatusInput{
		ProjectID: input.ProjectID,
		Status:    models.ProjectExtracting,
	}).Get(ctx, nil)

	var extracted activities.ExtractDocumentTextOutput
	if err := workflow.ExecuteActivity(extractCtx, "ExtractDocumentTextActivity", activities.ExtractDocumentTextInput{
		JobID:     input.JobID,
		ProjectID: input.ProjectID,
		Path:      input.Path,
		Format:    input.Format,
	}).Get(ctx, &extracted); err != nil {
		_ = workflow.ExecuteActivity(storeCtx, "FailExtractionActivity", activities.FailExtractionInput{
			JobID:     input.JobID,
			ProjectID: input.ProjectID,
			Reason:    "text extraction failed after 3 attempts: " + err.Error(),
		}).Get(ctx, nil)
		return string(models.JobFailed), nil
	}

	var parsed activities.ParseScenesOutput
	if err := workflow.ExecuteActivity(storeCtx, "ParseScenesActivity", activities.ParseScenesInput{
		ProjectID: input.ProjectID,
		Text:      extracted.Text,
		Format:    input.Format,
	}).Get(ctx, &parsed); err != nil {
		_ = workflow.ExecuteActivity(storeCtx, "FailExtractionActivity", activities.FailExtractionInput{
			JobID:     input.JobID,
			ProjectID: input.ProjectID,
			Reason:    err.Error(),
		}).Get(ctx, nil)
		return string(models.JobFailed), nil
	}

	if err := workflow.ExecuteActivity(storeCtx, "CompleteExtractionActivity", activities.CompleteExtractionInput{
		JobID:               input.JobID,
		ProjectID:           input.ProjectID,
		Text:                extracted.Text,
		EstimatedSceneCount: extracted.EstimatedSceneCount,
	}).Get(ctx, nil); err != nil {
		return "", err
	}
	if err := workflow.ExecuteActivity(storeCtx, "UpdateProjectStatusActivity", activities.UpdateProjectStatusInput{
		ProjectID: input.ProjectID,
		Status:    models.ProjectReady,
	}).Get(ctx, nil); err != nil {
		return "", err
	}
	return string(models.JobCompleted), nil
}

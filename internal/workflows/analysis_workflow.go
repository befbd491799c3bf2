package workflows

import (
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"sceneflow/internal/activities"
	"sceneflow/internal/analysis"
	"sceneflow/internal/models"
	"sceneflow/internal/progress"
	"sceneflow/internal/screenplay"
)

const (
	// ProgressQuery returns the live progress snapshot for a running
	// analysis workflow.
	ProgressQuery = "GetProgress"
	// CancelSignal asks a running analysis workflow to stop after the
	// scene currently in flight.
	CancelSignal = "cancel-analysis"
)

func persistOptions(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2,
			MaximumAttempts:    3,
		},
	})
}

// analyzeOptions gives the model call a single attempt. The workflow owns
// scene retries so the retry count in the database is the one source of
// truth; letting Temporal retry underneath would double-count.
func analyzeOptions(ctx workflow.Context, timeoutSecs int) workflow.Context {
	if timeoutSecs <= 0 {
		timeoutSecs = 120
	}
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: time.Duration(timeoutSecs) * time.Second,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})
}

// SceneAnalysisWorkflow walks the project's scenes in order and drives each
// one through the analysis state machine. Scenes are processed strictly
// sequentially; progress is answerable at any time through ProgressQuery and
// the loop stops between scenes on CancelSignal or an insufficient balance.
func SceneAnalysisWorkflow(ctx workflow.Context, input AnalyzeInput) (progress.Snapshot, error) {
	logger := workflow.GetLogger(ctx)
	policy := defaultSceneRetryPolicy()
	persistCtx := persistOptions(ctx)

	var scenes []models.Scene
	if err := workflow.SetQueryHandler(ctx, ProgressQuery, func() (progress.Snapshot, error) {
		return progress.Derive(scenes), nil
	}); err != nil {
		return progress.Snapshot{}, err
	}
	cancelCh := workflow.GetSignalChannel(ctx, CancelSignal)
	canceled := false
	drainCancel := func() bool {
		for cancelCh.ReceiveAsync(nil) {
			canceled = true
		}
		return canceled
	}

	if err := workflow.ExecuteActivity(persistCtx, "UpdateProjectStatusActivity", activities.UpdateProjectStatusInput{
		ProjectID: input.ProjectID,
		Status:    models.ProjectAnalyzing,
	}).Get(ctx, nil); err != nil {
		return progress.Snapshot{}, err
	}

	var listed activities.ListScenesOutput
	if err := workflow.ExecuteActivity(persistCtx, "ListScenesActivity", activities.ListScenesInput{
		ProjectID: input.ProjectID,
	}).Get(ctx, &listed); err != nil {
		return progress.Snapshot{}, err
	}
	scenes = listed.Scenes

	for i := range scenes {
		if drainCancel() {
			break
		}
		sc := &scenes[i]
		if sc.Status == models.SceneCompleted || sc.Status == models.SceneSkipped {
			continue
		}
		if sc.Status == models.SceneError && policy.exhausted(sc.RetryCount) {
			continue
		}

		if len(strings.TrimSpace(sc.RawText)) < screenplay.MinSceneChars {
			if err := workflow.ExecuteActivity(persistCtx, "SkipSceneActivity", activities.SkipSceneInput{
				ProjectID:   input.ProjectID,
				SceneNumber: sc.SceneNumber,
			}).Get(ctx, nil); err != nil {
				return progress.Derive(scenes), err
			}
			sc.Status = models.SceneSkipped
			continue
		}

		halt, err := runScene(ctx, input, sc, len(scenes), policy)
		if err != nil {
			return progress.Derive(scenes), err
		}
		if halt {
			return progress.Derive(scenes), nil
		}
	}

	final := models.ProjectCompleted
	if canceled {
		final = models.ProjectCanceled
	}
	if err := workflow.ExecuteActivity(persistCtx, "UpdateProjectStatusActivity", activities.UpdateProjectStatusInput{
		ProjectID: input.ProjectID,
		Status:    final,
	}).Get(ctx, nil); err != nil {
		return progress.Derive(scenes), err
	}
	var summary activities.WriteProjectSummaryOutput
	if err := workflow.ExecuteActivity(persistCtx, "WriteProjectSummaryActivity", activities.WriteProjectSummaryInput{
		ProjectID: input.ProjectID,
	}).Get(ctx, &summary); err != nil {
		logger.Warn("summary write failed", "project_id", input.ProjectID, "error", err)
	}
	return progress.Derive(scenes), nil
}

// runScene drives a single scene to a terminal state. It returns halt=true
// when the whole loop must stop (the account ran out of credits). The scene
// struct is updated in place so the progress query sees live state.
func runScene(ctx workflow.Context, input AnalyzeInput, sc *models.Scene, total int, policy sceneRetryPolicy) (halt bool, err error) {
	logger := workflow.GetLogger(ctx)
	persistCtx := persistOptions(ctx)
	analyzeCtx := analyzeOptions(ctx, input.TimeoutSecs)

	failures := sc.RetryCount
	for {
		var bal activities.CheckBalanceOutput
		if err := workflow.ExecuteActivity(persistCtx, "CheckBalanceActivity", activities.CheckBalanceInput{
			AccountID: input.AccountID,
		}).Get(ctx, &bal); err != nil {
			return false, err
		}
		if !bal.Sufficient {
			logger.Info("halting analysis, balance exhausted",
				"project_id", input.ProjectID, "scene", sc.SceneNumber, "balance", bal.Balance)
			if err := workflow.ExecuteActivity(persistCtx, "UpdateProjectStatusActivity", activities.UpdateProjectStatusInput{
				ProjectID:  input.ProjectID,
				Status:     models.ProjectInsufficientBalance,
				FailReason: "account balance exhausted",
			}).Get(ctx, nil); err != nil {
				return false, err
			}
			return true, nil
		}

		if err := workflow.ExecuteActivity(persistCtx, "BeginSceneActivity", activities.BeginSceneInput{
			ProjectID:   input.ProjectID,
			SceneNumber: sc.SceneNumber,
		}).Get(ctx, nil); err != nil {
			return false, err
		}
		now := workflow.Now(ctx)
		sc.Status = models.SceneAnalyzing
		sc.StartedAt = &now

		var out activities.AnalyzeSceneOutput
		callErr := workflow.ExecuteActivity(analyzeCtx, "AnalyzeSceneActivity", activities.AnalyzeSceneInput{
			ProjectID:          input.ProjectID,
			SceneNumber:        sc.SceneNumber,
			TotalScenes:        total,
			SceneText:          sc.Header + "\n\n" + sc.RawText,
			VisualStyle:        input.VisualStyle,
			CustomInstructions: input.CustomInstructions,
			ProviderIndex:      failures % max(input.ProviderCount, 1),
		}).Get(ctx, &out)

		if callErr == nil {
			if err := workflow.ExecuteActivity(persistCtx, "CompleteSceneActivity", activities.CompleteSceneInput{
				ProjectID:   input.ProjectID,
				SceneNumber: sc.SceneNumber,
				Analysis:    out.Analysis,
			}).Get(ctx, nil); err != nil {
				return false, err
			}
			// One unit per completed scene, charged only after the
			// analysis validated and persisted.
			if err := workflow.ExecuteActivity(persistCtx, "ChargeSceneActivity", activities.ChargeSceneInput{
				AccountID:   input.AccountID,
				ProjectID:   input.ProjectID,
				SceneNumber: sc.SceneNumber,
			}).Get(ctx, nil); err != nil {
				return false, err
			}
			_ = workflow.ExecuteActivity(persistCtx, "LogAnalysisCallActivity", activities.LogAnalysisCallInput{
				ProjectID:    input.ProjectID,
				SceneNumber:  sc.SceneNumber,
				Attempt:      failures + 1,
				ProviderName: out.ProviderName,
				Model:        out.Model,
				Status:       "ok",
			}).Get(ctx, nil)
			done := workflow.Now(ctx)
			sc.Status = models.SceneCompleted
			sc.CompletedAt = &done
			sc.RetryCount = failures
			return false, nil
		}

		_ = workflow.ExecuteActivity(persistCtx, "LogAnalysisCallActivity", activities.LogAnalysisCallInput{
			ProjectID:   input.ProjectID,
			SceneNumber: sc.SceneNumber,
			Attempt:     failures + 1,
			Status:      "failed",
			ErrorType:   string(analysis.ClassifyError(callErr)),
			ErrorDetail: callErr.Error(),
		}).Get(ctx, nil)

		var rec activities.RecordSceneFailureOutput
		if err := workflow.ExecuteActivity(persistCtx, "RecordSceneFailureActivity", activities.RecordSceneFailureInput{
			ProjectID:   input.ProjectID,
			SceneNumber: sc.SceneNumber,
			Reason:      callErr.Error(),
		}).Get(ctx, &rec); err != nil {
			return false, err
		}
		failures = rec.RetryCount
		sc.Status = models.SceneError
		sc.RetryCount = failures

		if policy.exhausted(failures) {
			logger.Info("scene failed permanently",
				"project_id", input.ProjectID, "scene", sc.SceneNumber, "attempts", failures)
			return false, nil
		}
		if !input.AutoRetry {
			return false, nil
		}
		if err := workflow.Sleep(ctx, policy.pause(failures)); err != nil {
			return false, err
		}
	}
}

// SceneRetryWorkflow re-runs a single scene on demand, typically after the
// in-loop attempts were exhausted or AutoRetry was off. Custom instructions
// supplied here override the ones from the original run.
func SceneRetryWorkflow(ctx workflow.Context, input SceneRetryInput) (progress.Snapshot, error) {
	persistCtx := persistOptions(ctx)
	analyzeCtx := analyzeOptions(ctx, input.TimeoutSecs)

	var listed activities.ListScenesOutput
	if err := workflow.ExecuteActivity(persistCtx, "ListScenesActivity", activities.ListScenesInput{
		ProjectID: input.ProjectID,
	}).Get(ctx, &listed); err != nil {
		return progress.Snapshot{}, err
	}
	scenes := listed.Scenes
	var target *models.Scene
	for i := range scenes {
		if scenes[i].SceneNumber == input.SceneNumber {
			target = &scenes[i]
			break
		}
	}
	if target == nil {
		return progress.Snapshot{}, temporal.NewNonRetryableApplicationError(
			"scene not found", "NotFound", nil)
	}
	// The API gate enforces the same ceiling, but a directly started
	// execution must not get a fourth call on an exhausted scene.
	if defaultSceneRetryPolicy().exhausted(target.RetryCount) {
		return progress.Derive(scenes), temporal.NewNonRetryableApplicationError(
			"scene reached the attempt limit", "AttemptLimit", nil)
	}

	var bal activities.CheckBalanceOutput
	if err := workflow.ExecuteActivity(persistCtx, "CheckBalanceActivity", activities.CheckBalanceInput{
		AccountID: input.AccountID,
	}).Get(ctx, &bal); err != nil {
		return progress.Snapshot{}, err
	}
	if !bal.Sufficient {
		return progress.Derive(scenes), temporal.NewNonRetryableApplicationError(
			"account balance exhausted", "InsufficientBalance", nil)
	}

	if err := workflow.ExecuteActivity(persistCtx, "BeginSceneActivity", activities.BeginSceneInput{
		ProjectID:   input.ProjectID,
		SceneNumber: target.SceneNumber,
	}).Get(ctx, nil); err != nil {
		return progress.Snapshot{}, err
	}
	now := workflow.Now(ctx)
	target.Status = models.SceneAnalyzing
	target.StartedAt = &now

	var out activities.AnalyzeSceneOutput
	callErr := workflow.ExecuteActivity(analyzeCtx, "AnalyzeSceneActivity", activities.AnalyzeSceneInput{
		ProjectID:          input.ProjectID,
		SceneNumber:        target.SceneNumber,
		TotalScenes:        len(scenes),
		SceneText:          target.Header + "\n\n" + target.RawText,
		VisualStyle:        input.VisualStyle,
		CustomInstructions: input.CustomInstructions,
		ProviderIndex:      0,
	}).Get(ctx, &out)
	if callErr != nil {
		_ = workflow.ExecuteActivity(persistCtx, "LogAnalysisCallActivity", activities.LogAnalysisCallInput{
			ProjectID:   input.ProjectID,
			SceneNumber: target.SceneNumber,
			Attempt:     target.RetryCount + 1,
			Status:      "failed",
			ErrorType:   string(analysis.ClassifyError(callErr)),
			ErrorDetail: callErr.Error(),
		}).Get(ctx, nil)
		var rec activities.RecordSceneFailureOutput
		if err := workflow.ExecuteActivity(persistCtx, "RecordSceneFailureActivity", activities.RecordSceneFailureInput{
			ProjectID:   input.ProjectID,
			SceneNumber: target.SceneNumber,
			Reason:      callErr.Error(),
		}).Get(ctx, &rec); err != nil {
			return progress.Derive(scenes), err
		}
		target.Status = models.SceneError
		target.RetryCount = rec.RetryCount
		return progress.Derive(scenes), callErr
	}

	if err := workflow.ExecuteActivity(persistCtx, "CompleteSceneActivity", activities.CompleteSceneInput{
		ProjectID:   input.ProjectID,
		SceneNumber: target.SceneNumber,
		Analysis:    out.Analysis,
	}).Get(ctx, nil); err != nil {
		return progress.Derive(scenes), err
	}
	if err := workflow.ExecuteActivity(persistCtx, "ChargeSceneActivity", activities.ChargeSceneInput{
		AccountID:   input.AccountID,
		ProjectID:   input.ProjectID,
		SceneNumber: target.SceneNumber,
	}).Get(ctx, nil); err != nil {
		return progress.Derive(scenes), err
	}
	_ = workflow.ExecuteActivity(persistCtx, "LogAnalysisCallActivity", activities.LogAnalysisCallInput{
		ProjectID:    input.ProjectID,
		SceneNumber:  target.SceneNumber,
		Attempt:      target.RetryCount + 1,
		ProviderName: out.ProviderName,
		Model:        out.Model,
		Status:       "ok",
	}).Get(ctx, nil)
	done := workflow.Now(ctx)
	target.Status = models.SceneCompleted
	target.CompletedAt = &done
	return progress.Derive(scenes), nil
}

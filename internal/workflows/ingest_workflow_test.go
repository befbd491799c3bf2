package workflows

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"sceneflow/internal/activities"
	"sceneflow/internal/models"
)

type ingestHarness struct {
	extractAttempts int
	extractErr      error
	parseAttempts   int
	parseErr        error
	parseErrs       []error
	failed          []activities.FailExtractionInput
	completed       bool
	statuses        []models.ProjectStatus
}

func (h *ingestHarness) register(env *testsuite.TestWorkflowEnvironment) {
	env.RegisterWorkflow(ScriptIngestWorkflow)
	registerActivityName(env, "UpdateProjectStatusActivity", func(_ context.Context, in activities.UpdateProjectStatusInput) error {
		h.statuses = append(h.statuses, in.Status)
		return nil
	})
	registerActivityName(env, "ExtractDocumentTextActivity", func(context.Context, activities.ExtractDocumentTextInput) (activities.ExtractDocumentTextOutput, error) {
		h.extractAttempts++
		if h.extractErr != nil {
			return activities.ExtractDocumentTextOutput{}, h.extractErr
		}
		return activities.ExtractDocumentTextOutput{
			Text:                "INT. DINER - DAY\n\nA waitress refills an empty cup.\n",
			EstimatedSceneCount: 1,
		}, nil
	})
	// parseErrs is a queue of one-shot errors consumed first; parseErr, when
	// set, fails every attempt.
	registerActivityName(env, "ParseScenesActivity", func(context.Context, activities.ParseScenesInput) (activities.ParseScenesOutput, error) {
		h.parseAttempts++
		if len(h.parseErrs) > 0 {
			err := h.parseErrs[0]
			h.parseErrs = h.parseErrs[1:]
			return activities.ParseScenesOutput{}, err
		}
		if h.parseErr != nil {
			return activities.ParseScenesOutput{}, h.parseErr
		}
		return activities.ParseScenesOutput{TotalScenes: 1}, nil
	})
	registerActivityName(env, "CompleteExtractionActivity", func(context.Context, activities.CompleteExtractionInput) error {
		h.completed = true
		return nil
	})
	registerActivityName(env, "FailExtractionActivity", func(_ context.Context, in activities.FailExtractionInput) error {
		h.failed = append(h.failed, in)
		return nil
	})
}

func ingestInput() ScriptIngestInput {
	return ScriptIngestInput{
		ProjectID: "p1",
		JobID:     "j1",
		Path:      "/data/in/p1/script.pdf",
		Format:    "pdf",
	}
}

func TestScriptIngestWorkflowSuccess(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	h := &ingestHarness{}
	h.register(env)

	env.ExecuteWorkflow(ScriptIngestWorkflow, ingestInput())
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, string(models.JobCompleted), out)
	require.True(t, h.completed)
	require.Empty(t, h.failed)
	require.Equal(t, []models.ProjectStatus{models.ProjectExtracting, models.ProjectReady}, h.statuses)
}

func TestScriptIngestWorkflowRetriesExtractionThreeTimes(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	h := &ingestHarness{extractErr: errors.New("pdf is encrypted")}
	h.register(env)

	env.ExecuteWorkflow(ScriptIngestWorkflow, ingestInput())
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, string(models.JobFailed), out)
	require.Equal(t, 3, h.extractAttempts, "extraction gets exactly 3 attempts, never a 4th")
	require.Len(t, h.failed, 1)
	require.Contains(t, h.failed[0].Reason, "after 3 attempts")
	require.False(t, h.completed)
}

func TestScriptIngestWorkflowParseErrorIsPermanent(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	h := &ingestHarness{
		parseErr: temporal.NewNonRetryableApplicationError(
			"malformed screenplay structure: no scene headers detected", "MalformedStructure", nil),
	}
	h.register(env)

	env.ExecuteWorkflow(ScriptIngestWorkflow, ingestInput())
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, string(models.JobFailed), out)
	require.Equal(t, 1, h.extractAttempts)
	require.Equal(t, 1, h.parseAttempts, "a malformed screenplay is never reparsed")
	require.Len(t, h.failed, 1)
	require.Contains(t, h.failed[0].Reason, "no scene headers detected")
	require.False(t, h.completed)
}

// A transient storage failure while persisting the parsed scenes is retried
// instead of failing the job; only structural parse errors are permanent.
func TestScriptIngestWorkflowRetriesSceneWrites(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	h := &ingestHarness{parseErrs: []error{errors.New("connection reset by peer")}}
	h.register(env)

	env.ExecuteWorkflow(ScriptIngestWorkflow, ingestInput())
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, string(models.JobCompleted), out)
	require.Equal(t, 2, h.parseAttempts, "the transient failure gets a second attempt")
	require.True(t, h.completed)
	require.Empty(t, h.failed)
}

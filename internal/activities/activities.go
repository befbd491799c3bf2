package activities

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
	pdfcpu "github.com/pdfcpu/pdfcpu/pkg/api"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"sceneflow/internal/analysis"
	"sceneflow/internal/config"
	"sceneflow/internal/models"
	"sceneflow/internal/progress"
	"sceneflow/internal/screenplay"
	"sceneflow/internal/storage"
	"sceneflow/internal/util"
)

type Activities struct {
	cfg         config.Config
	projectRepo *storage.ProjectRepo
	sceneRepo   *storage.SceneRepo
	jobRepo     *storage.ExtractionJobRepo
	ledgerRepo  *storage.LedgerRepo
	auditRepo   *storage.AnalysisAuditRepo
	providers   *analysis.Manager
}

func New(cfg config.Config, db *storage.DB) (*Activities, error) {
	pm, err := analysis.NewManager(cfg.AnalysisProviders)
	if err != nil {
		return nil, err
	}
	return &Activities{
		cfg:         cfg,
		projectRepo: storage.NewProjectRepo(db),
		sceneRepo:   storage.NewSceneRepo(db),
		jobRepo:     storage.NewExtractionJobRepo(db),
		ledgerRepo:  storage.NewLedgerRepo(db),
		auditRepo:   storage.NewAnalysisAuditRepo(db),
		providers:   pm,
	}, nil
}

// ExtractDocumentTextActivity pulls plain text out of a heavy upload.
// Extraction has no side effects beyond the produced text, so Temporal can
// requeue it safely; the job row records the attempt number for pollers.
func (a *Activities) ExtractDocumentTextActivity(ctx context.Context, in ExtractDocumentTextInput) (ExtractDocumentTextOutput, error) {
	attempt := int(activity.GetInfo(ctx).Attempt)
	if err := a.jobRepo.MarkActive(ctx, in.JobID, attempt); err != nil {
		return ExtractDocumentTextOutput{}, err
	}

	pages := 0
	if n, err := pdfcpu.PageCountFile(in.Path); err == nil {
		pages = n
	}

	f, r, err := pdf.Open(in.Path)
	if err != nil {
		return ExtractDocumentTextOutput{}, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()
	reader, err := r.GetPlainText()
	if err != nil {
		return ExtractDocumentTextOutput{}, fmt.Errorf("extract pdf text: %w", err)
	}
	buf := new(strings.Builder)
	if _, err := io.Copy(buf, reader); err != nil {
		return ExtractDocumentTextOutput{}, fmt.Errorf("read extracted text: %w", err)
	}
	text := util.SanitizeText(buf.String())
	if text == "" {
		return ExtractDocumentTextOutput{}, fmt.Errorf("no extractable text found in document")
	}

	estimated := screenplay.CountSceneHeadings(text)
	if estimated == 0 {
		estimated = pages
	}
	return ExtractDocumentTextOutput{Text: text, EstimatedSceneCount: estimated}, nil
}

func (a *Activities) CompleteExtractionActivity(ctx context.Context, in CompleteExtractionInput) error {
	if err := a.jobRepo.MarkCompleted(ctx, in.JobID, in.Text, in.EstimatedSceneCount); err != nil {
		return err
	}
	outPath := filepath.Join(a.cfg.DataOutRoot, in.ProjectID, "extracted.txt")
	return util.WriteTextAtomic(outPath, in.Text)
}

func (a *Activities) FailExtractionActivity(ctx context.Context, in FailExtractionInput) error {
	if err := a.jobRepo.MarkFailed(ctx, in.JobID, in.Reason); err != nil {
		return err
	}
	return a.projectRepo.UpdateStatus(ctx, in.ProjectID, models.ProjectFailed, in.Reason)
}

// ParseScenesActivity normalizes extracted text into the ordered scene list
// and persists it. Parse failures are marked non-retryable since the input
// text never changes between attempts; storage failures stay retryable, and
// a retried parse replaces the previous rows with identical content.
func (a *Activities) ParseScenesActivity(ctx context.Context, in ParseScenesInput) (ParseScenesOutput, error) {
	blocks, err := screenplay.Parse([]byte(in.Text), screenplay.Format(in.Format))
	if err != nil {
		return ParseScenesOutput{}, temporal.NewNonRetryableApplicationError(err.Error(), "InvalidScreenplay", err)
	}
	scenes := make([]models.Scene, 0, len(blocks))
	skipped := 0
	for _, b := range blocks {
		if b.AutoSkip {
			skipped++
		}
		scenes = append(scenes, models.Scene{
			SceneID:     uuid.NewString(),
			ProjectID:   in.ProjectID,
			SceneNumber: b.SceneNumber,
			Header:      b.Header,
			RawText:     b.Text,
			Status:      models.ScenePending,
		})
	}
	if err := a.sceneRepo.ReplaceScenes(ctx, in.ProjectID, scenes); err != nil {
		return ParseScenesOutput{}, err
	}
	return ParseScenesOutput{TotalScenes: len(scenes), AutoSkipped: skipped}, nil
}

func (a *Activities) ListScenesActivity(ctx context.Context, in ListScenesInput) (ListScenesOutput, error) {
	scenes, err := a.sceneRepo.ListScenes(ctx, in.ProjectID)
	if err != nil {
		return ListScenesOutput{}, err
	}
	return ListScenesOutput{Scenes: scenes}, nil
}

func (a *Activities) BeginSceneActivity(ctx context.Context, in BeginSceneInput) error {
	return a.sceneRepo.BeginScene(ctx, in.ProjectID, in.SceneNumber)
}

// AnalyzeSceneActivity performs exactly one call to the analysis service and
// accepts the response only if it satisfies the structural contract. Retry
// ownership stays with the workflow's scene state machine.
func (a *Activities) AnalyzeSceneActivity(ctx context.Context, in AnalyzeSceneInput) (AnalyzeSceneOutput, error) {
	provider, ref := a.providers.ProviderByIndex(in.ProviderIndex)
	payload, info, err := provider.Analyze(ctx, analysis.SceneRequest{
		SceneText:          in.SceneText,
		SceneNumber:        in.SceneNumber,
		TotalScenes:        in.TotalScenes,
		VisualStyle:        in.VisualStyle,
		CustomInstructions: in.CustomInstructions,
	})
	if err != nil {
		return AnalyzeSceneOutput{}, fmt.Errorf("analyze via %s: %w", ref.Raw, err)
	}
	if err := analysis.ValidateResult(payload); err != nil {
		return AnalyzeSceneOutput{}, err
	}
	return AnalyzeSceneOutput{Analysis: payload, ProviderName: info.Name, Model: info.Model}, nil
}

func (a *Activities) CompleteSceneActivity(ctx context.Context, in CompleteSceneInput) error {
	return a.sceneRepo.CompleteScene(ctx, in.ProjectID, in.SceneNumber, in.Analysis)
}

func (a *Activities) SkipSceneActivity(ctx context.Context, in SkipSceneInput) error {
	return a.sceneRepo.SkipScene(ctx, in.ProjectID, in.SceneNumber, analysis.SkippedResult(), "scene text below minimum length")
}

func (a *Activities) RecordSceneFailureActivity(ctx context.Context, in RecordSceneFailureInput) (RecordSceneFailureOutput, error) {
	retry, err := a.sceneRepo.RecordFailure(ctx, in.ProjectID, in.SceneNumber, in.Reason)
	if err != nil {
		return RecordSceneFailureOutput{}, err
	}
	return RecordSceneFailureOutput{RetryCount: retry}, nil
}

func (a *Activities) CheckBalanceActivity(ctx context.Context, in CheckBalanceInput) (CheckBalanceOutput, error) {
	balance, err := a.ledgerRepo.Balance(ctx, in.AccountID)
	if err != nil {
		return CheckBalanceOutput{}, err
	}
	return CheckBalanceOutput{Balance: balance, Sufficient: balance >= 1}, nil
}

func (a *Activities) ChargeSceneActivity(ctx context.Context, in ChargeSceneInput) (ChargeSceneOutput, error) {
	balance, err := a.ledgerRepo.Charge(ctx, in.AccountID, in.ProjectID, in.SceneNumber, 1)
	if err != nil {
		return ChargeSceneOutput{}, err
	}
	return ChargeSceneOutput{NewBalance: balance}, nil
}

func (a *Activities) UpdateProjectStatusActivity(ctx context.Context, in UpdateProjectStatusInput) error {
	return a.projectRepo.UpdateStatus(ctx, in.ProjectID, in.Status, in.FailReason)
}

func (a *Activities) LogAnalysisCallActivity(ctx context.Context, in LogAnalysisCallInput) error {
	return a.auditRepo.Insert(ctx, storage.AnalysisCallRecord{
		ProjectID:    in.ProjectID,
		SceneNumber:  in.SceneNumber,
		Attempt:      in.Attempt,
		ProviderName: in.ProviderName,
		Model:        in.Model,
		Status:       in.Status,
		ErrorType:    in.ErrorType,
		ErrorDetail:  in.ErrorDetail,
	})
}

// WriteProjectSummaryActivity snapshots the finished project (scene statuses
// plus derived progress) as a JSON artifact for downstream consumers.
func (a *Activities) WriteProjectSummaryActivity(ctx context.Context, in WriteProjectSummaryInput) (WriteProjectSummaryOutput, error) {
	scenes, err := a.sceneRepo.ListScenes(ctx, in.ProjectID)
	if err != nil {
		return WriteProjectSummaryOutput{}, err
	}
	snap := progress.Derive(scenes)
	path := filepath.Join(a.cfg.DataOutRoot, in.ProjectID, "summary.json")
	if err := util.WriteJSONAtomic(path, map[string]any{
		"project_id": in.ProjectID,
		"progress":   snap,
		"scenes":     scenes,
	}); err != nil {
		return WriteProjectSummaryOutput{}, err
	}
	return WriteProjectSummaryOutput{Path: path}, nil
}

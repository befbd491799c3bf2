package activities

import (
	"encoding/json"

	"sceneflow/internal/models"
)

type ExtractDocumentTextInput struct {
	JobID     string `json:"job_id"`
	ProjectID string `json:"project_id"`
	Path      string `json:"path"`
	Format    string `json:"format"`
}

type ExtractDocumentTextOutput struct {
	Text                string `json:"text"`
	EstimatedSceneCount int    `json:"estimated_scene_count"`
}

type CompleteExtractionInput struct {
	JobID               string `json:"job_id"`
	ProjectID           string `json:"project_id"`
	Text                string `json:"text"`
	EstimatedSceneCount int    `json:"estimated_scene_count"`
}

type FailExtractionInput struct {
	JobID     string `json:"job_id"`
	ProjectID string `json:"project_id"`
	Reason    string `json:"reason"`
}

type ParseScenesInput struct {
	ProjectID string `json:"project_id"`
	Text      string `json:"text"`
	Format    string `json:"format"`
}

type ParseScenesOutput struct {
	TotalScenes int `json:"total_scenes"`
	AutoSkipped int `json:"auto_skipped"`
}

type ListScenesInput struct {
	ProjectID string `json:"project_id"`
}

type ListScenesOutput struct {
	Scenes []models.Scene `json:"scenes"`
}

type BeginSceneInput struct {
	ProjectID   string `json:"project_id"`
	SceneNumber int    `json:"scene_number"`
}

type AnalyzeSceneInput struct {
	ProjectID          string `json:"project_id"`
	SceneNumber        int    `json:"scene_number"`
	TotalScenes        int    `json:"total_scenes"`
	SceneText          string `json:"scene_text"`
	VisualStyle        string `json:"visual_style,omitempty"`
	CustomInstructions string `json:"custom_instructions,omitempty"`
	ProviderIndex      int    `json:"provider_index"`
}

type AnalyzeSceneOutput struct {
	Analysis     json.RawMessage `json:"analysis"`
	ProviderName string          `json:"provider_name"`
	Model        string          `json:"model"`
}

type CompleteSceneInput struct {
	ProjectID   string          `json:"project_id"`
	SceneNumber int             `json:"scene_number"`
	Analysis    json.RawMessage `json:"analysis"`
}

type SkipSceneInput struct {
	ProjectID   string `json:"project_id"`
	SceneNumber int    `json:"scene_number"`
}

type RecordSceneFailureInput struct {
	ProjectID   string `json:"project_id"`
	SceneNumber int    `json:"scene_number"`
	Reason      string `json:"reason"`
}

type RecordSceneFailureOutput struct {
	RetryCount int `json:"retry_count"`
}

type CheckBalanceInput struct {
	AccountID string `json:"account_id"`
}

type CheckBalanceOutput struct {
	Balance    int64 `json:"balance"`
	Sufficient bool  `json:"sufficient"`
}

type ChargeSceneInput struct {
	AccountID   string `json:"account_id"`
	ProjectID   string `json:"project_id"`
	SceneNumber int    `json:"scene_number"`
}

type ChargeSceneOutput struct {
	NewBalance int64 `json:"new_balance"`
}

type UpdateProjectStatusInput struct {
	ProjectID  string               `json:"project_id"`
	Status     models.ProjectStatus `json:"status"`
	FailReason string               `json:"fail_reason,omitempty"`
}

type LogAnalysisCallInput struct {
	ProjectID    string `json:"project_id"`
	SceneNumber  int    `json:"scene_number"`
	Attempt      int    `json:"attempt"`
	ProviderName string `json:"provider_name,omitempty"`
	Model        string `json:"model,omitempty"`
	Status       string `json:"status"`
	ErrorType    string `json:"error_type,omitempty"`
	ErrorDetail  string `json:"error_detail,omitempty"`
}

type WriteProjectSummaryInput struct {
	ProjectID string `json:"project_id"`
}

type WriteProjectSummaryOutput struct {
	Path string `json:"path"`
}

package models

import (
	"encoding/json"
	"time"
)

type SceneStatus string

const (
	ScenePending   SceneStatus = "PENDING"
	SceneAnalyzing SceneStatus = "ANALYZING"
	SceneCompleted SceneStatus = "COMPLETED"
	SceneError     SceneStatus = "ERROR"
	SceneSkipped   SceneStatus = "SKIPPED"
)

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobActive    JobStatus = "active"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

type ProjectStatus string

const (
	ProjectPending             ProjectStatus = "pending"
	ProjectExtracting          ProjectStatus = "extracting"
	ProjectReady               ProjectStatus = "ready"
	ProjectAnalyzing           ProjectStatus = "analyzing"
	ProjectCompleted           ProjectStatus = "completed"
	ProjectFailed              ProjectStatus = "failed"
	ProjectCanceled            ProjectStatus = "canceled"
	ProjectInsufficientBalance ProjectStatus = "insufficient_balance"
)

type Project struct {
	ProjectID   string        `json:"project_id"`
	AccountID   string        `json:"account_id"`
	Title       string        `json:"title"`
	Filename    string        `json:"filename,omitempty"`
	Format      string        `json:"format,omitempty"`
	VisualStyle string        `json:"visual_style,omitempty"`
	Status      ProjectStatus `json:"status"`
	TotalScenes int           `json:"total_scenes"`
	FailReason  string        `json:"fail_reason,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

type Scene struct {
	SceneID     string          `json:"scene_id"`
	ProjectID   string          `json:"project_id"`
	SceneNumber int             `json:"scene_number"`
	Header      string          `json:"header"`
	RawText     string          `json:"raw_text"`
	Status      SceneStatus     `json:"status"`
	RetryCount  int             `json:"retry_count"`
	Analysis    json.RawMessage `json:"analysis,omitempty"`
	FailReason  string          `json:"fail_reason,omitempty"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

type ExtractionJob struct {
	JobID               string    `json:"job_id"`
	ProjectID           string    `json:"project_id"`
	Filename            string    `json:"filename"`
	Format              string    `json:"format"`
	Status              JobStatus `json:"status"`
	Attempts            int       `json:"attempts"`
	ExtractedText       string    `json:"extracted_text,omitempty"`
	EstimatedSceneCount int       `json:"estimated_scene_count,omitempty"`
	FailReason          string    `json:"fail_reason,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

type CreditAccount struct {
	AccountID string    `json:"account_id"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

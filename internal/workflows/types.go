package workflows

type ScriptIngestInput struct {
	ProjectID string `json:"project_id"`
	JobID     string `json:"job_id"`
	Path      string `json:"path"`
	Format    string `json:"format"`
}

type AnalyzeInput struct {
	ProjectID          string `json:"project_id"`
	AccountID          string `json:"account_id"`
	VisualStyle        string `json:"visual_style,omitempty"`
	CustomInstructions string `json:"custom_instructions,omitempty"`
	// AutoRetry controls whether failed scenes are retried in-loop. When
	// false the first failure leaves the scene in ERROR so the caller can
	// steer a manual retry with adjusted instructions.
	AutoRetry     bool `json:"auto_retry"`
	ProviderCount int  `json:"provider_count"`
	TimeoutSecs   int  `json:"timeout_secs,omitempty"`
}

type SceneRetryInput struct {
	ProjectID          string `json:"project_id"`
	AccountID          string `json:"account_id"`
	SceneNumber        int    `json:"scene_number"`
	VisualStyle        string `json:"visual_style,omitempty"`
	CustomInstructions string `json:"custom_instructions,omitempty"`
	ProviderCount      int    `json:"provider_count"`
	TimeoutSecs        int    `json:"timeout_secs,omitempty"`
}

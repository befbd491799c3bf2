package analysis

import (
	"context"
	"encoding/json"
)

type ProviderInfo struct {
	Name  string `json:"name"`
	Model string `json:"model"`
	Key   string `json:"key"`
}

// SceneRequest carries everything the analysis service needs for one scene.
// VisualStyle, when set, must be woven into every generated shot's image
// prompt. CustomInstructions are caller-supplied steering for manual retries.
type SceneRequest struct {
	SceneText          string `json:"scene_text"`
	SceneNumber        int    `json:"scene_number"`
	TotalScenes        int    `json:"total_scenes"`
	VisualStyle        string `json:"visual_style,omitempty"`
	CustomInstructions string `json:"custom_instructions,omitempty"`
}

// Provider produces a structured scene analysis. The returned payload is raw
// JSON; callers validate it against the response contract before accepting it.
type Provider interface {
	Analyze(ctx context.Context, req SceneRequest) (json.RawMessage, ProviderInfo, error)
}

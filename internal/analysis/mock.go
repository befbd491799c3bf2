package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// MockProvider returns deterministic, contract-satisfying payloads so the
// pipeline can run end to end without a real analysis service.
type MockProvider struct{}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (m *MockProvider) Analyze(ctx context.Context, req SceneRequest) (json.RawMessage, ProviderInfo, error) {
	_ = ctx
	lo, _ := ShotRange(ClassifyScene(req.SceneText))
	shots := make([]map[string]string, 0, lo)
	for i := 0; i < lo; i++ {
		prompt := fmt.Sprintf("Shot %d of scene %d: %s", i+1, req.SceneNumber, firstLine(req.SceneText))
		if req.VisualStyle != "" {
			prompt += ", in the style of " + req.VisualStyle
		}
		shots = append(shots, map[string]string{
			"shot_type":    "MEDIUM",
			"subject":      firstLine(req.SceneText),
			"visual":       fmt.Sprintf("Deterministic framing for scene %d shot %d.", req.SceneNumber, i+1),
			"rationale":    "Covers the scene's primary action.",
			"image_prompt": prompt,
		})
	}
	payload := map[string]any{
		"story_analysis":      map[string]any{"beats": []string{"setup", "turn"}, "scene_number": req.SceneNumber},
		"producing_logistics": map[string]any{"locations": []string{firstLine(req.SceneText)}, "night_shoot": false},
		"directing_vision":    map[string]any{"tone": "neutral", "pacing": "steady"},
		"shot_list":           shots,
	}
	b, _ := json.Marshal(payload)
	return b, ProviderInfo{Name: "mock", Model: "mock-analyst-v1", Key: "mock"}, nil
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			return t
		}
	}
	return "scene"
}

package analysis

import (
	"fmt"
	"strings"
)

type Complexity string

const (
	ComplexitySimple  Complexity = "simple"
	ComplexityComplex Complexity = "complex"
)

// ClassifyScene applies the request-shaping heuristic: dialogue-heavy or long
// scenes are "complex" and should be broken into more shots.
func ClassifyScene(sceneText string) Complexity {
	cues := 0
	for _, line := range strings.Split(sceneText, "\n") {
		l := strings.TrimSpace(line)
		if l == "" || len(l) > 30 {
			continue
		}
		if l == strings.ToUpper(l) && strings.IndexFunc(l, func(r rune) bool { return r >= 'A' && r <= 'Z' }) >= 0 {
			cues++
		}
	}
	if cues >= 2 || len(sceneText) > 600 {
		return ComplexityComplex
	}
	return ComplexitySimple
}

// ShotRange maps a complexity class to the shot-count policy passed to the
// analysis service. The service applies the policy; it is not enforced
// locally.
func ShotRange(c Complexity) (min, max int) {
	if c == ComplexityComplex {
		return 8, 15
	}
	return 5, 8
}

const systemPrompt = "You are a film production analyst. Respond with a single JSON object and nothing else."

// BuildPrompt renders the analysis request for one scene.
func BuildPrompt(req SceneRequest) string {
	complexity := ClassifyScene(req.SceneText)
	lo, hi := ShotRange(complexity)

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze scene %d of %d from a screenplay and produce structured production metadata.\n\n", req.SceneNumber, req.TotalScenes)
	b.WriteString("Return a JSON object with exactly these keys:\n")
	b.WriteString("- story_analysis: object (beats, conflict, character arcs)\n")
	b.WriteString("- producing_logistics: object (locations, cast, props, flags)\n")
	b.WriteString("- directing_vision: object (tone, pacing, blocking notes)\n")
	b.WriteString("- shot_list: array of objects with shot_type, subject, visual, rationale, image_prompt (all strings)\n\n")
	fmt.Fprintf(&b, "This is a %s scene: propose between %d and %d shots.\n", complexity, lo, hi)
	if req.VisualStyle != "" {
		fmt.Fprintf(&b, "Visual style directive: %q. Every shot's image_prompt must incorporate this style.\n", req.VisualStyle)
	}
	if req.CustomInstructions != "" {
		fmt.Fprintf(&b, "Additional instructions from the caller: %s\n", req.CustomInstructions)
	}
	b.WriteString("\nScene text:\n")
	b.WriteString(req.SceneText)
	return b.String()
}

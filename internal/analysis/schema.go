package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// resultSchema is the fixed structural contract for an accepted analysis
// response. Anything that does not satisfy it is a retryable failure, never a
// COMPLETED scene.
const resultSchema = `{
  "type": "object",
  "required": ["story_analysis", "producing_logistics", "directing_vision", "shot_list"],
  "properties": {
    "story_analysis": {"type": "object"},
    "producing_logistics": {"type": "object"},
    "directing_vision": {"type": "object"},
    "shot_list": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["shot_type", "subject", "visual", "rationale", "image_prompt"],
        "properties": {
          "shot_type": {"type": "string"},
          "subject": {"type": "string"},
          "visual": {"type": "string"},
          "rationale": {"type": "string"},
          "image_prompt": {"type": "string"}
        }
      }
    }
  }
}`

var compiledResultSchema = jsonschema.MustCompileString("scene_analysis.json", resultSchema)

// ValidateResult checks a raw analysis payload against the response contract.
func ValidateResult(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("analysis response is not valid json: %w", err)
	}
	if err := compiledResultSchema.Validate(v); err != nil {
		return fmt.Errorf("analysis response does not match schema: %w", err)
	}
	return nil
}

// ExtractJSON peels markdown code fences some providers wrap around JSON
// output and returns the first top-level object.
func ExtractJSON(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

// SkippedResult is the canonical payload stored for scenes skipped below the
// minimum-length threshold: every section present, marked not applicable,
// with an empty shot list. It satisfies the response contract.
func SkippedResult() json.RawMessage {
	payload := map[string]any{
		"story_analysis":      map[string]any{"applicable": false, "reason": "scene text below minimum length"},
		"producing_logistics": map[string]any{"applicable": false},
		"directing_vision":    map[string]any{"applicable": false},
		"shot_list":           []any{},
	}
	b, _ := json.Marshal(payload)
	return b
}

package analysis

import (
	"encoding/json"
	"testing"
)

const validResult = `{
  "story_analysis": {"beats": ["arrival"]},
  "producing_logistics": {"locations": ["diner"]},
  "directing_vision": {"tone": "tense"},
  "shot_list": [
    {"shot_type": "wide", "subject": "diner interior", "visual": "morning haze",
     "rationale": "establish geography", "image_prompt": "wide shot of a diner, morning haze"}
  ]
}`

func TestValidateResultAccepts(t *testing.T) {
	if err := ValidateResult([]byte(validResult)); err != nil {
		t.Fatal(err)
	}
}

func TestValidateResultRejectsMissingSection(t *testing.T) {
	payload := `{"story_analysis": {}, "producing_logistics": {}, "shot_list": []}`
	if err := ValidateResult([]byte(payload)); err == nil {
		t.Fatal("payload missing directing_vision must fail validation")
	}
}

func TestValidateResultRejectsBadJSON(t *testing.T) {
	if err := ValidateResult([]byte("not json {")); err == nil {
		t.Fatal("malformed json must fail validation")
	}
}

func TestValidateResultRejectsIncompleteShot(t *testing.T) {
	payload := `{
	  "story_analysis": {}, "producing_logistics": {}, "directing_vision": {},
	  "shot_list": [{"shot_type": "wide", "subject": "room"}]
	}`
	if err := ValidateResult([]byte(payload)); err == nil {
		t.Fatal("shot entry without required fields must fail validation")
	}
}

func TestValidateResultRejectsNonStringShotField(t *testing.T) {
	payload := `{
	  "story_analysis": {}, "producing_logistics": {}, "directing_vision": {},
	  "shot_list": [{"shot_type": 1, "subject": "room", "visual": "v", "rationale": "r", "image_prompt": "p"}]
	}`
	if err := ValidateResult([]byte(payload)); err == nil {
		t.Fatal("numeric shot_type must fail validation")
	}
}

func TestSkippedResultSatisfiesContract(t *testing.T) {
	if err := ValidateResult(SkippedResult()); err != nil {
		t.Fatal(err)
	}
	var payload struct {
		ShotList []any `json:"shot_list"`
	}
	if err := json.Unmarshal(SkippedResult(), &payload); err != nil {
		t.Fatal(err)
	}
	if len(payload.ShotList) != 0 {
		t.Fatal("skipped payload must carry an empty shot list")
	}
}

func TestExtractJSONStripsFences(t *testing.T) {
	wrapped := "```json\n{\"a\": 1}\n```"
	if got := ExtractJSON(wrapped); got != `{"a": 1}` {
		t.Fatalf("unexpected extraction: %q", got)
	}
}

func TestExtractJSONFindsObjectInProse(t *testing.T) {
	text := "Here is the analysis you asked for: {\"a\": 1} hope it helps"
	if got := ExtractJSON(text); got != `{"a": 1}` {
		t.Fatalf("unexpected extraction: %q", got)
	}
}

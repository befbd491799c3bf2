package analysis

import (
	"context"
	"strings"
	"testing"
)

const simpleScene = "INT. CLOSET - DAY\n\nA coat falls off its hanger."

func complexScene() string {
	var b strings.Builder
	b.WriteString("INT. COURTROOM - DAY\n\n")
	b.WriteString("JUDGE\nOrder. Order in the court.\n\n")
	b.WriteString("DEFENSE\nObjection, your honor.\n\n")
	b.WriteString("PROSECUTOR\nWithdrawn.\n")
	return b.String()
}

func TestClassifyScene(t *testing.T) {
	if ClassifyScene(simpleScene) != ComplexitySimple {
		t.Fatal("short single-action scene should be simple")
	}
	if ClassifyScene(complexScene()) != ComplexityComplex {
		t.Fatal("dialogue-heavy scene should be complex")
	}
	if ClassifyScene(strings.Repeat("Long action description. ", 40)) != ComplexityComplex {
		t.Fatal("long scene should be complex")
	}
}

func TestShotRange(t *testing.T) {
	if lo, hi := ShotRange(ComplexitySimple); lo != 5 || hi != 8 {
		t.Fatalf("simple range = %d-%d", lo, hi)
	}
	if lo, hi := ShotRange(ComplexityComplex); lo != 8 || hi != 15 {
		t.Fatalf("complex range = %d-%d", lo, hi)
	}
}

func TestBuildPromptIncludesShotPolicy(t *testing.T) {
	p := BuildPrompt(SceneRequest{SceneText: simpleScene, SceneNumber: 1, TotalScenes: 10})
	if !strings.Contains(p, "between 5 and 8 shots") {
		t.Fatalf("simple shot policy missing from prompt:\n%s", p)
	}
	p = BuildPrompt(SceneRequest{SceneText: complexScene(), SceneNumber: 2, TotalScenes: 10})
	if !strings.Contains(p, "between 8 and 15 shots") {
		t.Fatalf("complex shot policy missing from prompt:\n%s", p)
	}
}

func TestBuildPromptPropagatesVisualStyle(t *testing.T) {
	p := BuildPrompt(SceneRequest{
		SceneText:   simpleScene,
		SceneNumber: 1,
		TotalScenes: 1,
		VisualStyle: "film noir",
	})
	if !strings.Contains(p, "film noir") || !strings.Contains(p, "image_prompt must incorporate this style") {
		t.Fatalf("visual style directive missing from prompt:\n%s", p)
	}
}

func TestBuildPromptCustomInstructions(t *testing.T) {
	p := BuildPrompt(SceneRequest{
		SceneText:          simpleScene,
		SceneNumber:        1,
		TotalScenes:        1,
		CustomInstructions: "emphasize the falling coat",
	})
	if !strings.Contains(p, "emphasize the falling coat") {
		t.Fatal("custom instructions missing from prompt")
	}
}

func TestMockProviderSatisfiesContract(t *testing.T) {
	m := NewMockProvider()
	payload, info, err := m.Analyze(context.Background(), SceneRequest{
		SceneText:   simpleScene,
		SceneNumber: 3,
		TotalScenes: 12,
		VisualStyle: "watercolor",
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := ValidateResult(payload); err != nil {
		t.Fatal(err)
	}
	if info.Name != "mock" {
		t.Fatalf("unexpected provider info: %+v", info)
	}
	if !strings.Contains(string(payload), "in the style of watercolor") {
		t.Fatal("visual style not propagated into mock image prompts")
	}
}

func TestMockProviderDeterministic(t *testing.T) {
	m := NewMockProvider()
	a, _, _ := m.Analyze(context.Background(), SceneRequest{SceneText: simpleScene, SceneNumber: 1, TotalScenes: 1})
	b, _, _ := m.Analyze(context.Background(), SceneRequest{SceneText: simpleScene, SceneNumber: 1, TotalScenes: 1})
	if string(a) != string(b) {
		t.Fatal("mock provider must be deterministic")
	}
}

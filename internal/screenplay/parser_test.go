package screenplay

import (
	"reflect"
	"strings"
	"testing"
)

const sampleScript = `FADE IN:

INT. KITCHEN - DAY

MARTHA stirs a pot. The radio plays low.

MARTHA
Dinner's almost ready.

EXT. BACKYARD - NIGHT

Rain hammers the shed roof. A dog barks twice.

3 INT./EXT. CAR - MOVING - DUSK

Headlights sweep the empty road.
`

func TestParseTextSplitsOnHeadings(t *testing.T) {
	blocks, err := Parse([]byte(sampleScript), FormatText)
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks got %d", len(blocks))
	}
	for i, b := range blocks {
		if b.SceneNumber != i+1 {
			t.Fatalf("block %d has scene number %d", i, b.SceneNumber)
		}
	}
	if blocks[0].Header != "INT. KITCHEN - DAY" {
		t.Fatalf("unexpected header: %q", blocks[0].Header)
	}
	if !strings.Contains(blocks[0].Text, "MARTHA stirs a pot") {
		t.Fatalf("body missing action line: %q", blocks[0].Text)
	}
	if blocks[2].Header != "3 INT./EXT. CAR - MOVING - DUSK" {
		t.Fatalf("unexpected numbered header: %q", blocks[2].Header)
	}
}

func TestParseIsDeterministic(t *testing.T) {
	a, err := Parse([]byte(sampleScript), FormatText)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Parse([]byte(sampleScript), FormatText)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatal("same input produced different blocks")
	}
}

func TestParseEmptyDocument(t *testing.T) {
	if _, err := Parse([]byte("   \n\t\n"), FormatText); err != ErrEmptyDocument {
		t.Fatalf("expected ErrEmptyDocument got %v", err)
	}
}

func TestParseUnrecognizedFormat(t *testing.T) {
	if _, err := Parse([]byte("INT. ROOM - DAY\ntext"), Format("docx")); err != ErrUnrecognizedFormat {
		t.Fatalf("expected ErrUnrecognizedFormat got %v", err)
	}
}

func TestParseTextNoHeadingsIsMalformed(t *testing.T) {
	_, err := Parse([]byte("Just prose.\nNo screenplay structure at all.\nMore prose here."), FormatText)
	if !IsMalformed(err) {
		t.Fatalf("expected malformed structure error got %v", err)
	}
}

func TestParseHeaderUpperCased(t *testing.T) {
	blocks, err := Parse([]byte("int. basement - night\n\nA single bulb swings.\n"), FormatText)
	if err != nil {
		t.Fatal(err)
	}
	if blocks[0].Header != "INT. BASEMENT - NIGHT" {
		t.Fatalf("header not upper-cased: %q", blocks[0].Header)
	}
}

func TestParseAutoSkipShortScene(t *testing.T) {
	script := "INT. HALL - DAY\n\nOk.\n\nEXT. STREET - DAY\n\nA crowd gathers near the fountain.\n"
	blocks, err := Parse([]byte(script), FormatText)
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks got %d", len(blocks))
	}
	if !blocks[0].AutoSkip {
		t.Fatalf("scene with body %q should be tagged for skip", blocks[0].Text)
	}
	if blocks[1].AutoSkip {
		t.Fatal("substantial scene wrongly tagged for skip")
	}
}

func TestParseHeadingOnlySceneAutoSkips(t *testing.T) {
	script := "INT. VOID - NIGHT\n\nEXT. FIELD - DAY\n\nWind moves through tall grass.\n"
	blocks, err := Parse([]byte(script), FormatText)
	if err != nil {
		t.Fatal(err)
	}
	if !blocks[0].AutoSkip {
		t.Fatal("empty-body scene should be tagged for skip")
	}
	if blocks[0].FullText() != "INT. VOID - NIGHT" {
		t.Fatalf("unexpected full text: %q", blocks[0].FullText())
	}
}

func TestCollapseBlankLines(t *testing.T) {
	script := "INT. LAB - DAY\n\nFirst beat.\n\n\n\n\nSecond beat.\n"
	blocks, err := Parse([]byte(script), FormatText)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(blocks[0].Text, "\n\n\n") {
		t.Fatalf("blank-line runs not collapsed: %q", blocks[0].Text)
	}
}

func TestIsSceneHeading(t *testing.T) {
	cases := []struct {
		line string
		want bool
	}{
		{"INT. KITCHEN - DAY", true},
		{"EXT. STREET - NIGHT", true},
		{"int. lowercase works - day", true},
		{"12 INT. OFFICE - DAY", true},
		{"I/E CAR - CONTINUOUS", true},
		{"INT./EXT. PORCH - DUSK", true},
		{"MARTHA", false},
		{"He walks into the interior.", false},
		{"", false},
		{"INTERIOR THOUGHTS ARE NOT HEADINGS?", false},
	}
	for _, c := range cases {
		if got := IsSceneHeading(c.line); got != c.want {
			t.Fatalf("IsSceneHeading(%q) = %v, want %v", c.line, got, c.want)
		}
	}
}

func TestCountSceneHeadings(t *testing.T) {
	if n := CountSceneHeadings(sampleScript); n != 3 {
		t.Fatalf("expected 3 headings got %d", n)
	}
}

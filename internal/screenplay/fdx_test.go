package screenplay

import (
	"strings"
	"testing"
)

const sampleFDX = `<?xml version="1.0" encoding="UTF-8"?>
<FinalDraft DocumentType="Script" Version="5">
  <Content>
    <Paragraph Type="General"><Text>Title page notes.</Text></Paragraph>
    <Paragraph Type="Scene Heading"><Text>Int. Diner - Day</Text></Paragraph>
    <Paragraph Type="Action"><Text>A waitress refills an empty cup.</Text></Paragraph>
    <Paragraph Type="Character"><Text>CARL</Text></Paragraph>
    <Paragraph Type="Dialogue"><Text>Same as yesterday, please.</Text></Paragraph>
    <Paragraph Type="Scene Heading"><Text>EXT. PARKING LOT - DAY</Text></Paragraph>
    <Paragraph Type="Action"><Text>Carl crosses to a rusted pickup truck.</Text></Paragraph>
  </Content>
</FinalDraft>`

func TestParseFDX(t *testing.T) {
	blocks, err := Parse([]byte(sampleFDX), FormatFDX)
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks got %d", len(blocks))
	}
	if blocks[0].Header != "INT. DINER - DAY" {
		t.Fatalf("heading not upper-cased: %q", blocks[0].Header)
	}
	if !strings.Contains(blocks[0].Text, "CARL") || !strings.Contains(blocks[0].Text, "Same as yesterday") {
		t.Fatalf("dialogue missing from body: %q", blocks[0].Text)
	}
	if strings.Contains(blocks[0].Text, "Title page notes") {
		t.Fatal("pre-heading content leaked into first scene")
	}
	if blocks[1].SceneNumber != 2 {
		t.Fatalf("scene numbers not dense: %d", blocks[1].SceneNumber)
	}
}

func TestParseFDXSplitTextRuns(t *testing.T) {
	doc := `<FinalDraft><Content>
    <Paragraph Type="Scene Heading"><Text>INT. </Text><Text>LOBBY - NIGHT</Text></Paragraph>
    <Paragraph Type="Action"><Text>Elevator doors slide open.</Text></Paragraph>
  </Content></FinalDraft>`
	blocks, err := Parse([]byte(doc), FormatFDX)
	if err != nil {
		t.Fatal(err)
	}
	if blocks[0].Header != "INT. LOBBY - NIGHT" {
		t.Fatalf("text runs not joined: %q", blocks[0].Header)
	}
}

func TestParseFDXMissingRoot(t *testing.T) {
	_, err := Parse([]byte(`<NotFinalDraft><Content/></NotFinalDraft>`), FormatFDX)
	if !IsMalformed(err) {
		t.Fatalf("expected malformed structure error got %v", err)
	}
}

func TestParseFDXNoParagraphs(t *testing.T) {
	_, err := Parse([]byte(`<FinalDraft><Content></Content></FinalDraft>`), FormatFDX)
	if !IsMalformed(err) {
		t.Fatalf("expected malformed structure error got %v", err)
	}
}

func TestParseFDXNoHeadings(t *testing.T) {
	doc := `<FinalDraft><Content>
    <Paragraph Type="Action"><Text>Action with no scene structure.</Text></Paragraph>
  </Content></FinalDraft>`
	_, err := Parse([]byte(doc), FormatFDX)
	if !IsMalformed(err) {
		t.Fatalf("expected malformed structure error got %v", err)
	}
}

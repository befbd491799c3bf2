package screenplay

import (
	"bytes"
	"encoding/xml"
	"strings"
)

type fdxDocument struct {
	XMLName xml.Name `xml:"FinalDraft"`
	Content struct {
		Paragraphs []fdxParagraph `xml:"Paragraph"`
	} `xml:"Content"`
}

type fdxParagraph struct {
	Type string   `xml:"Type,attr"`
	Text []string `xml:"Text"`
}

func (p fdxParagraph) text() string {
	return strings.Join(p.Text, "")
}

// parseFDX reads a Final Draft document as a sequence of typed paragraphs and
// emits a scene boundary on every Scene Heading paragraph. Heading text is
// upper-cased and padded with a blank line on each side; action and dialogue
// are carried verbatim.
func parseFDX(data []byte) ([]Block, error) {
	var doc fdxDocument
	dec := xml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, malformed("missing FinalDraft root container")
	}
	paras := doc.Content.Paragraphs
	if len(paras) == 0 {
		return nil, malformed("document has zero paragraphs")
	}

	blocks := make([]Block, 0)
	var cur *Block
	var body strings.Builder
	flush := func() {
		if cur == nil {
			return
		}
		cur.Text = body.String()
		blocks = append(blocks, finishBlock(*cur))
		cur = nil
		body.Reset()
	}

	for _, p := range paras {
		if strings.EqualFold(strings.TrimSpace(p.Type), "Scene Heading") {
			flush()
			cur = &Block{
				SceneNumber: len(blocks) + 1,
				Header:      strings.ToUpper(strings.TrimSpace(p.text())),
			}
			continue
		}
		if cur == nil {
			// Content before the first scene heading (title page, notes)
			// is not part of any scene.
			continue
		}
		switch strings.TrimSpace(p.Type) {
		case "Character":
			body.WriteString("\n" + strings.TrimSpace(p.text()) + "\n")
		default:
			body.WriteString(p.text() + "\n")
		}
	}
	flush()

	if len(blocks) == 0 {
		return nil, malformed("no scene headers detected")
	}
	return blocks, nil
}

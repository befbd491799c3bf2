package screenplay

import "strings"

// MinSceneChars is the skip threshold: a scene whose trimmed body is shorter
// than this is tagged for automatic skip instead of being analyzed. The
// comparison is strictly less-than on the trimmed body, so a 5-character
// body ("Okay.") is analyzed while "Ok." is skipped. Whitespace-padded
// bodies count by their trimmed length.
const MinSceneChars = 5

// Block is one scene produced by the parser. SceneNumber is 1-based and dense
// in parse order. Text is the scene body without the heading line.
type Block struct {
	SceneNumber int    `json:"scene_number"`
	Header      string `json:"header"`
	Text        string `json:"text"`
	AutoSkip    bool   `json:"auto_skip"`
}

// Parse splits raw document bytes into an ordered scene list. It is pure and
// deterministic: identical bytes and format always yield identical blocks.
// PDF documents must be text-extracted first; their extracted text goes
// through the plain-text path.
func Parse(data []byte, f Format) ([]Block, error) {
	if !f.Valid() {
		return nil, ErrUnrecognizedFormat
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, ErrEmptyDocument
	}
	switch f {
	case FormatFDX:
		return parseFDX(data)
	default:
		return parseText(string(data))
	}
}

// FullText renders the scene the way it is shown and analyzed: the heading
// set off from the body by a blank line.
func (b Block) FullText() string {
	if b.Text == "" {
		return b.Header
	}
	return b.Header + "\n\n" + b.Text
}

func finishBlock(b Block) Block {
	b.Text = collapseBlankLines(strings.TrimRight(b.Text, " \t\n"))
	b.AutoSkip = len(strings.TrimSpace(b.Text)) < MinSceneChars
	return b
}

// collapseBlankLines reduces runs of three or more blank lines to two.
func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blanks := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			blanks++
			if blanks > 2 {
				continue
			}
			out = append(out, "")
			continue
		}
		blanks = 0
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

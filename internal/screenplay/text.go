package screenplay

import (
	"regexp"
	"strings"
)

// sceneHeadingRe matches conventional scene-heading lines: an optional leading
// scene number, an INT/EXT (or combined) token, separator punctuation, and
// free text for the location/time.
var sceneHeadingRe = regexp.MustCompile(`(?i)^\s*(?:\d+[\s.)]*)?\s*(?:INT\s*\.?\s*/\s*EXT|EXT\s*\.?\s*/\s*INT|I/E|INT|EXT)\b\.?[\s.\-:]*\S.*$`)

// IsSceneHeading reports whether a single line looks like a scene heading.
func IsSceneHeading(line string) bool {
	return sceneHeadingRe.MatchString(line)
}

// parseText splits plain text (including text extracted from PDFs) on
// scene-heading lines. At least one heading is required.
func parseText(text string) ([]Block, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

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

	for _, line := range lines {
		if IsSceneHeading(line) {
			flush()
			cur = &Block{
				SceneNumber: len(blocks) + 1,
				Header:      strings.ToUpper(strings.TrimSpace(line)),
			}
			continue
		}
		if cur == nil {
			continue
		}
		body.WriteString(line + "\n")
	}
	flush()

	if len(blocks) == 0 {
		return nil, malformed("no scene headers detected")
	}
	return blocks, nil
}

// CountSceneHeadings counts heading lines without building blocks. The
// extraction worker uses it for the estimated scene count it reports back
// before full parsing.
func CountSceneHeadings(text string) int {
	n := 0
	for _, line := range strings.Split(text, "\n") {
		if IsSceneHeading(line) {
			n++
		}
	}
	return n
}

package screenplay

import (
	"bytes"
	"fmt"
	"strings"
)

const (
	MinUploadBytes  = 100
	MaxUploadBytes  = 10 << 20
	WarnUploadBytes = 5 << 20
	MinContentChars = 100
)

// ValidateUpload runs the pre-submission checks: extension allow-list, size
// bounds, minimum content length, and a cheap scene-header presence probe.
// Failures are permanent and must be surfaced before the document is queued
// or parsed. Warnings do not block submission.
func ValidateUpload(data []byte, filename string) (warnings []string, err error) {
	format, err := FormatForFilename(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: unsupported extension for %q (allowed: .txt, .fdx, .pdf)", ErrUnrecognizedFormat, filename)
	}
	size := len(data)
	if size < MinUploadBytes {
		return nil, fmt.Errorf("file too small (%d bytes): a screenplay upload must be at least %d bytes", size, MinUploadBytes)
	}
	if size > MaxUploadBytes {
		return nil, fmt.Errorf("file too large (%d bytes): maximum upload size is %d bytes", size, MaxUploadBytes)
	}
	if size > WarnUploadBytes {
		warnings = append(warnings, fmt.Sprintf("large upload (%d bytes): extraction may take several minutes", size))
	}

	if format == FormatPDF {
		if !bytes.HasPrefix(data, []byte("%PDF-")) {
			return warnings, malformed("file does not start with a PDF header")
		}
		// Content and scene-header checks for PDFs happen after extraction.
		return warnings, nil
	}

	text := string(data)
	if len(strings.TrimSpace(text)) < MinContentChars {
		return warnings, fmt.Errorf("document content too short: at least %d characters of screenplay text are required", MinContentChars)
	}
	switch format {
	case FormatFDX:
		if !strings.Contains(text, "Scene Heading") {
			return warnings, malformed("no scene headers detected")
		}
	default:
		if CountSceneHeadings(text) == 0 {
			return warnings, malformed("no scene headers detected")
		}
	}
	return warnings, nil
}

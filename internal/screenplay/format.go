package screenplay

import (
	"path/filepath"
	"strings"
)

// Format is the declared encoding of a submitted screenplay document.
type Format string

const (
	// FormatText is a plain-text screenplay relying on scene-heading
	// conventions (INT./EXT. lines).
	FormatText Format = "txt"
	// FormatPDF is a paginated binary whose text must be extracted before
	// scene splitting. Extraction is offloaded to the worker queue.
	FormatPDF Format = "pdf"
	// FormatFDX is the Final Draft XML screenplay interchange format.
	FormatFDX Format = "fdx"
)

// FormatForFilename maps a filename extension to a supported format.
func FormatForFilename(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".text", ".fountain":
		return FormatText, nil
	case ".pdf":
		return FormatPDF, nil
	case ".fdx":
		return FormatFDX, nil
	default:
		return "", ErrUnrecognizedFormat
	}
}

// Heavy reports whether extraction for the format is expensive enough to be
// deferred to the extraction queue instead of the submission path.
func (f Format) Heavy() bool {
	return f == FormatPDF
}

func (f Format) Valid() bool {
	switch f {
	case FormatText, FormatPDF, FormatFDX:
		return true
	}
	return false
}

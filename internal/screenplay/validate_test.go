package screenplay

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func validScriptBytes() []byte {
	var b strings.Builder
	b.WriteString("INT. WAREHOUSE - NIGHT\n\n")
	for i := 0; i < 10; i++ {
		b.WriteString("Forklifts sit idle between tall shelving units.\n")
	}
	return []byte(b.String())
}

func TestValidateUploadAccepts(t *testing.T) {
	warnings, err := ValidateUpload(validScriptBytes(), "draft.txt")
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
}

func TestValidateUploadRejectsExtension(t *testing.T) {
	_, err := ValidateUpload(validScriptBytes(), "draft.docx")
	if !errors.Is(err, ErrUnrecognizedFormat) {
		t.Fatalf("expected ErrUnrecognizedFormat got %v", err)
	}
}

func TestValidateUploadRejectsTooSmall(t *testing.T) {
	_, err := ValidateUpload([]byte("INT. A - DAY"), "draft.txt")
	if err == nil || !strings.Contains(err.Error(), "too small") {
		t.Fatalf("expected size error got %v", err)
	}
}

func TestValidateUploadRejectsTooLarge(t *testing.T) {
	_, err := ValidateUpload(make([]byte, MaxUploadBytes+1), "draft.pdf")
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Fatalf("expected size error got %v", err)
	}
}

func TestValidateUploadWarnsLarge(t *testing.T) {
	data := append([]byte("%PDF-1.7\n"), make([]byte, WarnUploadBytes)...)
	warnings, err := ValidateUpload(data, "draft.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "large upload") {
		t.Fatalf("expected a large-upload warning, got %v", warnings)
	}
}

func TestValidateUploadRejectsFakePDF(t *testing.T) {
	data := bytes.Repeat([]byte("not a pdf at all\n"), 20)
	_, err := ValidateUpload(data, "draft.pdf")
	if !IsMalformed(err) {
		t.Fatalf("expected malformed structure error got %v", err)
	}
}

func TestValidateUploadRejectsShortContent(t *testing.T) {
	data := []byte("INT. A - DAY\nshort" + strings.Repeat(" ", 200))
	_, err := ValidateUpload(data, "draft.txt")
	if err == nil || !strings.Contains(err.Error(), "too short") {
		t.Fatalf("expected content-length error got %v", err)
	}
}

func TestValidateUploadRequiresHeadings(t *testing.T) {
	data := []byte(strings.Repeat("Plain prose without any screenplay structure whatsoever.\n", 10))
	_, err := ValidateUpload(data, "draft.txt")
	if !IsMalformed(err) {
		t.Fatalf("expected malformed structure error got %v", err)
	}
}

func TestFormatForFilename(t *testing.T) {
	cases := []struct {
		name   string
		format Format
		ok     bool
	}{
		{"script.txt", FormatText, true},
		{"script.fountain", FormatText, true},
		{"SCRIPT.PDF", FormatPDF, true},
		{"draft.fdx", FormatFDX, true},
		{"draft.docx", "", false},
		{"noext", "", false},
	}
	for _, c := range cases {
		f, err := FormatForFilename(c.name)
		if c.ok && (err != nil || f != c.format) {
			t.Fatalf("FormatForFilename(%q) = %q, %v", c.name, f, err)
		}
		if !c.ok && err == nil {
			t.Fatalf("FormatForFilename(%q) should fail", c.name)
		}
	}
}

func TestHeavyFormats(t *testing.T) {
	if FormatText.Heavy() || FormatFDX.Heavy() {
		t.Fatal("light formats must not be queued for extraction")
	}
	if !FormatPDF.Heavy() {
		t.Fatal("pdf must go through the extraction queue")
	}
}

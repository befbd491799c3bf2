package util

import "testing"

func TestSanitizeTextRemovesNulAndControls(t *testing.T) {
	in := "ab\x00cd\x01\x02\n\txy"
	out := SanitizeText(in)
	if out != "abcd\n\txy" {
		t.Fatalf("unexpected sanitized output: %q", out)
	}
}

func TestSanitizeTextKeepsWhitespaceAndUnicode(t *testing.T) {
	in := "  INT. CAFÉ - DAY\r\n\tAction line.  "
	out := SanitizeText(in)
	if out != "INT. CAFÉ - DAY\r\n\tAction line." {
		t.Fatalf("unexpected sanitized output: %q", out)
	}
}

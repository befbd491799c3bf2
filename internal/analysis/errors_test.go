package analysis

import (
	"errors"
	"testing"
)

func TestClassifyError(t *testing.T) {
	cases := []struct {
		msg  string
		want ErrorType
	}{
		{"analysis response does not match schema: missing shot_list", ErrorSchema},
		{"openai: insufficient_quota", ErrorQuota},
		{"http 429 rate limited", ErrorRate},
		{"context deadline exceeded", ErrorTransient},
		{"service temporarily unavailable", ErrorTransient},
		{"model not found", ErrorPermanent},
	}
	for _, c := range cases {
		if got := ClassifyError(errors.New(c.msg)); got != c.want {
			t.Fatalf("ClassifyError(%q) = %s, want %s", c.msg, got, c.want)
		}
	}
	if ClassifyError(nil) != "" {
		t.Fatal("nil error must classify to empty")
	}
}

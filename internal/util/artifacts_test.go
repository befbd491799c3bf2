package util

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteJSONAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "summary.json")
	if err := WriteJSONAtomic(path, map[string]int{"total_scenes": 3}); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]int
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if got["total_scenes"] != 3 {
		t.Fatalf("unexpected payload: %v", got)
	}
}

func TestWriteTextAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "extracted.txt")
	if err := WriteTextAtomic(path, "INT. ROOM - DAY\n"); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "INT. ROOM - DAY\n" {
		t.Fatalf("unexpected content: %q", b)
	}
}

func TestSafeJoinStripsTraversal(t *testing.T) {
	got := SafeJoin("/data/in/p1", "../../etc/passwd")
	if got != "/data/in/p1/passwd" {
		t.Fatalf("unexpected join: %q", got)
	}
}

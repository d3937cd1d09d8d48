package cli

import (
	"strings"
	"testing"
)

func TestShowCommand(t *testing.T) {
	isolate(t)
	out, err := runCLI(t, "show", "--input", writeHistory(t), "--plain")
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != len(sampleHistory) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(sampleHistory), out)
	}
	for i, c := range sampleHistory {
		if !strings.Contains(lines[i], c.Subject) {
			t.Errorf("line %d = %q, want subject %q", i, lines[i], c.Subject)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("--plain output contains escape codes")
	}
}

func TestShowWithoutLabels(t *testing.T) {
	isolate(t)
	out, err := runCLI(t, "show", "--input", writeHistory(t), "--plain", "--labels=false")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "Merge dev") {
		t.Errorf("labels shown with --labels=false:\n%s", out)
	}
}

func TestShowFilters(t *testing.T) {
	isolate(t)
	out, err := runCLI(t, "show", "--input", writeHistory(t), "--plain", "--author", "Bob")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "Update docs") || !strings.Contains(out, "Fix lane colors") {
		t.Errorf("author filter not applied:\n%s", out)
	}
}

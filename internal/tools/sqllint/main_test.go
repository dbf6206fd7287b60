package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeGo(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestRunAcceptsMarkedQueries(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "q.go", "package q\n\nconst QSelectJob = `--sql 226a8702-5d3c-4f1e-9b1a-1c2d3e4f5a6b\nselect 1`\n\nconst greeting = \"hello with friends\"\n")

	var stderr bytes.Buffer
	if code := run([]string{dir}, &stderr); code != 0 {
		t.Fatalf("run() = %d, want 0: %s", code, stderr.String())
	}
}

func TestRunReportsViolations(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "a.go", "package q\n\nconst QFirst = `--sql 226a8702-5d3c-4f1e-9b1a-1c2d3e4f5a6b\nselect 1`\n\nconst QNoMarker = `select 2`\n")
	writeGo(t, dir, "b.go", "package q\n\nconst QSecond = `--sql 226a8702-5d3c-4f1e-9b1a-1c2d3e4f5a6b\nselect 3`\n\nvar raw = \"update t set x = 1\"\n")

	var stderr bytes.Buffer
	if code := run([]string{dir}, &stderr); code != 1 {
		t.Fatalf("run() = %d, want 1", code)
	}
	out := stderr.String()
	for _, want := range []string{"(QNoMarker)", "marker already used by QFirst (QSecond)", "(raw)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunSkipsTestFiles(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "x_test.go", "package q\n\nconst QFake = `select 1`\n")

	var stderr bytes.Buffer
	if code := run([]string{dir}, &stderr); code != 0 {
		t.Fatalf("run() = %d, want 0: %s", code, stderr.String())
	}
}

package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sumProgram = `{
	"Statements": [
		{
			"Kind": "ConstDecl",
			"Name": "x",
			"Value": {
				"Kind": "BinaryExpr",
				"Op": "+",
				"X": {"Kind": "IntLit", "Value": 40},
				"Y": {"Kind": "IntLit", "Value": 2}
			}
		},
		{"Kind": "ExprStmt", "X": {"Kind": "Identifier", "Name": "x"}}
	]
}`

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("os.WriteFile: %v", err)
	}
	return path
}

func TestRunFileFromSource(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "sum.lkr", sumProgram)

	var stdout, stderr bytes.Buffer
	code := Run([]string{path}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr.String())
	}
	if got := strings.TrimSpace(stdout.String()); got != "42" {
		t.Fatalf("stdout = %q", got)
	}
}

func TestCompileThenRunLKRB(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "sum.lkr", sumProgram)

	var stderr bytes.Buffer
	if code := Run([]string{"compile", src}, &bytes.Buffer{}, &stderr); code != 0 {
		t.Fatalf("compile exit code = %d, stderr = %s", code, stderr.String())
	}

	bundlePath := filepath.Join(dir, "sum.lkrb")
	var stdout bytes.Buffer
	if code := Run([]string{bundlePath}, &stdout, &stderr); code != 0 {
		t.Fatalf("run exit code = %d, stderr = %s", code, stderr.String())
	}
	if got := strings.TrimSpace(stdout.String()); got != "42" {
		t.Fatalf("stdout = %q", got)
	}
}

func TestCheckStub(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "sum.lkr", sumProgram)

	var stdout bytes.Buffer
	if code := Run([]string{"check", path}, &stdout, &bytes.Buffer{}); code != 0 {
		t.Fatalf("check exit code = %d", code)
	}
	if !strings.Contains(stdout.String(), "ok") {
		t.Fatalf("stdout = %q", stdout.String())
	}
}

func TestRunFileRuntimeErrorNonZeroExit(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "raise.lkr", `{
		"Statements": [
			{"Kind": "RaiseStmt", "Value": {"Kind": "StringLit", "Value": "boom"}}
		]
	}`)

	var stdout, stderr bytes.Buffer
	code := Run([]string{path}, &stdout, &stderr)
	if code == 0 {
		t.Fatal("expected non-zero exit code for a raised error")
	}
	if !strings.Contains(stderr.String(), "boom") {
		t.Fatalf("stderr = %q", stderr.String())
	}
}

func TestRunMissingArgsPrintsUsage(t *testing.T) {
	var stderr bytes.Buffer
	code := Run(nil, &bytes.Buffer{}, &stderr)
	if code != 2 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(stderr.String(), "usage") {
		t.Fatalf("stderr = %q", stderr.String())
	}
}

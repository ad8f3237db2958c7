package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleDoc = `<?xml version="1.0" encoding="UTF-8"?>
<TEI xmlns="http://www.tei-c.org/ns/1.0"><teiHeader><title>Saga</title></teiHeader><text><body>
<p><w xml:id="w1">Olafr</w> <w xml:id="w2">kon<lb n="4"/>ungr</w><pc>.</pc></p>
</body></text></TEI>
`

// runCLI runs vellum with an isolated config and env file.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	dir := t.TempDir()
	base := []string{
		"--env-file", filepath.Join(dir, "missing.env"),
		"--config", filepath.Join(dir, "missing.yaml"),
	}
	var stdout, stderr bytes.Buffer
	err := run(append(base, args...), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func TestCompileCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "saga.txt", "ok.")

	stdout, stderr, err := runCLI(t, "compile", input)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if !strings.Contains(stdout, "<w>ok</w>") || !strings.Contains(stdout, "<pc>.</pc>") {
		t.Errorf("stdout = %q", stdout)
	}
	if !strings.Contains(stderr, "msg=compile") {
		t.Errorf("stderr should carry the compile log, got %q", stderr)
	}

	out := filepath.Join(dir, "saga.xml")
	if _, _, err := runCLI(t, "compile", "--multi-level", "-o", out, input); err != nil {
		t.Fatalf("compile -o failed: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(data), "<me:facs>ok</me:facs>") {
		t.Errorf("multi-level output = %q", data)
	}
}

func TestCompileCommandLexError(t *testing.T) {
	input := writeFile(t, t.TempDir(), "bad.txt", "a -{open")
	if _, _, err := runCLI(t, "compile", input); err == nil {
		t.Error("compile should fail on unterminated markup")
	}
}

func TestRoundTripCommands(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "saga.xml", sampleDoc)
	sess := filepath.Join(dir, "saga.vellum")

	stdout, _, err := runCLI(t, "import", input, "-o", sess)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if !strings.HasPrefix(stdout, "Session: ") || !strings.Contains(stdout, "Multi-level: false") {
		t.Errorf("import output = %q", stdout)
	}

	stdout, _, err = runCLI(t, "flatten", sess)
	if err != nil {
		t.Fatalf("flatten failed: %v", err)
	}
	if stdout != "Olafr kon~//4ungr .\n" {
		t.Errorf("flatten = %q", stdout)
	}

	edited := writeFile(t, dir, "edited.txt", "Olaf kon~//4ungr .")
	stdout, _, err = runCLI(t, "patch", sess, edited)
	if err != nil {
		t.Fatalf("patch failed: %v", err)
	}
	want := strings.Replace(sampleDoc, `<w xml:id="w1">Olafr</w>`, `<w xml:id="w1">Olaf</w>`, 1)
	if stdout != want {
		t.Errorf("patch:\n got: %q\nwant: %q", stdout, want)
	}

	stdout, _, err = runCLI(t, "patch", "--dry-run", sess, edited)
	if err != nil {
		t.Fatalf("patch --dry-run failed: %v", err)
	}
	if !strings.HasPrefix(stdout, "kept ") || !strings.Contains(stdout, "modified 1") || !strings.Contains(stdout, `modify(`) {
		t.Errorf("dry run = %q", stdout)
	}
}

func TestImportRequiresOutput(t *testing.T) {
	input := writeFile(t, t.TempDir(), "saga.xml", sampleDoc)
	if _, _, err := runCLI(t, "import", input); err == nil {
		t.Error("import without -o should fail")
	}
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	schema := writeFile(t, dir, "tei.rng", `<grammar xmlns="http://relaxng.org/ns/structure/1.0">
  <start><element name="TEI"><element name="body"><text/></element></element></start>
</grammar>`)
	good := writeFile(t, dir, "good.xml", `<TEI><body>x</body></TEI>`)
	bad := writeFile(t, dir, "bad.xml", `<TEI><front/></TEI>`)

	stdout, _, err := runCLI(t, "validate", good, "--schema", schema)
	if err != nil || !strings.Contains(stdout, "valid") {
		t.Errorf("validate good = %q, %v", stdout, err)
	}

	stdout, _, err = runCLI(t, "validate", bad, "--schema", schema)
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Errorf("validate bad: err = %v", err)
	}
	if !strings.Contains(stdout, "<front>") {
		t.Errorf("validate bad output = %q", stdout)
	}
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(stdout, "vellum "+version) || !strings.Contains(stdout, "sqlite:") {
		t.Errorf("version = %q", stdout)
	}
}

func TestInvalidLogLevel(t *testing.T) {
	if _, _, err := runCLI(t, "--log-level", "loud", "version"); err == nil {
		t.Error("unknown log level should fail")
	}
}

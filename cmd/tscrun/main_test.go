package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sibikrish3000/tscbridge/internal/compile"
)

// fakeTSC writes a shell script standing in for tsc and returns the flags
// that point tscrun at it.
func fakeTSC(t *testing.T, body string) []string {
	t.Helper()
	dir := t.TempDir()
	script := filepath.Join(dir, "tsc.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\n"+body+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return []string{
		"--config", filepath.Join(dir, "absent.yaml"),
		"--set", "node_path=/bin/sh",
		"--set", "typescript_path=" + script,
		"--set", "temp_dir=" + t.TempDir(),
	}
}

func TestRun_CompilesFile(t *testing.T) {
	src := filepath.Join(t.TempDir(), "app.ts")
	if err := os.WriteFile(src, []byte("let x = 1;\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	args := append(fakeTSC(t, `echo 'var x = 1;' > "$2"`), src)

	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(""), &stdout, &stderr)

	if code != exitOK {
		t.Fatalf("exit code = %d, want %d (stderr: %s)", code, exitOK, stderr.String())
	}
	if !strings.Contains(stdout.String(), "var x = 1;") {
		t.Errorf("stdout = %q, want compiled output", stdout.String())
	}
	if !strings.Contains(stderr.String(), filepath.Join(filepath.Dir(src), "app.js")) {
		t.Errorf("stderr = %q, want the opened destination", stderr.String())
	}
}

func TestRun_CompilesStdinBuffer(t *testing.T) {
	args := fakeTSC(t, `cat "$3" > "$2"`)

	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader("let piped = true;\n"), &stdout, &stderr)

	if code != exitOK {
		t.Fatalf("exit code = %d (stderr: %s)", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "let piped = true;") {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestRun_Diagnostics(t *testing.T) {
	args := fakeTSC(t, `echo "TypeError: x is not a function"; exit 2`)

	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader("x()"), &stdout, &stderr)

	if code != exitCompile {
		t.Errorf("exit code = %d, want %d", code, exitCompile)
	}
	out := stdout.String()
	if !strings.Contains(out, compile.ScratchName) || !strings.Contains(out, compile.DiagnosticsPreamble) {
		t.Errorf("stdout = %q, want diagnostics scratch", out)
	}
}

func TestRun_InterpreterNotFound(t *testing.T) {
	args := append(fakeTSC(t, `true`), "--set", "node_path="+filepath.Join(t.TempDir(), "node"))

	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader("x"), &stdout, &stderr)

	if code != exitCompile {
		t.Errorf("exit code = %d, want %d", code, exitCompile)
	}
	if !strings.Contains(stderr.String(), "could not be found") || !strings.Contains(stderr.String(), "PATH is:") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestRun_FatalSpawnError(t *testing.T) {
	node := filepath.Join(t.TempDir(), "node")
	if err := os.WriteFile(node, []byte("#!/bin/sh\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	args := append(fakeTSC(t, `true`), "--set", "node_path="+node)

	var stdout, stderr bytes.Buffer
	if code := run(args, strings.NewReader("x"), &stdout, &stderr); code != exitFatal {
		t.Errorf("exit code = %d, want %d (stderr: %s)", code, exitFatal, stderr.String())
	}
}

func TestRun_UsageErrors(t *testing.T) {
	badConfig := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(badConfig, []byte("unknown_key: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
	}{
		{"bad setting flag", []string{"--set", "nokey"}},
		{"unknown setting key", []string{"--set", "nod_path=/opt/node", "a.ts"}},
		{"invalid config file", []string{"--config", badConfig, "a.ts"}},
		{"bad boolean setting", []string{"--set", "keep_temp=maybe", "a.ts"}},
		{"too many files", []string{"a.ts", "b.ts"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(tt.args, strings.NewReader(""), &stdout, &stderr); code != exitUsage {
				t.Errorf("exit code = %d, want %d", code, exitUsage)
			}
		})
	}
}

func TestSetFlags_RejectsUnknownKeys(t *testing.T) {
	s := setFlags{}
	err := s.Set("nod_path=/opt/node")
	if err == nil || !strings.Contains(err.Error(), "node_path") {
		t.Errorf("Set(nod_path) error = %v, want it to list the known keys", err)
	}
	if _, ok := s.lookup("nod_path"); ok {
		t.Error("unknown key was recorded")
	}
	if err := s.Set("node_path=/opt/node"); err != nil {
		t.Errorf("Set(node_path): %v", err)
	}
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"--version"}, strings.NewReader(""), &stdout, &stderr); code != exitOK {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.HasPrefix(stdout.String(), "tscrun dev") {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestReadBuffer(t *testing.T) {
	buf, err := readBuffer([]string{"a.ts"}, strings.NewReader("ignored"))
	if err != nil || buf.FileName != "a.ts" || buf.Text != "" {
		t.Errorf("file arg: %+v, %v", buf, err)
	}

	buf, err = readBuffer([]string{"-"}, strings.NewReader("piped"))
	if err != nil || buf.FileName != "" || buf.Text != "piped" {
		t.Errorf("dash arg: %+v, %v", buf, err)
	}

	if _, err := readBuffer([]string{"a", "b"}, strings.NewReader("")); err == nil {
		t.Error("expected error for two files")
	}
}

func TestTermScratchIsScoped(t *testing.T) {
	var out bytes.Buffer
	h := newTermHost(&out, &out, false)

	s, err := h.NewScratch("Output")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Insert("nope"); err == nil {
		t.Error("insert into a read-only scratch succeeded")
	}
	s.SetReadOnly(false)
	if err := s.Insert("text"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "== Output ==") || !strings.HasSuffix(out.String(), "text") {
		t.Errorf("output = %q", out.String())
	}
	if !h.Failed() {
		t.Error("a scratch buffer should mark the session as failed")
	}
}

func TestRunDoctor(t *testing.T) {
	dir := t.TempDir()
	node := filepath.Join(dir, "node")
	tsc := filepath.Join(dir, "tsc")
	if err := os.WriteFile(node, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(tsc, []byte("// tsc\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	base := []string{"--config", filepath.Join(dir, "absent.yaml")}

	var stdout, stderr bytes.Buffer
	code := runDoctor(append(base, "--set", "node_path="+node, "--set", "typescript_path="+tsc), &stdout, &stderr)
	if code != exitOK {
		t.Errorf("exit code = %d, want %d (stdout: %s)", code, exitOK, stdout.String())
	}
	if strings.Contains(stdout.String(), "missing") {
		t.Errorf("stdout = %q, want both tools ok", stdout.String())
	}

	stdout.Reset()
	code = runDoctor(append(base, "--set", "node_path="+filepath.Join(dir, "nope")), &stdout, &stderr)
	if code != exitCompile {
		t.Errorf("exit code = %d, want %d", code, exitCompile)
	}
	if !strings.Contains(stdout.String(), "missing  node_path") {
		t.Errorf("stdout = %q, want node_path reported missing", stdout.String())
	}
}

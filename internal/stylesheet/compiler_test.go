// SPDX-License-Identifier: MPL-2.0

package stylesheet

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const helperEnv = "SCD_WANT_HELPER_COMPILER"

// TestHelperCompiler is not a real test. ExecCompiler runs the test binary
// as a fake compiler: it copies the source to the destination and uppercases
// it, or fails when the source contains "error".
func TestHelperCompiler(t *testing.T) {
	if os.Getenv(helperEnv) != "1" {
		return
	}
	args := os.Args
	for i, a := range args {
		if a == "--" {
			args = args[i+1:]
			break
		}
	}
	src, dst := args[len(args)-2], args[len(args)-1]
	data, err := os.ReadFile(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if strings.Contains(string(data), "error") {
		fmt.Fprintln(os.Stderr, "ParseError: unrecognised input in", src)
		os.Exit(1)
	}
	if err := os.WriteFile(dst, []byte(strings.ToUpper(string(data))), 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	os.Exit(0)
}

func helperCompiler() *ExecCompiler {
	return &ExecCompiler{
		Command: []string{os.Args[0], "-test.run=^TestHelperCompiler$", "--"},
		Env:     []string{helperEnv + "=1"},
	}
}

func writeEntry(t *testing.T, dir, entry, contents string) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(entry))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestExecCompiler(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeEntry(t, dir, "css/styles-m.less", "body {}")

	if err := helperCompiler().Compile(context.Background(), dir, "css/styles-m.less"); err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dir, "css", "styles-m.css"))
	if err != nil {
		t.Fatalf("expected css output: %v", err)
	}
	if string(got) != "BODY {}" {
		t.Errorf("css = %q", got)
	}
}

func TestExecCompiler_Failure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeEntry(t, dir, "css/styles-l.less", "error here")

	err := helperCompiler().Compile(context.Background(), dir, "css/styles-l.less")
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *CompileError, got %v", err)
	}
	if ce.ExitCode != 1 || !strings.Contains(ce.Output, "ParseError") {
		t.Errorf("unexpected compile error: %+v", ce)
	}
	if !errors.Is(err, ErrCompileFailed) {
		t.Error("expected errors.Is(err, ErrCompileFailed)")
	}
}

func TestNewExecCompiler(t *testing.T) {
	t.Parallel()

	c, err := NewExecCompiler("  lessc   --source-map ")
	if err != nil {
		t.Fatalf("NewExecCompiler() error = %v", err)
	}
	if len(c.Command) != 2 || c.Command[0] != "lessc" || c.Command[1] != "--source-map" {
		t.Errorf("Command = %q", c.Command)
	}
	if _, err := NewExecCompiler("   "); err == nil {
		t.Error("expected error for empty command")
	}
	if got := CSSPath("css/styles-m.less"); got != "css/styles-m.css" {
		t.Errorf("CSSPath() = %q", got)
	}
}
